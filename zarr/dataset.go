package zarr

import (
	"context"

	"github.com/probonopd/LiberTEM/dataset"
	"github.com/probonopd/LiberTEM/nd"
)

// DatasetOption configures how an Array is split into partitions.
type DatasetOption func(*datasetOptions)

type datasetOptions struct {
	targetSize int
}

// WithTargetPartitionSize sets the approximate number of bytes per
// partition. Partitions always span whole rows of chunks.
func WithTargetPartitionSize(bytes int) DatasetOption {
	return func(o *datasetOptions) {
		if bytes > 0 {
			o.targetSize = bytes
		}
	}
}

// Dataset exposes an Array as a dataset.Dataset. Partitions are runs of
// chunk rows along the first dimension, and the tiles of a partition are
// the chunks it overlaps, clipped to the array. Chunks are decoded one at a
// time as the tiles are iterated.
type Dataset struct {
	arr  *Array
	opts datasetOptions
}

var _ dataset.Dataset = (*Dataset)(nil)

func NewDataset(arr *Array, opts ...DatasetOption) *Dataset {
	o := datasetOptions{targetSize: dataset.DefaultTargetPartitionSize}
	for _, opt := range opts {
		opt(&o)
	}
	return &Dataset{arr: arr, opts: o}
}

func (d *Dataset) Shape() []int { return d.arr.Shape() }

func (d *Dataset) Dtype() nd.Dtype { return d.arr.Dtype() }

func (d *Dataset) Partitions(ctx context.Context) ([]dataset.Partition, error) {
	shape := d.arr.Shape()
	if len(shape) == 0 {
		return nil, &nd.ShapeError{Op: "partition scalar array", Got: shape}
	}

	chunks := d.arr.meta.Chunks
	rowBytes := max(d.arr.dtype.ByteSize, 1) * chunks[0]
	for _, s := range shape[1:] {
		rowBytes *= s
	}
	chunkRows := max(d.opts.targetSize/max(rowBytes, 1), 1)

	step := make([]int, len(shape))
	step[0] = chunkRows * chunks[0]
	blocks := nd.Whole(shape).Subdivide(step)

	parts := make([]dataset.Partition, len(blocks))
	for i, b := range blocks {
		parts[i] = &partition{arr: d.arr, slice: b}
	}
	return parts, nil
}

type partition struct {
	arr   *Array
	slice nd.Slice
}

func (p *partition) Slice() nd.Slice { return p.slice }

func (p *partition) Dtype() nd.Dtype { return p.arr.dtype }

func (p *partition) Tiles(ctx context.Context) (dataset.TileIterator, error) {
	projs := p.arr.projections(p.slice)
	extents := make([]nd.Slice, len(projs))
	for i, pr := range projs {
		extents[i] = pr.Extent
	}
	return dataset.NewSliceIterator(ctx, extents, p.arr.dtype, p.load), nil
}

// load decodes the single chunk containing s.
func (p *partition) load(_ context.Context, s nd.Slice) (*nd.Array, error) {
	coords := make([]int, s.Dims())
	for i := range coords {
		coords[i] = s.Origin[i] / p.arr.meta.Chunks[i]
	}
	chunk, err := p.arr.ReadChunk(coords)
	if err != nil {
		return nil, err
	}
	v, err := chunk.ViewSlice(s.Shift(p.arr.chunkFrame(coords)))
	if err != nil {
		return nil, err
	}
	return v.Clone(), nil
}
