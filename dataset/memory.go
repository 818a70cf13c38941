package dataset

import (
	"context"
	"fmt"

	"github.com/probonopd/LiberTEM/nd"
)

// DefaultTargetPartitionSize bounds the bytes a partition covers when no
// partition shape is configured.
const DefaultTargetPartitionSize = 512 * 1024 * 1024

// MemoryOption configures a Memory dataset.
type MemoryOption func(*memoryOptions)

type memoryOptions struct {
	dtype          nd.Dtype
	navDims        int
	partitionShape []int
	tileShape      []int
	targetSize     int
}

// WithDtype sets the element type reported for the dataset. Values are held
// as float64 regardless.
func WithDtype(dt nd.Dtype) MemoryOption {
	return func(o *memoryOptions) {
		o.dtype = dt
	}
}

// WithNavDims sets how many leading dimensions are navigation dimensions.
func WithNavDims(n int) MemoryOption {
	return func(o *memoryOptions) {
		o.navDims = n
	}
}

// WithPartitionShape sets the block shape partitions are cut into. Only the
// leading dimension should normally be smaller than the dataset.
func WithPartitionShape(shape ...int) MemoryOption {
	return func(o *memoryOptions) {
		o.partitionShape = shape
	}
}

// WithTileShape sets the block shape tiles are cut into. Edge tiles are
// clipped to their partition.
func WithTileShape(shape ...int) MemoryOption {
	return func(o *memoryOptions) {
		o.tileShape = shape
	}
}

// WithTargetPartitionSize sets the approximate number of bytes per partition
// used when no explicit partition shape is given.
func WithTargetPartitionSize(bytes int) MemoryOption {
	return func(o *memoryOptions) {
		if bytes > 0 {
			o.targetSize = bytes
		}
	}
}

// Memory is a Dataset backed by an in-memory array.
type Memory struct {
	data *nd.Array
	opts memoryOptions
}

var _ Dataset = (*Memory)(nil)

// NewMemory wraps data. Partitions split the leading dimension; tiles
// default to one frame each.
func NewMemory(data *nd.Array, opts ...MemoryOption) (*Memory, error) {
	shape := data.Shape()
	o := memoryOptions{
		dtype:      nd.Float64,
		navDims:    defaultNavDims(len(shape)),
		targetSize: DefaultTargetPartitionSize,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.navDims < 1 || o.navDims > len(shape) {
		return nil, fmt.Errorf("invalid number of navigation dimensions %d for shape %v", o.navDims, shape)
	}
	if o.partitionShape == nil {
		o.partitionShape = rowBlock(shape, o.dtype.ByteSize, o.targetSize)
	}
	if len(o.partitionShape) != len(shape) {
		return nil, &nd.ShapeError{Op: "partition shape", Want: shape, Got: o.partitionShape}
	}
	if o.tileShape == nil {
		o.tileShape = frameBlock(shape, o.navDims)
	}
	if len(o.tileShape) != len(shape) {
		return nil, &nd.ShapeError{Op: "tile shape", Want: shape, Got: o.tileShape}
	}

	return &Memory{data: data, opts: o}, nil
}

func (m *Memory) Shape() []int { return m.data.Shape() }

func (m *Memory) Dtype() nd.Dtype { return m.opts.dtype }

// NavDims returns the number of leading navigation dimensions.
func (m *Memory) NavDims() int { return m.opts.navDims }

func (m *Memory) Partitions(ctx context.Context) ([]Partition, error) {
	blocks := nd.Whole(m.data.Shape()).Subdivide(m.opts.partitionShape)
	parts := make([]Partition, len(blocks))
	for i, b := range blocks {
		parts[i] = &memoryPartition{ds: m, slice: b}
	}
	return parts, nil
}

type memoryPartition struct {
	ds    *Memory
	slice nd.Slice
}

func (p *memoryPartition) Slice() nd.Slice { return p.slice }

func (p *memoryPartition) Dtype() nd.Dtype { return p.ds.opts.dtype }

func (p *memoryPartition) Tiles(ctx context.Context) (TileIterator, error) {
	return NewSliceIterator(ctx, p.slice.Subdivide(p.ds.opts.tileShape), p.ds.opts.dtype, p.load), nil
}

// load copies the region out so tiles never alias the backing array.
func (p *memoryPartition) load(_ context.Context, s nd.Slice) (*nd.Array, error) {
	v, err := p.ds.data.ViewSlice(s)
	if err != nil {
		return nil, err
	}
	return v.Clone(), nil
}

func defaultNavDims(dims int) int {
	if dims > 2 {
		return dims - 2
	}
	return 1
}

// rowBlock picks how many rows of the leading dimension fit in target bytes.
func rowBlock(shape []int, itemSize, target int) []int {
	block := make([]int, len(shape))
	if len(shape) == 0 {
		return block
	}
	rowBytes := max(itemSize, 1)
	for _, s := range shape[1:] {
		rowBytes *= s
	}
	block[0] = max(target/max(rowBytes, 1), 1)
	return block
}

// frameBlock is one element along every navigation dimension and the whole
// signal extent.
func frameBlock(shape []int, navDims int) []int {
	block := make([]int, len(shape))
	for i := 0; i < navDims; i++ {
		block[i] = 1
	}
	return block
}
