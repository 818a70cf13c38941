package job

import (
	"context"

	"github.com/probonopd/LiberTEM/dataset"
	"github.com/probonopd/LiberTEM/nd"
)

// PickFrameJob extracts the region roi of a dataset into an output of shape
// roi.Shape.
type PickFrameJob struct {
	ds  dataset.Dataset
	roi nd.Slice
}

var _ Job = (*PickFrameJob)(nil)

func NewPickFrameJob(ds dataset.Dataset, roi nd.Slice) (*PickFrameJob, error) {
	shape := ds.Shape()
	if roi.Dims() != len(shape) {
		return nil, &nd.ShapeError{Op: "region arity", Want: shape, Got: roi.Shape}
	}
	if _, err := nd.NewSlice(roi.Origin, roi.Shape); err != nil {
		return nil, err
	}
	return &PickFrameJob{ds: ds, roi: roi}, nil
}

// PickFrame builds the job extracting the frame at one scan position. The
// leading len(nav) dimensions are navigation dimensions.
func PickFrame(ds dataset.Dataset, nav ...int) (*PickFrameJob, error) {
	shape := ds.Shape()
	if len(nav) > len(shape) {
		return nil, &nd.ShapeError{Op: "scan position arity", Want: shape, Got: nav}
	}
	roi := nd.Whole(shape)
	for i, v := range nav {
		roi.Origin[i] = v
		roi.Shape[i] = 1
	}
	return NewPickFrameJob(ds, roi)
}

func (j *PickFrameJob) ResultShape() []int {
	return append([]int(nil), j.roi.Shape...)
}

func (j *PickFrameJob) Tasks(ctx context.Context) ([]Task, error) {
	parts, err := j.ds.Partitions(ctx)
	if err != nil {
		return nil, err
	}
	var tasks []Task
	for _, p := range parts {
		if j.roi.Intersection(p.Slice()).IsNull() {
			continue
		}
		tasks = append(tasks, &pickFrameTask{partition: p, roi: j.roi})
	}
	return tasks, nil
}

type pickFrameTask struct {
	partition dataset.Partition
	roi       nd.Slice
}

func (t *pickFrameTask) Partition() dataset.Partition { return t.partition }

func (t *pickFrameTask) Run(ctx context.Context) ([]ResultTile, error) {
	result := nd.Zeros(t.roi.Shape...)
	var regions []nd.Slice

	err := scanTiles(ctx, t.partition, func(tile dataset.Tile) error {
		overlap := tile.Slice.Intersection(t.roi)
		if overlap.IsNull() {
			return nil
		}
		dest := overlap.Shift(t.roi)
		dst, err := result.ViewSlice(dest)
		if err != nil {
			return err
		}
		src, err := tile.Data.ViewSlice(overlap.Shift(tile.Slice))
		if err != nil {
			return err
		}
		if err := dst.CopyFrom(src); err != nil {
			return err
		}
		regions = append(regions, dest)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return []ResultTile{&PickResultTile{data: result, regions: regions}}, nil
}

// PickResultTile holds the part of the region one partition contributed.
type PickResultTile struct {
	data    *nd.Array
	regions []nd.Slice
}

var (
	_ ResultTile     = (*PickResultTile)(nil)
	_ RegionReporter = (*PickResultTile)(nil)
)

func (r *PickResultTile) Data() *nd.Array { return r.data }

func (r *PickResultTile) Regions() []nd.Slice { return r.regions }

func (r *PickResultTile) Check(out *nd.Array) error {
	return CheckAccumulate(out, nil, r.data)
}

func (r *PickResultTile) CopyToResult(out *nd.Array) error {
	return Accumulate(out, nil, r.data)
}
