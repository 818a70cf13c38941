package job

import (
	"context"
	"errors"
	"fmt"

	"github.com/probonopd/LiberTEM/dataset"
	"github.com/probonopd/LiberTEM/nd"
)

// MaskFactory builds one mask covering the whole signal extent of a dataset.
type MaskFactory func() *nd.Array

// ApplyMasksJob computes, for every scan position, the dot product of the
// frame with each mask. The result has shape (len(masks),) + nav shape.
type ApplyMasksJob struct {
	ds      dataset.Dataset
	masks   []*nd.Array
	navDims int
}

var _ Job = (*ApplyMasksJob)(nil)

// NewApplyMasksJob evaluates every factory once. All masks must share the
// trailing (signal) shape of the dataset; the remaining leading dimensions
// are navigation dimensions.
func NewApplyMasksJob(ds dataset.Dataset, factories ...MaskFactory) (*ApplyMasksJob, error) {
	if len(factories) == 0 {
		return nil, errors.New("apply masks: no mask factories")
	}
	shape := ds.Shape()
	masks := make([]*nd.Array, len(factories))
	for i, f := range factories {
		if masks[i] = f(); masks[i] == nil {
			return nil, &nd.ShapeError{Op: fmt.Sprintf("mask %d: nil array", i)}
		}
	}

	sig := masks[0].Shape()
	navDims := len(shape) - len(sig)
	if navDims < 1 {
		return nil, &nd.ShapeError{Op: "mask arity", Want: shape, Got: sig}
	}
	want := nd.Whole(shape).Sig(navDims)
	for _, m := range masks {
		if !want.Equal(nd.Whole(m.Shape())) {
			return nil, &nd.ShapeError{Op: "mask shape", Want: want.Shape, Got: m.Shape()}
		}
	}
	return &ApplyMasksJob{ds: ds, masks: masks, navDims: navDims}, nil
}

// Masks returns the computed masks. They must not be modified.
func (j *ApplyMasksJob) Masks() []*nd.Array { return j.masks }

func (j *ApplyMasksJob) NavDims() int { return j.navDims }

func (j *ApplyMasksJob) ResultShape() []int {
	return append([]int{len(j.masks)}, j.ds.Shape()[:j.navDims]...)
}

func (j *ApplyMasksJob) Tasks(ctx context.Context) ([]Task, error) {
	parts, err := j.ds.Partitions(ctx)
	if err != nil {
		return nil, err
	}
	tasks := make([]Task, 0, len(parts))
	for _, p := range parts {
		if p.Slice().IsNull() {
			continue
		}
		tasks = append(tasks, &applyMasksTask{partition: p, masks: j.masks, navDims: j.navDims})
	}
	return tasks, nil
}

type applyMasksTask struct {
	partition dataset.Partition
	masks     []*nd.Array
	navDims   int
}

func (t *applyMasksTask) Partition() dataset.Partition { return t.partition }

func (t *applyMasksTask) Run(ctx context.Context) ([]ResultTile, error) {
	var results []ResultTile
	err := scanTiles(ctx, t.partition, func(tile dataset.Tile) error {
		r, err := t.applyToTile(tile)
		if err != nil {
			return err
		}
		results = append(results, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// applyToTile reduces the tile against the part of each mask its signal
// range covers. Tiles that split the signal plane give partial sums which
// add up in the output.
func (t *applyMasksTask) applyToTile(tile dataset.Tile) (*MaskResultTile, error) {
	nav := tile.Slice.Nav(t.navDims)
	sig := tile.Slice.Sig(t.navDims)

	maskViews := make([]*nd.Array, len(t.masks))
	for k, m := range t.masks {
		v, err := m.ViewSlice(sig)
		if err != nil {
			return nil, err
		}
		maskViews[k] = v
	}

	out := nd.Zeros(append([]int{len(t.masks)}, nav.Shape...)...)
	for _, pos := range nd.Whole(nav.Shape).Subdivide(unitStep(t.navDims)) {
		frame, err := tile.Data.Index(pos.Origin...)
		if err != nil {
			return nil, err
		}
		for k, mv := range maskViews {
			d, err := nd.Dot(frame, mv)
			if err != nil {
				return nil, err
			}
			out.Set(d, append([]int{k}, pos.Origin...)...)
		}
	}
	return &MaskResultTile{data: out, nav: nav}, nil
}

// MaskResultTile holds the per-mask sums of one tile, placed at the tile's
// navigation region in the output.
type MaskResultTile struct {
	data *nd.Array
	nav  nd.Slice
}

var _ ResultTile = (*MaskResultTile)(nil)

func (r *MaskResultTile) Data() *nd.Array { return r.data }

// Nav is the navigation region the tile contributes to.
func (r *MaskResultTile) Nav() nd.Slice { return r.nav }

func (r *MaskResultTile) Check(out *nd.Array) error {
	return CheckAccumulate(out, r.dest(), r.data)
}

func (r *MaskResultTile) CopyToResult(out *nd.Array) error {
	return Accumulate(out, r.dest(), r.data)
}

func (r *MaskResultTile) dest() []nd.Range {
	return append([]nd.Range{{Start: 0, Stop: r.data.Shape()[0]}}, r.nav.Get()...)
}

func unitStep(n int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = 1
	}
	return s
}
