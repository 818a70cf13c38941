package job

import (
	"errors"
	"fmt"

	"github.com/probonopd/LiberTEM/dataset"
	"github.com/probonopd/LiberTEM/nd"
)

var ErrAlreadyMerged = errors.New("task results already merged")

// NewOutput allocates a zeroed output buffer for j.
func NewOutput(j Job) *nd.Array {
	return nd.Zeros(j.ResultShape()...)
}

// ValidateOutput checks that out can receive the results of j.
func ValidateOutput(j Job, out *nd.Array) error {
	want := j.ResultShape()
	if !nd.Whole(want).Equal(nd.Whole(out.Shape())) {
		return &nd.ShapeError{Op: "output buffer", Want: want, Got: out.Shape()}
	}
	return nil
}

// MergerOption configures a Merger.
type MergerOption func(*mergerOptions)

type mergerOptions struct {
	disjoint bool
}

// WithDisjointCheck makes the merger verify that result tiles reporting
// their regions never write the same output element twice across the job.
func WithDisjointCheck() MergerOption {
	return func(o *mergerOptions) {
		o.disjoint = true
	}
}

// Merger applies the results of each task of one job to an output buffer,
// at most once per task. It is not safe for concurrent use; the goroutine
// that owns the buffer does all merging.
type Merger struct {
	out      *nd.Array
	merged   map[int]struct{}
	coverage *nd.Array
}

func NewMerger(j Job, out *nd.Array, opts ...MergerOption) (*Merger, error) {
	if err := ValidateOutput(j, out); err != nil {
		return nil, err
	}
	o := mergerOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	m := &Merger{out: out, merged: map[int]struct{}{}}
	if o.disjoint {
		m.coverage = nd.Zeros(out.Shape()...)
	}
	return m, nil
}

// MergeTask adds every result tile of the task with the given index into
// the output. Only the complete results of a successful task may be passed.
// Either every tile is merged or, on error, the output is left unchanged.
func (m *Merger) MergeTask(task int, tiles []ResultTile) error {
	if _, ok := m.merged[task]; ok {
		return fmt.Errorf("%w: task %d", ErrAlreadyMerged, task)
	}
	for i, t := range tiles {
		if err := t.Check(m.out); err != nil {
			return fmt.Errorf("task %d, result tile %d: %w", task, i, err)
		}
	}
	if m.coverage != nil {
		if err := m.claim(tiles); err != nil {
			return fmt.Errorf("task %d: %w", task, err)
		}
	}
	for i, t := range tiles {
		if err := t.CopyToResult(m.out); err != nil {
			return fmt.Errorf("task %d, result tile %d: %w", task, i, err)
		}
	}
	m.merged[task] = struct{}{}
	return nil
}

// claim marks the regions of tiles in the coverage map, failing before
// anything is marked if one of them was already written.
func (m *Merger) claim(tiles []ResultTile) error {
	var regions []nd.Slice
	for _, t := range tiles {
		if rr, ok := t.(RegionReporter); ok {
			regions = append(regions, rr.Regions()...)
		}
	}

	views := make([]*nd.Array, len(regions))
	for i, r := range regions {
		v, err := m.coverage.ViewSlice(r)
		if err != nil {
			return err
		}
		if v.Sum() != 0 {
			return fmt.Errorf("%w: %s written by an earlier task", dataset.ErrOverlap, r)
		}
		for _, other := range regions[:i] {
			if !r.Intersection(other).IsNull() {
				return fmt.Errorf("%w: %s and %s", dataset.ErrOverlap, other, r)
			}
		}
		views[i] = v
	}
	for _, v := range views {
		v.Fill(1)
	}
	return nil
}

func (m *Merger) Output() *nd.Array { return m.out }

// Merged returns the number of tasks merged so far.
func (m *Merger) Merged() int { return len(m.merged) }
