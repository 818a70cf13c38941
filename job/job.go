// Package job turns a computation over a dataset into independent tasks,
// one per relevant partition, whose result tiles merge additively into a
// caller-owned output buffer.
//
// The package never runs tasks and never shares the output buffer: an
// executor runs tasks in any order, and the caller merges each task's
// result tiles exactly once, usually through a Merger.
package job

import (
	"context"
	"errors"
	"io"

	"go.uber.org/multierr"

	"github.com/probonopd/LiberTEM/dataset"
	"github.com/probonopd/LiberTEM/nd"
)

// Job is a factory of tasks. It holds no mutable state.
type Job interface {
	// Tasks returns one task per partition the job needs.
	Tasks(ctx context.Context) ([]Task, error)
	// ResultShape is the shape the caller must allocate for the output.
	ResultShape() []int
}

// Task computes one partition's share of a job. Run consumes the partition's
// tiles exactly once, in one goroutine, and keeps no tile past the call.
type Task interface {
	Partition() dataset.Partition
	Run(ctx context.Context) ([]ResultTile, error)
}

// ResultTile is an immutable partial result. CopyToResult adds it into the
// output buffer; applying it twice adds it twice. Check reports the error
// CopyToResult would return without modifying out.
type ResultTile interface {
	Data() *nd.Array
	Check(out *nd.Array) error
	CopyToResult(out *nd.Array) error
}

// RegionReporter is implemented by result tiles whose non-zero content is
// confined to known regions of the output, given in output coordinates.
type RegionReporter interface {
	Regions() []nd.Slice
}

// Accumulate is the single merge primitive: it addresses dest in out (nil
// meaning all of out), reshapes that view to the shape of data, and adds
// data into it.
func Accumulate(out *nd.Array, dest []nd.Range, data *nd.Array) error {
	view, err := target(out, dest, data)
	if err != nil {
		return err
	}
	return view.AddFrom(data)
}

// CheckAccumulate returns the error Accumulate would return for the same
// arguments. out is never written.
func CheckAccumulate(out *nd.Array, dest []nd.Range, data *nd.Array) error {
	_, err := target(out, dest, data)
	return err
}

func target(out *nd.Array, dest []nd.Range, data *nd.Array) (*nd.Array, error) {
	view, err := out.View(dest)
	if err != nil {
		return nil, err
	}
	return view.Reshape(data.Shape()...)
}

// scanTiles feeds every tile of p to fn. Errors from the partition are
// returned unmodified.
func scanTiles(ctx context.Context, p dataset.Partition, fn func(dataset.Tile) error) (err error) {
	it, err := p.Tiles(ctx)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, it.Close())
	}()

	for {
		t, err := it.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(t); err != nil {
			return err
		}
	}
}
