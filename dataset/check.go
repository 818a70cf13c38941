package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/multierr"

	"github.com/probonopd/LiberTEM/nd"
)

var (
	ErrOverlap     = errors.New("regions overlap")
	ErrGap         = errors.New("regions leave a gap")
	ErrOutOfBounds = errors.New("region outside of its parent")
)

// CheckPartitioning verifies that the partitions of ds are pairwise disjoint
// and together cover the whole dataset.
func CheckPartitioning(ctx context.Context, ds Dataset) error {
	parts, err := ds.Partitions(ctx)
	if err != nil {
		return err
	}
	slices := make([]nd.Slice, len(parts))
	for i, p := range parts {
		slices[i] = p.Slice()
	}
	return checkCover(nd.Whole(ds.Shape()), slices)
}

// CheckTiling drains one pass over the tiles of p and verifies that they
// are pairwise disjoint, lie inside p, carry data of their declared shape,
// and together cover p.
func CheckTiling(ctx context.Context, p Partition) (err error) {
	it, err := p.Tiles(ctx)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, it.Close())
	}()

	var slices []nd.Slice
	for {
		t, err := it.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if got := t.Data.Shape(); !nd.Whole(got).Equal(nd.Whole(t.Slice.Shape)) {
			return &nd.ShapeError{Op: "tile data", Want: t.Slice.Shape, Got: got}
		}
		slices = append(slices, t.Slice)
	}
	return checkCover(p.Slice(), slices)
}

// checkCover counts how often each element of parent is covered by parts.
func checkCover(parent nd.Slice, parts []nd.Slice) error {
	counts := nd.Zeros(parent.Shape...)
	for _, s := range parts {
		if s.Dims() != parent.Dims() {
			return &nd.ShapeError{Op: "region arity", Want: parent.Shape, Got: s.Shape}
		}
		if !parent.Contains(s) {
			return fmt.Errorf("%w: %s not in %s", ErrOutOfBounds, s, parent)
		}
		if s.IsNull() {
			continue
		}
		v, err := counts.ViewSlice(s.Shift(parent))
		if err != nil {
			return err
		}
		if v.Sum() != 0 {
			return fmt.Errorf("%w: %s", ErrOverlap, s)
		}
		v.Fill(1)
	}
	if got := counts.Sum(); int(got) != parent.Size() {
		return fmt.Errorf("%w: %d of %d elements of %s covered", ErrGap, int(got), parent.Size(), parent)
	}
	return nil
}
