package dataset

import (
	"context"
	"io"

	"github.com/probonopd/LiberTEM/nd"
)

// LoadFunc materializes the region s of a partition. The returned array
// must have shape s.Shape.
type LoadFunc func(ctx context.Context, s nd.Slice) (*nd.Array, error)

type sliceIterator struct {
	ctx    context.Context
	slices []nd.Slice
	dtype  nd.Dtype
	load   LoadFunc
	pos    int
	closed bool
}

var _ TileIterator = (*sliceIterator)(nil)

// NewSliceIterator returns a TileIterator producing one tile per entry of
// slices, loading each tile's data only when it is reached.
func NewSliceIterator(ctx context.Context, slices []nd.Slice, dtype nd.Dtype, load LoadFunc) TileIterator {
	return &sliceIterator{
		ctx:    ctx,
		slices: slices,
		dtype:  dtype,
		load:   load,
	}
}

func (it *sliceIterator) Next() (Tile, error) {
	if it.closed {
		return Tile{}, ErrIteratorClosed
	}
	if it.pos >= len(it.slices) {
		return Tile{}, io.EOF
	}
	if err := it.ctx.Err(); err != nil {
		return Tile{}, err
	}

	s := it.slices[it.pos]
	it.pos++
	data, err := it.load(it.ctx, s)
	if err != nil {
		return Tile{}, err
	}
	if got := data.Shape(); !s.Equal(nd.Slice{Origin: s.Origin, Shape: got}) {
		return Tile{}, &nd.ShapeError{Op: "tile data", Want: s.Shape, Got: got}
	}
	return Tile{Data: data, Slice: s, Dtype: it.dtype}, nil
}

func (it *sliceIterator) Close() error {
	it.closed = true
	return nil
}
