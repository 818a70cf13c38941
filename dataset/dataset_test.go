package dataset

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/probonopd/LiberTEM/nd"
)

func ones(shape ...int) *nd.Array {
	a := nd.Zeros(shape...)
	a.Fill(1)
	return a
}

func TestMemoryInvariants(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		opts []MemoryOption
	}{
		{"defaults", nil},
		{"row partitions", []MemoryOption{WithPartitionShape(2, 0, 0, 0)}},
		{"ragged tiles", []MemoryOption{WithPartitionShape(2, 0, 0, 0), WithTileShape(1, 3, 6, 6)}},
		{"small target size", []MemoryOption{WithTargetPartitionSize(16 * 16 * 8 * 5), WithTileShape(1, 5, 16, 16)}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ds, err := NewMemory(ones(5, 5, 16, 16), c.opts...)
			require.NoError(t, err)
			require.NoError(t, CheckPartitioning(ctx, ds))

			parts, err := ds.Partitions(ctx)
			require.NoError(t, err)
			total := 0
			for _, p := range parts {
				require.NoError(t, CheckTiling(ctx, p))
				total += p.Slice().Size()
			}
			require.Equal(t, 5*5*16*16, total)
		})
	}
}

func TestMemoryDefaults(t *testing.T) {
	ds, err := NewMemory(ones(5, 5, 16, 16), WithTargetPartitionSize(16*16*8*5*2))
	require.NoError(t, err)
	require.Equal(t, 2, ds.NavDims())
	require.Equal(t, nd.Float64, ds.Dtype())

	parts, err := ds.Partitions(context.Background())
	require.NoError(t, err)
	require.Len(t, parts, 3)
	require.Equal(t, nd.MustSlice([]int{4, 0, 0, 0}, []int{1, 5, 16, 16}), parts[2].Slice())

	it, err := parts[0].Tiles(context.Background())
	require.NoError(t, err)
	tile, err := it.Next()
	require.NoError(t, err)
	require.Equal(t, []int{1, 1, 16, 16}, tile.Data.Shape())
	require.NoError(t, it.Close())
	_, err = it.Next()
	require.ErrorIs(t, err, ErrIteratorClosed)

	_, err = NewMemory(ones(2, 2), WithTileShape(1))
	require.ErrorIs(t, err, nd.ErrShapeMismatch)
	_, err = NewMemory(ones(2, 2), WithNavDims(3))
	require.Error(t, err)
}

func TestTilesDoNotAliasBackingArray(t *testing.T) {
	data := ones(2, 3)
	ds, err := NewMemory(data, WithTileShape(1, 3))
	require.NoError(t, err)
	parts, err := ds.Partitions(context.Background())
	require.NoError(t, err)
	it, err := parts[0].Tiles(context.Background())
	require.NoError(t, err)
	tile, err := it.Next()
	require.NoError(t, err)
	tile.Data.Fill(7)
	require.Equal(t, float64(6), data.Sum())
}

func TestCheckCover(t *testing.T) {
	parent := nd.MustSlice([]int{0, 0}, []int{4, 4})
	half := func(o int) nd.Slice { return nd.MustSlice([]int{o, 0}, []int{2, 4}) }

	require.NoError(t, checkCover(parent, []nd.Slice{half(0), half(2)}))
	require.ErrorIs(t, checkCover(parent, []nd.Slice{half(0)}), ErrGap)
	require.ErrorIs(t, checkCover(parent, []nd.Slice{half(0), half(1), half(2)}), ErrOverlap)
	require.ErrorIs(t, checkCover(parent, []nd.Slice{half(0), half(3)}), ErrOutOfBounds)
}

func TestCheckTilingPropagatesErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	boom := errors.New("disk on fire")

	it := NewMockTileIterator(ctrl)
	it.EXPECT().Next().Return(Tile{}, boom)
	it.EXPECT().Close().Return(nil)

	p := NewMockPartition(ctrl)
	p.EXPECT().Tiles(gomock.Any()).Return(it, nil)

	err := CheckTiling(context.Background(), p)
	require.True(t, errors.Is(err, boom))
}

func TestCheckTilingDetectsBadData(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := nd.MustSlice([]int{0, 0}, []int{1, 4})

	it := NewMockTileIterator(ctrl)
	it.EXPECT().Next().Return(Tile{Data: nd.Zeros(1, 3), Slice: s}, nil)
	it.EXPECT().Close().Return(nil)

	p := NewMockPartition(ctrl)
	p.EXPECT().Tiles(gomock.Any()).Return(it, nil)

	require.ErrorIs(t, CheckTiling(context.Background(), p), nd.ErrShapeMismatch)
}

func TestSliceIteratorStopsOnContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	slices := []nd.Slice{nd.MustSlice([]int{0}, []int{1}), nd.MustSlice([]int{1}, []int{1})}
	it := NewSliceIterator(ctx, slices, nd.Float64, func(_ context.Context, s nd.Slice) (*nd.Array, error) {
		return nd.Zeros(s.Shape...), nil
	})

	_, err := it.Next()
	require.NoError(t, err)
	cancel()
	_, err = it.Next()
	require.ErrorIs(t, err, context.Canceled)

	it = NewSliceIterator(context.Background(), nil, nd.Float64, nil)
	_, err = it.Next()
	require.ErrorIs(t, err, io.EOF)
}
