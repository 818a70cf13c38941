// Package dataset defines what the job layer consumes from storage: a
// Dataset split into Partitions, each streamed as a sequence of Tiles.
//
// Implementations decide how partitions and tiles are formed. They must
// uphold two invariants, which CheckPartitioning and CheckTiling verify:
// the partitions of a dataset are pairwise disjoint and cover its shape,
// and the tiles of a partition are pairwise disjoint and cover the
// partition's slice.
package dataset

//go:generate mockgen -package dataset -source dataset.go -destination dataset_mock.go

import (
	"context"
	"errors"

	"github.com/probonopd/LiberTEM/nd"
)

var ErrIteratorClosed = errors.New("tile iterator closed")

// Dataset is a large N-D array that is only ever read partition by partition.
type Dataset interface {
	Shape() []int
	Dtype() nd.Dtype
	// Partitions returns a finite set of partitions covering Shape with no
	// gaps or overlaps.
	Partitions(ctx context.Context) ([]Partition, error)
}

// Partition is a contiguous sub-region of a Dataset along its leading
// dimensions, the unit of task assignment.
type Partition interface {
	// Slice is the extent of the partition in global coordinates.
	Slice() nd.Slice
	Dtype() nd.Dtype
	// Tiles starts a new forward-only pass over the partition's tiles.
	Tiles(ctx context.Context) (TileIterator, error)
}

// TileIterator yields the tiles of one partition in no particular order.
// Next returns io.EOF once every tile has been produced. Errors from the
// underlying storage are returned as-is.
type TileIterator interface {
	Next() (Tile, error)
	Close() error
}

// Tile is a materialized sub-array of a partition. Data has exactly the
// shape of Slice, which is given in global coordinates. A tile is only
// valid until the next call to Next on the iterator that produced it.
type Tile struct {
	Data  *nd.Array
	Slice nd.Slice
	Dtype nd.Dtype
}
