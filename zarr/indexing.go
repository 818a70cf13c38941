package zarr

import "github.com/probonopd/LiberTEM/nd"

// A mapping of items from chunk to output array. Can be used to extract items
// from the chunk array for loading into an output array. Can also be used to
// extract items from a value array for setting/updating in a chunk array.
type chunkProjection struct {
	// Indices of chunk
	ChunkCoords []int
	// Selection of items from chunk array, in the chunk's frame.
	ChunkSelection nd.Slice
	// Selection of items in target (output) array, in the selection's frame.
	OutSelection nd.Slice
	// The selected items in array coordinates.
	Extent nd.Slice
}

// projections lists every chunk overlapping sel in row-major chunk order.
func (a *Array) projections(sel nd.Slice) []chunkProjection {
	if sel.IsNull() {
		return nil
	}

	first := nd.Slice{Origin: make([]int, sel.Dims()), Shape: make([]int, sel.Dims())}
	for i := range sel.Shape {
		c := a.meta.Chunks[i]
		lo := sel.Origin[i] / c
		hi := (sel.Origin[i] + sel.Shape[i] - 1) / c
		first.Origin[i] = lo
		first.Shape[i] = hi - lo + 1
	}

	var out []chunkProjection
	for _, g := range first.Subdivide(ones(sel.Dims())) {
		frame := a.chunkFrame(g.Origin)
		overlap := frame.Intersection(sel)
		if overlap.IsNull() {
			continue
		}
		out = append(out, chunkProjection{
			ChunkCoords:    g.Origin,
			ChunkSelection: overlap.Shift(frame),
			OutSelection:   overlap.Shift(sel),
			Extent:         overlap,
		})
	}
	return out
}
