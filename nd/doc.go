// Package nd holds the coordinate algebra shared by datasets, partitions,
// tiles and jobs.
//
// A Slice is an axis-aligned box in some frame. Intersection decides
// whether two boxes overlap, Shift moves a box into the local frame of
// another, and Get turns a box into the index ranges used to address an
// Array. No other code derives array offsets from coordinates.
//
// Array is a small dense float64 container with strided views. It exists so
// that tiles and result buffers can be addressed by Slice without copying.
package nd
