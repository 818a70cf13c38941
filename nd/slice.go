package nd

import (
	"fmt"
	"strings"
)

// Range is a half-open index interval [Start, Stop) along one dimension.
type Range struct {
	Start int
	Stop  int
}

// Len returns the number of indices covered by the range.
func (r Range) Len() int {
	if r.Stop < r.Start {
		return 0
	}
	return r.Stop - r.Start
}

// Slice is an axis-aligned N-D box described by an origin and a shape.
// A Slice with any zero shape component is null and covers no elements.
// Shapes are never negative: build slices with NewSlice, Whole or the
// methods below. Combining a slice that has a negative extent panics.
type Slice struct {
	Origin []int
	Shape  []int
}

// NewSlice builds a Slice, rejecting mismatched arity and negative extents.
func NewSlice(origin, shape []int) (Slice, error) {
	if len(origin) != len(shape) {
		return Slice{}, &ShapeError{Op: "new slice", Want: shape, Got: origin}
	}
	for _, s := range shape {
		if s < 0 {
			return Slice{}, &ShapeError{Op: "new slice: negative extent", Want: nil, Got: shape}
		}
	}
	return Slice{Origin: cloneInts(origin), Shape: cloneInts(shape)}, nil
}

// MustSlice is like NewSlice but panics on invalid input.
func MustSlice(origin, shape []int) Slice {
	s, err := NewSlice(origin, shape)
	if err != nil {
		panic(err)
	}
	return s
}

// Whole returns the Slice covering shape starting at the origin.
func Whole(shape []int) Slice {
	return Slice{Origin: make([]int, len(shape)), Shape: cloneInts(shape)}
}

func (s Slice) Dims() int { return len(s.Shape) }

// Size returns the number of covered elements.
func (s Slice) Size() int {
	return product(s.Shape)
}

func (s Slice) IsNull() bool {
	for _, v := range s.Shape {
		if v == 0 {
			return true
		}
	}
	return false
}

// Intersection returns the overlap of s and other in the shared global frame.
// Dimensions without overlap get a zero extent, never a negative one.
func (s Slice) Intersection(other Slice) Slice {
	s.mustMatch(other)
	out := Slice{Origin: make([]int, s.Dims()), Shape: make([]int, s.Dims())}
	for i := range s.Shape {
		lo := max(s.Origin[i], other.Origin[i])
		hi := min(s.Origin[i]+s.Shape[i], other.Origin[i]+other.Shape[i])
		out.Origin[i] = lo
		out.Shape[i] = max(hi-lo, 0)
	}
	return out
}

// Shift re-expresses s relative to the origin of ref.
func (s Slice) Shift(ref Slice) Slice {
	s.mustMatch(ref)
	out := Slice{Origin: make([]int, s.Dims()), Shape: cloneInts(s.Shape)}
	for i := range s.Origin {
		out.Origin[i] = s.Origin[i] - ref.Origin[i]
	}
	return out
}

// Get returns the per-dimension index ranges addressing s in its own frame.
func (s Slice) Get() []Range {
	r := make([]Range, s.Dims())
	for i := range s.Shape {
		r[i] = Range{Start: s.Origin[i], Stop: s.Origin[i] + s.Shape[i]}
	}
	return r
}

// Contains reports whether every element of other is covered by s.
// A null other is contained in anything of the same arity.
func (s Slice) Contains(other Slice) bool {
	s.mustMatch(other)
	if other.IsNull() {
		return true
	}
	for i := range s.Shape {
		if other.Origin[i] < s.Origin[i] || other.Origin[i]+other.Shape[i] > s.Origin[i]+s.Shape[i] {
			return false
		}
	}
	return true
}

func (s Slice) Equal(other Slice) bool {
	return equalInts(s.Origin, other.Origin) && equalInts(s.Shape, other.Shape)
}

// Nav returns the leading n dimensions of s.
func (s Slice) Nav(n int) Slice {
	return Slice{Origin: cloneInts(s.Origin[:n]), Shape: cloneInts(s.Shape[:n])}
}

// Sig returns the dimensions of s after the leading n.
func (s Slice) Sig(n int) Slice {
	return Slice{Origin: cloneInts(s.Origin[n:]), Shape: cloneInts(s.Shape[n:])}
}

// Concat joins s and other into one Slice of combined arity.
func (s Slice) Concat(other Slice) Slice {
	return Slice{
		Origin: append(cloneInts(s.Origin), other.Origin...),
		Shape:  append(cloneInts(s.Shape), other.Shape...),
	}
}

// Subdivide splits s into a row-major grid of blocks of at most step per
// dimension. Blocks on the upper edges are clipped to s. A step of zero or
// less along a dimension keeps that dimension whole.
func (s Slice) Subdivide(step []int) []Slice {
	if len(step) != s.Dims() {
		panic(&ShapeError{Op: "subdivide", Want: s.Shape, Got: step})
	}
	if s.IsNull() {
		return nil
	}
	counts := make([]int, s.Dims())
	steps := make([]int, s.Dims())
	for i := range s.Shape {
		steps[i] = step[i]
		if steps[i] <= 0 || steps[i] > s.Shape[i] {
			steps[i] = s.Shape[i]
		}
		counts[i] = (s.Shape[i] + steps[i] - 1) / steps[i]
	}

	blocks := make([]Slice, 0, product(counts))
	idx := make([]int, s.Dims())
	for {
		b := Slice{Origin: make([]int, s.Dims()), Shape: make([]int, s.Dims())}
		for i := range idx {
			b.Origin[i] = s.Origin[i] + idx[i]*steps[i]
			b.Shape[i] = min(steps[i], s.Origin[i]+s.Shape[i]-b.Origin[i])
		}
		blocks = append(blocks, b)
		if !increment(idx, counts) {
			return blocks
		}
	}
}

func (s Slice) String() string {
	parts := make([]string, s.Dims())
	for i := range s.Shape {
		parts[i] = fmt.Sprintf("%d:%d", s.Origin[i], s.Origin[i]+s.Shape[i])
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (s Slice) mustMatch(other Slice) {
	if s.Dims() != other.Dims() {
		panic(&ShapeError{Op: "slice arity", Want: s.Shape, Got: other.Shape})
	}
	for _, v := range [][]int{s.Shape, other.Shape} {
		for _, e := range v {
			if e < 0 {
				panic(&ShapeError{Op: "slice with negative extent", Got: v})
			}
		}
	}
}

// increment advances a row-major multi-index bounded by counts and reports
// whether it is still in range.
func increment(idx, counts []int) bool {
	for i := len(idx) - 1; i >= 0; i-- {
		idx[i]++
		if idx[i] < counts[i] {
			return true
		}
		idx[i] = 0
	}
	return false
}

func product(shape []int) int {
	n := 1
	for _, v := range shape {
		n *= v
	}
	return n
}

func cloneInts(v []int) []int {
	out := make([]int, len(v))
	copy(out, v)
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
