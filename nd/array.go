package nd

// Array is a dense N-D array of float64 values in row-major order. Views
// returned by View share storage with their parent.
type Array struct {
	shape   []int
	strides []int
	offset  int
	data    []float64
}

// Zeros allocates a zero-initialized array of the given shape.
func Zeros(shape ...int) *Array {
	for _, s := range shape {
		if s < 0 {
			panic(&ShapeError{Op: "zeros: negative extent", Got: shape})
		}
	}
	return &Array{
		shape:   cloneInts(shape),
		strides: contiguousStrides(shape),
		data:    make([]float64, product(shape)),
	}
}

// FromSlice wraps data, which must hold exactly product(shape) values.
// The array takes ownership of data.
func FromSlice(shape []int, data []float64) (*Array, error) {
	if product(shape) != len(data) {
		return nil, &ShapeError{Op: "from slice", Want: shape, Got: []int{len(data)}}
	}
	return &Array{
		shape:   cloneInts(shape),
		strides: contiguousStrides(shape),
		data:    data,
	}, nil
}

func contiguousStrides(shape []int) []int {
	strides := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= shape[i]
	}
	return strides
}

func (a *Array) Shape() []int { return cloneInts(a.shape) }

func (a *Array) Dims() int { return len(a.shape) }

func (a *Array) Size() int { return product(a.shape) }

func (a *Array) At(idx ...int) float64 {
	return a.data[a.offsetOf(idx)]
}

func (a *Array) Set(v float64, idx ...int) {
	a.data[a.offsetOf(idx)] = v
}

func (a *Array) offsetOf(idx []int) int {
	if len(idx) != len(a.shape) {
		panic(&ShapeError{Op: "index arity", Want: a.shape, Got: idx})
	}
	off := a.offset
	for i, v := range idx {
		if v < 0 || v >= a.shape[i] {
			panic(&ShapeError{Op: "index out of bounds", Want: a.shape, Got: idx})
		}
		off += v * a.strides[i]
	}
	return off
}

// View returns the sub-array addressed by ranges, sharing storage with a.
// Dimensions beyond len(ranges) are taken whole.
func (a *Array) View(ranges []Range) (*Array, error) {
	if len(ranges) > len(a.shape) {
		return nil, &ShapeError{Op: "view arity", Want: a.shape, Got: rangeShape(ranges)}
	}
	v := &Array{
		shape:   cloneInts(a.shape),
		strides: cloneInts(a.strides),
		offset:  a.offset,
		data:    a.data,
	}
	for i, r := range ranges {
		if r.Start < 0 || r.Stop > a.shape[i] || r.Stop < r.Start {
			return nil, &ShapeError{Op: "view out of bounds", Want: a.shape, Got: []int{i, r.Start, r.Stop}}
		}
		v.offset += r.Start * a.strides[i]
		v.shape[i] = r.Len()
	}
	return v, nil
}

// Index fixes the leading len(idx) dimensions of a and returns the remaining
// sub-array as a view.
func (a *Array) Index(idx ...int) (*Array, error) {
	if len(idx) > len(a.shape) {
		return nil, &ShapeError{Op: "index arity", Want: a.shape, Got: idx}
	}
	off := a.offset
	for i, v := range idx {
		if v < 0 || v >= a.shape[i] {
			return nil, &ShapeError{Op: "index out of bounds", Want: a.shape, Got: idx}
		}
		off += v * a.strides[i]
	}
	return &Array{
		shape:   cloneInts(a.shape[len(idx):]),
		strides: cloneInts(a.strides[len(idx):]),
		offset:  off,
		data:    a.data,
	}, nil
}

// ViewSlice is View(s.Get()).
func (a *Array) ViewSlice(s Slice) (*Array, error) {
	return a.View(s.Get())
}

// IsContiguous reports whether the elements of a occupy one dense row-major
// run of its storage.
func (a *Array) IsContiguous() bool {
	acc := 1
	for i := len(a.shape) - 1; i >= 0; i-- {
		if a.shape[i] != 1 && a.strides[i] != acc {
			return false
		}
		acc *= a.shape[i]
	}
	return true
}

// Reshape returns a view of a with a new shape holding the same number of
// elements. Views that are not contiguous can only be "reshaped" to their
// current shape.
func (a *Array) Reshape(shape ...int) (*Array, error) {
	if product(shape) != a.Size() {
		return nil, &ShapeError{Op: "reshape", Want: shape, Got: a.shape}
	}
	if equalInts(shape, a.shape) {
		return a, nil
	}
	if !a.IsContiguous() {
		return nil, &ShapeError{Op: "reshape non-contiguous view", Want: shape, Got: a.shape}
	}
	return &Array{
		shape:   cloneInts(shape),
		strides: contiguousStrides(shape),
		offset:  a.offset,
		data:    a.data,
	}, nil
}

// CopyFrom overwrites a with the values of src. Shapes must match exactly.
func (a *Array) CopyFrom(src *Array) error {
	if !equalInts(a.shape, src.shape) {
		return &ShapeError{Op: "copy", Want: a.shape, Got: src.shape}
	}
	forEach2(a, src, func(ao, so int) { a.data[ao] = src.data[so] })
	return nil
}

// AddFrom adds src into a element-wise. Shapes must match exactly.
func (a *Array) AddFrom(src *Array) error {
	if !equalInts(a.shape, src.shape) {
		return &ShapeError{Op: "add", Want: a.shape, Got: src.shape}
	}
	forEach2(a, src, func(ao, so int) { a.data[ao] += src.data[so] })
	return nil
}

func (a *Array) Fill(v float64) {
	forEach(a, func(off int) { a.data[off] = v })
}

func (a *Array) Sum() float64 {
	var s float64
	forEach(a, func(off int) { s += a.data[off] })
	return s
}

// Data returns the elements of a as a fresh row-major slice.
func (a *Array) Data() []float64 {
	out := make([]float64, 0, a.Size())
	forEach(a, func(off int) { out = append(out, a.data[off]) })
	return out
}

// Clone returns a contiguous copy of a that shares nothing with it.
func (a *Array) Clone() *Array {
	c, _ := FromSlice(a.shape, a.Data())
	return c
}

// Dot returns the sum of the element-wise products of a and b.
func Dot(a, b *Array) (float64, error) {
	if !equalInts(a.shape, b.shape) {
		return 0, &ShapeError{Op: "dot", Want: a.shape, Got: b.shape}
	}
	var s float64
	forEach2(a, b, func(ao, bo int) { s += a.data[ao] * b.data[bo] })
	return s, nil
}

func forEach(a *Array, fn func(off int)) {
	if a.Size() == 0 {
		return
	}
	idx := make([]int, len(a.shape))
	off := a.offset
	for {
		fn(off)
		if !step(idx, a.shape, a.strides, &off) {
			return
		}
	}
}

// forEach2 walks two arrays of equal shape in lockstep.
func forEach2(a, b *Array, fn func(ao, bo int)) {
	if a.Size() == 0 {
		return
	}
	idx := make([]int, len(a.shape))
	aoff, boff := a.offset, b.offset
	for {
		fn(aoff, boff)
		for i := len(idx) - 1; ; i-- {
			if i < 0 {
				return
			}
			idx[i]++
			aoff += a.strides[i]
			boff += b.strides[i]
			if idx[i] < a.shape[i] {
				break
			}
			aoff -= idx[i] * a.strides[i]
			boff -= idx[i] * b.strides[i]
			idx[i] = 0
		}
	}
}

func step(idx, shape, strides []int, off *int) bool {
	for i := len(idx) - 1; i >= 0; i-- {
		idx[i]++
		*off += strides[i]
		if idx[i] < shape[i] {
			return true
		}
		*off -= idx[i] * strides[i]
		idx[i] = 0
	}
	return false
}

func rangeShape(ranges []Range) []int {
	out := make([]int, len(ranges))
	for i, r := range ranges {
		out[i] = r.Len()
	}
	return out
}
