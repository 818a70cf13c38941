package nd

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func arange(shape ...int) *Array {
	a := Zeros(shape...)
	for i := range a.data {
		a.data[i] = float64(i)
	}
	return a
}

func TestArrayView(t *testing.T) {
	a := arange(3, 4)
	v, err := a.View([]Range{{1, 3}, {1, 3}})
	require.NoError(t, err)
	require.Equal(t, []int{2, 2}, v.Shape())
	require.Equal(t, []float64{5, 6, 9, 10}, v.Data())
	require.False(t, v.IsContiguous())

	v.Set(-1, 0, 0)
	require.Equal(t, float64(-1), a.At(1, 1))

	rows, err := a.View([]Range{{2, 3}})
	require.NoError(t, err)
	require.Equal(t, []float64{8, 9, 10, 11}, rows.Data())
	require.True(t, rows.IsContiguous())

	_, err = a.View([]Range{{0, 4}})
	require.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestArrayIndex(t *testing.T) {
	a := arange(2, 3, 4)
	frame, err := a.Index(1, 2)
	require.NoError(t, err)
	require.Equal(t, []int{4}, frame.Shape())
	require.Equal(t, []float64{20, 21, 22, 23}, frame.Data())

	v, err := a.View([]Range{{0, 2}, {1, 3}, {1, 2}})
	require.NoError(t, err)
	col, err := v.Index(1)
	require.NoError(t, err)
	require.Equal(t, []float64{17, 21}, col.Data())

	_, err = a.Index(2)
	require.ErrorIs(t, err, ErrShapeMismatch)
}

func TestArrayReshape(t *testing.T) {
	a := arange(2, 3)
	r, err := a.Reshape(3, 2)
	require.NoError(t, err)
	require.Equal(t, float64(5), r.At(2, 1))

	_, err = a.Reshape(4)
	require.True(t, errors.Is(err, ErrShapeMismatch))

	v, err := a.View([]Range{{0, 2}, {0, 2}})
	require.NoError(t, err)
	same, err := v.Reshape(2, 2)
	require.NoError(t, err)
	require.Equal(t, v, same)
	_, err = v.Reshape(4)
	require.Error(t, err)
}

func TestArrayCopyAdd(t *testing.T) {
	dst := Zeros(4, 4)
	src := arange(2, 2)

	v, err := dst.ViewSlice(MustSlice([]int{1, 2}, []int{2, 2}))
	require.NoError(t, err)
	require.NoError(t, v.CopyFrom(src))
	require.NoError(t, v.AddFrom(src))
	require.Equal(t, float64(6), dst.At(2, 3))
	require.Equal(t, float64(12), dst.Sum())

	err = dst.AddFrom(src)
	var se *ShapeError
	require.ErrorAs(t, err, &se)
	require.Equal(t, []int{4, 4}, se.Want)
}

func TestDot(t *testing.T) {
	a := arange(2, 2)
	b := Zeros(2, 2)
	b.Fill(2)
	d, err := Dot(a, b)
	require.NoError(t, err)
	require.Equal(t, float64(12), d)

	_, err = Dot(a, Zeros(4))
	require.Error(t, err)
}

func TestZeroDimArray(t *testing.T) {
	a := Zeros()
	require.Equal(t, 1, a.Size())
	a.Fill(3)
	require.Equal(t, float64(3), a.Sum())
	require.Equal(t, float64(0), Zeros(0, 3).Sum())
}

func TestDtypeRoundTrip(t *testing.T) {
	values := []float64{0, 1, 2, 250}
	for _, s := range []string{"<f8", ">f4", "<u2", "|u1", "<i4", ">i8", "|b1"} {
		dt, err := ParseDtype(s)
		require.NoError(t, err)
		require.Equal(t, s, dt.String())

		buf := &bytes.Buffer{}
		require.NoError(t, dt.Encode(buf, values))
		require.Equal(t, dt.ByteSize*len(values), buf.Len())

		got, err := dt.Decode(buf, len(values))
		require.NoError(t, err)
		if dt.BasicType == BTBoolean {
			require.Equal(t, []float64{0, 1, 1, 1}, got)
			continue
		}
		require.Equal(t, values, got)
	}

	_, err := ParseDtype("<c16")
	require.NoError(t, err)
	require.Error(t, MustParseDtype("<c16").Encode(&bytes.Buffer{}, values))

	_, err = ParseDtype("<f")
	require.Error(t, err)
	_, err = ParseDtype("xf8")
	require.Error(t, err)
}

func TestEncodeRange(t *testing.T) {
	cases := []struct {
		dtype string
		ok    []float64
		bad   []float64
	}{
		{dtype: "|u1", ok: []float64{0, 255, 255.9, -0.5}, bad: []float64{256, -1, math.NaN()}},
		{dtype: "<u2", ok: []float64{65535}, bad: []float64{65536, math.Inf(1)}},
		{dtype: "|i1", ok: []float64{-128, 127, -128.5}, bad: []float64{128, -129}},
		{dtype: "<i8", ok: []float64{-1 << 62}, bad: []float64{math.Ldexp(1, 63), math.Inf(-1)}},
	}
	for _, c := range cases {
		dt := MustParseDtype(c.dtype)
		require.NoError(t, dt.Encode(&bytes.Buffer{}, c.ok), c.dtype)
		for _, v := range c.bad {
			err := dt.Encode(&bytes.Buffer{}, []float64{0, v})
			require.ErrorIs(t, err, ErrOutOfRange, "%s %v", c.dtype, v)
		}
	}

	// floating point types take anything
	require.NoError(t, Float32.Encode(&bytes.Buffer{}, []float64{math.NaN(), math.Inf(1), 1e300}))
}

func TestDtypeJSON(t *testing.T) {
	dt := MustParseDtype("<M8[ns]")
	require.Equal(t, "[ns]", dt.Units)
	d, err := dt.MarshalJSON()
	require.NoError(t, err)
	require.Equal(t, `"<M8[ns]"`, string(d))

	var back Dtype
	require.NoError(t, json.Unmarshal([]byte(`"&lt;f8"`), &back))
	require.Equal(t, Float64, back)
}
