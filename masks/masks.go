// Package masks provides mask factories for job.ApplyMasksJob and the
// caller-side normalization turning mask sums into centers of mass.
package masks

import (
	"github.com/probonopd/LiberTEM/job"
	"github.com/probonopd/LiberTEM/nd"
)

// Ones weights every pixel of a frame with 1, giving the frame's total
// intensity.
func Ones(shape ...int) job.MaskFactory {
	return func() *nd.Array {
		m := nd.Zeros(shape...)
		m.Fill(1)
		return m
	}
}

// GradientX weights each pixel of a height x width frame with its column
// index.
func GradientX(height, width int) job.MaskFactory {
	return func() *nd.Array {
		m := nd.Zeros(height, width)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				m.Set(float64(x), y, x)
			}
		}
		return m
	}
}

// GradientY weights each pixel of a height x width frame with its row index.
func GradientY(height, width int) job.MaskFactory {
	return func() *nd.Array {
		m := nd.Zeros(height, width)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				m.Set(float64(y), y, x)
			}
		}
		return m
	}
}

// CenterOfMassFactories returns the [ones, gradient x, gradient y] masks
// CenterOfMass expects, for frames of the given size.
func CenterOfMassFactories(height, width int) []job.MaskFactory {
	return []job.MaskFactory{
		Ones(height, width),
		GradientX(height, width),
		GradientY(height, width),
	}
}

// CenterOfMass normalizes the output of a job built from
// CenterOfMassFactories into x and y centers per scan position. Positions
// with zero total intensity yield NaN.
func CenterOfMass(sums *nd.Array) (x, y *nd.Array, err error) {
	shape := sums.Shape()
	if len(shape) < 1 || shape[0] != 3 {
		return nil, nil, &nd.ShapeError{Op: "center of mass input", Want: []int{3}, Got: shape}
	}
	total, err := sums.Index(0)
	if err != nil {
		return nil, nil, err
	}
	gx, err := sums.Index(1)
	if err != nil {
		return nil, nil, err
	}
	gy, err := sums.Index(2)
	if err != nil {
		return nil, nil, err
	}
	return divide(gx, total), divide(gy, total), nil
}

// divide follows IEEE semantics: 0/0 is NaN and x/0 is ±Inf.
func divide(num, den *nd.Array) *nd.Array {
	n, d := num.Data(), den.Data()
	out := make([]float64, len(n))
	for i := range n {
		out[i] = n[i] / d[i]
	}
	a, _ := nd.FromSlice(num.Shape(), out)
	return a
}
