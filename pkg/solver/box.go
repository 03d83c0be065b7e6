package solver

import "math"

const (
	// boxMargin keeps barrier iterates strictly inside the box.
	boxMargin = 1e-9

	// startMargin keeps starting points off the boundary, where the
	// derivative of the transform is zero and a gradient method would not
	// move.
	startMargin = 1e-3
)

// boxTransform maps the unconstrained space onto the box with
//
//	x = min + (max-min) * (1 + sin(y)) / 2
//
// Its slope only vanishes exactly on the boundary, so a minimum on the
// boundary is reached at a finite y and an interior minimum near an edge is
// not hidden behind a flat plateau.
type boxTransform struct {
	bounds []Bound
}

func newBoxTransform(bounds []Bound) *boxTransform {
	return &boxTransform{bounds: bounds}
}

// toBox maps an unconstrained point y into the box, writing into dst.
func (t *boxTransform) toBox(dst, y []float64) []float64 {
	for i, b := range t.bounds {
		dst[i] = b.Min + (b.Max-b.Min)*(1+math.Sin(y[i]))/2
	}
	return dst
}

// fromBox maps a starting point of the box to the unconstrained space. Values
// on or outside the boundary are pulled inside first.
func (t *boxTransform) fromBox(x []float64) []float64 {
	y := make([]float64, len(x))
	for i, b := range t.bounds {
		u := (x[i] - b.Min) / (b.Max - b.Min)
		u = math.Min(math.Max(u, startMargin), 1-startMargin)
		y[i] = math.Asin(2*u - 1)
	}
	return y
}

// clampInside projects x strictly into the interior of the box.
func clampInside(x []float64, bounds []Bound) []float64 {
	out := make([]float64, len(x))
	for i, b := range bounds {
		margin := (b.Max - b.Min) * boxMargin
		out[i] = math.Min(math.Max(x[i], b.Min+margin), b.Max-margin)
	}
	return out
}
