package flowfield

import "math"

// DefaultGradientStride keeps every 4th row and column of the gradient.
const DefaultGradientStride = 4

// Vector is one unit gradient sample, placed at the lower corner of its cell.
type Vector struct {
	X, Y   float64
	DX, DY float64 // unit direction of increasing value
	Angle  float64 // atan2(DY, DX)
}

// GradientField is the downsampled, normalised gradient of a Grid. Masked
// and degenerate cells are absent.
type GradientField struct {
	Spacing float64
	Stride  int
	Vectors []Vector
}

// Gradient returns the gradient of g using central differences in the
// interior and one-sided differences at the grid edges, divided by the cell
// spacing. A cell is dropped when it or any neighbour used for its
// differences is masked, or when the result is zero-length or non-finite.
// Only cells whose local indices are multiples of stride are kept.
func Gradient(g *Grid, stride int) GradientField {
	if stride < 1 {
		stride = 1
	}
	gf := GradientField{Spacing: g.Spacing, Stride: stride}

	for i := 0; i < g.NX; i += stride {
		for j := 0; j < g.NY; j += stride {
			if _, ok := g.At(i, j); !ok {
				continue
			}
			dx, okX := partial(i, g.NX, func(k int) (float64, bool) { return g.At(k, j) }, g.Spacing)
			dy, okY := partial(j, g.NY, func(k int) (float64, bool) { return g.At(i, k) }, g.Spacing)
			if !okX || !okY {
				continue
			}

			mag := math.Hypot(dx, dy)
			if mag == 0 || math.IsNaN(mag) || math.IsInf(mag, 0) {
				continue
			}
			ux, uy := dx/mag, dy/mag
			x, y := g.Origin(i, j)
			gf.Vectors = append(gf.Vectors, Vector{
				X: x, Y: y,
				DX: ux, DY: uy,
				Angle: math.Atan2(uy, ux),
			})
		}
	}
	return gf
}

// partial differentiates along one axis of length n at position pos. An axis
// of a single cell has zero derivative.
func partial(pos, n int, at func(int) (float64, bool), h float64) (float64, bool) {
	if n < 2 {
		return 0, true
	}
	lo, hi, div := pos-1, pos+1, 2*h
	switch pos {
	case 0:
		lo, hi, div = 0, 1, h
	case n - 1:
		lo, hi, div = n-2, n-1, h
	}
	a, okA := at(hi)
	b, okB := at(lo)
	if !okA || !okB {
		return 0, false
	}
	return (a - b) / div, true
}

// Near returns the vectors whose position lies strictly within radius of
// (x, y) on the XY plane, in field order.
func (gf GradientField) Near(x, y, radius float64) []Vector {
	var out []Vector
	for _, v := range gf.Vectors {
		if math.Hypot(v.X-x, v.Y-y) < radius {
			out = append(out, v)
		}
	}
	return out
}
