package geom

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrSingularTransform is returned when a transform has no usable inverse.
var ErrSingularTransform = errors.New("singular transform")

// Mat4 is a 4x4 homogeneous transform in row-major order:
// [m00,m01,m02,m03, m10,m11,m12,m13, m20,m21,m22,m23, m30,m31,m32,m33].
// The last row is expected to be [0 0 0 1].
type Mat4 [16]float64

// Identity is the 4x4 identity transform.
var Identity = Mat4{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

// Translation returns a transform that moves points by (x, y, z).
func Translation(x, y, z float64) Mat4 {
	m := Identity
	m[3], m[7], m[11] = x, y, z
	return m
}

// RotationZ returns a transform rotating points by rad radians about +Z.
func RotationZ(rad float64) Mat4 {
	s, c := math.Sincos(rad)
	m := Identity
	m[0], m[1] = c, -s
	m[4], m[5] = s, c
	return m
}

// Mul returns the product m * o (o is applied first).
func (m Mat4) Mul(o Mat4) Mat4 {
	var out Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += m[i*4+k] * o[k*4+j]
			}
			out[i*4+j] = sum
		}
	}
	return out
}

// Apply transforms point p (w = 1).
func (m Mat4) Apply(p Vec3) Vec3 {
	return Vec3{
		X: m[0]*p.X + m[1]*p.Y + m[2]*p.Z + m[3],
		Y: m[4]*p.X + m[5]*p.Y + m[6]*p.Z + m[7],
		Z: m[8]*p.X + m[9]*p.Y + m[10]*p.Z + m[11],
	}
}

// ApplyAll transforms every point in pts into a new slice.
func (m Mat4) ApplyAll(pts []Vec3) []Vec3 {
	out := make([]Vec3, len(pts))
	for i, p := range pts {
		out[i] = m.Apply(p)
	}
	return out
}

// Row returns the first three components of row i.
func (m Mat4) Row(i int) Vec3 {
	return Vec3{m[i*4], m[i*4+1], m[i*4+2]}
}

// Inverse returns the inverse of m. Matrices that LU factorisation reports
// as singular or too ill-conditioned yield ErrSingularTransform.
func (m Mat4) Inverse() (Mat4, error) {
	a := mat.NewDense(4, 4, m[:])

	var inv mat.Dense
	if err := inv.Inverse(a); err != nil {
		return Mat4{}, fmt.Errorf("%w: %v", ErrSingularTransform, err)
	}

	var out Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			v := inv.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return Mat4{}, fmt.Errorf("%w: non-finite inverse entry (%d,%d)", ErrSingularTransform, i, j)
			}
			out[i*4+j] = v
		}
	}
	return out, nil
}
