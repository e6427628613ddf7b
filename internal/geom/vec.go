package geom

import (
	"fmt"
	"math"
)

// Vec3 is a point or direction in world coordinates (model length units).
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

// Scale returns v * s.
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Dist returns the Euclidean distance between v and o.
func (v Vec3) Dist(o Vec3) float64 {
	dx, dy, dz := v.X-o.X, v.Y-o.Y, v.Z-o.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// DistXY returns the distance between v and o projected onto the XY plane.
func (v Vec3) DistXY(o Vec3) float64 {
	return math.Hypot(v.X-o.X, v.Y-o.Y)
}

// IsFinite reports whether every component is neither NaN nor infinite.
func (v Vec3) IsFinite() bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// PointsFromFlat converts a flat [x0,y0,z0, x1,y1,z1, ...] slice into points.
func PointsFromFlat(flat []float64) ([]Vec3, error) {
	if len(flat)%3 != 0 {
		return nil, fmt.Errorf("flat coordinate list length %d is not a multiple of 3", len(flat))
	}
	pts := make([]Vec3, len(flat)/3)
	for i := range pts {
		pts[i] = Vec3{flat[3*i], flat[3*i+1], flat[3*i+2]}
	}
	return pts, nil
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min, Max Vec3
}

// BoundsOf returns the axis-aligned bounds of pts. ok is false for an empty slice.
func BoundsOf(pts []Vec3) (b Bounds, ok bool) {
	if len(pts) == 0 {
		return Bounds{}, false
	}
	b = Bounds{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		b.Min.X = math.Min(b.Min.X, p.X)
		b.Min.Y = math.Min(b.Min.Y, p.Y)
		b.Min.Z = math.Min(b.Min.Z, p.Z)
		b.Max.X = math.Max(b.Max.X, p.X)
		b.Max.Y = math.Max(b.Max.Y, p.Y)
		b.Max.Z = math.Max(b.Max.Z, p.Z)
	}
	return b, true
}

// Mid returns the midpoint of the box.
func (b Bounds) Mid() Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}
