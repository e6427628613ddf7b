package geom

import (
	"errors"
	"fmt"
)

// DefaultProbeOffset is the distance either side of a door centre at which
// the flow field is sampled.
const DefaultProbeOffset = 0.2

// ErrMissingGeometry is returned when an element carries no usable shape.
var ErrMissingGeometry = errors.New("missing geometry")

// Probe is the floor-level centre of an element and the two points that
// straddle it along the element's local Y axis.
type Probe struct {
	Center Vec3
	Near   Vec3 // Center - offset * row 1 of the inverse transform
	Far    Vec3 // Center + offset * row 1 of the inverse transform
}

// Axis returns the vector from Near to Far.
func (p Probe) Axis() Vec3 { return p.Far.Sub(p.Near) }

// ComputeProbe derives the probe for an element from its transform and its
// local vertex cloud.
//
// The vertices are moved to world space, their bounding box midpoint becomes
// the centre, and the centre's z is dropped to the bottom of the box so doors
// are probed at floor level. Row 1 of the inverse transform approximates the
// element's thickness axis in world units.
func ComputeProbe(t Mat4, vertices []Vec3, offset float64) (Probe, error) {
	if len(vertices) == 0 {
		return Probe{}, ErrMissingGeometry
	}

	world := t.ApplyAll(vertices)
	bounds, _ := BoundsOf(world)

	center := bounds.Mid()
	center.Z = bounds.Min.Z
	if !center.IsFinite() {
		return Probe{}, fmt.Errorf("%w: non-finite vertex coordinates", ErrMissingGeometry)
	}

	inv, err := t.Inverse()
	if err != nil {
		return Probe{}, err
	}
	axis := inv.Row(1).Scale(offset)

	return Probe{
		Center: center,
		Near:   center.Sub(axis),
		Far:    center.Add(axis),
	}, nil
}
