// Package geom holds the small amount of coordinate-frame math needed to
// probe building elements: 3D points, row-major 4x4 homogeneous transforms,
// axis-aligned bounds, and the door probe derived from them.
//
// Key types: Vec3, Mat4, Bounds, Probe.
//
// No I/O is performed in this package.
package geom
