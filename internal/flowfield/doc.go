// Package flowfield ingests scattered (x, y, z, value) flow samples and
// derives everything the door check needs from them: the inferred grid
// spacing, a kd-tree for nearest-sample lookup, per-band slices, the
// averaged 2D grid of a slice and its normalised gradient field.
//
// A Field is immutable after New and may be shared between goroutines.
// Grids and gradient fields are built per elevation band and are not
// retained by the Field.
package flowfield
