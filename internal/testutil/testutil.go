// Package testutil provides shared test fixtures and assertion helpers.
//
// Fixtures build small, hand-checkable inputs: door slabs, flow sample
// lattices and fields built from them.
package testutil

import (
	"math"
	"testing"

	"github.com/banshee-data/doorflow/internal/flowfield"
	"github.com/banshee-data/doorflow/internal/geom"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertNear fails the test if got is farther than tol from want.
func AssertNear(t testing.TB, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("got %g, want %g (tolerance %g)", got, want, tol)
	}
}

// DoorSlab returns the local vertices of a 1 x 0.1 x 2 door leaf centred on
// the origin in x and y, standing on z = 0. Its thickness runs along local y.
func DoorSlab() []geom.Vec3 {
	return []geom.Vec3{
		{X: -0.5, Y: -0.05, Z: 0}, {X: 0.5, Y: -0.05, Z: 0},
		{X: 0.5, Y: 0.05, Z: 0}, {X: -0.5, Y: 0.05, Z: 0},
		{X: -0.5, Y: -0.05, Z: 2}, {X: 0.5, Y: -0.05, Z: 2},
		{X: 0.5, Y: 0.05, Z: 2}, {X: -0.5, Y: 0.05, Z: 2},
	}
}

// SlabEdges returns the twelve box edges of DoorSlab.
func SlabEdges() [][2]int {
	return [][2]int{
		{0, 1}, {1, 2}, {2, 3}, {3, 0},
		{4, 5}, {5, 6}, {6, 7}, {7, 4},
		{0, 4}, {1, 5}, {2, 6}, {3, 7},
	}
}

// Lattice returns samples on a regular n x n grid starting at (x0, y0) with
// the given spacing, at height z, valued by f.
func Lattice(n int, x0, y0, spacing, z float64, f func(x, y float64) float64) []flowfield.Sample {
	samples := make([]flowfield.Sample, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			x := x0 + float64(i)*spacing
			y := y0 + float64(j)*spacing
			samples = append(samples, flowfield.Sample{X: x, Y: y, Z: z, Value: f(x, y)})
		}
	}
	return samples
}

// MustField builds a flowfield.Field or fails the test.
func MustField(t testing.TB, samples []flowfield.Sample) *flowfield.Field {
	t.Helper()
	f, err := flowfield.New(samples)
	if err != nil {
		t.Fatalf("flowfield.New: %v", err)
	}
	return f
}
