package analysis

import (
	"fmt"

	"github.com/banshee-data/doorflow/internal/geom"
)

// Element is one building element as handed over by the model loader.
type Element struct {
	ID        string
	Transform geom.Mat4
	Vertices  []geom.Vec3 // local coordinates
	Edges     [][2]int    // vertex index pairs, drawing only
	// HasGeometry is false when the upstream shape could not be built.
	HasGeometry bool
}

// WorldVertices returns the vertices in world coordinates.
func (e Element) WorldVertices() []geom.Vec3 {
	if !e.HasGeometry {
		return nil
	}
	return e.Transform.ApplyAll(e.Vertices)
}

// DiagnosticKind classifies a non-fatal per-element condition.
type DiagnosticKind string

const (
	// KindMissingGeometry: the element has no usable shape.
	KindMissingGeometry DiagnosticKind = "missing_geometry"
	// KindSingularTransform: the transform has no inverse so no probe exists.
	KindSingularTransform DiagnosticKind = "singular_transform"
	// KindOutOfTolerance: a probe's nearest flow sample was too far away.
	KindOutOfTolerance DiagnosticKind = "out_of_tolerance"
	// KindDuplicateAssignment: the element matched a second band and was skipped there.
	KindDuplicateAssignment DiagnosticKind = "duplicate_assignment"
	// KindUnassigned: the element's probe height fell in no band.
	KindUnassigned DiagnosticKind = "unassigned"
	// KindGridUnavailable: the band's averaged grid could not be built, so no
	// gradient glyphs exist for the element.
	KindGridUnavailable DiagnosticKind = "grid_unavailable"
)

// Diagnostic is a structured note attached to an element outcome.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Band    int            `json:"band"` // -1 when not band specific
	Message string         `json:"message"`
}

func (d Diagnostic) String() string {
	if d.Band < 0 {
		return fmt.Sprintf("%s: %s", d.Kind, d.Message)
	}
	return fmt.Sprintf("%s (band %d): %s", d.Kind, d.Band, d.Message)
}
