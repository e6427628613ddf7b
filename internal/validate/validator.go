package validate

import (
	"github.com/banshee-data/doorflow/internal/geom"
)

// DefaultTolerance is the largest distance between a probe point and its
// nearest flow sample for the sample to count.
const DefaultTolerance = 0.4

// NearestQuerier looks up the flow sample nearest to a point.
type NearestQuerier interface {
	QueryNearest(p geom.Vec3) (dist, value float64, ok bool)
}

// Reading is what the flow field reported for one probe point.
type Reading struct {
	Distance float64
	Value    float64
	Found    bool
}

// Within reports whether the reading is close enough to use.
func (r Reading) Within(tolerance float64) bool {
	return r.Found && r.Distance <= tolerance
}

// Outcome is the result of checking one door.
type Outcome struct {
	Validity Validity
	Near     Reading
	Far      Reading
	// OutOfTolerance is set when either probe had no sample within the
	// tolerance, which is why Validity is Unknown.
	OutOfTolerance bool
}

// Validator compares flow values at the two probe points of a door.
type Validator struct {
	Tolerance float64
}

// NewValidator returns a Validator using tolerance, or DefaultTolerance when
// tolerance is not positive.
func NewValidator(tolerance float64) *Validator {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Validator{Tolerance: tolerance}
}

// Validate checks probe p against field. A door is Valid when the value at
// the near probe is strictly greater than at the far probe, Invalid
// otherwise, and Unknown when either probe's nearest sample is more than the
// tolerance away. A distance equal to the tolerance is accepted.
func (v *Validator) Validate(p geom.Probe, field NearestQuerier) Outcome {
	var out Outcome
	out.Near = read(field, p.Near)
	out.Far = read(field, p.Far)

	if !out.Near.Within(v.Tolerance) || !out.Far.Within(v.Tolerance) {
		out.Validity = Unknown
		out.OutOfTolerance = true
		return out
	}

	if out.Near.Value > out.Far.Value {
		out.Validity = Valid
	} else {
		out.Validity = Invalid
	}
	return out
}

func read(field NearestQuerier, p geom.Vec3) Reading {
	d, val, ok := field.QueryNearest(p)
	return Reading{Distance: d, Value: val, Found: ok}
}
