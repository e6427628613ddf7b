package analysis

import (
	"errors"
	"fmt"

	"github.com/banshee-data/doorflow/internal/elevation"
	"github.com/banshee-data/doorflow/internal/flowfield"
	"github.com/banshee-data/doorflow/internal/geom"
	"github.com/banshee-data/doorflow/internal/monitoring"
	"github.com/banshee-data/doorflow/internal/validate"
)

var logf = monitoring.Prefixed("analysis")

// Options tunes a run. The zero value is not useful; start from DefaultOptions.
type Options struct {
	ProbeOffset    float64 // distance of each probe from the door centre
	Tolerance      float64 // max probe to nearest-sample distance
	DoorHeadOffset float64 // added to the centre z before band lookup
	SliceMargin    float64 // how far below a band's lower bound samples are taken
	GradientStride int
	QuiverRadius   float64 // gradient samples closer than this feed the placement
	QuiverLift     float64 // placement z above the door centre

	// OnBand, if set, receives each band's transient data once the band's
	// doors have been validated. The report is not retained by the run.
	OnBand func(BandReport)
}

// DefaultOptions returns the standard parameters.
func DefaultOptions() Options {
	return Options{
		ProbeOffset:    geom.DefaultProbeOffset,
		Tolerance:      validate.DefaultTolerance,
		DoorHeadOffset: 1.0,
		SliceMargin:    1.0,
		GradientStride: flowfield.DefaultGradientStride,
		QuiverRadius:   1.0,
		QuiverLift:     0.05,
	}
}

// Placement positions one arrow glyph of the quiver drawn for a door.
type Placement struct {
	X, Y, Z float64
	Angle   float64 // radians, direction of increasing field value
}

// Outcome is everything the run learned about one element identifier.
type Outcome struct {
	ElementID string
	Probe     *geom.Probe // nil when no probe could be computed
	Probed    bool        // validated in some band
	Band      int         // band index the element was validated in, or -1
	Check     validate.Outcome
	// VisualizationIndex numbers probed elements in the order they were
	// validated. Only meaningful when Probed.
	VisualizationIndex int
	Placements         []Placement
	Diagnostics        []Diagnostic
}

// Validity returns the element's tri-state result.
func (o *Outcome) Validity() validate.Validity {
	if !o.Probed {
		return validate.Unknown
	}
	return o.Check.Validity
}

// HasDiagnostic reports whether a diagnostic of kind k was recorded.
func (o *Outcome) HasDiagnostic(k DiagnosticKind) bool {
	for _, d := range o.Diagnostics {
		if d.Kind == k {
			return true
		}
	}
	return false
}

func (o *Outcome) note(kind DiagnosticKind, band int, format string, args ...interface{}) {
	o.Diagnostics = append(o.Diagnostics, Diagnostic{Kind: kind, Band: band, Message: fmt.Sprintf(format, args...)})
}

// BandDoor is a door validated within a band.
type BandDoor struct {
	ID       string
	Probe    geom.Probe
	Validity validate.Validity
}

// BandReport is the transient per-band data handed to Options.OnBand.
type BandReport struct {
	Index    int
	Band     elevation.Band
	Slice    flowfield.Slice
	Grid     *flowfield.Grid // nil when the slice is empty or GridErr is set
	GridErr  error
	Gradient flowfield.GradientField
	Doors    []BandDoor
}

// Result is the outcome of a run keyed by element identifier.
type Result struct {
	Spacing  float64
	Bands    []elevation.Band
	Outcomes map[string]*Outcome
	Probed   int
}

// Outcome returns the outcome for id, or nil.
func (r *Result) Outcome(id string) *Outcome { return r.Outcomes[id] }

// Run validates elements against field, band by band. Elements sharing an
// identifier share one outcome: the first band match wins and later matches
// are recorded as duplicate assignments.
func Run(elements []Element, field *flowfield.Field, bands []elevation.Band, opts Options) *Result {
	res := &Result{
		Spacing:  field.Spacing(),
		Bands:    bands,
		Outcomes: make(map[string]*Outcome, len(elements)),
	}

	probes := make([]*geom.Probe, len(elements))
	for i, el := range elements {
		oc := res.Outcomes[el.ID]
		if oc == nil {
			oc = &Outcome{ElementID: el.ID, Band: -1}
			res.Outcomes[el.ID] = oc
		}
		if !el.HasGeometry {
			oc.note(KindMissingGeometry, -1, "no shape available")
			continue
		}
		p, err := geom.ComputeProbe(el.Transform, el.Vertices, opts.ProbeOffset)
		switch {
		case errors.Is(err, geom.ErrSingularTransform):
			oc.note(KindSingularTransform, -1, "%v", err)
			logf("element %s: %v", el.ID, err)
			continue
		case err != nil:
			oc.note(KindMissingGeometry, -1, "%v", err)
			continue
		}
		probes[i] = &p
		if oc.Probe == nil {
			oc.Probe = &p
		}
	}

	validator := validate.NewValidator(opts.Tolerance)
	for bi, band := range bands {
		report := BandReport{
			Index: bi,
			Band:  band,
			Slice: field.Slice(band.Min-opts.SliceMargin, band.Max),
		}
		if report.Slice.Len() > 0 {
			grid, err := field.AveragedGrid(report.Slice)
			if err != nil {
				report.GridErr = err
				logf("band %d %v: averaged grid unavailable: %v", bi, band, err)
			} else {
				report.Grid = grid
				report.Gradient = flowfield.Gradient(grid, opts.GradientStride)
			}
		}

		for i, el := range elements {
			p := probes[i]
			if p == nil || !band.Contains(p.Center.Z+opts.DoorHeadOffset) {
				continue
			}
			oc := res.Outcomes[el.ID]
			if oc.Probed {
				oc.note(KindDuplicateAssignment, bi, "already validated in band %d", oc.Band)
				logf("warning: element %s already emitted (band %d), skipping band %d", el.ID, oc.Band, bi)
				continue
			}

			oc.Check = validator.Validate(*p, field)
			oc.Probed = true
			oc.Band = bi
			oc.VisualizationIndex = res.Probed
			res.Probed++
			if oc.Check.OutOfTolerance {
				oc.note(KindOutOfTolerance, bi, "nearest samples %.3f / %.3f exceed tolerance %.3f",
					oc.Check.Near.Distance, oc.Check.Far.Distance, validator.Tolerance)
			}
			if report.GridErr != nil {
				oc.note(KindGridUnavailable, bi, "%v", report.GridErr)
			}
			oc.Placements = placements(report.Gradient, *p, opts)

			report.Doors = append(report.Doors, BandDoor{ID: el.ID, Probe: *p, Validity: oc.Check.Validity})
		}

		logf("band %d %v: %d samples, %d gradient vectors, %d doors validated",
			bi, band, report.Slice.Len(), len(report.Gradient.Vectors), len(report.Doors))
		if opts.OnBand != nil {
			opts.OnBand(report)
		}
	}

	for i, el := range elements {
		oc := res.Outcomes[el.ID]
		if probes[i] != nil && !oc.Probed && !oc.HasDiagnostic(KindUnassigned) {
			oc.note(KindUnassigned, -1, "probe height %.3f is outside every band", probes[i].Center.Z+opts.DoorHeadOffset)
		}
	}
	return res
}

func placements(gf flowfield.GradientField, p geom.Probe, opts Options) []Placement {
	near := gf.Near(p.Center.X, p.Center.Y, opts.QuiverRadius)
	if len(near) == 0 {
		return nil
	}
	out := make([]Placement, len(near))
	for i, v := range near {
		out[i] = Placement{X: v.X, Y: v.Y, Z: p.Center.Z + opts.QuiverLift, Angle: v.Angle}
	}
	return out
}
