package analysis

import "github.com/banshee-data/doorflow/internal/validate"

// ValidationResult is the report record for one input element.
type ValidationResult struct {
	ElementID string
	Validity  validate.Validity
	Status    validate.Status
	// Visualization is the element's visualization index, set only for
	// elements that were probed.
	Visualization *int
	Diagnostics   []Diagnostic
}

// Build returns one record per element in input order.
func Build(elements []Element, res *Result) []ValidationResult {
	out := make([]ValidationResult, 0, len(elements))
	for _, el := range elements {
		r := ValidationResult{ElementID: el.ID, Validity: validate.Unknown}
		if oc := res.Outcome(el.ID); oc != nil {
			r.Validity = oc.Validity()
			r.Diagnostics = oc.Diagnostics
			if oc.Probed {
				idx := oc.VisualizationIndex
				r.Visualization = &idx
			}
		}
		r.Status = r.Validity.Status()
		out = append(out, r)
	}
	return out
}

// Summary counts results by status.
func Summary(results []ValidationResult) map[validate.Status]int {
	counts := map[validate.Status]int{
		validate.StatusUnknown: 0,
		validate.StatusNotice:  0,
		validate.StatusError:   0,
	}
	for _, r := range results {
		counts[r.Status]++
	}
	return counts
}
