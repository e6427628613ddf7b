// Package analysis runs the door check over a whole building: it probes
// every element, walks the elevation bands, slices and grids the flow field
// per band, validates the doors that belong to each band and aggregates the
// per-element outcomes into report records.
//
// Per-element problems never abort a run. They are recorded as Diagnostic
// values on the element's outcome. The only fatal condition, a flow field
// without a usable spacing, is reported by flowfield.New before a run starts.
package analysis
