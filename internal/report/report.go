// Package report writes the per-model validation result document.
package report

import (
	"encoding/json"
	"fmt"

	"github.com/banshee-data/doorflow/internal/analysis"
	"github.com/banshee-data/doorflow/internal/fsutil"
)

// Entry is one element's line in the report.
type Entry struct {
	Status        string                `json:"status"`
	GUID          string                `json:"guid"`
	Visualization string                `json:"visualization,omitempty"`
	Diagnostics   []analysis.Diagnostic `json:"diagnostics,omitempty"`
}

// Report is the document written as <id>.json.
type Report struct {
	ID      string  `json:"id"`
	Results []Entry `json:"results"`
}

// New builds a report. template is formatted with the report id and the
// element's visualization index to give the visualization path.
func New(id string, results []analysis.ValidationResult, template string) Report {
	r := Report{ID: id, Results: make([]Entry, 0, len(results))}
	for _, res := range results {
		e := Entry{
			Status:      string(res.Status),
			GUID:        res.ElementID,
			Diagnostics: res.Diagnostics,
		}
		if res.Visualization != nil {
			e.Visualization = fmt.Sprintf(template, id, *res.Visualization)
		}
		r.Results = append(r.Results, e)
	}
	return r
}

// FileName returns the artifact name of r.
func (r Report) FileName() string { return fsutil.SafeName(r.ID) + ".json" }

// Write stores r in dir and returns the written path.
func Write(dir fsutil.Dir, r Report) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	data = append(data, '\n')
	if err := dir.WriteFile(r.FileName(), data); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return dir.Path(r.FileName()), nil
}
