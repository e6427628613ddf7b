package report

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/doorflow/internal/analysis"
	"github.com/banshee-data/doorflow/internal/fsutil"
	"github.com/banshee-data/doorflow/internal/validate"
)

func intp(v int) *int { return &v }

func sampleResults() []analysis.ValidationResult {
	return []analysis.ValidationResult{
		{ElementID: "a", Validity: validate.Valid, Status: validate.StatusNotice, Visualization: intp(0)},
		{ElementID: "b", Validity: validate.Unknown, Status: validate.StatusUnknown,
			Diagnostics: []analysis.Diagnostic{{Kind: analysis.KindMissingGeometry, Band: -1, Message: "no shape available"}}},
		{ElementID: "c", Validity: validate.Invalid, Status: validate.StatusError, Visualization: intp(1)},
	}
}

func TestNew(t *testing.T) {
	r := New("m1", sampleResults(), "/run/%s/result/resource/gltf/%d.glb")

	want := Report{ID: "m1", Results: []Entry{
		{Status: "NOTICE", GUID: "a", Visualization: "/run/m1/result/resource/gltf/0.glb"},
		{Status: "UNKNOWN", GUID: "b", Diagnostics: []analysis.Diagnostic{{Kind: analysis.KindMissingGeometry, Band: -1, Message: "no shape available"}}},
		{Status: "ERROR", GUID: "c", Visualization: "/run/m1/result/resource/gltf/1.glb"},
	}}
	if diff := cmp.Diff(want, r); diff != "" {
		t.Errorf("New mismatch (-want +got):\n%s", diff)
	}
}

func TestNew_NoResults(t *testing.T) {
	data, err := json.Marshal(New("m", nil, "%s%d"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"m","results":[]}`, string(data))
}

func TestWrite(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	dir := fsutil.Dir{FS: fsys, Root: "/out"}

	path, err := Write(dir, New("m1", sampleResults(), "v/%s/%d"))
	require.NoError(t, err)
	assert.Equal(t, "/out/m1.json", path)

	data, err := fsys.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "m1",
		"results": [
			{"status": "NOTICE", "guid": "a", "visualization": "v/m1/0"},
			{"status": "UNKNOWN", "guid": "b",
			 "diagnostics": [{"kind": "missing_geometry", "band": -1, "message": "no shape available"}]},
			{"status": "ERROR", "guid": "c", "visualization": "v/m1/1"}
		]
	}`, string(data))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "m1.json", Report{ID: "m1"}.FileName())
	assert.Equal(t, "site_a.json", Report{ID: "site/a"}.FileName())
}
