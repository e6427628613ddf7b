package main

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/doorflow/internal/config"
	"github.com/banshee-data/doorflow/internal/fsutil"
	"github.com/banshee-data/doorflow/internal/runstore"
	"github.com/banshee-data/doorflow/internal/validate"
)

const testModel = `{
  "id": "house",
  "storeys": [{"name": "ground", "elevation": 0}],
  "elements": [
    {"guid": "front", "type": "IfcDoor",
     "transform": [1,0,0,0, 0,1,0,0, 0,0,1,0, 0,0,0,1],
     "vertices": [-0.5,-0.05,0, 0.5,-0.05,0, 0.5,0.05,0, -0.5,0.05,0,
                  -0.5,-0.05,2, 0.5,-0.05,2, 0.5,0.05,2, -0.5,0.05,2],
     "edges": [[0,1],[1,2],[2,3],[3,0]]},
    {"guid": "back", "type": "IfcDoor",
     "transform": [-1,0,0,0, 0,-1,0,0, 0,0,1,0, 0,0,0,1],
     "vertices": [-0.5,-0.05,0, 0.5,-0.05,0, 0.5,0.05,0, -0.5,0.05,0]},
    {"guid": "ghost", "type": "IfcDoor"},
    {"guid": "wall", "type": "IfcWall",
     "transform": [1,0,0,0, 0,1,0,0, 0,0,1,0, 0,0,0,1],
     "vertices": [1.5,-2,0, 1.5,2,0, 1.7,2,0, 1.7,-2,0],
     "edges": [[0,1],[1,2],[2,3],[3,0]]}
  ]
}`

// slopedFlow returns a 17x17 lattice over [-2, 2] whose value falls with y,
// preceded by a header row, with one sentinel row that must be dropped.
func slopedFlow() string {
	var b strings.Builder
	b.WriteString("x,y,z,value\n")
	for i := 0; i <= 16; i++ {
		for j := 0; j <= 16; j++ {
			x, y := -2+float64(i)*0.25, -2+float64(j)*0.25
			fmt.Fprintf(&b, "%g,%g,0,%g\n", x, y, 5-y)
		}
	}
	b.WriteString("9,9,0,1\n")
	return b.String()
}

func setupInputs(t *testing.T) *fsutil.MemoryFileSystem {
	t.Helper()
	fsys := fsutil.NewMemoryFileSystem()
	require.NoError(t, fsys.WriteFile("/in/model.json", []byte(testModel), 0o644))
	require.NoError(t, fsys.WriteFile("/in/flow.csv", []byte(slopedFlow()), 0o644))
	return fsys
}

func testConfig() *config.AnalysisConfig {
	cfg := config.DefaultAnalysisConfig()
	dpi := 72
	cfg.RenderDPI = &dpi
	return cfg
}

func TestRun(t *testing.T) {
	fsys := setupInputs(t)
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	summary, err := run(context.Background(), runOptions{
		FS:        fsys,
		ModelPath: "/in/model.json",
		FlowPath:  "/in/flow.csv",
		OutDir:    "/out",
		DBPath:    dbPath,
		Figures:   true,
		HTML:      true,
		Config:    testConfig(),
	})
	require.NoError(t, err)

	assert.Equal(t, "/out/house.json", summary.ReportPath)
	assert.Equal(t, map[validate.Status]int{
		validate.StatusNotice:  1,
		validate.StatusError:   1,
		validate.StatusUnknown: 1,
	}, summary.Counts)
	assert.Equal(t, []string{"/out/house_0.obj", "/out/house_1.obj"}, summary.Meshes)
	assert.ElementsMatch(t, []string{"/out/flow-0-0.png", "/out/flow-1-0.png", "/out/flow-0.html"}, summary.Figures)
	assert.True(t, fsys.Exists("/out/mtl.mtl"))

	data, err := fsys.ReadFile(summary.ReportPath)
	require.NoError(t, err)
	var rep struct {
		ID      string `json:"id"`
		Results []struct {
			Status        string `json:"status"`
			GUID          string `json:"guid"`
			Visualization string `json:"visualization"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(data, &rep))
	assert.Equal(t, "house", rep.ID)
	require.Len(t, rep.Results, 3)
	assert.Equal(t, "front", rep.Results[0].GUID)
	assert.Equal(t, "NOTICE", rep.Results[0].Status)
	assert.Equal(t, "/run/house/result/resource/gltf/0.glb", rep.Results[0].Visualization)
	assert.Equal(t, "ERROR", rep.Results[1].Status)
	assert.Equal(t, "UNKNOWN", rep.Results[2].Status)
	assert.Empty(t, rep.Results[2].Visualization)

	require.NotEmpty(t, summary.RunID)
	store, err := runstore.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()
	stored, err := store.Get(context.Background(), summary.RunID)
	require.NoError(t, err)
	assert.Equal(t, "house", stored.ModelID)
	assert.Equal(t, 289, stored.SampleCount, "sentinel row is dropped")
	assert.Equal(t, 0.25, stored.Spacing)
	lines, err := store.ListResults(context.Background(), summary.RunID)
	require.NoError(t, err)
	assert.Len(t, lines, 3)
}

func TestRun_CustomIDWithoutFigures(t *testing.T) {
	fsys := setupInputs(t)
	summary, err := run(context.Background(), runOptions{
		FS:        fsys,
		ModelPath: "/in/model.json",
		FlowPath:  "/in/flow.csv",
		OutDir:    "/out",
		ReportID:  "job-7",
	})
	require.NoError(t, err)
	assert.Equal(t, "/out/job-7.json", summary.ReportPath)
	assert.Empty(t, summary.Figures)
	assert.Empty(t, summary.RunID)
	assert.False(t, fsys.Exists("/out/flow-0-0.png"))
	assert.True(t, fsys.Exists("/out/job-7_0.obj"))
}

func TestRun_InputErrors(t *testing.T) {
	fsys := setupInputs(t)
	require.NoError(t, fsys.WriteFile("/in/flat.csv", []byte("0,0,0,2\n0,1,0,3\n"), 0o644))
	require.NoError(t, fsys.WriteFile("/in/bad.csv", []byte("0,0,zero,2\n"), 0o644))

	tests := []struct {
		name, model, flow, want string
	}{
		{"missing model", "/in/none.json", "/in/flow.csv", "failed to open model"},
		{"missing flow", "/in/model.json", "/in/none.csv", "failed to open flow field"},
		{"degenerate flow", "/in/model.json", "/in/flat.csv", "degenerate"},
		{"malformed flow", "/in/model.json", "/in/bad.csv", "line 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(context.Background(), runOptions{FS: fsys, ModelPath: tt.model, FlowPath: tt.flow, OutDir: "/out"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := run(ctx, runOptions{FS: setupInputs(t), ModelPath: "/in/model.json", FlowPath: "/in/flow.csv", OutDir: "/out"})
	assert.ErrorIs(t, err, context.Canceled)
}
