package model

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/doorflow/internal/fsutil"
	"github.com/banshee-data/doorflow/internal/geom"
)

const sample = `{
  "id": "house",
  "storeys": [{"name": "ground"}, {"name": "first", "elevation": 3.0}],
  "elements": [
    {"guid": "d1", "type": "IfcDoor",
     "transform": [1,0,0,2, 0,1,0,0, 0,0,1,0, 0,0,0,1],
     "vertices": [0,0,0, 1,0,0, 1,0.1,2],
     "edges": [[0,1],[1,2],[2,7]]},
    {"guid": "d2", "transform": [1,0,0,0, 0,1,0,0, 0,0,1,0, 0,0,0,1]},
    {"guid": "d3", "type": "IfcDoor", "transform": [1,0,0], "vertices": [0,0,0]},
    {"guid": "d4", "type": "IfcDoor", "transform": [1,0,0,0, 0,1,0,0, 0,0,1,0, 0,0,0,1], "vertices": [0,0]},
    {"guid": "w1", "type": "IfcWall",
     "transform": [1,0,0,0, 0,1,0,0, 0,0,1,0, 0,0,0,1],
     "vertices": [0,0,0, 4,0,0]},
    {"guid": "s1", "type": "IfcSlab"}
  ]
}`

func TestDecode(t *testing.T) {
	m, err := Decode(strings.NewReader(sample))
	require.NoError(t, err)

	assert.Equal(t, "house", m.ID)
	assert.Equal(t, []float64{0, 3}, m.Elevations())
	require.Len(t, m.Doors, 4)
	require.Len(t, m.Walls, 1)

	d1 := m.Doors[0]
	assert.Equal(t, "d1", d1.ID)
	assert.True(t, d1.HasGeometry)
	assert.Equal(t, geom.Translation(2, 0, 0), d1.Transform)
	assert.Equal(t, []geom.Vec3{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 0.1, Z: 2}}, d1.Vertices)
	assert.Equal(t, [][2]int{{0, 1}, {1, 2}}, d1.Edges, "out-of-range edge dropped")

	for _, d := range m.Doors[1:] {
		assert.False(t, d.HasGeometry, d.ID)
		assert.Nil(t, d.Vertices, d.ID)
	}
	assert.True(t, m.Walls[0].HasGeometry)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not json", "{"},
		{"missing id", `{"storeys": []}`},
		{"element without guid", `{"id": "m", "elements": [{"type": "IfcDoor"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input))
			assert.True(t, errors.Is(err, ErrInvalidModel), "got %v", err)
		})
	}
}

func TestLoad(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	require.NoError(t, fsys.WriteFile("/in/model.json", []byte(`{"id": "m"}`), 0o644))

	m, err := Load(fsys, "/in/model.json")
	require.NoError(t, err)
	assert.Equal(t, "m", m.ID)
	assert.Empty(t, m.Elevations())

	_, err = Load(fsys, "/in/missing.json")
	assert.Error(t, err)
}

func TestStorey_ElevationOrZero(t *testing.T) {
	e := 2.5
	assert.Equal(t, 2.5, Storey{Elevation: &e}.ElevationOrZero())
	assert.Equal(t, 0.0, Storey{}.ElevationOrZero())
}
