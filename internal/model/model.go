// Package model loads the building model extract a door check runs against:
// the storey elevations and the placed door and wall elements.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/banshee-data/doorflow/internal/analysis"
	"github.com/banshee-data/doorflow/internal/fsutil"
	"github.com/banshee-data/doorflow/internal/geom"
	"github.com/banshee-data/doorflow/internal/monitoring"
)

// Element types recognised in the extract.
const (
	TypeDoor = "IfcDoor"
	TypeWall = "IfcWall"
)

// ErrInvalidModel is returned when the extract cannot be decoded or lacks an id.
var ErrInvalidModel = errors.New("invalid building model")

var logf = monitoring.Prefixed("model")

// Storey is one building level.
type Storey struct {
	Name      string   `json:"name"`
	Elevation *float64 `json:"elevation,omitempty"`
}

// ElevationOrZero returns the storey elevation, treating a missing value as 0.
func (s Storey) ElevationOrZero() float64 {
	if s.Elevation == nil {
		return 0
	}
	return *s.Elevation
}

type rawElement struct {
	GUID      string    `json:"guid"`
	Type      string    `json:"type"`
	Transform []float64 `json:"transform,omitempty"`
	Vertices  []float64 `json:"vertices,omitempty"`
	Edges     [][2]int  `json:"edges,omitempty"`
}

type rawModel struct {
	ID       string       `json:"id"`
	Storeys  []Storey     `json:"storeys"`
	Elements []rawElement `json:"elements"`
}

// Model is a decoded extract. Doors are validated, walls are drawn only.
type Model struct {
	ID      string
	Storeys []Storey
	Doors   []analysis.Element
	Walls   []analysis.Element
}

// Elevations returns the storey elevations in file order.
func (m *Model) Elevations() []float64 {
	out := make([]float64, len(m.Storeys))
	for i, s := range m.Storeys {
		out[i] = s.ElevationOrZero()
	}
	return out
}

// Decode reads a model from r. Elements with unusable geometry are kept
// with HasGeometry false so they are still reported.
func Decode(r io.Reader) (*Model, error) {
	var raw rawModel
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModel, err)
	}
	if strings.TrimSpace(raw.ID) == "" {
		return nil, fmt.Errorf("%w: missing id", ErrInvalidModel)
	}

	m := &Model{ID: raw.ID, Storeys: raw.Storeys}
	skipped := 0
	for i, re := range raw.Elements {
		if re.GUID == "" {
			return nil, fmt.Errorf("%w: element %d has no guid", ErrInvalidModel, i)
		}
		el := convert(re)
		switch re.Type {
		case TypeDoor, "":
			m.Doors = append(m.Doors, el)
		case TypeWall:
			m.Walls = append(m.Walls, el)
		default:
			skipped++
		}
	}
	if skipped > 0 {
		logf("model %s: ignored %d elements of other types", m.ID, skipped)
	}
	logf("model %s: %d storeys, %d doors, %d walls", m.ID, len(m.Storeys), len(m.Doors), len(m.Walls))
	return m, nil
}

// Load reads a model file through fsys.
func Load(fsys fsutil.FileSystem, path string) (*Model, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model: %w", err)
	}
	defer f.Close()
	m, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func convert(re rawElement) analysis.Element {
	el := analysis.Element{ID: re.GUID}
	if len(re.Transform) != 16 {
		if re.Transform != nil {
			logf("element %s: transform has %d values, want 16", re.GUID, len(re.Transform))
		}
		return el
	}
	verts, err := geom.PointsFromFlat(re.Vertices)
	if err != nil || len(verts) == 0 {
		if err != nil {
			logf("element %s: %v", re.GUID, err)
		}
		return el
	}

	copy(el.Transform[:], re.Transform)
	el.Vertices = verts
	el.HasGeometry = true
	for _, e := range re.Edges {
		if e[0] < 0 || e[1] < 0 || e[0] >= len(verts) || e[1] >= len(verts) {
			continue
		}
		el.Edges = append(el.Edges, e)
	}
	return el
}
