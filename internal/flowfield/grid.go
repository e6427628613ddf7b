package flowfield

import (
	"errors"
	"fmt"
	"math"
)

// ErrEmptySlice is returned when a grid is requested for a slice with no samples.
var ErrEmptySlice = errors.New("empty flow slice")

// ErrGridTooLarge is returned when the occupied cells of a slice span more
// than MaxGridCells, or a coordinate has no representable cell index.
var ErrGridTooLarge = errors.New("flow grid too large")

// MaxGridCells caps the dense allocation behind a Grid.
const MaxGridCells = 1 << 22

// maxCellQuotient is the largest |v/spacing| whose floor is exact and fits in an int.
const maxCellQuotient = 1 << 53

// cellEpsilon absorbs floating point error when a coordinate lies exactly on
// a cell boundary, e.g. 0.3/0.1 = 2.9999999999999996.
const cellEpsilon = 1e-6

// CellIndex returns the grid cell index of coordinate v for the given spacing.
// Callers must ensure v/spacing is finite and within ±2^53; see cellIndex.
func CellIndex(v, spacing float64) int {
	return int(math.Floor(v/spacing + cellEpsilon))
}

func cellIndex(v, spacing float64) (int, bool) {
	q := v / spacing
	if math.IsNaN(q) || math.Abs(q) > maxCellQuotient {
		return 0, false
	}
	return int(math.Floor(q + cellEpsilon)), true
}

// Grid is the per-cell mean of a slice binned on the XY plane. Cells without
// samples are masked. Local index (i, j) maps to global cell (I0+i, J0+j).
type Grid struct {
	Spacing float64
	I0, J0  int
	NX, NY  int

	sums   []float64
	counts []int
}

// NewGrid bins samples into cells of size spacing. The grid covers exactly
// the bounding range of occupied cells, which must not exceed MaxGridCells.
func NewGrid(samples []Sample, spacing float64) (*Grid, error) {
	if len(samples) == 0 {
		return nil, ErrEmptySlice
	}

	minI, maxI := math.MaxInt, math.MinInt
	minJ, maxJ := math.MaxInt, math.MinInt
	is := make([]int, len(samples))
	js := make([]int, len(samples))
	for k, s := range samples {
		i, okI := cellIndex(s.X, spacing)
		j, okJ := cellIndex(s.Y, spacing)
		if !okI || !okJ {
			return nil, fmt.Errorf("%w: sample (%g, %g) outside indexable range at spacing %g",
				ErrGridTooLarge, s.X, s.Y, spacing)
		}
		is[k], js[k] = i, j
		minI, maxI = min(minI, is[k]), max(maxI, is[k])
		minJ, maxJ = min(minJ, js[k]), max(maxJ, js[k])
	}

	// Both spans are below 2^54, so the subtraction cannot overflow.
	nx, ny := maxI-minI+1, maxJ-minJ+1
	if nx > MaxGridCells || ny > MaxGridCells/nx {
		return nil, fmt.Errorf("%w: %d x %d cells exceeds %d", ErrGridTooLarge, nx, ny, MaxGridCells)
	}

	g := &Grid{
		Spacing: spacing,
		I0:      minI,
		J0:      minJ,
		NX:      nx,
		NY:      ny,
	}
	g.sums = make([]float64, g.NX*g.NY)
	g.counts = make([]int, g.NX*g.NY)

	for k, s := range samples {
		idx := (is[k]-minI)*g.NY + (js[k] - minJ)
		g.sums[idx] += s.Value
		g.counts[idx]++
	}
	return g, nil
}

// AveragedGrid bins a slice using the field's spacing.
func (f *Field) AveragedGrid(s Slice) (*Grid, error) {
	return NewGrid(s.Samples, f.spacing)
}

func (g *Grid) inside(i, j int) bool {
	return i >= 0 && i < g.NX && j >= 0 && j < g.NY
}

// At returns the mean value of local cell (i, j). ok is false for masked or
// out-of-range cells.
func (g *Grid) At(i, j int) (v float64, ok bool) {
	if !g.inside(i, j) {
		return 0, false
	}
	idx := i*g.NY + j
	if g.counts[idx] == 0 {
		return 0, false
	}
	return g.sums[idx] / float64(g.counts[idx]), true
}

// Count returns the number of samples binned into local cell (i, j).
func (g *Grid) Count(i, j int) int {
	if !g.inside(i, j) {
		return 0
	}
	return g.counts[i*g.NY+j]
}

// Occupied returns the number of unmasked cells.
func (g *Grid) Occupied() int {
	n := 0
	for _, c := range g.counts {
		if c > 0 {
			n++
		}
	}
	return n
}

// Locate returns the local cell containing world point (x, y).
func (g *Grid) Locate(x, y float64) (i, j int, ok bool) {
	gi, okI := cellIndex(x, g.Spacing)
	gj, okJ := cellIndex(y, g.Spacing)
	if !okI || !okJ {
		return 0, 0, false
	}
	i, j = gi-g.I0, gj-g.J0
	return i, j, g.inside(i, j)
}

// Origin returns the world coordinates of the lower corner of local cell (i, j).
func (g *Grid) Origin(i, j int) (x, y float64) {
	return float64(g.I0+i) * g.Spacing, float64(g.J0+j) * g.Spacing
}
