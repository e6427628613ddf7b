package flowfield

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/banshee-data/doorflow/internal/geom"
	"github.com/banshee-data/doorflow/internal/monitoring"
	"gonum.org/v1/gonum/spatial/kdtree"
)

// ErrDegenerateInput is returned when the samples do not determine a grid
// resolution (fewer than two distinct x coordinates).
var ErrDegenerateInput = errors.New("degenerate flow input")

var logf = monitoring.Prefixed("flowfield")

// Field is the full set of flow samples for one run together with its
// inferred spacing and nearest-neighbour index.
type Field struct {
	samples []Sample
	spacing float64
	tree    *kdtree.Tree
}

// New builds a Field. Samples with non-finite components are dropped.
// Returns ErrDegenerateInput when the spacing cannot be determined.
func New(samples []Sample) (*Field, error) {
	kept := make([]Sample, 0, len(samples))
	for _, s := range samples {
		if s.finite() {
			kept = append(kept, s)
		}
	}
	if dropped := len(samples) - len(kept); dropped > 0 {
		logf("dropped %d non-finite samples", dropped)
	}

	spacing, err := Spacing(kept)
	if err != nil {
		return nil, err
	}

	f := &Field{
		samples: kept,
		spacing: spacing,
		tree:    buildIndex(kept),
	}
	logf("indexed %d samples, spacing=%g", len(kept), spacing)
	return f, nil
}

// Spacing returns the smallest positive gap between sorted distinct x
// coordinates of samples. The result does not depend on sample order.
func Spacing(samples []Sample) (float64, error) {
	xs := make([]float64, len(samples))
	for i, s := range samples {
		xs[i] = s.X
	}
	sort.Float64s(xs)

	spacing := math.Inf(1)
	distinct := 0
	for i := range xs {
		if i > 0 && xs[i] == xs[i-1] {
			continue
		}
		distinct++
		if i > 0 {
			// xs[i-1] is the previous distinct value since equal runs are skipped.
			spacing = math.Min(spacing, xs[i]-xs[i-1])
		}
	}
	if distinct < 2 {
		return 0, fmt.Errorf("%w: %d distinct x coordinates in %d samples", ErrDegenerateInput, distinct, len(samples))
	}
	return spacing, nil
}

// Spacing returns the inferred grid resolution.
func (f *Field) Spacing() float64 { return f.spacing }

// Len returns the number of indexed samples.
func (f *Field) Len() int { return len(f.samples) }

// Samples returns the indexed samples. The slice must not be modified.
func (f *Field) Samples() []Sample { return f.samples }

// ValueRange returns the smallest and largest sample value.
func (f *Field) ValueRange() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, s := range f.samples {
		lo = math.Min(lo, s.Value)
		hi = math.Max(hi, s.Value)
	}
	return lo, hi
}

// Slice is the subset of a Field with MinZ <= z < MaxZ.
type Slice struct {
	MinZ, MaxZ float64
	Samples    []Sample
}

// Len returns the number of samples in the slice.
func (s Slice) Len() int { return len(s.Samples) }

// Slice returns the samples with minZ <= z < maxZ, in input order.
func (f *Field) Slice(minZ, maxZ float64) Slice {
	out := Slice{MinZ: minZ, MaxZ: maxZ}
	for _, s := range f.samples {
		if s.Z >= minZ && s.Z < maxZ {
			out.Samples = append(out.Samples, s)
		}
	}
	return out
}

// QueryNearest returns the distance to and value of the sample nearest to p.
// ok is false only when the field holds no samples.
func (f *Field) QueryNearest(p geom.Vec3) (dist, value float64, ok bool) {
	if len(f.samples) == 0 {
		return math.Inf(1), 0, false
	}
	c, d2 := f.tree.Nearest(indexedPoint{pos: [3]float64{p.X, p.Y, p.Z}})
	if c == nil {
		return math.Inf(1), 0, false
	}
	return math.Sqrt(d2), f.samples[c.(indexedPoint).idx].Value, true
}
