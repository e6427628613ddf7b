// Package elevation partitions a building's storeys into half-open vertical
// bands that together cover the whole real line.
package elevation

import (
	"fmt"
	"math"
	"sort"
)

// Band is the half-open elevation range [Min, Max).
type Band struct {
	Min, Max float64
}

// Contains reports whether Min <= z < Max.
func (b Band) Contains(z float64) bool {
	return z >= b.Min && z < b.Max
}

func (b Band) String() string {
	return fmt.Sprintf("[%g, %g)", b.Min, b.Max)
}

// Bands returns the bands for the given storey elevations, lowest first.
//
// Distinct elevations are sorted ascending, the lowest is replaced by -Inf
// and each elevation starts a band ending at the next one; the last band ends
// at +Inf. No elevations yields the single band (-Inf, +Inf). NaN values are
// ignored.
func Bands(elevations []float64) []Band {
	distinct := make([]float64, 0, len(elevations))
	seen := make(map[float64]bool, len(elevations))
	for _, e := range elevations {
		if math.IsNaN(e) || seen[e] {
			continue
		}
		seen[e] = true
		distinct = append(distinct, e)
	}
	sort.Float64s(distinct)

	if len(distinct) == 0 {
		return []Band{{Min: math.Inf(-1), Max: math.Inf(1)}}
	}
	distinct[0] = math.Inf(-1)

	bands := make([]Band, len(distinct))
	for i, lo := range distinct {
		hi := math.Inf(1)
		if i+1 < len(distinct) {
			hi = distinct[i+1]
		}
		bands[i] = Band{Min: lo, Max: hi}
	}
	return bands
}

// Locate returns the index of the first band containing z, or -1.
func Locate(bands []Band, z float64) int {
	for i, b := range bands {
		if b.Contains(z) {
			return i
		}
	}
	return -1
}
