package elevation

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBands(t *testing.T) {
	inf := math.Inf(1)
	tests := []struct {
		name       string
		elevations []float64
		want       []Band
	}{
		{"empty", nil, []Band{{-inf, inf}}},
		{"single storey", []float64{0}, []Band{{-inf, inf}}},
		{"three storeys", []float64{0, 3, 6}, []Band{{-inf, 3}, {3, 6}, {6, inf}}},
		{"unsorted with duplicates", []float64{6, 0, 3, 3, 0}, []Band{{-inf, 3}, {3, 6}, {6, inf}}},
		{"basement", []float64{-3.2, 0, 2.8}, []Band{{-inf, 0}, {0, 2.8}, {2.8, inf}}},
		{"nan ignored", []float64{math.NaN(), 4}, []Band{{-inf, inf}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Bands(tt.elevations))
		})
	}
}

func TestBands_DoesNotModifyInput(t *testing.T) {
	in := []float64{3, 0, 6}
	Bands(in)
	assert.Equal(t, []float64{3, 0, 6}, in)
}

func TestBands_Partition(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for trial := 0; trial < 50; trial++ {
		elevations := make([]float64, rng.Intn(8))
		for i := range elevations {
			elevations[i] = math.Round(rng.NormFloat64()*1000) / 100
		}
		bands := Bands(elevations)
		require.NotEmpty(t, bands)

		assert.True(t, math.IsInf(bands[0].Min, -1))
		assert.True(t, math.IsInf(bands[len(bands)-1].Max, 1))
		for i := 1; i < len(bands); i++ {
			assert.Equal(t, bands[i-1].Max, bands[i].Min, "no gap or overlap between bands")
			assert.Less(t, bands[i].Min, bands[i].Max)
		}

		// Every probe height lands in exactly one band.
		for q := 0; q < 20; q++ {
			z := rng.NormFloat64() * 20
			hits := 0
			for _, b := range bands {
				if b.Contains(z) {
					hits++
				}
			}
			assert.Equal(t, 1, hits, "z=%g bands=%v", z, bands)
		}
	}
}

func TestLocate(t *testing.T) {
	bands := Bands([]float64{0, 3})
	assert.Equal(t, 0, Locate(bands, -100))
	assert.Equal(t, 0, Locate(bands, 2.999))
	assert.Equal(t, 1, Locate(bands, 3))
	assert.Equal(t, -1, Locate([]Band{{0, 1}}, 1))
}

func TestBand_String(t *testing.T) {
	assert.Equal(t, "[-Inf, 3)", Band{math.Inf(-1), 3}.String())
}
