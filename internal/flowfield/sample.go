package flowfield

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// DefaultSentinel marks an unset measurement in exported flow tables.
const DefaultSentinel = 1.0

// Sample is one flow measurement.
type Sample struct {
	X, Y, Z float64
	Value   float64
}

func (s Sample) finite() bool {
	for _, v := range [4]float64{s.X, s.Y, s.Z, s.Value} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// FilterSentinel returns the samples whose value is not the sentinel.
func FilterSentinel(samples []Sample, sentinel float64) []Sample {
	out := make([]Sample, 0, len(samples))
	for _, s := range samples {
		if s.Value != sentinel {
			out = append(out, s)
		}
	}
	return out
}

// ReadCSV parses comma-separated x,y,z,value rows and drops rows whose value
// equals sentinel. Blank lines and '#' comments are skipped. A first row that
// does not parse as numbers is treated as a header.
func ReadCSV(r io.Reader, sentinel float64) ([]Sample, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var samples []Sample
	first := true
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read flow CSV: %w", err)
		}
		line, _ := reader.FieldPos(0)

		s, err := parseRecord(record)
		if err != nil {
			if first && looksLikeHeader(record) {
				first = false
				continue
			}
			return nil, fmt.Errorf("invalid flow record at line %d: %w", line, err)
		}
		first = false
		samples = append(samples, s)
	}
	return FilterSentinel(samples, sentinel), nil
}

func parseRecord(record []string) (Sample, error) {
	if len(record) < 4 {
		return Sample{}, fmt.Errorf("expected 4 fields, got %d", len(record))
	}
	var vals [4]float64
	for i := range vals {
		v, err := strconv.ParseFloat(strings.TrimSpace(record[i]), 64)
		if err != nil {
			return Sample{}, fmt.Errorf("field %d: %v", i+1, err)
		}
		vals[i] = v
	}
	return Sample{X: vals[0], Y: vals[1], Z: vals[2], Value: vals[3]}, nil
}

func looksLikeHeader(record []string) bool {
	for _, f := range record {
		if _, err := strconv.ParseFloat(strings.TrimSpace(f), 64); err == nil {
			return false
		}
	}
	return true
}
