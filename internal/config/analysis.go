package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/banshee-data/doorflow/internal/analysis"
)

// DefaultConfigPath is the path to the canonical analysis defaults file.
const DefaultConfigPath = "config/analysis.defaults.json"

const maxFileSize = 1 * 1024 * 1024 // 1MB

// AnalysisConfig holds the tunable parameters of a door check run. Nil
// fields fall back to the built-in defaults returned by the Get* methods,
// so partial files are safe.
type AnalysisConfig struct {
	// Probing
	ProbeOffset    *float64 `json:"probe_offset,omitempty"`
	Tolerance      *float64 `json:"tolerance,omitempty"`
	DoorHeadOffset *float64 `json:"door_head_offset,omitempty"`

	// Flow input
	SentinelValue *float64 `json:"sentinel_value,omitempty"`
	SliceMargin   *float64 `json:"slice_margin,omitempty"`

	// Gradient and quiver
	GradientStride *int     `json:"gradient_stride,omitempty"`
	QuiverRadius   *float64 `json:"quiver_radius,omitempty"`
	QuiverLift     *float64 `json:"quiver_lift,omitempty"`

	// Output
	VisualizationTemplate *string `json:"visualization_template,omitempty"`
	RenderDPI             *int    `json:"render_dpi,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }
func ptrString(v string) *string    { return &v }

// DefaultAnalysisConfig returns a config with every field set to its default.
func DefaultAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{
		ProbeOffset:           ptrFloat64(0.2),
		Tolerance:             ptrFloat64(0.4),
		DoorHeadOffset:        ptrFloat64(1.0),
		SentinelValue:         ptrFloat64(1.0),
		SliceMargin:           ptrFloat64(1.0),
		GradientStride:        ptrInt(4),
		QuiverRadius:          ptrFloat64(1.0),
		QuiverLift:            ptrFloat64(0.05),
		VisualizationTemplate: ptrString("/run/%s/result/resource/gltf/%d.glb"),
		RenderDPI:             ptrInt(600),
	}
}

// LoadAnalysisConfig loads an AnalysisConfig from a JSON file. The file must
// have a .json extension and be at most 1MB.
func LoadAnalysisConfig(path string) (*AnalysisConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &AnalysisConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching upwards from the
// working directory. Panics if the file cannot be loaded; intended for tests.
func MustLoadDefaultConfig() *AnalysisConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadAnalysisConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

func positive(name string, v *float64) error {
	if v == nil {
		return nil
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) || *v <= 0 {
		return fmt.Errorf("%s must be a positive number, got %v", name, *v)
	}
	return nil
}

// Validate checks the values that are set.
func (c *AnalysisConfig) Validate() error {
	for _, f := range []struct {
		name string
		v    *float64
	}{
		{"probe_offset", c.ProbeOffset},
		{"tolerance", c.Tolerance},
		{"quiver_radius", c.QuiverRadius},
	} {
		if err := positive(f.name, f.v); err != nil {
			return err
		}
	}

	if c.SliceMargin != nil && (*c.SliceMargin < 0 || math.IsNaN(*c.SliceMargin)) {
		return fmt.Errorf("slice_margin must be non-negative, got %v", *c.SliceMargin)
	}
	if c.SentinelValue != nil && math.IsNaN(*c.SentinelValue) {
		return fmt.Errorf("sentinel_value must be a number")
	}
	if c.GradientStride != nil && *c.GradientStride < 1 {
		return fmt.Errorf("gradient_stride must be at least 1, got %d", *c.GradientStride)
	}
	if c.RenderDPI != nil && (*c.RenderDPI < 72 || *c.RenderDPI > 2400) {
		return fmt.Errorf("render_dpi must be between 72 and 2400, got %d", *c.RenderDPI)
	}
	if c.VisualizationTemplate != nil {
		tmpl := *c.VisualizationTemplate
		if strings.Count(tmpl, "%s") != 1 || strings.Count(tmpl, "%d") != 1 {
			return fmt.Errorf("visualization_template must contain one %%s and one %%d, got %q", tmpl)
		}
		if strings.Index(tmpl, "%s") > strings.Index(tmpl, "%d") {
			return fmt.Errorf("visualization_template must place %%s before %%d, got %q", tmpl)
		}
		if out := fmt.Sprintf(tmpl, "id", 0); strings.Contains(out, "%!") {
			return fmt.Errorf("visualization_template is not a valid format, got %q", tmpl)
		}
	}
	return nil
}

// GetProbeOffset returns the probe_offset value or the default.
func (c *AnalysisConfig) GetProbeOffset() float64 {
	if c.ProbeOffset == nil {
		return 0.2
	}
	return *c.ProbeOffset
}

// GetTolerance returns the tolerance value or the default.
func (c *AnalysisConfig) GetTolerance() float64 {
	if c.Tolerance == nil {
		return 0.4
	}
	return *c.Tolerance
}

// GetDoorHeadOffset returns the door_head_offset value or the default.
func (c *AnalysisConfig) GetDoorHeadOffset() float64 {
	if c.DoorHeadOffset == nil {
		return 1.0
	}
	return *c.DoorHeadOffset
}

// GetSentinelValue returns the sentinel_value value or the default.
func (c *AnalysisConfig) GetSentinelValue() float64 {
	if c.SentinelValue == nil {
		return 1.0
	}
	return *c.SentinelValue
}

// GetSliceMargin returns the slice_margin value or the default.
func (c *AnalysisConfig) GetSliceMargin() float64 {
	if c.SliceMargin == nil {
		return 1.0
	}
	return *c.SliceMargin
}

// GetGradientStride returns the gradient_stride value or the default.
func (c *AnalysisConfig) GetGradientStride() int {
	if c.GradientStride == nil {
		return 4
	}
	return *c.GradientStride
}

// GetQuiverRadius returns the quiver_radius value or the default.
func (c *AnalysisConfig) GetQuiverRadius() float64 {
	if c.QuiverRadius == nil {
		return 1.0
	}
	return *c.QuiverRadius
}

// GetQuiverLift returns the quiver_lift value or the default.
func (c *AnalysisConfig) GetQuiverLift() float64 {
	if c.QuiverLift == nil {
		return 0.05
	}
	return *c.QuiverLift
}

// GetVisualizationTemplate returns the visualization_template value or the default.
func (c *AnalysisConfig) GetVisualizationTemplate() string {
	if c.VisualizationTemplate == nil || *c.VisualizationTemplate == "" {
		return "/run/%s/result/resource/gltf/%d.glb"
	}
	return *c.VisualizationTemplate
}

// GetRenderDPI returns the render_dpi value or the default.
func (c *AnalysisConfig) GetRenderDPI() int {
	if c.RenderDPI == nil {
		return 600
	}
	return *c.RenderDPI
}

// Options converts the config into orchestrator options.
func (c *AnalysisConfig) Options() analysis.Options {
	return analysis.Options{
		ProbeOffset:    c.GetProbeOffset(),
		Tolerance:      c.GetTolerance(),
		DoorHeadOffset: c.GetDoorHeadOffset(),
		SliceMargin:    c.GetSliceMargin(),
		GradientStride: c.GetGradientStride(),
		QuiverRadius:   c.GetQuiverRadius(),
		QuiverLift:     c.GetQuiverLift(),
	}
}
