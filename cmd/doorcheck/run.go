package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/banshee-data/doorflow/internal/analysis"
	"github.com/banshee-data/doorflow/internal/config"
	"github.com/banshee-data/doorflow/internal/elevation"
	"github.com/banshee-data/doorflow/internal/flowfield"
	"github.com/banshee-data/doorflow/internal/fsutil"
	"github.com/banshee-data/doorflow/internal/mesh"
	"github.com/banshee-data/doorflow/internal/model"
	"github.com/banshee-data/doorflow/internal/render"
	"github.com/banshee-data/doorflow/internal/report"
	"github.com/banshee-data/doorflow/internal/runstore"
	"github.com/banshee-data/doorflow/internal/validate"
	"github.com/banshee-data/doorflow/internal/version"
)

type runOptions struct {
	FS        fsutil.FileSystem
	ModelPath string
	FlowPath  string
	OutDir    string
	ReportID  string // defaults to the model id
	DBPath    string // empty disables persistence
	Figures   bool
	HTML      bool
	Config    *config.AnalysisConfig
}

type runSummary struct {
	ReportPath string
	Meshes     []string
	Figures    []string
	Counts     map[validate.Status]int
	RunID      string
}

// run executes the whole check. Figure failures are logged and do not fail
// the run; the report is only written once validation is complete.
func run(ctx context.Context, o runOptions) (*runSummary, error) {
	cfg := o.Config
	if cfg == nil {
		cfg = config.DefaultAnalysisConfig()
	}

	m, err := model.Load(o.FS, o.ModelPath)
	if err != nil {
		return nil, err
	}
	id := o.ReportID
	if id == "" {
		id = m.ID
	}

	samples, err := readFlow(o.FS, o.FlowPath, cfg.GetSentinelValue())
	if err != nil {
		return nil, err
	}
	field, err := flowfield.New(samples)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", o.FlowPath, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir := fsutil.Dir{FS: o.FS, Root: o.OutDir}
	summary := &runSummary{}
	bands := elevation.Bands(m.Elevations())
	opts := cfg.Options()
	if o.Figures || o.HTML {
		opts.OnBand = func(br analysis.BandReport) {
			if ctx.Err() != nil {
				return
			}
			scene := render.NewScene(br, field.Spacing(), m.Doors, m.Walls, opts.DoorHeadOffset)
			if o.Figures {
				paths, err := render.WriteBand(dir, scene, cfg.GetRenderDPI())
				if err != nil {
					log.Printf("band %d figures: %v", br.Index, err)
				}
				summary.Figures = append(summary.Figures, paths...)
			}
			if o.HTML {
				path, err := render.WriteBandHTML(dir, scene)
				if err != nil {
					log.Printf("band %d html: %v", br.Index, err)
					return
				}
				summary.Figures = append(summary.Figures, path)
			}
		}
	}

	res := analysis.Run(m.Doors, field, bands, opts)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	results := analysis.Build(m.Doors, res)
	summary.Counts = analysis.Summary(results)

	if summary.Meshes, err = writeMeshes(dir, id, results, res); err != nil {
		return nil, err
	}
	rep := report.New(id, results, cfg.GetVisualizationTemplate())
	if summary.ReportPath, err = report.Write(dir, rep); err != nil {
		return nil, err
	}

	if o.DBPath != "" {
		if summary.RunID, err = record(ctx, o.DBPath, m, field, bands, results); err != nil {
			return nil, err
		}
	}
	return summary, nil
}

func readFlow(fsys fsutil.FileSystem, path string, sentinel float64) ([]flowfield.Sample, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open flow field: %w", err)
	}
	defer f.Close()
	samples, err := flowfield.ReadCSV(f, sentinel)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return samples, nil
}

// writeMeshes writes the material library and one quiver mesh per
// visualization index.
func writeMeshes(dir fsutil.Dir, id string, results []analysis.ValidationResult, res *analysis.Result) ([]string, error) {
	if err := mesh.WriteMaterials(dir); err != nil {
		return nil, fmt.Errorf("failed to write materials: %w", err)
	}
	var paths []string
	seen := make(map[int]bool)
	for _, r := range results {
		if r.Visualization == nil || seen[*r.Visualization] {
			continue
		}
		seen[*r.Visualization] = true
		path, err := mesh.WriteElement(dir, id, res.Outcome(r.ElementID), res.Spacing)
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func record(ctx context.Context, path string, m *model.Model, field *flowfield.Field, bands []elevation.Band, results []analysis.ValidationResult) (id string, err error) {
	store, err := runstore.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { err = errors.Join(err, store.Close()) }()

	r := &runstore.Run{
		ModelID:      m.ID,
		Spacing:      field.Spacing(),
		SampleCount:  field.Len(),
		BandCount:    len(bands),
		ElementCount: len(results),
		Version:      version.Version,
	}
	if err := store.Insert(ctx, r); err != nil {
		return "", err
	}
	if err := store.InsertResults(ctx, r.RunID, results); err != nil {
		return "", err
	}
	return r.RunID, nil
}
