// Command doorcheck validates the orientation of every door in a building
// model against a measured flow field and writes the report, quiver meshes
// and per-band figures.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/doorflow/internal/config"
	"github.com/banshee-data/doorflow/internal/fsutil"
	"github.com/banshee-data/doorflow/internal/validate"
	"github.com/banshee-data/doorflow/internal/version"
)

func main() {
	modelPath := flag.String("model", "", "Building model JSON extract (required)")
	flowPath := flag.String("flow", "", "Flow field CSV with x,y,z,value rows (required)")
	outDir := flag.String("out", ".", "Directory for the report, meshes and figures")
	configPath := flag.String("config", "", "Analysis config JSON (defaults to "+config.DefaultConfigPath+" when present)")
	reportID := flag.String("id", "", "Report id (defaults to the model id)")
	dbPath := flag.String("db", "", "SQLite database to record the run in (optional)")
	noFigures := flag.Bool("no-figures", false, "Skip the per-band PNG figures")
	html := flag.Bool("html", false, "Also write interactive per-band HTML figures")
	dpi := flag.Int("dpi", 0, "Override the figure resolution from the config")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if *modelPath == "" || *flowPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *dpi > 0 {
		cfg.RenderDPI = dpi
		if err := cfg.Validate(); err != nil {
			log.Fatalf("Invalid -dpi: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary, err := run(ctx, runOptions{
		FS:        fsutil.OSFileSystem{},
		ModelPath: *modelPath,
		FlowPath:  *flowPath,
		OutDir:    *outDir,
		ReportID:  *reportID,
		DBPath:    *dbPath,
		Figures:   !*noFigures,
		HTML:      *html,
		Config:    cfg,
	})
	if err != nil {
		log.Fatalf("doorcheck failed: %v", err)
	}
	log.Printf("wrote %s: %d notice, %d error, %d unknown", summary.ReportPath,
		summary.Counts[validate.StatusNotice], summary.Counts[validate.StatusError], summary.Counts[validate.StatusUnknown])
	if summary.RunID != "" {
		log.Printf("recorded run %s in %s", summary.RunID, *dbPath)
	}
}

// loadConfig loads path, or the default file when path is empty and the
// default exists, or the built-in defaults otherwise.
func loadConfig(path string) (*config.AnalysisConfig, error) {
	if path != "" {
		return config.LoadAnalysisConfig(path)
	}
	if _, err := os.Stat(config.DefaultConfigPath); err == nil {
		return config.LoadAnalysisConfig(config.DefaultConfigPath)
	}
	return config.DefaultAnalysisConfig(), nil
}
