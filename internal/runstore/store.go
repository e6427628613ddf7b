// Package runstore persists door check runs and their per-element results in
// SQLite.
package runstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/banshee-data/doorflow/internal/analysis"
	"github.com/banshee-data/doorflow/internal/monitoring"
	"github.com/banshee-data/doorflow/internal/timeutil"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

var logf = monitoring.Prefixed("runstore")

// Run is one persisted door check.
type Run struct {
	RunID        string  `json:"run_id"`
	ModelID      string  `json:"model_id"`
	Spacing      float64 `json:"spacing"`
	SampleCount  int     `json:"sample_count"`
	BandCount    int     `json:"band_count"`
	ElementCount int     `json:"element_count"`
	Version      string  `json:"version"`
	CreatedAt    int64   `json:"created_at"` // unix nanoseconds
}

// ElementResult is one persisted element line of a run.
type ElementResult struct {
	RunID              string                `json:"run_id"`
	GUID               string                `json:"guid"`
	Status             string                `json:"status"`
	VisualizationIndex *int                  `json:"visualization_index,omitempty"`
	Diagnostics        []analysis.Diagnostic `json:"diagnostics,omitempty"`
}

// Store wraps the SQLite handle.
type Store struct {
	db    *sql.DB
	clock timeutil.Clock
}

// Open opens the database at path and applies migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single connection keeps the pragmas in force for every statement.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	s := &Store{db: db, clock: timeutil.RealClock{}}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// SetClock replaces the clock used to stamp new runs.
func (s *Store) SetClock(c timeutil.Clock) { s.clock = c }

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Insert persists run. An empty RunID is replaced with a new UUID and a zero
// CreatedAt with the current time.
func (s *Store) Insert(ctx context.Context, run *Run) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = s.clock.Now().UnixNano()
	}
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO runs (
				run_id, model_id, spacing, sample_count, band_count,
				element_count, version, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, run.ModelID, run.Spacing, run.SampleCount, run.BandCount,
			run.ElementCount, run.Version, run.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
		return nil
	})
}

// InsertResults stores the element results of runID in one transaction, in
// the given order.
func (s *Store) InsertResults(ctx context.Context, runID string, results []analysis.ValidationResult) error {
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin results tx: %w", err)
		}
		defer tx.Rollback()

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO element_results (
				run_id, position, guid, status, visualization_index, diagnostics_json
			) VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare results insert: %w", err)
		}
		defer stmt.Close()

		for i, r := range results {
			var vis, diag interface{}
			if r.Visualization != nil {
				vis = *r.Visualization
			}
			if len(r.Diagnostics) > 0 {
				data, err := json.Marshal(r.Diagnostics)
				if err != nil {
					return fmt.Errorf("encode diagnostics for %s: %w", r.ElementID, err)
				}
				diag = string(data)
			}
			if _, err := stmt.ExecContext(ctx, runID, i, r.ElementID, string(r.Status), vis, diag); err != nil {
				return fmt.Errorf("insert result %s: %w", r.ElementID, err)
			}
		}
		return tx.Commit()
	})
}

// Get returns the run with runID, or ErrNotFound.
func (s *Store) Get(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT run_id, model_id, spacing, sample_count, band_count,
		       element_count, version, created_at
		FROM runs
		WHERE run_id = ?`, runID)

	var r Run
	err := row.Scan(&r.RunID, &r.ModelID, &r.Spacing, &r.SampleCount, &r.BandCount,
		&r.ElementCount, &r.Version, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	return &r, nil
}

// ListRuns returns the runs of modelID, newest first.
func (s *Store) ListRuns(ctx context.Context, modelID string) ([]*Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, model_id, spacing, sample_count, band_count,
		       element_count, version, created_at
		FROM runs
		WHERE model_id = ?
		ORDER BY created_at DESC`, modelID)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.RunID, &r.ModelID, &r.Spacing, &r.SampleCount, &r.BandCount,
			&r.ElementCount, &r.Version, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		runs = append(runs, &r)
	}
	return runs, rows.Err()
}

// ListResults returns the element results of runID in insertion order.
func (s *Store) ListResults(ctx context.Context, runID string) ([]ElementResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, guid, status, visualization_index, diagnostics_json
		FROM element_results
		WHERE run_id = ?
		ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var out []ElementResult
	for rows.Next() {
		var (
			r    ElementResult
			vis  sql.NullInt64
			diag sql.NullString
		)
		if err := rows.Scan(&r.RunID, &r.GUID, &r.Status, &vis, &diag); err != nil {
			return nil, fmt.Errorf("scan result row: %w", err)
		}
		if vis.Valid {
			idx := int(vis.Int64)
			r.VisualizationIndex = &idx
		}
		if diag.Valid {
			if err := json.Unmarshal([]byte(diag.String), &r.Diagnostics); err != nil {
				return nil, fmt.Errorf("decode diagnostics for %s: %w", r.GUID, err)
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const (
	maxBusyRetries = 5
	busyBackoff    = 20 * time.Millisecond
)

func isSQLiteBusy(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED
}

// retryOnBusy runs fn until it succeeds, fails with a non-busy error, or the
// retry budget is spent. The backoff doubles after each busy attempt.
func retryOnBusy(ctx context.Context, fn func() error) error {
	wait := busyBackoff
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil || !isSQLiteBusy(err) || attempt >= maxBusyRetries {
			return err
		}
		logf("database busy, retrying (attempt %d): %v", attempt+1, err)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		wait *= 2
	}
}
