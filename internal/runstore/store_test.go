package runstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/doorflow/internal/analysis"
	"github.com/banshee-data/doorflow/internal/timeutil"
	"github.com/banshee-data/doorflow/internal/validate"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func intp(v int) *int { return &v }

func TestOpen_AppliesMigrations(t *testing.T) {
	s := setupStore(t)
	version, dirty, err := s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	// Re-applying is a no-op.
	require.NoError(t, s.MigrateUp())
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}

func TestMigrateDown(t *testing.T) {
	s := setupStore(t)
	require.NoError(t, s.MigrateDown())
	version, _, err := s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)

	err = s.Insert(context.Background(), &Run{ModelID: "m"})
	assert.Error(t, err, "runs table dropped")
}

func TestInsertAndGet(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	run := &Run{ModelID: "house", Spacing: 0.25, SampleCount: 289, BandCount: 2, ElementCount: 3, Version: "v1"}
	require.NoError(t, s.Insert(ctx, run))
	_, err := uuid.Parse(run.RunID)
	require.NoError(t, err, "generated run id should be a UUID")
	assert.NotZero(t, run.CreatedAt)

	got, err := s.Get(ctx, run.RunID)
	require.NoError(t, err)
	if diff := cmp.Diff(run, got); diff != "" {
		t.Errorf("Get mismatch (-want +got):\n%s", diff)
	}

	_, err = s.Get(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	err = s.Insert(ctx, &Run{RunID: run.RunID, ModelID: "again", CreatedAt: 1})
	assert.Error(t, err, "duplicate run id")
}

func TestInsert_UsesClock(t *testing.T) {
	s := setupStore(t)
	at := time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC)
	s.SetClock(timeutil.NewMockClock(at))

	run := &Run{ModelID: "m"}
	require.NoError(t, s.Insert(context.Background(), run))
	assert.Equal(t, at.UnixNano(), run.CreatedAt)
}

func TestListRuns(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	for i, id := range []string{"a", "b", "c"} {
		model := "m"
		if id == "b" {
			model = "other"
		}
		require.NoError(t, s.Insert(ctx, &Run{RunID: id, ModelID: model, CreatedAt: int64(i + 1)}))
	}

	runs, err := s.ListRuns(ctx, "m")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].RunID)
	assert.Equal(t, "a", runs[1].RunID)
}

func TestInsertAndListResults(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	run := &Run{ModelID: "house"}
	require.NoError(t, s.Insert(ctx, run))

	diags := []analysis.Diagnostic{{Kind: analysis.KindUnassigned, Band: -1, Message: "probe height 9 is outside every band"}}
	results := []analysis.ValidationResult{
		{ElementID: "z", Validity: validate.Valid, Status: validate.StatusNotice, Visualization: intp(0)},
		{ElementID: "a", Validity: validate.Unknown, Status: validate.StatusUnknown, Diagnostics: diags},
		{ElementID: "m", Validity: validate.Invalid, Status: validate.StatusError, Visualization: intp(1)},
	}
	require.NoError(t, s.InsertResults(ctx, run.RunID, results))

	got, err := s.ListResults(ctx, run.RunID)
	require.NoError(t, err)
	want := []ElementResult{
		{RunID: run.RunID, GUID: "z", Status: "NOTICE", VisualizationIndex: intp(0)},
		{RunID: run.RunID, GUID: "a", Status: "UNKNOWN", Diagnostics: diags},
		{RunID: run.RunID, GUID: "m", Status: "ERROR", VisualizationIndex: intp(1)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ListResults mismatch (-want +got):\n%s", diff)
	}
}

func TestInsertResults_Atomic(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	run := &Run{ModelID: "house"}
	require.NoError(t, s.Insert(ctx, run))

	results := []analysis.ValidationResult{
		{ElementID: "ok", Status: validate.StatusNotice},
		{ElementID: "bad", Status: validate.Status("MAYBE")},
	}
	assert.Error(t, s.InsertResults(ctx, run.RunID, results))

	got, err := s.ListResults(ctx, run.RunID)
	require.NoError(t, err)
	assert.Empty(t, got, "failed batch must leave no rows")
}

func TestInsertResults_UnknownRun(t *testing.T) {
	s := setupStore(t)
	err := s.InsertResults(context.Background(), "nope", []analysis.ValidationResult{{ElementID: "x", Status: validate.StatusUnknown}})
	assert.Error(t, err, "foreign key should reject results of a missing run")
}

func TestIsSQLiteBusy(t *testing.T) {
	assert.False(t, isSQLiteBusy(nil))
	assert.False(t, isSQLiteBusy(errors.New("database is locked")))
}

func TestRetryOnBusy(t *testing.T) {
	calls := 0
	err := retryOnBusy(context.Background(), func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	sentinel := errors.New("boom")
	calls = 0
	err = retryOnBusy(context.Background(), func() error {
		calls++
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls, "non-busy errors are not retried")
}
