package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapmodel/internal/testutil"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(testutil.NewTestLogger(t))
	require.NoError(t, store.Open(MemoryPath), "failed to open store")
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_OpenClose(t *testing.T) {
	store := NewSQLiteStore(nil)
	require.NoError(t, store.Open(MemoryPath))

	version, err := store.MigrationVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	require.NoError(t, store.Close())
}

func TestSQLiteStore_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	ctx := context.Background()

	store := NewSQLiteStore(nil)
	require.NoError(t, store.Open(path))
	run, err := store.CreateRun(ctx, "model.yaml")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened := NewSQLiteStore(nil)
	require.NoError(t, reopened.Open(path), "migrations must be idempotent")
	defer reopened.Close()

	got, err := reopened.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "model.yaml", got.Inputs)
	assert.Equal(t, path, reopened.Path())
}

func TestSQLiteStore_NotOpened(t *testing.T) {
	store := NewSQLiteStore(nil)
	ctx := context.Background()

	_, err := store.CreateRun(ctx, "")
	assert.ErrorIs(t, err, errNotOpen)
	assert.ErrorIs(t, store.CompleteRun(ctx, "x", RunResult{}), errNotOpen)
	_, err = store.ListRuns(ctx, 1)
	assert.ErrorIs(t, err, errNotOpen)
	assert.ErrorIs(t, store.SaveDump(ctx, "x", nil), errNotOpen)
	_, err = store.GetDump(ctx, "x")
	assert.ErrorIs(t, err, errNotOpen)
	assert.NoError(t, store.Close())
}

func TestSQLiteStore_RunLifecycle(t *testing.T) {
	tests := []struct {
		name   string
		result RunResult
	}{
		{
			name:   "succeeded",
			result: RunResult{Status: RunStatusSucceeded, Passes: 3, EntityCount: 12},
		},
		{
			name:   "failed",
			result: RunResult{Status: RunStatusFailed, Passes: 11, EntityCount: 2, Error: "max resolve passes reached"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := setupTestStore(t)
			ctx := context.Background()

			run, err := store.CreateRun(ctx, "a.csv,b.yaml")
			require.NoError(t, err)
			assert.NotEmpty(t, run.ID)
			assert.Equal(t, RunStatusRunning, run.Status)
			assert.Zero(t, run.Duration())

			got, err := store.GetRun(ctx, run.ID)
			require.NoError(t, err)
			assert.Equal(t, run.StartedAt, got.StartedAt)
			assert.Nil(t, got.FinishedAt)

			require.NoError(t, store.CompleteRun(ctx, run.ID, tt.result))

			got, err = store.GetRun(ctx, run.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.result.Status, got.Status)
			assert.Equal(t, tt.result.Passes, got.Passes)
			assert.Equal(t, tt.result.EntityCount, got.EntityCount)
			assert.Equal(t, tt.result.Error, got.Error)
			assert.Equal(t, "a.csv,b.yaml", got.Inputs)
			require.NotNil(t, got.FinishedAt)
			assert.GreaterOrEqual(t, got.Duration(), time.Duration(0))
			assert.False(t, got.HasDump)
		})
	}
}

func TestSQLiteStore_UnknownRun(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	err = store.CompleteRun(ctx, "missing", RunResult{Status: RunStatusSucceeded})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_ListRuns(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	var ids []string
	for range 5 {
		run, err := store.CreateRun(ctx, "")
		require.NoError(t, err)
		ids = append(ids, run.ID)
	}

	runs, err := store.ListRuns(ctx, 3)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, ids[4], runs[0].ID, "newest first")
	assert.Equal(t, ids[2], runs[2].ID)
}

func TestSQLiteStore_Dumps(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	run, err := store.CreateRun(ctx, "")
	require.NoError(t, err)

	_, err = store.GetDump(ctx, run.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.SaveDump(ctx, run.ID, []byte(`{"pass":1}`)))
	require.NoError(t, store.SaveDump(ctx, run.ID, []byte(`{"pass":2}`)))

	dump, err := store.GetDump(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, dump.RunID)
	assert.JSONEq(t, `{"pass":2}`, string(dump.Content))
	assert.False(t, dump.CreatedAt.IsZero())

	got, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.True(t, got.HasDump)

	assert.Error(t, store.SaveDump(ctx, "missing", []byte("{}")), "dump requires an existing run")
}

func TestSQLiteStore_PruneRuns(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	var ids []string
	for range 4 {
		run, err := store.CreateRun(ctx, "")
		require.NoError(t, err)
		require.NoError(t, store.SaveDump(ctx, run.ID, []byte("{}")))
		ids = append(ids, run.ID)
	}

	deleted, err := store.PruneRuns(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	runs, err := store.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[3], runs[0].ID)

	_, err = store.GetDump(ctx, ids[0])
	assert.ErrorIs(t, err, ErrNotFound, "dumps are deleted with their run")
}
