package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/finstat-harvester/internal/config"
	"github.com/sells-group/finstat-harvester/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLite_RunLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestSQLite(t)

	run, err := s.CreateRun(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusRunning, run.Status)

	summary := &model.HarvestSummary{
		EntitiesProcessed: 3,
		EntitiesSkipped:   1,
		StatementsOK:      12,
		CacheHits:         8,
		RemoteFetches:     4,
		RowsWritten:       12,
	}
	require.NoError(t, s.CompleteRun(ctx, run.ID, model.RunStatusComplete, summary))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	require.NotNil(t, got.Summary)
	assert.Equal(t, 12, got.Summary.StatementsOK)
	assert.Equal(t, 8, got.Summary.CacheHits)
}

func TestSQLite_CompleteRun_NotFound(t *testing.T) {
	t.Parallel()
	s := newTestSQLite(t)

	err := s.CompleteRun(context.Background(), "missing-id", model.RunStatusComplete, &model.HarvestSummary{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLite_ListRuns(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestSQLite(t)

	r1, err := s.CreateRun(ctx)
	require.NoError(t, err)
	_, err = s.CreateRun(ctx)
	require.NoError(t, err)
	require.NoError(t, s.CompleteRun(ctx, r1.ID, model.RunStatusComplete, &model.HarvestSummary{RowsWritten: 5}))

	all, err := s.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	complete, err := s.ListRuns(ctx, RunFilter{Status: model.RunStatusComplete})
	require.NoError(t, err)
	require.Len(t, complete, 1)
	assert.Equal(t, r1.ID, complete[0].ID)
	require.NotNil(t, complete[0].Summary)
	assert.Equal(t, 5, complete[0].Summary.RowsWritten)

	limited, err := s.ListRuns(ctx, RunFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestOpen_UnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), config.StoreConfig{Driver: "mysql"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}
