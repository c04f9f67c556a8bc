package iocache

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/ipaudit/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryStore_NoneBackend(t *testing.T) {
	store, err := NewHistoryStore(schema.NoneBackend, "")
	require.NoError(t, err)

	runID, err := store.BeginRun(time.Now(), "/repo", map[string]any{"workers": 2})
	assert.NoError(t, err)
	assert.Equal(t, int64(0), runID)

	assert.NoError(t, store.RecordFile(1, schema.FileHistoryRecord{FilePath: "a.go"}))
	assert.NoError(t, store.EndRun(1, schema.RunSummary{EndTime: time.Now()}))

	runs, err := store.GetAllRuns()
	assert.NoError(t, err)
	assert.Empty(t, runs)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)

	assert.NoError(t, store.Close())
}

func TestHistoryStore_SQLite(t *testing.T) {
	store, err := NewHistoryStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	start := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	runID, err := store.BeginRun(start, "/src/acme", map[string]any{"workers": 4, "format": "json"})
	require.NoError(t, err)
	assert.Greater(t, runID, int64(0))

	author := "alice"
	records := []schema.FileHistoryRecord{
		{FilePath: "src/b.go", RecordedAt: start, Origin: "foreground", License: "none", PrimaryAuthor: &author,
			LOC: 80, Complexity: 0.16, Coupling: 0.2, TestCoverage: 0.9, Score: 0.84, Rewriteable: true},
		{FilePath: "src/a.go", RecordedAt: start, Origin: "third_party", License: "MIT", LOC: 300},
	}
	for _, r := range records {
		require.NoError(t, store.RecordFile(runID, r))
	}

	end := start.Add(1500 * time.Millisecond)
	require.NoError(t, store.EndRun(runID, schema.RunSummary{
		EndTime:    end,
		TotalFiles: 2,
		Cost:       schema.CostRecord{ForegroundLOC: 80, EstimatedCost: 1440, Currency: "USD"},
	}))

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	run := runs[0]
	assert.Equal(t, runID, run.RunID)
	assert.Equal(t, "/src/acme", run.RepoPath)
	assert.True(t, start.Equal(run.StartTime))
	require.NotNil(t, run.EndTime)
	assert.True(t, end.Equal(*run.EndTime))
	require.NotNil(t, run.RunDurationMs)
	assert.Equal(t, int32(1500), *run.RunDurationMs)
	require.NotNil(t, run.TotalFiles)
	assert.Equal(t, int32(2), *run.TotalFiles)
	require.NotNil(t, run.EstimatedCost)
	assert.InDelta(t, 1440.0, *run.EstimatedCost, 0.001)
	require.NotNil(t, run.ConfigParams)
	var params map[string]any
	require.NoError(t, json.Unmarshal([]byte(*run.ConfigParams), &params))
	assert.Equal(t, "json", params["format"])

	files, err := store.GetAllFileRecords()
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "src/a.go", files[0].FilePath, "ordered by path")
	assert.Nil(t, files[0].PrimaryAuthor)
	assert.False(t, files[0].Rewriteable)
	assert.Equal(t, "src/b.go", files[1].FilePath)
	require.NotNil(t, files[1].PrimaryAuthor)
	assert.Equal(t, "alice", *files[1].PrimaryAuthor)
	assert.True(t, files[1].Rewriteable)
	assert.InDelta(t, 0.84, files[1].Score, 0.0001)
	assert.True(t, start.Equal(files[1].RecordedAt))
}

func TestHistoryStore_Status(t *testing.T) {
	store, err := NewHistoryStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 0, status.TotalRuns)
	assert.Equal(t, int64(0), status.TableSizes[auditRunsTable])

	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range 3 {
		start := first.Add(time.Duration(i) * time.Hour)
		id, err := store.BeginRun(start, "/repo", nil)
		require.NoError(t, err)
		require.NoError(t, store.RecordFile(id, schema.FileHistoryRecord{FilePath: "x.go", RecordedAt: start, Origin: "foreground", License: "none"}))
		require.NoError(t, store.EndRun(id, schema.RunSummary{EndTime: start.Add(time.Minute), TotalFiles: 1}))
	}

	status, err = store.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, 3, status.TotalRuns)
	assert.Equal(t, int64(3), status.LastRunID)
	assert.True(t, first.Add(2*time.Hour).Equal(status.LastRunTime))
	assert.True(t, first.Equal(status.OldestRunTime))
	assert.Equal(t, 3, status.TotalFilesRecorded)
	assert.Equal(t, int64(3), status.TableSizes[fileRecordsTable])
}

func TestHistoryStore_DuplicateFile(t *testing.T) {
	store, err := NewHistoryStore(schema.SQLiteBackend, filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	id, err := store.BeginRun(time.Now(), "/repo", nil)
	require.NoError(t, err)
	rec := schema.FileHistoryRecord{FilePath: "dup.go", RecordedAt: time.Now(), Origin: "foreground", License: "none"}
	require.NoError(t, store.RecordFile(id, rec))
	assert.Error(t, store.RecordFile(id, rec), "primary key is (run_id, file_path)")
}

func TestHistoryStore_EndUnknownRun(t *testing.T) {
	store, err := NewHistoryStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	assert.Error(t, store.EndRun(99, schema.RunSummary{EndTime: time.Now()}))
}
