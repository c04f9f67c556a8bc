package iocache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/ipaudit/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportHistory(t *testing.T) {
	store, err := NewHistoryStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	now := time.Now()
	id, err := store.BeginRun(now, "/repo", map[string]any{"workers": 1})
	require.NoError(t, err)
	require.NoError(t, store.RecordFile(id, schema.FileHistoryRecord{FilePath: "a.go", RecordedAt: now, Origin: "foreground", License: "none", LOC: 10}))
	require.NoError(t, store.EndRun(id, schema.RunSummary{EndTime: now.Add(time.Second), TotalFiles: 1}))

	prefix := filepath.Join(t.TempDir(), "history")
	require.NoError(t, ExportHistory(store, prefix))

	for _, suffix := range []string{".audit_runs.parquet", ".file_records.parquet"} {
		info, err := os.Stat(prefix + suffix)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}
}

func TestExportHistory_Errors(t *testing.T) {
	t.Run("missing output file", func(t *testing.T) {
		err := ExportHistory(&MockHistoryStore{}, "")
		assert.ErrorContains(t, err, "--output-file")
	})

	t.Run("empty history", func(t *testing.T) {
		store, err := NewHistoryStore(schema.SQLiteBackend, ":memory:")
		require.NoError(t, err)
		defer func() { _ = store.Close() }()

		err = ExportHistory(store, filepath.Join(t.TempDir(), "out"))
		assert.ErrorContains(t, err, "no audit history")
	})

	t.Run("status failure", func(t *testing.T) {
		mockStore := &MockHistoryStore{}
		mockStore.On("GetStatus").Return(schema.HistoryStatus{}, errors.New("boom"))

		err := ExportHistory(mockStore, "out")
		assert.ErrorContains(t, err, "boom")
		mockStore.AssertExpectations(t)
	})

	t.Run("uninitialized global store", func(t *testing.T) {
		resetManager(t)
		assert.Error(t, ExecuteHistoryExport("out"))
	})
}
