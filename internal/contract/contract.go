// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/ipaudit/schema"
)

// GitClient defines the git operations the audit relies on.
// This allows the core logic to be tested without needing a real git executable.
type GitClient interface {
	// Run executes a git command and returns the combined output.
	// Its use should be minimized in favor of the explicit methods below.
	Run(ctx context.Context, repoPath string, args ...string) ([]byte, error)

	// GetRepoHash returns the current HEAD commit hash of the repository.
	GetRepoHash(ctx context.Context, repoPath string) (string, error)

	// GetRepoRoot returns the absolute path to the root of the Git repository
	// containing the given context path.
	GetRepoRoot(ctx context.Context, contextPath string) (string, error)

	// GetActivityLog returns the raw numstat commit log used for churn aggregation.
	GetActivityLog(ctx context.Context, repoPath string) ([]byte, error)

	// ListTrackedFiles returns every file tracked in the working tree.
	ListTrackedFiles(ctx context.Context, repoPath string) ([]string, error)
}

// StoreManager defines the interface for managing persistent stores.
// This allows the storage layer to be mocked for testing.
type StoreManager interface {
	GetChurnStore() CacheStore
	GetHistoryStore() HistoryStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// HistoryStore defines the interface for tracking audit runs and their per-file records.
type HistoryStore interface {
	// BeginRun creates a new audit run and returns its unique ID
	BeginRun(startTime time.Time, repoPath string, configParams map[string]any) (int64, error)

	// RecordFile stores the classification and score of one file
	RecordFile(runID int64, record schema.FileHistoryRecord) error

	// EndRun updates the audit run with completion data
	EndRun(runID int64, summary schema.RunSummary) error

	// GetStatus returns status information about the history store
	GetStatus() (schema.HistoryStatus, error)

	// GetAllRuns retrieves every recorded audit run
	GetAllRuns() ([]schema.AuditRunRecord, error)

	// GetAllFileRecords retrieves every recorded file row
	GetAllFileRecords() ([]schema.FileHistoryRecord, error)

	// Close closes the underlying connection
	Close() error
}

// CouplingEstimator estimates how entangled a file is with the rest of the codebase.
// The boolean is false when the file's language is not supported.
type CouplingEstimator interface {
	Estimate(path string, content []byte) (float64, bool)
}

// CoverageProvider reports the test coverage ratio of a file.
// The boolean is false when no coverage is known.
type CoverageProvider interface {
	Coverage(path string) (float64, bool)
}

// RepoInspector reads version-control facts about a directory.
// The boolean is false when the directory is not inside a repository.
type RepoInspector interface {
	Inspect(path string) (schema.GitInfo, bool)
}
