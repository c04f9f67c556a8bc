package schema

import "time"

// CacheStatus represents the status of the cache store.
type CacheStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalEntries    int       `json:"total_entries"`
	LastEntryTime   time.Time `json:"last_entry_time"`
	OldestEntryTime time.Time `json:"oldest_entry_time"`
	TableSizeBytes  int64     `json:"table_size_bytes"`
}

// HistoryStatus represents the status of the audit history store.
type HistoryStatus struct {
	Backend            string           `json:"backend"`
	Connected          bool             `json:"connected"`
	TotalRuns          int              `json:"total_runs"`
	LastRunID          int64            `json:"last_run_id"`
	LastRunTime        time.Time        `json:"last_run_time"`
	OldestRunTime      time.Time        `json:"oldest_run_time"`
	TotalFilesRecorded int              `json:"total_files_recorded"`
	TableSizes         map[string]int64 `json:"table_sizes"`
}

// AuditRunRecord represents a row from the ipaudit_audit_runs table.
type AuditRunRecord struct {
	RunID         int64
	RepoPath      string
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int32
	TotalFiles    *int32
	ForegroundLOC *int32
	EstimatedCost *float64
	Currency      *string
	ConfigParams  *string
}

// FileHistoryRecord represents a row from the ipaudit_file_records table.
type FileHistoryRecord struct {
	RunID         int64
	FilePath      string
	RecordedAt    time.Time
	Origin        string
	License       string
	PrimaryAuthor *string
	LOC           int32
	Complexity    float64
	Coupling      float64
	TestCoverage  float64
	Score         float64
	Rewriteable   bool
}

// RunSummary is what gets stored when an audit run completes.
type RunSummary struct {
	EndTime    time.Time
	TotalFiles int
	Cost       CostRecord
}
