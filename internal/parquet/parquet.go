// Package parquet exports audit history to Parquet files using
// github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/ipaudit/schema"
	"github.com/parquet-go/parquet-go"
)

// AuditRun maps to the ipaudit_audit_runs table.
type AuditRun struct {
	RunID         int64      `parquet:"run_id,snappy"`
	RepoPath      string     `parquet:"repo_path,snappy"`
	StartTime     time.Time  `parquet:"start_time,snappy"`
	EndTime       *time.Time `parquet:"end_time,optional,snappy"`
	RunDurationMs *int32     `parquet:"run_duration_ms,optional,snappy"`
	TotalFiles    *int32     `parquet:"total_files,optional,snappy"`
	ForegroundLOC *int32     `parquet:"foreground_loc,optional,snappy"`
	EstimatedCost *float64   `parquet:"estimated_cost,optional,snappy"`
	Currency      *string    `parquet:"currency,optional,snappy"`

	// ConfigParams contains the JSON-encoded configuration of the run
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// FileRecord maps to the ipaudit_file_records table.
type FileRecord struct {
	RunID         int64     `parquet:"run_id,snappy"`
	FilePath      string    `parquet:"file_path,snappy"`
	RecordedAt    time.Time `parquet:"recorded_at,snappy"`
	Origin        string    `parquet:"origin,dict,snappy"`
	License       string    `parquet:"license,dict,snappy"`
	PrimaryAuthor *string   `parquet:"primary_author,optional,snappy"`
	LOC           int32     `parquet:"loc,snappy"`
	Complexity    float64   `parquet:"complexity,snappy"`
	Coupling      float64   `parquet:"coupling,snappy"`
	TestCoverage  float64   `parquet:"test_coverage,snappy"`
	Score         float64   `parquet:"score,snappy"`
	Rewriteable   bool      `parquet:"rewriteable,snappy"`
}

// writeParquet writes rows of any struct type, with the schema inferred from its tags.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteAuditRunsParquet writes audit runs to a Parquet file.
func WriteAuditRunsParquet(data []AuditRun, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteFileRecordsParquet writes file records to a Parquet file.
func WriteFileRecordsParquet(data []FileRecord, outputPath string) error {
	return writeParquet(data, outputPath)
}

// ConvertAuditRunRecords converts store rows for Parquet export.
func ConvertAuditRunRecords(records []schema.AuditRunRecord) []AuditRun {
	result := make([]AuditRun, len(records))
	for i, r := range records {
		result[i] = AuditRun{
			RunID:         r.RunID,
			RepoPath:      r.RepoPath,
			StartTime:     r.StartTime,
			EndTime:       r.EndTime,
			RunDurationMs: r.RunDurationMs,
			TotalFiles:    r.TotalFiles,
			ForegroundLOC: r.ForegroundLOC,
			EstimatedCost: r.EstimatedCost,
			Currency:      r.Currency,
			ConfigParams:  r.ConfigParams,
		}
	}
	return result
}

// ConvertFileHistoryRecords converts store rows for Parquet export.
func ConvertFileHistoryRecords(records []schema.FileHistoryRecord) []FileRecord {
	result := make([]FileRecord, len(records))
	for i, r := range records {
		result[i] = FileRecord{
			RunID:         r.RunID,
			FilePath:      r.FilePath,
			RecordedAt:    r.RecordedAt,
			Origin:        r.Origin,
			License:       r.License,
			PrimaryAuthor: r.PrimaryAuthor,
			LOC:           r.LOC,
			Complexity:    r.Complexity,
			Coupling:      r.Coupling,
			TestCoverage:  r.TestCoverage,
			Score:         r.Score,
			Rewriteable:   r.Rewriteable,
		}
	}
	return result
}
