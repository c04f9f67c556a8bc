package iocache

import (
	"errors"
	"fmt"

	"github.com/huangsam/ipaudit/internal/contract"
	"github.com/huangsam/ipaudit/internal/parquet"
)

// ExecuteHistoryExport exports the global history store to Parquet files.
func ExecuteHistoryExport(outputFile string) error {
	store := Manager.GetHistoryStore()
	if store == nil {
		return errors.New("history store is not initialized")
	}
	return ExportHistory(store, outputFile)
}

// ExportHistory writes <outputFile>.audit_runs.parquet and <outputFile>.file_records.parquet.
func ExportHistory(store contract.HistoryStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get history status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no audit history found to export")
	}

	fmt.Printf("Exporting data from %s backend...\n", status.Backend)
	fmt.Printf("Total audit runs: %d\n", status.TotalRuns)
	fmt.Printf("Total file records: %d\n", status.TableSizes[fileRecordsTable])

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve audit runs: %w", err)
	}
	files, err := store.GetAllFileRecords()
	if err != nil {
		return fmt.Errorf("failed to retrieve file records: %w", err)
	}

	runsFile := outputFile + ".audit_runs.parquet"
	parquetRuns := parquet.ConvertAuditRunRecords(runs)
	if err := parquet.WriteAuditRunsParquet(parquetRuns, runsFile); err != nil {
		return fmt.Errorf("failed to write audit runs: %w", err)
	}
	fmt.Printf("Exported %d audit runs to: %s\n", len(parquetRuns), runsFile)

	filesFile := outputFile + ".file_records.parquet"
	parquetFiles := parquet.ConvertFileHistoryRecords(files)
	if err := parquet.WriteFileRecordsParquet(parquetFiles, filesFile); err != nil {
		return fmt.Errorf("failed to write file records: %w", err)
	}
	fmt.Printf("Exported %d file records to: %s\n", len(parquetFiles), filesFile)

	return nil
}
