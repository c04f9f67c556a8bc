package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/ipaudit/internal/contract"
	"github.com/huangsam/ipaudit/schema"
)

// Table names for audit history.
const (
	auditRunsTable   = "ipaudit_audit_runs"
	fileRecordsTable = "ipaudit_file_records"
)

// historyTables lists the history tables in creation order.
var historyTables = []string{auditRunsTable, fileRecordsTable}

// HistoryStoreImpl implements the HistoryStore interface.
type HistoryStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.HistoryStore = &HistoryStoreImpl{} // Compile-time check

// NewHistoryStore creates a new HistoryStore with the specified backend.
func NewHistoryStore(backend schema.DatabaseBackend, connStr string) (contract.HistoryStore, error) {
	if backend == schema.NoneBackend {
		return &HistoryStoreImpl{backend: backend}, nil
	}

	db, err := openDB(backend, connStr, contract.GetHistoryDBFilePath())
	if err != nil {
		return nil, err
	}
	for _, query := range []string{getCreateAuditRunsQuery(backend), getCreateFileRecordsQuery(backend)} {
		if _, err := db.Exec(query); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create history tables: %w", err)
		}
	}

	return &HistoryStoreImpl{db: db, backend: backend}, nil
}

// getCreateAuditRunsQuery returns the CREATE TABLE query for ipaudit_audit_runs.
func getCreateAuditRunsQuery(backend schema.DatabaseBackend) string {
	quoted := quoteTableName(auditRunsTable, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				repo_path VARCHAR(1024) NOT NULL,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms INT,
				total_files INT,
				foreground_loc INT,
				estimated_cost DOUBLE,
				currency VARCHAR(8),
				config_params TEXT
			);
		`, quoted)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGSERIAL PRIMARY KEY,
				repo_path TEXT NOT NULL,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms INT,
				total_files INT,
				foreground_loc INT,
				estimated_cost DOUBLE PRECISION,
				currency TEXT,
				config_params TEXT
			);
		`, quoted)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER PRIMARY KEY AUTOINCREMENT,
				repo_path TEXT NOT NULL,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				total_files INTEGER,
				foreground_loc INTEGER,
				estimated_cost REAL,
				currency TEXT,
				config_params TEXT
			);
		`, quoted)
	}
}

// getCreateFileRecordsQuery returns the CREATE TABLE query for ipaudit_file_records.
func getCreateFileRecordsQuery(backend schema.DatabaseBackend) string {
	quoted := quoteTableName(fileRecordsTable, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				file_path VARCHAR(512) NOT NULL,
				recorded_at DATETIME(6) NOT NULL,
				origin VARCHAR(32) NOT NULL,
				license VARCHAR(128) NOT NULL,
				primary_author VARCHAR(255),
				loc INT NOT NULL,
				complexity DOUBLE NOT NULL,
				coupling DOUBLE NOT NULL,
				test_coverage DOUBLE NOT NULL,
				score DOUBLE NOT NULL,
				rewriteable BOOLEAN NOT NULL,
				PRIMARY KEY (run_id, file_path)
			);
		`, quoted)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				file_path TEXT NOT NULL,
				recorded_at TIMESTAMPTZ NOT NULL,
				origin TEXT NOT NULL,
				license TEXT NOT NULL,
				primary_author TEXT,
				loc INT NOT NULL,
				complexity DOUBLE PRECISION NOT NULL,
				coupling DOUBLE PRECISION NOT NULL,
				test_coverage DOUBLE PRECISION NOT NULL,
				score DOUBLE PRECISION NOT NULL,
				rewriteable BOOLEAN NOT NULL,
				PRIMARY KEY (run_id, file_path)
			);
		`, quoted)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER NOT NULL,
				file_path TEXT NOT NULL,
				recorded_at TEXT NOT NULL,
				origin TEXT NOT NULL,
				license TEXT NOT NULL,
				primary_author TEXT,
				loc INTEGER NOT NULL,
				complexity REAL NOT NULL,
				coupling REAL NOT NULL,
				test_coverage REAL NOT NULL,
				score REAL NOT NULL,
				rewriteable INTEGER NOT NULL,
				PRIMARY KEY (run_id, file_path)
			);
		`, quoted)
	}
}

// BeginRun creates a new audit run and returns its unique ID.
func (hs *HistoryStoreImpl) BeginRun(startTime time.Time, repoPath string, configParams map[string]any) (int64, error) {
	if hs.db == nil {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	quoted := quoteTableName(auditRunsTable, hs.backend)
	args := []any{repoPath, formatTime(startTime, hs.backend), string(configJSON)}

	var runID int64
	if hs.backend == schema.PostgreSQLBackend {
		query := fmt.Sprintf(`INSERT INTO %s (repo_path, start_time, config_params) VALUES ($1, $2, $3) RETURNING run_id`, quoted)
		err = hs.db.QueryRow(query, args...).Scan(&runID)
	} else {
		query := fmt.Sprintf(`INSERT INTO %s (repo_path, start_time, config_params) VALUES (?, ?, ?)`, quoted)
		var result sql.Result
		if result, err = hs.db.Exec(query, args...); err == nil {
			runID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert audit run: %w", err)
	}
	return runID, nil
}

// RecordFile stores the classification and score of one file.
func (hs *HistoryStoreImpl) RecordFile(runID int64, record schema.FileHistoryRecord) error {
	if hs.db == nil {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (run_id, file_path, recorded_at, origin, license, primary_author,
		                loc, complexity, coupling, test_coverage, score, rewriteable)
		VALUES (%s)
	`, quoteTableName(fileRecordsTable, hs.backend), placeholders(hs.backend, 12))

	_, err := hs.db.Exec(query,
		runID, record.FilePath, formatTime(record.RecordedAt, hs.backend), record.Origin, record.License, record.PrimaryAuthor,
		record.LOC, record.Complexity, record.Coupling, record.TestCoverage, record.Score, record.Rewriteable,
	)
	if err != nil {
		return fmt.Errorf("failed to insert file record for %s: %w", record.FilePath, err)
	}
	return nil
}

// EndRun updates the audit run with completion data.
func (hs *HistoryStoreImpl) EndRun(runID int64, summary schema.RunSummary) error {
	if hs.db == nil {
		return nil
	}

	quoted := quoteTableName(auditRunsTable, hs.backend)
	row := hs.db.QueryRow(fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = %s`, quoted, placeholders(hs.backend, 1)), runID)
	startTime, err := hs.scanTime(row)
	if err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}

	var set string
	if hs.backend == schema.PostgreSQLBackend {
		set = "end_time = $1, run_duration_ms = $2, total_files = $3, foreground_loc = $4, estimated_cost = $5, currency = $6 WHERE run_id = $7"
	} else {
		set = "end_time = ?, run_duration_ms = ?, total_files = ?, foreground_loc = ?, estimated_cost = ?, currency = ? WHERE run_id = ?"
	}
	_, err = hs.db.Exec(fmt.Sprintf(`UPDATE %s SET %s`, quoted, set),
		formatTime(summary.EndTime, hs.backend),
		summary.EndTime.Sub(startTime).Milliseconds(),
		summary.TotalFiles,
		summary.Cost.ForegroundLOC,
		summary.Cost.EstimatedCost,
		summary.Cost.Currency,
		runID,
	)
	if err != nil {
		return fmt.Errorf("failed to update audit run: %w", err)
	}
	return nil
}

// scanTime reads a single timestamp column, handling sqlite's text storage.
func (hs *HistoryStoreImpl) scanTime(row *sql.Row) (time.Time, error) {
	if hs.backend == schema.SQLiteBackend {
		var s string
		if err := row.Scan(&s); err != nil {
			return time.Time{}, err
		}
		return parseTime(s)
	}
	var t time.Time
	err := row.Scan(&t)
	return t, err
}

// Close closes the underlying connection.
func (hs *HistoryStoreImpl) Close() error {
	if hs.db != nil {
		return hs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the history store.
func (hs *HistoryStoreImpl) GetStatus() (schema.HistoryStatus, error) {
	status := schema.HistoryStatus{
		Backend:    string(hs.backend),
		Connected:  hs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if hs.db == nil {
		return status, nil
	}

	runs := quoteTableName(auditRunsTable, hs.backend)
	if err := hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", runs)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		if err := hs.db.QueryRow(fmt.Sprintf("SELECT MAX(run_id) FROM %s", runs)).Scan(&status.LastRunID); err != nil {
			return status, fmt.Errorf("failed to get last run id: %w", err)
		}

		var err error
		row := hs.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id DESC LIMIT 1", runs))
		if status.LastRunTime, err = hs.scanTime(row); err != nil {
			return status, fmt.Errorf("failed to get last run time: %w", err)
		}
		row = hs.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", runs))
		if status.OldestRunTime, err = hs.scanTime(row); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}

		row = hs.db.QueryRow(fmt.Sprintf("SELECT COALESCE(SUM(total_files), 0) FROM %s", runs))
		if err := row.Scan(&status.TotalFilesRecorded); err != nil {
			return status, fmt.Errorf("failed to get total files recorded: %w", err)
		}
	}

	for _, table := range historyTables {
		var count int64
		row := hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, hs.backend)))
		if err := row.Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}

	return status, nil
}

// GetAllRuns retrieves every audit run ordered by id.
func (hs *HistoryStoreImpl) GetAllRuns() ([]schema.AuditRunRecord, error) {
	if hs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, repo_path, start_time, end_time, run_duration_ms, total_files,
		foreground_loc, estimated_cost, currency, config_params FROM %s ORDER BY run_id`,
		quoteTableName(auditRunsTable, hs.backend))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.AuditRunRecord
	for rows.Next() {
		var r schema.AuditRunRecord
		if hs.backend == schema.SQLiteBackend {
			var start string
			var end *string
			if err := rows.Scan(&r.RunID, &r.RepoPath, &start, &end, &r.RunDurationMs, &r.TotalFiles,
				&r.ForegroundLOC, &r.EstimatedCost, &r.Currency, &r.ConfigParams); err != nil {
				return nil, fmt.Errorf("failed to scan audit run: %w", err)
			}
			if r.StartTime, err = parseTime(start); err != nil {
				return nil, err
			}
			if end != nil {
				endTime, err := parseTime(*end)
				if err != nil {
					return nil, err
				}
				r.EndTime = &endTime
			}
		} else if err := rows.Scan(&r.RunID, &r.RepoPath, &r.StartTime, &r.EndTime, &r.RunDurationMs, &r.TotalFiles,
			&r.ForegroundLOC, &r.EstimatedCost, &r.Currency, &r.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan audit run: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit runs: %w", err)
	}
	return results, nil
}

// GetAllFileRecords retrieves every file row ordered by run and path.
func (hs *HistoryStoreImpl) GetAllFileRecords() ([]schema.FileHistoryRecord, error) {
	if hs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, file_path, recorded_at, origin, license, primary_author,
		loc, complexity, coupling, test_coverage, score, rewriteable
		FROM %s ORDER BY run_id, file_path`, quoteTableName(fileRecordsTable, hs.backend))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query file records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.FileHistoryRecord
	for rows.Next() {
		var r schema.FileHistoryRecord
		var recordedAt any = &r.RecordedAt
		var recordedStr string
		if hs.backend == schema.SQLiteBackend {
			recordedAt = &recordedStr
		}
		if err := rows.Scan(&r.RunID, &r.FilePath, recordedAt, &r.Origin, &r.License, &r.PrimaryAuthor,
			&r.LOC, &r.Complexity, &r.Coupling, &r.TestCoverage, &r.Score, &r.Rewriteable); err != nil {
			return nil, fmt.Errorf("failed to scan file record: %w", err)
		}
		if hs.backend == schema.SQLiteBackend {
			if r.RecordedAt, err = parseTime(recordedStr); err != nil {
				return nil, err
			}
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating file records: %w", err)
	}
	return results, nil
}
