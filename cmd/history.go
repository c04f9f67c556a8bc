package cmd

import (
	"fmt"
	"strings"

	"github.com/huangsam/ipaudit/internal/contract"
	"github.com/huangsam/ipaudit/internal/iocache"
	"github.com/huangsam/ipaudit/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// loadHistoryBackend reads and validates the history backend settings.
func loadHistoryBackend() (schema.DatabaseBackend, string, error) {
	if err := loadConfigFile(); err != nil {
		return "", "", err
	}

	backend := schema.DatabaseBackend(strings.ToLower(viper.GetString("history-backend")))
	if backend == "" {
		backend = schema.NoneBackend
	}
	connStr := viper.GetString("history-db-connect")

	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// historySetup loads minimal configuration needed for history operations.
// The churn cache is left disabled.
func historySetup() error {
	backend, connStr, err := loadHistoryBackend()
	if err != nil {
		return err
	}

	if err := iocache.InitStores(schema.NoneBackend, "", backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize history: %w", err)
	}

	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

func historySetupWrapper(_ *cobra.Command, _ []string) error {
	return historySetup()
}

// historyMigrateSetupWrapper loads the backend without opening stores, so
// migrations can run against a fresh database.
func historyMigrateSetupWrapper(_ *cobra.Command, _ []string) error {
	backend, connStr, err := loadHistoryBackend()
	if err != nil {
		return err
	}
	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	return nil
}

// historyCmd focused on audit history management.
//
// Note: History subcommands skip sharedSetup, so no repository or findings
// are required.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage the audit history and exports",
	Long: `Manage the history of audit runs used for trend reporting.

When a history backend is configured, every audit records:
- Run metadata (timestamp, configuration, duration)
- Per-file origin, license and author
- Per-file rewriteability score and its components
- The cost estimate of the run

Supported backends: SQLite, MySQL, PostgreSQL, or None (default, disabled)

Subcommands:
  status  - Show history statistics
  export  - Export runs and file records to Parquet
  clear   - Remove all history
  migrate - Run database schema migrations

Examples:
  # Check history status
  ipaudit history status --history-backend sqlite

  # Export for analysis in DuckDB
  ipaudit history export --history-backend sqlite --output-file audits`,
}

// historyClearCmd clears the history tables.
var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all recorded audit runs",
	Long: `Delete all stored audit runs and file records.

WARNING: This action cannot be undone. Consider exporting data first.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the history tables

Examples:
  ipaudit history export --history-backend sqlite --output-file backup
  ipaudit history clear --history-backend sqlite`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearHistory(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
			contract.LogFatal("Failed to clear history", err)
		}
		fmt.Println("History cleared successfully.")
	},
}

// historyStatusCmd shows history status.
var historyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display audit history statistics and connection details",
	Long: `Show information about the audit history store.

Displays:
- Backend type and connection status
- Total number of audit runs
- Last and oldest run timestamps
- Total file records across all runs

Examples:
  ipaudit history status --history-backend sqlite`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetHistoryStore()
		if store == nil {
			iocache.PrintHistoryStatus(schema.HistoryStatus{Backend: string(cfg.HistoryBackend)})
			return
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get history status", err)
		}
		iocache.PrintHistoryStatus(status)
	},
}

// historyExportCmd exports history to Parquet files.
var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export audit history to Parquet",
	Long: `Export all stored audit history to Parquet for analytics tools.

Writes two datasets next to --output-file:
- <output-file>.audit_runs.parquet   - one row per audit run
- <output-file>.file_records.parquet - one row per file per run

Requires: --output-file parameter

Examples:
  ipaudit history export --history-backend sqlite --output-file audits
  duckdb -c "SELECT * FROM read_parquet('audits.audit_runs.parquet')"`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ExecuteHistoryExport(cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export history", err)
		}
	},
}

// historyMigrateCmd runs database migrations for the history store.
var historyMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run history schema migrations (upgrades/downgrades)",
	Long: `Manage schema versions of the audit history store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  ipaudit history migrate --history-backend sqlite

  # Roll back every migration
  ipaudit history migrate --history-backend sqlite --target-version 0`,
	PreRunE: historyMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateHistory(cfg.HistoryBackend, cfg.HistoryDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
