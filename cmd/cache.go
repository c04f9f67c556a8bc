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

// cacheSetup loads minimal configuration needed for cache operations.
// History tracking stays disabled for cache commands.
func cacheSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend := schema.DatabaseBackend(strings.ToLower(viper.GetString("cache-backend")))
	connStr := viper.GetString("cache-db-connect")

	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	if err := iocache.InitStores(backend, connStr, schema.NoneBackend, ""); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}

	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr
	return nil
}

func cacheSetupWrapper(_ *cobra.Command, _ []string) error {
	return cacheSetup()
}

// cacheCmd focused on churn cache management.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the author churn cache",
	Long: `Manage the cache of per-file author churn read from git history.

When the findings carry no git.file_churn section, ipaudit reads authorship
from the local git log. The result is cached per repository HEAD so that
repeated audits of the same commit skip the log walk.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status - Show cache statistics and connection info
  clear  - Remove all cached data

Examples:
  ipaudit cache status
  ipaudit cache clear`,
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached churn data",
	Long: `Delete all cached churn data from the configured backend.

Use this when repository history was rewritten or the cache looks stale.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the cache table

Examples:
  # Clear SQLite cache (default)
  ipaudit cache clear

  # Clear a MySQL cache
  IPAUDIT_CACHE_BACKEND=mysql IPAUDIT_CACHE_DB_CONNECT="..." ipaudit cache clear`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearCache(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
			contract.LogFatal("Failed to clear cache", err)
		}
		fmt.Println("Cache cleared successfully.")
	},
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display cache statistics and connection details",
	Long: `Show information about the churn cache.

Displays:
- Backend type and connection status
- Total number of cached entries
- Last and oldest cache entry timestamps
- Cache table size

Examples:
  ipaudit cache status`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetChurnStore()
		if store == nil {
			iocache.PrintCacheStatus(schema.CacheStatus{Backend: string(cfg.CacheBackend)})
			return
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get cache status", err)
		}
		iocache.PrintCacheStatus(status)
	},
}
