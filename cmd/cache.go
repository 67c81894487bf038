package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/healthgap/internal/contract"
	"github.com/huangsam/healthgap/internal/iocache"
	"github.com/huangsam/healthgap/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cacheSetup loads minimal configuration needed for cache operations.
// This is used by commands that need cache access without full shared setup.
func cacheSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	// Get cache-related config values
	backend := schema.DatabaseBackend(viper.GetString("cache-backend"))
	connStr := viper.GetString("cache-db-connect")

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	// Initialize caching with the loaded config (no analysis tracking for cache commands)
	if err := iocache.InitStores(backend, connStr, "", ""); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}

	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr

	return nil
}

// cacheSetupWrapper wraps cacheSetup to provide PreRunE for cache commands.
func cacheSetupWrapper(_ *cobra.Command, _ []string) error {
	return cacheSetup()
}

// cacheCmd focused on cache management.
//
// Note: Cache subcommands use minimal initialization (cacheSetup) instead of
// the full sharedSetup used by analysis commands. This skips data directory
// validation and filter parsing for simple cache operations.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the correlation matrix cache (improves performance)",
	Long: `Manage the correlation matrix cache that speeds up repeated correlation runs.

Healthgap caches the full Pearson matrix for each district, cohort and domain
selection. The key includes a checksum of the data files, so edited CSVs are
recomputed automatically. Entries older than seven days are ignored.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status - Show cache statistics and connection info
  clear  - Remove all cached data

Examples:
  # Check cache status
  healthgap cache status

  # Clear cache after replacing the survey file
  healthgap cache clear`,
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached correlation matrices",
	Long: `Delete all cached correlation matrices from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the cache table

Examples:
  # Clear SQLite cache (default)
  healthgap cache clear

  # Clear MySQL cache (set connection string via env variable)
  HEALTHGAP_CACHE_BACKEND=mysql HEALTHGAP_CACHE_DB_CONNECT="..." healthgap cache clear`,
	PreRunE: cacheSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := iocache.ClearCache(cfg.CacheBackend, contract.GetCacheDBFilePath(), cfg.CacheDBConnect); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		fmt.Println("Cache cleared successfully.")
		return nil
	},
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display cache statistics and connection details",
	Long: `Show detailed information about the correlation matrix cache.

Displays:
- Backend type and connection status
- Total number of cached matrices
- Last and oldest cache entry timestamps
- Cache table size

Examples:
  # Check cache status
  healthgap cache status`,
	PreRunE: cacheSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		status, err := iocache.Manager.GetCorrelationStore().GetStatus()
		if err != nil {
			return fmt.Errorf("failed to get cache status: %w", err)
		}
		iocache.PrintCacheStatus(os.Stdout, status)
		return nil
	},
}
