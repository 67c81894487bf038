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

// analysisSetup loads minimal configuration needed for analysis operations.
// This is used by commands that need analysis access without full shared setup.
func analysisSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	// Get analysis-related config values
	backendStr := viper.GetString("analysis-backend")
	connStr := viper.GetString("analysis-db-connect")

	// Handle empty backend as NoneBackend
	var backend schema.DatabaseBackend
	if backendStr == "" {
		backend = schema.NoneBackend
	} else {
		backend = schema.DatabaseBackend(backendStr)
	}

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	// Get output-related config values (used by export command)
	outputFile := viper.GetString("output-file")

	// Initialize stores with the loaded config (no cache tracking for analysis commands)
	if err := iocache.InitStores(schema.NoneBackend, "", backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize analysis: %w", err)
	}

	cfg.AnalysisBackend = backend
	cfg.AnalysisDBConnect = connStr
	cfg.OutputFile = outputFile

	return nil
}

// analysisSetupWrapper wraps analysisSetup to provide PreRunE for analysis commands.
func analysisSetupWrapper(_ *cobra.Command, _ []string) error {
	return analysisSetup()
}

// analysisMigrateSetup loads minimal configuration needed for migrate operations.
// This is a specialized setup that does NOT initialize stores or create tables,
// allowing migrations to run on a fresh database.
func analysisMigrateSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	// Get analysis-related config values
	backendStr := viper.GetString("analysis-backend")
	connStr := viper.GetString("analysis-db-connect")

	// Handle empty backend as NoneBackend
	var backend schema.DatabaseBackend
	if backendStr == "" {
		backend = schema.NoneBackend
	} else {
		backend = schema.DatabaseBackend(backendStr)
	}

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	// For SQLite backend with empty connection string, use default path
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = contract.GetAnalysisDBFilePath()
	}

	cfg.AnalysisBackend = backend
	cfg.AnalysisDBConnect = connStr

	return nil
}

// analysisMigrateSetupWrapper wraps analysisMigrateSetup to provide PreRunE for migrate command.
func analysisMigrateSetupWrapper(_ *cobra.Command, _ []string) error {
	return analysisMigrateSetup()
}

// analysisCmd focused on analysis data management.
//
// Note: Analysis subcommands use minimal initialization (analysisSetup) instead of
// the full sharedSetup. This skips data directory validation and filter parsing
// for simple storage operations.
var analysisCmd = &cobra.Command{
	Use:   "analysis",
	Short: "Manage historical analysis tracking and exports",
	Long: `Manage historical analysis data used for trend tracking and reporting.

When enabled with --analysis-backend, every indicators or domains run is stored:
- Run metadata (UUID, timestamps, configuration, duration)
- Every indicator value and domain score per district and cohort

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled, the default)

Subcommands:
  status  - Show analysis tracking statistics
  export  - Export data to Parquet for analytics
  clear   - Remove all tracking data
  migrate - Run database schema migrations

Examples:
  # Check tracking status
  healthgap analysis status --analysis-backend sqlite

  # Export for analysis in pandas/DuckDB
  healthgap analysis export --analysis-backend sqlite --output-file equity.parquet`,
}

// analysisClearCmd clears the analysis data.
var analysisClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all historical analysis tracking data",
	Long: `Delete all stored analysis runs and indicator results.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  # Export before clearing
  healthgap analysis export --analysis-backend sqlite --output-file backup.parquet
  healthgap analysis clear --analysis-backend sqlite`,
	PreRunE: analysisSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := iocache.ClearAnalysis(cfg.AnalysisBackend, contract.GetAnalysisDBFilePath(), cfg.AnalysisDBConnect); err != nil {
			return fmt.Errorf("failed to clear analysis data: %w", err)
		}
		fmt.Println("Analysis data cleared successfully.")
		return nil
	},
}

// analysisStatusCmd shows analysis status.
var analysisStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display analysis tracking statistics and connection details",
	Long: `Show detailed information about historical analysis tracking.

Displays:
- Backend type and connection status
- Total number of analysis runs stored
- Last and oldest analysis run timestamps
- Total indicator results across all runs
- Database table sizes

Examples:
  # Check analysis tracking status
  healthgap analysis status --analysis-backend sqlite`,
	PreRunE: analysisSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		status, err := iocache.Manager.GetAnalysisStore().GetStatus()
		if err != nil {
			return fmt.Errorf("failed to get analysis status: %w", err)
		}
		iocache.PrintAnalysisStatus(os.Stdout, status)
		return nil
	},
}

// analysisExportCmd exports analysis data to Parquet files.
var analysisExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export historical data to Parquet for BI tools and analytics",
	Long: `Export all stored analysis data to Parquet format for use with analytics tools.

Exports two datasets next to --output-file:
- <name>.analysis_runs.parquet - metadata about each analysis execution
- <name>.indicator_results.parquet - indicator values and domain scores

Requires: --output-file parameter

Examples:
  # Export all data
  healthgap analysis export --analysis-backend sqlite --output-file equity.parquet

  # Use with DuckDB for analysis
  duckdb -c "SELECT cohort, AVG(goodness) FROM read_parquet('equity.parquet.indicator_results.parquet') GROUP BY cohort"`,
	PreRunE: analysisSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := iocache.ExecuteAnalysisExport(iocache.Manager.GetAnalysisStore(), cfg.OutputFile); err != nil {
			return fmt.Errorf("failed to export analysis data: %w", err)
		}
		return nil
	},
}

// analysisMigrateCmd runs database migrations for the analysis store.
var analysisMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the analysis tracking store.

By default, migrates to the latest version. Use --target-version for specific versions.

Versions:
  1 - analysis runs table
  2 - indicator results table

Examples:
  # Migrate to latest version (default)
  healthgap analysis migrate --analysis-backend postgresql --analysis-db-connect "postgres://..."

  # Rollback to initial state
  healthgap analysis migrate --analysis-backend sqlite --target-version 0`,
	PreRunE: analysisMigrateSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateAnalysis(cfg.AnalysisBackend, cfg.AnalysisDBConnect, targetVersion); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		return nil
	},
}
