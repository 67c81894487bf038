// Package cmd defines the command-line interface for healthgap.
package cmd

import (
	"github.com/huangsam/healthgap/internal/contract"
	"github.com/huangsam/healthgap/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(indicatorsCmd)
	rootCmd.AddCommand(domainsCmd)
	rootCmd.AddCommand(districtsCmd)
	rootCmd.AddCommand(correlationsCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(registryCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(analysisCmd)
	rootCmd.AddCommand(mcpCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the analysis subcommands to the parent analysis command
	analysisCmd.AddCommand(analysisClearCmd)
	analysisCmd.AddCommand(analysisStatusCmd)
	analysisCmd.AddCommand(analysisExportCmd)
	analysisCmd.AddCommand(analysisMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("data-dir", contract.DefaultDataDir, "Directory holding the survey and registry CSV files")
	rootCmd.PersistentFlags().StringP("domain", "d", "", "Restrict output to one domain (default: every domain)")
	rootCmd.PersistentFlags().String("district", schema.OverallDistrict, "District name, or 'Bangkok Overall' for the whole city")
	rootCmd.PersistentFlags().StringP("cohort", "c", "", "Restrict output to one cohort: lgbtq, elderly, disabled, informal_workers, general_population")
	rootCmd.PersistentFlags().String("indicator-type", string(schema.AllIndicators), "Indicator source filter: all or survey or supply")
	rootCmd.PersistentFlags().IntP("limit", "l", contract.DefaultResultLimit, "Number of results to display")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent workers")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Correlation cache backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("analysis-backend", "", "Analysis tracking backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("analysis-db-connect", "", "Database connection string for analysis tracking (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("emoji", "no", "Enable emojis in output headers (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of correlationsCmd to Viper
	correlationsCmd.Flags().String("target", "", "Indicator to correlate every other indicator against")
	correlationsCmd.Flags().Float64("min-correlation", contract.DefaultMinCorrelation, "Minimum absolute correlation to list (0-1)")
	correlationsCmd.Flags().Bool("matrix", false, "Print the full correlation matrix instead of a ranked list")
	if err := viper.BindPFlags(correlationsCmd.Flags()); err != nil {
		contract.LogFatal("Error binding correlations flags", err)
	}

	// Bind all flags of compareCmd to Viper
	compareCmd.Flags().String("base-cohort", string(schema.GeneralPopulationCohort), "Reference cohort of the comparison")
	compareCmd.Flags().String("target-cohort", "", "Cohort compared against the base cohort")
	if err := viper.BindPFlags(compareCmd.Flags()); err != nil {
		contract.LogFatal("Error binding compare flags", err)
	}

	// Bind all flags of checkCmd to Viper
	checkCmd.Flags().String("thresholds-override", "", "Minimum domain scores for CI/CD gating (format: 'education:60,health_outcomes:40')")
	if err := viper.BindPFlags(checkCmd.Flags()); err != nil {
		contract.LogFatal("Error binding check flags", err)
	}

	// Bind all flags of analysisMigrateCmd to Viper
	analysisMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(analysisMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding analysis migrate flags", err)
	}
}
