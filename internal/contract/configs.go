package contract

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/huangsam/healthgap/core/registry"
	"github.com/huangsam/healthgap/schema"
)

// Default values for configuration.
const (
	DefaultResultLimit    = 10
	MaxResultLimit        = 1000
	DefaultPrecision      = 2
	MaxPrecision          = 4
	DefaultMinCorrelation = 0.1
	DefaultThreshold      = 50.0
	DefaultDataDir        = "data"
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// BenchmarkRawInput holds one supply benchmark override from the YAML config file.
type BenchmarkRawInput struct {
	Poor      *float64 `mapstructure:"poor"`
	Good      *float64 `mapstructure:"good"`
	Excellent *float64 `mapstructure:"excellent"`
}

// Config holds the runtime configuration for the analysis.
// This struct remains the "final, validated" config.
type Config struct {
	DataDir     string
	ResultLimit int
	Workers     int
	Precision   int
	Output      schema.OutputMode
	OutputFile  string
	Width       int // Terminal width override (0 = auto-detect)

	Domain        schema.Domain // empty means every domain
	District      string
	Cohort        schema.Cohort // empty means every cohort
	IndicatorType schema.IndicatorType

	Target         string  // correlation target indicator
	MinCorrelation float64 // minimum absolute r kept in correlation lists
	Matrix         bool    // print the full matrix instead of a top list

	BaseCohort   schema.Cohort
	TargetCohort schema.Cohort

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	AnalysisBackend   schema.DatabaseBackend
	AnalysisDBConnect string // Please use env var as this is plaintext

	// DomainThresholds is a mapping of [Domain] = minimum acceptable domain score
	DomainThresholds map[schema.Domain]float64

	// BenchmarkOverrides replaces default supply benchmarks by indicator name
	BenchmarkOverrides map[string]schema.Benchmark

	UseEmojis bool // Enable emojis in output headers
	UseColors bool // Enable colored labels in table output
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	DataDir           string `mapstructure:"data-dir"`
	OutputFile        string `mapstructure:"output-file"`
	Limit             int    `mapstructure:"limit"`
	Workers           int    `mapstructure:"workers"`
	Precision         int    `mapstructure:"precision"`
	Output            string `mapstructure:"output"`
	Width             int    `mapstructure:"width"`
	Domain            string `mapstructure:"domain"`
	District          string `mapstructure:"district"`
	Cohort            string `mapstructure:"cohort"`
	IndicatorType     string `mapstructure:"indicator-type"`
	CacheBackend      string `mapstructure:"cache-backend"`
	CacheDBConnect    string `mapstructure:"cache-db-connect"`
	AnalysisBackend   string `mapstructure:"analysis-backend"`
	AnalysisDBConnect string `mapstructure:"analysis-db-connect"`
	Emoji             string `mapstructure:"emoji"`
	Color             string `mapstructure:"color"`

	// --- Fields from correlationsCmd.Flags() ---
	Target         string  `mapstructure:"target"`
	MinCorrelation float64 `mapstructure:"min-correlation"`
	Matrix         bool    `mapstructure:"matrix"`

	// --- Fields from compareCmd.Flags() ---
	BaseCohort   string `mapstructure:"base-cohort"`
	TargetCohort string `mapstructure:"target-cohort"`

	// --- Fields from checkCmd.Flags() ---
	ThresholdsStr string `mapstructure:"thresholds-override"`

	// --- Domain thresholds from config file ---
	Thresholds map[string]float64 `mapstructure:"thresholds"`

	// --- Supply benchmark overrides from config file ---
	Benchmarks map[string]BenchmarkRawInput `mapstructure:"benchmarks"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.DomainThresholds != nil {
		clone.DomainThresholds = make(map[schema.Domain]float64, len(c.DomainThresholds))
		maps.Copy(clone.DomainThresholds, c.DomainThresholds)
	}
	if c.BenchmarkOverrides != nil {
		clone.BenchmarkOverrides = make(map[string]schema.Benchmark, len(c.BenchmarkOverrides))
		maps.Copy(clone.BenchmarkOverrides, c.BenchmarkOverrides)
	}
	return &clone
}

// Registry builds the indicator registry with this config's benchmark overrides applied.
func (c *Config) Registry() (*registry.Registry, error) {
	return registry.New(registry.WithBenchmarkOverrides(c.BenchmarkOverrides))
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(_ context.Context, cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processFilters(cfg, input); err != nil {
		return err
	}
	if err := processCorrelation(cfg, input); err != nil {
		return err
	}
	if err := processCompareCohorts(cfg, input); err != nil {
		return err
	}
	if err := processDomainThresholds(cfg, input); err != nil {
		return err
	}
	if err := processBenchmarkOverrides(cfg, input); err != nil {
		return err
	}
	if err := resolveDataDir(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates cache and analysis backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidCacheBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	// --- Analysis Backend Validation ---
	cfg.AnalysisBackend = schema.DatabaseBackend(strings.ToLower(input.AnalysisBackend))
	if cfg.AnalysisBackend == "" {
		return nil
	}
	if _, ok := schema.ValidCacheBackends[cfg.AnalysisBackend]; !ok {
		return fmt.Errorf("invalid analysis backend '%s'. must be sqlite, mysql, postgresql, none", input.AnalysisBackend)
	}
	cfg.AnalysisDBConnect = input.AnalysisDBConnect
	if err := ValidateDatabaseConnectionString(cfg.AnalysisBackend, cfg.AnalysisDBConnect); err != nil {
		return err
	}

	// SQLite paths are resolved so that default locations also collide
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.AnalysisBackend == schema.SQLiteBackend {
		cacheDBPath := cfg.CacheDBConnect
		if cacheDBPath == "" {
			cacheDBPath = GetCacheDBFilePath()
		}
		analysisDBPath := cfg.AnalysisDBConnect
		if analysisDBPath == "" {
			analysisDBPath = GetAnalysisDBFilePath()
		}
		if cacheDBPath == analysisDBPath {
			return fmt.Errorf("cache and analysis storage must use different SQLite database files. Both resolve to %q", cacheDBPath)
		}
	}
	return nil
}

// validateSimpleInputs processes and validates the scalar fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width

	emojis, err := ParseBoolString(input.Emoji)
	if err != nil {
		return fmt.Errorf("invalid --emoji value: %w", err)
	}
	cfg.UseEmojis = emojis

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. ResultLimit Validation ---
	if input.Limit <= 0 || input.Limit > MaxResultLimit {
		return fmt.Errorf("limit must be greater than 0 and cannot exceed %d (received %d)", MaxResultLimit, input.Limit)
	}
	cfg.ResultLimit = input.Limit

	// --- 2. Workers Validation ---
	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	// --- 3. Precision and Output Validation ---
	if input.Precision < 1 || input.Precision > MaxPrecision {
		return fmt.Errorf("precision must be between 1 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}

	// --- 4. Backend Validation ---
	return validateBackendConfigs(cfg, input)
}

// processFilters validates the domain, district, cohort and indicator type filters.
func processFilters(cfg *Config, input *ConfigRawInput) error {
	cfg.Domain = schema.Domain(strings.ToLower(strings.TrimSpace(input.Domain)))
	if cfg.Domain != "" {
		if _, ok := schema.ValidDomains[cfg.Domain]; !ok {
			return fmt.Errorf("invalid domain '%s'", input.Domain)
		}
	}

	cfg.District = strings.TrimSpace(input.District)
	if cfg.District == "" {
		cfg.District = schema.OverallDistrict
	}

	cohort, err := parseCohort(input.Cohort)
	if err != nil {
		return err
	}
	cfg.Cohort = cohort

	cfg.IndicatorType = schema.IndicatorType(strings.ToLower(strings.TrimSpace(input.IndicatorType)))
	if cfg.IndicatorType == "" {
		cfg.IndicatorType = schema.AllIndicators
	}
	if _, ok := schema.ValidIndicatorTypes[cfg.IndicatorType]; !ok {
		return fmt.Errorf("invalid indicator type '%s'. must be all, survey, supply", input.IndicatorType)
	}
	return nil
}

// processCorrelation validates the correlation target and cutoff.
func processCorrelation(cfg *Config, input *ConfigRawInput) error {
	cfg.Target = strings.TrimSpace(input.Target)
	cfg.Matrix = input.Matrix
	if input.MinCorrelation < 0 || input.MinCorrelation > 1 {
		return fmt.Errorf("min-correlation must be between 0 and 1 (received %.3f)", input.MinCorrelation)
	}
	cfg.MinCorrelation = input.MinCorrelation
	return nil
}

// processCompareCohorts handles the base and target cohorts of the compare command.
func processCompareCohorts(cfg *Config, input *ConfigRawInput) error {
	base, err := parseCohort(input.BaseCohort)
	if err != nil {
		return fmt.Errorf("invalid --base-cohort: %w", err)
	}
	if base == "" {
		base = schema.GeneralPopulationCohort
	}
	cfg.BaseCohort = base

	target, err := parseCohort(input.TargetCohort)
	if err != nil {
		return fmt.Errorf("invalid --target-cohort: %w", err)
	}
	cfg.TargetCohort = target
	return nil
}

// processDomainThresholds converts the raw threshold input into the final cfg.DomainThresholds map.
// Every domain starts at DefaultThreshold. Command-line --thresholds-override takes precedence
// over config file settings.
func processDomainThresholds(cfg *Config, input *ConfigRawInput) error {
	thresholds := make(map[schema.Domain]float64, len(schema.AllDomains))
	for _, d := range schema.AllDomains {
		thresholds[d] = DefaultThreshold
	}

	for key, value := range input.Thresholds {
		domain := schema.Domain(strings.ToLower(strings.TrimSpace(key)))
		if _, ok := schema.ValidDomains[domain]; !ok {
			return fmt.Errorf("invalid threshold domain '%s'", key)
		}
		thresholds[domain] = value
	}

	if input.ThresholdsStr != "" {
		parsed, err := parseDomainThresholdsString(input.ThresholdsStr)
		if err != nil {
			return fmt.Errorf("invalid --thresholds-override format: %w", err)
		}
		maps.Copy(thresholds, parsed)
	}

	for domain, threshold := range thresholds {
		if threshold < 0.0 || threshold > 100.0 {
			return fmt.Errorf("threshold for domain %s must be between 0.0 and 100.0 (received %.2f)", domain, threshold)
		}
	}

	cfg.DomainThresholds = thresholds
	return nil
}

// processBenchmarkOverrides validates supply benchmark overrides against the registry.
func processBenchmarkOverrides(cfg *Config, input *ConfigRawInput) error {
	if len(input.Benchmarks) == 0 {
		cfg.BenchmarkOverrides = nil
		return nil
	}

	overrides := make(map[string]schema.Benchmark, len(input.Benchmarks))
	for name, raw := range input.Benchmarks {
		if raw.Poor == nil || raw.Good == nil || raw.Excellent == nil {
			return fmt.Errorf("benchmark for %s must set poor, good and excellent", name)
		}
		overrides[strings.TrimSpace(name)] = schema.Benchmark{Poor: *raw.Poor, Good: *raw.Good, Excellent: *raw.Excellent}
	}

	// The registry rejects unknown, non-supply and unordered benchmarks
	if _, err := registry.New(registry.WithBenchmarkOverrides(overrides)); err != nil {
		return err
	}
	cfg.BenchmarkOverrides = overrides
	return nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}

// resolveDataDir resolves the data directory to an absolute path and checks that it exists.
func resolveDataDir(cfg *Config, input *ConfigRawInput) error {
	dir := strings.TrimSpace(input.DataDir)
	if dir == "" {
		dir = DefaultDataDir
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return fmt.Errorf("data directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data directory %s is not a directory", dir)
	}
	cfg.DataDir = filepath.Clean(absDir)
	return nil
}

// parseCohort normalizes a cohort name. The empty string is allowed.
func parseCohort(s string) (schema.Cohort, error) {
	cohort := schema.Cohort(strings.ToLower(strings.TrimSpace(s)))
	if cohort == "" {
		return "", nil
	}
	if _, ok := schema.ValidCohorts[cohort]; !ok {
		return "", fmt.Errorf("invalid cohort '%s'. must be lgbtq, elderly, disabled, informal_workers, general_population", s)
	}
	return cohort, nil
}

// parseDomainThresholdsString parses a string like "education:60,health_outcomes:40"
// into a map of Domain to float64.
func parseDomainThresholdsString(s string) (map[schema.Domain]float64, error) {
	thresholds := make(map[schema.Domain]float64)

	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		keyValue := strings.Split(part, ":")
		if len(keyValue) != 2 {
			return nil, fmt.Errorf("invalid threshold format '%s', expected 'domain:value'", part)
		}

		domain := schema.Domain(strings.ToLower(strings.TrimSpace(keyValue[0])))
		if _, ok := schema.ValidDomains[domain]; !ok {
			return nil, fmt.Errorf("invalid domain '%s'", keyValue[0])
		}

		valueStr := strings.TrimSpace(keyValue[1])
		value, err := strconv.ParseFloat(valueStr, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid threshold value '%s' for domain %s: %w", valueStr, domain, err)
		}

		thresholds[domain] = value
	}

	return thresholds, nil
}

// RevalidateFilters applies per-request filter overrides (for MCP). Empty
// arguments keep the values already in cfg.
func RevalidateFilters(cfg *Config, domain, district, cohort, indicatorType string) error {
	input := &ConfigRawInput{
		Domain:        string(cfg.Domain),
		District:      cfg.District,
		Cohort:        string(cfg.Cohort),
		IndicatorType: string(cfg.IndicatorType),
	}
	if domain != "" {
		input.Domain = domain
	}
	if district != "" {
		input.District = district
	}
	if cohort != "" {
		input.Cohort = cohort
	}
	if indicatorType != "" {
		input.IndicatorType = indicatorType
	}
	return processFilters(cfg, input)
}

// RevalidateCompare applies the cohorts of a comparison request (for MCP).
func RevalidateCompare(cfg *Config, baseCohort, targetCohort string) error {
	if err := processCompareCohorts(cfg, &ConfigRawInput{BaseCohort: baseCohort, TargetCohort: targetCohort}); err != nil {
		return err
	}
	if cfg.TargetCohort == "" {
		return fmt.Errorf("--target-cohort is required")
	}
	if cfg.TargetCohort == cfg.BaseCohort {
		return fmt.Errorf("--target-cohort must differ from --base-cohort (%s)", cfg.BaseCohort)
	}
	return nil
}
