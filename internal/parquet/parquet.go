// Package parquet provides data structures and functions for exporting healthgap
// results and analysis runs to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/healthgap/schema"
	"github.com/parquet-go/parquet-go"
)

// AnalysisRun represents a single tracked analysis run with metadata.
// This struct maps to the healthgap_analysis_runs database table.
type AnalysisRun struct {
	// AnalysisID is the unique identifier for this analysis run
	AnalysisID int64 `parquet:"analysis_id,snappy"`

	// RunUUID is the globally unique identifier of the run
	RunUUID string `parquet:"run_uuid,snappy"`

	// StartTime is when the analysis began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the analysis completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the analysis run in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	// TotalResults is the number of indicator results recorded in this run
	TotalResults int32 `parquet:"total_results,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// IndicatorResult is one indicator or domain score of one cell.
// This struct maps to the healthgap_indicator_results database table.
type IndicatorResult struct {
	AnalysisID         int64     `parquet:"analysis_id,snappy"`
	Domain             string    `parquet:"domain,snappy"`
	District           string    `parquet:"district,snappy"`
	Cohort             string    `parquet:"cohort,snappy"`
	Indicator          string    `parquet:"indicator,snappy"`
	Value              *float64  `parquet:"value,optional,snappy"`
	Goodness           *float64  `parquet:"goodness,optional,snappy"`
	SampleSize         int32     `parquet:"sample_size,snappy"`
	NoData             bool      `parquet:"no_data"`
	InsufficientSample bool      `parquet:"insufficient_sample"`
	IsCombined         bool      `parquet:"is_combined"`
	CombinationMethod  string    `parquet:"combination_method,snappy"`
	IsDomainScore      bool      `parquet:"is_domain_score"`
	AnalysisTime       time.Time `parquet:"analysis_time,snappy"`
}

// Correlation is one ranked entry of a correlation list.
type Correlation struct {
	Target      string  `parquet:"target,snappy"`
	District    string  `parquet:"district,snappy"`
	Cohort      string  `parquet:"cohort,snappy"`
	SampleSize  int32   `parquet:"sample_size,snappy"`
	Rank        int32   `parquet:"rank,snappy"`
	Indicator   string  `parquet:"indicator,snappy"`
	Domain      string  `parquet:"domain,snappy"`
	Correlation float64 `parquet:"correlation,snappy"`
	Strength    string  `parquet:"strength,snappy"`
	Direction   int32   `parquet:"direction,snappy"`
	Significant bool    `parquet:"significant"`
	PValue      string  `parquet:"p_value,snappy"`
	TStatistic  float64 `parquet:"t_statistic,snappy"`
}

// writeParquet writes rows to a new Parquet file whose schema is inferred from T.
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

// WriteAnalysisRunsParquet writes a slice of AnalysisRun structs to a Parquet file.
func WriteAnalysisRunsParquet(data []AnalysisRun, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteIndicatorResultsParquet writes a slice of IndicatorResult structs to a Parquet file.
func WriteIndicatorResultsParquet(data []IndicatorResult, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteCorrelationsParquet writes a slice of Correlation structs to a Parquet file.
func WriteCorrelationsParquet(data []Correlation, outputPath string) error {
	return writeParquet(data, outputPath)
}

// ConvertAnalysisRunRecords converts schema.AnalysisRunRecord to AnalysisRun for Parquet export.
func ConvertAnalysisRunRecords(records []schema.AnalysisRunRecord) []AnalysisRun {
	result := make([]AnalysisRun, len(records))
	for i, record := range records {
		result[i] = AnalysisRun{
			AnalysisID:    record.AnalysisID,
			RunUUID:       record.RunUUID,
			StartTime:     record.StartTime,
			EndTime:       record.EndTime,
			RunDurationMs: record.RunDurationMs,
			TotalResults:  record.TotalResults,
			ConfigParams:  record.ConfigParams,
		}
	}
	return result
}

// ConvertIndicatorResultRecords converts store rows to IndicatorResult for Parquet export.
func ConvertIndicatorResultRecords(records []schema.IndicatorResultRecord) []IndicatorResult {
	result := make([]IndicatorResult, len(records))
	for i, record := range records {
		result[i] = IndicatorResult{
			AnalysisID:         record.AnalysisID,
			Domain:             record.Domain,
			District:           record.District,
			Cohort:             record.Cohort,
			Indicator:          record.Indicator,
			Value:              record.Value,
			Goodness:           record.Goodness,
			SampleSize:         record.SampleSize,
			NoData:             record.NoData,
			InsufficientSample: record.InsufficientSample,
			IsCombined:         record.IsCombined,
			CombinationMethod:  record.CombinationMethod,
			IsDomainScore:      record.IsDomainScore,
			AnalysisTime:       record.AnalysisTime,
		}
	}
	return result
}

// ConvertIndicatorResults converts freshly computed results, which have no
// analysis ID, for Parquet output.
func ConvertIndicatorResults(results []schema.IndicatorResult, at time.Time) []IndicatorResult {
	records := make([]schema.IndicatorResultRecord, len(results))
	for i, r := range results {
		records[i] = schema.NewIndicatorResultRecord(0, r, at)
	}
	return ConvertIndicatorResultRecords(records)
}

// ConvertCorrelationResult flattens a correlation list for Parquet output.
func ConvertCorrelationResult(result schema.CorrelationResult) []Correlation {
	out := make([]Correlation, len(result.Entries))
	for i, e := range result.Entries {
		out[i] = Correlation{
			Target:      result.Target,
			District:    result.District,
			Cohort:      string(result.Cohort),
			SampleSize:  int32(result.SampleSize),
			Rank:        int32(e.Rank),
			Indicator:   e.Indicator,
			Domain:      string(e.Domain),
			Correlation: e.Correlation,
			Strength:    e.Strength,
			Direction:   int32(e.Direction),
			Significant: e.Significance.Significant,
			PValue:      e.Significance.PValue,
			TStatistic:  e.Significance.TStatistic,
		}
	}
	return out
}
