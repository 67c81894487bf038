package iocache

import (
	"errors"
	"fmt"

	"github.com/huangsam/healthgap/internal/contract"
	"github.com/huangsam/healthgap/internal/parquet"
)

// ExecuteAnalysisExport writes every stored run and indicator result to Parquet files
// named after outputFile.
func ExecuteAnalysisExport(store contract.AnalysisStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get analysis status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no analysis data found to export")
	}

	fmt.Printf("Exporting data from %s backend...\n", status.Backend)
	fmt.Printf("Total analysis runs: %d\n", status.TotalRuns)
	fmt.Printf("Total indicator results: %d\n", status.TableSizes[indicatorResultsTable])

	analysisRuns, err := store.GetAllAnalysisRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve analysis runs: %w", err)
	}
	indicatorResults, err := store.GetAllIndicatorResults()
	if err != nil {
		return fmt.Errorf("failed to retrieve indicator results: %w", err)
	}

	runs := parquet.ConvertAnalysisRunRecords(analysisRuns)
	runsFile := outputFile + ".analysis_runs.parquet"
	if err := parquet.WriteAnalysisRunsParquet(runs, runsFile); err != nil {
		return fmt.Errorf("failed to write analysis runs: %w", err)
	}
	fmt.Printf("Exported %d analysis runs to: %s\n", len(runs), runsFile)

	results := parquet.ConvertIndicatorResultRecords(indicatorResults)
	resultsFile := outputFile + ".indicator_results.parquet"
	if err := parquet.WriteIndicatorResultsParquet(results, resultsFile); err != nil {
		return fmt.Errorf("failed to write indicator results: %w", err)
	}
	fmt.Printf("Exported %d indicator results to: %s\n", len(results), resultsFile)

	fmt.Println("\nExport complete! The Parquet files can be used with:")
	fmt.Println("  - Pandas (via pyarrow)")
	fmt.Println("  - DuckDB")
	fmt.Println("  - R (via arrow)")
	fmt.Println("  - Any other Parquet-compatible tool")

	return nil
}
