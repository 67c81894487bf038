// Package main provides a performance benchmarking tool for the healthgap CLI.
// It measures execution times of the main commands against one data directory,
// running each command several times with and without the correlation cache.
// The first cached run is reported as cold and the rest are averaged as warm.
// Results are written to a CSV file for documentation.
//
// Prerequisites:
// - healthgap binary installed and available in PATH
// - A data directory holding survey.csv and the registry tables
//
// Usage: go run benchmark/main.go [data-dir]
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (no-cache average, cold run and average of warm runs).
type BenchmarkResult struct {
	Command     string
	Description string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// BenchmarkCase is one command line to measure.
type BenchmarkCase struct {
	Description string
	Args        []string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	DataDir     string
	Timeout     time.Duration
	Workers     int
	NoCacheRuns int
	CacheRuns   int
	Cases       []BenchmarkCase
}

func main() {
	// Parse command line arguments
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [data-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		DataDir:     os.Args[1],
		Timeout:     2 * time.Minute,
		Workers:     8,
		NoCacheRuns: 3,
		CacheRuns:   4,
		Cases: []BenchmarkCase{
			{"indicators (all cohorts)", []string{"indicators"}},
			{"domains (elderly)", []string{"domains", "--cohort", "elderly"}},
			{"compare (elderly vs general)", []string{"compare", "--target-cohort", "elderly"}},
			{"correlations (diabetes)", []string{"correlations", "--target", "diabetes"}},
			{"correlation matrix", []string{"correlations", "--matrix"}},
			{"check (default thresholds)", []string{"check"}},
		},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	// Clear the cache using healthgap cache clear
	fmt.Printf("Clearing cache...\n")
	clearCmd := exec.Command("healthgap", "cache", "clear")
	if output, err := clearCmd.CombinedOutput(); err != nil {
		fmt.Printf("Warning: failed to clear cache: %v\nOutput: %s\n", err, string(output))
	} else {
		fmt.Printf("Cache cleared successfully\n")
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the healthgap binary and the survey file exist
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("healthgap"); err != nil {
		return fmt.Errorf("healthgap binary not found in PATH")
	}
	surveyPath := filepath.Join(config.DataDir, "survey.csv")
	if _, err := os.Stat(surveyPath); os.IsNotExist(err) {
		return fmt.Errorf("survey data not found at %s", surveyPath)
	}
	return nil
}

// runBenchmarks executes every benchmark case
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	fmt.Printf("Starting benchmark: %d cases, %v timeout, %d workers, no-cache: %d runs, cache: %d runs\n",
		len(config.Cases), config.Timeout, config.Workers, config.NoCacheRuns, config.CacheRuns)

	results := make([]BenchmarkResult, 0, len(config.Cases))
	for _, c := range config.Cases {
		results = append(results, runBenchmarkSuite(config, c))
	}
	return results
}

// runBenchmarkSuite runs both no-cache and cache benchmarks for a case
func runBenchmarkSuite(config BenchmarkConfig, c BenchmarkCase) BenchmarkResult {
	fmt.Printf("Running %s\n", c.Description)

	// Helper to run a benchmark phase
	runPhase := func(cacheBackend string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, c.Args, cacheBackend, numRuns)
		if len(times) == 0 {
			return cold, "N/A"
		}
		var sum float64
		for _, t := range times {
			sum += t
		}
		return cold, fmt.Sprintf("%.3fs", sum/float64(len(times)))
	}

	// Phase 1: No-cache runs
	_, noCacheAvg := runPhase("none", config.NoCacheRuns, "No-cache")

	// Phase 2: Cache runs
	coldTime, warmAvg := runPhase("sqlite", config.CacheRuns, "Cache")

	coldTimeStr := "FAILED"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Command:     c.Args[0],
		Description: c.Description,
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark executes a healthgap command multiple times with the given cache backend and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, caseArgs []string, cacheBackend string, numRuns int) (coldTime float64, warmTimes []float64) {
	args := append([]string{}, caseArgs...)
	args = append(args,
		"--data-dir", config.DataDir,
		"--cache-backend", cacheBackend,
		"--workers", fmt.Sprint(config.Workers),
		"--output", "csv",
		"--output-file", os.DevNull,
	)

	var times []float64
	for range numRuns {
		elapsed, err := timeCommand(config.Timeout, args)
		if err != nil {
			fmt.Printf("    run failed: %v\n", err)
			continue
		}
		times = append(times, elapsed)
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// timeCommand runs healthgap once and returns its wall time in seconds.
// The check command exits non-zero on violations, which still counts as a run.
func timeCommand(timeout time.Duration, args []string) (float64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	err := exec.CommandContext(ctx, "healthgap", args...).Run()
	elapsed := time.Since(start).Seconds()

	if ctx.Err() != nil {
		return 0, fmt.Errorf("timed out after %v", timeout)
	}
	var exitErr *exec.ExitError
	if err != nil && !(errors.As(err, &exitErr) && args[0] == "check") {
		return 0, err
	}
	return elapsed, nil
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("healthgap_benchmark_%s.csv", timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	if err := writer.Write([]string{"cmd", "description", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	// Write results
	for _, result := range results {
		if err := writer.Write([]string{result.Command, result.Description, result.NoCacheTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, result := range results {
		fmt.Printf("  %-30s: No-cache: %s, Cold: %s, Warm: %s\n", result.Description, result.NoCacheTime, result.ColdTime, result.WarmTime)
	}
}
