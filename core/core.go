// Package core has the analysis entry points: it loads a snapshot, computes
// every indicator cell and serves the query surface used by the CLI and MCP.
package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/huangsam/healthgap/core/algo"
	"github.com/huangsam/healthgap/core/registry"
	"github.com/huangsam/healthgap/internal/contract"
	"github.com/huangsam/healthgap/internal/ingest"
	"github.com/huangsam/healthgap/internal/outwriter"
	"github.com/huangsam/healthgap/schema"
)

// ExecutorFunc defines the function signature for executing a command.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error

// LoadResults reads cfg.DataDir and computes every indicator cell.
func LoadResults(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (*Results, error) {
	loader := ingest.NewCSVLoader(registry.NewDistrictTable())
	return runAnalysisCore(ctx, cfg, loader, mgr)
}

// ExecuteIndicators prints the indicator rows selected by cfg.
func ExecuteIndicators(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	results, err := LoadResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	warnUnknownDistrict(results, cfg.District)
	rows := IndicatorData(results, cfg)
	return outwriter.WriteIndicatorResults(rows, cfg, time.Since(start))
}

// ExecuteDomains prints the domain x cohort score matrix of one district.
func ExecuteDomains(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	results, err := LoadResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	warnUnknownDistrict(results, cfg.District)
	return outwriter.WriteDomainScores(DomainScores(results, cfg), cfg, time.Since(start))
}

// ExecuteDistricts prints every district with data.
func ExecuteDistricts(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	results, err := LoadResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.WriteDistricts(results.GetAvailableDistricts(), cfg)
}

// ExecuteCorrelations prints the top correlations of cfg.Target, or the full
// matrix when cfg.Matrix is set.
func ExecuteCorrelations(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	if !cfg.Matrix && cfg.Target == "" {
		return errors.New("--target is required unless --matrix is set")
	}
	results, err := LoadResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	warnUnknownDistrict(results, cfg.District)

	if cfg.Matrix {
		m := CorrelationMatrix(results, cfg, mgr)
		return outwriter.WriteCorrelationMatrix(m, cfg, time.Since(start))
	}
	return outwriter.WriteCorrelations(Correlations(results, cfg, mgr), cfg, time.Since(start))
}

// ExecuteCompare prints the equity gap between two cohorts.
func ExecuteCompare(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	if err := validateCompare(cfg); err != nil {
		return err
	}
	if !shouldSuppressHeader(ctx) {
		logCompareHeader(cfg)
	}
	results, err := LoadResults(WithSuppressHeader(ctx), cfg, mgr)
	if err != nil {
		return err
	}
	warnUnknownDistrict(results, cfg.District)
	return outwriter.WriteComparisonResults(CompareCohorts(results, cfg), cfg, time.Since(start))
}

// ExecuteCheck runs the domain threshold gate over every district and cohort.
// It returns an error when any domain score falls below its threshold.
func ExecuteCheck(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	results, err := LoadResults(WithSuppressHeader(ctx), cfg, mgr)
	if err != nil {
		return err
	}
	result := CheckThresholds(results, cfg)
	printCheckResult(os.Stdout, result, time.Since(start))
	if !result.Passed {
		return fmt.Errorf("%d violation(s) found", len(result.Violations))
	}
	return nil
}

// ExecuteRegistry prints the indicator catalog with the active benchmarks.
func ExecuteRegistry(_ context.Context, cfg *contract.Config, _ contract.CacheManager) error {
	reg, err := loadRegistry(cfg)
	if err != nil {
		return err
	}
	return outwriter.WriteRegistry(RegistryModel(reg, cfg.Domain), cfg)
}

// IndicatorData expands the domain and cohort filters of cfg. An empty
// domain or cohort selects every one, in catalog order.
func IndicatorData(results *Results, cfg *contract.Config) []schema.IndicatorResult {
	var out []schema.IndicatorResult
	for _, cohort := range selectedCohorts(cfg.Cohort) {
		for _, domain := range selectedDomains(results, cfg.Domain) {
			out = append(out, results.GetIndicatorData(domain, cfg.District, cohort, cfg.IndicatorType)...)
		}
	}
	if out == nil {
		return []schema.IndicatorResult{}
	}
	return out
}

// DomainScores builds the domain x cohort score matrix of cfg.District.
func DomainScores(results *Results, cfg *contract.Config) schema.DomainScoreTable {
	table := schema.DomainScoreTable{
		District: results.canonicalDistrict(cfg.District),
		Cohorts:  selectedCohorts(cfg.Cohort),
	}
	for _, domain := range selectedDomains(results, cfg.Domain) {
		row := schema.DomainScoreRow{Domain: domain, Label: schema.DomainLabel(domain)}
		for _, cohort := range table.Cohorts {
			score, ok := results.GetDomainScore(domain, cfg.District, cohort)
			if !ok {
				score = schema.IndicatorResult{Domain: domain, Cohort: cohort, IsDomainScore: true, NoData: true}
			}
			row.Scores = append(row.Scores, score)
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

// Correlations ranks every indicator against cfg.Target within the records
// of cfg.District and cfg.Cohort. An unknown target yields no entries.
func Correlations(results *Results, cfg *contract.Config, mgr contract.CacheManager) schema.CorrelationResult {
	m := CorrelationMatrix(results, cfg, mgr)
	reg := results.Registry()

	entries := GetTopCorrelations(reg, m, cfg.Target, cfg.ResultLimit, cfg.MinCorrelation)
	return schema.CorrelationResult{
		Target:      cfg.Target,
		TargetLabel: reg.Label(cfg.Target),
		District:    results.canonicalDistrict(cfg.District),
		Cohort:      cfg.Cohort,
		SampleSize:  m.SampleSize,
		Entries:     entries,
	}
}

// CorrelationMatrix computes (or reads from cache) the correlation matrix of
// the indicators selected by cfg.
func CorrelationMatrix(results *Results, cfg *contract.Config, mgr contract.CacheManager) *schema.CorrelationMatrix {
	reg := results.Registry()
	return cachedCorrelationMatrix(mgr, matrixRequest{
		digest:     results.Digest(),
		district:   results.canonicalDistrict(cfg.District),
		cohort:     cfg.Cohort,
		indicators: correlationIndicators(reg, cfg.Domain, cfg.Target),
		records:    results.FilterRecords(cfg.District, cfg.Cohort),
		positive:   reg.IsPositive,
		workers:    cfg.Workers,
	})
}

// CalculateCorrelationMatrix computes a Pearson matrix over arbitrary records.
func CalculateCorrelationMatrix(records []*schema.SurveyRecord, names []string, positive algo.PositivityFunc, workers int) *schema.CorrelationMatrix {
	return algo.BuildMatrix(records, names, positive, workers)
}

// GetTopCorrelations ranks the row of target and fills in labels and domains.
func GetTopCorrelations(reg *registry.Registry, m *schema.CorrelationMatrix, target string, topN int, minAbs float64) []schema.CorrelationEntry {
	entries := algo.TopCorrelations(m, target, topN, minAbs)
	for i := range entries {
		entries[i].Label = reg.Label(entries[i].Indicator)
		if rule, ok := reg.Rule(entries[i].Indicator); ok {
			entries[i].Domain = rule.Domain
		}
	}
	return entries
}

// CompareCohorts computes the equity gap of cfg.TargetCohort against cfg.BaseCohort.
func CompareCohorts(results *Results, cfg *contract.Config) schema.ComparisonResult {
	return compareCohorts(results, selectedDomains(results, cfg.Domain), cfg.District, cfg.BaseCohort, cfg.TargetCohort, cfg.ResultLimit)
}

// CheckThresholds applies cfg.DomainThresholds to every district.
func CheckThresholds(results *Results, cfg *contract.Config) *schema.CheckResult {
	return checkThresholds(results, selectedDomains(results, cfg.Domain), selectedCohorts(cfg.Cohort), cfg.DomainThresholds)
}

// RegistryModel builds the catalog listing, optionally for one domain.
func RegistryModel(reg *registry.Registry, domain schema.Domain) schema.RegistryRenderModel {
	model := schema.RegistryRenderModel{
		Title:       "Health Equity Indicators",
		Description: "Goodness is 0-100 where higher is better; reverse indicators are flipped and supply rates are scored against benchmarks",
		Entries:     []schema.RegistryEntry{},
	}
	for _, entry := range reg.Entries() {
		if domain == "" || entry.Domain == domain {
			model.Entries = append(model.Entries, entry)
		}
	}
	return model
}

// validateCompare checks the cohorts of a comparison.
func validateCompare(cfg *contract.Config) error {
	if cfg.TargetCohort == "" {
		return errors.New("--target-cohort is required")
	}
	if cfg.TargetCohort == cfg.BaseCohort {
		return fmt.Errorf("--target-cohort must differ from --base-cohort (%s)", cfg.BaseCohort)
	}
	return nil
}

// correlationIndicators returns the per-record indicators of a domain, or of
// the whole catalog, with the target prepended when it is outside that set.
func correlationIndicators(reg *registry.Registry, domain schema.Domain, target string) []string {
	names := reg.CorrelatableIndicators(domain)
	if target == "" {
		return names
	}
	for _, name := range names {
		if name == target {
			return names
		}
	}
	if rule, ok := reg.Rule(target); ok && rule.Correlatable() {
		return append([]string{target}, names...)
	}
	return names
}

// selectedDomains returns the requested domain, or every domain when empty.
func selectedDomains(results *Results, domain schema.Domain) []schema.Domain {
	if domain != "" {
		return []schema.Domain{domain}
	}
	return results.GetAvailableDomains()
}

// selectedCohorts returns the requested cohort, or every cohort when empty.
func selectedCohorts(cohort schema.Cohort) []schema.Cohort {
	if cohort != "" {
		return []schema.Cohort{cohort}
	}
	return schema.AllCohorts
}

// warnUnknownDistrict reports a district that has no results.
func warnUnknownDistrict(results *Results, district string) {
	if !results.HasDistrict(district) {
		contract.LogWarn("No results for district", fmt.Errorf("%q is not a known district with data", district))
	}
}
