//go:build basic

package integration

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/healthgap/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readJSON decodes a JSON output file written by the CLI.
func readJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}

// noStores keeps tests away from the home directory databases.
func noStores(t *testing.T) {
	t.Setenv("HEALTHGAP_CACHE_BACKEND", "none")
	t.Setenv("HEALTHGAP_ANALYSIS_BACKEND", "none")
}

// TestDomainScoreVerification checks that each domain score lies within the
// goodness range of the indicators it summarizes.
func TestDomainScoreVerification(t *testing.T) {
	noStores(t)
	out := filepath.Join(t.TempDir(), "indicators.json")
	_, err := runHealthgap(t, "indicators", "--cohort", "elderly", "--output", "json", "--output-file", out)
	require.NoError(t, err)

	var rows []schema.IndicatorResult
	readJSON(t, out, &rows)
	require.NotEmpty(t, rows)

	var current *schema.IndicatorResult
	lo, hi := math.Inf(1), math.Inf(-1)
	check := func() {
		if current == nil || current.Goodness == nil {
			return
		}
		assert.GreaterOrEqual(t, *current.Goodness, lo-0.01, "domain %s", current.Domain)
		assert.LessOrEqual(t, *current.Goodness, hi+0.01, "domain %s", current.Domain)
		assert.LessOrEqual(t, current.ValidIndicators, current.TotalIndicators)
	}
	for i := range rows {
		r := rows[i]
		assert.Equal(t, schema.ElderlyCohort, r.Cohort)
		if r.IsDomainScore {
			check()
			current, lo, hi = &rows[i], math.Inf(1), math.Inf(-1)
			continue
		}
		require.NotNil(t, current, "a domain score precedes its indicators")
		assert.Equal(t, current.Domain, r.Domain)
		if r.Goodness != nil && r.Valid() {
			if r.Kind != schema.AggregateRule {
				assert.GreaterOrEqual(t, *r.Goodness, 0.0)
				assert.LessOrEqual(t, *r.Goodness, 100.0)
			}
			lo, hi = min(lo, *r.Goodness), max(hi, *r.Goodness)
		}
	}
	check()
}

// TestCompareVerification checks the gap arithmetic of every comparison row.
func TestCompareVerification(t *testing.T) {
	noStores(t)
	out := filepath.Join(t.TempDir(), "compare.json")
	_, err := runHealthgap(t, "compare", "--target-cohort", "elderly", "--output", "json", "--output-file", out)
	require.NoError(t, err)

	var result schema.ComparisonResult
	readJSON(t, out, &result)
	assert.Equal(t, schema.GeneralPopulationCohort, result.BaseCohort)
	assert.Equal(t, schema.ElderlyCohort, result.TargetCohort)
	require.NotEmpty(t, result.Details)

	for i, d := range result.Details {
		if d.Status != schema.ComparedStatus {
			continue
		}
		require.NotNil(t, d.BaseGoodness)
		require.NotNil(t, d.TargetGoodness)
		assert.InDelta(t, *d.TargetGoodness-*d.BaseGoodness, d.Delta, 0.01, "indicator %s", d.Indicator)
		if i > 0 {
			prev := result.Details[i-1]
			assert.Equal(t, schema.ComparedStatus, prev.Status, "compared rows come first")
			assert.GreaterOrEqual(t, abs(prev.Delta), abs(d.Delta), "largest gap first")
		}
	}
}

// TestCheckVerification checks the exit status of the threshold gate.
func TestCheckVerification(t *testing.T) {
	noStores(t)

	t.Run("unreachable thresholds fail", func(t *testing.T) {
		out, err := runHealthgap(t, "check", "--thresholds-override", "education:100,health_outcomes:100")
		require.Error(t, err)
		assert.Contains(t, out, "violation")
	})

	t.Run("zero thresholds pass", func(t *testing.T) {
		overrides := "economic_security:0,education:0,healthcare_access:0,physical_environment:0,social_context:0,health_behaviors:0,health_outcomes:0"
		out, err := runHealthgap(t, "check", "--thresholds-override", overrides)
		require.NoError(t, err)
		assert.Contains(t, out, "All domain scores met their thresholds")
	})
}

// TestCorrelationsVerification checks ranking and filtering of correlations.
func TestCorrelationsVerification(t *testing.T) {
	noStores(t)
	out := filepath.Join(t.TempDir(), "correlations.json")
	_, err := runHealthgap(t, "correlations", "--target", "diabetes", "--min-correlation", "0.05",
		"--output", "json", "--output-file", out)
	require.NoError(t, err)

	var result schema.CorrelationResult
	readJSON(t, out, &result)
	assert.Equal(t, "diabetes", result.Target)
	for i, e := range result.Entries {
		assert.Equal(t, i+1, e.Rank)
		assert.NotEqual(t, "diabetes", e.Indicator)
		assert.GreaterOrEqual(t, abs(e.Correlation), 0.05)
		assert.LessOrEqual(t, abs(e.Correlation), 1.0)
		if i > 0 {
			assert.GreaterOrEqual(t, abs(result.Entries[i-1].Correlation), abs(e.Correlation))
		}
	}
}

// TestDistrictsAndRegistry checks the listing commands.
func TestDistrictsAndRegistry(t *testing.T) {
	noStores(t)
	dir := t.TempDir()

	districtsOut := filepath.Join(dir, "districts.json")
	_, err := runHealthgap(t, "districts", "--output", "json", "--output-file", districtsOut)
	require.NoError(t, err)
	var districts []schema.DistrictInfo
	readJSON(t, districtsOut, &districts)
	assert.NotEmpty(t, districts)

	registryOut := filepath.Join(dir, "registry.json")
	_, err = runHealthgap(t, "registry", "--output", "json", "--output-file", registryOut)
	require.NoError(t, err)
	data, err := os.ReadFile(registryOut)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"diabetes"`)
}

// TestInvalidFlags checks that bad input fails before any analysis runs.
func TestInvalidFlags(t *testing.T) {
	noStores(t)
	tests := []struct {
		name string
		args []string
	}{
		{"unknown cohort", []string{"indicators", "--cohort", "teenagers"}},
		{"unknown domain", []string{"domains", "--domain", "weather"}},
		{"same cohorts", []string{"compare", "--target-cohort", "general_population"}},
		{"missing target", []string{"correlations"}},
		{"bad output", []string{"indicators", "--output", "xml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runHealthgap(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
