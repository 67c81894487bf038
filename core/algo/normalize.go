// Package algo has the numeric algorithms: goodness normalization, domain
// scores, Pearson correlation, significance testing and ranking.
package algo

import (
	"math"

	"github.com/huangsam/healthgap/core/registry"
	"github.com/huangsam/healthgap/schema"
)

// Goodness band boundaries of the benchmark rescaling.
const (
	poorScore        = 25.0
	goodScore        = 75.0
	excellentScore   = 100.0
	missingBenchmark = 50.0
)

// Goodness converts a raw value into a 0-100 score where higher is better.
// Reverse indicators flip, supply indicators rescale against their benchmark
// and every other indicator passes through unchanged.
func Goodness(reg *registry.Registry, indicator string, raw float64) float64 {
	rule, ok := reg.Rule(indicator)
	if !ok {
		return raw
	}
	if rule.Reverse {
		return 100 - raw
	}
	if rule.Kind == schema.SupplyRule {
		b, ok := reg.Benchmark(indicator)
		if !ok {
			return missingBenchmark
		}
		return BenchmarkScore(raw, b)
	}
	return raw
}

// BenchmarkScore rescales a value piecewise-linearly against poor/good/excellent thresholds.
func BenchmarkScore(raw float64, b schema.Benchmark) float64 {
	switch {
	case raw >= b.Excellent:
		return excellentScore
	case raw >= b.Good:
		return goodScore + (excellentScore-goodScore)*(raw-b.Good)/(b.Excellent-b.Good)
	case raw >= b.Poor:
		return poorScore + (goodScore-poorScore)*(raw-b.Poor)/(b.Good-b.Poor)
	case b.Poor > 0 && raw > 0:
		return poorScore * raw / b.Poor
	default:
		return 0
	}
}

// Normalize fills in the goodness of a valid result.
func Normalize(reg *registry.Registry, res schema.IndicatorResult) schema.IndicatorResult {
	if !res.Valid() {
		res.Goodness = nil
		return res
	}
	g := round2(Goodness(reg, res.Indicator, *res.Value))
	res.Goodness = &g
	return res
}

// DomainScore averages the goodness of every valid result in one domain.
// A domain without any valid indicator is reported as no data.
func DomainScore(domain schema.Domain, results []schema.IndicatorResult) schema.IndicatorResult {
	score := schema.IndicatorResult{
		Domain:          domain,
		Indicator:       string(domain),
		Label:           schema.DomainLabel(domain),
		IsDomainScore:   true,
		TotalIndicators: len(results),
	}

	var sum float64
	for _, r := range results {
		if !r.Valid() || r.Goodness == nil {
			continue
		}
		sum += *r.Goodness
		score.ValidIndicators++
		score.SampleSize = max(score.SampleSize, r.SampleSize)
	}
	if score.ValidIndicators == 0 {
		score.NoData = true
		return score
	}

	mean := round2(sum / float64(score.ValidIndicators))
	score.Value = &mean
	score.Goodness = &mean
	return score
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
