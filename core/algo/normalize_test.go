package algo

import (
	"math"
	"testing"

	"github.com/huangsam/healthgap/core/registry"
	"github.com/huangsam/healthgap/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestGoodnessReverseSymmetry(t *testing.T) {
	reg := registry.MustNew()
	for _, rule := range reg.Rules() {
		if !rule.Reverse {
			continue
		}
		for raw := 0.0; raw <= 100; raw += 12.5 {
			assert.Equal(t, 100.0, Goodness(reg, rule.Name, raw)+raw, "%s at %.1f", rule.Name, raw)
		}
	}
}

func TestGoodnessPassThrough(t *testing.T) {
	reg := registry.MustNew()
	assert.Equal(t, 63.2, Goodness(reg, "health_coverage", 63.2))
	assert.Equal(t, 40.0, Goodness(reg, "unknown_indicator", 40))
}

func TestGoodnessBenchmark(t *testing.T) {
	reg := registry.MustNew()
	// doctor_per_population: poor 0.5, good 1.0, excellent 2.5
	tests := []struct {
		name     string
		raw      float64
		expected float64
	}{
		{"Above Excellent", 3.0, 100},
		{"At Excellent", 2.5, 100},
		{"Midway Good Excellent", 1.75, 87.5},
		{"At Good", 1.0, 75}, // exactly the good benchmark
		{"Midway Poor Good", 0.75, 50},
		{"At Poor", 0.5, 25},
		{"Half Poor", 0.25, 12.5},
		{"Zero", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Goodness(reg, "doctor_per_population", tt.raw), 1e-9)
		})
	}
}

func TestGoodnessHonorsOverrides(t *testing.T) {
	reg, err := registry.New(registry.WithBenchmarkOverrides(map[string]schema.Benchmark{
		"bed_per_population": {Poor: 5, Good: 10, Excellent: 20},
	}))
	require.NoError(t, err)
	assert.Equal(t, 75.0, Goodness(reg, "bed_per_population", 10))
}

func TestBenchmarkScoreIsMonotonic(t *testing.T) {
	b := schema.Benchmark{Poor: 20, Good: 44.5, Excellent: 60}
	prev := -1.0
	for raw := 0.0; raw <= 80; raw += 0.5 {
		score := BenchmarkScore(raw, b)
		assert.GreaterOrEqual(t, score, prev)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 100.0)
		prev = score
	}
}

func TestNormalize(t *testing.T) {
	reg := registry.MustNew()

	res := Normalize(reg, schema.IndicatorResult{Indicator: "diabetes", Value: ptr(12.34)})
	require.NotNil(t, res.Goodness)
	assert.Equal(t, 87.66, *res.Goodness)

	res = Normalize(reg, schema.IndicatorResult{Indicator: "diabetes", NoData: true, InsufficientSample: true})
	assert.Nil(t, res.Goodness)
}

func TestDomainScore(t *testing.T) {
	results := []schema.IndicatorResult{
		{Indicator: "a", Value: ptr(10), Goodness: ptr(90), SampleSize: 40},
		{Indicator: "b", Value: ptr(60), Goodness: ptr(60), SampleSize: 50},
		{Indicator: "c", NoData: true, InsufficientSample: true, SampleSize: 3},
		{Indicator: "d", NoData: true},
	}

	score := DomainScore(schema.HealthOutcomesDomain, results)
	require.NotNil(t, score.Value)
	assert.Equal(t, 75.0, *score.Value)
	assert.Equal(t, 75.0, *score.Goodness)
	assert.True(t, score.IsDomainScore)
	assert.Equal(t, 2, score.ValidIndicators)
	assert.Equal(t, 4, score.TotalIndicators)
	assert.Equal(t, "Health Outcomes", score.Label)
	assert.Equal(t, 50, score.SampleSize)
}

func TestDomainScoreNoValidIndicators(t *testing.T) {
	score := DomainScore(schema.EducationDomain, []schema.IndicatorResult{
		{Indicator: "a", NoData: true, InsufficientSample: true},
	})
	assert.True(t, score.NoData)
	assert.Nil(t, score.Value)
	assert.Equal(t, 0, score.ValidIndicators)
	assert.Equal(t, 1, score.TotalIndicators)
}

// FuzzGoodness checks bounds and reverse symmetry over arbitrary inputs.
func FuzzGoodness(f *testing.F) {
	reg := registry.MustNew()
	f.Add(0.0)
	f.Add(50.0)
	f.Add(100.0)
	f.Add(1.0)

	f.Fuzz(func(t *testing.T, raw float64) {
		if math.IsNaN(raw) || raw < 0 || raw > 100 {
			t.Skip()
		}
		assert.InDelta(t, 100.0, Goodness(reg, "stroke", raw)+raw, 1e-9)
		score := Goodness(reg, "nurse_per_population", raw)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 100.0)
	})
}
