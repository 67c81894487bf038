package core

import (
	"context"
	"testing"

	"github.com/huangsam/healthgap/core/registry"
	"github.com/huangsam/healthgap/internal/ingest"
	"github.com/huangsam/healthgap/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute_WorkerCountDoesNotChangeResults(t *testing.T) {
	reg, err := registry.New()
	require.NoError(t, err)
	snap := testSnapshot(t)

	single, err := Compute(context.Background(), reg, snap, 1)
	require.NoError(t, err)
	many, err := Compute(context.Background(), reg, snap, 8)
	require.NoError(t, err)

	assert.Equal(t, single.All(), many.All())
}

func TestCompute_Cancelled(t *testing.T) {
	reg, err := registry.New()
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = Compute(ctx, reg, testSnapshot(t), 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompute_CellLayout(t *testing.T) {
	results := testResults(t)
	districts := results.GetAvailableDistricts()
	domains := results.GetAvailableDomains()
	require.NotEmpty(t, districts)
	assert.Equal(t, schema.OverallDistrict, districts[0].Name)

	for _, d := range districts {
		for _, domain := range domains {
			for _, cohort := range schema.AllCohorts {
				rows := results.GetIndicatorData(domain, d.Name, cohort, schema.AllIndicators)
				require.NotEmpty(t, rows)
				assert.True(t, rows[0].IsDomainScore)
				assert.Len(t, rows, len(results.Registry().DomainRules(domain))+1)

				score, ok := results.GetDomainScore(domain, d.Name, cohort)
				require.True(t, ok)
				assert.Equal(t, rows[0], score)
			}
		}
	}
}

func TestCompute_GoodnessRange(t *testing.T) {
	for _, r := range testResults(t).All() {
		// Aggregate rules report raw means on their own scale
		if r.Goodness == nil || r.IsDomainScore || r.Kind == schema.AggregateRule {
			continue
		}
		assert.GreaterOrEqual(t, *r.Goodness, 0.0, "%s/%s/%s", r.District, r.Cohort, r.Indicator)
		assert.LessOrEqual(t, *r.Goodness, 100.0, "%s/%s/%s", r.District, r.Cohort, r.Indicator)
	}
}

func TestCompute_FallbackOnlyForGeneralPopulation(t *testing.T) {
	for _, r := range testResults(t).All() {
		if r.Cohort != schema.GeneralPopulationCohort {
			assert.False(t, r.IsCombined, "%s/%s/%s", r.District, r.Cohort, r.Indicator)
			assert.Empty(t, r.FallbackTier)
		}
	}
}

func TestResults_Districts(t *testing.T) {
	results := testResults(t)

	assert.True(t, results.HasDistrict(schema.OverallDistrict))
	assert.True(t, results.HasDistrict("  BANGKOK overall "))
	assert.False(t, results.HasDistrict("Atlantis"))
	assert.Equal(t, schema.OverallDistrict, results.canonicalDistrict(""))

	// Every district record also belongs to the overall group
	overall := results.FilterRecords(schema.OverallDistrict, "")
	assert.Len(t, overall, len(testSnapshot(t).Records))

	elderly := results.FilterRecords(schema.OverallDistrict, schema.ElderlyCohort)
	for _, r := range elderly {
		assert.Equal(t, schema.ElderlyCohort, r.Cohort)
	}
	assert.Nil(t, results.FilterRecords("Atlantis", ""))
}

func TestResults_Accessors(t *testing.T) {
	results := testResults(t)
	assert.Equal(t, testSnapshot(t).Digest, results.Digest())
	assert.NotNil(t, results.Registry())
	assert.Equal(t, results.Registry().Domains(), results.GetAvailableDomains())

	// Callers get a copy of the district list
	districts := results.GetAvailableDistricts()
	districts[0].Name = "changed"
	assert.Equal(t, schema.OverallDistrict, results.GetAvailableDistricts()[0].Name)
}

func BenchmarkCompute(b *testing.B) {
	reg, err := registry.New()
	require.NoError(b, err)
	snap, err := ingest.NewCSVLoader(registry.NewDistrictTable()).Load(context.Background(), testDataDir)
	require.NoError(b, err)

	for b.Loop() {
		if _, err := Compute(context.Background(), reg, snap, 4); err != nil {
			b.Fatal(err)
		}
	}
}
