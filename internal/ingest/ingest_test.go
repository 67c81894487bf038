package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/huangsam/healthgap/core/registry"
	"github.com/huangsam/healthgap/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testdataDir = "../../testdata"

// writeDataDir writes a minimal valid data directory and applies overrides by file name.
func writeDataDir(t *testing.T, overrides map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		SurveyFile: "\ufeffDName , Age,SEX,disable_status,occupation_status,occupation_contract,occupation_type,welfare\n" +
			"1001,34,1,0,1,0,3,other\n" +
			"Dusit,72,2,0,0,,,1\n" +
			"1002.0,25,lgbt,0,1,1,5,2\n" +
			"Atlantis,40,1,1,0,,,\n",
		HealthSupplyFile: "dname,doctor_count,nurse_count,health_worker_count,bed_count\n" +
			"1001,10,20,30,40\n" +
			"1001,5,,1,1\n" +
			"Nowhere,1,1,1,1\n",
		HealthFacilitiesFile:      "dname,facility_type\nPhra Nakhon,clinic\n1002,hospital\n",
		DistrictPopulationFile:    "dname,population\n1001,1000\n1002,n/a\n1002,2000\n",
		CommunityHealthWorkerFile: "dname,chw_count\n1001,7\n",
		CommunityPopulationFile:   "dname,population\n1001,700\n",
		CityFallbackFile:          "indicator,score\nTobacco_Use,17.5\nbroken,abc\n",
		DistrictFallbackFile:      "dname,indicator,score\n1001,tobacco_use,20\n",
	}
	for name, content := range overrides {
		files[name] = content
	}
	for name, content := range files {
		if content == "" {
			continue
		}
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	return dir
}

func TestLoad(t *testing.T) {
	dir := writeDataDir(t, nil)
	loader := NewCSVLoader(registry.NewDistrictTable())

	snap, err := loader.Load(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, snap.Records, 4)

	first := snap.Records[0]
	assert.Equal(t, 1001, first.DistrictCode)
	assert.Equal(t, "Phra Nakhon", first.DistrictName)
	assert.Equal(t, schema.InformalWorkersCohort, first.Cohort)
	age, ok := first.Number("age")
	require.True(t, ok, "headers are trimmed and lower-cased")
	assert.Equal(t, 34.0, age)
	welfare, ok := first.TextValue("welfare")
	require.True(t, ok)
	assert.Equal(t, "other", welfare)

	second := snap.Records[1]
	assert.Equal(t, 1002, second.DistrictCode, "names resolve to codes")
	assert.Equal(t, schema.ElderlyCohort, second.Cohort)
	_, ok = second.Number("occupation_contract")
	assert.False(t, ok, "empty cells are missing")

	third := snap.Records[2]
	assert.Equal(t, 1002, third.DistrictCode, "float codes are accepted")
	assert.Equal(t, schema.LGBTQCohort, third.Cohort)

	unknown := snap.Records[3]
	assert.Equal(t, 0, unknown.DistrictCode)
	assert.Equal(t, "Atlantis", unknown.DistrictName)
	assert.Equal(t, schema.DisabledCohort, unknown.Cohort)

	require.Len(t, snap.HealthSupply, 2, "unresolvable districts are dropped")
	assert.Equal(t, 10.0, snap.HealthSupply[0].Counts["doctor_count"])
	_, ok = snap.HealthSupply[1].Counts["nurse_count"]
	assert.False(t, ok)

	require.Len(t, snap.Facilities, 2)
	assert.Equal(t, 1001, snap.Facilities[0].DistrictCode)

	require.Len(t, snap.DistrictPopulation, 2, "non-numeric populations are dropped")
	assert.Equal(t, int64(2000), snap.DistrictPopulation[1].Population)

	assert.Equal(t, map[string]float64{"tobacco_use": 17.5}, snap.CityFallback)
	assert.Equal(t, 20.0, snap.DistrictFallback[1001]["tobacco_use"])
	assert.Len(t, snap.Digest, 64)
}

func TestLoadMissingFile(t *testing.T) {
	dir := writeDataDir(t, nil)
	require.NoError(t, os.Remove(filepath.Join(dir, CommunityPopulationFile)))

	_, err := NewCSVLoader(registry.NewDistrictTable()).Load(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), CommunityPopulationFile)
}

func TestLoadMissingColumn(t *testing.T) {
	dir := writeDataDir(t, map[string]string{
		DistrictPopulationFile: "dname,people\n1001,5\n",
	})

	_, err := NewCSVLoader(registry.NewDistrictTable()).Load(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "population")
}

func TestLoadEmptyFile(t *testing.T) {
	dir := writeDataDir(t, nil)
	require.NoError(t, os.WriteFile(filepath.Join(dir, CityFallbackFile), nil, 0o600))

	_, err := NewCSVLoader(registry.NewDistrictTable()).Load(context.Background(), dir)
	assert.ErrorContains(t, err, "empty file")
}

func TestLoadCanceled(t *testing.T) {
	dir := writeDataDir(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCSVLoader(registry.NewDistrictTable()).Load(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDigestChangesWithContent(t *testing.T) {
	loader := NewCSVLoader(registry.NewDistrictTable())
	a, err := loader.Load(context.Background(), writeDataDir(t, nil))
	require.NoError(t, err)
	b, err := loader.Load(context.Background(), writeDataDir(t, nil))
	require.NoError(t, err)
	assert.Equal(t, a.Digest, b.Digest)

	c, err := loader.Load(context.Background(), writeDataDir(t, map[string]string{
		CommunityHealthWorkerFile: "dname,chw_count\n1001,8\n",
	}))
	require.NoError(t, err)
	assert.NotEqual(t, a.Digest, c.Digest)
}

func TestLoadTestdata(t *testing.T) {
	snap, err := NewCSVLoader(registry.NewDistrictTable()).Load(context.Background(), testdataDir)
	require.NoError(t, err)

	assert.Len(t, snap.Records, 260)
	assert.Len(t, snap.DistrictPopulation, 4)
	assert.NotEmpty(t, snap.CityFallback)

	groups := map[schema.Cohort]int{}
	for _, r := range snap.Records {
		groups[r.Cohort]++
	}
	assert.Positive(t, groups[schema.GeneralPopulationCohort])
	assert.Positive(t, groups[schema.ElderlyCohort])
	assert.Positive(t, groups[schema.LGBTQCohort])
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "dname", normalizeHeader("\ufeff DName "))
	assert.Equal(t, "age", normalizeHeader("AGE"))
	assert.Equal(t, "", normalizeHeader("  "))
}

func TestFiles(t *testing.T) {
	files := Files()
	assert.Len(t, files, 8)
	assert.Equal(t, SurveyFile, files[0])
	for _, f := range files {
		assert.True(t, strings.HasSuffix(f, ".csv"))
	}
}

func BenchmarkLoad(b *testing.B) {
	loader := NewCSVLoader(registry.NewDistrictTable())
	ctx := context.Background()

	for b.Loop() {
		if _, err := loader.Load(ctx, testdataDir); err != nil {
			b.Fatal(err)
		}
	}
}
