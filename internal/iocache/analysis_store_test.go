package iocache

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/healthgap/internal/contract"
	"github.com/huangsam/healthgap/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func newSQLiteAnalysisStore(t *testing.T) contract.AnalysisStore {
	t.Helper()
	store, err := NewAnalysisStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleRecords(analysisID int64, at time.Time) []schema.IndicatorResultRecord {
	return []schema.IndicatorResultRecord{
		{
			AnalysisID: analysisID, Domain: "education", District: "Bangkok Overall", Cohort: "elderly",
			Indicator: "education", Value: ptr(61.5), Goodness: ptr(61.5), SampleSize: 40,
			IsDomainScore: true, AnalysisTime: at,
		},
		{
			AnalysisID: analysisID, Domain: "education", District: "Bangkok Overall", Cohort: "elderly",
			Indicator: "literacy", Value: ptr(88.0), Goodness: ptr(88.0), SampleSize: 40, AnalysisTime: at,
		},
		{
			AnalysisID: analysisID, Domain: "health_behaviors", District: "Dusit", Cohort: "lgbtq",
			Indicator: "exercise", SampleSize: 3, InsufficientSample: true, AnalysisTime: at,
		},
	}
}

func TestAnalysisStore_NoneBackend(t *testing.T) {
	store, err := NewAnalysisStore(schema.NoneBackend, "")
	require.NoError(t, err)

	id, err := store.BeginAnalysis(time.Now(), map[string]any{"district": "Dusit"})
	assert.NoError(t, err)
	assert.Zero(t, id)
	assert.NoError(t, store.EndAnalysis(id, time.Now(), 10))
	assert.NoError(t, store.RecordIndicatorResults(id, sampleRecords(id, time.Now())))

	runs, err := store.GetAllAnalysisRuns()
	assert.NoError(t, err)
	assert.Empty(t, runs)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.NoError(t, store.Close())
}

func TestAnalysisStore_UnsupportedBackend(t *testing.T) {
	_, err := NewAnalysisStore("oracle", "")
	assert.Error(t, err)
}

func TestAnalysisStore_BeginEndAnalysis(t *testing.T) {
	store := newSQLiteAnalysisStore(t)
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	id, err := store.BeginAnalysis(start, map[string]any{"district": "Dusit", "workers": 4})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	require.NoError(t, store.EndAnalysis(id, start.Add(1500*time.Millisecond), 3))

	runs, err := store.GetAllAnalysisRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)

	run := runs[0]
	assert.Equal(t, id, run.AnalysisID)
	_, err = uuid.Parse(run.RunUUID)
	assert.NoError(t, err, "runs carry a UUID")
	assert.True(t, start.Equal(run.StartTime))
	require.NotNil(t, run.EndTime)
	require.NotNil(t, run.RunDurationMs)
	assert.Equal(t, int32(1500), *run.RunDurationMs)
	assert.Equal(t, int32(3), run.TotalResults)

	require.NotNil(t, run.ConfigParams)
	var params map[string]any
	require.NoError(t, json.Unmarshal([]byte(*run.ConfigParams), &params))
	assert.Equal(t, "Dusit", params["district"])
}

func TestAnalysisStore_EndUnknownRun(t *testing.T) {
	store := newSQLiteAnalysisStore(t)
	err := store.EndAnalysis(99, time.Now(), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get start_time for analysis 99")
}

func TestAnalysisStore_RecordIndicatorResults(t *testing.T) {
	store := newSQLiteAnalysisStore(t)
	at := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	id, err := store.BeginAnalysis(at, nil)
	require.NoError(t, err)
	require.NoError(t, store.RecordIndicatorResults(id, sampleRecords(id, at)))
	require.NoError(t, store.RecordIndicatorResults(id, nil), "empty batches are skipped")

	results, err := store.GetAllIndicatorResults()
	require.NoError(t, err)
	require.Len(t, results, 3)

	// Ordered by district, cohort, domain, then domain score first
	assert.Equal(t, "education", results[0].Indicator)
	assert.True(t, results[0].IsDomainScore)
	assert.Equal(t, "literacy", results[1].Indicator)
	require.NotNil(t, results[1].Value)
	assert.InDelta(t, 88.0, *results[1].Value, 1e-9)

	missing := results[2]
	assert.Equal(t, "Dusit", missing.District)
	assert.Nil(t, missing.Value)
	assert.Nil(t, missing.Goodness)
	assert.True(t, missing.InsufficientSample)
	assert.True(t, at.Equal(missing.AnalysisTime))
}

func TestAnalysisStore_RecordIsAtomic(t *testing.T) {
	store := newSQLiteAnalysisStore(t)
	at := time.Now()

	id, err := store.BeginAnalysis(at, nil)
	require.NoError(t, err)

	records := sampleRecords(id, at)
	records = append(records, records[0]) // duplicate primary key
	require.Error(t, store.RecordIndicatorResults(id, records))

	results, err := store.GetAllIndicatorResults()
	require.NoError(t, err)
	assert.Empty(t, results, "a failed batch leaves no partial rows")
}

func TestAnalysisStore_MultipleRuns(t *testing.T) {
	store := newSQLiteAnalysisStore(t)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := range 3 {
		start := base.Add(time.Duration(i) * time.Hour)
		id, err := store.BeginAnalysis(start, nil)
		require.NoError(t, err)
		require.NoError(t, store.RecordIndicatorResults(id, sampleRecords(id, start)))
		require.NoError(t, store.EndAnalysis(id, start.Add(time.Second), 3))
	}

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", status.Backend)
	assert.True(t, status.Connected)
	assert.Equal(t, 3, status.TotalRuns)
	assert.Equal(t, int64(3), status.LastRunID)
	assert.NotEmpty(t, status.LastRunUUID)
	assert.True(t, base.Add(2*time.Hour).Equal(status.LastRunTime))
	assert.True(t, base.Equal(status.OldestRunTime))
	assert.Equal(t, 9, status.TotalResults)
	assert.Equal(t, int64(3), status.TableSizes[analysisRunsTable])
	assert.Equal(t, int64(9), status.TableSizes[indicatorResultsTable])
}

func TestClearAnalysis(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "analysis.db")
	store, err := NewAnalysisStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	require.NoError(t, ClearAnalysis(schema.SQLiteBackend, dbPath, ""))
	assert.NoFileExists(t, dbPath)
	assert.NoError(t, ClearAnalysis(schema.NoneBackend, "", ""))
}

func TestParseTime(t *testing.T) {
	want := time.Date(2025, 6, 1, 9, 30, 0, 123, time.UTC)

	for name, raw := range map[string]any{
		"native": want,
		"text":   want.Format(time.RFC3339Nano),
		"bytes":  []byte(want.Format(time.RFC3339Nano)),
	} {
		t.Run(name, func(t *testing.T) {
			got, err := parseTime(raw)
			require.NoError(t, err)
			assert.True(t, want.Equal(got))
		})
	}

	_, err := parseTime(int64(5))
	assert.Error(t, err)
}

func TestExecuteAnalysisExport(t *testing.T) {
	store := newSQLiteAnalysisStore(t)
	at := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	id, err := store.BeginAnalysis(at, nil)
	require.NoError(t, err)
	require.NoError(t, store.RecordIndicatorResults(id, sampleRecords(id, at)))
	require.NoError(t, store.EndAnalysis(id, at.Add(time.Second), 3))

	out := filepath.Join(t.TempDir(), "export")
	require.NoError(t, ExecuteAnalysisExport(store, out))
	assert.FileExists(t, out+".analysis_runs.parquet")
	assert.FileExists(t, out+".indicator_results.parquet")
}

func TestExecuteAnalysisExportErrors(t *testing.T) {
	t.Run("missing output file", func(t *testing.T) {
		err := ExecuteAnalysisExport(&MockAnalysisStore{}, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--output-file")
	})

	t.Run("no runs", func(t *testing.T) {
		store := &MockAnalysisStore{}
		store.On("GetStatus").Return(schema.AnalysisStatus{Backend: "sqlite", Connected: true}, nil)

		err := ExecuteAnalysisExport(store, filepath.Join(t.TempDir(), "x"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no analysis data found")
		store.AssertExpectations(t)
	})

	t.Run("status failure", func(t *testing.T) {
		store := &MockAnalysisStore{}
		store.On("GetStatus").Return(schema.AnalysisStatus{}, assert.AnError)

		err := ExecuteAnalysisExport(store, "out")
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestPrintStatus(t *testing.T) {
	t.Run("cache", func(t *testing.T) {
		var buf bytes.Buffer
		PrintCacheStatus(&buf, schema.CacheStatus{
			Backend: "sqlite", Connected: true, TotalEntries: 2,
			LastEntryTime: time.Unix(2000, 0), OldestEntryTime: time.Unix(1000, 0), TableSizeBytes: 4096,
		})
		assert.Contains(t, buf.String(), "Cache Backend: sqlite")
		assert.Contains(t, buf.String(), "Cached Matrices: 2")
		assert.Contains(t, buf.String(), "Table Size: 4096 bytes")
	})

	t.Run("cache disconnected", func(t *testing.T) {
		var buf bytes.Buffer
		PrintCacheStatus(&buf, schema.CacheStatus{Backend: "none"})
		assert.Equal(t, "Cache Backend: none\nConnected: false\n", buf.String())
	})

	t.Run("analysis", func(t *testing.T) {
		var buf bytes.Buffer
		PrintAnalysisStatus(&buf, schema.AnalysisStatus{
			Backend: "sqlite", Connected: true, TotalRuns: 1, LastRunID: 1, LastRunUUID: "abc",
			TotalResults: 3,
			TableSizes:   map[string]int64{indicatorResultsTable: 3, analysisRunsTable: 1},
		})
		out := buf.String()
		assert.Contains(t, out, "Last Run ID: 1 (abc)")
		assert.Contains(t, out, "Total Indicator Results: 3")
		assert.Less(t,
			bytes.Index(buf.Bytes(), []byte(analysisRunsTable)),
			bytes.Index(buf.Bytes(), []byte(indicatorResultsTable)),
			"tables are listed in name order")
	})
}
