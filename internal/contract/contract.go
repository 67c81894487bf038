// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/healthgap/schema"
)

// SnapshotLoader reads every input table of a data directory into an immutable snapshot.
// This allows the core engine to be tested without CSV files on disk.
type SnapshotLoader interface {
	// Load reads the survey and registry tables. Any required table failing to load is an error.
	Load(ctx context.Context, dataDir string) (*schema.Snapshot, error)
}

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetCorrelationStore() CacheStore
	GetAnalysisStore() AnalysisStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// AnalysisStore defines the interface for tracking analysis runs and storing indicator results.
type AnalysisStore interface {
	// BeginAnalysis creates a new analysis run and returns its unique ID
	BeginAnalysis(startTime time.Time, configParams map[string]any) (int64, error)

	// EndAnalysis updates the analysis run with completion data
	EndAnalysis(analysisID int64, endTime time.Time, totalResults int) error

	// RecordIndicatorResults stores every result row of a run in one transaction
	RecordIndicatorResults(analysisID int64, records []schema.IndicatorResultRecord) error

	// GetStatus returns status information about the analysis store
	GetStatus() (schema.AnalysisStatus, error)

	// GetAllAnalysisRuns returns every run ordered by ID
	GetAllAnalysisRuns() ([]schema.AnalysisRunRecord, error)

	// GetAllIndicatorResults returns every stored result row
	GetAllIndicatorResults() ([]schema.IndicatorResultRecord, error)

	// Close closes the underlying connection
	Close() error
}
