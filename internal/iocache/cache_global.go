package iocache

import (
	"database/sql"
	"fmt"
	"os"
	"sync"

	"github.com/huangsam/healthgap/internal/contract"
	"github.com/huangsam/healthgap/schema"
)

// correlationTable is the name of the table for correlation matrix caching.
const correlationTable = "correlation_cache"

// Global Manager instance for main logic.
var (
	Manager   = &CacheStoreManager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// GetDBFilePath returns the path to the SQLite DB file for cache storage.
func GetDBFilePath() string {
	return contract.GetCacheDBFilePath()
}

// GetAnalysisDBFilePath returns the path to the SQLite DB file for analysis storage.
func GetAnalysisDBFilePath() string {
	return contract.GetAnalysisDBFilePath()
}

// InitStores initializes the global manager with separate cache and analysis stores.
// An empty backend leaves the matching store unset.
func InitStores(cacheBackend schema.DatabaseBackend, cacheConnStr string, analysisBackend schema.DatabaseBackend, analysisConnStr string) error {
	var initErr error

	initOnce.Do(func() {
		correlationStore, analysisStore, err := newStores(cacheBackend, cacheConnStr, analysisBackend, analysisConnStr)
		if err != nil {
			initErr = err
			return
		}

		Manager.Lock()
		defer Manager.Unlock()
		Manager.correlation = correlationStore
		Manager.analysis = analysisStore
	})

	return initErr
}

// NewManager builds a standalone manager, mainly for tests and the MCP server.
func NewManager(cacheBackend schema.DatabaseBackend, cacheConnStr string, analysisBackend schema.DatabaseBackend, analysisConnStr string) (*CacheStoreManager, error) {
	correlationStore, analysisStore, err := newStores(cacheBackend, cacheConnStr, analysisBackend, analysisConnStr)
	if err != nil {
		return nil, err
	}
	return &CacheStoreManager{correlation: correlationStore, analysis: analysisStore}, nil
}

func newStores(cacheBackend schema.DatabaseBackend, cacheConnStr string, analysisBackend schema.DatabaseBackend, analysisConnStr string) (contract.CacheStore, contract.AnalysisStore, error) {
	var correlationStore contract.CacheStore
	if cacheBackend != "" {
		store, err := NewCacheStore(correlationTable, cacheBackend, cacheConnStr)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize correlation caching: %w", err)
		}
		correlationStore = store
	}

	var analysisStore contract.AnalysisStore
	if analysisBackend != "" {
		store, err := NewAnalysisStore(analysisBackend, analysisConnStr)
		if err != nil {
			if correlationStore != nil {
				_ = correlationStore.Close()
			}
			return nil, nil, fmt.Errorf("failed to initialize analysis store: %w", err)
		}
		analysisStore = store
	}
	return correlationStore, analysisStore, nil
}

// Close releases both stores held by the manager.
func (mgr *CacheStoreManager) Close() {
	mgr.Lock()
	defer mgr.Unlock()
	if mgr.correlation != nil {
		_ = mgr.correlation.Close()
	}
	if mgr.analysis != nil {
		_ = mgr.analysis.Close()
	}
}

// CloseStores should be called on application shutdown.
func CloseStores() { // called in main defer
	closeOnce.Do(Manager.Close)
}

// ClearCache clears the correlation cache for the specified backend.
// For SQLite, it deletes the database file.
// For SQL backends (MySQL/PostgreSQL), it drops the table.
// For NoneBackend, it does nothing.
func ClearCache(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	return clearBackend(backend, dbFilePath, connStr, correlationTable)
}

// ClearAnalysis clears the analysis data for the specified backend.
func ClearAnalysis(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	return clearBackend(backend, dbFilePath, connStr, indicatorResultsTable, analysisRunsTable)
}

func clearBackend(backend schema.DatabaseBackend, dbFilePath, connStr string, tables ...string) error {
	switch backend {
	case schema.SQLiteBackend:
		if dbFilePath == "" {
			return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
		}
		// Remove the file; ignore if it doesn't exist
		if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
		}
		return nil

	case schema.MySQLBackend, schema.PostgreSQLBackend:
		db, err := openDB(backend, connStr, "")
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		for _, table := range tables {
			if err := dropTable(db, backend, table); err != nil {
				return err
			}
		}
		return nil

	case schema.NoneBackend:
		return nil

	default:
		return fmt.Errorf("unsupported backend for clearing: %s", backend)
	}
}

// dropTable drops the table if it exists.
func dropTable(db *sql.DB, backend schema.DatabaseBackend, tableName string) error {
	query := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteTableName(tableName, backend))
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", tableName, err)
	}
	return nil
}
