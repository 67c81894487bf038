package iocache

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/huangsam/healthgap/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetGlobals makes InitStores and CloseStores usable again within one test binary.
func resetGlobals(t *testing.T) {
	t.Helper()
	initOnce = sync.Once{}
	closeOnce = sync.Once{}
	Manager = &CacheStoreManager{}
	t.Cleanup(func() {
		CloseStores()
		initOnce = sync.Once{}
		closeOnce = sync.Once{}
		Manager = &CacheStoreManager{}
	})
}

func TestInitStores(t *testing.T) {
	t.Run("single setup", func(t *testing.T) {
		resetGlobals(t)
		dir := t.TempDir()
		cachePath := filepath.Join(dir, "cache.db")

		require.NoError(t, InitStores(schema.SQLiteBackend, cachePath, schema.SQLiteBackend, filepath.Join(dir, "analysis.db")))
		assert.NotNil(t, Manager.GetCorrelationStore())
		assert.NotNil(t, Manager.GetAnalysisStore())

		CloseStores()
		_, err := os.Stat(cachePath)
		assert.NoError(t, err, "Database file should be created")
	})

	t.Run("idempotent setup", func(t *testing.T) {
		resetGlobals(t)
		assert.NoError(t, InitStores(schema.SQLiteBackend, ":memory:", "", ""))
		assert.NoError(t, InitStores(schema.MySQLBackend, "invalid", "", ""), "later calls are no-ops")
		assert.Nil(t, Manager.GetAnalysisStore(), "an empty analysis backend leaves the store unset")

		// Multiple closes should be safe (sync.Once)
		CloseStores()
		CloseStores()
	})

	t.Run("connection failure", func(t *testing.T) {
		resetGlobals(t)
		err := InitStores(schema.MySQLBackend, "invalid://connection", "", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to initialize correlation caching")
	})

	t.Run("none backends", func(t *testing.T) {
		resetGlobals(t)
		require.NoError(t, InitStores(schema.NoneBackend, "", schema.NoneBackend, ""))

		store := Manager.GetCorrelationStore()
		require.NotNil(t, store)
		assert.NoError(t, store.Set("k", []byte("v"), 1, 1000))
		_, _, _, err := store.Get("k")
		assert.Equal(t, sql.ErrNoRows, err, "nothing is persisted")

		id, err := Manager.GetAnalysisStore().BeginAnalysis(time.Now(), nil)
		assert.NoError(t, err)
		assert.Zero(t, id)
	})
}

func TestNewManager(t *testing.T) {
	mgr, err := NewManager(schema.SQLiteBackend, ":memory:", schema.NoneBackend, "")
	require.NoError(t, err)
	defer mgr.Close()

	require.NoError(t, mgr.GetCorrelationStore().Set("key", []byte("data"), 1, 42))
	data, version, ts, err := mgr.GetCorrelationStore().Get("key")
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), data)
	assert.Equal(t, 1, version)
	assert.Equal(t, int64(42), ts)
}

func TestValidateTableName(t *testing.T) {
	tests := []struct {
		name    string
		table   string
		wantErr bool
	}{
		{name: "simple", table: "correlation_cache"},
		{name: "leading underscore", table: "_cache"},
		{name: "digits", table: "cache2"},
		{name: "long", table: strings.Repeat("a", 1000)},
		{name: "empty", table: "", wantErr: true},
		{name: "hyphen", table: "invalid-name", wantErr: true},
		{name: "leading digit", table: "2cache", wantErr: true},
		{name: "injection", table: "t; DROP TABLE x", wantErr: true},
		{name: "unicode", table: "cache_表", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTableName(tt.table)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestQuoteTableName(t *testing.T) {
	assert.Equal(t, "`runs`", quoteTableName("runs", schema.MySQLBackend))
	assert.Equal(t, `"runs"`, quoteTableName("runs", schema.PostgreSQLBackend))
	assert.Equal(t, `"runs"`, quoteTableName("runs", schema.SQLiteBackend))
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "$1, $2, $3", placeholders(schema.PostgreSQLBackend, 3))
	assert.Equal(t, "?, ?, ?", placeholders(schema.MySQLBackend, 3))
	assert.Equal(t, "?", placeholders(schema.SQLiteBackend, 1))
}

func TestDriverName(t *testing.T) {
	tests := map[schema.DatabaseBackend]string{
		schema.SQLiteBackend:     "sqlite",
		schema.MySQLBackend:      "mysql",
		schema.PostgreSQLBackend: "pgx",
	}
	for backend, want := range tests {
		got, err := driverName(backend)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := driverName(schema.NoneBackend)
	assert.Error(t, err)
}

func TestGetUpsertQuery(t *testing.T) {
	tests := []struct {
		backend  schema.DatabaseBackend
		contains string
	}{
		{schema.SQLiteBackend, "INSERT OR REPLACE"},
		{schema.MySQLBackend, "ON DUPLICATE KEY UPDATE"},
		{schema.PostgreSQLBackend, "ON CONFLICT (cache_key) DO UPDATE"},
	}
	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			store := &CacheStoreImpl{tableName: correlationTable, backend: tt.backend}
			assert.Contains(t, store.getUpsertQuery(), tt.contains)
		})
	}
}

func TestGetCreateTableQuery(t *testing.T) {
	assert.Contains(t, getCreateTableQuery("c", schema.SQLiteBackend), "cache_value BLOB")
	assert.Contains(t, getCreateTableQuery("c", schema.MySQLBackend), "cache_value LONGBLOB")
	assert.Contains(t, getCreateTableQuery("c", schema.PostgreSQLBackend), "cache_value BYTEA")
}

func TestNewCacheStoreErrors(t *testing.T) {
	_, err := NewCacheStore("invalid-name", schema.SQLiteBackend, ":memory:")
	assert.Error(t, err, "Expected error for invalid table name")

	_, err = NewCacheStore("test_table", "unsupported", "")
	assert.Error(t, err, "Expected error for unsupported backend")
}

func TestSQLiteBackendOperations(t *testing.T) {
	store, err := NewCacheStore("test_ops", schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	_, _, _, err = store.Get("missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	require.NoError(t, store.Set("matrix", []byte("v1"), 1, 100))
	require.NoError(t, store.Set("matrix", []byte("v2"), 2, 200), "Set replaces existing keys")

	data, version, ts, err := store.Get("matrix")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), data)
	assert.Equal(t, 2, version)
	assert.Equal(t, int64(200), ts)
}

func TestCacheStoreGetStatus(t *testing.T) {
	t.Run("sqlite with data", func(t *testing.T) {
		store, err := NewCacheStore("test_status", schema.SQLiteBackend, ":memory:")
		require.NoError(t, err)
		defer func() { _ = store.Close() }()

		for i, ts := range []int64{1000, 2000, 1500} {
			require.NoError(t, store.Set(string(rune('a'+i)), []byte("value"), 1, ts))
		}

		status, err := store.GetStatus()
		require.NoError(t, err)
		assert.Equal(t, "sqlite", status.Backend)
		assert.True(t, status.Connected)
		assert.Equal(t, 3, status.TotalEntries)
		assert.Equal(t, time.Unix(2000, 0), status.LastEntryTime)
		assert.Equal(t, time.Unix(1000, 0), status.OldestEntryTime)
		assert.Positive(t, status.TableSizeBytes)
	})

	t.Run("sqlite empty", func(t *testing.T) {
		store, err := NewCacheStore("test_empty", schema.SQLiteBackend, ":memory:")
		require.NoError(t, err)
		defer func() { _ = store.Close() }()

		status, err := store.GetStatus()
		require.NoError(t, err)
		assert.Zero(t, status.TotalEntries)
		assert.True(t, status.LastEntryTime.IsZero())
	})

	t.Run("none backend", func(t *testing.T) {
		store, err := NewCacheStore(correlationTable, schema.NoneBackend, "")
		require.NoError(t, err)

		status, err := store.GetStatus()
		require.NoError(t, err)
		assert.Equal(t, "none", status.Backend)
		assert.False(t, status.Connected)
		assert.NoError(t, store.Close())
	})
}

func TestClearCache(t *testing.T) {
	t.Run("sqlite removes file", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "clear.db")
		store, err := NewCacheStore(correlationTable, schema.SQLiteBackend, dbPath)
		require.NoError(t, err)
		require.NoError(t, store.Close())

		require.NoError(t, ClearCache(schema.SQLiteBackend, dbPath, ""))
		_, err = os.Stat(dbPath)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("sqlite missing file", func(t *testing.T) {
		assert.NoError(t, ClearCache(schema.SQLiteBackend, filepath.Join(t.TempDir(), "none.db"), ""))
	})

	t.Run("sqlite empty path", func(t *testing.T) {
		assert.Error(t, ClearCache(schema.SQLiteBackend, "", ""))
	})

	t.Run("none backend", func(t *testing.T) {
		assert.NoError(t, ClearCache(schema.NoneBackend, "", ""))
	})

	t.Run("unsupported backend", func(t *testing.T) {
		assert.Error(t, ClearCache("unsupported", "", ""))
	})
}

func TestCacheStoreManagerConcurrency(t *testing.T) {
	mgr, err := NewManager(schema.SQLiteBackend, ":memory:", "", "")
	require.NoError(t, err)
	defer mgr.Close()

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Go(func() {
			store := mgr.GetCorrelationStore()
			assert.NotNil(t, store)
			assert.NoError(t, store.Set("concurrent_key", []byte("value"), 1, int64(1000+i)))
		})
	}
	wg.Wait()

	_, _, _, err = mgr.GetCorrelationStore().Get("concurrent_key")
	assert.NoError(t, err)
}
