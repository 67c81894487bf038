package iocache

import (
	"path/filepath"
	"testing"

	"github.com/huangsam/healthgap/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateAnalysis_NoneBackend(t *testing.T) {
	err := MigrateAnalysis(schema.NoneBackend, "", -1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrations are not supported")
}

func TestMigrationsEmbedded(t *testing.T) {
	for _, backend := range []schema.DatabaseBackend{schema.SQLiteBackend, schema.MySQLBackend, schema.PostgreSQLBackend} {
		dir, err := migrationsDir(backend)
		require.NoError(t, err)
		entries, err := migrationsFS.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 4, "%s should carry up and down files for two versions", backend)
	}
}

func TestMigrateAnalysis_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migration.db")

	require.NoError(t, MigrateAnalysis(schema.SQLiteBackend, dbPath, -1))
	require.NoError(t, MigrateAnalysis(schema.SQLiteBackend, dbPath, -1), "second run is a no-op")
	require.NoError(t, MigrateAnalysis(schema.SQLiteBackend, dbPath, 1))
	require.NoError(t, MigrateAnalysis(schema.SQLiteBackend, dbPath, 0))
	require.NoError(t, MigrateAnalysis(schema.SQLiteBackend, dbPath, 2))

	// The store accepts a migrated schema as-is
	store, err := NewAnalysisStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Contains(t, status.TableSizes, indicatorResultsTable)
}

func TestMigrateAnalysis_SQLiteInMemory(t *testing.T) {
	require.NoError(t, MigrateAnalysis(schema.SQLiteBackend, ":memory:", -1))
}
