package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/healthgap/internal/contract"
	"github.com/huangsam/healthgap/schema"
)

// Table names for analysis tracking.
const (
	analysisRunsTable      = "healthgap_analysis_runs"
	indicatorResultsTable  = "healthgap_indicator_results"
	indicatorResultColumns = `analysis_id, domain, district, cohort, indicator, value, goodness, sample_size,
		no_data, insufficient_sample, is_combined, combination_method, is_domain_score, analysis_time`
)

// AnalysisStoreImpl implements the AnalysisStore interface.
type AnalysisStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.AnalysisStore = &AnalysisStoreImpl{} // Compile-time check

// NewAnalysisStore creates a new AnalysisStore with the specified backend.
// MySQL connection strings need parseTime=true so timestamps scan into time.Time.
func NewAnalysisStore(backend schema.DatabaseBackend, connStr string) (contract.AnalysisStore, error) {
	if backend == schema.NoneBackend {
		// Return a no-op store for disabled tracking
		return &AnalysisStoreImpl{backend: backend}, nil
	}

	db, err := openDB(backend, connStr, GetAnalysisDBFilePath())
	if err != nil {
		return nil, err
	}

	if err := createAnalysisTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create analysis tables: %w", err)
	}

	return &AnalysisStoreImpl{db: db, backend: backend}, nil
}

// createAnalysisTables creates the analysis tracking tables.
func createAnalysisTables(db *sql.DB, backend schema.DatabaseBackend) error {
	tables := []struct {
		name  string
		query string
	}{
		{analysisRunsTable, getCreateAnalysisRunsQuery(backend)},
		{indicatorResultsTable, getCreateIndicatorResultsQuery(backend)},
	}

	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}
	return nil
}

// getCreateAnalysisRunsQuery returns the CREATE TABLE query for healthgap_analysis_runs.
func getCreateAnalysisRunsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(analysisRunsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				analysis_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				run_uuid CHAR(36) NOT NULL,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms INT,
				total_results INT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				analysis_id BIGSERIAL PRIMARY KEY,
				run_uuid TEXT NOT NULL,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms INT,
				total_results INT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				analysis_id INTEGER PRIMARY KEY AUTOINCREMENT,
				run_uuid TEXT NOT NULL,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				total_results INTEGER NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)
	}
}

// getCreateIndicatorResultsQuery returns the CREATE TABLE query for healthgap_indicator_results.
func getCreateIndicatorResultsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(indicatorResultsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				analysis_id BIGINT NOT NULL,
				domain VARCHAR(64) NOT NULL,
				district VARCHAR(128) NOT NULL,
				cohort VARCHAR(64) NOT NULL,
				indicator VARCHAR(128) NOT NULL,
				value DOUBLE,
				goodness DOUBLE,
				sample_size INT NOT NULL,
				no_data BOOLEAN NOT NULL,
				insufficient_sample BOOLEAN NOT NULL,
				is_combined BOOLEAN NOT NULL,
				combination_method VARCHAR(64) NOT NULL,
				is_domain_score BOOLEAN NOT NULL,
				analysis_time DATETIME(6) NOT NULL,
				PRIMARY KEY (analysis_id, district, cohort, domain, indicator, is_domain_score)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				analysis_id BIGINT NOT NULL,
				domain TEXT NOT NULL,
				district TEXT NOT NULL,
				cohort TEXT NOT NULL,
				indicator TEXT NOT NULL,
				value DOUBLE PRECISION,
				goodness DOUBLE PRECISION,
				sample_size INT NOT NULL,
				no_data BOOLEAN NOT NULL,
				insufficient_sample BOOLEAN NOT NULL,
				is_combined BOOLEAN NOT NULL,
				combination_method TEXT NOT NULL,
				is_domain_score BOOLEAN NOT NULL,
				analysis_time TIMESTAMPTZ NOT NULL,
				PRIMARY KEY (analysis_id, district, cohort, domain, indicator, is_domain_score)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				analysis_id INTEGER NOT NULL,
				domain TEXT NOT NULL,
				district TEXT NOT NULL,
				cohort TEXT NOT NULL,
				indicator TEXT NOT NULL,
				value REAL,
				goodness REAL,
				sample_size INTEGER NOT NULL,
				no_data INTEGER NOT NULL,
				insufficient_sample INTEGER NOT NULL,
				is_combined INTEGER NOT NULL,
				combination_method TEXT NOT NULL,
				is_domain_score INTEGER NOT NULL,
				analysis_time TEXT NOT NULL,
				PRIMARY KEY (analysis_id, district, cohort, domain, indicator, is_domain_score)
			);
		`, quotedTableName)
	}
}

// BeginAnalysis creates a new analysis run and returns its unique ID.
func (as *AnalysisStoreImpl) BeginAnalysis(startTime time.Time, configParams map[string]any) (int64, error) {
	// Skip for NoneBackend
	if as.db == nil {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	quotedTableName := quoteTableName(analysisRunsTable, as.backend)
	runUUID := uuid.NewString()

	var analysisID int64
	switch as.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (run_uuid, start_time, config_params) VALUES ($1, $2, $3) RETURNING analysis_id`, quotedTableName)
		err = as.db.QueryRow(query, runUUID, startTime, string(configJSON)).Scan(&analysisID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (run_uuid, start_time, config_params) VALUES (?, ?, ?)`, quotedTableName)
		var result sql.Result
		result, err = as.db.Exec(query, runUUID, formatTime(startTime, as.backend), string(configJSON))
		if err == nil {
			analysisID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert analysis run: %w", err)
	}
	return analysisID, nil
}

// EndAnalysis updates the analysis run with completion data.
func (as *AnalysisStoreImpl) EndAnalysis(analysisID int64, endTime time.Time, totalResults int) error {
	// Skip for NoneBackend
	if as.db == nil {
		return nil
	}

	quotedTableName := quoteTableName(analysisRunsTable, as.backend)

	// --- 1. Load start time for the duration ---
	query := fmt.Sprintf(`SELECT start_time FROM %s WHERE analysis_id = %s`, quotedTableName, placeholders(as.backend, 1))
	startTime, err := as.scanTime(as.db.QueryRow(query, analysisID))
	if err != nil {
		return fmt.Errorf("failed to get start_time for analysis %d: %w", analysisID, err)
	}

	// --- 2. Record completion ---
	var updateQuery string
	if as.backend == schema.PostgreSQLBackend {
		updateQuery = fmt.Sprintf(`UPDATE %s SET end_time = $1, run_duration_ms = $2, total_results = $3 WHERE analysis_id = $4`, quotedTableName)
	} else {
		updateQuery = fmt.Sprintf(`UPDATE %s SET end_time = ?, run_duration_ms = ?, total_results = ? WHERE analysis_id = ?`, quotedTableName)
	}
	durationMs := endTime.Sub(startTime).Milliseconds()
	if _, err := as.db.Exec(updateQuery, formatTime(endTime, as.backend), durationMs, totalResults, analysisID); err != nil {
		return fmt.Errorf("failed to update analysis run: %w", err)
	}
	return nil
}

// RecordIndicatorResults stores every result row of a run in a single transaction.
func (as *AnalysisStoreImpl) RecordIndicatorResults(analysisID int64, records []schema.IndicatorResultRecord) error {
	// Skip for NoneBackend
	if as.db == nil || len(records) == 0 {
		return nil
	}

	tx, err := as.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		quoteTableName(indicatorResultsTable, as.backend), indicatorResultColumns, placeholders(as.backend, 14))
	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare indicator insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range records {
		if _, err := stmt.Exec(
			analysisID, r.Domain, r.District, r.Cohort, r.Indicator, nullable(r.Value), nullable(r.Goodness), r.SampleSize,
			r.NoData, r.InsufficientSample, r.IsCombined, r.CombinationMethod, r.IsDomainScore,
			formatTime(r.AnalysisTime, as.backend),
		); err != nil {
			return fmt.Errorf("failed to insert %s/%s/%s: %w", r.District, r.Cohort, r.Indicator, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit indicator results: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (as *AnalysisStoreImpl) Close() error {
	if as.db != nil {
		return as.db.Close()
	}
	return nil
}

// GetStatus returns status information about the analysis store.
func (as *AnalysisStoreImpl) GetStatus() (schema.AnalysisStatus, error) {
	status := schema.AnalysisStatus{
		Backend:    string(as.backend),
		Connected:  as.db != nil,
		TableSizes: make(map[string]int64),
	}
	if as.db == nil {
		return status, nil
	}

	runsTable := quoteTableName(analysisRunsTable, as.backend)
	if err := as.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", runsTable)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		// --- 1. Last run ---
		row := as.db.QueryRow(fmt.Sprintf("SELECT analysis_id, run_uuid, start_time FROM %s ORDER BY analysis_id DESC LIMIT 1", runsTable))
		var lastStart any
		if err := row.Scan(&status.LastRunID, &status.LastRunUUID, &lastStart); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		lastRunTime, err := parseTime(lastStart)
		if err != nil {
			return status, fmt.Errorf("failed to parse last run time: %w", err)
		}
		status.LastRunTime = lastRunTime

		// --- 2. Oldest run ---
		oldest, err := as.scanTime(as.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY analysis_id ASC LIMIT 1", runsTable)))
		if err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		status.OldestRunTime = oldest

		// --- 3. Result totals ---
		row = as.db.QueryRow(fmt.Sprintf("SELECT COALESCE(SUM(total_results), 0) FROM %s", runsTable))
		if err := row.Scan(&status.TotalResults); err != nil {
			return status, fmt.Errorf("failed to get total results: %w", err)
		}
	}

	for _, table := range []string{analysisRunsTable, indicatorResultsTable} {
		var count int64
		if err := as.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, as.backend))).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	return status, nil
}

// GetAllAnalysisRuns retrieves all analysis runs from the store.
func (as *AnalysisStoreImpl) GetAllAnalysisRuns() ([]schema.AnalysisRunRecord, error) {
	// Skip for NoneBackend
	if as.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT analysis_id, run_uuid, start_time, end_time, run_duration_ms, total_results, config_params
		FROM %s ORDER BY analysis_id`, quoteTableName(analysisRunsTable, as.backend))
	rows, err := as.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.AnalysisRunRecord
	for rows.Next() {
		var record schema.AnalysisRunRecord
		var start, end any
		if err := rows.Scan(&record.AnalysisID, &record.RunUUID, &start, &end,
			&record.RunDurationMs, &record.TotalResults, &record.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan analysis run: %w", err)
		}
		if record.StartTime, err = parseTime(start); err != nil {
			return nil, fmt.Errorf("failed to parse start_time: %w", err)
		}
		if end != nil {
			endTime, err := parseTime(end)
			if err != nil {
				return nil, fmt.Errorf("failed to parse end_time: %w", err)
			}
			record.EndTime = &endTime
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analysis runs: %w", err)
	}
	return results, nil
}

// GetAllIndicatorResults retrieves all stored indicator results.
func (as *AnalysisStoreImpl) GetAllIndicatorResults() ([]schema.IndicatorResultRecord, error) {
	// Skip for NoneBackend
	if as.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY analysis_id, district, cohort, domain, is_domain_score DESC, indicator`,
		indicatorResultColumns, quoteTableName(indicatorResultsTable, as.backend))
	rows, err := as.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query indicator results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.IndicatorResultRecord
	for rows.Next() {
		var r schema.IndicatorResultRecord
		var at any
		if err := rows.Scan(&r.AnalysisID, &r.Domain, &r.District, &r.Cohort, &r.Indicator, &r.Value, &r.Goodness,
			&r.SampleSize, &r.NoData, &r.InsufficientSample, &r.IsCombined, &r.CombinationMethod,
			&r.IsDomainScore, &at); err != nil {
			return nil, fmt.Errorf("failed to scan indicator result: %w", err)
		}
		if r.AnalysisTime, err = parseTime(at); err != nil {
			return nil, fmt.Errorf("failed to parse analysis_time: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating indicator results: %w", err)
	}
	return results, nil
}

// scanTime reads a single timestamp column.
func (as *AnalysisStoreImpl) scanTime(row *sql.Row) (time.Time, error) {
	var raw any
	if err := row.Scan(&raw); err != nil {
		return time.Time{}, err
	}
	return parseTime(raw)
}

// formatTime converts a time.Time to the appropriate format for the backend.
func formatTime(t time.Time, backend schema.DatabaseBackend) any {
	if backend == schema.SQLiteBackend {
		return t.Format(time.RFC3339Nano)
	}
	return t
}

// nullable maps a missing number to SQL NULL.
func nullable(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

// parseTime reads a timestamp stored natively or as RFC3339 text.
func parseTime(raw any) (time.Time, error) {
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case string:
		return time.Parse(time.RFC3339Nano, v)
	case []byte:
		return time.Parse(time.RFC3339Nano, string(v))
	default:
		return time.Time{}, fmt.Errorf("unexpected time value %T", raw)
	}
}
