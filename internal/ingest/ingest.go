// Package ingest loads the survey and registry CSV tables of a data directory.
package ingest

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/huangsam/healthgap/core/agg"
	"github.com/huangsam/healthgap/core/registry"
	"github.com/huangsam/healthgap/internal/contract"
	"github.com/huangsam/healthgap/schema"
	"golang.org/x/sync/errgroup"
)

// Input file names inside the data directory.
const (
	SurveyFile                = "survey.csv"
	HealthSupplyFile          = "health_supply.csv"
	HealthFacilitiesFile      = "health_facilities.csv"
	DistrictPopulationFile    = "district_population.csv"
	CommunityHealthWorkerFile = "community_health_worker.csv"
	CommunityPopulationFile   = "community_population.csv"
	CityFallbackFile          = "normal_population_indicator.csv"
	DistrictFallbackFile      = "normal_population_indicator_district.csv"
)

const (
	districtColumn  = "dname"
	indicatorColumn = "indicator"
	scoreColumn     = "score"
	byteOrderMark   = "\ufeff"
)

// requiredColumns lists the columns every file must carry, in load order.
var requiredColumns = []struct {
	file    string
	columns []string
}{
	{SurveyFile, []string{districtColumn, "age", "sex", "disable_status", "occupation_status", "occupation_contract", "occupation_type"}},
	{HealthSupplyFile, []string{districtColumn, "doctor_count", "nurse_count", "health_worker_count", "bed_count"}},
	{HealthFacilitiesFile, []string{districtColumn, "facility_type"}},
	{DistrictPopulationFile, []string{districtColumn, "population"}},
	{CommunityHealthWorkerFile, []string{districtColumn, "chw_count"}},
	{CommunityPopulationFile, []string{districtColumn, "population"}},
	{CityFallbackFile, []string{indicatorColumn, scoreColumn}},
	{DistrictFallbackFile, []string{districtColumn, indicatorColumn, scoreColumn}},
}

// Files returns every input file name in load order.
func Files() []string {
	out := make([]string, len(requiredColumns))
	for i, rc := range requiredColumns {
		out[i] = rc.file
	}
	return out
}

// table is one parsed CSV file with normalized headers.
type table struct {
	header []string
	index  map[string]int
	rows   [][]string
	sum    [sha256.Size]byte
}

// cell returns the trimmed value of a column, or "" when absent.
func (t *table) cell(row []string, column string) string {
	i, ok := t.index[column]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// CSVLoader reads the eight input tables concurrently.
type CSVLoader struct {
	districts *registry.DistrictTable
}

var _ contract.SnapshotLoader = &CSVLoader{} // Compile-time check

// NewCSVLoader returns a loader that resolves district names with the given table.
func NewCSVLoader(districts *registry.DistrictTable) *CSVLoader {
	return &CSVLoader{districts: districts}
}

// Load reads every input table. The first failing table cancels the others
// and its error is returned; there are no partial snapshots.
func (l *CSVLoader) Load(ctx context.Context, dataDir string) (*schema.Snapshot, error) {
	tables := make([]*table, len(requiredColumns))

	g, gctx := errgroup.WithContext(ctx)
	for i, rc := range requiredColumns {
		g.Go(func() error {
			t, err := readTable(gctx, filepath.Join(dataDir, rc.file), rc.columns)
			if err != nil {
				return fmt.Errorf("load %s: %w", rc.file, err)
			}
			tables[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	digest := sha256.New()
	for _, t := range tables {
		digest.Write(t.sum[:])
	}

	return &schema.Snapshot{
		Records:                l.surveyRecords(tables[0]),
		HealthSupply:           l.supplyRows(tables[1], "doctor_count", "nurse_count", "health_worker_count", "bed_count"),
		Facilities:             l.facilityRows(tables[2]),
		DistrictPopulation:     l.populationRows(tables[3]),
		CommunityHealthWorkers: l.supplyRows(tables[4], "chw_count"),
		CommunityPopulation:    l.populationRows(tables[5]),
		CityFallback:           cityFallback(tables[6]),
		DistrictFallback:       l.districtFallback(tables[7]),
		Digest:                 hex.EncodeToString(digest.Sum(nil)),
	}, nil
}

// readTable reads and parses one CSV file and checks its required columns.
func readTable(ctx context.Context, path string, required []string) (*table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	t, err := parseTable(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	t.sum = sha256.Sum256(data)

	var missing []string
	for _, column := range required {
		if _, ok := t.index[column]; !ok {
			missing = append(missing, column)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return t, nil
}

// parseTable reads a CSV stream. Ragged rows are tolerated.
func parseTable(r io.Reader) (*table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty file")
	}
	if err != nil {
		return nil, err
	}

	t := &table{header: make([]string, len(header)), index: make(map[string]int, len(header))}
	for i, h := range header {
		name := normalizeHeader(h)
		t.header[i] = name
		if _, dup := t.index[name]; !dup && name != "" {
			t.index[name] = i
		}
	}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

// normalizeHeader strips a byte order mark, trims and lower-cases a column name.
func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, byteOrderMark)))
}

// parseNumber parses a numeric cell. NaN and infinities are treated as text.
func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// surveyRecords converts survey rows into classified records. A record whose
// district cannot be resolved keeps code 0 and only counts city-wide.
func (l *CSVLoader) surveyRecords(t *table) []*schema.SurveyRecord {
	records := make([]*schema.SurveyRecord, 0, len(t.rows))
	for _, row := range t.rows {
		rec := &schema.SurveyRecord{
			Values: make(map[string]float64, len(t.header)),
			Text:   make(map[string]string),
		}
		for i, column := range t.header {
			if column == "" || i >= len(row) {
				continue
			}
			raw := strings.TrimSpace(row[i])
			if raw == "" {
				continue
			}
			if v, ok := parseNumber(raw); ok {
				rec.Values[column] = v
			} else {
				rec.Text[column] = raw
			}
		}

		rawDistrict := t.cell(row, districtColumn)
		if code, ok := l.districts.ParseCode(rawDistrict); ok {
			rec.DistrictCode = code
		}
		if name, ok := l.districts.Name(rec.DistrictCode); ok {
			rec.DistrictName = name
		} else {
			rec.DistrictName = rawDistrict
		}
		rec.Cohort = agg.Classify(rec)
		records = append(records, rec)
	}
	return records
}

// supplyRows converts registry rows with count columns. Rows without a
// resolvable district are dropped; missing counts are zero.
func (l *CSVLoader) supplyRows(t *table, columns ...string) []schema.SupplyRow {
	rows := make([]schema.SupplyRow, 0, len(t.rows))
	for _, row := range t.rows {
		code, ok := l.districts.ParseCode(t.cell(row, districtColumn))
		if !ok {
			continue
		}
		counts := make(map[string]float64, len(columns))
		for _, column := range columns {
			if v, ok := parseNumber(t.cell(row, column)); ok {
				counts[column] = v
			}
		}
		rows = append(rows, schema.SupplyRow{DistrictCode: code, Counts: counts})
	}
	return rows
}

// facilityRows converts facility rows. Each row is one facility.
func (l *CSVLoader) facilityRows(t *table) []schema.FacilityRow {
	rows := make([]schema.FacilityRow, 0, len(t.rows))
	for _, row := range t.rows {
		code, ok := l.districts.ParseCode(t.cell(row, districtColumn))
		if !ok {
			continue
		}
		rows = append(rows, schema.FacilityRow{DistrictCode: code, FacilityType: t.cell(row, "facility_type")})
	}
	return rows
}

// populationRows converts population registry rows. Non-numeric or negative
// populations are dropped.
func (l *CSVLoader) populationRows(t *table) []schema.PopulationRow {
	rows := make([]schema.PopulationRow, 0, len(t.rows))
	for _, row := range t.rows {
		code, ok := l.districts.ParseCode(t.cell(row, districtColumn))
		if !ok {
			continue
		}
		v, ok := parseNumber(t.cell(row, "population"))
		if !ok || v < 0 {
			continue
		}
		rows = append(rows, schema.PopulationRow{DistrictCode: code, Population: int64(math.Round(v))})
	}
	return rows
}

// cityFallback reads the city-wide pre-calculated indicator scores.
func cityFallback(t *table) map[string]float64 {
	out := make(map[string]float64, len(t.rows))
	for _, row := range t.rows {
		indicator := strings.ToLower(t.cell(row, indicatorColumn))
		v, ok := parseNumber(t.cell(row, scoreColumn))
		if indicator == "" || !ok {
			continue
		}
		out[indicator] = v
	}
	return out
}

// districtFallback reads the district-level pre-calculated indicator scores.
func (l *CSVLoader) districtFallback(t *table) map[int]map[string]float64 {
	out := make(map[int]map[string]float64)
	for _, row := range t.rows {
		code, ok := l.districts.ParseCode(t.cell(row, districtColumn))
		if !ok {
			continue
		}
		indicator := strings.ToLower(t.cell(row, indicatorColumn))
		v, ok := parseNumber(t.cell(row, scoreColumn))
		if indicator == "" || !ok {
			continue
		}
		if out[code] == nil {
			out[code] = make(map[string]float64)
		}
		out[code][indicator] = v
	}
	return out
}
