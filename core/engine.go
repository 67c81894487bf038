package core

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/huangsam/healthgap/core/agg"
	"github.com/huangsam/healthgap/core/algo"
	"github.com/huangsam/healthgap/core/registry"
	"github.com/huangsam/healthgap/schema"
)

// cellKey identifies one (domain, district, cohort) result block.
type cellKey struct {
	domain   schema.Domain
	district string
	cohort   schema.Cohort
}

// cellTask is one unit of work handed to the engine workers.
type cellTask struct {
	index    int
	key      cellKey
	code     int
	records  []*schema.SurveyRecord
	combined bool
}

// Results is the read-only outcome of computing every cell of a snapshot.
// It is safe for concurrent use once Compute returns.
type Results struct {
	reg       *registry.Registry
	snapshot  *schema.Snapshot
	districts []schema.DistrictInfo
	codes     map[string]int
	records   map[int]map[schema.Cohort][]*schema.SurveyRecord
	cells     map[cellKey][]schema.IndicatorResult
	order     []cellKey
}

// Compute evaluates every domain for every district and cohort using a pool
// of workers. Each cell holds the domain score first, then its indicators in
// catalog order. The output does not depend on the number of workers.
func Compute(ctx context.Context, reg *registry.Registry, snap *schema.Snapshot, workers int) (*Results, error) {
	res := &Results{
		reg:      reg,
		snapshot: snap,
		codes:    make(map[string]int),
		records:  make(map[int]map[schema.Cohort][]*schema.SurveyRecord),
		cells:    make(map[cellKey][]schema.IndicatorResult),
	}

	supply := agg.NewSupplyCalculator(snap)
	res.groupRecords()
	res.buildDistricts(supply)

	// --- 1. Task list ---
	var tasks []cellTask
	for _, d := range res.districts {
		for _, domain := range reg.Domains() {
			for _, cohort := range schema.AllCohorts {
				key := cellKey{domain: domain, district: d.Name, cohort: cohort}
				tasks = append(tasks, cellTask{
					index:    len(tasks),
					key:      key,
					code:     d.Code,
					records:  res.records[d.Code][cohort],
					combined: cohort == schema.GeneralPopulationCohort,
				})
				res.order = append(res.order, key)
			}
		}
	}

	// --- 2. Worker pool ---
	aggregator := agg.NewAggregator(supply)
	fallbacks := agg.NewFallbacks(snap)
	blocks := make([][]schema.IndicatorResult, len(tasks))

	taskCh := make(chan cellTask, len(tasks))
	var wg sync.WaitGroup
	for range max(1, workers) {
		wg.Go(func() {
			for task := range taskCh {
				if ctx.Err() != nil {
					continue
				}
				blocks[task.index] = computeCell(reg, aggregator, fallbacks, task)
			}
		})
	}
	for _, task := range tasks {
		taskCh <- task
	}
	close(taskCh)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// --- 3. Index ---
	for i, key := range res.order {
		res.cells[key] = blocks[i]
	}
	return res, nil
}

// computeCell aggregates, combines and normalizes every indicator of one domain.
func computeCell(reg *registry.Registry, aggregator *agg.Aggregator, fallbacks *agg.Fallbacks, task cellTask) []schema.IndicatorResult {
	rules := reg.DomainRules(task.key.domain)
	indicators := make([]schema.IndicatorResult, 0, len(rules))
	for _, rule := range rules {
		r := aggregator.Aggregate(task.records, rule, task.code)
		if task.combined {
			r = agg.ApplyFallback(r, rule, fallbacks, task.code)
		}
		r = algo.Normalize(reg, r)
		r.District = task.key.district
		r.Cohort = task.key.cohort
		indicators = append(indicators, r)
	}

	score := algo.DomainScore(task.key.domain, indicators)
	score.District = task.key.district
	score.Cohort = task.key.cohort
	return append([]schema.IndicatorResult{score}, indicators...)
}

// groupRecords indexes records by district and cohort. Every record also
// belongs to the city-wide group, including those with an unknown district.
func (res *Results) groupRecords() {
	add := func(code int, r *schema.SurveyRecord) {
		if res.records[code] == nil {
			res.records[code] = make(map[schema.Cohort][]*schema.SurveyRecord)
		}
		res.records[code][r.Cohort] = append(res.records[code][r.Cohort], r)
	}
	for _, r := range res.snapshot.Records {
		add(agg.OverallCode, r)
		if _, known := res.reg.Districts().Name(r.DistrictCode); known {
			add(r.DistrictCode, r)
		}
	}
}

// buildDistricts lists "Bangkok Overall" followed by every known district
// present in the survey or the population registry, ordered by code.
func (res *Results) buildDistricts(supply *agg.SupplyCalculator) {
	countRecords := func(code int) int {
		n := 0
		for _, group := range res.records[code] {
			n += len(group)
		}
		return n
	}

	res.districts = append(res.districts, schema.DistrictInfo{
		Code:       agg.OverallCode,
		Name:       schema.OverallDistrict,
		Records:    countRecords(agg.OverallCode),
		Population: supply.Population(agg.OverallCode),
	})
	res.codes[schema.OverallDistrict] = agg.OverallCode

	present := make(map[int]bool)
	for code := range res.records {
		present[code] = true
	}
	for _, code := range supply.DistrictCodes() {
		present[code] = true
	}
	for _, d := range res.reg.Districts().All() {
		if !present[d.Code] {
			continue
		}
		res.districts = append(res.districts, schema.DistrictInfo{
			Code:       d.Code,
			Name:       d.Name,
			Records:    countRecords(d.Code),
			Population: supply.Population(d.Code),
		})
		res.codes[d.Name] = d.Code
	}
}

// Registry returns the catalog the results were computed with.
func (res *Results) Registry() *registry.Registry {
	return res.reg
}

// Digest returns the content hash of the snapshot behind the results.
func (res *Results) Digest() string {
	return res.snapshot.Digest
}

// GetIndicatorData returns the domain score followed by the indicators of a
// domain for one district and cohort. The indicator type filters the
// indicator rows only; the domain score always covers the whole domain.
// Unknown domains, districts or cohorts yield an empty slice.
func (res *Results) GetIndicatorData(domain schema.Domain, district string, cohort schema.Cohort, indicatorType schema.IndicatorType) []schema.IndicatorResult {
	block, ok := res.cells[cellKey{domain: domain, district: res.canonicalDistrict(district), cohort: cohort}]
	if !ok {
		return []schema.IndicatorResult{}
	}
	out := make([]schema.IndicatorResult, 0, len(block))
	for _, r := range block {
		if r.IsDomainScore || indicatorType.Matches(r.Kind) {
			out = append(out, r)
		}
	}
	return out
}

// GetDomainScore returns the domain score of one cell.
func (res *Results) GetDomainScore(domain schema.Domain, district string, cohort schema.Cohort) (schema.IndicatorResult, bool) {
	block, ok := res.cells[cellKey{domain: domain, district: res.canonicalDistrict(district), cohort: cohort}]
	if !ok || len(block) == 0 {
		return schema.IndicatorResult{}, false
	}
	return block[0], true
}

// GetAvailableDistricts returns "Bangkok Overall" first, then every district with data.
func (res *Results) GetAvailableDistricts() []schema.DistrictInfo {
	return slices.Clone(res.districts)
}

// GetAvailableDomains returns every domain in catalog order.
func (res *Results) GetAvailableDomains() []schema.Domain {
	return res.reg.Domains()
}

// HasDistrict reports whether a district name is part of the results.
func (res *Results) HasDistrict(district string) bool {
	_, ok := res.codes[res.canonicalDistrict(district)]
	return ok
}

// FilterRecords returns the records of a district, restricted to one cohort
// unless the cohort is empty.
func (res *Results) FilterRecords(district string, cohort schema.Cohort) []*schema.SurveyRecord {
	code, ok := res.codes[res.canonicalDistrict(district)]
	if !ok {
		return nil
	}
	groups := res.records[code]
	if cohort != "" {
		return slices.Clone(groups[cohort])
	}
	var out []*schema.SurveyRecord
	for _, c := range schema.AllCohorts {
		out = append(out, groups[c]...)
	}
	return out
}

// All returns every computed result in cell order.
func (res *Results) All() []schema.IndicatorResult {
	var out []schema.IndicatorResult
	for _, key := range res.order {
		out = append(out, res.cells[key]...)
	}
	return out
}

// canonicalDistrict maps a case-insensitive district name to its display name.
func (res *Results) canonicalDistrict(district string) string {
	if district == "" || strings.EqualFold(strings.TrimSpace(district), schema.OverallDistrict) {
		return schema.OverallDistrict
	}
	if code, ok := res.reg.Districts().Code(district); ok {
		if name, ok := res.reg.Districts().Name(code); ok {
			return name
		}
	}
	return district
}
