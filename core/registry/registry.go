// Package registry has the indicator catalog, benchmarks and district table.
// A Registry is built once at startup and shared read-only by every component.
package registry

import (
	"fmt"
	"maps"
	"slices"

	"github.com/huangsam/healthgap/schema"
)

// Predicate reports whether a single record exhibits the flagged condition.
type Predicate func(r *schema.SurveyRecord) bool

// AggregateFunc computes a percentage over a filtered record set.
// It returns false when the value is undefined for that set.
type AggregateFunc func(records []*schema.SurveyRecord) (float64, bool)

// SupplySource names the registry count behind a supply indicator.
type SupplySource string

// All supply sources supported.
const (
	DoctorSupply                SupplySource = "doctor_count"        // health_supply
	NurseSupply                 SupplySource = "nurse_count"         // health_supply
	HealthWorkerSupply          SupplySource = "health_worker_count" // health_supply
	BedSupply                   SupplySource = "bed_count"           // health_supply
	CommunityHealthWorkerSupply SupplySource = "chw_count"           // community_health_worker
	FacilitySupply              SupplySource = "facility_rows"       // health_facilities
)

// SupplySpec describes how a supply indicator is computed.
type SupplySpec struct {
	Source SupplySource
	Scale  float64
}

// IndicatorRule is the single definition of an indicator. Condition is the
// per-record positivity test shared by the aggregator and the correlation
// encoder; Aggregate overrides the percentage for aggregate rules.
type IndicatorRule struct {
	Domain    schema.Domain
	Name      string
	Label     string
	Kind      schema.RuleKind
	Reverse   bool
	MinAge    int // Zero means no age filter
	Condition Predicate
	Aggregate AggregateFunc
	Supply    *SupplySpec
}

// Eligible reports whether the record passes the age filter of the rule.
func (r *IndicatorRule) Eligible(rec *schema.SurveyRecord) bool {
	if r.MinAge <= 0 {
		return true
	}
	age, ok := rec.Number("age")
	return ok && age >= float64(r.MinAge)
}

// IsPositive evaluates the per-record condition, including the age filter.
func (r *IndicatorRule) IsPositive(rec *schema.SurveyRecord) bool {
	if r.Condition == nil || !r.Eligible(rec) {
		return false
	}
	return r.Condition(rec)
}

// Correlatable reports whether the rule can be encoded per record.
func (r *IndicatorRule) Correlatable() bool {
	return r.Kind != schema.SupplyRule && r.Condition != nil
}

// Registry is the immutable indicator catalog.
type Registry struct {
	rules      []*IndicatorRule
	byName     map[string]*IndicatorRule
	byDomain   map[schema.Domain][]*IndicatorRule
	benchmarks map[string]schema.Benchmark
	districts  *DistrictTable
}

// Option customizes a Registry at construction time.
type Option func(*Registry) error

// WithBenchmarkOverrides replaces the default benchmark of supply indicators.
func WithBenchmarkOverrides(overrides map[string]schema.Benchmark) Option {
	return func(reg *Registry) error {
		for name, b := range overrides {
			rule, ok := reg.byName[name]
			if !ok || rule.Kind != schema.SupplyRule {
				return fmt.Errorf("benchmark override for unknown supply indicator %q", name)
			}
			if err := ValidateBenchmark(b); err != nil {
				return fmt.Errorf("benchmark override for %q: %w", name, err)
			}
			reg.benchmarks[name] = b
		}
		return nil
	}
}

// New builds the registry from the built-in catalog.
func New(opts ...Option) (*Registry, error) {
	reg := &Registry{
		byName:     make(map[string]*IndicatorRule),
		byDomain:   make(map[schema.Domain][]*IndicatorRule),
		benchmarks: defaultBenchmarks(),
		districts:  NewDistrictTable(),
	}
	for _, rule := range catalog() {
		if _, dup := reg.byName[rule.Name]; dup {
			return nil, fmt.Errorf("duplicate indicator %q", rule.Name)
		}
		reg.rules = append(reg.rules, rule)
		reg.byName[rule.Name] = rule
		reg.byDomain[rule.Domain] = append(reg.byDomain[rule.Domain], rule)
	}
	for _, opt := range opts {
		if err := opt(reg); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// MustNew is like New but panics on error. Intended for tests.
func MustNew(opts ...Option) *Registry {
	reg, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return reg
}

// ValidateBenchmark checks that 0 < poor < good < excellent.
func ValidateBenchmark(b schema.Benchmark) error {
	if b.Poor <= 0 || b.Poor >= b.Good || b.Good >= b.Excellent {
		return fmt.Errorf("benchmark must satisfy 0 < poor < good < excellent, got %.2f/%.2f/%.2f", b.Poor, b.Good, b.Excellent)
	}
	return nil
}

// Rules returns every rule in catalog order.
func (reg *Registry) Rules() []*IndicatorRule {
	return slices.Clone(reg.rules)
}

// Rule returns the rule for an indicator name.
func (reg *Registry) Rule(name string) (*IndicatorRule, bool) {
	rule, ok := reg.byName[name]
	return rule, ok
}

// DomainRules returns the rules of one domain in catalog order.
func (reg *Registry) DomainRules(domain schema.Domain) []*IndicatorRule {
	return slices.Clone(reg.byDomain[domain])
}

// Domains returns the domains that have at least one indicator.
func (reg *Registry) Domains() []schema.Domain {
	var out []schema.Domain
	for _, d := range schema.AllDomains {
		if len(reg.byDomain[d]) > 0 {
			out = append(out, d)
		}
	}
	return out
}

// Label returns the display label of an indicator, or the key itself.
func (reg *Registry) Label(name string) string {
	if rule, ok := reg.byName[name]; ok && rule.Label != "" {
		return rule.Label
	}
	return name
}

// IsReverse reports whether a higher raw value is worse.
func (reg *Registry) IsReverse(name string) bool {
	rule, ok := reg.byName[name]
	return ok && rule.Reverse
}

// Benchmark returns the active benchmark of a supply indicator.
func (reg *Registry) Benchmark(name string) (schema.Benchmark, bool) {
	b, ok := reg.benchmarks[name]
	return b, ok
}

// Benchmarks returns a copy of all active benchmarks.
func (reg *Registry) Benchmarks() map[string]schema.Benchmark {
	return maps.Clone(reg.benchmarks)
}

// Districts returns the district table.
func (reg *Registry) Districts() *DistrictTable {
	return reg.districts
}

// IsPositive evaluates the shared positivity predicate by indicator name.
// Unknown names are never positive.
func (reg *Registry) IsPositive(name string, rec *schema.SurveyRecord) bool {
	rule, ok := reg.byName[name]
	return ok && rule.IsPositive(rec)
}

// CorrelatableIndicators returns the names of every per-record indicator,
// optionally restricted to one domain.
func (reg *Registry) CorrelatableIndicators(domain schema.Domain) []string {
	var out []string
	for _, rule := range reg.rules {
		if domain != "" && rule.Domain != domain {
			continue
		}
		if rule.Correlatable() {
			out = append(out, rule.Name)
		}
	}
	return out
}

// Entries returns the catalog for display.
func (reg *Registry) Entries() []schema.RegistryEntry {
	out := make([]schema.RegistryEntry, 0, len(reg.rules))
	for _, rule := range reg.rules {
		entry := schema.RegistryEntry{
			Domain:    rule.Domain,
			Indicator: rule.Name,
			Label:     rule.Label,
			Kind:      rule.Kind,
			Reverse:   rule.Reverse,
			MinAge:    rule.MinAge,
		}
		if rule.Supply != nil {
			entry.Scale = rule.Supply.Scale
		}
		if b, ok := reg.benchmarks[rule.Name]; ok {
			entry.Benchmark = &b
		}
		out = append(out, entry)
	}
	return out
}
