package agg

import (
	"maps"
	"slices"

	"github.com/huangsam/healthgap/core/registry"
	"github.com/huangsam/healthgap/schema"
)

// SupplyCalculator computes rate-per-population indicators from the
// facility and population registries.
type SupplyCalculator struct {
	counts     map[registry.SupplySource]map[int]float64
	population map[int]int64 // district_population
	community  map[int]int64 // community_population
}

// NewSupplyCalculator sums every registry by district once.
func NewSupplyCalculator(s *schema.Snapshot) *SupplyCalculator {
	c := &SupplyCalculator{
		counts:     make(map[registry.SupplySource]map[int]float64),
		population: make(map[int]int64),
		community:  make(map[int]int64),
	}
	add := func(source registry.SupplySource, code int, v float64) {
		if c.counts[source] == nil {
			c.counts[source] = make(map[int]float64)
		}
		c.counts[source][code] += v
	}

	for _, row := range s.HealthSupply {
		for _, source := range []registry.SupplySource{registry.DoctorSupply, registry.NurseSupply, registry.HealthWorkerSupply, registry.BedSupply} {
			add(source, row.DistrictCode, row.Counts[string(source)])
		}
	}
	for _, row := range s.CommunityHealthWorkers {
		add(registry.CommunityHealthWorkerSupply, row.DistrictCode, row.Counts[string(registry.CommunityHealthWorkerSupply)])
	}
	for _, row := range s.Facilities {
		add(registry.FacilitySupply, row.DistrictCode, 1)
	}
	for _, row := range s.DistrictPopulation {
		c.population[row.DistrictCode] += row.Population
	}
	for _, row := range s.CommunityPopulation {
		c.community[row.DistrictCode] += row.Population
	}
	return c
}

// Rate computes a supply indicator for a district. OverallCode sums every
// count and every population before dividing, so the city-wide rate is
// population-weighted. A zero population yields an explicit zero.
func (c *SupplyCalculator) Rate(districtCode int, rule *registry.IndicatorRule) schema.IndicatorResult {
	res := newResult(rule)
	if rule.Supply == nil {
		res.NoData = true
		return res
	}

	populations := c.population
	if rule.Supply.Source == registry.CommunityHealthWorkerSupply {
		populations = c.community
	}

	count := pick(c.counts[rule.Supply.Source], districtCode)
	population := pick(populations, districtCode)

	value := 0.0
	if population > 0 {
		value = Round2(count / float64(population) * rule.Supply.Scale)
	}
	pop := population
	res.Value = &value
	res.Population = &pop
	res.AbsoluteCount = &count
	return res
}

// Population returns the registered population of a district.
func (c *SupplyCalculator) Population(districtCode int) int64 {
	return pick(c.population, districtCode)
}

// DistrictCodes returns every district code found in the population registry.
func (c *SupplyCalculator) DistrictCodes() []int {
	return slices.Sorted(maps.Keys(c.population))
}

// pick returns the value for one district, or the sum over all districts for OverallCode.
func pick[V int64 | float64](m map[int]V, districtCode int) V {
	if districtCode != OverallCode {
		return m[districtCode]
	}
	var total V
	for _, code := range slices.Sorted(maps.Keys(m)) {
		total += m[code]
	}
	return total
}
