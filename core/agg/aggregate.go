package agg

import (
	"math"

	"github.com/huangsam/healthgap/core/registry"
	"github.com/huangsam/healthgap/schema"
)

// OverallCode is the pseudo district code of "Bangkok Overall".
const OverallCode = 0

// Round2 rounds a value to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Aggregator evaluates indicator rules for one cell.
type Aggregator struct {
	supply *SupplyCalculator
}

// NewAggregator creates an aggregator backed by the given supply calculator.
func NewAggregator(supply *SupplyCalculator) *Aggregator {
	return &Aggregator{supply: supply}
}

// Aggregate evaluates a rule over a record set. Supply rules ignore the
// records and are computed for the district code instead.
func (a *Aggregator) Aggregate(records []*schema.SurveyRecord, rule *registry.IndicatorRule, districtCode int) schema.IndicatorResult {
	if rule.Kind == schema.SupplyRule {
		return a.supply.Rate(districtCode, rule)
	}
	return AggregateSurvey(records, rule)
}

// AggregateSurvey evaluates a condition or aggregate rule over a record set,
// enforcing the minimum sample size.
func AggregateSurvey(records []*schema.SurveyRecord, rule *registry.IndicatorRule) schema.IndicatorResult {
	res := newResult(rule)

	// --- 1. Age filter ---
	filtered := records
	if rule.MinAge > 0 {
		filtered = make([]*schema.SurveyRecord, 0, len(records))
		for _, r := range records {
			if rule.Eligible(r) {
				filtered = append(filtered, r)
			}
		}
	}
	res.SampleSize = len(filtered)

	// --- 2. Minimum-sample gate ---
	if len(filtered) < schema.MinSample {
		res.NoData = true
		res.InsufficientSample = true
		return res
	}

	// --- 3. Evaluate ---
	var value float64
	switch rule.Kind {
	case schema.ConditionRule:
		matches := 0
		for _, r := range filtered {
			if rule.Condition(r) {
				matches++
			}
		}
		value = 100 * float64(matches) / float64(len(filtered))
	case schema.AggregateRule:
		v, ok := rule.Aggregate(filtered)
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			res.NoData = true
			return res
		}
		value = v
	default:
		res.NoData = true
		return res
	}

	value = Round2(value)
	res.Value = &value
	return res
}

func newResult(rule *registry.IndicatorRule) schema.IndicatorResult {
	return schema.IndicatorResult{
		Domain:    rule.Domain,
		Indicator: rule.Name,
		Label:     rule.Label,
		Kind:      rule.Kind,
	}
}
