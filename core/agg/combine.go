package agg

import (
	"math"

	"github.com/huangsam/healthgap/core/registry"
	"github.com/huangsam/healthgap/schema"
)

const (
	smallSampleSize    = 20
	lowPrevalence      = 10.0
	highVarianceSpread = 20.0
)

// BlendWeights returns the survey and fallback weights of a combination method.
// The two weights always sum to 1.
func BlendWeights(method schema.CombinationMethod) (survey, fallback float64) {
	switch method {
	case schema.SmallSampleFallback:
		return 0.3, 0.7
	case schema.SmallSampleBalanced:
		return 0.4, 0.6
	case schema.HighVariance:
		return 0.6, 0.4
	case schema.NormalCombination:
		return 0.7, 0.3
	case schema.SurveyOnly:
		return 1, 0
	default:
		return 0, 1
	}
}

// SelectMethod picks the weighting branch for a survey value and its fallback.
// The first matching rule wins.
func SelectMethod(surveyValue float64, sampleSize int, fallbackValue float64) schema.CombinationMethod {
	switch {
	case sampleSize < smallSampleSize && surveyValue < lowPrevalence:
		return schema.SmallSampleFallback
	case sampleSize < smallSampleSize:
		return schema.SmallSampleBalanced
	case math.Abs(surveyValue-fallbackValue) > highVarianceSpread:
		return schema.HighVariance
	default:
		return schema.NormalCombination
	}
}

// Combine blends a survey estimate with a fallback estimate. The returned
// result only carries the value, sample size and combination flags.
func Combine(surveyValue *float64, sampleSize int, fallbackValue *float64, districtSpecific bool) schema.IndicatorResult {
	res := schema.IndicatorResult{SampleSize: sampleSize}
	tier := schema.CityFallback
	label := schema.CityWideLabel
	if districtSpecific {
		tier = schema.DistrictFallback
		label = schema.DistrictWideLabel
	}

	switch {
	case surveyValue == nil && fallbackValue == nil:
		res.NoData = true

	case surveyValue == nil:
		v := Round2(*fallbackValue)
		res.Value = &v
		res.IsPreCalculated = true
		res.SampleSizeLabel = label
		res.FallbackTier = tier
		res.FallbackValue = fallbackValue

	case fallbackValue == nil:
		v := *surveyValue
		res.Value = &v
		res.CombinationMethod = schema.SurveyOnly

	default:
		survey, fallback := *surveyValue, *fallbackValue
		method := SelectMethod(survey, sampleSize, fallback)
		sw, fw := BlendWeights(method)
		v := Round2(sw*survey + fw*fallback)
		res.Value = &v
		res.IsCombined = true
		res.CombinationMethod = method
		res.FallbackTier = tier
		res.SurveyValue = surveyValue
		res.FallbackValue = fallbackValue
	}
	return res
}

// Fallbacks holds the precomputed general-population estimates.
type Fallbacks struct {
	city     map[string]float64
	district map[int]map[string]float64
}

// NewFallbacks wraps the fallback tables of a snapshot.
func NewFallbacks(s *schema.Snapshot) *Fallbacks {
	return &Fallbacks{city: s.CityFallback, district: s.DistrictFallback}
}

// Lookup returns the fallback for a rule in a district. District-specific
// values exist only for health behavior indicators and take priority over
// city-wide values. OverallCode only ever uses city-wide values.
func (f *Fallbacks) Lookup(districtCode int, rule *registry.IndicatorRule) (value *float64, districtSpecific bool) {
	if f == nil {
		return nil, false
	}
	if districtCode != OverallCode && rule.Domain == schema.HealthBehaviorsDomain {
		if v, ok := f.district[districtCode][rule.Name]; ok {
			return &v, true
		}
	}
	if v, ok := f.city[rule.Name]; ok {
		return &v, false
	}
	return nil, false
}

// ApplyFallback combines a general-population survey result with its
// fallback and returns the merged result. Supply results pass through.
func ApplyFallback(res schema.IndicatorResult, rule *registry.IndicatorRule, fallbacks *Fallbacks, districtCode int) schema.IndicatorResult {
	if rule.Kind == schema.SupplyRule {
		return res
	}
	fallback, districtSpecific := fallbacks.Lookup(districtCode, rule)
	if fallback == nil {
		if res.Value != nil {
			res.CombinationMethod = schema.SurveyOnly
		}
		return res
	}

	combined := Combine(res.Value, res.SampleSize, fallback, districtSpecific)
	res.Value = combined.Value
	res.NoData = combined.NoData
	res.InsufficientSample = false
	res.IsPreCalculated = combined.IsPreCalculated
	res.IsCombined = combined.IsCombined
	res.CombinationMethod = combined.CombinationMethod
	res.FallbackTier = combined.FallbackTier
	res.SampleSizeLabel = combined.SampleSizeLabel
	res.SurveyValue = combined.SurveyValue
	res.FallbackValue = combined.FallbackValue
	return res
}
