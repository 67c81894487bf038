package core

import (
	"cmp"
	"math"
	"slices"

	"github.com/huangsam/healthgap/core/agg"
	"github.com/huangsam/healthgap/schema"
)

// compareCohorts matches the indicators of a target cohort against a base
// cohort in one district and computes the goodness delta of each. Domain
// score rows are not compared. The summary covers every indicator; the
// details are sorted and truncated to limit.
func compareCohorts(results *Results, domains []schema.Domain, district string, base, target schema.Cohort, limit int) schema.ComparisonResult {
	out := schema.ComparisonResult{
		District:     results.canonicalDistrict(district),
		BaseCohort:   base,
		TargetCohort: target,
		Details:      []schema.ComparisonDetail{},
	}

	// Initialize summary accumulators
	var netDelta float64
	var compared, worse, better, missing int

	for _, domain := range domains {
		baseRows := indicatorRows(results.GetIndicatorData(domain, district, base, schema.AllIndicators))
		targetRows := indicatorRows(results.GetIndicatorData(domain, district, target, schema.AllIndicators))
		if len(baseRows) != len(targetRows) {
			continue
		}

		for i, baseR := range baseRows {
			targetR := targetRows[i]
			baseOK := baseR.Valid() && baseR.Goodness != nil
			targetOK := targetR.Valid() && targetR.Goodness != nil

			detail := schema.ComparisonDetail{
				Domain:         domain,
				Indicator:      baseR.Indicator,
				Label:          baseR.Label,
				BaseValue:      baseR.Value,
				TargetValue:    targetR.Value,
				BaseGoodness:   baseR.Goodness,
				TargetGoodness: targetR.Goodness,
				Status:         determineStatus(baseOK, targetOK),
			}

			// Accumulate summary
			if detail.Status == schema.ComparedStatus {
				detail.Delta = agg.Round2(*targetR.Goodness - *baseR.Goodness)
				netDelta += detail.Delta
				compared++
				switch {
				case detail.Delta < 0:
					worse++
				case detail.Delta > 0:
					better++
				}
			} else {
				missing++
			}
			out.Details = append(out.Details, detail)
		}
	}

	out.Summary = schema.ComparisonSummary{
		NetGoodnessDelta: agg.Round2(netDelta),
		TotalCompared:    compared,
		TotalWorse:       worse,
		TotalBetter:      better,
		TotalMissing:     missing,
	}

	// Sort results
	sortComparisonResults(out.Details)

	// Apply limit
	if limit > 0 && len(out.Details) > limit {
		out.Details = out.Details[:limit]
	}
	return out
}

// indicatorRows drops the domain score row.
func indicatorRows(rows []schema.IndicatorResult) []schema.IndicatorResult {
	out := make([]schema.IndicatorResult, 0, len(rows))
	for _, r := range rows {
		if !r.IsDomainScore {
			out = append(out, r)
		}
	}
	return out
}

// determineStatus returns the status based on which side has a usable value.
func determineStatus(baseOK, targetOK bool) schema.CompareStatus {
	switch {
	case baseOK && targetOK:
		return schema.ComparedStatus
	case baseOK:
		return schema.BaseOnlyStatus
	case targetOK:
		return schema.TargetOnlyStatus
	default:
		return schema.NoDataStatus
	}
}

// sortComparisonResults puts compared rows first by absolute delta (descending),
// worse before better on ties; rows without a delta keep catalog order after them.
func sortComparisonResults(results []schema.ComparisonDetail) {
	slices.SortStableFunc(results, func(a, b schema.ComparisonDetail) int {
		aCompared := a.Status == schema.ComparedStatus
		bCompared := b.Status == schema.ComparedStatus
		if aCompared != bCompared {
			if aCompared {
				return -1
			}
			return 1
		}
		if c := cmp.Compare(math.Abs(b.Delta), math.Abs(a.Delta)); c != 0 {
			return c
		}
		return cmp.Compare(a.Delta, b.Delta)
	})
}
