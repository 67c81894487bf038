// Package agg has the per-cell aggregation logic: cohort classification,
// indicator aggregation, supply rates and small-sample combination.
package agg

import (
	"strings"

	"github.com/huangsam/healthgap/schema"
)

const (
	elderlyAge  = 60
	lgbtqMarker = "lgbt"
)

// Classify assigns a record to exactly one cohort. Checks run in priority
// order and missing or malformed fields never match.
func Classify(r *schema.SurveyRecord) schema.Cohort {
	switch {
	case isLGBTQ(r):
		return schema.LGBTQCohort
	case isElderly(r):
		return schema.ElderlyCohort
	case r.Is("disable_status", 1):
		return schema.DisabledCohort
	case isInformalWorker(r):
		return schema.InformalWorkersCohort
	default:
		return schema.GeneralPopulationCohort
	}
}

func isLGBTQ(r *schema.SurveyRecord) bool {
	sex, ok := r.TextValue("sex")
	return ok && strings.EqualFold(strings.TrimSpace(sex), lgbtqMarker)
}

func isElderly(r *schema.SurveyRecord) bool {
	age, ok := r.Number("age")
	return ok && age >= elderlyAge
}

// isInformalWorker requires employment and an explicit "no contract" answer.
func isInformalWorker(r *schema.SurveyRecord) bool {
	return r.Is("occupation_status", 1) && r.Is("occupation_contract", 0)
}

// GroupByCohort splits records by their assigned cohort.
func GroupByCohort(records []*schema.SurveyRecord) map[schema.Cohort][]*schema.SurveyRecord {
	out := make(map[schema.Cohort][]*schema.SurveyRecord, len(schema.AllCohorts))
	for _, r := range records {
		out[r.Cohort] = append(out[r.Cohort], r)
	}
	return out
}
