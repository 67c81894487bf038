package schema

// ComparisonDetail holds the base info, target info, and their associated deltas.
type ComparisonDetail struct {
	Domain         Domain        `json:"domain"`
	Indicator      string        `json:"indicator"`
	Label          string        `json:"label"`
	BaseValue      *float64      `json:"base_value"`      // Raw value for the base cohort
	TargetValue    *float64      `json:"target_value"`    // Raw value for the target cohort
	BaseGoodness   *float64      `json:"base_goodness"`   // Goodness for the base cohort
	TargetGoodness *float64      `json:"target_goodness"` // Goodness for the target cohort
	Delta          float64       `json:"delta"`           // TargetGoodness - BaseGoodness (Negative means the target is worse off)
	Status         CompareStatus `json:"status"`
}

// ComparisonSummary has high-level deltas and counts.
type ComparisonSummary struct {
	// 1. Net Goodness Delta
	NetGoodnessDelta float64 `json:"net_goodness_delta"`

	// 2. Indicator Counts
	TotalCompared int `json:"total_compared"`
	TotalWorse    int `json:"total_worse"`
	TotalBetter   int `json:"total_better"`
	TotalMissing  int `json:"total_missing"`
}

// ComparisonResult holds the comparison details and summary.
type ComparisonResult struct {
	District     string             `json:"district"`
	BaseCohort   Cohort             `json:"base_cohort"`
	TargetCohort Cohort             `json:"target_cohort"`
	Details      []ComparisonDetail `json:"details"`
	Summary      ComparisonSummary  `json:"summary"`
}
