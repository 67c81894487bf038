package schema

// CheckResult holds the results of an equity threshold check.
type CheckResult struct {
	Passed         bool
	Violations     []CheckViolation
	TotalCells     int // Number of (district, cohort, domain) scores that had data
	SkippedCells   int // Number of scores without data
	CheckedDomains []Domain
	Thresholds     map[Domain]float64
	MinScores      map[Domain]float64
	MinScoreCells  map[Domain][]CheckCell
	AvgScores      map[Domain]float64 // Average domain score across all cells
}

// CheckCell identifies a district and cohort pair.
type CheckCell struct {
	District string
	Cohort   Cohort
}

// CheckViolation represents a domain score that fell below its threshold.
type CheckViolation struct {
	District  string
	Cohort    Cohort
	Domain    Domain
	Score     float64
	Threshold float64
}
