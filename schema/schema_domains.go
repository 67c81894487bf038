package schema

// DomainScoreRow holds the scores of one domain, one entry per cohort.
type DomainScoreRow struct {
	Domain Domain            `json:"domain"`
	Label  string            `json:"label"`
	Scores []IndicatorResult `json:"scores"`
}

// DomainScoreTable is the domain x cohort score matrix of one district.
type DomainScoreTable struct {
	District string           `json:"district"`
	Cohorts  []Cohort         `json:"cohorts"`
	Rows     []DomainScoreRow `json:"rows"`
}
