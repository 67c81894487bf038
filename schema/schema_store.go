package schema

import "time"

// AnalysisRunRecord represents a row from the healthgap_analysis_runs table.
type AnalysisRunRecord struct {
	AnalysisID    int64
	RunUUID       string
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int32
	TotalResults  int32
	ConfigParams  *string
}

// IndicatorResultRecord represents a row from the healthgap_indicator_results table.
type IndicatorResultRecord struct {
	AnalysisID         int64
	Domain             string
	District           string
	Cohort             string
	Indicator          string
	Value              *float64
	Goodness           *float64
	SampleSize         int32
	NoData             bool
	InsufficientSample bool
	IsCombined         bool
	CombinationMethod  string
	IsDomainScore      bool
	AnalysisTime       time.Time
}

// NewIndicatorResultRecord converts a result into its store row.
func NewIndicatorResultRecord(analysisID int64, r IndicatorResult, at time.Time) IndicatorResultRecord {
	return IndicatorResultRecord{
		AnalysisID:         analysisID,
		Domain:             string(r.Domain),
		District:           r.District,
		Cohort:             string(r.Cohort),
		Indicator:          r.Indicator,
		Value:              r.Value,
		Goodness:           r.Goodness,
		SampleSize:         int32(r.SampleSize),
		NoData:             r.NoData,
		InsufficientSample: r.InsufficientSample,
		IsCombined:         r.IsCombined,
		CombinationMethod:  string(r.CombinationMethod),
		IsDomainScore:      r.IsDomainScore,
		AnalysisTime:       at,
	}
}
