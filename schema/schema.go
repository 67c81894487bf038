// Package schema has models and constants for all parts of healthgap.
package schema

// SurveyRecord is one respondent of the household survey.
// Numeric cells live in Values, everything else in Text. A record is
// never modified after the loader classifies it.
type SurveyRecord struct {
	DistrictCode int               // Numeric district code from the dname column
	DistrictName string            // Display name resolved from the district table
	Cohort       Cohort            // Cohort assigned by the classifier
	Values       map[string]float64 // Numeric fields keyed by lower-cased column name
	Text         map[string]string  // Non-numeric fields such as sentinel strings
}

// Number returns the numeric value of a field.
func (r *SurveyRecord) Number(field string) (float64, bool) {
	v, ok := r.Values[field]
	return v, ok
}

// Is reports whether a numeric field holds exactly the given code.
func (r *SurveyRecord) Is(field string, code float64) bool {
	v, ok := r.Values[field]
	return ok && v == code
}

// TextValue returns the text value of a field.
func (r *SurveyRecord) TextValue(field string) (string, bool) {
	v, ok := r.Text[field]
	return v, ok
}

// Benchmark holds the poor/good/excellent thresholds of a supply indicator.
type Benchmark struct {
	Poor      float64 `json:"poor"`
	Good      float64 `json:"good"`
	Excellent float64 `json:"excellent"`
}

// IndicatorResult is the outcome of one indicator for one district and cohort.
// Domain scores reuse the same shape with IsDomainScore set.
type IndicatorResult struct {
	Domain    Domain   `json:"domain"`
	Indicator string   `json:"indicator"`
	Label     string   `json:"label"`
	Kind      RuleKind `json:"kind,omitempty"`
	District  string   `json:"district"`
	Cohort    Cohort   `json:"cohort"`

	Value           *float64 `json:"value"`    // Percentage, or rate per population for supply
	Goodness        *float64 `json:"goodness"` // 0-100 after reverse/benchmark normalization
	SampleSize      int      `json:"sample_size"`
	SampleSizeLabel string   `json:"sample_size_label,omitempty"` // Set when the value is pre-calculated

	Population    *int64   `json:"population,omitempty"`     // Supply only
	AbsoluteCount *float64 `json:"absolute_count,omitempty"` // Supply only

	NoData             bool              `json:"no_data"`
	InsufficientSample bool              `json:"insufficient_sample"`
	IsPreCalculated    bool              `json:"is_pre_calculated"`
	IsCombined         bool              `json:"is_combined"`
	CombinationMethod  CombinationMethod `json:"combination_method,omitempty"`
	FallbackTier       FallbackTier      `json:"fallback_tier,omitempty"`
	SurveyValue        *float64          `json:"survey_value,omitempty"`
	FallbackValue      *float64          `json:"fallback_value,omitempty"`

	IsDomainScore   bool `json:"is_domain_score"`
	ValidIndicators int  `json:"valid_indicators,omitempty"`
	TotalIndicators int  `json:"total_indicators,omitempty"`
}

// Valid reports whether the result contributes to a domain score.
func (r IndicatorResult) Valid() bool {
	return !r.NoData && !r.InsufficientSample && r.Value != nil
}

// CorrelationMatrix is a symmetric indicator by indicator matrix.
// A nil cell means the pair was structurally undefined.
type CorrelationMatrix struct {
	Indicators []string     `json:"indicators"`
	SampleSize int          `json:"sample_size"`
	Values     [][]*float64 `json:"values"`
}

// Index returns the row of an indicator, or -1 when absent.
func (m *CorrelationMatrix) Index(indicator string) int {
	for i, name := range m.Indicators {
		if name == indicator {
			return i
		}
	}
	return -1
}

// Get returns the correlation between two indicators.
func (m *CorrelationMatrix) Get(a, b string) (*float64, bool) {
	i, j := m.Index(a), m.Index(b)
	if i < 0 || j < 0 || i >= len(m.Values) || j >= len(m.Values[i]) {
		return nil, false
	}
	return m.Values[i][j], true
}

// Significance describes the approximate significance of a correlation.
type Significance struct {
	Significant bool    `json:"significant"`
	PValue      string  `json:"p_value"`
	Stars       string  `json:"stars"`
	TStatistic  float64 `json:"t_statistic"`
}

// CorrelationEntry is one ranked correlation against a target indicator.
type CorrelationEntry struct {
	Rank         int          `json:"rank"`
	Indicator    string       `json:"indicator"`
	Label        string       `json:"label"`
	Domain       Domain       `json:"domain"`
	Correlation  float64      `json:"correlation"`
	Strength     string       `json:"strength"`
	Direction    int          `json:"direction"` // Sign of the correlation
	Significance Significance `json:"significance"`
}

// CorrelationResult is the top-correlation report for one target.
type CorrelationResult struct {
	Target      string             `json:"target"`
	TargetLabel string             `json:"target_label"`
	District    string             `json:"district"`
	Cohort      Cohort             `json:"cohort,omitempty"`
	SampleSize  int                `json:"sample_size"`
	Entries     []CorrelationEntry `json:"entries"`
}

// DistrictInfo summarizes the data available for one district.
type DistrictInfo struct {
	Code       int    `json:"code"`
	Name       string `json:"name"`
	Records    int    `json:"records"`
	Population int64  `json:"population"`
}
