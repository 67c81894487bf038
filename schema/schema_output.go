package schema

// Goodness label constants.
const (
	ExcellentValue = "Excellent"
	GoodValue      = "Good"
	FairValue      = "Fair"
	PoorValue      = "Poor"
	NoDataValue    = "No Data"
)

// GetPlainLabel returns a plain text label for a goodness score.
// This is the core logic used for CSV, JSON, and table printing.
func GetPlainLabel(goodness float64) string {
	switch {
	case goodness >= 75:
		return ExcellentValue
	case goodness >= 50:
		return GoodValue
	case goodness >= 25:
		return FairValue
	default:
		return PoorValue
	}
}

// GetResultLabel returns the label for a result, or NoDataValue when it has none.
func GetResultLabel(r IndicatorResult) string {
	if r.Goodness == nil || !r.Valid() {
		return NoDataValue
	}
	return GetPlainLabel(*r.Goodness)
}
