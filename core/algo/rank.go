package algo

import (
	"cmp"
	"math"
	"slices"

	"github.com/huangsam/healthgap/schema"
)

// Strength labels by minimum absolute correlation.
const (
	VeryStrong = "very strong"
	Strong     = "strong"
	Moderate   = "moderate"
	Weak       = "weak"
	Negligible = "negligible"
)

// Strength returns the label for the magnitude of a correlation.
func Strength(r float64) string {
	abs := math.Abs(r)
	switch {
	case abs >= 0.7:
		return VeryStrong
	case abs >= 0.5:
		return Strong
	case abs >= 0.3:
		return Moderate
	case abs >= 0.1:
		return Weak
	default:
		return Negligible
	}
}

// Direction returns the sign of a correlation.
func Direction(r float64) int {
	switch {
	case r > 0:
		return 1
	case r < 0:
		return -1
	default:
		return 0
	}
}

// TopCorrelations ranks every indicator against a target by absolute
// correlation. The target itself, nil cells and cells below minAbs are
// skipped. A non-positive topN keeps every entry.
func TopCorrelations(m *schema.CorrelationMatrix, target string, topN int, minAbs float64) []schema.CorrelationEntry {
	row := m.Index(target)
	if row < 0 || row >= len(m.Values) {
		return []schema.CorrelationEntry{}
	}

	entries := make([]schema.CorrelationEntry, 0, len(m.Indicators))
	for j, name := range m.Indicators {
		if j == row || j >= len(m.Values[row]) {
			continue
		}
		cell := m.Values[row][j]
		if cell == nil || math.Abs(*cell) < minAbs {
			continue
		}
		r := *cell
		entries = append(entries, schema.CorrelationEntry{
			Indicator:    name,
			Correlation:  round4(r),
			Strength:     Strength(r),
			Direction:    Direction(r),
			Significance: Significance(r, m.SampleSize),
		})
	}

	slices.SortStableFunc(entries, func(a, b schema.CorrelationEntry) int {
		if c := cmp.Compare(math.Abs(b.Correlation), math.Abs(a.Correlation)); c != 0 {
			return c
		}
		return cmp.Compare(a.Indicator, b.Indicator)
	})

	if topN > 0 && len(entries) > topN {
		entries = entries[:topN]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
