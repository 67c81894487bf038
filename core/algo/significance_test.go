package algo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignificance(t *testing.T) {
	tests := []struct {
		name        string
		r           float64
		n           int
		significant bool
		pValue      string
		stars       string
	}{
		{"Too Few Pairs", 0.99, 2, false, "n.s.", ""},
		{"Zero Correlation", 0, 1000, false, "n.s.", ""},
		{"Weak Small Sample", 0.1, 30, false, "n.s.", ""},
		{"P05", 0.2, 100, true, "p<0.05", "*"},      // t = 2.02
		{"P01", 0.27, 100, true, "p<0.01", "**"},    // t = 2.78
		{"P001", 0.35, 100, true, "p<0.001", "***"}, // t = 3.70
		{"Negative", -0.35, 100, true, "p<0.001", "***"},
		{"Perfect Correlation", 1, 10, true, "p<0.001", "***"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Significance(tt.r, tt.n)
			assert.Equal(t, tt.significant, s.Significant)
			assert.Equal(t, tt.pValue, s.PValue)
			assert.Equal(t, tt.stars, s.Stars)
			assert.False(t, math.IsInf(s.TStatistic, 0))
			assert.False(t, math.IsNaN(s.TStatistic))
		})
	}
}

func TestSignificanceTStatistic(t *testing.T) {
	s := Significance(0.5, 27)
	// t = 0.5 * sqrt(25 / 0.75)
	assert.InDelta(t, 2.886751, s.TStatistic, 1e-6)
	assert.Equal(t, "p<0.01", s.PValue)
}
