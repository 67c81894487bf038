package algo

import (
	"math"

	"github.com/huangsam/healthgap/schema"
)

// Large-sample critical values of the t statistic.
const (
	critical05  = 1.96
	critical01  = 2.58
	critical001 = 3.29

	// minResidual keeps t finite when |r| is exactly 1.
	minResidual = 1e-12
)

// Significance approximates the two-tailed significance of r over n pairs
// using fixed critical values instead of an exact t distribution.
func Significance(r float64, n int) schema.Significance {
	notSignificant := schema.Significance{PValue: "n.s."}
	if n < 3 || math.IsNaN(r) {
		return notSignificant
	}

	residual := max(1-r*r, minResidual)
	t := r * math.Sqrt(float64(n-2)/residual)
	abs := math.Abs(t)

	switch {
	case abs >= critical001:
		return schema.Significance{Significant: true, PValue: "p<0.001", Stars: "***", TStatistic: t}
	case abs >= critical01:
		return schema.Significance{Significant: true, PValue: "p<0.01", Stars: "**", TStatistic: t}
	case abs >= critical05:
		return schema.Significance{Significant: true, PValue: "p<0.05", Stars: "*", TStatistic: t}
	default:
		notSignificant.TStatistic = t
		return notSignificant
	}
}
