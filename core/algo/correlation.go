package algo

import (
	"math"
	"sync"

	"github.com/huangsam/healthgap/schema"
)

// PositivityFunc reports whether a record is positive for an indicator.
type PositivityFunc func(indicator string, r *schema.SurveyRecord) bool

// Pearson computes the correlation coefficient of two vectors. Mismatched or
// empty vectors return nil. A zero denominator returns 0.
func Pearson(x, y []float64) *float64 {
	n := len(x)
	if n == 0 || n != len(y) {
		return nil
	}

	var meanX, meanY float64
	for i := range n {
		meanX += x[i]
		meanY += y[i]
	}
	meanX /= float64(n)
	meanY /= float64(n)

	var num, sumX, sumY float64
	for i := range n {
		dx, dy := x[i]-meanX, y[i]-meanY
		num += dx * dy
		sumX += dx * dx
		sumY += dy * dy
	}

	r := 0.0
	if den := math.Sqrt(sumX * sumY); den != 0 {
		r = max(-1, min(1, num/den))
	}
	return &r
}

// Encode turns an indicator into a 0/1 vector over the records.
func Encode(records []*schema.SurveyRecord, indicator string, positive PositivityFunc) []float64 {
	v := make([]float64, len(records))
	for i, r := range records {
		if positive(indicator, r) {
			v[i] = 1
		}
	}
	return v
}

// BuildMatrix computes the full Pearson matrix of the given indicators.
// The upper triangle (diagonal included) is computed by a pool of workers and
// mirrored, so matrix[a][b] and matrix[b][a] are always identical.
func BuildMatrix(records []*schema.SurveyRecord, indicators []string, positive PositivityFunc, workers int) *schema.CorrelationMatrix {
	n := len(indicators)
	m := &schema.CorrelationMatrix{
		Indicators: append([]string(nil), indicators...),
		SampleSize: len(records),
		Values:     make([][]*float64, n),
	}
	for i := range m.Values {
		m.Values[i] = make([]*float64, n)
	}
	if n == 0 {
		return m
	}

	vectors := make([][]float64, n)
	for i, name := range indicators {
		vectors[i] = Encode(records, name, positive)
	}

	workers = max(1, min(workers, n))
	rowCh := make(chan int, n)
	var wg sync.WaitGroup

	for range workers {
		wg.Go(func() {
			for i := range rowCh {
				// Each worker owns row i from the diagonal rightwards and its mirror
				// column, so no cell is written twice.
				for j := i; j < n; j++ {
					r := Pearson(vectors[i], vectors[j])
					m.Values[i][j] = r
					m.Values[j][i] = r
				}
			}
		})
	}

	for i := range n {
		rowCh <- i
	}
	close(rowCh)
	wg.Wait()

	return m
}
