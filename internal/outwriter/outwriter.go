// Package outwriter has output and writer logic.
package outwriter

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/huangsam/healthgap/internal/contract"
	"github.com/huangsam/healthgap/schema"
)

// palette holds the delta colours of comparison tables.
type palette struct {
	red, green, yellow func(...any) string
}

// newPalette returns coloured printers when cfg.UseColors is set, plain ones otherwise.
func newPalette(cfg *contract.Config) palette {
	if !cfg.UseColors {
		return palette{red: fmt.Sprint, green: fmt.Sprint, yellow: fmt.Sprint}
	}
	return palette{
		red:    color.New(color.FgRed).SprintFunc(),
		green:  color.New(color.FgGreen).SprintFunc(),
		yellow: color.New(color.FgYellow).SprintFunc(),
	}
}

// ratingLabel returns the goodness label of a result for table output.
func ratingLabel(cfg *contract.Config, r schema.IndicatorResult) string {
	if cfg.UseColors {
		return contract.GetColorLabel(r)
	}
	return schema.GetResultLabel(r)
}

// sampleLabel returns the sample column of a result.
func sampleLabel(r schema.IndicatorResult) string {
	if r.SampleSizeLabel != "" {
		return r.SampleSizeLabel
	}
	return strconv.Itoa(r.SampleSize)
}

// resultNotes describes why a value is missing or how it was produced.
func resultNotes(r schema.IndicatorResult) string {
	var notes []string
	switch {
	case r.NoData:
		notes = append(notes, "no data")
	case r.InsufficientSample:
		notes = append(notes, fmt.Sprintf("n<%d", schema.MinSample))
	}
	if r.IsDomainScore && r.TotalIndicators > 0 {
		notes = append(notes, fmt.Sprintf("%d/%d indicators", r.ValidIndicators, r.TotalIndicators))
	}
	if r.IsPreCalculated {
		notes = append(notes, "pre-calculated")
	}
	if r.IsCombined {
		notes = append(notes, "combined: "+strings.ReplaceAll(string(r.CombinationMethod), "_", " "))
	}
	return strings.Join(notes, ", ")
}

// writeRunSummary prints the trailing line shared by every analysis table.
func writeRunSummary(w io.Writer, cfg *contract.Config, duration time.Duration) error {
	_, err := fmt.Fprintf(w, "Analysis completed in %v with %d workers. Cache backend: %s\n", duration, cfg.Workers, cfg.CacheBackend)
	return err
}

// cohortHeader returns the cohort label of a filter, or "All cohorts".
func cohortHeader(c schema.Cohort) string {
	if c == "" {
		return "All cohorts"
	}
	return schema.CohortLabel(c)
}
