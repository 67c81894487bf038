package core

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/huangsam/healthgap/core/agg"
	"github.com/huangsam/healthgap/internal/contract"
	"github.com/huangsam/healthgap/schema"
)

// maxViolationsShown caps the violations printed per domain.
const maxViolationsShown = 5

// checkThresholds compares every (district, cohort) domain score against the
// threshold of its domain. Scores without data are skipped, not violations.
func checkThresholds(results *Results, domains []schema.Domain, cohorts []schema.Cohort, thresholds map[schema.Domain]float64) *schema.CheckResult {
	result := &schema.CheckResult{
		CheckedDomains: domains,
		Thresholds:     make(map[schema.Domain]float64, len(domains)),
		MinScores:      make(map[schema.Domain]float64, len(domains)),
		MinScoreCells:  make(map[schema.Domain][]schema.CheckCell, len(domains)),
		AvgScores:      make(map[schema.Domain]float64, len(domains)),
	}

	for _, domain := range domains {
		threshold, ok := thresholds[domain]
		if !ok {
			threshold = contract.DefaultThreshold
		}
		result.Thresholds[domain] = threshold

		var sum float64
		var count int
		for _, d := range results.GetAvailableDistricts() {
			for _, cohort := range cohorts {
				score, ok := results.GetDomainScore(domain, d.Name, cohort)
				if !ok || !score.Valid() {
					result.SkippedCells++
					continue
				}
				value := *score.Value
				cell := schema.CheckCell{District: d.Name, Cohort: cohort}
				result.TotalCells++
				sum += value
				count++

				// --- Track minimum ---
				current, seen := result.MinScores[domain]
				switch {
				case !seen || value < current:
					result.MinScores[domain] = value
					result.MinScoreCells[domain] = []schema.CheckCell{cell}
				case value == current:
					result.MinScoreCells[domain] = append(result.MinScoreCells[domain], cell)
				}

				if value < threshold {
					result.Violations = append(result.Violations, schema.CheckViolation{
						District:  d.Name,
						Cohort:    cohort,
						Domain:    domain,
						Score:     value,
						Threshold: threshold,
					})
				}
			}
		}
		if count > 0 {
			result.AvgScores[domain] = agg.Round2(sum / float64(count))
		}
	}

	result.Passed = len(result.Violations) == 0
	return result
}

// printCheckResult prints the check result in a concise format suitable for CI/CD.
func printCheckResult(w io.Writer, result *schema.CheckResult, duration time.Duration) {
	printCheckHeader(w, result, duration)

	if result.Passed {
		printCheckSuccess(w, result)
	} else {
		printCheckFailure(w, result)
	}
}

// printCheckHeader prints the common header information for check results.
func printCheckHeader(w io.Writer, result *schema.CheckResult, duration time.Duration) {
	_, _ = fmt.Fprintln(w, "Equity Check Results:")
	_, _ = fmt.Fprintln(w, "  Thresholds:")
	for _, domain := range result.CheckedDomains {
		_, _ = fmt.Fprintf(w, "    %-22s %.1f\n", string(domain)+":", result.Thresholds[domain])
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "Checked %d domain scores (%d without data) in %v\n\n", result.TotalCells, result.SkippedCells, duration)
}

// printCheckSuccess prints the success case output.
func printCheckSuccess(w io.Writer, result *schema.CheckResult) {
	_, _ = fmt.Fprintf(w, "✅ All domain scores met their thresholds\n\n")
	_, _ = fmt.Fprintln(w, "Scores observed:")

	for _, domain := range result.CheckedDomains {
		cells := result.MinScoreCells[domain]
		if len(cells) == 0 {
			_, _ = fmt.Fprintf(w, "  %s: no data\n", domain)
			continue
		}

		// Show the first cell that had the minimum score
		where := fmt.Sprintf("%s / %s", cells[0].District, cells[0].Cohort)
		if len(cells) > 1 {
			where += fmt.Sprintf(" (+%d more)", len(cells)-1)
		}
		_, _ = fmt.Fprintf(w, "  %s: min=%.1f (%s), avg=%.1f\n", domain, result.MinScores[domain], where, result.AvgScores[domain])
	}
}

// printCheckFailure prints the failure case output.
func printCheckFailure(w io.Writer, result *schema.CheckResult) {
	_, _ = fmt.Fprintf(w, "❌ Equity check failed: %d violation(s) found across %d domain scores\n\n", len(result.Violations), result.TotalCells)

	// Group by domain for better readability
	groups := make(map[schema.Domain][]schema.CheckViolation)
	for _, v := range result.Violations {
		groups[v.Domain] = append(groups[v.Domain], v)
	}

	for _, domain := range result.CheckedDomains {
		violations := groups[domain]
		if len(violations) == 0 {
			continue
		}

		// Sort by score ascending
		slices.SortStableFunc(violations, func(a, b schema.CheckViolation) int {
			return cmp.Compare(a.Score, b.Score)
		})

		_, _ = fmt.Fprintf(w, "Domain: %s (%d violations)\n", domain, len(violations))
		for i, v := range violations {
			if i == maxViolationsShown {
				_, _ = fmt.Fprintf(w, "  ... and %d more\n", len(violations)-i)
				break
			}
			_, _ = fmt.Fprintf(w, "  - %s / %s (score: %.1f < threshold: %.1f)\n", v.District, v.Cohort, v.Score, v.Threshold)
		}
		_, _ = fmt.Fprintln(w)
	}
}
