package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/healthgap/internal/contract"
	"github.com/huangsam/healthgap/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteComparisonResults outputs the cohort comparison, dispatching based on the output format configured.
func WriteComparisonResults(result schema.ComparisonResult, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, result)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeComparisonCSV(w, result, cfg.Precision)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is not supported for comparisons")
	default:
		// Default to human-readable table
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeComparisonTable(w, result, cfg, duration)
		}, "Wrote table")
	}
	return nil
}

// formatDelta renders a goodness delta. A negative delta means the target
// cohort is worse off, so it is red.
func formatDelta(colors palette, precision int, r schema.ComparisonDetail) string {
	if r.Status != schema.ComparedStatus {
		return "-"
	}
	switch {
	case r.Delta > 0:
		// Explicitly add + sign
		return colors.green(fmt.Sprintf("+%.*f ▲", precision, r.Delta))
	case r.Delta < 0:
		// Keeps the - sign from the float
		return colors.red(fmt.Sprintf("%.*f ▼", precision, r.Delta))
	default:
		return colors.yellow(fmt.Sprintf("%.*f", precision, 0.0))
	}
}

// writeComparisonTable writes the comparison details and summary.
func writeComparisonTable(w io.Writer, result schema.ComparisonResult, cfg *contract.Config, duration time.Duration) error {
	_, fmtOpt := createFormatters(cfg.Precision)
	colors := newPalette(cfg)
	table := tablewriter.NewWriter(w)

	// --- 1. Define Headers ---
	table.Header([]string{
		"Rank",
		"Indicator",
		schema.CohortLabel(result.BaseCohort),
		schema.CohortLabel(result.TargetCohort),
		"Delta",
		"Status",
	})

	// --- 2. Configure Alignment ---
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	// --- 3. Prepare Data Rows ---
	labelWidth := GetMaxTableLabelWidth(cfg, 60)
	var data [][]string
	for i, r := range result.Details {
		data = append(data, []string{
			strconv.Itoa(i + 1),
			contract.TruncateLabel(r.Label, labelWidth),
			fmtOpt(r.BaseGoodness, "-"),
			fmtOpt(r.TargetGoodness, "-"),
			formatDelta(colors, cfg.Precision, r),
			string(r.Status),
		})
	}

	// --- 4. Render the table ---
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	s := result.Summary
	if _, err := fmt.Fprintf(w, "Showing top %d gaps in %s\n", len(result.Details), result.District); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Net goodness delta: %.*f across %d compared indicators\n", cfg.Precision, s.NetGoodnessDelta, s.TotalCompared); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Worse: %d, Better: %d, Missing: %d\n", s.TotalWorse, s.TotalBetter, s.TotalMissing); err != nil {
		return err
	}
	return writeRunSummary(w, cfg, duration)
}

// writeComparisonCSV writes the comparison details in CSV format.
func writeComparisonCSV(w io.Writer, result schema.ComparisonResult, precision int) error {
	fmtFloat, fmtOpt := createFormatters(precision)
	header := []string{
		"rank",
		"district",
		"domain",
		"indicator",
		"base_cohort",
		"target_cohort",
		"base_value",
		"target_value",
		"base_goodness",
		"target_goodness",
		"delta",
		"status",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for i, r := range result.Details {
			delta := ""
			if r.Status == schema.ComparedStatus {
				delta = fmtFloat(r.Delta)
			}
			rec := []string{
				strconv.Itoa(i + 1),
				result.District,
				string(r.Domain),
				r.Indicator,
				string(result.BaseCohort),
				string(result.TargetCohort),
				fmtOpt(r.BaseValue, ""),
				fmtOpt(r.TargetValue, ""),
				fmtOpt(r.BaseGoodness, ""),
				fmtOpt(r.TargetGoodness, ""),
				delta,
				string(r.Status),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
