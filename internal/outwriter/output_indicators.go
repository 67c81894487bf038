package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/healthgap/internal/contract"
	"github.com/huangsam/healthgap/internal/parquet"
	"github.com/huangsam/healthgap/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteIndicatorResults outputs indicator rows, dispatching based on the output format configured.
func WriteIndicatorResults(rows []schema.IndicatorResult, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeIndicatorJSON(w, rows)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeIndicatorCSV(w, rows, cfg.Precision)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := writeIndicatorParquet(rows, cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	default:
		// Default to human-readable table
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeIndicatorTable(w, rows, cfg, duration)
		}, "Wrote table")
	}
	return nil
}

// writeIndicatorTable generates and writes the human-readable table.
func writeIndicatorTable(w io.Writer, rows []schema.IndicatorResult, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, fmtOpt := createFormatters(cfg.Precision)
	table := tablewriter.NewWriter(w)

	// 1. Define Headers
	table.Header([]string{"#", "Indicator", "Cohort", "Value", "Goodness", "Rating", "Sample", "Notes"})

	// 2. Configure Alignment
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	// 3. Populate Rows
	labelWidth := GetMaxTableLabelWidth(cfg, 70)
	var data [][]string
	rank := 0
	for _, r := range rows {
		position := ""
		label := r.Label
		if r.IsDomainScore {
			label = "▸ " + label
		} else {
			rank++
			position = strconv.Itoa(rank)
		}
		value := fmtOpt(r.Value, "-")
		if r.Kind == schema.SupplyRule && r.AbsoluteCount != nil {
			value = fmt.Sprintf("%s (%s)", value, fmtFloat(*r.AbsoluteCount))
		}
		data = append(data, []string{
			position,
			contract.TruncateLabel(label, labelWidth),
			string(r.Cohort),
			value,
			fmtOpt(r.Goodness, "-"),
			ratingLabel(cfg, r),
			sampleLabel(r),
			resultNotes(r),
		})
	}

	// 4. Render the table
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Showing %d indicator rows (district: %s, cohort: %s)\n", rank, cfg.District, cohortHeader(cfg.Cohort)); err != nil {
		return err
	}
	return writeRunSummary(w, cfg, duration)
}

// writeIndicatorCSV writes the indicator rows in CSV format.
func writeIndicatorCSV(w io.Writer, rows []schema.IndicatorResult, precision int) error {
	_, fmtOpt := createFormatters(precision)
	header := []string{
		"domain",
		"indicator",
		"label",
		"kind",
		"district",
		"cohort",
		"value",
		"goodness",
		"rating",
		"sample_size",
		"no_data",
		"insufficient_sample",
		"is_pre_calculated",
		"is_combined",
		"combination_method",
		"fallback_tier",
		"is_domain_score",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range rows {
			rec := []string{
				string(r.Domain),
				r.Indicator,
				r.Label,
				string(r.Kind),
				r.District,
				string(r.Cohort),
				fmtOpt(r.Value, ""),
				fmtOpt(r.Goodness, ""),
				schema.GetResultLabel(r),
				sampleLabel(r),
				formatBool(r.NoData),
				formatBool(r.InsufficientSample),
				formatBool(r.IsPreCalculated),
				formatBool(r.IsCombined),
				string(r.CombinationMethod),
				string(r.FallbackTier),
				formatBool(r.IsDomainScore),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeIndicatorJSON writes the indicator rows with their rating in JSON format.
func writeIndicatorJSON(w io.Writer, rows []schema.IndicatorResult) error {
	type JSONIndicatorResult struct {
		Rating string `json:"rating"`
		schema.IndicatorResult
	}

	output := make([]JSONIndicatorResult, len(rows))
	for i, r := range rows {
		output[i] = JSONIndicatorResult{
			Rating:          schema.GetResultLabel(r),
			IndicatorResult: r,
		}
	}
	return writeJSON(w, output)
}

// writeIndicatorParquet writes the indicator rows to outputFile.
func writeIndicatorParquet(rows []schema.IndicatorResult, outputFile string) error {
	return writeParquetFile(outputFile, func(path string) error {
		return parquet.WriteIndicatorResultsParquet(parquet.ConvertIndicatorResults(rows, time.Now()), path)
	})
}
