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

// WriteCorrelations outputs the ranked correlations of one target indicator.
func WriteCorrelations(result schema.CorrelationResult, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, result)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCorrelationCSV(w, result)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := writeParquetFile(cfg.OutputFile, func(path string) error {
			return parquet.WriteCorrelationsParquet(parquet.ConvertCorrelationResult(result), path)
		}); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCorrelationTable(w, result, cfg, duration)
		}, "Wrote table")
	}
	return nil
}

// writeCorrelationTable writes the ranked correlations.
func writeCorrelationTable(w io.Writer, result schema.CorrelationResult, cfg *contract.Config, duration time.Duration) error {
	colors := newPalette(cfg)
	table := tablewriter.NewWriter(w)

	table.Header([]string{"Rank", "Indicator", "Domain", "r", "Strength", "p", "t"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	labelWidth := GetMaxTableLabelWidth(cfg, 60)
	var data [][]string
	for _, e := range result.Entries {
		r := strconv.FormatFloat(e.Correlation, 'f', 4, 64) + e.Significance.Stars
		switch {
		case e.Direction > 0:
			r = colors.green(r)
		case e.Direction < 0:
			r = colors.red(r)
		}
		data = append(data, []string{
			strconv.Itoa(e.Rank),
			contract.TruncateLabel(e.Label, labelWidth),
			schema.DomainLabel(e.Domain),
			r,
			e.Strength,
			e.Significance.PValue,
			strconv.FormatFloat(e.Significance.TStatistic, 'f', 2, 64),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Top %d correlations with %s (district: %s, cohort: %s, n=%d)\n",
		len(result.Entries), result.TargetLabel, result.District, cohortHeader(result.Cohort), result.SampleSize); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "Significance: *** p < 0.001, ** p < 0.01, * p < 0.05"); err != nil {
		return err
	}
	return writeRunSummary(w, cfg, duration)
}

// writeCorrelationCSV writes the ranked correlations in CSV format.
func writeCorrelationCSV(w io.Writer, result schema.CorrelationResult) error {
	header := []string{"rank", "target", "indicator", "label", "domain", "correlation", "strength", "direction", "significant", "p_value", "t_statistic", "sample_size"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, e := range result.Entries {
			rec := []string{
				strconv.Itoa(e.Rank),
				result.Target,
				e.Indicator,
				e.Label,
				string(e.Domain),
				strconv.FormatFloat(e.Correlation, 'f', 4, 64),
				e.Strength,
				strconv.Itoa(e.Direction),
				formatBool(e.Significance.Significant),
				e.Significance.PValue,
				strconv.FormatFloat(e.Significance.TStatistic, 'f', 4, 64),
				strconv.Itoa(result.SampleSize),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteCorrelationMatrix outputs a full correlation matrix.
func WriteCorrelationMatrix(m *schema.CorrelationMatrix, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, m)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeMatrixCSV(w, m)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is not supported for the correlation matrix")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeMatrixTable(w, m, cfg, duration)
		}, "Wrote table")
	}
}

// formatCell renders one matrix cell; undefined pairs are blank.
func formatCell(v *float64, missing string) string {
	if v == nil {
		return missing
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

// writeMatrixTable writes the matrix with indicator names as the first column
// and column indexes as headers to keep the table narrow.
func writeMatrixTable(w io.Writer, m *schema.CorrelationMatrix, cfg *contract.Config, duration time.Duration) error {
	table := tablewriter.NewWriter(w)

	headers := []string{"#", "Indicator"}
	for i := range m.Indicators {
		headers = append(headers, strconv.Itoa(i+1))
	}
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	labelWidth := GetMaxTableLabelWidth(cfg, 6*len(m.Indicators))
	var data [][]string
	for i, name := range m.Indicators {
		row := []string{strconv.Itoa(i + 1), contract.TruncateLabel(name, labelWidth)}
		for j := range m.Indicators {
			row = append(row, formatCell(m.Values[i][j], "-"))
		}
		data = append(data, row)
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Correlation matrix of %d indicators over %d records\n", len(m.Indicators), m.SampleSize); err != nil {
		return err
	}
	return writeRunSummary(w, cfg, duration)
}

// writeMatrixCSV writes the matrix with a header row of indicator names.
func writeMatrixCSV(w io.Writer, m *schema.CorrelationMatrix) error {
	header := append([]string{"indicator"}, m.Indicators...)
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for i, name := range m.Indicators {
			row := []string{name}
			for j := range m.Indicators {
				row = append(row, formatCell(m.Values[i][j], ""))
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}
