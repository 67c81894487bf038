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

// WriteDomainScores outputs the domain x cohort score matrix of one district.
func WriteDomainScores(table schema.DomainScoreTable, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, table)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeDomainCSV(w, table, cfg.Precision)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is not supported for domain scores")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeDomainTable(w, table, cfg, duration)
		}, "Wrote table")
	}
}

// writeDomainTable writes one row per domain with one score column per cohort.
func writeDomainTable(w io.Writer, scores schema.DomainScoreTable, cfg *contract.Config, duration time.Duration) error {
	_, fmtOpt := createFormatters(cfg.Precision)
	table := tablewriter.NewWriter(w)

	headers := []string{"Domain"}
	for _, c := range scores.Cohorts {
		headers = append(headers, schema.CohortLabel(c))
	}
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, row := range scores.Rows {
		line := []string{row.Label}
		for _, s := range row.Scores {
			if s.Goodness == nil {
				line = append(line, schema.NoDataValue)
				continue
			}
			line = append(line, fmt.Sprintf("%s %s", fmtOpt(s.Goodness, "-"), ratingLabel(cfg, s)))
		}
		data = append(data, line)
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Domain scores for %s (%d domains, %d cohorts)\n", scores.District, len(scores.Rows), len(scores.Cohorts)); err != nil {
		return err
	}
	return writeRunSummary(w, cfg, duration)
}

// writeDomainCSV writes the score matrix in long format, one line per cell.
func writeDomainCSV(w io.Writer, scores schema.DomainScoreTable, precision int) error {
	_, fmtOpt := createFormatters(precision)
	header := []string{"district", "domain", "cohort", "score", "rating", "valid_indicators", "total_indicators", "sample_size"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, row := range scores.Rows {
			for _, s := range row.Scores {
				rec := []string{
					scores.District,
					string(row.Domain),
					string(s.Cohort),
					fmtOpt(s.Goodness, ""),
					schema.GetResultLabel(s),
					strconv.Itoa(s.ValidIndicators),
					strconv.Itoa(s.TotalIndicators),
					strconv.Itoa(s.SampleSize),
				}
				if err := cw.Write(rec); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// WriteDistricts outputs every district with data.
func WriteDistricts(districts []schema.DistrictInfo, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, districts)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeDistrictCSV(w, districts)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is not supported for districts")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeDistrictTable(w, districts)
		}, "Wrote table")
	}
}

// writeDistrictTable writes the district listing.
func writeDistrictTable(w io.Writer, districts []schema.DistrictInfo) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Code", "District", "Survey Records", "Population"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, d := range districts {
		code := "-"
		if d.Code > 0 {
			code = strconv.Itoa(d.Code)
		}
		data = append(data, []string{code, d.Name, strconv.Itoa(d.Records), strconv.FormatInt(d.Population, 10)})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d districts with data\n", len(districts))
	return err
}

// writeDistrictCSV writes the district listing in CSV format.
func writeDistrictCSV(w io.Writer, districts []schema.DistrictInfo) error {
	return writeCSVWithHeader(w, []string{"code", "district", "records", "population"}, func(cw *csv.Writer) error {
		for _, d := range districts {
			if err := cw.Write([]string{strconv.Itoa(d.Code), d.Name, strconv.Itoa(d.Records), strconv.FormatInt(d.Population, 10)}); err != nil {
				return err
			}
		}
		return nil
	})
}
