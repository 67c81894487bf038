package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/healthgap/internal/contract"
	"github.com/huangsam/healthgap/schema"
)

// WriteRegistry displays the indicator catalog with the active benchmarks.
// This is a static display that does not require survey data.
func WriteRegistry(model schema.RegistryRenderModel, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, model)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRegistryCSV(w, model)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is not supported for the registry")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRegistryText(w, model, cfg)
		}, "Wrote text")
	}
}

// indicatorTraits returns the short annotations of one catalog entry.
func indicatorTraits(e schema.RegistryEntry) string {
	traits := string(e.Kind)
	if e.Reverse {
		traits += ", reverse"
	}
	if e.MinAge > 0 {
		traits += fmt.Sprintf(", age %d+", e.MinAge)
	}
	if e.Benchmark != nil {
		traits += fmt.Sprintf(", per %s: poor %g / good %g / excellent %g",
			strconv.FormatFloat(e.Scale, 'f', -1, 64), e.Benchmark.Poor, e.Benchmark.Good, e.Benchmark.Excellent)
	}
	return traits
}

// writeRegistryText displays the catalog grouped by domain.
func writeRegistryText(w io.Writer, model schema.RegistryRenderModel, cfg *contract.Config) error {
	title := model.Title
	if cfg.UseEmojis {
		title = "🩺 " + title
	}
	if _, err := fmt.Fprintf(w, "%s\n%s\n\n%s\n", title, "========================", model.Description); err != nil {
		return err
	}

	var current schema.Domain
	for _, e := range model.Entries {
		if e.Domain != current {
			current = e.Domain
			if _, err := fmt.Fprintf(w, "\n%s\n", schema.DomainLabel(current)); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "   %-40s %s (%s)\n", e.Indicator, e.Label, indicatorTraits(e)); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "\n%d indicators\n", len(model.Entries))
	return err
}

// writeRegistryCSV writes one line per catalog entry.
func writeRegistryCSV(w io.Writer, model schema.RegistryRenderModel) error {
	header := []string{"domain", "indicator", "label", "kind", "reverse", "min_age", "scale", "poor", "good", "excellent"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, e := range model.Entries {
			rec := []string{
				string(e.Domain),
				e.Indicator,
				e.Label,
				string(e.Kind),
				formatBool(e.Reverse),
				strconv.Itoa(e.MinAge),
				strconv.FormatFloat(e.Scale, 'f', -1, 64),
				"", "", "",
			}
			if b := e.Benchmark; b != nil {
				rec[7] = strconv.FormatFloat(b.Poor, 'f', -1, 64)
				rec[8] = strconv.FormatFloat(b.Good, 'f', -1, 64)
				rec[9] = strconv.FormatFloat(b.Excellent, 'f', -1, 64)
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
