package core

import (
	"fmt"
	"path/filepath"

	"github.com/huangsam/healthgap/internal/contract"
	"github.com/huangsam/healthgap/schema"
)

// headerPrefix returns the leading marker of header lines.
func headerPrefix(cfg *contract.Config, emoji string) string {
	if cfg.UseEmojis {
		return emoji + " "
	}
	return ""
}

// logAnalysisHeader prints a concise, 2-line header for each analysis run.
func logAnalysisHeader(cfg *contract.Config) {
	dataName := filepath.Base(cfg.DataDir)
	if dataName == "" || dataName == "." {
		dataName = "current"
	}

	// Line 1: The data directory and district
	fmt.Printf("%sData: %s (District: %s)\n", headerPrefix(cfg, "🩺"), dataName, cfg.District)

	// Line 2: The filters applied
	domain := "all"
	if cfg.Domain != "" {
		domain = schema.DomainLabel(cfg.Domain)
	}
	cohort := "all"
	if cfg.Cohort != "" {
		cohort = schema.CohortLabel(cfg.Cohort)
	}
	fmt.Printf("%sDomain: %s | Cohort: %s | Indicators: %s\n", headerPrefix(cfg, "📋"), domain, cohort, cfg.IndicatorType)
}

// logCompareHeader prints a header for cohort comparison.
func logCompareHeader(cfg *contract.Config) {
	fmt.Printf("%sComparing: %s ↔ %s (District: %s)\n",
		headerPrefix(cfg, "📊"),
		schema.CohortLabel(cfg.BaseCohort),
		schema.CohortLabel(cfg.TargetCohort),
		cfg.District)
}
