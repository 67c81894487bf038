package cmd

import (
	"github.com/huangsam/healthgap/core"
	"github.com/spf13/cobra"
)

// indicatorsCmd focused on per-indicator values.
var indicatorsCmd = &cobra.Command{
	Use:   "indicators",
	Short: "Show indicator values and domain scores for a district and cohort",
	Long: `Compute every indicator for the selected district, cohort and domain.

Each domain block starts with the domain score (the mean goodness of its
indicators) followed by the individual indicators. Survey indicators are
prevalences or means computed from respondent microdata, with a small sample
fallback to the district total for health behaviors. Supply indicators come
from the district registry, normalized against the Bangkok benchmarks.

Indicator labels:
  BETTER / SIMILAR / WORSE - goodness against the domain threshold
  INSUFFICIENT             - too few respondents (below 5)
  NO DATA                  - no respondents or registry rows

Examples:
  # Elderly residents across the whole city
  healthgap indicators --cohort elderly

  # Healthcare access in one district
  healthgap indicators --district Dusit --domain healthcare_access

  # Only registry-backed indicators, exported to CSV
  healthgap indicators --indicator-type supply --output csv --output-file supply.csv`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return core.ExecuteIndicators(rootCtx, cfg, cacheManager)
	},
}
