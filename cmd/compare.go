package cmd

import (
	"github.com/huangsam/healthgap/core"
	"github.com/spf13/cobra"
)

// compareCmd focused on equity gaps between cohorts.
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare a target cohort against a base cohort",
	Long: `Compute the equity gap for every indicator between two cohorts.

The gap is the target goodness minus the base goodness, so a negative gap
means the target cohort is worse off. Rows are ordered from the largest
disadvantage to the largest advantage.

Examples:
  # Elderly vs the general population
  healthgap compare --target-cohort elderly

  # LGBTQ vs informal workers in one district
  healthgap compare --base-cohort informal_workers --target-cohort lgbtq --district Dusit

  # Export the gaps for a report
  healthgap compare --target-cohort disabled --output csv --output-file gaps.csv`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return core.ExecuteCompare(rootCtx, cfg, cacheManager)
	},
}
