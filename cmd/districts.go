package cmd

import (
	"github.com/huangsam/healthgap/core"
	"github.com/spf13/cobra"
)

// districtsCmd lists the districts found in the data.
var districtsCmd = &cobra.Command{
	Use:   "districts",
	Short: "List districts available in the survey and registry data",
	Long: `List every district that appears in the loaded data, sorted by name.

The pseudo-district "Bangkok Overall" aggregates all respondents and is
always available.

Examples:
  healthgap districts
  healthgap districts --output json`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return core.ExecuteDistricts(rootCtx, cfg, cacheManager)
	},
}
