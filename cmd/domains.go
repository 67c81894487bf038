package cmd

import (
	"github.com/huangsam/healthgap/core"
	"github.com/spf13/cobra"
)

// domainsCmd focused on domain-level summaries.
var domainsCmd = &cobra.Command{
	Use:   "domains",
	Short: "Show domain scores for a district and cohort",
	Long: `Summarize each health domain as a single 0-100 score where higher is better.

Domain scores average the goodness of the domain's indicators that have
enough data. Use this view for a quick overview before drilling into
individual indicators.

Examples:
  # Domain overview for the general population
  healthgap domains

  # Compare districts by running one district at a time
  healthgap domains --district "Bang Rak" --cohort disabled`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return core.ExecuteDomains(rootCtx, cfg, cacheManager)
	},
}
