package cmd

import (
	"fmt"

	"github.com/huangsam/healthgap/core"
	"github.com/spf13/cobra"
)

// checkCmd focused on threshold enforcement.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Enforce domain score thresholds (fails on violations)",
	Long: `Check every district and cohort against minimum domain scores.

Designed for scheduled data pipelines. The command exits with a non-zero
code when any domain score falls below its threshold, listing each
violation.

Default thresholds: 50.0 for every domain

Examples:
  # Gate on the default thresholds
  healthgap check

  # Custom thresholds per domain
  healthgap check --thresholds-override "education:60,health_outcomes:40"

  # Only check one cohort
  healthgap check --cohort elderly`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := core.ExecuteCheck(rootCtx, cfg, cacheManager); err != nil {
			return fmt.Errorf("policy check failed: %w", err)
		}
		return nil
	},
}
