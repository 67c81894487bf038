package cmd

import (
	"github.com/huangsam/healthgap/core"
	"github.com/spf13/cobra"
)

// correlationsCmd focused on indicator relationships.
var correlationsCmd = &cobra.Command{
	Use:   "correlations",
	Short: "Rank indicators by their Pearson correlation with a target",
	Long: `Correlate every survey indicator with a target indicator across respondents.

Results are ranked by absolute correlation and include a two-sided
t-test. Correlations weaker than --min-correlation are dropped. Use
--matrix to print the full correlation matrix instead.

Matrices are cached per district, cohort and domain selection using the
configured cache backend.

Examples:
  # What moves together with diabetes?
  healthgap correlations --target diabetes

  # Elderly respondents only, stronger links
  healthgap correlations --target hypertension --cohort elderly --min-correlation 0.3

  # Full matrix for one domain as Parquet
  healthgap correlations --matrix --domain health_behaviors --output parquet --output-file matrix.parquet`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return core.ExecuteCorrelations(rootCtx, cfg, cacheManager)
	},
}
