package cmd

import (
	"github.com/huangsam/healthgap/core"
	"github.com/spf13/cobra"
)

// registryCmd prints the indicator catalog.
var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "List the indicator catalog and active benchmarks",
	Long: `Print every indicator known to healthgap with its domain, source,
polarity and supply benchmark.

Benchmarks can be overridden in .healthgap.yaml under the benchmarks key.

Examples:
  healthgap registry
  healthgap registry --domain healthcare_access --output json`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return core.ExecuteRegistry(rootCtx, cfg, cacheManager)
	},
}
