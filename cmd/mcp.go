package cmd

import (
	"github.com/huangsam/healthgap/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the healthgap MCP server",
	Long: `Launch an MCP server over stdio that lets AI agents query indicators,
domains, districts, correlations and cohort comparisons as tools.

Results are computed on the first tool call and reused afterwards.`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, cacheManager)
	},
}
