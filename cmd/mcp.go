package cmd

import (
	"github.com/huangsam/ipaudit/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd serves the audit stages as MCP tools over stdio.
var mcpCmd = &cobra.Command{
	Use:   "mcp [repo-path]",
	Short: "Start the ipaudit MCP server",
	Long: `Launch an MCP server that lets AI agents classify, score, cost and
summarize repositories through standard tools.

The repository and findings given here are the defaults; every tool accepts
repo_path and findings_path overrides.`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, storeManager)
	},
}
