package cmd

import (
	"github.com/huangsam/ipaudit/core"
	"github.com/huangsam/ipaudit/internal/contract"
	"github.com/spf13/cobra"
)

// narrativeCmd prints the audience-specific summaries.
var narrativeCmd = &cobra.Command{
	Use:   "narrative [repo-path]",
	Short: "Write executive, board and engineering summaries.",
	Long: `Summarize the audit for three audiences.

The narrative is built from aggregates computed locally, or from a
precomputed aggregates document passed with --aggregates.

Examples:
  # Print the narrative
  ipaudit narrative --findings findings.yaml

  # Render the narrative from aggregates produced elsewhere
  ipaudit narrative --aggregates aggregates.json --format json`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteNarrative(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot generate narrative", err)
		}
	},
}
