package cmd

import (
	"github.com/huangsam/ipaudit/core"
	"github.com/huangsam/ipaudit/internal/contract"
	"github.com/spf13/cobra"
)

// scoreCmd prints rewriteability scores.
var scoreCmd = &cobra.Command{
	Use:   "score [repo-path]",
	Short: "Rank files by how cheaply they could be rewritten.",
	Long: `Score every classified file on size, coupling and test coverage.

Small, loosely coupled, well-tested files score highest. Files scoring
above 0.6 are marked rewriteable. Third-party files are listed with their
size only.

Examples:
  # Show the 10 most rewriteable files
  ipaudit score --findings findings.yaml --limit 10

  # Export all scores as JSON
  ipaudit score --format json --output-file scores.json`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteScore(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot run scoring", err)
		}
	},
}
