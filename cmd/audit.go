package cmd

import (
	"github.com/huangsam/ipaudit/core"
	"github.com/huangsam/ipaudit/internal/contract"
	"github.com/spf13/cobra"
)

// auditCmd runs every stage and writes the output bundle.
var auditCmd = &cobra.Command{
	Use:   "audit [repo-path]",
	Short: "Run the full audit and write the output bundle.",
	Long: `Classify, score, cost and summarize a repository in one pass.

Writes classification.json, scores.json, cost.json, aggregates.json and
narrative.json into the output directory, then prints the headline summary.

When output.archive.root_dir is configured the bundle is also copied into
the archive, and with a history backend every run is recorded for trends.

Examples:
  # Audit the current directory with scanner findings
  ipaudit audit --findings findings.yaml

  # Write the bundle elsewhere and print the summary as JSON
  ipaudit audit ../service --output-dir /tmp/service-audit --format json

  # Keep a history of audits in SQLite
  ipaudit audit --history-backend sqlite`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteAudit(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot run audit", err)
		}
	},
}
