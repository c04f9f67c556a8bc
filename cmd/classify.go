package cmd

import (
	"github.com/huangsam/ipaudit/core"
	"github.com/huangsam/ipaudit/internal/contract"
	"github.com/spf13/cobra"
)

// classifyCmd prints the origin verdict of every file.
var classifyCmd = &cobra.Command{
	Use:   "classify [repo-path]",
	Short: "Classify files as foreground, background or third-party.",
	Long: `Assign an origin, license and primary author to every file.

Rules are tried in order and the first match wins:
- sbom: the path belongs to a package listed in the SBOM
- permissive-license: the file carries an allow-listed license
- background: the path matches classify.background_patterns
- foreground: everything else

Examples:
  # Classify with scanner findings
  ipaudit classify --findings findings.yaml

  # Export every verdict to CSV
  ipaudit classify --format csv --output-file origins.csv`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteClassify(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot run classification", err)
		}
	},
}
