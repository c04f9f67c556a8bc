package cmd

import (
	"github.com/huangsam/ipaudit/core"
	"github.com/huangsam/ipaudit/internal/contract"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// archiveSetupWrapper runs the shared setup against the --repo repository
// so the positional argument can name the output directory.
func archiveSetupWrapper(cmd *cobra.Command, _ []string) error {
	return sharedSetup(rootCtx, cmd, []string{viper.GetString("repo")})
}

// archiveCmd archives an existing output bundle.
var archiveCmd = &cobra.Command{
	Use:   "archive [output-dir]",
	Short: "Copy an existing output bundle into the archive.",
	Long: `Archive an output directory without re-running the audit.

Runs are stored under <root_dir>/<owner>/<repo>/YYYY/MM/DD/HHMMSS with an
archive_metadata.json document, an optional detached signature and a
"latest" pointer. Older runs beyond max_runs_per_repo are pruned.

Requires output.archive.root_dir in the config file or the
IPAUDIT_OUTPUT_ARCHIVE_ROOT_DIR environment variable.

Examples:
  # Archive the default output directory of the current repository
  ipaudit archive

  # Archive a bundle produced for another repository
  ipaudit archive /tmp/service-audit --repo ../service`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: archiveSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		outputDir := ""
		if len(args) == 1 {
			outputDir = args[0]
		}
		if err := core.ExecuteArchive(rootCtx, cfg, outputDir); err != nil {
			contract.LogFatal("Cannot archive output", err)
		}
	},
}
