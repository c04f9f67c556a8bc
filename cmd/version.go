package cmd

import (
	"runtime"

	"github.com/spf13/cobra"
)

// versionCmd prints build details for bug reports.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of ipaudit.",
	Long: `Display the release, commit and build date of this binary along with
the Go runtime and platform it was built for.

Include this output when reporting a problem with an audit.`,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("ipaudit CLI\n")
		cmd.Printf("  Release:  %s\n", version)
		cmd.Printf("  Commit:   %s\n", commit)
		cmd.Printf("  Built:    %s\n", date)
		cmd.Printf("  Go:       %s\n", runtime.Version())
		cmd.Printf("  Platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}
