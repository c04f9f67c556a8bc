package cmd

import (
	"github.com/huangsam/ipaudit/core"
	"github.com/huangsam/ipaudit/internal/contract"
	"github.com/spf13/cobra"
)

// costCmd prints the replacement cost estimate.
var costCmd = &cobra.Command{
	Use:   "cost [repo-path]",
	Short: "Estimate the cost of rewriting the foreground code.",
	Long: `Convert foreground lines of code into days, hours and money.

The model is configured in the cost section of .ipaudit.yaml:
days_per_kloc, hours_per_day, hourly_rate, complexity_multiplier, currency.

Examples:
  # Estimate with the default model
  ipaudit cost --findings findings.yaml

  # Estimate with a custom config file
  ipaudit cost --config ./audit.yaml --format json`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteCost(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot run cost estimate", err)
		}
	},
}
