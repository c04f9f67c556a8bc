package outwriter

import (
	"os"

	"github.com/huangsam/ipaudit/internal/contract"
	"golang.org/x/term"
)

// Path column bounds for table output.
const (
	defaultTermWidth = 80 // Conservative default for narrow terminals and CI
	minPathWidth     = 15
	maxPathWidth     = 70
	tableChrome      = 20 // Borders, separators and padding
)

// getMaxTablePathWidth calculates the maximum width for file paths in table output
// based on the terminal width and the space taken by the other columns.
func getMaxTablePathWidth(cfg *contract.Config, otherColumns int) int {
	termWidth := cfg.Width // Absolute override from flag/env
	if termWidth <= 0 {
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = defaultTermWidth
		} else {
			termWidth = detectedWidth
		}
	}

	available := termWidth - otherColumns - tableChrome
	if available < minPathWidth {
		return minPathWidth
	}
	if available > maxPathWidth {
		return maxPathWidth
	}
	return available
}
