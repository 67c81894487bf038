package outwriter

import (
	"os"

	"github.com/huangsam/healthgap/internal/contract"
	"golang.org/x/term"
)

// Column budget used by GetMaxTableLabelWidth.
const (
	defaultTermWidth = 80 // Conservative default for narrow terminals and CI
	minLabelWidth    = 15
	maxLabelWidth    = 60
)

// GetMaxTableLabelWidth calculates the maximum width for indicator labels in
// table output based on terminal width and the fixed columns that share the row.
func GetMaxTableLabelWidth(cfg *contract.Config, fixedColumns int) int {
	termWidth := cfg.Width

	if termWidth <= 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = defaultTermWidth
		} else {
			termWidth = detectedWidth
		}
	}

	// Reserve generous space for table borders, separators, and padding
	available := termWidth - fixedColumns - 20
	if available < minLabelWidth {
		return minLabelWidth
	}
	if available > maxLabelWidth {
		return maxLabelWidth
	}
	return available
}
