package output

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	// Core styles
	success2Style = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))  // green
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow
	boldStyle     = lipgloss.NewStyle().Bold(true)

	labelSuccessStyle = success2Style.Bold(true)
	labelErrorStyle   = errorStyle.Bold(true)
	labelWarningStyle = warningStyle.Bold(true)

	// Filled part of the TOTAL bar
	totalFillStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
)

var StyleSymbols = map[string]string{
	"rect":       "■",
	"shade":      "█",
	"lightshade": "░",
}

func FBold(text string) string {
	return boldStyle.Render(text)
}

// FLabel renders the bold coloured prefixes (ERROR:, NOTICE:, URL:) used by the CLI.
func FLabel(kind, text string) string {
	switch kind {
	case "error":
		return labelErrorStyle.Render(text)
	case "warning":
		return labelWarningStyle.Render(text)
	default:
		return labelSuccessStyle.Render(text)
	}
}
