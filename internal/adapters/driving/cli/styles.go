package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/activemonkeys/geneax/internal/core/domain"
)

// Colours for summaries. Output to a non-terminal is left unstyled.
var (
	colourPrimary = lipgloss.Color("#7C3AED")
	colourSuccess = lipgloss.Color("#A6E3A1")
	colourWarning = lipgloss.Color("#F9E2AF")
	colourError   = lipgloss.Color("#F38BA8")
	colourMuted   = lipgloss.Color("#6C7086")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colourPrimary)
	successStyle = lipgloss.NewStyle().Foreground(colourSuccess)
	warningStyle = lipgloss.NewStyle().Foreground(colourWarning)
	errorStyle   = lipgloss.NewStyle().Foreground(colourError)
	mutedStyle   = lipgloss.NewStyle().Foreground(colourMuted)
)

func printTitle(cmd *cobra.Command, title string) {
	cmd.Println(titleStyle.Render(title))
}

// printField prints an indented, aligned "label: value" line.
func printField(cmd *cobra.Command, label string, value any) {
	cmd.Printf("  %-19s %v\n", label+":", value)
}

func printHint(cmd *cobra.Command, format string, args ...any) {
	cmd.Println(mutedStyle.Render(fmt.Sprintf(format, args...)))
}

func harvestStatusStyle(status domain.HarvestStatus) lipgloss.Style {
	switch status {
	case domain.HarvestCompleted:
		return successStyle
	case domain.HarvestPaused, domain.HarvestInProgress:
		return warningStyle
	case domain.HarvestFailed:
		return errorStyle
	default:
		return mutedStyle
	}
}

func sourceStatusStyle(status string) lipgloss.Style {
	switch status {
	case domain.SourceStatusOnline:
		return successStyle
	case domain.SourceStatusOffline:
		return errorStyle
	default:
		return mutedStyle
	}
}

// countStyle highlights non-zero error counts.
func countStyle(n int) lipgloss.Style {
	if n > 0 {
		return errorStyle
	}
	return lipgloss.NewStyle()
}
