// Package ui provides terminal output helpers.
package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

var (
	// NoColor disables colored output when true.
	NoColor = false

	// Styles
	AccentStyle  lipgloss.Style
	SuccessStyle lipgloss.Style
	ErrorStyle   lipgloss.Style
	WarningStyle lipgloss.Style
	DimStyle     lipgloss.Style
	BoldStyle    lipgloss.Style
)

func init() {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		NoColor = true
	}

	initStyles()
}

func initStyles() {
	if NoColor {
		AccentStyle = lipgloss.NewStyle()
		SuccessStyle = lipgloss.NewStyle()
		ErrorStyle = lipgloss.NewStyle()
		WarningStyle = lipgloss.NewStyle()
		DimStyle = lipgloss.NewStyle()
		BoldStyle = lipgloss.NewStyle().Bold(true)
		return
	}

	AccentStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#8a5cf5")) // Nostr purple

	SuccessStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6b8c6b")) // Muted sage green

	ErrorStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#c87070")) // Muted coral red

	WarningStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#c9a866")) // Muted gold

	DimStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6a6a74")) // Dark grey

	BoldStyle = lipgloss.NewStyle().
		Bold(true)
}

// SetNoColor enables or disables colored output.
func SetNoColor(noColor bool) {
	NoColor = noColor
	initStyles()
}

// Success formats text as a success message.
func Success(s string) string {
	return SuccessStyle.Render(s)
}

// Error formats text as an error message.
func Error(s string) string {
	return ErrorStyle.Render(s)
}

// Warning formats text as a warning.
func Warning(s string) string {
	return WarningStyle.Render(s)
}

// Dim formats text as dimmed.
func Dim(s string) string {
	return DimStyle.Render(s)
}

// Bold formats text as bold.
func Bold(s string) string {
	return BoldStyle.Render(s)
}
