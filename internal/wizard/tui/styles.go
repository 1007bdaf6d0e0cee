package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/medentry/internal/ui"
	"github.com/muurk/medentry/internal/version"
)

// Application branding constants
const (
	AppName   = "MEDENTRY"
	GitHubURL = "github.com/muurk/medentry"
)

// AppVersion returns the application version from the centralized version package
func AppVersion() string {
	return version.Version
}

// Layout constants for responsive terminal width
const (
	MinTerminalWidth = 72  // Minimum supported terminal width
	ModalWidth       = 56  // Preferred dialog width
	contentLeft      = 1   // Outer border
	contentTop       = 3   // Outer border, header line, header rule
	fieldIndent      = 2   // Left margin of field rows
	optionIndent     = fieldIndent + ui.LabelWidth
	buttonGap        = 2 // Spaces between buttons
	stepSeparator    = "  "
)

var (
	BorderColor = ui.PrimaryColor
	SubtleColor = ui.MutedColor

	// Title style for dialogs
	TitleStyle = lipgloss.NewStyle().
			Foreground(ui.PrimaryColor).
			Bold(true).
			MarginBottom(1)

	// Status line under the form
	StatusStyle = lipgloss.NewStyle().
			Foreground(ui.WarningColor).
			PaddingLeft(fieldIndent)

	// Checkbox marks
	CheckedStyle = lipgloss.NewStyle().
			Foreground(ui.SuccessColor).
			Bold(true)
)

// BuildHeaderContent creates header content with app name and mode
func BuildHeaderContent(mode string) string {
	left := lipgloss.NewStyle().
		Foreground(ui.TextColor).
		Bold(true).
		Render(AppName + " v" + AppVersion())

	right := lipgloss.NewStyle().
		Foreground(SubtleColor).
		Render(GitHubURL + "  ·  " + mode + " navigation")

	return lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right)
}

// BuildFooterContent creates footer content with help text
func BuildFooterContent(helpText string) string {
	return lipgloss.NewStyle().
		Foreground(SubtleColor).
		Render(helpText)
}

// RenderApplicationContainer wraps every screen: a bordered full-screen
// panel with the application header on top and context help at the bottom.
// Content starts at column contentLeft, row contentTop.
func RenderApplicationContainer(content, mode, footerText string, terminalWidth, terminalHeight int) string {
	headerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Bottom: "─"}).
		BorderForeground(BorderColor).
		Width(terminalWidth-4). // Leave room for outer border
		Padding(0, 1)

	footerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Top: "─"}).
		BorderForeground(BorderColor).
		Width(terminalWidth-4).
		Padding(0, 1)

	contentStyle := lipgloss.NewStyle().
		Width(terminalWidth - 4)

	body := lipgloss.NewStyle().
		Height(terminalHeight - 4 - lipgloss.Height(footerStyle.Render(footerText))).
		Render(contentStyle.Render(content))

	innerContent := lipgloss.JoinVertical(
		lipgloss.Left,
		headerStyle.Render(BuildHeaderContent(mode)),
		body,
		footerStyle.Render(BuildFooterContent(footerText)),
	)

	bordered := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(BorderColor).
		Width(terminalWidth - 2).
		AlignVertical(lipgloss.Top).
		Render(innerContent)

	return lipgloss.Place(terminalWidth, terminalHeight, lipgloss.Left, lipgloss.Top, bordered)
}

// SafeModalWidth returns the smaller of requestedWidth and what fits the terminal
func SafeModalWidth(requestedWidth, terminalWidth int) int {
	maxWidth := terminalWidth - 4
	if maxWidth < 40 {
		maxWidth = 40 // Absolute minimum for usability
	}
	if requestedWidth < maxWidth {
		return requestedWidth
	}
	return maxWidth
}

// RenderModal centers modalContent on a dimmed full-screen background
func RenderModal(modalContent string, terminalWidth, terminalHeight int) string {
	return lipgloss.Place(
		terminalWidth,
		terminalHeight,
		lipgloss.Center,
		lipgloss.Center,
		modalContent,
		lipgloss.WithWhitespaceChars("░"),
		lipgloss.WithWhitespaceForeground(lipgloss.Color("240")),
	)
}

// modalOrigin returns the top-left cell of content centered by RenderModal
func modalOrigin(modalContent string, terminalWidth, terminalHeight int) (x, y int) {
	x = (terminalWidth - lipgloss.Width(modalContent)) / 2
	y = (terminalHeight - lipgloss.Height(modalContent)) / 2
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	return x, y
}
