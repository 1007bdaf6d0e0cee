package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// AlertKind selects the color and marker of an alert box
type AlertKind int

const (
	AlertSuccess AlertKind = iota
	AlertWarning
	AlertError
	AlertCritical
)

func (k AlertKind) color() lipgloss.Color {
	switch k {
	case AlertSuccess:
		return SuccessColor
	case AlertWarning:
		return WarningColor
	default:
		return ErrorColor
	}
}

func (k AlertKind) label() string {
	switch k {
	case AlertSuccess:
		return SuccessMarker + "  SUCCESS"
	case AlertWarning:
		return WarningMarker + "  WARNING"
	case AlertCritical:
		return FailureMarker + "  CRITICAL"
	default:
		return FailureMarker + "  FAILED"
	}
}

// Alert is a bordered message box. The form uses it as the error
// boundary's fallback; CLI commands use it for results.
type Alert struct {
	Kind    AlertKind
	Title   string
	Message string
	Hint    string
	Details []Param  // Key/value lines under the message
	Extra   string   // Collapsible technical details
	Expand  bool     // Show Extra
	Actions []string // Buttons, left to right
	Focused int      // Index into Actions holding focus
	Width   int
}

// Render returns the styled alert box as a string
func (a Alert) Render() string {
	width := a.Width
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}
	color := a.Kind.color()

	lines := []string{
		"",
		lipgloss.NewStyle().Foreground(color).Bold(true).
			Render(fmt.Sprintf("   %s  ─  %s", a.Kind.label(), a.Title)),
		"",
	}

	if a.Message != "" {
		style := ResultValueStyle
		if a.Kind >= AlertError {
			style = ErrorMessageStyle
		}
		lines = append(lines, style.Width(width-10).PaddingLeft(3).Render(a.Message), "")
	}
	if a.Hint != "" {
		lines = append(lines, StepNoteStyle.Width(width-10).PaddingLeft(3).Render(a.Hint), "")
	}

	for _, d := range a.Details {
		lines = append(lines, ResultKeyStyle.Render("   "+d.Key+":")+" "+ResultValueStyle.Render(d.Value))
	}
	if len(a.Details) > 0 {
		lines = append(lines, "")
	}

	if a.Extra != "" {
		if a.Expand {
			lines = append(lines, a.renderExtra(width), "")
		} else {
			lines = append(lines, TroubleshootingItemStyle.Render("   Press d for technical details"), "")
		}
	}

	if len(a.Actions) > 0 {
		buttons := make([]string, 0, len(a.Actions))
		for i, label := range a.Actions {
			style := ButtonStyle
			if i == a.Focused {
				style = FocusedButtonStyle.BorderForeground(color)
			}
			buttons = append(buttons, style.Render(label))
		}
		lines = append(lines, lipgloss.NewStyle().PaddingLeft(3).
			Render(lipgloss.JoinHorizontal(lipgloss.Top, buttons...)))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(color).
		Width(width-2).
		Padding(0, 2).
		Render(strings.Join(lines, "\n"))
}

// renderExtra renders the inner details box
func (a Alert) renderExtra(width int) string {
	var lines []string
	lines = append(lines, TroubleshootingTitleStyle.Render("Details:"), "")
	for _, l := range strings.Split(a.Extra, "\n") {
		lines = append(lines, TroubleshootingItemStyle.Render("  "+l))
	}

	innerWidth := width - 12 // Indent within outer box
	if innerWidth < 40 {
		innerWidth = 40
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(MutedColor).
		Width(innerWidth).
		Padding(0, 1).
		MarginLeft(3).
		Render(strings.Join(lines, "\n"))
}

// String implements fmt.Stringer
func (a Alert) String() string {
	return a.Render()
}
