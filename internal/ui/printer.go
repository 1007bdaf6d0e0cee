package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Printer writes UI components to a writer.
// This is the primary way CLI commands should output styled content.
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a new Printer that writes to the given writer.
// If w is nil, os.Stdout is used.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{
		out:   w,
		width: GetTerminalWidth(),
	}
}

// Width returns the current terminal width used by this printer
func (p *Printer) Width() int {
	return p.width
}

// Print writes content to the output
func (p *Printer) Print(content string) {
	_, _ = fmt.Fprint(p.out, content)
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// Newline prints an empty line
func (p *Printer) Newline() {
	_, _ = fmt.Fprintln(p.out)
}

// PrintHeader prints a header box
func (p *Printer) PrintHeader(title, subtitle string, params ...Param) {
	p.Println(NewHeader(title, subtitle, params...).SetWidth(p.width).Render())
}

// PrintAlert prints an alert box at the printer's width
func (p *Printer) PrintAlert(a Alert) {
	a.Width = p.width
	p.Println(a.Render())
}

// PrintSuccess prints a success result box
func (p *Printer) PrintSuccess(title string, details ...Param) {
	p.PrintAlert(Alert{Kind: AlertSuccess, Title: title, Details: details})
}

// PrintError prints an error result box with a hint
func (p *Printer) PrintError(title string, err error, hint string) {
	a := Alert{Kind: AlertError, Title: title, Hint: hint}
	if err != nil {
		a.Message = "Error: " + err.Error()
	}
	p.PrintAlert(a)
}

// Confirm shows a warning box and asks a yes/no question on in.
// Anything but y or yes is a no.
func (p *Printer) Confirm(in io.Reader, title string, warnings ...string) bool {
	a := Alert{Kind: AlertWarning, Title: title}
	for _, w := range warnings {
		a.Details = append(a.Details, Param{Key: "•", Value: w})
	}
	p.PrintAlert(a)

	prompt := lipgloss.NewStyle().Foreground(WarningColor).Bold(true)
	p.Print(prompt.Render("Proceed? [y/N]: "))

	input, err := bufio.NewReader(in).ReadString('\n')
	p.Newline()
	if err != nil && input == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "y", "yes":
		return true
	}
	p.Println(lipgloss.NewStyle().Foreground(MutedColor).Render("  Operation cancelled."))
	return false
}
