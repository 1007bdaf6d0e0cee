// Package ui provides the shared terminal look for medentry.
//
// It holds the color palette and Lipgloss styles used by the interactive
// form and by the CLI subcommands, plus a few rendered components:
//
//   - Header: banner with a title, subtitle and ordered parameters
//   - Alert: bordered message box with optional details and buttons. The
//     form draws the error boundary's fallback with it.
//   - Printer: writes headers and alerts for one-shot command output
//
// Example:
//
//	p := ui.NewPrinter(os.Stdout)
//	p.PrintHeader("Configuration", "medentry config init", ui.Param{Key: "Path", Value: path})
//	p.PrintSuccess("Configuration written")
//
// # Logging Integration
//
// This package never logs. Zap logging is controlled by MEDENTRY_LOG_LEVEL
// and written to stderr or a file, so styled output stays clean.
package ui
