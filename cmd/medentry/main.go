// Medentry is a terminal medication-entry form with managed focus.
//
// The form is fully keyboard operable and also accepts the mouse. Focus
// movement, dialogs and step jumps are coordinated by a single focus
// manager, and focus errors are recovered automatically with a diagnostic
// trail written to a JSON lines file.
//
// Usage:
//
//	medentry [command] [flags]
//
// Running without arguments opens the form.
// See 'medentry --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/medentry/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "medentry",
	Short: "Medication Entry Form",
	Long: `A terminal form for recording medications.

Every field is reachable with Tab and Shift+Tab, Ctrl+Click on a step jumps
straight to it, and dialogs keep focus until they are closed. Focus problems
are recovered automatically and recorded in the diagnostics log.

If no command is specified, the form opens.`,
	Version: version.Version,
	RunE:    runForm,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("medentry " + version.Full())
	},
}
