// Package tui implements the terminal medication-entry form.
//
// The form is a Bubble Tea program. Its controls (a searchable medication
// dropdown, dose and date inputs, unit and frequency dropdowns, a notes
// field, an "as needed" checkbox and Save/Cancel buttons) are registered
// with a focus.Manager, which owns every focus decision: tab order,
// validation before leaving a field, Ctrl+Click step jumps and the dialog
// stack. The widgets never focus themselves; they follow whatever the
// manager placed on the form's surface.
//
// # Screens
//
//   - Form: the fields, a step indicator for the required fields, and a
//     status line for validation messages
//   - Confirm dialog: opened by Save, restores focus to Save when dismissed
//   - Help dialog: F1, lists the key bindings
//   - Saved: summary of the saved record, n to add another
//
// All screens use RenderApplicationContainer for the header, content and
// footer help.
//
// # Navigation
//
// Navigation runs as tea.Cmds because the manager waits one frame before
// placing focus. Each command runs inside a recovery.Boundary. When the
// boundary catches an error it tries the recovery strategies; while it is
// not healthy the form is replaced by an alert operated with plain keys
// (left/right to choose, enter to run, d for technical details).
//
// # Mouse
//
// Clicks are hit-tested against the regions produced while rendering.
// A click on a field focuses it through the manager, Ctrl+Click on a field
// or any click on a step jumps directly when the jump is allowed, and
// hovering only records the interaction for navigation-mode tracking.
//
// # Usage Example
//
//	settings, _ := config.LoadSettings()
//	saved, err := tui.Run(ctx, tui.FormOptions{Settings: settings}, nil)
//	if err != nil {
//	    return err
//	}
//	for _, med := range saved {
//	    fmt.Println(med)
//	}
package tui
