// Package config provides user configuration management for medentry.
//
// Settings live in a YAML file that stores the persisted navigation mode,
// error boundary tuning, diagnostic logging destinations and dropdown
// defaults. The file follows OS-specific conventions for storage location.
//
// # Configuration File Location
//
//   - Linux: $XDG_CONFIG_HOME/medentry/config.yaml or $HOME/.config/medentry/config.yaml
//   - macOS: $HOME/.config/medentry/config.yaml
//   - Windows: %LOCALAPPDATA%\medentry\config.yaml
//
// # Usage Example
//
//	settings, err := config.LoadSettings()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Settings persist the navigation mode for the focus manager
//	mgr := focus.New(focus.WithModeStore(settings))
//
// # Thread Safety
//
// The global settings use sync.Once for safe initialization across goroutines.
// File operations are protected by a mutex to ensure atomic writes. A Watcher
// reloads the file after external edits.
package config
