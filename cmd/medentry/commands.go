package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/muurk/medentry/internal/config"
	"github.com/muurk/medentry/internal/focus"
	"github.com/muurk/medentry/internal/logging"
	"github.com/muurk/medentry/internal/ui"
	"github.com/muurk/medentry/internal/wizard/tui"
)

// consoleLogFile receives zap output while the form owns the terminal
const consoleLogFile = "medentry.log"

// Global flags
var (
	configPath string
	logLevel   string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: OS config directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the config file")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(logsCmd)
}

// loadSettings honours --config, falling back to the default location
func loadSettings() (*config.Settings, error) {
	if configPath != "" {
		return config.Load(configPath)
	}
	return config.LoadSettings()
}

// setupDiagnostics routes zap output to a file next to the diagnostics log
// and attaches the diagnostic buffer with its sinks.
func setupDiagnostics(ctx context.Context, s *config.Settings) (*logging.Recorder, error) {
	path, err := s.LogFilePath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	lvl := logLevel
	if lvl == "" {
		lvl = s.Logging.Level
	}
	if err := logging.Initialize(lvl, filepath.Join(filepath.Dir(path), consoleLogFile)); err != nil {
		return nil, err
	}
	base := logging.GetLogger()

	file, err := logging.OpenFileSink(path)
	if err != nil {
		return nil, err
	}
	rec := logging.NewRecorder(s.Logging.BufferSize, file)
	if s.Logging.RemoteURL != "" {
		url, err := resolveRemoteURL(ctx, s.Logging.RemoteURL)
		if err != nil {
			base.Warn("diagnostics stay local", zap.Error(err))
		} else {
			base.Info("shipping diagnostics", zap.String("url", url))
			rec.AddSink(logging.NewRemoteSink(url, logging.WithRemoteLogger(base.Named("remote"))))
		}
	}
	logging.Attach(rec)
	return rec, nil
}

func runForm(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rec, err := setupDiagnostics(ctx, settings)
	if err != nil {
		return err
	}
	defer func() {
		logging.Sync()
		_ = rec.Close()
	}()
	log := logging.GetLogger()

	var watcher *config.Watcher
	if err := os.MkdirAll(filepath.Dir(settings.Path()), 0o700); err == nil {
		watcher, err = config.NewWatcher(settings.Path(), config.WithWatchLogger(log.Named("config")))
		if err != nil {
			log.Warn("settings will not reload", zap.Error(err))
		} else {
			go func() { _ = watcher.Run(ctx) }()
		}
	}

	log.Info("form starting", zap.String("config", settings.Path()))
	saved, err := tui.Run(ctx, tui.FormOptions{
		Settings:  settings,
		Scheduler: focus.NewFrameScheduler(),
		Logger:    log,
	}, watcher)
	if err != nil {
		return fmt.Errorf("form error: %w", err)
	}

	p := ui.NewPrinter(os.Stdout)
	if len(saved) == 0 {
		p.Println(ui.StepNoteStyle.Render("No medications saved."))
		return nil
	}
	details := make([]ui.Param, len(saved))
	for i, med := range saved {
		details[i] = ui.Param{Key: strconv.Itoa(i + 1), Value: med.String()}
	}
	p.PrintSuccess(fmt.Sprintf("Saved %d medication(s)", len(saved)), details...)
	return nil
}

// configCmd groups the configuration file commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var initForce bool

func init() {
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)

	configInitCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			var err error
			if path, err = config.GetConfigPath(); err != nil {
				return err
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings()
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(settings)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", settings.Path(), data)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Example: `  # Create the config file if it does not exist
  medentry config init

  # Replace an existing file with defaults
  medentry config init --force`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			var err error
			if path, err = config.GetConfigPath(); err != nil {
				return err
			}
		}

		p := ui.NewPrinter(cmd.OutOrStdout())
		if _, err := os.Stat(path); err == nil && initForce {
			if !p.Confirm(cmd.InOrStdin(), "Overwrite configuration?",
				"Existing settings in "+path+" will be replaced",
				"The saved navigation mode and history are reset") {
				return nil
			}
		}

		if _, err := config.CreateDefaultConfig(path, initForce); err != nil {
			p.PrintError("Could not write config", err, "Use --force to replace an existing file.")
			return err
		}
		p.PrintSuccess("Config written", ui.Param{Key: "Path", Value: path})
		return nil
	},
}

// logsCmd prints the diagnostics log
var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Print recorded diagnostics",
	Long: `Print entries from the diagnostics log written while the form runs.

Each entry carries a level, message, optional error and context such as the
focused element and the recovery strategy that ran.`,
	Example: `  # Everything
  medentry logs

  # Only errors and critical failures, newest 20
  medentry logs --level error --limit 20`,
	RunE: runLogs,
}

var (
	logsLevel string
	logsLimit int
)

func init() {
	logsCmd.Flags().StringVar(&logsLevel, "level", "debug", "Minimum level (debug, info, warn, error, critical)")
	logsCmd.Flags().IntVar(&logsLimit, "limit", 0, "Show only the newest N entries (0 = all)")
}

func runLogs(cmd *cobra.Command, args []string) error {
	minLevel, err := logging.ParseLevel(logsLevel)
	if err != nil {
		return err
	}
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	path, err := settings.LogFilePath()
	if err != nil {
		return err
	}

	entries, skipped, err := logging.ReadFile(path)
	if os.IsNotExist(err) {
		fmt.Fprintln(cmd.OutOrStdout(), "No diagnostics recorded yet.")
		return nil
	}
	if err != nil {
		return err
	}

	var shown []logging.Entry
	for _, e := range entries {
		if e.Level >= minLevel {
			shown = append(shown, e)
		}
	}
	if logsLimit > 0 && len(shown) > logsLimit {
		shown = shown[len(shown)-logsLimit:]
	}

	out := cmd.OutOrStdout()
	for _, e := range shown {
		fmt.Fprintln(out, formatEntry(e))
	}
	if skipped > 0 {
		fmt.Fprintln(out, ui.StepNoteStyle.Render(fmt.Sprintf("(%d malformed lines skipped)", skipped)))
	}
	return nil
}

func formatEntry(e logging.Entry) string {
	style := ui.ResultValueStyle
	switch {
	case e.Level >= logging.LevelError:
		style = ui.ErrorMessageStyle
	case e.Level == logging.LevelWarn:
		style = ui.StepRunningStyle
	case e.Level == logging.LevelDebug:
		style = ui.StepPendingStyle
	}
	line := fmt.Sprintf("%s %-8s %s", e.Timestamp.Format("2006-01-02 15:04:05.000"), e.Level, e.Message)
	if e.Error != "" {
		line += ": " + e.Error
	}
	if c, ok := e.Context["component"]; ok {
		line += fmt.Sprintf(" [%v]", c)
	}
	if e.Metrics != nil {
		line += fmt.Sprintf(" (%s %s)", e.Metrics.Operation, e.Metrics.Duration)
	}
	return style.Render(line)
}
