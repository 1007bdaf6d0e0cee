package main

import (
	"context"
	"fmt"
	"os"
	"net"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/medentry/internal/collector"
	"github.com/muurk/medentry/internal/config"
	"github.com/muurk/medentry/internal/discovery"
	"github.com/muurk/medentry/internal/logging"
	"github.com/muurk/medentry/internal/version"
)

// Collector command and flags
var (
	collectAddr      string
	collectDir       string
	collectCert      string
	collectKey       string
	collectEcho      bool
	collectLogLevel  string
	collectAdvertise bool
	collectName      string
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Receive diagnostics from running forms",
	Long: `Start a websocket collector that receives diagnostic entries from forms
configured with logging.remote_url and appends them to one JSON lines file per day.

Point a form at the collector by setting, in its config file:

  logging:
    remote_url: ws://collector-host:9300/logs

Or set remote_url to "auto" and the form finds the collector over mDNS,
which the collector advertises unless --advertise=false is given.

Use --cert and --key to serve wss:// instead.`,
	Example: `  # Collect into the default directory
  medentry collect

  # Custom port and capture directory, printing entries as they arrive
  medentry collect --addr :9400 --dir ./captures --echo

  # TLS
  medentry collect --cert fullchain.pem --key privkey.pem`,
	RunE: runCollect,
}

func init() {
	collectCmd.Flags().StringVar(&collectAddr, "addr", ":9300", "Listen address")
	collectCmd.Flags().StringVar(&collectDir, "dir", "", "Capture directory (default: captures/ in the config directory)")
	collectCmd.Flags().StringVar(&collectCert, "cert", "", "Path to TLS certificate file")
	collectCmd.Flags().StringVar(&collectKey, "key", "", "Path to TLS private key file")
	collectCmd.Flags().BoolVar(&collectEcho, "echo", false, "Print received entries")
	collectCmd.Flags().StringVar(&collectLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	collectCmd.Flags().BoolVar(&collectAdvertise, "advertise", true, "Advertise the collector over mDNS")
	collectCmd.Flags().StringVar(&collectName, "name", "", "mDNS instance name (default: host name)")

	rootCmd.AddCommand(collectCmd)
}

func runCollect(cmd *cobra.Command, args []string) error {
	// Validate: Either both cert and key are provided, or neither
	if (collectCert == "") != (collectKey == "") {
		return fmt.Errorf("both --cert and --key must be provided together")
	}
	if collectCert != "" {
		if _, err := os.Stat(collectCert); os.IsNotExist(err) {
			return fmt.Errorf("certificate file not found: %s", collectCert)
		}
		if _, err := os.Stat(collectKey); os.IsNotExist(err) {
			return fmt.Errorf("private key file not found: %s", collectKey)
		}
	}

	if err := logging.Initialize(collectLogLevel); err != nil {
		return err
	}
	defer logging.Sync()

	dir := collectDir
	if dir == "" {
		cfgDir, err := config.GetConfigDir()
		if err != nil {
			return err
		}
		dir = filepath.Join(cfgDir, "captures")
	}

	srv, err := collector.New(&collector.Config{
		Addr:     collectAddr,
		Dir:      dir,
		CertPath: collectCert,
		KeyPath:  collectKey,
		Echo:     collectEcho,
	})
	if err != nil {
		return fmt.Errorf("failed to create collector: %w", err)
	}

	if collectAdvertise {
		withdraw, err := advertiseCollector()
		if err != nil {
			// Explicit remote_url values still work without mDNS
			logging.GetLogger().Warn("collector will not be discoverable", zap.Error(err))
		} else {
			defer withdraw()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Start(ctx)
}

// advertiseCollector registers the listen port under the instance name
func advertiseCollector() (func(), error) {
	_, portStr, err := net.SplitHostPort(collectAddr)
	if err != nil {
		return nil, fmt.Errorf("invalid --addr %q: %w", collectAddr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port == 0 {
		return nil, fmt.Errorf("cannot advertise port %q", portStr)
	}

	name := collectName
	if name == "" {
		if name, err = os.Hostname(); err != nil {
			name = "medentry-collector"
		}
	}

	withdraw, err := discovery.Advertise(name, port, discovery.AdvertiseOptions{
		Path:    collector.LogsPath,
		TLS:     collectCert != "",
		Version: version.Version,
	})
	if err != nil {
		return nil, err
	}
	logging.GetLogger().Info("advertising collector",
		zap.String("instance", name),
		zap.String("service", discovery.ServiceType),
		zap.Int("port", port),
	)
	return withdraw, nil
}
