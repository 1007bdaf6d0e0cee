package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/medentry/internal/discovery"
	"github.com/muurk/medentry/internal/ui"
)

// remoteAuto makes the form look up a collector over mDNS
const remoteAuto = "auto"

// autoDiscoverTimeout bounds the startup lookup for remote_url: auto
const autoDiscoverTimeout = 2 * time.Second

var collectorsTimeout int

// collectorsCmd lists collectors advertised on the network
var collectorsCmd = &cobra.Command{
	Use:   "collectors",
	Short: "Scan for diagnostics collectors on the network",
	Long: `Scan for collectors started with 'medentry collect' using mDNS/DNS-SD.

A form whose config sets logging.remote_url to "auto" connects to the first
collector this scan would find.`,
	Example: `  # Scan for 5 seconds (default)
  medentry collectors

  # Longer scan for busy networks
  medentry collectors --timeout 15`,
	RunE: runCollectors,
}

func init() {
	collectorsCmd.Flags().IntVar(&collectorsTimeout, "timeout", 5, "Scan timeout in seconds")
	rootCmd.AddCommand(collectorsCmd)
}

func runCollectors(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	ui.NewPrinter(out).PrintHeader("Collector scan", "medentry collectors",
		ui.Param{Key: "Service", Value: discovery.ServiceType},
		ui.Param{Key: "Timeout", Value: fmt.Sprintf("%ds", collectorsTimeout)},
	)
	fmt.Fprintln(out)

	scanner := discovery.NewScanner()
	scanner.Timeout = time.Duration(collectorsTimeout) * time.Second
	found, err := scanner.ScanForCollectors(cmd.Context())
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(found) == 0 {
		fmt.Fprintln(out, "No collectors found.")
		fmt.Fprintln(out, "\nTroubleshooting:")
		fmt.Fprintln(out, "  - Start one with 'medentry collect'")
		fmt.Fprintln(out, "  - Check the collector was not started with --advertise=false")
		fmt.Fprintln(out, "  - Try increasing --timeout for slower networks")
		return nil
	}

	fmt.Fprintf(out, "Found %d collector(s):\n\n", len(found))
	for i, c := range found {
		fmt.Fprintf(out, "%d. %s\n", i+1, c.Instance)
		fmt.Fprintf(out, "   Host:    %s\n", c.Hostname)
		fmt.Fprintf(out, "   URL:     %s\n", c.URL())
		if v := c.GetMetadata("version"); v != "" {
			fmt.Fprintf(out, "   Version: %s\n", v)
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintln(out, "Set logging.remote_url to one of these URLs, or to \"auto\".")
	return nil
}

// resolveRemoteURL turns remote_url: auto into a collector URL
func resolveRemoteURL(ctx context.Context, raw string) (string, error) {
	if raw != remoteAuto {
		return raw, nil
	}
	scanner := discovery.NewScanner()
	scanner.Timeout = autoDiscoverTimeout
	c, err := scanner.FindFirst(ctx)
	if err != nil {
		return "", err
	}
	return c.URL(), nil
}
