package discovery

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Collector is a log collector found on the local network
type Collector struct {
	// Instance is the advertised instance name (usually the host name)
	Instance string

	// Hostname is the mDNS hostname (e.g., "lab-pc.local.")
	Hostname string

	// IP is the address to dial, IPv4 when one was advertised
	IP string

	// Port is the collector's listen port
	Port int

	// Metadata contains the TXT record data: path, scheme, version
	Metadata map[string]string

	// DiscoveredAt is when the collector was found
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the collector
func (c *Collector) String() string {
	return fmt.Sprintf("Collector %s (%s) at %s", c.Instance, c.Hostname, net.JoinHostPort(c.IP, strconv.Itoa(c.Port)))
}

// URL returns the websocket URL a remote log sink should dial
func (c *Collector) URL() string {
	scheme := c.GetMetadata("scheme")
	if scheme == "" {
		scheme = "ws"
	}
	path := c.GetMetadata("path")
	if path == "" {
		path = DefaultPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return fmt.Sprintf("%s://%s%s", scheme, net.JoinHostPort(c.IP, strconv.Itoa(c.Port)), path)
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (c *Collector) GetMetadata(key string) string {
	if c.Metadata == nil {
		return ""
	}
	return c.Metadata[key]
}
