package discovery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the mDNS service type collectors advertise
	ServiceType = "_medentry-logs._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for a full scan
	DefaultScanTimeout = 5 * time.Second

	// DefaultPath is the websocket path assumed when none is advertised
	DefaultPath = "/logs"

	// drainGrace bounds the wait for in-flight entries after the scan ends
	drainGrace = 250 * time.Millisecond
)

// Scanner handles mDNS collector discovery
type Scanner struct {
	// Timeout is the maximum time to wait for answers
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// browse streams parsed collectors to fn until ctx is done or fn
// returns false.
func (s *Scanner) browse(ctx context.Context, fn func(*Collector) bool) error {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case entry, ok := <-entries:
				if !ok {
					return
				}
				if c := s.parseServiceEntry(entry); c != nil && !fn(c) {
					cancel()
				}
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()
	select {
	case <-done:
	case <-time.After(drainGrace):
	}
	return nil
}

// ScanForCollectors returns every collector that answered within the timeout
func (s *Scanner) ScanForCollectors(ctx context.Context) ([]*Collector, error) {
	var (
		mu    sync.Mutex
		found []*Collector
	)
	seen := make(map[string]bool)
	err := s.browse(ctx, func(c *Collector) bool {
		mu.Lock()
		defer mu.Unlock()
		if key := c.URL(); !seen[key] {
			seen[key] = true
			found = append(found, c)
		}
		return true
	})
	mu.Lock()
	defer mu.Unlock()
	return append([]*Collector(nil), found...), err
}

// FindFirst returns the first collector that answers
func (s *Scanner) FindFirst(ctx context.Context) (*Collector, error) {
	var (
		mu    sync.Mutex
		first *Collector
	)
	err := s.browse(ctx, func(c *Collector) bool {
		mu.Lock()
		defer mu.Unlock()
		if first == nil {
			first = c
		}
		return false
	})
	if err != nil {
		return nil, err
	}
	mu.Lock()
	defer mu.Unlock()
	if first == nil {
		return nil, fmt.Errorf("no collector found within %s", s.Timeout)
	}
	return first, nil
}

// parseServiceEntry converts a zeroconf service entry to a Collector.
// Returns nil if the entry has no instance name or no address.
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Collector {
	if entry.Instance == "" || entry.Port == 0 {
		return nil
	}

	// Get IP address (prefer IPv4)
	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	}
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	// TXT records are in "key=value" format
	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}

	return &Collector{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         entry.Port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// AdvertiseOptions fills the TXT record
type AdvertiseOptions struct {
	Path    string // Websocket path, DefaultPath when empty
	TLS     bool   // Advertise wss://
	Version string
}

func (o AdvertiseOptions) txt() []string {
	path := o.Path
	if path == "" {
		path = DefaultPath
	}
	scheme := "ws"
	if o.TLS {
		scheme = "wss"
	}
	txt := []string{"path=" + path, "scheme=" + scheme}
	if o.Version != "" {
		txt = append(txt, "version="+o.Version)
	}
	return txt
}

// Advertise registers a collector on port under instance. Call the returned
// function to withdraw it.
func Advertise(instance string, port int, opts AdvertiseOptions) (stop func(), err error) {
	server, err := zeroconf.Register(instance, ServiceType, ServiceDomain, port, opts.txt(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}
	return server.Shutdown, nil
}
