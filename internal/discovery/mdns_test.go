package discovery

import (
	"net"
	"reflect"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func TestScanner_parseServiceEntry(t *testing.T) {
	scanner := NewScanner()

	tests := []struct {
		name     string
		entry    *zeroconf.ServiceEntry
		wantNil  bool
		wantIP   string
		wantPort int
		wantURL  string
	}{
		{
			name: "collector with IPv4",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "lab-pc"},
				HostName:      "lab-pc.local.",
				Port:          9300,
				AddrIPv4:      []net.IP{net.ParseIP("192.168.4.16")},
				Text:          []string{"path=/logs", "scheme=ws"},
			},
			wantIP:   "192.168.4.16",
			wantPort: 9300,
			wantURL:  "ws://192.168.4.16:9300/logs",
		},
		{
			name: "TLS collector on a custom path",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "ward-3"},
				HostName:      "ward-3.local.",
				Port:          9443,
				AddrIPv4:      []net.IP{net.ParseIP("10.0.0.5")},
				Text:          []string{"path=diag", "scheme=wss"},
			},
			wantIP:   "10.0.0.5",
			wantPort: 9443,
			wantURL:  "wss://10.0.0.5:9443/diag",
		},
		{
			name: "no TXT record falls back to defaults",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "bare"},
				Port:          9300,
				AddrIPv4:      []net.IP{net.ParseIP("172.16.0.1")},
			},
			wantIP:   "172.16.0.1",
			wantPort: 9300,
			wantURL:  "ws://172.16.0.1:9300/logs",
		},
		{
			name: "IPv6 only collector",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "v6"},
				Port:          9300,
				AddrIPv6:      []net.IP{net.ParseIP("fe80::1")},
			},
			wantIP:   "fe80::1",
			wantPort: 9300,
			wantURL:  "ws://[fe80::1]:9300/logs",
		},
		{
			name: "both families (should prefer IPv4)",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "dual"},
				Port:          9300,
				AddrIPv4:      []net.IP{net.ParseIP("192.168.1.50")},
				AddrIPv6:      []net.IP{net.ParseIP("fe80::2")},
			},
			wantIP:   "192.168.1.50",
			wantPort: 9300,
			wantURL:  "ws://192.168.1.50:9300/logs",
		},
		{
			name: "empty instance",
			entry: &zeroconf.ServiceEntry{
				Port:     9300,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.1")},
			},
			wantNil: true,
		},
		{
			name: "no port",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "noport"},
				AddrIPv4:      []net.IP{net.ParseIP("192.168.1.1")},
			},
			wantNil: true,
		},
		{
			name: "no IP address",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "noip"},
				Port:          9300,
			},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := scanner.parseServiceEntry(tt.entry)

			if tt.wantNil {
				if c != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", c)
				}
				return
			}
			if c == nil {
				t.Fatal("parseServiceEntry() = nil, want collector")
			}
			if c.IP != tt.wantIP {
				t.Errorf("IP = %v, want %v", c.IP, tt.wantIP)
			}
			if c.Port != tt.wantPort {
				t.Errorf("Port = %v, want %v", c.Port, tt.wantPort)
			}
			if got := c.URL(); got != tt.wantURL {
				t.Errorf("URL() = %v, want %v", got, tt.wantURL)
			}
			if time.Since(c.DiscoveredAt) > time.Second {
				t.Errorf("DiscoveredAt is not recent: %v", c.DiscoveredAt)
			}
		})
	}
}

func TestScanner_parseServiceEntry_Metadata(t *testing.T) {
	entry := &zeroconf.ServiceEntry{
		ServiceRecord: zeroconf.ServiceRecord{Instance: "lab-pc"},
		Port:          9300,
		AddrIPv4:      []net.IP{net.ParseIP("192.168.4.16")},
		Text:          []string{"path=/logs", "version=v1.0.0", "flag"},
	}

	c := NewScanner().parseServiceEntry(entry)
	if c == nil {
		t.Fatal("parseServiceEntry() = nil, want collector")
	}
	want := map[string]string{"path": "/logs", "version": "v1.0.0", "flag": ""}
	if !reflect.DeepEqual(c.Metadata, want) {
		t.Errorf("Metadata = %v, want %v", c.Metadata, want)
	}
	if c.GetMetadata("missing") != "" {
		t.Error("GetMetadata(missing) should be empty")
	}
}

func TestAdvertiseOptions_txt(t *testing.T) {
	tests := []struct {
		name string
		opts AdvertiseOptions
		want []string
	}{
		{"defaults", AdvertiseOptions{}, []string{"path=/logs", "scheme=ws"}},
		{"tls with version", AdvertiseOptions{TLS: true, Version: "v2"}, []string{"path=/logs", "scheme=wss", "version=v2"}},
		{"custom path", AdvertiseOptions{Path: "/diag"}, []string{"path=/diag", "scheme=ws"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.opts.txt(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("txt() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCollector_String(t *testing.T) {
	c := &Collector{Instance: "lab-pc", Hostname: "lab-pc.local.", IP: "192.168.4.16", Port: 9300}
	want := "Collector lab-pc (lab-pc.local.) at 192.168.4.16:9300"
	if c.String() != want {
		t.Errorf("String() = %v, want %v", c.String(), want)
	}
}
