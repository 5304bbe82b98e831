package discovery

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func TestParseServiceEntry(t *testing.T) {
	tests := []struct {
		name     string
		entry    *zeroconf.ServiceEntry
		wantNil  bool
		wantName string
		wantIP   string
		wantPort int
	}{
		{
			name: "default API port",
			entry: &zeroconf.ServiceEntry{
				HostName: "frontcam.local.",
				Port:     6942,
				AddrIPv4: []net.IP{net.ParseIP("10.45.33.10")},
				Text:     []string{"path=/"},
			},
			wantName: "frontcam",
			wantIP:   "10.45.33.10",
			wantPort: 6942,
		},
		{
			name: "named device on another port",
			entry: &zeroconf.ServiceEntry{
				HostName: "chalkydri-rear.local",
				Port:     8080,
				AddrIPv4: []net.IP{net.ParseIP("10.42.1.12")},
			},
			wantName: "chalkydri-rear",
			wantIP:   "10.42.1.12",
			wantPort: 8080,
		},
		{
			name: "named instance without port",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "Chalkydri"},
				HostName:      "orangepi.local.",
				AddrIPv4:      []net.IP{net.ParseIP("10.42.1.13")},
			},
			wantName: "orangepi",
			wantIP:   "10.42.1.13",
			wantPort: DefaultPort,
		},
		{
			name: "unrelated http service",
			entry: &zeroconf.ServiceEntry{
				HostName: "printer.local.",
				Port:     80,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.1")},
			},
			wantNil: true,
		},
		{
			name: "empty hostname",
			entry: &zeroconf.ServiceEntry{
				Port:     6942,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.1")},
			},
			wantNil: true,
		},
		{
			name: "no IP address",
			entry: &zeroconf.ServiceEntry{
				HostName: "chalkydri.local.",
				Port:     6942,
			},
			wantNil: true,
		},
		{
			name: "IPv6 only",
			entry: &zeroconf.ServiceEntry{
				HostName: "chalkydri.local.",
				Port:     6942,
				AddrIPv6: []net.IP{net.ParseIP("fe80::1")},
			},
			wantName: "chalkydri",
			wantIP:   "fe80::1",
			wantPort: 6942,
		},
		{
			name: "prefers IPv4",
			entry: &zeroconf.ServiceEntry{
				HostName: "chalkydri.local.",
				Port:     6942,
				AddrIPv4: []net.IP{net.ParseIP("10.45.33.10")},
				AddrIPv6: []net.IP{net.ParseIP("fe80::2")},
			},
			wantName: "chalkydri",
			wantIP:   "10.45.33.10",
			wantPort: 6942,
		},
		{
			name:    "nil entry",
			entry:   nil,
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device := parseServiceEntry(tt.entry)

			if tt.wantNil {
				if device != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", device)
				}
				return
			}

			if device == nil {
				t.Fatal("parseServiceEntry() = nil, want non-nil device")
			}
			if device.Name != tt.wantName {
				t.Errorf("device.Name = %v, want %v", device.Name, tt.wantName)
			}
			if device.IP != tt.wantIP {
				t.Errorf("device.IP = %v, want %v", device.IP, tt.wantIP)
			}
			if device.Port != tt.wantPort {
				t.Errorf("device.Port = %v, want %v", device.Port, tt.wantPort)
			}
			if time.Since(device.DiscoveredAt) > time.Second {
				t.Errorf("device.DiscoveredAt is not recent: %v", device.DiscoveredAt)
			}
		})
	}
}

func TestParseServiceEntry_Metadata(t *testing.T) {
	device := parseServiceEntry(&zeroconf.ServiceEntry{
		HostName: "chalkydri.local.",
		Port:     6942,
		AddrIPv4: []net.IP{net.ParseIP("10.45.33.10")},
		Text:     []string{"path=/", "version=0.3.0", "flag"},
	})
	if device == nil {
		t.Fatal("parseServiceEntry() = nil, want device")
	}

	if got := device.GetMetadata("version"); got != "0.3.0" {
		t.Errorf("version = %q", got)
	}
	if _, ok := device.Metadata["flag"]; !ok {
		t.Error("key without value should be present")
	}
	if got := device.GetMetadata("missing"); got != "" {
		t.Errorf("missing key = %q, want empty", got)
	}
}

// fakeBrowse announces entries, then behaves like a resolver that keeps listening.
func fakeBrowse(entries ...*zeroconf.ServiceEntry) func(context.Context, chan<- *zeroconf.ServiceEntry) error {
	return func(ctx context.Context, ch chan<- *zeroconf.ServiceEntry) error {
		go func() {
			for _, entry := range entries {
				select {
				case ch <- entry:
				case <-ctx.Done():
					return
				}
			}
		}()
		return nil
	}
}

func TestScanner_Scan(t *testing.T) {
	device := &zeroconf.ServiceEntry{
		HostName: "chalkydri.local.",
		Port:     6942,
		AddrIPv4: []net.IP{net.ParseIP("10.45.33.10")},
	}
	other := &zeroconf.ServiceEntry{
		HostName: "printer.local.",
		Port:     80,
		AddrIPv4: []net.IP{net.ParseIP("10.45.33.20")},
	}

	scanner := NewScanner()
	scanner.Timeout = 100 * time.Millisecond
	scanner.browse = fakeBrowse(device, other, device)

	devices, err := scanner.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(devices) != 1 {
		t.Fatalf("Scan() found %d devices, want 1 (duplicates merged, printer ignored)", len(devices))
	}
	if devices[0].BaseURL() != "http://10.45.33.10:6942" {
		t.Errorf("BaseURL() = %s", devices[0].BaseURL())
	}
}

func TestScanner_ScanBrowseError(t *testing.T) {
	scanner := NewScanner()
	scanner.browse = func(context.Context, chan<- *zeroconf.ServiceEntry) error {
		return errors.New("no multicast interface")
	}

	if _, err := scanner.Scan(context.Background()); err == nil {
		t.Error("Scan() should return the browse error")
	}
}

func TestScanner_WaitForDevice(t *testing.T) {
	scanner := NewScanner()
	scanner.Timeout = 2 * time.Second
	scanner.browse = fakeBrowse(
		&zeroconf.ServiceEntry{HostName: "chalkydri-front.local.", Port: 6942, AddrIPv4: []net.IP{net.ParseIP("10.45.33.11")}},
		&zeroconf.ServiceEntry{HostName: "chalkydri-rear.local.", Port: 6942, AddrIPv4: []net.IP{net.ParseIP("10.45.33.12")}},
	)

	device, err := scanner.WaitForDevice(context.Background(), "Chalkydri-Rear")
	if err != nil {
		t.Fatalf("WaitForDevice() error = %v", err)
	}
	if device.IP != "10.45.33.12" {
		t.Errorf("IP = %s, want 10.45.33.12", device.IP)
	}
}

func TestScanner_WaitForDeviceTimeout(t *testing.T) {
	scanner := NewScanner()
	scanner.Timeout = 50 * time.Millisecond
	scanner.browse = fakeBrowse()

	if _, err := scanner.WaitForDevice(context.Background(), "chalkydri"); err == nil {
		t.Error("WaitForDevice() should time out")
	}
}
