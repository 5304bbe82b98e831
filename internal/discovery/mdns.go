package discovery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/chalkydri/chalkydri-cfg/internal/logging"
)

const (
	// ServiceType is the mDNS service type the device API is browsed under
	ServiceType = "_http._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for device discovery
	DefaultScanTimeout = 5 * time.Second

	// DefaultPort is the Chalkydri API port
	DefaultPort = 6942

	// NameHint marks hosts that are Chalkydri devices even on a non-default port
	NameHint = "chalkydri"
)

// Scanner handles mDNS device discovery
type Scanner struct {
	// Timeout is the maximum time to wait for device discovery
	Timeout time.Duration

	// browse is replaced in tests
	browse func(ctx context.Context, entries chan<- *zeroconf.ServiceEntry) error
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
		browse:  browseZeroconf,
	}
}

func browseZeroconf(ctx context.Context, entries chan<- *zeroconf.ServiceEntry) error {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return fmt.Errorf("failed to create mDNS resolver: %w", err)
	}
	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return fmt.Errorf("failed to browse for mDNS services: %w", err)
	}
	return nil
}

// Scan discovers all Chalkydri devices on the local network until the
// timeout elapses or ctx is cancelled. Duplicate announcements are merged.
func (s *Scanner) Scan(ctx context.Context) ([]*Device, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)

	var (
		mu      sync.Mutex
		devices []*Device
		seen    = make(map[string]bool)
		wg      sync.WaitGroup
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case entry, ok := <-entries:
				if !ok {
					return
				}
				device := parseServiceEntry(entry)
				if device == nil {
					continue
				}
				key := device.BaseURL()
				mu.Lock()
				if !seen[key] {
					seen[key] = true
					devices = append(devices, device)
					logging.Debug("Discovered device", zap.String("device", device.String()))
				}
				mu.Unlock()
			}
		}
	}()

	if err := s.browse(ctx, entries); err != nil {
		cancel()
		wg.Wait()
		return nil, err
	}

	<-ctx.Done()
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	return devices, nil
}

// WaitForDevice waits for the device with the given name (hostname without ".local")
func (s *Scanner) WaitForDevice(ctx context.Context, name string) (*Device, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(chan *Device, 1)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case entry, ok := <-entries:
				if !ok {
					return
				}
				device := parseServiceEntry(entry)
				if device != nil && strings.EqualFold(device.Name, name) {
					found <- device
					cancel()
					return
				}
			}
		}
	}()

	if err := s.browse(ctx, entries); err != nil {
		return nil, err
	}

	select {
	case device := <-found:
		return device, nil
	case <-ctx.Done():
		select {
		case device := <-found:
			return device, nil
		default:
		}
		return nil, fmt.Errorf("device %s not found within %v", name, s.Timeout)
	}
}

// parseServiceEntry converts a zeroconf service entry to a Device.
// Returns nil if the entry is not a Chalkydri device.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Device {
	if entry == nil || entry.HostName == "" {
		return nil
	}

	hostname := entry.HostName
	name := strings.TrimSuffix(strings.TrimSuffix(hostname, "."), ".local")

	port := entry.Port
	hinted := strings.Contains(strings.ToLower(name), NameHint) ||
		strings.Contains(strings.ToLower(entry.Instance), NameHint)
	if port != DefaultPort && !hinted {
		return nil
	}
	if port == 0 {
		port = DefaultPort
	}

	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		key, value, _ := strings.Cut(txt, "=")
		metadata[key] = value
	}

	return &Device{
		Name:         name,
		Hostname:     hostname,
		Instance:     entry.Instance,
		IP:           ip,
		Port:         port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// QuickScan performs a fast scan with a 2-second timeout
func QuickScan(ctx context.Context) ([]*Device, error) {
	scanner := NewScanner()
	scanner.Timeout = 2 * time.Second
	return scanner.Scan(ctx)
}
