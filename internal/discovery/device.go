package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Device is a Chalkydri device found on the network
type Device struct {
	// Name is the device name, i.e. its hostname without ".local" (e.g., "chalkydri")
	Name string

	// Hostname is the mDNS hostname (e.g., "chalkydri.local.")
	Hostname string

	// Instance is the advertised mDNS service instance name
	Instance string

	// IP is the device address, IPv4 when available
	IP string

	// Port is the API port (typically 6942)
	Port int

	// Metadata contains the mDNS TXT record data
	Metadata map[string]string

	// DiscoveredAt is when the device was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the device
func (d *Device) String() string {
	return fmt.Sprintf("Chalkydri %s (%s) at %s", d.Name, d.Hostname, net.JoinHostPort(d.IP, strconv.Itoa(d.Port)))
}

// BaseURL returns the API base URL for the device
func (d *Device) BaseURL() string {
	return "http://" + net.JoinHostPort(d.IP, strconv.Itoa(d.Port))
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (d *Device) GetMetadata(key string) string {
	if d.Metadata == nil {
		return ""
	}
	return d.Metadata[key]
}
