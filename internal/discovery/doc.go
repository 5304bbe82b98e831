// Package discovery finds Chalkydri devices on the local network with mDNS.
//
// Devices are browsed under the "_http._tcp" service type. An announcement is
// taken to be a Chalkydri device when it uses the API port (6942) or its host
// or instance name contains "chalkydri".
//
// # Usage Example
//
//	devices, err := discovery.NewScanner().Scan(ctx)
//	if err != nil {
//	    return err
//	}
//	for _, device := range devices {
//	    fmt.Println(device.Name, device.BaseURL())
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Devices must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
