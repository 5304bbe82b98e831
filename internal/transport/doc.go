// Package transport is the request/response primitive for the Chalkydri device API.
//
// A Client owns the device base address and JSON encoding. It performs exactly one
// HTTP exchange per call and never retries; higher layers decide what a failure means.
//
// # Usage Example
//
//	client := transport.NewClientWithURL("http://10.45.33.10:6942")
//
//	var info struct {
//	    Version string `json:"version"`
//	}
//	if err := client.Get(ctx, "/api/info", &info); err != nil {
//	    fmt.Println(transport.ShortMessage(err))
//	}
//
// # Error Handling
//
// Every failure (network, timeout, non-2xx status, malformed JSON) is a *DeviceError.
// IsTransportError matches all of them; ErrorType is kept for troubleshooting output.
//
// # Timeouts
//
// Requests are bounded by DefaultTimeout (2s) unless SetTimeout is called, and by the
// context passed to each call.
package transport
