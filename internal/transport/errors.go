package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"syscall"
)

// ErrBusy is returned when an operation is attempted while a serialized
// predecessor is still outstanding. Components wrap it with their own context.
var ErrBusy = errors.New("operation already in progress")

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeNetwork indicates a network-level error (host unreachable, reset, etc.)
	ErrTypeNetwork ErrorType = iota
	// ErrTypeTimeout indicates a request timeout
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates the device refused the connection
	ErrTypeConnectionRefused
	// ErrTypeDNS indicates a DNS resolution failure
	ErrTypeDNS
	// ErrTypeHTTP indicates a non-2xx status code
	ErrTypeHTTP
	// ErrTypeParse indicates a malformed or inconsistent response body
	ErrTypeParse
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeDNS:
		return "DNS Error"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeParse:
		return "Parse Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// DeviceError is the single transport failure kind surfaced to callers.
// Type is kept for diagnostics only; recovery is identical for all types.
type DeviceError struct {
	Type       ErrorType // Category of error
	Message    string    // Human-readable error message
	StatusCode int       // HTTP status code (if applicable)
	Path       string    // API path of the failed request
	Err        error     // Underlying error (if any)
}

// Error implements the error interface
func (e *DeviceError) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = fmt.Sprintf("%s %s", e.Path, msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, msg)
}

// Unwrap returns the underlying error for error chain inspection
func (e *DeviceError) Unwrap() error {
	return e.Err
}

// ClassifyNetworkError analyzes an error returned by the HTTP stack
func ClassifyNetworkError(err error) *DeviceError {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return &DeviceError{Type: ErrTypeTimeout, Message: "request timed out", Err: err}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &DeviceError{
			Type:    ErrTypeDNS,
			Message: fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name),
			Err:     err,
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		switch {
		case errors.Is(opErr.Err, syscall.ECONNREFUSED):
			return &DeviceError{Type: ErrTypeConnectionRefused, Message: "device refused connection", Err: err}
		case errors.Is(opErr.Err, syscall.EHOSTUNREACH):
			return &DeviceError{Type: ErrTypeNetwork, Message: "host unreachable", Err: err}
		case errors.Is(opErr.Err, syscall.ENETUNREACH):
			return &DeviceError{Type: ErrTypeNetwork, Message: "network unreachable", Err: err}
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != err {
		return ClassifyNetworkError(urlErr.Err)
	}

	return &DeviceError{Type: ErrTypeNetwork, Message: "network error occurred", Err: err}
}

// NewNetworkError creates a network-level error with automatic classification
func NewNetworkError(message string, err error) *DeviceError {
	classified := ClassifyNetworkError(err)
	if classified == nil {
		return &DeviceError{Type: ErrTypeNetwork, Message: message}
	}
	classified.Message = message
	return classified
}

// NewHTTPError creates an HTTP-level error
func NewHTTPError(statusCode int, message string) *DeviceError {
	return &DeviceError{
		Type:       ErrTypeHTTP,
		Message:    message,
		StatusCode: statusCode,
	}
}

// NewParseError creates a parsing error
func NewParseError(message string, err error) *DeviceError {
	return &DeviceError{
		Type:    ErrTypeParse,
		Message: message,
		Err:     err,
	}
}

func asDeviceError(err error) (*DeviceError, bool) {
	var devErr *DeviceError
	if errors.As(err, &devErr) {
		return devErr, true
	}
	return nil, false
}

// IsTransportError reports whether err is any transport failure
// (network, timeout, non-2xx status or malformed body).
func IsTransportError(err error) bool {
	_, ok := asDeviceError(err)
	return ok
}

// IsNetworkError checks if an error is a network error (including timeout, connection refused, DNS)
func IsNetworkError(err error) bool {
	if devErr, ok := asDeviceError(err); ok {
		return devErr.Type == ErrTypeNetwork ||
			devErr.Type == ErrTypeTimeout ||
			devErr.Type == ErrTypeConnectionRefused ||
			devErr.Type == ErrTypeDNS
	}
	return false
}

// IsHTTPError checks if an error is an HTTP error
func IsHTTPError(err error) bool {
	if devErr, ok := asDeviceError(err); ok {
		return devErr.Type == ErrTypeHTTP
	}
	return false
}

// IsParseError checks if an error is a parse error
func IsParseError(err error) bool {
	if devErr, ok := asDeviceError(err); ok {
		return devErr.Type == ErrTypeParse
	}
	return false
}

// TroubleshootingHint returns user-friendly troubleshooting advice for an error
func TroubleshootingHint(err error) string {
	if errors.Is(err, ErrBusy) {
		return "Another request to the device is still running. Wait for it to finish and try again."
	}

	devErr, ok := asDeviceError(err)
	if !ok {
		return "An unexpected error occurred. Please try again."
	}

	switch devErr.Type {
	case ErrTypeTimeout:
		return strings.Join([]string{
			"The device did not respond in time.",
			"Troubleshooting:",
			"  • Check that the coprocessor is powered from the robot (not just USB)",
			"  • Verify you're on the robot network (10.TE.AM.x)",
			"  • Try increasing --timeout",
		}, "\n")

	case ErrTypeConnectionRefused:
		return strings.Join([]string{
			"The device refused the connection.",
			"Troubleshooting:",
			"  • Chalkydri may still be starting - wait a few seconds",
			"  • Verify the port number (default is 6942)",
			"  • Restart the service on the device",
		}, "\n")

	case ErrTypeDNS:
		return strings.Join([]string{
			"Could not resolve the device hostname.",
			"Troubleshooting:",
			"  • Use the IP address instead of hostname",
			"  • Run 'chalkydri-cfg scan' to find the device",
		}, "\n")

	case ErrTypeNetwork:
		return strings.Join([]string{
			"Network communication failed.",
			"Troubleshooting:",
			"  • Check the Ethernet link to the robot radio or switch",
			"  • Verify the selected profile with 'chalkydri-cfg profile list'",
		}, "\n")

	case ErrTypeHTTP:
		if devErr.StatusCode >= 500 {
			return strings.Join([]string{
				fmt.Sprintf("The device returned an error (HTTP %d).", devErr.StatusCode),
				"Troubleshooting:",
				"  • Check the device logs",
				"  • Restart Chalkydri with 'chalkydri-cfg sys restart'",
			}, "\n")
		}
		return fmt.Sprintf("The device returned HTTP error %d. The device firmware may be older than this tool.", devErr.StatusCode)

	case ErrTypeParse:
		return strings.Join([]string{
			"Failed to parse the device's response.",
			"This may indicate a version mismatch between chalkydri-cfg and the device.",
			"Check the device version with 'chalkydri-cfg sys info'.",
		}, "\n")

	default:
		return "An error occurred. Please check the error message for details."
	}
}

// ShortMessage returns a concise, user-friendly error message
func ShortMessage(err error) string {
	if errors.Is(err, ErrBusy) {
		return "Busy - previous request still running"
	}

	devErr, ok := asDeviceError(err)
	if !ok {
		return err.Error()
	}

	switch devErr.Type {
	case ErrTypeTimeout:
		return "Device not responding (timeout)"
	case ErrTypeConnectionRefused:
		return "Device refused connection"
	case ErrTypeDNS:
		return "Cannot resolve device hostname"
	case ErrTypeNetwork:
		return "Network error - check connection"
	case ErrTypeHTTP:
		return fmt.Sprintf("Device error (HTTP %d)", devErr.StatusCode)
	case ErrTypeParse:
		return "Failed to parse device response"
	default:
		return devErr.Message
	}
}
