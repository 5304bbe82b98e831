package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"syscall"
	"testing"
)

// timeoutError implements net.Error with Timeout() == true
type timeoutError struct{}

func (e *timeoutError) Error() string   { return "i/o timeout" }
func (e *timeoutError) Timeout() bool   { return true }
func (e *timeoutError) Temporary() bool { return true }

func TestClassifyNetworkError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{
			name: "timeout",
			err: &url.Error{Op: "Get", URL: "http://10.45.33.10:6942", Err: &net.OpError{
				Op: "dial", Net: "tcp", Err: &timeoutError{},
			}},
			want: ErrTypeTimeout,
		},
		{
			name: "context deadline",
			err:  fmt.Errorf("wrapped: %w", context.DeadlineExceeded),
			want: ErrTypeTimeout,
		},
		{
			name: "connection refused",
			err: &url.Error{Op: "Get", URL: "http://10.45.33.10:6942", Err: &net.OpError{
				Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED,
			}},
			want: ErrTypeConnectionRefused,
		},
		{
			name: "host unreachable",
			err:  &net.OpError{Op: "dial", Net: "tcp", Err: syscall.EHOSTUNREACH},
			want: ErrTypeNetwork,
		},
		{
			name: "dns",
			err:  &url.Error{Op: "Get", URL: "http://chalkydri.local", Err: &net.DNSError{Name: "chalkydri.local", Err: "no such host"}},
			want: ErrTypeDNS,
		},
		{
			name: "generic",
			err:  errors.New("connection reset"),
			want: ErrTypeNetwork,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyNetworkError(tt.err)
			if got == nil {
				t.Fatal("ClassifyNetworkError() returned nil")
			}
			if got.Type != tt.want {
				t.Errorf("Type = %v, want %v", got.Type, tt.want)
			}
			if !errors.Is(got, tt.err) && got.Err != tt.err {
				t.Errorf("underlying error not preserved")
			}
		})
	}
}

func TestClassifyNetworkError_Nil(t *testing.T) {
	if ClassifyNetworkError(nil) != nil {
		t.Error("ClassifyNetworkError(nil) should return nil")
	}
}

func TestIsTransportError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"http", NewHTTPError(404, "not found"), true},
		{"parse", NewParseError("bad", nil), true},
		{"network", NewNetworkError("down", errors.New("x")), true},
		{"wrapped", fmt.Errorf("load: %w", NewHTTPError(500, "x")), true},
		{"busy", ErrBusy, false},
		{"plain", errors.New("x"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransportError(tt.err); got != tt.want {
				t.Errorf("IsTransportError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDeviceError_Error(t *testing.T) {
	err := &DeviceError{Type: ErrTypeHTTP, Message: "unexpected status code: 404", Path: "/api/info"}
	if got := err.Error(); got != "HTTP Error: /api/info unexpected status code: 404" {
		t.Errorf("Error() = %q", got)
	}

	cause := errors.New("eof")
	err = &DeviceError{Type: ErrTypeParse, Message: "bad body", Err: cause}
	if !strings.Contains(err.Error(), "caused by: eof") {
		t.Errorf("Error() = %q, should mention cause", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
}

func TestShortMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&DeviceError{Type: ErrTypeTimeout}, "Device not responding (timeout)"},
		{NewHTTPError(503, "x"), "Device error (HTTP 503)"},
		{NewParseError("x", nil), "Failed to parse device response"},
		{fmt.Errorf("step: %w", ErrBusy), "Busy - previous request still running"},
		{errors.New("plain"), "plain"},
	}

	for _, tt := range tests {
		if got := ShortMessage(tt.err); got != tt.want {
			t.Errorf("ShortMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestTroubleshootingHint(t *testing.T) {
	hint := TroubleshootingHint(&DeviceError{Type: ErrTypeConnectionRefused})
	if !strings.Contains(hint, "6942") {
		t.Errorf("connection refused hint should mention default port, got %q", hint)
	}

	hint = TroubleshootingHint(NewHTTPError(500, "x"))
	if !strings.Contains(hint, "HTTP 500") {
		t.Errorf("5xx hint should mention status, got %q", hint)
	}

	if TroubleshootingHint(errors.New("x")) == "" {
		t.Error("hint should never be empty")
	}
}
