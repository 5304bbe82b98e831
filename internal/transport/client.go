package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/chalkydri/chalkydri-cfg/internal/logging"
	"github.com/chalkydri/chalkydri-cfg/internal/version"
)

const (
	// DefaultPort is the port the Chalkydri API listens on
	DefaultPort = 6942

	// DefaultTimeout bounds every request, so a hung device cannot wedge a caller
	// (in particular the heartbeat) for longer than this.
	DefaultTimeout = 2 * time.Second

	// RequestIDHeader carries a per-request id that shows up in both client and device logs
	RequestIDHeader = "X-Request-ID"
)

// Client is the request/response primitive for the device HTTP API.
// It owns the base address and JSON encoding; it never retries.
type Client struct {
	// BaseURL is the base URL for the device (e.g., "http://10.45.33.10:6942")
	BaseURL string

	http *resty.Client
}

// NewClient creates a client for a device at host:port
func NewClient(host string, port int) *Client {
	return NewClientWithURL(fmt.Sprintf("http://%s:%d", host, port))
}

// NewClientWithURL creates a client with a full base URL
func NewClientWithURL(baseURL string) *Client {
	baseURL = strings.TrimRight(baseURL, "/")

	r := resty.New()
	r.SetBaseURL(baseURL)
	r.SetTimeout(DefaultTimeout)
	r.SetHeader("Accept", "application/json")
	r.SetHeader("User-Agent", "chalkydri-cfg/"+version.Version)
	r.SetRetryCount(0)
	r.SetLogger(restyLogger{})

	return &Client{
		BaseURL: baseURL,
		http:    r,
	}
}

// restyLogger forwards resty's messages to whatever logger is current when
// they are written, so clients built before logging.Initialize still log.
type restyLogger struct{}

func (restyLogger) Errorf(format string, v ...interface{}) {
	logging.GetLogger().Sugar().Errorf(format, v...)
}

func (restyLogger) Warnf(format string, v ...interface{}) {
	logging.GetLogger().Sugar().Warnf(format, v...)
}

func (restyLogger) Debugf(format string, v ...interface{}) {
	logging.GetLogger().Sugar().Debugf(format, v...)
}

// SetTimeout sets the HTTP request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.http.SetTimeout(timeout)
}

// Timeout returns the HTTP request timeout
func (c *Client) Timeout() time.Duration {
	return c.http.GetClient().Timeout
}

// Get issues a GET and decodes the JSON response into out (if non-nil)
func (c *Client) Get(ctx context.Context, path string, out interface{}) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post issues a POST with a JSON body and decodes the response into out (if non-nil)
func (c *Client) Post(ctx context.Context, path string, in, out interface{}) error {
	return c.Do(ctx, http.MethodPost, path, in, out)
}

// Put issues a PUT with a JSON body and decodes the response into out (if non-nil)
func (c *Client) Put(ctx context.Context, path string, in, out interface{}) error {
	return c.Do(ctx, http.MethodPut, path, in, out)
}

// Do performs exactly one request. Every failure is returned as *DeviceError.
func (c *Client) Do(ctx context.Context, method, path string, in, out interface{}) error {
	requestID := uuid.NewString()
	start := time.Now()

	req := c.http.R().
		SetContext(ctx).
		SetHeader(RequestIDHeader, requestID)

	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return &DeviceError{Type: ErrTypeParse, Message: "failed to encode request body", Path: path, Err: err}
		}
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		devErr := NewNetworkError(fmt.Sprintf("%s request failed", method), err)
		devErr.Path = path
		logging.LogDeviceRequest(requestID, method, path, 0, time.Since(start), devErr)
		return devErr
	}

	status := resp.StatusCode()
	if status < 200 || status > 299 {
		devErr := NewHTTPError(status, fmt.Sprintf("unexpected status code: %d", status))
		devErr.Path = path
		if text := strings.TrimSpace(resp.String()); text != "" {
			devErr.Message = fmt.Sprintf("unexpected status code: %d: %s", status, truncate(text, 200))
		}
		logging.LogDeviceRequest(requestID, method, path, status, time.Since(start), devErr)
		return devErr
	}

	logging.LogDeviceRequest(requestID, method, path, status, time.Since(start), nil)

	if out == nil {
		return nil
	}

	body := resp.Body()
	if len(body) == 0 {
		return &DeviceError{Type: ErrTypeParse, Message: "empty response body", Path: path, StatusCode: status}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &DeviceError{Type: ErrTypeParse, Message: "failed to parse JSON response", Path: path, StatusCode: status, Err: err}
	}

	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
