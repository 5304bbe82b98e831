// Package devicectl issues system-level commands to a Chalkydri device.
package devicectl

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/chalkydri/chalkydri-cfg/internal/logging"
)

// PathSysInfo reports host uptime and memory usage.
const PathSysInfo = "/api/sys/info"

// SysInfo describes the device host.
type SysInfo struct {
	Uptime   uint64 `json:"uptime"`    // seconds
	MemUsage uint8  `json:"mem_usage"` // percent
}

// UptimeDuration returns Uptime as a duration.
func (s SysInfo) UptimeDuration() time.Duration {
	return time.Duration(s.Uptime) * time.Second
}

// Action is a power or process command.
type Action int

const (
	// Restart restarts the Chalkydri process, applying configuration that needs a restart.
	Restart Action = iota
	// Reboot reboots the device host.
	Reboot
	// Shutdown powers the device host off.
	Shutdown
)

var actions = []struct {
	action Action
	name   string
	path   string
}{
	{Restart, "restart", "/api/restart"},
	{Reboot, "reboot", "/api/sys/reboot"},
	{Shutdown, "shutdown", "/api/sys/shutdown"},
}

func (a Action) String() string {
	for _, entry := range actions {
		if entry.action == a {
			return entry.name
		}
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// Path returns the endpoint that performs the action.
func (a Action) Path() string {
	for _, entry := range actions {
		if entry.action == a {
			return entry.path
		}
	}
	return ""
}

// Disruptive reports whether the action takes the device host offline.
func (a Action) Disruptive() bool {
	return a == Reboot || a == Shutdown
}

// ParseAction maps "restart", "reboot" or "shutdown" to an Action.
func ParseAction(s string) (Action, error) {
	for _, entry := range actions {
		if strings.EqualFold(entry.name, s) {
			return entry.action, nil
		}
	}
	return 0, fmt.Errorf("unknown action %q (valid: restart, reboot, shutdown)", s)
}

// Requester is the subset of *transport.Client used here.
type Requester interface {
	Get(ctx context.Context, path string, out interface{}) error
	Post(ctx context.Context, path string, in, out interface{}) error
}

// Controller sends system commands.
type Controller struct {
	client Requester
}

// New creates a controller.
func New(client Requester) *Controller {
	return &Controller{client: client}
}

// SystemInfo fetches host uptime and memory usage.
func (c *Controller) SystemInfo(ctx context.Context) (*SysInfo, error) {
	var info SysInfo
	if err := c.client.Get(ctx, PathSysInfo, &info); err != nil {
		return nil, fmt.Errorf("failed to get system info: %w", err)
	}
	return &info, nil
}

// Do performs an action. The device acknowledges before acting, so a
// successful return does not mean the action has completed.
func (c *Controller) Do(ctx context.Context, action Action) error {
	path := action.Path()
	if path == "" {
		return fmt.Errorf("unknown action %d", int(action))
	}

	logging.Info("Sending device command", zap.String("action", action.String()))

	if err := c.client.Post(ctx, path, nil, nil); err != nil {
		return fmt.Errorf("failed to %s device: %w", action, err)
	}
	return nil
}
