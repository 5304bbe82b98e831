package calibration

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/chalkydri/chalkydri-cfg/internal/logging"
	"github.com/chalkydri/chalkydri-cfg/internal/transport"
)

const (
	// PathStatus reports calibration progress without advancing it.
	PathStatus = "/api/calibrate/status"

	// PathStep advances the default camera's calibration by one step.
	PathStep = "/api/calibrate/step"
)

var (
	// ErrBusy is returned when a step is already in flight.
	ErrBusy = fmt.Errorf("calibration: %w", transport.ErrBusy)

	// ErrInvalidState is returned when a step is not allowed in the current state.
	ErrInvalidState = errors.New("calibration: invalid state")

	// ErrProgressUnknown is wrapped by ErrInvalidState after a step whose
	// outcome was lost. A Status requested after the loss clears it.
	ErrProgressUnknown = errors.New("calibration progress unknown, query status first")
)

// Getter is the subset of *transport.Client the controller needs.
type Getter interface {
	Get(ctx context.Context, path string, out interface{}) error
}

// Controller drives the device's step-by-step calibration.
//
// The device owns the progress counter. The controller only remembers the
// last status the device reported and uses it to refuse steps that cannot
// succeed (terminal state, unknown progress). Steps are serialized; status
// queries are not.
type Controller struct {
	client Getter
	camera string

	busy atomic.Bool

	mu      sync.RWMutex
	status  Status
	known   bool
	unknown bool
	// lost counts steps whose outcome was lost. A status reply only clears
	// unknown progress if no step was lost while it was in flight.
	lost uint64
}

// NewController creates a controller. camera selects the per-camera step
// endpoint; leave it empty for the device default.
func NewController(client Getter, camera string) *Controller {
	return &Controller{client: client, camera: camera}
}

// Camera returns the camera this controller calibrates ("" for the default).
func (c *Controller) Camera() string {
	return c.camera
}

func (c *Controller) stepPath() string {
	if c.camera == "" {
		return PathStep
	}
	return "/api/calibrate/" + url.PathEscape(c.camera) + "/step"
}

func (c *Controller) intrinsicsPath() string {
	return "/api/calibrate/" + url.PathEscape(c.camera) + "/intrinsics"
}

// Status queries the device. It never advances calibration and may run
// concurrently with Step. A successful reply replaces the local view, even if
// it contradicts it, and clears the unknown-progress condition. A reply that
// was requested before a step was lost is returned but not installed.
func (c *Controller) Status(ctx context.Context) (Status, error) {
	c.mu.RLock()
	lost := c.lost
	c.mu.RUnlock()

	var status Status
	if err := c.client.Get(ctx, PathStatus, &status); err != nil {
		return Status{}, fmt.Errorf("failed to query calibration status: %w", err)
	}

	c.mu.Lock()
	if c.lost == lost {
		c.status = status
		c.known = true
		c.unknown = false
	}
	c.mu.Unlock()

	return status, nil
}

// Step asks the device to advance by exactly one step and returns the status
// it reports.
//
// A step while another is in flight returns ErrBusy. A step after the device
// reported Completed or Failed returns ErrInvalidState without contacting the
// device. If a step fails in transit the device may or may not have advanced,
// so further steps return ErrInvalidState (wrapping ErrProgressUnknown) until
// Status succeeds.
func (c *Controller) Step(ctx context.Context) (Status, error) {
	if !c.busy.CompareAndSwap(false, true) {
		return Status{}, ErrBusy
	}
	defer c.busy.Store(false)

	c.mu.RLock()
	current, known, unknown := c.status, c.known, c.unknown
	c.mu.RUnlock()

	if unknown {
		return Status{}, fmt.Errorf("%w: %w", ErrInvalidState, ErrProgressUnknown)
	}
	if known && current.State.Terminal() {
		return current, fmt.Errorf("%w: calibration already %s", ErrInvalidState, current.State)
	}

	var status Status
	if err := c.client.Get(ctx, c.stepPath(), &status); err != nil {
		c.mu.Lock()
		c.unknown = true
		c.lost++
		c.mu.Unlock()
		return Status{}, fmt.Errorf("calibration step failed: %w", err)
	}

	c.mu.Lock()
	c.status = status
	c.known = true
	c.mu.Unlock()

	logging.LogCalibrationStep(status.State.String(), status.CurrentStep, status.TotalSteps)

	return status, nil
}

// ComputeIntrinsics asks the device to solve the camera model from the
// captured steps. It needs a named camera and a Completed run.
func (c *Controller) ComputeIntrinsics(ctx context.Context) error {
	if c.camera == "" {
		return fmt.Errorf("%w: intrinsics require a camera name", ErrInvalidState)
	}
	if !c.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer c.busy.Store(false)

	c.mu.RLock()
	current, known := c.status, c.known
	c.mu.RUnlock()

	if !known || current.State != Completed {
		return fmt.Errorf("%w: intrinsics need a completed run, have %s", ErrInvalidState, current.State)
	}

	if err := c.client.Get(ctx, c.intrinsicsPath(), nil); err != nil {
		return fmt.Errorf("failed to compute intrinsics: %w", err)
	}
	return nil
}

// Snapshot returns the last status reported by the device and whether one
// is known. known is false before the first reply and after a lost step.
func (c *Controller) Snapshot() (status Status, known bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status, c.known && !c.unknown
}

// InFlight reports whether a step is outstanding.
func (c *Controller) InFlight() bool {
	return c.busy.Load()
}
