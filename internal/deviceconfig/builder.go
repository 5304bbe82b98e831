package deviceconfig

import (
	"errors"
	"fmt"
)

// ConfigBuilder provides a fluent API for editing a configuration.
// It works on a copy of the baseline and validates the result in Build.
//
// Example usage:
//
//	cfg, err := NewConfigBuilder(store.Cached()).
//	    SetTeamNumber(4201).
//	    SetCameraMode("cam0", CameraSettings{Width: 640, Height: 480, FrameRate: FrameRate{Num: 30, Den: 1}}).
//	    EnableAprilTags(true).
//	    Build()
//	if err == nil {
//	    cfg, err = store.Save(ctx, cfg)
//	}
type ConfigBuilder struct {
	current *Config
	working *Config

	changes []string
	errs    []error
}

// NewConfigBuilder creates a builder with current as the baseline.
// current is never modified.
func NewConfigBuilder(current *Config) *ConfigBuilder {
	b := &ConfigBuilder{current: current}
	b.Reset()
	return b
}

func (b *ConfigBuilder) record(format string, args ...interface{}) {
	b.changes = append(b.changes, fmt.Sprintf(format, args...))
}

func (b *ConfigBuilder) camera(name string) *CameraConfig {
	cam := b.working.Camera(name)
	if cam == nil {
		b.errs = append(b.errs, NewValidationError("cameras", fmt.Sprintf("no camera named %q", name)))
	}
	return cam
}

// SetTeamNumber provisions the device for a team.
func (b *ConfigBuilder) SetTeamNumber(team uint) *ConfigBuilder {
	b.working.TeamNumber = &team
	b.record("team_number = %d", team)
	return b
}

// ClearTeamNumber marks the device as unprovisioned.
func (b *ConfigBuilder) ClearTeamNumber() *ConfigBuilder {
	b.working.TeamNumber = nil
	b.record("team_number = null")
	return b
}

// SetDeviceName sets the device (host) name.
func (b *ConfigBuilder) SetDeviceName(name string) *ConfigBuilder {
	b.working.DeviceName = &name
	b.record("device_name = %s", name)
	return b
}

// EnableAprilTags turns the AprilTag subsystem on or off.
func (b *ConfigBuilder) EnableAprilTags(enabled bool) *ConfigBuilder {
	b.working.Subsystems.CAprilTags.Enabled = enabled
	b.record("subsystems.capriltags.enabled = %v", enabled)
	return b
}

// SetGamma sets the AprilTag gamma correction. The device may clamp it.
func (b *ConfigBuilder) SetGamma(gamma float64) *ConfigBuilder {
	b.working.Subsystems.CAprilTags.Gamma = &gamma
	b.record("subsystems.capriltags.gamma = %g", gamma)
	return b
}

// ClearGamma reverts gamma to the device default.
func (b *ConfigBuilder) ClearGamma() *ConfigBuilder {
	b.working.Subsystems.CAprilTags.Gamma = nil
	b.record("subsystems.capriltags.gamma = null")
	return b
}

// EnableML turns the ML subsystem on or off.
func (b *ConfigBuilder) EnableML(enabled bool) *ConfigBuilder {
	b.working.Subsystems.ML.Enabled = enabled
	b.record("subsystems.ml.enabled = %v", enabled)
	return b
}

// SetCameraMode selects one of the camera's possible settings.
func (b *ConfigBuilder) SetCameraMode(camera string, mode CameraSettings) *ConfigBuilder {
	cam := b.camera(camera)
	if cam == nil {
		return b
	}
	if !cam.SupportsMode(mode) {
		b.errs = append(b.errs, NewValidationError(fmt.Sprintf("cameras[%s].settings", camera),
			fmt.Sprintf("mode %s is not supported (available: %s)", mode, formatModes(cam.PossibleSettings))))
		return b
	}
	cam.Settings = &mode
	b.record("cameras[%s].settings = %s", camera, mode)
	return b
}

// SetCameraDefault reverts a camera to the device default mode.
func (b *ConfigBuilder) SetCameraDefault(camera string) *ConfigBuilder {
	if cam := b.camera(camera); cam != nil {
		cam.Settings = nil
		b.record("cameras[%s].settings = default", camera)
	}
	return b
}

// SetDisplayName sets the human-readable label of a camera.
func (b *ConfigBuilder) SetDisplayName(camera, displayName string) *ConfigBuilder {
	if cam := b.camera(camera); cam != nil {
		cam.DisplayName = displayName
		b.record("cameras[%s].display_name = %s", camera, displayName)
	}
	return b
}

// HasChanges returns true if any edit has been made.
func (b *ConfigBuilder) HasChanges() bool {
	return len(b.changes) > 0
}

// Changes lists the edits in the order they were made.
func (b *ConfigBuilder) Changes() []string {
	return append([]string(nil), b.changes...)
}

// Validate reports the first problem with the edits so far.
func (b *ConfigBuilder) Validate() error {
	if len(b.errs) > 0 {
		return errors.Join(b.errs...)
	}
	return b.working.Validate()
}

// Build returns the edited configuration, ready for Store.Save.
func (b *ConfigBuilder) Build() (*Config, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b.working.Clone(), nil
}

// Reset discards all edits.
func (b *ConfigBuilder) Reset() *ConfigBuilder {
	b.working = b.current.Clone()
	if b.working == nil {
		b.working = &Config{}
	}
	b.changes = nil
	b.errs = nil
	return b
}
