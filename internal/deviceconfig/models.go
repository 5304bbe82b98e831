package deviceconfig

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FrameRate is a camera frame rate expressed as a fraction (e.g. 30000/1001).
type FrameRate struct {
	Num uint `json:"num"`
	Den uint `json:"den"`
}

// FPS returns the frame rate as frames per second. Zero if Den is zero.
func (f FrameRate) FPS() float64 {
	if f.Den == 0 {
		return 0
	}
	return float64(f.Num) / float64(f.Den)
}

// String returns "30" for whole rates and "30000/1001" otherwise.
func (f FrameRate) String() string {
	if f.Den == 1 {
		return strconv.FormatUint(uint64(f.Num), 10)
	}
	return fmt.Sprintf("%d/%d", f.Num, f.Den)
}

// CameraSettings is one concrete camera mode.
type CameraSettings struct {
	Width     uint      `json:"width"`
	Height    uint      `json:"height"`
	FrameRate FrameRate `json:"frame_rate"`
}

// String returns the mode as "WIDTHxHEIGHT@RATE", e.g. "640x480@30".
func (s CameraSettings) String() string {
	return fmt.Sprintf("%dx%d@%s", s.Width, s.Height, s.FrameRate)
}

// ParseCameraSettings parses "WIDTHxHEIGHT@RATE" where RATE is "30" or "30000/1001".
func ParseCameraSettings(s string) (CameraSettings, error) {
	var settings CameraSettings

	dims, rate, ok := strings.Cut(strings.TrimSpace(s), "@")
	if !ok {
		return settings, fmt.Errorf("camera mode %q: expected WIDTHxHEIGHT@RATE", s)
	}

	w, h, ok := strings.Cut(dims, "x")
	if !ok {
		return settings, fmt.Errorf("camera mode %q: expected WIDTHxHEIGHT", s)
	}

	width, err := strconv.ParseUint(w, 10, 32)
	if err != nil {
		return settings, fmt.Errorf("camera mode %q: invalid width: %w", s, err)
	}
	height, err := strconv.ParseUint(h, 10, 32)
	if err != nil {
		return settings, fmt.Errorf("camera mode %q: invalid height: %w", s, err)
	}

	num, den, hasDen := strings.Cut(rate, "/")
	n, err := strconv.ParseUint(num, 10, 32)
	if err != nil {
		return settings, fmt.Errorf("camera mode %q: invalid frame rate: %w", s, err)
	}
	d := uint64(1)
	if hasDen {
		d, err = strconv.ParseUint(den, 10, 32)
		if err != nil || d == 0 {
			return settings, fmt.Errorf("camera mode %q: invalid frame rate denominator", s)
		}
	}

	settings.Width = uint(width)
	settings.Height = uint(height)
	settings.FrameRate = FrameRate{Num: uint(n), Den: uint(d)}
	return settings, nil
}

// CameraConfig is the configuration of one camera attached to the device.
//
// Settings is nil when the camera uses the device default. When non-nil it is
// always one of PossibleSettings (see Validate).
type CameraConfig struct {
	Name             string           `json:"name"` // Stable device identifier
	DisplayName      string           `json:"display_name"`
	Settings         *CameraSettings  `json:"settings"`
	PossibleSettings []CameraSettings `json:"possible_settings"`
}

// SupportsMode reports whether the device reports mode as achievable for this camera.
func (c *CameraConfig) SupportsMode(mode CameraSettings) bool {
	for _, possible := range c.PossibleSettings {
		if possible == mode {
			return true
		}
	}
	return false
}

// Label returns the display name, falling back to the device identifier.
func (c *CameraConfig) Label() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return c.Name
}

// NewCameraConfig builds a camera configuration and checks the settings invariant.
func NewCameraConfig(name, displayName string, settings *CameraSettings, possible []CameraSettings) (CameraConfig, error) {
	cam := CameraConfig{
		Name:             name,
		DisplayName:      displayName,
		PossibleSettings: append([]CameraSettings(nil), possible...),
	}
	if settings != nil {
		s := *settings
		cam.Settings = &s
	}

	if errs := ValidateCameraConfig(&cam); len(errs) > 0 {
		return CameraConfig{}, errs[0]
	}
	return cam, nil
}

// MustCameraConfig is like NewCameraConfig but panics on an invalid camera.
// Use it for literals in code; values from the device go through Validate instead.
func MustCameraConfig(name, displayName string, settings *CameraSettings, possible []CameraSettings) CameraConfig {
	cam, err := NewCameraConfig(name, displayName, settings, possible)
	if err != nil {
		panic(err)
	}
	return cam
}

// CAprilTagsConfig configures the AprilTag detection subsystem.
type CAprilTagsConfig struct {
	Enabled bool     `json:"enabled"`
	Gamma   *float64 `json:"gamma"` // nil = device default
}

// MLConfig configures the ML inference subsystem.
type MLConfig struct {
	Enabled bool `json:"enabled"`
}

// Subsystems groups the per-device processing subsystems.
type Subsystems struct {
	CAprilTags CAprilTagsConfig `json:"capriltags"`
	ML         MLConfig         `json:"ml"`
}

// Config is the device configuration as reported by GET /api/configuration.
// The device is the authoritative source; a local copy only changes through Store.Save.
type Config struct {
	TeamNumber *uint          `json:"team_number"` // nil = not provisioned
	DeviceName *string        `json:"device_name"`
	Cameras    []CameraConfig `json:"cameras"`
	Subsystems Subsystems     `json:"subsystems"`
}

// Provisioned reports whether a team number has been assigned.
func (c *Config) Provisioned() bool {
	return c.TeamNumber != nil
}

// Camera returns the camera with the given device identifier, or nil.
func (c *Config) Camera(name string) *CameraConfig {
	for i := range c.Cameras {
		if c.Cameras[i].Name == name {
			return &c.Cameras[i]
		}
	}
	return nil
}

// Clone returns a deep copy. Snapshots handed to callers are always clones.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}

	out := &Config{Subsystems: c.Subsystems}

	if c.TeamNumber != nil {
		n := *c.TeamNumber
		out.TeamNumber = &n
	}
	if c.DeviceName != nil {
		name := *c.DeviceName
		out.DeviceName = &name
	}
	if c.Subsystems.CAprilTags.Gamma != nil {
		g := *c.Subsystems.CAprilTags.Gamma
		out.Subsystems.CAprilTags.Gamma = &g
	}

	if c.Cameras != nil {
		out.Cameras = make([]CameraConfig, len(c.Cameras))
		for i, cam := range c.Cameras {
			out.Cameras[i] = CameraConfig{
				Name:        cam.Name,
				DisplayName: cam.DisplayName,
			}
			if cam.Settings != nil {
				s := *cam.Settings
				out.Cameras[i].Settings = &s
			}
			if cam.PossibleSettings != nil {
				out.Cameras[i].PossibleSettings = append([]CameraSettings(nil), cam.PossibleSettings...)
			}
		}
	}

	return out
}

// ParseConfig decodes a configuration and checks its invariants.
func ParseConfig(data []byte) (*Config, error) {
	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal device config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}
