package config

import (
	"fmt"
	"net/url"
	"sort"
	"time"
)

const (
	// CurrentVersion is the settings file format version
	CurrentVersion = 1

	// ProfileDev is the bench profile (device on the team network)
	ProfileDev = "dev"

	// ProfileDeployed is the on-robot profile (device reached through mDNS)
	ProfileDeployed = "deployed"

	// DefaultHeartbeatInterval matches the monitor's default tick interval
	DefaultHeartbeatInterval = 500 * time.Millisecond

	// DefaultRequestTimeout matches the transport's default timeout
	DefaultRequestTimeout = 2 * time.Second
)

// Settings represents the client settings file.
// It stores where to reach devices and how to talk to them, never the
// device configuration itself.
type Settings struct {
	Version       int                      `yaml:"version"`
	ActiveProfile string                   `yaml:"active_profile"`
	Profiles      map[string]*Profile      `yaml:"profiles"`
	Heartbeat     *HeartbeatPrefs          `yaml:"heartbeat,omitempty"`
	Devices       map[string]*DeviceRecord `yaml:"devices,omitempty"` // Keyed by device name
}

// Profile is a named base address for the device API.
type Profile struct {
	BaseURL     string `yaml:"base_url"`
	Description string `yaml:"description,omitempty"`
}

// HeartbeatPrefs configures the connectivity monitor and request timeout.
type HeartbeatPrefs struct {
	Interval       time.Duration `yaml:"interval"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// DeviceRecord remembers a device seen through discovery or a successful request.
type DeviceRecord struct {
	BaseURL  string    `yaml:"base_url"`
	Version  string    `yaml:"version,omitempty"`
	LastSeen time.Time `yaml:"last_seen,omitempty"`
}

// NewSettings creates Settings with the dev and deployed profiles.
func NewSettings() *Settings {
	return &Settings{
		Version:       CurrentVersion,
		ActiveProfile: ProfileDev,
		Profiles: map[string]*Profile{
			ProfileDev: {
				BaseURL:     "http://10.45.33.10:6942",
				Description: "Bench device on the team network",
			},
			ProfileDeployed: {
				BaseURL:     "http://chalkydri.local:6942",
				Description: "Device on the robot",
			},
		},
		Heartbeat: &HeartbeatPrefs{
			Interval:       DefaultHeartbeatInterval,
			RequestTimeout: DefaultRequestTimeout,
		},
		Devices: make(map[string]*DeviceRecord),
	}
}

// applyDefaults fills sections missing from an older or hand-edited file.
func (s *Settings) applyDefaults() {
	defaults := NewSettings()
	if s.Profiles == nil {
		s.Profiles = defaults.Profiles
	}
	if s.ActiveProfile == "" {
		s.ActiveProfile = defaults.ActiveProfile
	}
	if s.Heartbeat == nil {
		s.Heartbeat = defaults.Heartbeat
	}
	if s.Heartbeat.Interval <= 0 {
		s.Heartbeat.Interval = DefaultHeartbeatInterval
	}
	if s.Heartbeat.RequestTimeout <= 0 {
		s.Heartbeat.RequestTimeout = DefaultRequestTimeout
	}
	if s.Devices == nil {
		s.Devices = make(map[string]*DeviceRecord)
	}
}

// Profile returns the named profile, or nil.
func (s *Settings) Profile(name string) *Profile {
	return s.Profiles[name]
}

// ProfileNames returns profile names in sorted order.
func (s *Settings) ProfileNames() []string {
	names := make([]string, 0, len(s.Profiles))
	for name := range s.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BaseURL returns the base address of the named profile, or of the active
// profile when name is empty.
func (s *Settings) BaseURL(name string) (string, error) {
	if name == "" {
		name = s.ActiveProfile
	}
	profile := s.Profiles[name]
	if profile == nil {
		return "", fmt.Errorf("unknown profile %q (available: %v)", name, s.ProfileNames())
	}
	return profile.BaseURL, nil
}

// SetProfile adds or replaces a profile.
func (s *Settings) SetProfile(name, baseURL, description string) error {
	if name == "" {
		return fmt.Errorf("profile name must not be empty")
	}
	if err := validateBaseURL(baseURL); err != nil {
		return err
	}
	if s.Profiles == nil {
		s.Profiles = make(map[string]*Profile)
	}
	s.Profiles[name] = &Profile{BaseURL: baseURL, Description: description}
	return nil
}

// UseProfile makes the named profile active.
func (s *Settings) UseProfile(name string) error {
	if s.Profiles[name] == nil {
		return fmt.Errorf("unknown profile %q (available: %v)", name, s.ProfileNames())
	}
	s.ActiveProfile = name
	return nil
}

// RecordDevice updates the last seen time and address for a device.
func (s *Settings) RecordDevice(name, baseURL, version string) {
	if s.Devices == nil {
		s.Devices = make(map[string]*DeviceRecord)
	}
	record, ok := s.Devices[name]
	if !ok {
		record = &DeviceRecord{}
		s.Devices[name] = record
	}
	record.BaseURL = baseURL
	if version != "" {
		record.Version = version
	}
	record.LastSeen = time.Now()
}

// Validate checks the settings for values the client cannot use.
func (s *Settings) Validate() error {
	if s.Version != CurrentVersion {
		return fmt.Errorf("unsupported settings version: %d (expected %d)", s.Version, CurrentVersion)
	}
	if s.Profiles[s.ActiveProfile] == nil {
		return fmt.Errorf("active profile %q is not defined", s.ActiveProfile)
	}
	for name, profile := range s.Profiles {
		if profile == nil {
			return fmt.Errorf("profile %q is empty", name)
		}
		if err := validateBaseURL(profile.BaseURL); err != nil {
			return fmt.Errorf("profile %q: %w", name, err)
		}
	}
	return nil
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid base URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid base URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid base URL %q: missing host", raw)
	}
	return nil
}
