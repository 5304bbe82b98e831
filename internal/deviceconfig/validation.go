package deviceconfig

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// MaxTeamNumber is the largest team number the device stores (16 bits).
const MaxTeamNumber = 65535

// ValidationError reports a configuration that violates the data model.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid configuration: " + e.Message
	}
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Message)
}

// NewValidationError creates a validation error for a field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

// ValidateCameraSettings validates one camera mode.
func ValidateCameraSettings(field string, s CameraSettings) error {
	if s.FrameRate.Den == 0 {
		return NewValidationError(field+".frame_rate.den", "must be greater than 0")
	}
	if s.Width == 0 || s.Height == 0 {
		return NewValidationError(field, fmt.Sprintf("resolution must be non-zero, got %dx%d", s.Width, s.Height))
	}
	return nil
}

// ValidateCameraConfig validates a camera, including the settings invariant:
// settings must be nil or one of possible_settings.
func ValidateCameraConfig(cam *CameraConfig) []error {
	var errs []error

	field := fmt.Sprintf("cameras[%s]", cam.Name)
	if cam.Name == "" {
		errs = append(errs, NewValidationError("cameras[].name", "cannot be empty"))
		field = "cameras[?]"
	}

	for i, possible := range cam.PossibleSettings {
		if err := ValidateCameraSettings(fmt.Sprintf("%s.possible_settings[%d]", field, i), possible); err != nil {
			errs = append(errs, err)
		}
	}

	if cam.Settings != nil {
		if err := ValidateCameraSettings(field+".settings", *cam.Settings); err != nil {
			errs = append(errs, err)
		} else if !cam.SupportsMode(*cam.Settings) {
			errs = append(errs, NewValidationError(field+".settings",
				fmt.Sprintf("mode %s is not one of the camera's possible settings", cam.Settings)))
		}
	}

	return errs
}

// ValidateDeviceName validates a device name. The device uses it as its hostname,
// so it follows RFC 1123 label rules.
func ValidateDeviceName(name string) error {
	if name == "" {
		return NewValidationError("device_name", "cannot be empty (use null to keep the current hostname)")
	}
	if len(name) > 63 {
		return NewValidationError("device_name", fmt.Sprintf("too long (max 63 chars): %d chars", len(name)))
	}
	if strings.HasPrefix(name, "-") || strings.HasSuffix(name, "-") {
		return NewValidationError("device_name", "cannot start or end with '-'")
	}
	for _, r := range name {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !isAlnum && r != '-' {
			return NewValidationError("device_name", fmt.Sprintf("invalid character %q (letters, digits and '-' only)", r))
		}
	}
	return nil
}

// ValidateConfig validates a complete configuration.
// Returns a slice of validation errors (empty if valid).
func ValidateConfig(config *Config) []error {
	var errs []error

	if config.TeamNumber != nil && *config.TeamNumber > MaxTeamNumber {
		errs = append(errs, NewValidationError("team_number",
			fmt.Sprintf("must be at most %d, got %d", MaxTeamNumber, *config.TeamNumber)))
	}

	if config.DeviceName != nil {
		if err := ValidateDeviceName(*config.DeviceName); err != nil {
			errs = append(errs, err)
		}
	}

	if len(config.Cameras) == 0 {
		errs = append(errs, NewValidationError("cameras", "at least one camera is required"))
	}

	seen := make(map[string]bool, len(config.Cameras))
	for i := range config.Cameras {
		cam := &config.Cameras[i]
		if cam.Name != "" && seen[cam.Name] {
			errs = append(errs, NewValidationError("cameras", fmt.Sprintf("duplicate camera name %q", cam.Name)))
		}
		seen[cam.Name] = true
		errs = append(errs, ValidateCameraConfig(cam)...)
	}

	if g := config.Subsystems.CAprilTags.Gamma; g != nil && (math.IsNaN(*g) || math.IsInf(*g, 0)) {
		errs = append(errs, NewValidationError("subsystems.capriltags.gamma", "must be a finite number"))
	}

	return errs
}

// Validate returns nil if the configuration is valid, or all violations joined.
func (c *Config) Validate() error {
	return errors.Join(ValidateConfig(c)...)
}
