package deviceconfig

import (
	"context"
	"fmt"
	"strings"
)

// VerificationResult contains the results of a save-then-reload check
type VerificationResult struct {
	// Success indicates whether the reloaded configuration matched
	Success bool

	// Saved is the configuration the device returned from the save
	Saved *Config

	// Actual is the configuration retrieved from the device afterwards
	Actual *Config

	// Mismatches lists all differences between Saved and Actual
	Mismatches []string

	// Error is any error that occurred during save or reload
	Error error
}

// SaveAndVerify saves cfg and immediately reloads it. The result is
// successful when the reloaded configuration equals what the save returned.
// There are no retries; a failed reload is reported as-is.
func (s *Store) SaveAndVerify(ctx context.Context, cfg *Config) *VerificationResult {
	result := &VerificationResult{}

	saved, err := s.Save(ctx, cfg)
	if err != nil {
		result.Error = fmt.Errorf("save failed: %w", err)
		return result
	}
	result.Saved = saved

	actual, err := s.Load(ctx)
	if err != nil {
		result.Error = fmt.Errorf("reload failed: %w", err)
		return result
	}
	result.Actual = actual

	result.Mismatches = Diff(saved, actual)
	if len(result.Mismatches) > 0 {
		result.Error = fmt.Errorf("configuration mismatch after save: %s", formatMismatches(result.Mismatches))
		return result
	}

	result.Success = true
	return result
}

// Diff compares two configurations and lists each difference as
// "field: expected X, got Y". Cameras are matched by name.
func Diff(expected, actual *Config) []string {
	var mismatches []string

	add := func(field string, want, got interface{}) {
		mismatches = append(mismatches, fmt.Sprintf("%s: expected %v, got %v", field, want, got))
	}

	if expected == nil || actual == nil {
		if expected != actual {
			add("configuration", describeConfig(expected), describeConfig(actual))
		}
		return mismatches
	}

	if a, b := optUint(expected.TeamNumber), optUint(actual.TeamNumber); a != b {
		add("team_number", a, b)
	}
	if a, b := optString(expected.DeviceName), optString(actual.DeviceName); a != b {
		add("device_name", a, b)
	}

	ea, aa := expected.Subsystems.CAprilTags, actual.Subsystems.CAprilTags
	if ea.Enabled != aa.Enabled {
		add("subsystems.capriltags.enabled", ea.Enabled, aa.Enabled)
	}
	if a, b := optFloat(ea.Gamma), optFloat(aa.Gamma); a != b {
		add("subsystems.capriltags.gamma", a, b)
	}
	if expected.Subsystems.ML.Enabled != actual.Subsystems.ML.Enabled {
		add("subsystems.ml.enabled", expected.Subsystems.ML.Enabled, actual.Subsystems.ML.Enabled)
	}

	for i := range expected.Cameras {
		want := &expected.Cameras[i]
		got := actual.Camera(want.Name)
		if got == nil {
			add(fmt.Sprintf("cameras[%s]", want.Name), "present", "missing")
			continue
		}
		field := fmt.Sprintf("cameras[%s]", want.Name)
		if want.DisplayName != got.DisplayName {
			add(field+".display_name", want.DisplayName, got.DisplayName)
		}
		if a, b := optMode(want.Settings), optMode(got.Settings); a != b {
			add(field+".settings", a, b)
		}
		if a, b := formatModes(want.PossibleSettings), formatModes(got.PossibleSettings); a != b {
			add(field+".possible_settings", a, b)
		}
	}
	for i := range actual.Cameras {
		if expected.Camera(actual.Cameras[i].Name) == nil {
			add(fmt.Sprintf("cameras[%s]", actual.Cameras[i].Name), "missing", "present")
		}
	}

	return mismatches
}

// Equal reports whether two configurations have no differences.
func Equal(a, b *Config) bool {
	return len(Diff(a, b)) == 0
}

// formatMismatches creates a human-readable summary of mismatches
func formatMismatches(mismatches []string) string {
	switch len(mismatches) {
	case 0:
		return "none"
	case 1:
		return mismatches[0]
	}
	return fmt.Sprintf("%d mismatches: %s", len(mismatches), strings.Join(mismatches, "; "))
}

func describeConfig(c *Config) string {
	if c == nil {
		return "none"
	}
	return "present"
}

func optUint(v *uint) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%d", *v)
}

func optString(v *string) string {
	if v == nil {
		return "null"
	}
	return *v
}

func optFloat(v *float64) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%g", *v)
}

func optMode(v *CameraSettings) string {
	if v == nil {
		return "default"
	}
	return v.String()
}

func formatModes(modes []CameraSettings) string {
	if len(modes) == 0 {
		return "none"
	}
	parts := make([]string, len(modes))
	for i, m := range modes {
		parts[i] = m.String()
	}
	return strings.Join(parts, ", ")
}
