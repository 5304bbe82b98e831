package deviceconfig

import (
	"fmt"
	"strings"
)

// Summary returns a one-line summary of the configuration
func (c *Config) Summary() string {
	return fmt.Sprintf("Chalkydri %s (team %s, %d camera(s))", optString(c.DeviceName), c.teamLabel(), len(c.Cameras))
}

func (c *Config) teamLabel() string {
	if c.TeamNumber == nil {
		return "unprovisioned"
	}
	return fmt.Sprintf("%d", *c.TeamNumber)
}

// FormatDeviceInfo returns identification and provisioning information
func (c *Config) FormatDeviceInfo() string {
	var b strings.Builder

	b.WriteString("=== Device ===\n")
	b.WriteString(fmt.Sprintf("Device Name: %s\n", optString(c.DeviceName)))
	b.WriteString(fmt.Sprintf("Team Number: %s\n", c.teamLabel()))

	return b.String()
}

// FormatSubsystems returns the subsystem configuration
func (c *Config) FormatSubsystems() string {
	var b strings.Builder

	b.WriteString("=== Subsystems ===\n")
	b.WriteString(fmt.Sprintf("AprilTags: %s (gamma: %s)\n",
		enabledLabel(c.Subsystems.CAprilTags.Enabled), gammaLabel(c.Subsystems.CAprilTags.Gamma)))
	b.WriteString(fmt.Sprintf("ML:        %s\n", enabledLabel(c.Subsystems.ML.Enabled)))

	return b.String()
}

// FormatCameras returns every camera with its active and possible modes
func (c *Config) FormatCameras() string {
	var b strings.Builder

	b.WriteString("=== Cameras ===\n")
	for _, cam := range c.Cameras {
		b.WriteString(fmt.Sprintf("%s (%s)\n", cam.Label(), cam.Name))
		b.WriteString(fmt.Sprintf("  Mode:      %s\n", optMode(cam.Settings)))
		if len(cam.PossibleSettings) == 0 {
			b.WriteString("  Available: (none reported)\n")
			continue
		}
		b.WriteString("  Available:\n")
		for _, mode := range cam.PossibleSettings {
			marker := " "
			if cam.Settings != nil && *cam.Settings == mode {
				marker = "*"
			}
			b.WriteString(fmt.Sprintf("   %s %-16s %6.2f fps\n", marker, mode, mode.FrameRate.FPS()))
		}
	}

	return b.String()
}

// FormatCompact returns a compact multi-line format suitable for terminal display
func (c *Config) FormatCompact() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Device:    %s (team %s)\n", optString(c.DeviceName), c.teamLabel()))
	cams := make([]string, len(c.Cameras))
	for i, cam := range c.Cameras {
		cams[i] = fmt.Sprintf("%s:%s", cam.Name, optMode(cam.Settings))
	}
	b.WriteString(fmt.Sprintf("Cameras:   %s\n", strings.Join(cams, " ")))
	b.WriteString(fmt.Sprintf("AprilTags: %s  ML: %s\n",
		enabledLabel(c.Subsystems.CAprilTags.Enabled), enabledLabel(c.Subsystems.ML.Enabled)))

	return b.String()
}

// FormatDetailed returns every configuration section
func (c *Config) FormatDetailed() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString("╔════════════════════════════════════════════════════════════════╗\n")
	b.WriteString("║              CHALKYDRI DEVICE CONFIGURATION                    ║\n")
	b.WriteString("╚════════════════════════════════════════════════════════════════╝\n")
	b.WriteString("\n")

	b.WriteString(c.FormatDeviceInfo())
	b.WriteString("\n")
	b.WriteString(c.FormatSubsystems())
	b.WriteString("\n")
	b.WriteString(c.FormatCameras())

	return b.String()
}

// FormatDiff returns a formatted diff between two configurations
func FormatDiff(old, new *Config) string {
	var b strings.Builder

	b.WriteString("=== Configuration Differences ===\n")

	mismatches := Diff(old, new)
	if len(mismatches) == 0 {
		b.WriteString("\n(no differences detected)\n")
		return b.String()
	}

	b.WriteString("\n")
	for _, m := range mismatches {
		field, rest, _ := strings.Cut(m, ": expected ")
		from, to, _ := strings.Cut(rest, ", got ")
		b.WriteString(fmt.Sprintf("  %s: %s → %s\n", field, from, to))
	}

	return b.String()
}

func enabledLabel(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

func gammaLabel(g *float64) string {
	if g == nil {
		return "default"
	}
	return fmt.Sprintf("%g", *g)
}
