package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ConfirmPhrase must be typed exactly to confirm a dangerous operation.
const ConfirmPhrase = "I AGREE"

// ConfirmDangerousOperation displays a warning box on out and reads one line
// from in. It returns true only if the line is ConfirmPhrase.
func ConfirmDangerousOperation(in io.Reader, out io.Writer, title string, warnings []string, disclaimer string) bool {
	width := clampWidth(GetTerminalWidth())

	lines := []string{
		"",
		WarningTitleStyle.Render(fmt.Sprintf("   %s  WARNING  ─  %s", WarningMarker, title)),
		"",
	}
	bulletStyle := lipgloss.NewStyle().Foreground(TextColor)
	for _, warning := range warnings {
		lines = append(lines, bulletStyle.Render("   • "+warning))
	}
	lines = append(lines, "")

	if disclaimer != "" {
		disclaimerStyle := lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true).
			Width(width - 12).
			PaddingLeft(3)
		lines = append(lines, disclaimerStyle.Render(disclaimer), "")
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(WarningColor).
		Width(width-2).
		Padding(0, 2).
		Render(strings.Join(lines, "\n"))

	_, _ = fmt.Fprintln(out, box)
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprint(out, WarningTitleStyle.Render(fmt.Sprintf("To proceed, type %q and press Enter: ", ConfirmPhrase)))

	input, err := bufio.NewReader(in).ReadString('\n')
	_, _ = fmt.Fprintln(out)
	if err != nil && input == "" {
		return false
	}

	if strings.TrimSpace(input) == ConfirmPhrase {
		return true
	}

	_, _ = fmt.Fprintln(out, lipgloss.NewStyle().Foreground(MutedColor).Render("  Operation cancelled."))
	_, _ = fmt.Fprintln(out)
	return false
}

// DeviceActionConfirmation asks before restarting, rebooting or shutting
// down the device.
func DeviceActionConfirmation(in io.Reader, out io.Writer, action string) bool {
	return ConfirmDangerousOperation(in, out,
		strings.ToUpper(action)+" DEVICE",
		[]string{
			"Vision processing stops until the device is back",
			"Calibration progress that was not saved is lost",
			"Do not run this while the robot is enabled",
		},
		"",
	)
}

// ConfigChangeConfirmation asks before saving a configuration with
// consequences listed in warnings.
func ConfigChangeConfirmation(in io.Reader, out io.Writer, warnings []string) bool {
	return ConfirmDangerousOperation(in, out,
		"CONFIGURATION CHANGE",
		warnings,
		"The device applies the new configuration immediately.",
	)
}
