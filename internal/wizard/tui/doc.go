// Package tui implements the interactive calibration wizard.
//
// The wizard is a Bubble Tea program with two screens:
//   - Discovery: scan the network with mDNS or type a device address
//   - Calibrate: live connectivity and telemetry, the device configuration
//     summary, and step-by-step camera calibration
//
// Device calls run as tea.Cmds so the screen stays responsive while a step is
// being captured. Connectivity comes from a monitor subscription: each new
// heartbeat snapshot is delivered as a message.
//
// # Framework Components
//
//   - bubbles/spinner: capture and scan indicators
//   - bubbles/textinput: manual device address
//   - bubbles/progress: calibration progress
//   - bubbles/list: discovered devices
//   - bubbles/help: context-aware key help
//   - lipgloss: styling and layout
//
// # Usage Example
//
//	app := tui.NewAppModel(connect, discovery.NewScanner().Scan, baseURL)
//	if err := tui.Run(ctx, app); err != nil {
//	    log.Fatal(err)
//	}
package tui
