// Chalkydri-cfg is a configuration and calibration utility for Chalkydri
// vision devices.
//
// It discovers devices with mDNS, reads and writes the device configuration,
// drives camera calibration step by step and monitors device connectivity.
// The device is reached over its HTTP API (port 6942 by default).
//
// Usage:
//
//	chalkydri-cfg [command] [flags]
//
// Running without arguments launches the interactive calibration wizard.
// See 'chalkydri-cfg --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chalkydri/chalkydri-cfg/internal/logging"
	"github.com/chalkydri/chalkydri-cfg/internal/version"
)

func main() {
	defer logging.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "chalkydri-cfg",
	Short: "Chalkydri Device Configuration Utility",
	Long: `A standalone utility for configuring and calibrating Chalkydri vision devices.

Provides device discovery, configuration commands, step-by-step camera
calibration and connectivity monitoring.

The device address comes from --url, CHALKYDRI_BASE_URL, or the active
profile in the settings file (dev: http://10.45.33.10:6942,
deployed: http://chalkydri.local:6942).

If no command is specified, the interactive calibration wizard launches.`,
	Version:           version.Version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCalibrateWizard(cmd, args)
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("chalkydri-cfg %s\n", version.Full())
	},
}
