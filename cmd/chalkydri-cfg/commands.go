package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/chalkydri/chalkydri-cfg/internal/deviceconfig"
	"github.com/chalkydri/chalkydri-cfg/internal/discovery"
	"github.com/chalkydri/chalkydri-cfg/internal/logging"
	"github.com/chalkydri/chalkydri-cfg/internal/ui"
)

// Configuration command flags
var (
	scanTimeout  time.Duration
	outputFormat string
	assumeYes    bool
	persistAfter bool

	setTeam        uint
	setClearTeam   bool
	setName        string
	setAprilTags   bool
	setGamma       float64
	setClearGamma  bool
	setML          bool
	setCamera      string
	setMode        string
	setDisplayName string
)

func init() {
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(persistCmd)
}

// scanCmd discovers devices on the network
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for Chalkydri devices on the network",
	Long: `Scan for Chalkydri devices using mDNS/DNS-SD discovery.

Devices are recognized by the API port (6942) or by "chalkydri" in their
hostname. Every device found is remembered in the settings file.`,
	Example: `  # Scan for 5 seconds (default)
  chalkydri-cfg scan

  # Longer scan for busy competition networks
  chalkydri-cfg scan --timeout 15s`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().DurationVar(&scanTimeout, "scan-timeout", discovery.DefaultScanTimeout, "How long to listen for announcements")
}

func runScan(cmd *cobra.Command, args []string) error {
	p := ui.NewPrinter(cmd.OutOrStdout())
	p.PrintHeader("Device Discovery", "scan", map[string]string{
		"Timeout": scanTimeout.String(),
		"Service": discovery.ServiceType,
	})

	scanner := discovery.NewScanner()
	scanner.Timeout = scanTimeout

	devices, err := scanner.Scan(cmd.Context())
	if err != nil {
		p.PrintError("Scan failed", err, []string{
			"Check that multicast is allowed on this network",
			"Use --url to address the device directly",
		})
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(devices) == 0 {
		p.PrintWarning("No devices found", map[string]string{
			"Hint": "Use --url or 'chalkydri-cfg profile use dev' to connect by address",
		})
		return nil
	}

	p.Printf("Found %d device(s):\n\n", len(devices))
	for i, device := range devices {
		p.Printf("%d. %s\n", i+1, device.Name)
		p.Printf("   URL:      %s\n", device.BaseURL())
		p.Printf("   Hostname: %s\n", device.Hostname)
		if v := device.GetMetadata("version"); v != "" {
			p.Printf("   Version:  %s\n", v)
		}
		p.Newline()
	}

	if err := rememberDevices(devices); err != nil {
		logging.Warn("Failed to record discovered devices: " + err.Error())
	}

	p.Println("Use 'chalkydri-cfg show --url <url>' to view device configuration")
	p.Println("Use 'chalkydri-cfg calibrate' for interactive calibration")
	return nil
}

// rememberDevices records devices in the settings file.
func rememberDevices(devices []*discovery.Device) error {
	settings, path, err := loadSettings()
	if err != nil {
		return err
	}
	for _, device := range devices {
		settings.RecordDevice(device.Name, device.BaseURL(), device.GetMetadata("version"))
	}
	return settings.Save(path)
}

// showCmd displays current device configuration
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show device configuration",
	Long: `Display the current configuration of a Chalkydri device: team number,
device name, subsystems and camera modes.`,
	Example: `  # Show config of the active profile's device
  chalkydri-cfg show

  # Compact output for a device on the bench
  chalkydri-cfg show --profile dev --format compact

  # JSON output for scripting
  chalkydri-cfg show --format json`,
	RunE: runShow,
}

func init() {
	showCmd.Flags().StringVar(&outputFormat, "format", "detailed", "Output format (detailed, compact, json)")
}

func runShow(cmd *cobra.Command, args []string) error {
	env, err := newDeviceEnv()
	if err != nil {
		return err
	}
	p := ui.NewPrinter(cmd.OutOrStdout())

	ctx, cancel := commandContext(env)
	defer cancel()

	store := deviceconfig.NewStore(env.client)
	config, err := store.Load(ctx)
	if err != nil {
		return deviceFailure(p, "Failed to get configuration", err)
	}

	switch outputFormat {
	case "compact":
		p.Println(config.FormatCompact())
	case "json":
		data, err := json.MarshalIndent(config, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		p.Println(string(data))
	case "detailed":
		fallthrough
	default:
		p.Println(config.FormatDetailed())
	}

	return nil
}

// setCmd edits the device configuration
var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Change device configuration",
	Long: `Change one or more configuration values on the device.

The current configuration is loaded, the requested edits are applied and
validated locally, and the result is saved. The device's answer is then
reloaded and compared; if it disagrees the previous configuration is
restored.

Changes that can take the device off the network (hostname, team number)
or stop all processing ask for confirmation unless --yes is given.`,
	Example: `  # Provision for team 4201
  chalkydri-cfg set --team 4201

  # Enable AprilTags with gamma correction
  chalkydri-cfg set --apriltags=true --gamma 1.4

  # Select a camera mode and write the result to the device's disk
  chalkydri-cfg set --camera cam0 --mode 1280x720@60 --persist`,
	Args: cobra.NoArgs,
	RunE: runSet,
}

func init() {
	f := setCmd.Flags()
	f.UintVar(&setTeam, "team", 0, "Team number")
	f.BoolVar(&setClearTeam, "clear-team", false, "Unprovision the device")
	f.StringVar(&setName, "name", "", "Device name (hostname)")
	f.BoolVar(&setAprilTags, "apriltags", false, "Enable the AprilTag subsystem")
	f.Float64Var(&setGamma, "gamma", 0, "AprilTag gamma correction")
	f.BoolVar(&setClearGamma, "clear-gamma", false, "Revert gamma to the device default")
	f.BoolVar(&setML, "ml", false, "Enable the ML subsystem")
	f.StringVar(&setCamera, "camera", "", "Camera to edit (device identifier)")
	f.StringVar(&setMode, "mode", "", `Camera mode WIDTHxHEIGHT@RATE, or "default"`)
	f.StringVar(&setDisplayName, "display-name", "", "Camera display name")
	f.BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")
	f.BoolVar(&persistAfter, "persist", false, "Write the saved configuration to the device's disk")
}

// applyEdits translates the changed flags into builder edits.
func applyEdits(cmd *cobra.Command, b *deviceconfig.ConfigBuilder) error {
	f := cmd.Flags()

	switch {
	case setClearTeam:
		b.ClearTeamNumber()
	case f.Changed("team"):
		b.SetTeamNumber(setTeam)
	}
	if f.Changed("name") {
		b.SetDeviceName(setName)
	}
	if f.Changed("apriltags") {
		b.EnableAprilTags(setAprilTags)
	}
	switch {
	case setClearGamma:
		b.ClearGamma()
	case f.Changed("gamma"):
		b.SetGamma(setGamma)
	}
	if f.Changed("ml") {
		b.EnableML(setML)
	}

	if (setMode != "" || setDisplayName != "") && setCamera == "" {
		return fmt.Errorf("--mode and --display-name require --camera")
	}
	if setMode == "default" {
		b.SetCameraDefault(setCamera)
	} else if setMode != "" {
		mode, err := deviceconfig.ParseCameraSettings(setMode)
		if err != nil {
			return err
		}
		b.SetCameraMode(setCamera, mode)
	}
	if setDisplayName != "" {
		b.SetDisplayName(setCamera, setDisplayName)
	}

	return nil
}

func runSet(cmd *cobra.Command, args []string) error {
	env, err := newDeviceEnv()
	if err != nil {
		return err
	}
	p := ui.NewPrinter(cmd.OutOrStdout())

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*env.client.Timeout())
	defer cancel()

	store := deviceconfig.NewStore(env.client)
	current, err := store.Load(ctx)
	if err != nil {
		return deviceFailure(p, "Failed to get configuration", err)
	}

	builder := deviceconfig.NewConfigBuilder(current)
	if err := applyEdits(cmd, builder); err != nil {
		return err
	}
	if !builder.HasChanges() {
		p.Println("No changes requested. See 'chalkydri-cfg set --help'.")
		return nil
	}

	next, err := builder.Build()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	p.PrintHeader("Update Configuration", "set", map[string]string{
		"Device":  env.baseURL,
		"Changes": strings.Join(builder.Changes(), ", "),
	})
	p.Println(deviceconfig.FormatDiff(current, next))

	if warnings := deviceconfig.DestructiveWarnings(current, next); len(warnings) > 0 && !assumeYes {
		if !ui.ConfigChangeConfirmation(os.Stdin, p.Writer(), warnings) {
			return nil
		}
	}

	rollback := deviceconfig.NewRollbackManager(store)
	result := rollback.SafeSave(ctx, next, strings.Join(builder.Changes(), "; "))
	if !result.Success {
		return deviceFailure(p, "Configuration not applied", result.Error)
	}

	saved := result.SaveResult.Saved
	details := map[string]string{"Configuration": saved.Summary()}
	if mismatches := deviceconfig.Diff(next, saved); len(mismatches) > 0 {
		details["Normalized by device"] = strings.Join(mismatches, "; ")
	}

	if persistAfter {
		if _, err := store.Persist(ctx, saved); err != nil {
			return deviceFailure(p, "Saved but not persisted", err)
		}
		details["Persisted"] = "yes"
	}

	p.PrintSuccess("Configuration updated", details)
	return nil
}

// persistCmd writes the running configuration to the device's disk
var persistCmd = &cobra.Command{
	Use:   "persist",
	Short: "Write the running configuration to the device's disk",
	Long: `Ask the device to store its current configuration so it survives a
restart. Changes made with 'set' are live immediately but are only kept
across restarts after they are persisted.`,
	Args: cobra.NoArgs,
	RunE: runPersist,
}

func runPersist(cmd *cobra.Command, args []string) error {
	env, err := newDeviceEnv()
	if err != nil {
		return err
	}
	p := ui.NewPrinter(cmd.OutOrStdout())

	ctx, cancel := commandContext(env)
	defer cancel()

	store := deviceconfig.NewStore(env.client)
	current, err := store.Load(ctx)
	if err != nil {
		return deviceFailure(p, "Failed to get configuration", err)
	}

	persisted, err := store.Persist(ctx, current)
	if err != nil {
		return deviceFailure(p, "Persist failed", err)
	}

	p.PrintSuccess("Configuration persisted", map[string]string{
		"Device":        env.baseURL,
		"Configuration": persisted.Summary(),
	})
	return nil
}
