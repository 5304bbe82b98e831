package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chalkydri/chalkydri-cfg/internal/calibration"
	"github.com/chalkydri/chalkydri-cfg/internal/deviceconfig"
	"github.com/chalkydri/chalkydri-cfg/internal/discovery"
	"github.com/chalkydri/chalkydri-cfg/internal/monitor"
	"github.com/chalkydri/chalkydri-cfg/internal/transport"
	"github.com/chalkydri/chalkydri-cfg/internal/ui"
	"github.com/chalkydri/chalkydri-cfg/internal/wizard/tui"
)

var calibrateCamera string

func init() {
	calibrateCmd.PersistentFlags().StringVar(&calibrateCamera, "camera", "", "Camera to calibrate (device identifier; empty = device default)")
	rootCmd.Flags().StringVar(&calibrateCamera, "camera", "", "Camera to calibrate in the wizard")

	calibrateCmd.AddCommand(calibrateStatusCmd)
	calibrateCmd.AddCommand(calibrateStepCmd)
	calibrateCmd.AddCommand(calibrateIntrinsicsCmd)
	rootCmd.AddCommand(calibrateCmd)
}

// calibrateCmd launches the interactive calibration wizard
var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Calibrate a camera",
	Long: `Calibrate a camera on the device.

Without a subcommand the interactive wizard launches: it shows live
connectivity, the device configuration and calibration progress, and
captures a step each time you press s. The device decides how many steps a
run has and when it is complete.

Hold the calibration board in a new pose before each step.`,
	Example: `  # Interactive wizard for the active profile's device
  chalkydri-cfg calibrate

  # Scriptable steps
  chalkydri-cfg calibrate status
  chalkydri-cfg calibrate step --camera cam0`,
	Args: cobra.NoArgs,
	RunE: runCalibrateWizard,
}

// runCalibrateWizard starts the wizard. An explicit --url or profile opens
// the device directly; otherwise the wizard starts on the discovery screen.
func runCalibrateWizard(cmd *cobra.Command, args []string) error {
	if !ui.IsTerminal() {
		return fmt.Errorf("the calibration wizard needs an interactive terminal; use 'calibrate status' and 'calibrate step' instead")
	}

	settings, _, err := loadSettings()
	if err != nil {
		return err
	}

	baseURL := ""
	if viper.GetString(keyURL) != "" || viper.GetString(keyProfile) != "" {
		if baseURL, err = resolveBaseURL(viper.GetViper(), settings); err != nil {
			return err
		}
	}
	defaultURL, _ := settings.BaseURL("")

	timeout := resolveTimeout(viper.GetViper(), settings)
	interval := heartbeatInterval(settings)

	connect := func(url string) *tui.Session {
		return openSession(cmd.Context(), url, timeout, interval)
	}

	app := tui.NewAppModel(connect, discovery.QuickScan, baseURL)
	app.Discovery.DefaultURL = defaultURL

	ctx, cancel := signalContext()
	defer cancel()

	if err := tui.Run(ctx, app); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("wizard error: %w", err)
	}
	return nil
}

// openSession wires a transport client, a calibration controller, a config
// store and a running heartbeat monitor for one device.
func openSession(parent context.Context, baseURL string, timeout, interval time.Duration) *tui.Session {
	if parent == nil {
		parent = context.Background()
	}

	client := transport.NewClientWithURL(baseURL)
	client.SetTimeout(timeout)

	m := monitor.New(client, monitor.Options{Interval: interval, Device: baseURL})
	states, unsubscribe := m.Subscribe()
	handle := m.Start(parent)
	store := deviceconfig.NewStore(client)

	return &tui.Session{
		BaseURL:    baseURL,
		Calibrator: calibration.NewController(client, calibrateCamera),
		Config:     store,
		States:     states,
		Close: func() {
			handle.Stop()
			unsubscribe()
			store.Close()
		},
	}
}

var calibrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show calibration progress",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newDeviceEnv()
		if err != nil {
			return err
		}
		p := ui.NewPrinter(cmd.OutOrStdout())

		ctx, cancel := commandContext(env)
		defer cancel()

		controller := calibration.NewController(env.client, calibrateCamera)
		status, err := controller.Status(ctx)
		if err != nil {
			return deviceFailure(p, "Failed to get calibration status", err)
		}

		p.PrintProgress(ui.NewCalibrationProgress(status))
		return nil
	},
}

var calibrateStepCmd = &cobra.Command{
	Use:   "step",
	Short: "Capture one calibration step",
	Long: `Query the calibration status and, unless the run has already completed
or failed, capture one step.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newDeviceEnv()
		if err != nil {
			return err
		}
		p := ui.NewPrinter(cmd.OutOrStdout())

		ctx, cancel := commandContext(env)
		defer cancel()

		controller := calibration.NewController(env.client, calibrateCamera)
		if _, err := controller.Status(ctx); err != nil {
			return deviceFailure(p, "Failed to get calibration status", err)
		}

		status, err := controller.Step(ctx)
		if errors.Is(err, calibration.ErrInvalidState) {
			p.PrintWarning("Calibration not advanced", map[string]string{
				"State": status.State.String(),
				"Steps": fmt.Sprintf("%d / %d", status.CurrentStep, status.TotalSteps),
			})
			return err
		}
		if err != nil {
			return deviceFailure(p, "Calibration step failed", err)
		}

		p.PrintProgress(ui.NewCalibrationProgress(status))
		if status.State == calibration.Completed {
			p.Println("Calibration complete. Run 'chalkydri-cfg calibrate intrinsics --camera <name>' next.")
		}
		return nil
	},
}

var calibrateIntrinsicsCmd = &cobra.Command{
	Use:   "intrinsics",
	Short: "Compute camera intrinsics from the captured steps",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newDeviceEnv()
		if err != nil {
			return err
		}
		p := ui.NewPrinter(cmd.OutOrStdout())

		ctx, cancel := commandContext(env)
		defer cancel()

		controller := calibration.NewController(env.client, calibrateCamera)
		if _, err := controller.Status(ctx); err != nil {
			return deviceFailure(p, "Failed to get calibration status", err)
		}
		if err := controller.ComputeIntrinsics(ctx); err != nil {
			return deviceFailure(p, "Failed to compute intrinsics", err)
		}

		p.PrintSuccess("Intrinsics computed", map[string]string{
			"Camera": controller.Camera(),
			"Device": env.baseURL,
		})
		return nil
	},
}
