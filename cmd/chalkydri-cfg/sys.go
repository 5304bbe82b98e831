package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chalkydri/chalkydri-cfg/internal/devicectl"
	"github.com/chalkydri/chalkydri-cfg/internal/monitor"
	"github.com/chalkydri/chalkydri-cfg/internal/ui"
)

func init() {
	sysCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")

	sysCmd.AddCommand(sysInfoCmd)
	for _, name := range []string{"restart", "reboot", "shutdown"} {
		sysCmd.AddCommand(newActionCmd(name))
	}
	rootCmd.AddCommand(sysCmd)
}

var sysCmd = &cobra.Command{
	Use:   "sys",
	Short: "Device system information and power control",
}

var sysInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show device version, uptime and resource usage",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newDeviceEnv()
		if err != nil {
			return err
		}
		p := ui.NewPrinter(cmd.OutOrStdout())

		ctx, cancel := commandContext(env)
		defer cancel()

		ctl := devicectl.New(env.client)
		sys, err := ctl.SystemInfo(ctx)
		if err != nil {
			return deviceFailure(p, "Failed to get system info", err)
		}

		// The heartbeat endpoint carries the version and CPU load.
		state := monitor.New(env.client, monitor.Options{Device: env.baseURL}).Tick(ctx)

		details := map[string]string{
			"Device":       env.baseURL,
			"Uptime":       sys.UptimeDuration().String(),
			"Memory usage": fmt.Sprintf("%d%%", sys.MemUsage),
		}
		if state.Info != nil {
			details["Version"] = state.Info.Version
			details["CPU usage"] = fmt.Sprintf("%d%%", state.Info.CPUUsage)
		}

		p.PrintSuccess("Device information", details)
		return nil
	},
}

// newActionCmd builds the command for one power or process action.
func newActionCmd(name string) *cobra.Command {
	action, err := devicectl.ParseAction(name)
	if err != nil {
		panic(err)
	}

	return &cobra.Command{
		Use:   name,
		Short: fmt.Sprintf("Ask the device to %s", name),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newDeviceEnv()
			if err != nil {
				return err
			}
			p := ui.NewPrinter(cmd.OutOrStdout())

			if action.Disruptive() && !assumeYes {
				if !ui.DeviceActionConfirmation(os.Stdin, p.Writer(), action.String()) {
					return nil
				}
			}

			ctx, cancel := commandContext(env)
			defer cancel()

			if err := devicectl.New(env.client).Do(ctx, action); err != nil {
				return deviceFailure(p, fmt.Sprintf("Failed to %s device", action), err)
			}

			p.PrintSuccess("Request sent", map[string]string{
				"Device": env.baseURL,
				"Action": action.String(),
			})
			return nil
		},
	}
}
