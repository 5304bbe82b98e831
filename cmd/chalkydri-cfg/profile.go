package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/chalkydri/chalkydri-cfg/internal/ui"
)

var profileDescription string

func init() {
	profileAddCmd.Flags().StringVar(&profileDescription, "description", "", "Free-form description")

	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileUseCmd)
	profileCmd.AddCommand(profileAddCmd)
	rootCmd.AddCommand(profileCmd)
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage device address profiles",
	Long: `Profiles name the base address of a device API. Two are built in:

  dev       http://10.45.33.10:6942    (device on the bench network)
  deployed  http://chalkydri.local:6942 (device on the robot)

The active profile is used when neither --url nor --profile is given.
CHALKYDRI_ENV selects a profile for one invocation.`,
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List profiles and remembered devices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, path, err := loadSettings()
		if err != nil {
			return err
		}
		p := ui.NewPrinter(cmd.OutOrStdout())

		p.Printf("Settings: %s\n\n", path)
		for _, name := range settings.ProfileNames() {
			marker := " "
			if name == settings.ActiveProfile {
				marker = "*"
			}
			profile := settings.Profile(name)
			p.Printf("%s %-10s %s", marker, name, profile.BaseURL)
			if profile.Description != "" {
				p.Printf("  (%s)", profile.Description)
			}
			p.Newline()
		}

		if len(settings.Devices) > 0 {
			names := make([]string, 0, len(settings.Devices))
			for name := range settings.Devices {
				names = append(names, name)
			}
			sort.Strings(names)

			p.Println("\nDevices seen:")
			for _, name := range names {
				record := settings.Devices[name]
				p.Printf("  %-16s %s", name, record.BaseURL)
				if record.Version != "" {
					p.Printf("  v%s", record.Version)
				}
				if !record.LastSeen.IsZero() {
					p.Printf("  %s", record.LastSeen.Format("2006-01-02 15:04"))
				}
				p.Newline()
			}
		}
		return nil
	},
}

var profileUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Make a profile active",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, path, err := loadSettings()
		if err != nil {
			return err
		}
		if err := settings.UseProfile(args[0]); err != nil {
			return err
		}
		if err := settings.Save(path); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Active profile: %s\n", args[0])
		return nil
	},
}

var profileAddCmd = &cobra.Command{
	Use:   "add <name> <base-url>",
	Short: "Add or replace a profile",
	Example: `  # A second device on the bench
  chalkydri-cfg profile add bench2 http://10.45.33.11:6942 --description "spare coprocessor"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, path, err := loadSettings()
		if err != nil {
			return err
		}
		if err := settings.SetProfile(args[0], args[1], profileDescription); err != nil {
			return err
		}
		if err := settings.Save(path); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Profile %s: %s\n", args[0], args[1])
		return nil
	},
}
