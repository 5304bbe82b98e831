package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/chalkydri/chalkydri-cfg/internal/config"
	"github.com/chalkydri/chalkydri-cfg/internal/logging"
	"github.com/chalkydri/chalkydri-cfg/internal/transport"
	"github.com/chalkydri/chalkydri-cfg/internal/ui"
	"github.com/chalkydri/chalkydri-cfg/internal/wizard/tui"
)

// Viper keys. Each is also read from CHALKYDRI_<KEY> with dashes as underscores.
const (
	keyURL      = "url"
	keyProfile  = "profile"
	keyTimeout  = "timeout"
	keyLogLevel = "log-level"
	keyConfig   = "config"
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String(keyURL, "", "Device base URL (overrides the profile)")
	flags.String(keyProfile, "", "Settings profile to use (dev, deployed, ...)")
	flags.Duration(keyTimeout, 0, "Request timeout (default from settings, 2s)")
	flags.String(keyLogLevel, "", "Log level (debug, info, warn, error; silent if unset)")
	flags.String(keyConfig, "", "Settings file (default is the user config dir)")

	for _, key := range []string{keyURL, keyProfile, keyTimeout, keyLogLevel, keyConfig} {
		_ = viper.BindPFlag(key, flags.Lookup(key))
	}
	bindEnv(viper.GetViper())
}

// bindEnv maps CHALKYDRI_* variables onto v. CHALKYDRI_ENV and
// CHALKYDRI_BASE_URL are accepted as aliases for the profile and url keys.
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("CHALKYDRI")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv(keyProfile, "CHALKYDRI_PROFILE", "CHALKYDRI_ENV")
	_ = v.BindEnv(keyURL, "CHALKYDRI_URL", "CHALKYDRI_BASE_URL")
}

func setup(cmd *cobra.Command, args []string) error {
	if err := logging.Initialize(viper.GetString(keyLogLevel)); err != nil {
		return err
	}
	return nil
}

// settingsPath returns the settings file in use.
func settingsPath() (string, error) {
	if path := viper.GetString(keyConfig); path != "" {
		return path, nil
	}
	return config.GetConfigPath()
}

func loadSettings() (*config.Settings, string, error) {
	path, err := settingsPath()
	if err != nil {
		return nil, "", err
	}
	settings, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return settings, path, nil
}

// resolveBaseURL picks the device address: explicit url first, then the
// named or active profile.
func resolveBaseURL(v *viper.Viper, settings *config.Settings) (string, error) {
	if raw := v.GetString(keyURL); raw != "" {
		return tui.NormalizeBaseURL(raw)
	}
	return settings.BaseURL(v.GetString(keyProfile))
}

// resolveTimeout returns the request timeout: flag or env first, then settings.
func resolveTimeout(v *viper.Viper, settings *config.Settings) time.Duration {
	if timeout := v.GetDuration(keyTimeout); timeout > 0 {
		return timeout
	}
	if settings.Heartbeat != nil && settings.Heartbeat.RequestTimeout > 0 {
		return settings.Heartbeat.RequestTimeout
	}
	return transport.DefaultTimeout
}

// deviceEnv is what a device command needs: settings, address and a client.
type deviceEnv struct {
	settings *config.Settings
	path     string
	baseURL  string
	client   *transport.Client
}

func newDeviceEnv() (*deviceEnv, error) {
	settings, path, err := loadSettings()
	if err != nil {
		return nil, err
	}

	baseURL, err := resolveBaseURL(viper.GetViper(), settings)
	if err != nil {
		return nil, err
	}

	client := transport.NewClientWithURL(baseURL)
	client.SetTimeout(resolveTimeout(viper.GetViper(), settings))

	logging.Debug("Using device",
		zap.String("base_url", baseURL),
		zap.Duration("timeout", client.Timeout()),
		zap.String("settings", path))

	return &deviceEnv{
		settings: settings,
		path:     path,
		baseURL:  baseURL,
		client:   client,
	}, nil
}

// heartbeatInterval returns the configured monitor interval.
func heartbeatInterval(settings *config.Settings) time.Duration {
	if settings.Heartbeat != nil && settings.Heartbeat.Interval > 0 {
		return settings.Heartbeat.Interval
	}
	return config.DefaultHeartbeatInterval
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// commandContext bounds a one-shot device command.
func commandContext(e *deviceEnv) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 4*e.client.Timeout())
}

// deviceFailure prints a failure box for err and returns it wrapped for cobra.
func deviceFailure(p *ui.Printer, title string, err error) error {
	p.PrintDeviceError(title, err)
	return fmt.Errorf("%s: %w", strings.ToLower(title), err)
}
