// Package config manages the chalkydri-cfg client settings file.
//
// The settings file holds named base-address profiles for reaching a device,
// the active profile, heartbeat preferences and the devices seen recently.
// It never holds the device configuration: the device is the source of truth
// for that.
//
// # Configuration File Location
//
// The settings file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/chalkydri/config.yaml or $HOME/.config/chalkydri/config.yaml
//   - macOS: $HOME/.config/chalkydri/config.yaml
//   - Windows: %LOCALAPPDATA%\chalkydri\config.yaml
//
// # Usage Example
//
//	settings, path, err := config.LoadDefault()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := settings.UseProfile(config.ProfileDeployed); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Save changes atomically
//	if err := settings.Save(path); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// Settings values are not safe for concurrent mutation. File writes are
// serialized by a package mutex and replace the file atomically.
package config
