// Package deviceconfig mirrors the configuration of a Chalkydri vision device.
//
// The device is authoritative. A Store holds the last configuration the device
// reported and only replaces it with what the device returns from a load or a
// save, so the local copy can never drift from a value the device accepted.
//
// # Configuration
//
// A Config covers provisioning (team number, device name), the attached
// cameras and the processing subsystems:
//   - Cameras: each camera reports the modes it can run (possible_settings);
//     the active mode (settings) is either nil (device default) or one of them
//   - CAprilTags: AprilTag detection with optional gamma correction
//   - ML: inference subsystem
//
// # Usage Example
//
//	client := transport.NewClientWithURL("http://chalkydri.local:6942")
//	store := deviceconfig.NewStore(client)
//
//	current, err := store.Load(ctx)
//	if err != nil {
//	    return err
//	}
//
//	next, err := deviceconfig.NewConfigBuilder(current).
//	    SetTeamNumber(4201).
//	    Build()
//	if err != nil {
//	    return err
//	}
//
//	// The device may normalize the submitted configuration; use the return value.
//	saved, err := store.Save(ctx, next)
//
// # Concurrency
//
// At most one Load, Save or Persist runs per Store. A call made while another
// is outstanding returns ErrBusy immediately without contacting the device.
// Cached may be called at any time and returns a private copy.
//
// # Safe Saves with Rollback
//
// RollbackManager snapshots the device configuration before a save, reloads
// afterwards and writes the snapshot back if the device does not report what
// it accepted. Nothing is retried automatically.
package deviceconfig
