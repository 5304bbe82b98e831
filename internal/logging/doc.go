// Package logging provides structured logging for chalkydri-cfg.
//
// This package wraps a global zap logger with convenience functions. Output is
// silent unless a level is passed to Initialize or CHALKYDRI_LOG_LEVEL is set, so
// CLI output is never interleaved with log lines by default.
//
// # Log Levels
//
//   - Debug: every device request (method, path, status, request id), steady heartbeats
//   - Info: connectivity restored, calibration steps, configuration saves
//   - Warn: device became unreachable, rejected operations
//   - Error: unexpected failures in long-running commands
//
// # Usage
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
//	logging.Info("Configuration saved",
//	    zap.String("device", "http://10.45.33.10:6942"),
//	    zap.Int("cameras", 2),
//	)
//
// Logs go to stderr in console format.
package logging
