// Package ui provides terminal output components for the chalkydri-cfg CLI.
//
// These components follow a "render once and exit" pattern: commands print a
// header, then a result box, and exit. The interactive calibration screen lives
// in package tui.
//
//   - Header: command banner with the operation name and parameters
//   - Progress: calibration progress bar with a step list
//   - Result: success, failure and warning boxes
//   - ConfirmDangerousOperation: typed confirmation for reboots, shutdowns
//     and disruptive configuration changes
//
// Logging is controlled separately via CHALKYDRI_LOG_LEVEL. When it is unset
// zap is silent, so only the curated output is shown.
package ui
