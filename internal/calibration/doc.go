// Package calibration drives the Chalkydri device's multi-step camera calibration.
//
// Each Step asks the device to capture one more calibration frame; the device
// answers with its progress counter, which is authoritative. A run moves
// Idle -> InProgress -> Completed (or Failed):
//
//	ctrl := calibration.NewController(client, "cam0")
//	status, err := ctrl.Status(ctx)
//	for err == nil && !status.State.Terminal() {
//	    status, err = ctrl.Step(ctx)
//	}
package calibration
