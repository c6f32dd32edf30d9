// Package session implements the calibration session workflow: the
// Setup -> Capture -> Results state machine that takes a camera from a chosen
// calibration pattern through frame capture to computed and saved intrinsics.
//
// The numerical solve itself runs on the vision device; this package only
// drives it through the Remote contract and owns the local invariants: legal
// transitions, the minimum-frame gate, marker-fits-in-square validation,
// per-operation in-flight guards and the single current status message.
package session
