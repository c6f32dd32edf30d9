// Package pattern defines the calibration target configuration shared across
// the session controller, settings persistence, device client and console. It
// contains:
//
//   - Type: the supported calibration target kinds (chessboard, charuco)
//   - Config: a tagged variant (Chessboard | Charuco) describing one target
//   - The dimension validator that keeps a requested board printable on a
//     fixed 210x297mm page
//
// Keeping these types in one package avoids duplicate definitions and keeps
// JSON contracts consistent between the CLI, the console API and the device.
package pattern
