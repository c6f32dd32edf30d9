// Package camera holds the wire types for camera registration on the device.
package camera

// Camera is one registered video source on the vision device.
type Camera struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Transport  string `json:"transport"` // usb, csi or rtsp
	Path       string `json:"path,omitempty"`
	Calibrated bool   `json:"calibrated"`
}

// AddRequest registers a new camera.
type AddRequest struct {
	Name      string `json:"name"`
	Transport string `json:"transport"`
	Path      string `json:"path,omitempty"`
}
