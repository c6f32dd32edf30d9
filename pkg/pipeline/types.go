// Package pipeline holds the wire types for detection pipeline CRUD on the
// device.
package pipeline

// Pipeline is one configured detection pipeline.
type Pipeline struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	CameraID string `json:"cameraId"`
	Kind     string `json:"kind"` // apriltag, aruco or object_detection
	Enabled  bool   `json:"enabled"`
}

// CreateRequest configures a new pipeline.
type CreateRequest struct {
	Name     string `json:"name"`
	CameraID string `json:"cameraId"`
	Kind     string `json:"kind"`
}
