package session

import (
	"github.com/google/uuid"

	"github.com/krystian-booker/ArcSight-sub000/pkg/pattern"
)

// Step defines the steps of the calibration workflow.
type Step string

const (
	StepSetup   Step = "Setup"
	StepCapture Step = "Capture"
	StepResults Step = "Results"
)

// Result is the intrinsics snapshot returned by the device solver. It is
// produced only by a successful calculate call and never mutated afterwards.
type Result struct {
	CameraMatrix      [][]float64 `json:"cameraMatrix"`
	DistCoeffs        []float64   `json:"distCoeffs"`
	ReprojectionError float64     `json:"reprojectionError"`
}

// CaptureOutcome is the device's answer to a capture request. Detected=false
// means the board was not found in the frame; that is a normal outcome, not a
// transport failure, and the capture count does not advance.
type CaptureOutcome struct {
	Detected     bool
	CaptureCount int
	Message      string
}

// Remote is the device-side collaborator the controller drives. The only
// implementation outside tests is the HTTP client in pkg/client.
type Remote interface {
	StartCalibration(cameraID string, cfg pattern.Config) error
	CaptureFrame(cameraID string) (CaptureOutcome, error)
	Calculate(cameraID string) (*Result, error)
	SaveResult(cameraID string, result *Result) error
}

// ConfigStore persists the last-used pattern configuration between runs.
// Implemented by pkg/settings; a nil store disables persistence.
type ConfigStore interface {
	Load() pattern.Config
	Save(cfg pattern.Config)
}

// Severity classifies status messages for display.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
	// SeverityBug marks operations invoked in a step that does not permit
	// them. Users should never see these unless the UI is broken.
	SeverityBug Severity = "bug"
)

// StatusMessage is the single current user-facing message. Each new message
// replaces the previous one; there is no queue.
type StatusMessage struct {
	Text     string   `json:"text"`
	Severity Severity `json:"severity"`
}

// state is one calibration session. The controller replaces the whole value
// on restart so that responses from a previous session can be recognized by
// id and discarded.
type state struct {
	id             uuid.UUID
	cameraID       string
	config         pattern.Config
	step           Step
	capturedFrames int
	lastResult     *Result
}

// ConfigView is the flattened wire form of a pattern.Config, with the
// recomputed printable bounds the UI needs for its inputs.
type ConfigView struct {
	PatternType        pattern.Type       `json:"patternType"`
	InnerCornersWidth  int                `json:"innerCornersWidth"`
	InnerCornersHeight int                `json:"innerCornersHeight"`
	SquareSizeMM       float64            `json:"squareSizeMm"`
	MarkerSizeMM       float64            `json:"markerSizeMm,omitempty"`
	MarkerDictionary   pattern.Dictionary `json:"markerDictionary,omitempty"`
	MaxWidth           int                `json:"maxWidth"`
	MaxHeight          int                `json:"maxHeight"`
}

// ViewOf flattens a config for JSON responses.
func ViewOf(cfg pattern.Config) ConfigView {
	w, h := cfg.InnerCorners()
	v := ConfigView{
		PatternType:        cfg.Type(),
		InnerCornersWidth:  w,
		InnerCornersHeight: h,
		SquareSizeMM:       cfg.SquareSizeMM(),
		MaxWidth:           pattern.MaxWidth(cfg.SquareSizeMM()),
		MaxHeight:          pattern.MaxHeight(cfg.SquareSizeMM()),
	}
	if ch, ok := cfg.(pattern.Charuco); ok {
		v.MarkerSizeMM = ch.MarkerSize
		v.MarkerDictionary = ch.Dictionary
	}
	return v
}

// Snapshot is a synthesized view model of the controller, exposed over the
// console HTTP API and used by the CLI wizard.
type Snapshot struct {
	SessionID      string         `json:"sessionId"`
	CameraID       string         `json:"cameraId,omitempty"`
	Step           Step           `json:"step"`
	CapturedFrames int            `json:"capturedFrames"`
	MinFrames      int            `json:"minFrames"`
	CanCalculate   bool           `json:"canCalculate"`
	CanSave        bool           `json:"canSave"`
	Pattern        ConfigView     `json:"pattern"`
	LastResult     *Result        `json:"lastResult,omitempty"`
	Status         *StatusMessage `json:"status,omitempty"`
}
