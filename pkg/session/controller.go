package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/krystian-booker/ArcSight-sub000/pkg/events"
	"github.com/krystian-booker/ArcSight-sub000/pkg/pattern"
)

// MinFrames is the number of accepted captures required before the intrinsics
// solve may run.
const MinFrames = 5

// Controller owns one calibration session at a time and drives the device
// through the Setup -> Capture -> Results workflow. All methods are safe for
// concurrent use; remote calls run without the lock held, and responses that
// arrive after a restart are matched against the session id and dropped.
type Controller struct {
	mu     sync.Mutex
	remote Remote
	store  ConfigStore
	hub    *events.EventHub

	sess   *state
	status *StatusMessage

	startInFlight     bool
	captureInFlight   bool
	calculateInFlight bool
	saveInFlight      bool
}

// NewController builds a controller with the last persisted pattern config,
// falling back to the default chessboard when the store has nothing usable.
// store and hub may be nil.
func NewController(remote Remote, store ConfigStore, hub *events.EventHub) *Controller {
	cfg := pattern.Default()
	if store != nil {
		if loaded := store.Load(); loaded != nil {
			cfg = pattern.Clamp(loaded)
		}
	}
	return &Controller{
		remote: remote,
		store:  store,
		hub:    hub,
		sess:   newState(cfg),
	}
}

func newState(cfg pattern.Config) *state {
	return &state{
		id:     uuid.New(),
		step:   StepSetup,
		config: cfg,
	}
}

// Pattern returns the session's current pattern configuration.
func (c *Controller) Pattern() pattern.Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess.config
}

// SetPatternType switches the target kind, carrying shared fields over. A
// fresh charuco config gets the default dictionary and a marker sized to fit
// its square. Only legal in Setup.
func (c *Controller) SetPatternType(t pattern.Type) (pattern.Config, error) {
	return c.editConfig("set pattern type", func(cfg pattern.Config) pattern.Config {
		if cfg.Type() == t {
			return cfg
		}
		w, h := cfg.InnerCorners()
		square := cfg.SquareSizeMM()
		switch t {
		case pattern.TypeCharuco:
			return pattern.Charuco{
				InnerCornersWidth:  w,
				InnerCornersHeight: h,
				SquareSize:         square,
				MarkerSize:         square * 0.75,
				Dictionary:         pattern.DefaultDictionary,
			}
		default:
			return pattern.Chessboard{
				InnerCornersWidth:  w,
				InnerCornersHeight: h,
				SquareSize:         square,
			}
		}
	})
}

// SetSquareSize clamps the square size into range and re-clamps both corner
// counts against the recomputed printable bounds. Stored values that no
// longer fit shrink; values still within bounds are kept. Only legal in Setup.
func (c *Controller) SetSquareSize(mm float64) (pattern.Config, error) {
	return c.editConfig("set square size", func(cfg pattern.Config) pattern.Config {
		mm = pattern.ClampSquareSize(mm)
		switch cc := cfg.(type) {
		case pattern.Chessboard:
			cc.SquareSize = mm
			return pattern.Clamp(cc)
		case pattern.Charuco:
			cc.SquareSize = mm
			if cc.MarkerSize >= mm {
				cc.MarkerSize = mm * 0.75
			}
			return pattern.Clamp(cc)
		default:
			return cfg
		}
	})
}

// SetInnerCorners clamps both corner counts into the printable bounds for the
// current square size. Only legal in Setup.
func (c *Controller) SetInnerCorners(width, height int) (pattern.Config, error) {
	return c.editConfig("set inner corners", func(cfg pattern.Config) pattern.Config {
		width = pattern.ClampDimension(width, pattern.MaxWidth(cfg.SquareSizeMM()))
		height = pattern.ClampDimension(height, pattern.MaxHeight(cfg.SquareSizeMM()))
		switch cc := cfg.(type) {
		case pattern.Chessboard:
			cc.InnerCornersWidth, cc.InnerCornersHeight = width, height
			return cc
		case pattern.Charuco:
			cc.InnerCornersWidth, cc.InnerCornersHeight = width, height
			return cc
		default:
			return cfg
		}
	})
}

// SetMarker updates the charuco marker size and dictionary. A marker that
// would not fit inside its square is clamped back to the default ratio, so
// the persisted record always validates. Ignored for chessboard configs.
// Only legal in Setup.
func (c *Controller) SetMarker(sizeMM float64, dict pattern.Dictionary) (pattern.Config, error) {
	return c.editConfig("set marker", func(cfg pattern.Config) pattern.Config {
		cc, ok := cfg.(pattern.Charuco)
		if !ok {
			return cfg
		}
		if sizeMM > 0 {
			cc.MarkerSize = sizeMM
		}
		if cc.MarkerSize >= cc.SquareSize {
			cc.MarkerSize = cc.SquareSize * 0.75
		}
		if pattern.ValidDictionary(dict) {
			cc.Dictionary = dict
		}
		return cc
	})
}

// editConfig applies a clamped edit, replaces the session config wholesale
// and mirrors the confirmed value to the settings store.
func (c *Controller) editConfig(op string, apply func(pattern.Config) pattern.Config) (pattern.Config, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess.step != StepSetup {
		err := &InvalidStateError{Op: op, Step: c.sess.step}
		c.setStatusLocked(err.Error(), SeverityBug)
		return c.sess.config, err
	}
	c.sess.config = apply(c.sess.config)
	if c.store != nil {
		c.store.Save(c.sess.config)
	}
	return c.sess.config, nil
}

// StartSession validates the request locally, asks the device to begin a
// calibration run and on success moves Setup -> Capture with a zeroed frame
// count. On device failure the step stays Setup and nothing is retried.
func (c *Controller) StartSession(cameraID string, cfg pattern.Config) error {
	c.mu.Lock()
	if c.startInFlight {
		c.mu.Unlock()
		return ErrOperationPending
	}
	if c.sess.step != StepSetup {
		var err error
		if c.sess.cameraID == cameraID {
			err = &ConflictError{CameraID: cameraID}
		} else {
			err = &InvalidStateError{Op: "start", Step: c.sess.step}
		}
		c.setStatusLocked(err.Error(), severityFor(err))
		c.mu.Unlock()
		return err
	}
	if cameraID == "" {
		err := &ValidationError{Reason: "no camera selected"}
		c.setStatusLocked(err.Error(), SeverityError)
		c.mu.Unlock()
		return err
	}
	if cfg == nil {
		cfg = c.sess.config
	}
	cfg = pattern.Clamp(cfg)
	if verr := cfg.Validate(); verr != nil {
		err := &ValidationError{Reason: verr.Error()}
		c.setStatusLocked(err.Error(), SeverityError)
		c.mu.Unlock()
		return err
	}
	c.startInFlight = true
	sid := c.sess.id
	c.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"camera":  cameraID,
		"pattern": cfg.Type(),
	}).Debug("starting calibration session")
	rerr := c.remote.StartCalibration(cameraID, cfg)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.startInFlight = false
	if c.sess.id != sid {
		return nil // session replaced while the request was in flight
	}
	if rerr != nil {
		err := &RemoteFailure{Op: "start", Err: rerr}
		c.setStatusLocked(err.Error(), SeverityError)
		return err
	}
	c.sess.cameraID = cameraID
	c.sess.config = cfg
	c.sess.capturedFrames = 0
	if c.store != nil {
		c.store.Save(cfg)
	}
	c.transitionLocked(StepCapture, fmt.Sprintf("Calibration started for camera %s", cameraID))
	c.setStatusLocked(fmt.Sprintf("Session started. Capture at least %d frames.", MinFrames), SeverityInfo)
	return nil
}

// CaptureFrame asks the device to grab and evaluate one frame. The frame
// count is set to the device-reported total, never incremented locally: the
// device may reject a frame ("pattern not found") in which case the count is
// unchanged and a warning is surfaced. A capture issued while another is
// still pending is ignored, not queued.
func (c *Controller) CaptureFrame() error {
	c.mu.Lock()
	if c.sess.step != StepCapture {
		err := &InvalidStateError{Op: "capture", Step: c.sess.step}
		c.setStatusLocked(err.Error(), SeverityBug)
		c.mu.Unlock()
		return err
	}
	if c.captureInFlight {
		logrus.Debug("capture already pending, ignoring")
		c.mu.Unlock()
		return nil
	}
	c.captureInFlight = true
	sid := c.sess.id
	cameraID := c.sess.cameraID
	c.mu.Unlock()

	out, rerr := c.remote.CaptureFrame(cameraID)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.captureInFlight = false
	if c.sess.id != sid {
		return nil
	}
	if rerr != nil {
		err := &RemoteFailure{Op: "capture", Err: rerr}
		c.setStatusLocked(err.Error(), SeverityError)
		return err
	}
	if !out.Detected {
		msg := out.Message
		if msg == "" {
			msg = "Pattern not found. Adjust the board and try again."
		}
		c.setStatusLocked(msg, SeverityWarning)
		return nil
	}
	c.sess.capturedFrames = out.CaptureCount
	c.setStatusLocked(fmt.Sprintf("Captured %d of %d required frames", c.sess.capturedFrames, MinFrames), SeverityInfo)
	return nil
}

// Calculate runs the intrinsics solve once enough frames are captured. On
// success it stores the result and moves Capture -> Results; on device
// failure the step stays Capture.
func (c *Controller) Calculate() error {
	c.mu.Lock()
	if c.sess.step != StepCapture {
		err := &InvalidStateError{Op: "calculate", Step: c.sess.step}
		c.setStatusLocked(err.Error(), SeverityBug)
		c.mu.Unlock()
		return err
	}
	if c.calculateInFlight {
		c.mu.Unlock()
		return ErrOperationPending
	}
	if c.sess.capturedFrames < MinFrames {
		err := &PreconditionError{
			Reason: fmt.Sprintf("need at least %d captured frames, have %d", MinFrames, c.sess.capturedFrames),
		}
		c.setStatusLocked(err.Error(), SeverityError)
		c.mu.Unlock()
		return err
	}
	c.calculateInFlight = true
	sid := c.sess.id
	cameraID := c.sess.cameraID
	c.mu.Unlock()

	logrus.WithField("camera", cameraID).Debug("requesting intrinsics solve")
	res, rerr := c.remote.Calculate(cameraID)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.calculateInFlight = false
	if c.sess.id != sid {
		return nil
	}
	if rerr != nil {
		err := &RemoteFailure{Op: "calculate", Err: rerr}
		c.setStatusLocked(err.Error(), SeverityError)
		return err
	}
	c.sess.lastResult = res
	c.transitionLocked(StepResults, fmt.Sprintf("Calibration computed, reprojection error %.4f", res.ReprojectionError))
	c.setStatusLocked(fmt.Sprintf("Calibration complete. Reprojection error: %.4f", res.ReprojectionError), SeverityInfo)
	return nil
}

// SaveResult persists the computed intrinsics to the device. On success the
// session resets and moves Results -> Setup; on failure it stays in Results
// so the user may retry.
func (c *Controller) SaveResult() error {
	c.mu.Lock()
	if c.sess.step != StepResults || c.sess.lastResult == nil {
		err := &InvalidStateError{Op: "save", Step: c.sess.step}
		c.setStatusLocked(err.Error(), SeverityBug)
		c.mu.Unlock()
		return err
	}
	if c.saveInFlight {
		c.mu.Unlock()
		return ErrOperationPending
	}
	c.saveInFlight = true
	sid := c.sess.id
	cameraID := c.sess.cameraID
	result := c.sess.lastResult
	c.mu.Unlock()

	rerr := c.remote.SaveResult(cameraID, result)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.saveInFlight = false
	if c.sess.id != sid {
		return nil
	}
	if rerr != nil {
		err := &RemoteFailure{Op: "save", Err: rerr}
		c.setStatusLocked(err.Error(), SeverityError)
		return err
	}
	from := c.sess.step
	c.sess = newState(c.sess.config)
	c.publishStepLocked(from, StepSetup, fmt.Sprintf("Intrinsics saved for camera %s", cameraID))
	c.setStatusLocked("Calibration saved to device.", SeverityInfo)
	logrus.WithField("camera", cameraID).Info("calibration saved")
	return nil
}

// Restart unconditionally resets to Setup, clearing the frame count and last
// result. No device call is made; any response still in flight is discarded
// because the session value is replaced, not mutated.
func (c *Controller) Restart() {
	c.mu.Lock()
	defer c.mu.Unlock()
	from := c.sess.step
	c.sess = newState(c.sess.config)
	c.publishStepLocked(from, StepSetup, "Session restarted")
	c.setStatusLocked("Session restarted.", SeverityInfo)
}

// Status returns a point-in-time view of the controller.
func (c *Controller) Status() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		SessionID:      c.sess.id.String(),
		CameraID:       c.sess.cameraID,
		Step:           c.sess.step,
		CapturedFrames: c.sess.capturedFrames,
		MinFrames:      MinFrames,
		CanCalculate:   c.sess.step == StepCapture && c.sess.capturedFrames >= MinFrames,
		CanSave:        c.sess.step == StepResults && c.sess.lastResult != nil,
		Pattern:        ViewOf(c.sess.config),
		LastResult:     c.sess.lastResult,
		Status:         c.status,
	}
}

func (c *Controller) transitionLocked(to Step, msg string) {
	from := c.sess.step
	c.sess.step = to
	c.publishStepLocked(from, to, msg)
}

func (c *Controller) publishStepLocked(from, to Step, msg string) {
	logrus.WithFields(logrus.Fields{
		"from":   from,
		"to":     to,
		"camera": c.sess.cameraID,
	}).Debug("session step")
	c.hub.Publish(events.SessionStep, events.SessionStepEvent{
		SessionID: c.sess.id.String(),
		CameraID:  c.sess.cameraID,
		From:      string(from),
		To:        string(to),
		Message:   msg,
		Ts:        time.Now().Unix(),
	})
}

func (c *Controller) setStatusLocked(text string, severity Severity) {
	c.status = &StatusMessage{Text: text, Severity: severity}
	c.hub.Publish(events.SessionStatus, events.SessionStatusEvent{
		SessionID: c.sess.id.String(),
		Text:      text,
		Severity:  string(severity),
		Ts:        time.Now().Unix(),
	})
}

func severityFor(err error) Severity {
	switch err.(type) {
	case *InvalidStateError:
		return SeverityBug
	case *ConflictError:
		return SeverityError
	default:
		return SeverityError
	}
}
