package session

import (
	"errors"
	"testing"

	"github.com/krystian-booker/ArcSight-sub000/pkg/pattern"
)

// fakeRemote scripts device responses for controller tests.
type fakeRemote struct {
	startErr   error
	captureOut CaptureOutcome
	captureErr error
	calcRes    *Result
	calcErr    error
	saveErr    error

	startCalls   int
	captureCalls int
	calcCalls    int
	saveCalls    int
}

func (f *fakeRemote) StartCalibration(string, pattern.Config) error {
	f.startCalls++
	return f.startErr
}

func (f *fakeRemote) CaptureFrame(string) (CaptureOutcome, error) {
	f.captureCalls++
	return f.captureOut, f.captureErr
}

func (f *fakeRemote) Calculate(string) (*Result, error) {
	f.calcCalls++
	return f.calcRes, f.calcErr
}

func (f *fakeRemote) SaveResult(string, *Result) error {
	f.saveCalls++
	return f.saveErr
}

func testResult() *Result {
	return &Result{
		CameraMatrix: [][]float64{
			{912.34, 0, 640.5},
			{0, 913.01, 360.25},
			{0, 0, 1},
		},
		DistCoeffs:        []float64{0.1234, -0.2345, 0.0012, -0.0003, 0.0456},
		ReprojectionError: 0.42,
	}
}

func startedController(t *testing.T, remote *fakeRemote) *Controller {
	t.Helper()
	c := NewController(remote, nil, nil)
	if err := c.StartSession("7", nil); err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	if c.sess.step != StepCapture {
		t.Fatalf("expected Capture after start, got %s", c.sess.step)
	}
	return c
}

func TestStartRequiresCamera(t *testing.T) {
	c := NewController(&fakeRemote{}, nil, nil)
	err := c.StartSession("", nil)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if c.sess.step != StepSetup {
		t.Fatalf("step changed on validation failure: %s", c.sess.step)
	}
}

func TestStartRejectsMarkerNotSmallerThanSquare(t *testing.T) {
	remote := &fakeRemote{}
	c := NewController(remote, nil, nil)
	cfg := pattern.Charuco{
		InnerCornersWidth:  5,
		InnerCornersHeight: 5,
		SquareSize:         20,
		MarkerSize:         20,
		Dictionary:         pattern.Dict4x4_50,
	}
	err := c.StartSession("7", cfg)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if remote.startCalls != 0 {
		t.Fatal("validation failure must not reach the device")
	}
	if c.sess.step != StepSetup {
		t.Fatalf("step changed on validation failure: %s", c.sess.step)
	}
}

func TestStartRemoteFailureStaysInSetup(t *testing.T) {
	c := NewController(&fakeRemote{startErr: errors.New("camera busy")}, nil, nil)
	err := c.StartSession("7", nil)
	var rf *RemoteFailure
	if !errors.As(err, &rf) {
		t.Fatalf("expected RemoteFailure, got %v", err)
	}
	if c.sess.step != StepSetup {
		t.Fatalf("expected Setup after remote failure, got %s", c.sess.step)
	}
}

func TestStartConflictsWithActiveSession(t *testing.T) {
	remote := &fakeRemote{}
	c := startedController(t, remote)
	err := c.StartSession("7", nil)
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
}

func TestCalculateGatedOnMinimumFrames(t *testing.T) {
	remote := &fakeRemote{calcRes: testResult()}
	c := startedController(t, remote)

	// Four accepted captures.
	for i := 1; i <= 4; i++ {
		remote.captureOut = CaptureOutcome{Detected: true, CaptureCount: i}
		if err := c.CaptureFrame(); err != nil {
			t.Fatalf("capture %d failed: %v", i, err)
		}
	}
	err := c.Calculate()
	var pre *PreconditionError
	if !errors.As(err, &pre) {
		t.Fatalf("expected PreconditionError with 4 frames, got %v", err)
	}
	if remote.calcCalls != 0 {
		t.Fatal("precondition failure must not issue a remote call")
	}
	if c.sess.step != StepCapture {
		t.Fatalf("expected Capture after precondition failure, got %s", c.sess.step)
	}

	// Fifth capture unlocks calculate.
	remote.captureOut = CaptureOutcome{Detected: true, CaptureCount: 5}
	if err := c.CaptureFrame(); err != nil {
		t.Fatalf("capture 5 failed: %v", err)
	}
	if err := c.Calculate(); err != nil {
		t.Fatalf("Calculate failed with 5 frames: %v", err)
	}
	if c.sess.step != StepResults {
		t.Fatalf("expected Results after calculate, got %s", c.sess.step)
	}
	if c.sess.lastResult == nil {
		t.Fatal("result not stored")
	}
}

func TestCaptureUsesDeviceReportedCount(t *testing.T) {
	remote := &fakeRemote{}
	c := startedController(t, remote)

	// The device may count differently than +1 per request.
	remote.captureOut = CaptureOutcome{Detected: true, CaptureCount: 3}
	if err := c.CaptureFrame(); err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	if c.sess.capturedFrames != 3 {
		t.Fatalf("expected device-reported count 3, got %d", c.sess.capturedFrames)
	}

	// Pattern not found: count unchanged, non-fatal.
	remote.captureOut = CaptureOutcome{Detected: false, Message: "pattern not found"}
	if err := c.CaptureFrame(); err != nil {
		t.Fatalf("pattern-not-found must not be an error: %v", err)
	}
	if c.sess.capturedFrames != 3 {
		t.Fatalf("count changed on rejected capture: %d", c.sess.capturedFrames)
	}
	st := c.Status()
	if st.Status == nil || st.Status.Severity != SeverityWarning {
		t.Fatalf("expected warning status, got %+v", st.Status)
	}
}

func TestOperationsOutsideLegalStepFail(t *testing.T) {
	c := NewController(&fakeRemote{}, nil, nil)

	before := c.Status()
	var inv *InvalidStateError
	if err := c.CaptureFrame(); !errors.As(err, &inv) {
		t.Fatalf("capture in Setup: expected InvalidStateError, got %v", err)
	}
	if err := c.Calculate(); !errors.As(err, &inv) {
		t.Fatalf("calculate in Setup: expected InvalidStateError, got %v", err)
	}
	if err := c.SaveResult(); !errors.As(err, &inv) {
		t.Fatalf("save in Setup: expected InvalidStateError, got %v", err)
	}

	after := c.Status()
	if after.Step != before.Step || after.CapturedFrames != before.CapturedFrames || after.LastResult != nil {
		t.Fatalf("illegal operations mutated state: %+v", after)
	}
}

func TestSaveResetsSession(t *testing.T) {
	remote := &fakeRemote{calcRes: testResult()}
	c := startedController(t, remote)
	remote.captureOut = CaptureOutcome{Detected: true, CaptureCount: 5}
	if err := c.CaptureFrame(); err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	if err := c.Calculate(); err != nil {
		t.Fatalf("calculate failed: %v", err)
	}

	// Device save failure keeps the result so the user can retry.
	remote.saveErr = errors.New("flash write failed")
	var rf *RemoteFailure
	if err := c.SaveResult(); !errors.As(err, &rf) {
		t.Fatalf("expected RemoteFailure, got %v", err)
	}
	if c.sess.step != StepResults || c.sess.lastResult == nil {
		t.Fatal("failed save must leave the Results step intact")
	}

	remote.saveErr = nil
	if err := c.SaveResult(); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if c.sess.step != StepSetup || c.sess.capturedFrames != 0 || c.sess.lastResult != nil {
		t.Fatalf("session not reset after save: step=%s frames=%d", c.sess.step, c.sess.capturedFrames)
	}
}

func TestRestartReplacesSession(t *testing.T) {
	remote := &fakeRemote{}
	c := startedController(t, remote)
	remote.captureOut = CaptureOutcome{Detected: true, CaptureCount: 2}
	if err := c.CaptureFrame(); err != nil {
		t.Fatalf("capture failed: %v", err)
	}

	oldID := c.sess.id
	c.Restart()
	if c.sess.step != StepSetup || c.sess.capturedFrames != 0 || c.sess.lastResult != nil {
		t.Fatal("restart did not reset the session")
	}
	if c.sess.id == oldID {
		t.Fatal("restart must replace the session identity so late responses are discarded")
	}
	if remote.startCalls != 1 {
		t.Fatalf("restart must not issue remote calls, start calls = %d", remote.startCalls)
	}
}

func TestEditsClampAndPersistOnlyInSetup(t *testing.T) {
	store := &recordingStore{}
	c := NewController(&fakeRemote{}, store, nil)

	cfg, err := c.SetSquareSize(25)
	if err != nil {
		t.Fatalf("SetSquareSize failed: %v", err)
	}
	if cfg.SquareSizeMM() != 25 {
		t.Fatalf("square size = %g", cfg.SquareSizeMM())
	}
	// Default 9x6 chessboard: width 9 exceeds MaxWidth(25)=7 and must shrink.
	w, h := cfg.InnerCorners()
	if w != 7 || h != 6 {
		t.Fatalf("expected 7x6 after re-clamp, got %dx%d", w, h)
	}
	if store.saves == 0 {
		t.Fatal("confirmed edit not persisted")
	}

	if err := c.StartSession("7", nil); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := c.SetSquareSize(30); err == nil {
		t.Fatal("edit outside Setup accepted")
	}
}

type recordingStore struct {
	saves int
	last  pattern.Config
}

func (s *recordingStore) Load() pattern.Config { return nil }
func (s *recordingStore) Save(cfg pattern.Config) {
	s.saves++
	s.last = cfg
}

func TestSetMarkerClampsOversizedMarker(t *testing.T) {
	store := &recordingStore{}
	c := NewController(&fakeRemote{}, store, nil)
	if _, err := c.SetPatternType(pattern.TypeCharuco); err != nil {
		t.Fatalf("SetPatternType failed: %v", err)
	}

	// Square is 20mm; a 25mm marker cannot fit and must clamp, not persist
	// a config the next load would throw away wholesale.
	cfg, err := c.SetMarker(25, pattern.Dict4x4_50)
	if err != nil {
		t.Fatalf("SetMarker failed: %v", err)
	}
	ch, ok := cfg.(pattern.Charuco)
	if !ok {
		t.Fatalf("expected charuco, got %T", cfg)
	}
	if ch.MarkerSize >= ch.SquareSize {
		t.Fatalf("marker %gmm not clamped below square %gmm", ch.MarkerSize, ch.SquareSize)
	}
	if store.last == nil {
		t.Fatal("edit not persisted")
	}
	if verr := store.last.Validate(); verr != nil {
		t.Fatalf("persisted config does not validate: %v", verr)
	}
}

// gatedRemote blocks scripted operations on channels so tests can hold a
// request in flight while issuing another.
type gatedRemote struct {
	captureOut CaptureOutcome
	calcRes    *Result

	captureStarted chan struct{}
	captureRelease chan struct{}
	calcStarted    chan struct{}
	calcRelease    chan struct{}
	saveStarted    chan struct{}
	saveRelease    chan struct{}

	captureCalls int
	calcCalls    int
	saveCalls    int
}

func (g *gatedRemote) StartCalibration(string, pattern.Config) error { return nil }

func (g *gatedRemote) CaptureFrame(string) (CaptureOutcome, error) {
	g.captureCalls++
	if g.captureStarted != nil {
		g.captureStarted <- struct{}{}
		<-g.captureRelease
	}
	return g.captureOut, nil
}

func (g *gatedRemote) Calculate(string) (*Result, error) {
	g.calcCalls++
	if g.calcStarted != nil {
		g.calcStarted <- struct{}{}
		<-g.calcRelease
	}
	return g.calcRes, nil
}

func (g *gatedRemote) SaveResult(string, *Result) error {
	g.saveCalls++
	if g.saveStarted != nil {
		g.saveStarted <- struct{}{}
		<-g.saveRelease
	}
	return nil
}

func TestConcurrentCaptureIgnoredNotQueued(t *testing.T) {
	remote := &gatedRemote{
		captureOut:     CaptureOutcome{Detected: true, CaptureCount: 1},
		captureStarted: make(chan struct{}),
		captureRelease: make(chan struct{}),
	}
	c := NewController(remote, nil, nil)
	if err := c.StartSession("7", nil); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	done := make(chan error)
	go func() { done <- c.CaptureFrame() }()
	<-remote.captureStarted

	// Re-entrant capture while one is pending: ignored, never sent.
	if err := c.CaptureFrame(); err != nil {
		t.Fatalf("ignored capture returned error: %v", err)
	}

	remote.captureRelease <- struct{}{}
	if err := <-done; err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	if remote.captureCalls != 1 {
		t.Fatalf("expected 1 device capture, got %d", remote.captureCalls)
	}
	if c.sess.capturedFrames != 1 {
		t.Fatalf("expected 1 captured frame, got %d", c.sess.capturedFrames)
	}
}

func TestCalculateAndSaveRefuseWhilePending(t *testing.T) {
	remote := &gatedRemote{
		captureOut:  CaptureOutcome{Detected: true, CaptureCount: MinFrames},
		calcRes:     testResult(),
		calcStarted: make(chan struct{}),
		calcRelease: make(chan struct{}),
		saveStarted: make(chan struct{}),
		saveRelease: make(chan struct{}),
	}
	c := NewController(remote, nil, nil)
	if err := c.StartSession("7", nil); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := c.CaptureFrame(); err != nil {
		t.Fatalf("capture failed: %v", err)
	}

	done := make(chan error)
	go func() { done <- c.Calculate() }()
	<-remote.calcStarted
	if err := c.Calculate(); !errors.Is(err, ErrOperationPending) {
		t.Fatalf("second calculate: expected ErrOperationPending, got %v", err)
	}
	remote.calcRelease <- struct{}{}
	if err := <-done; err != nil {
		t.Fatalf("calculate failed: %v", err)
	}
	if remote.calcCalls != 1 {
		t.Fatalf("expected 1 device calculate, got %d", remote.calcCalls)
	}

	go func() { done <- c.SaveResult() }()
	<-remote.saveStarted
	if err := c.SaveResult(); !errors.Is(err, ErrOperationPending) {
		t.Fatalf("second save: expected ErrOperationPending, got %v", err)
	}
	remote.saveRelease <- struct{}{}
	if err := <-done; err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if remote.saveCalls != 1 {
		t.Fatalf("expected 1 device save, got %d", remote.saveCalls)
	}
	if c.sess.step != StepSetup {
		t.Fatalf("expected Setup after save, got %s", c.sess.step)
	}
}

func TestResponseAfterRestartIsDiscarded(t *testing.T) {
	remote := &gatedRemote{
		captureOut:     CaptureOutcome{Detected: true, CaptureCount: 4},
		captureStarted: make(chan struct{}),
		captureRelease: make(chan struct{}),
	}
	c := NewController(remote, nil, nil)
	if err := c.StartSession("7", nil); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	done := make(chan error)
	go func() { done <- c.CaptureFrame() }()
	<-remote.captureStarted

	// The session object is replaced while the request is still in flight.
	c.Restart()

	remote.captureRelease <- struct{}{}
	if err := <-done; err != nil {
		t.Fatalf("late capture surfaced an error: %v", err)
	}
	if c.sess.step != StepSetup {
		t.Fatalf("expected Setup after restart, got %s", c.sess.step)
	}
	if c.sess.capturedFrames != 0 {
		t.Fatalf("late response applied to the new session: %d frames", c.sess.capturedFrames)
	}
}
