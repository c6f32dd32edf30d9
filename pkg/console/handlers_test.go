package console

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/krystian-booker/ArcSight-sub000/pkg/client"
	"github.com/krystian-booker/ArcSight-sub000/pkg/session"
)

func TestStatusForError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{&session.ValidationError{Reason: "no camera"}, http.StatusBadRequest},
		{&session.PreconditionError{Reason: "too few frames"}, http.StatusBadRequest},
		{&session.InvalidStateError{Op: "save", Step: session.StepSetup}, http.StatusConflict},
		{&session.ConflictError{CameraID: "7"}, http.StatusConflict},
		{session.ErrOperationPending, http.StatusTooManyRequests},
		{&session.RemoteFailure{Op: "start", Err: errors.New("boom")}, http.StatusBadGateway},
		{errors.New("anything else"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := statusForError(c.err); got != c.want {
			t.Fatalf("statusForError(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}

func newTestRouter(t *testing.T, deviceURL string) http.Handler {
	t.Helper()
	device := client.New(deviceURL)
	ctrl := session.NewController(device, nil, nil)
	return New(ctrl, device, nil).setupRoutes()
}

func TestDownloadPatternDeviceFailure(t *testing.T) {
	device := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "renderer crashed", http.StatusInternalServerError)
	}))
	defer device.Close()

	router := newTestRouter(t, device.URL)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/calibration/pattern", nil)
	router.ServeHTTP(w, req)

	// The failure must not leak a half-written 200 that looks like a PDF.
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct == "application/pdf" {
		t.Fatalf("error response carries PDF content type")
	}
}

func TestDownloadPatternServesDocument(t *testing.T) {
	doc := "%PDF-1.4 calibration pattern"
	device := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(doc))
	}))
	defer device.Close()

	router := newTestRouter(t, device.URL)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/calibration/pattern", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Header().Get("Content-Type"); got != "application/pdf" {
		t.Fatalf("Content-Type = %q, want application/pdf", got)
	}
	if w.Body.String() != doc {
		t.Fatalf("body = %q, want %q", w.Body.String(), doc)
	}
}
