package client

import (
	"fmt"
	"io"
	"net/http"
	"net/url"

	pkgerrors "github.com/pkg/errors"

	"github.com/krystian-booker/ArcSight-sub000/pkg/camera"
	"github.com/krystian-booker/ArcSight-sub000/pkg/pattern"
	"github.com/krystian-booker/ArcSight-sub000/pkg/pipeline"
	"github.com/krystian-booker/ArcSight-sub000/pkg/session"
)

// patternParams is the wire form of a pattern.Config for the start and
// pattern-download operations.
type patternParams struct {
	InnerCornersWidth  int     `json:"innerCornersWidth"`
	InnerCornersHeight int     `json:"innerCornersHeight"`
	SquareSizeMM       float64 `json:"squareSizeMm"`
	MarkerSizeMM       float64 `json:"markerSizeMm,omitempty"`
	MarkerDictionary   string  `json:"markerDictionary,omitempty"`
}

func paramsOf(cfg pattern.Config) patternParams {
	w, h := cfg.InnerCorners()
	p := patternParams{
		InnerCornersWidth:  w,
		InnerCornersHeight: h,
		SquareSizeMM:       cfg.SquareSizeMM(),
	}
	if ch, ok := cfg.(pattern.Charuco); ok {
		p.MarkerSizeMM = ch.MarkerSize
		p.MarkerDictionary = string(ch.Dictionary)
	}
	return p
}

type startRequest struct {
	CameraID      string        `json:"cameraId"`
	PatternType   string        `json:"patternType"`
	PatternParams patternParams `json:"patternParams"`
}

type statusResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type captureRequest struct {
	CameraID string `json:"cameraId"`
}

type captureResponse struct {
	Success      bool   `json:"success"`
	CaptureCount int    `json:"captureCount,omitempty"`
	Message      string `json:"message,omitempty"`
}

type calculateResponse struct {
	Success bool            `json:"success"`
	Data    *session.Result `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

type saveRequest struct {
	CameraID string          `json:"cameraId"`
	Result   *session.Result `json:"result"`
}

// StartCalibration asks the device to begin a calibration run for a camera.
func (c *Client) StartCalibration(cameraID string, cfg pattern.Config) error {
	req := startRequest{
		CameraID:      cameraID,
		PatternType:   string(cfg.Type()),
		PatternParams: paramsOf(cfg),
	}
	var resp statusResponse
	if err := c.postJSON("/api/calibration/start", req, &resp); err != nil {
		return pkgerrors.Wrapf(err, "failed to start calibration")
	}
	if !resp.Success {
		return pkgerrors.Errorf("device refused to start calibration: %s", resp.Error)
	}
	return nil
}

// CaptureFrame asks the device to grab one frame and look for the pattern.
// success=false with a message means the board was not found; that is a
// normal outcome reported in the CaptureOutcome, not an error.
func (c *Client) CaptureFrame(cameraID string) (session.CaptureOutcome, error) {
	var resp captureResponse
	if err := c.postJSON("/api/calibration/capture", captureRequest{CameraID: cameraID}, &resp); err != nil {
		return session.CaptureOutcome{}, pkgerrors.Wrapf(err, "failed to capture frame")
	}
	return session.CaptureOutcome{
		Detected:     resp.Success,
		CaptureCount: resp.CaptureCount,
		Message:      resp.Message,
	}, nil
}

// Calculate runs the intrinsics solve on the device.
func (c *Client) Calculate(cameraID string) (*session.Result, error) {
	var resp calculateResponse
	if err := c.postJSON("/api/calibration/calculate", captureRequest{CameraID: cameraID}, &resp); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to calculate intrinsics")
	}
	if !resp.Success || resp.Data == nil {
		return nil, pkgerrors.Errorf("calibration solve failed: %s", resp.Error)
	}
	return resp.Data, nil
}

// SaveResult persists computed intrinsics on the device.
func (c *Client) SaveResult(cameraID string, result *session.Result) error {
	var resp statusResponse
	if err := c.postJSON("/api/calibration/save", saveRequest{CameraID: cameraID, Result: result}, &resp); err != nil {
		return pkgerrors.Wrapf(err, "failed to save calibration")
	}
	if !resp.Success {
		return pkgerrors.Errorf("device refused to save calibration: %s", resp.Error)
	}
	return nil
}

// DownloadPattern fetches a printable document for the given target and
// writes it to w. One-way; it never touches session state.
func (c *Client) DownloadPattern(cfg pattern.Config, w io.Writer) error {
	p := paramsOf(cfg)
	q := url.Values{}
	q.Set("type", string(cfg.Type()))
	q.Set("w", fmt.Sprintf("%d", p.InnerCornersWidth))
	q.Set("h", fmt.Sprintf("%d", p.InnerCornersHeight))
	q.Set("square", fmt.Sprintf("%g", p.SquareSizeMM))
	if cfg.Type() == pattern.TypeCharuco {
		q.Set("marker", fmt.Sprintf("%g", p.MarkerSizeMM))
		q.Set("dict", p.MarkerDictionary)
	}

	resp, err := c.httpClient.Get(c.baseURL + "/api/calibration/pattern?" + q.Encode())
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to download pattern")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return pkgerrors.Errorf("pattern download got %d", resp.StatusCode)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return pkgerrors.Wrapf(err, "failed to write pattern document")
	}
	return nil
}

// ListCameras returns the cameras registered on the device.
func (c *Client) ListCameras() ([]camera.Camera, error) {
	var cams []camera.Camera
	if err := c.getJSON("/api/cameras", &cams); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to list cameras")
	}
	return cams, nil
}

// AddCamera registers a camera on the device.
func (c *Client) AddCamera(req camera.AddRequest) (*camera.Camera, error) {
	var cam camera.Camera
	if err := c.postJSON("/api/cameras", req, &cam); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to add camera")
	}
	return &cam, nil
}

// RemoveCamera unregisters a camera.
func (c *Client) RemoveCamera(id string) error {
	if _, err := c.Delete("/api/cameras/" + url.PathEscape(id)); err != nil {
		return pkgerrors.Wrapf(err, "failed to remove camera %s", id)
	}
	return nil
}

// ListPipelines returns the configured detection pipelines.
func (c *Client) ListPipelines() ([]pipeline.Pipeline, error) {
	var pls []pipeline.Pipeline
	if err := c.getJSON("/api/pipelines", &pls); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to list pipelines")
	}
	return pls, nil
}

// CreatePipeline configures a new detection pipeline.
func (c *Client) CreatePipeline(req pipeline.CreateRequest) (*pipeline.Pipeline, error) {
	var pl pipeline.Pipeline
	if err := c.postJSON("/api/pipelines", req, &pl); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to create pipeline")
	}
	return &pl, nil
}

// DeletePipeline removes a pipeline.
func (c *Client) DeletePipeline(id string) error {
	if _, err := c.Delete("/api/pipelines/" + url.PathEscape(id)); err != nil {
		return pkgerrors.Wrapf(err, "failed to delete pipeline %s", id)
	}
	return nil
}

// interface guard
var _ session.Remote = (*Client)(nil)
