package console

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/krystian-booker/ArcSight-sub000/pkg/camera"
	"github.com/krystian-booker/ArcSight-sub000/pkg/pattern"
	"github.com/krystian-booker/ArcSight-sub000/pkg/pipeline"
	"github.com/krystian-booker/ArcSight-sub000/pkg/results"
	"github.com/krystian-booker/ArcSight-sub000/pkg/session"
)

// statusForError maps the session error taxonomy onto HTTP status codes.
func statusForError(err error) int {
	var (
		validation   *session.ValidationError
		precondition *session.PreconditionError
		invalidState *session.InvalidStateError
		conflict     *session.ConflictError
		remote       *session.RemoteFailure
	)
	switch {
	case errors.As(err, &validation), errors.As(err, &precondition):
		return http.StatusBadRequest
	case errors.As(err, &invalidState), errors.As(err, &conflict):
		return http.StatusConflict
	case errors.Is(err, session.ErrOperationPending):
		return http.StatusTooManyRequests
	case errors.As(err, &remote):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (con *Console) abortWithSessionError(c *gin.Context, err error) {
	code := statusForError(err)
	c.IndentedJSON(code, gin.H{"error": err.Error()})
	_ = c.AbortWithError(code, err)
}

func (con *Console) getHealth(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, gin.H{"status": "ok", "ts": time.Now().Unix()})
}

// ===== Camera / pipeline CRUD (proxied to the device) =====

func (con *Console) listCameras(c *gin.Context) {
	cams, err := con.device.ListCameras()
	if err != nil {
		c.IndentedJSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		_ = c.AbortWithError(http.StatusBadGateway, err)
		return
	}
	c.IndentedJSON(http.StatusOK, cams)
}

func (con *Console) addCamera(c *gin.Context) {
	var req camera.AddRequest
	if err := c.BindJSON(&req); err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}
	cam, err := con.device.AddCamera(req)
	if err != nil {
		c.IndentedJSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		_ = c.AbortWithError(http.StatusBadGateway, err)
		return
	}
	logrus.Infof("registered camera %s (%s)", cam.Name, cam.ID)
	c.IndentedJSON(http.StatusCreated, cam)
}

func (con *Console) removeCamera(c *gin.Context) {
	if err := con.device.RemoveCamera(c.Param("id")); err != nil {
		c.IndentedJSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		_ = c.AbortWithError(http.StatusBadGateway, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (con *Console) listPipelines(c *gin.Context) {
	pls, err := con.device.ListPipelines()
	if err != nil {
		c.IndentedJSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		_ = c.AbortWithError(http.StatusBadGateway, err)
		return
	}
	c.IndentedJSON(http.StatusOK, pls)
}

func (con *Console) createPipeline(c *gin.Context) {
	var req pipeline.CreateRequest
	if err := c.BindJSON(&req); err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}
	pl, err := con.device.CreatePipeline(req)
	if err != nil {
		c.IndentedJSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		_ = c.AbortWithError(http.StatusBadGateway, err)
		return
	}
	c.IndentedJSON(http.StatusCreated, pl)
}

func (con *Console) deletePipeline(c *gin.Context) {
	if err := con.device.DeletePipeline(c.Param("id")); err != nil {
		c.IndentedJSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		_ = c.AbortWithError(http.StatusBadGateway, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ===== Calibration session =====

func (con *Console) getSession(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, con.ctrl.Status())
}

// patternUpdate carries one confirmed field change. Raw string fields so that
// non-numeric input clamps to the minimum instead of failing the bind.
type patternUpdate struct {
	PatternType        *string `json:"patternType,omitempty"`
	SquareSizeMM       *string `json:"squareSizeMm,omitempty"`
	InnerCornersWidth  *string `json:"innerCornersWidth,omitempty"`
	InnerCornersHeight *string `json:"innerCornersHeight,omitempty"`
	MarkerSizeMM       *string `json:"markerSizeMm,omitempty"`
	MarkerDictionary   *string `json:"markerDictionary,omitempty"`
}

func (con *Console) updatePattern(c *gin.Context) {
	var upd patternUpdate
	if err := c.BindJSON(&upd); err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	var err error
	if upd.PatternType != nil {
		_, err = con.ctrl.SetPatternType(pattern.Type(*upd.PatternType))
	}
	if err == nil && upd.SquareSizeMM != nil {
		_, err = con.ctrl.SetSquareSize(pattern.ParseSquareSize(*upd.SquareSizeMM))
	}
	if err == nil && (upd.InnerCornersWidth != nil || upd.InnerCornersHeight != nil) {
		cfg := con.ctrl.Pattern()
		w, h := cfg.InnerCorners()
		if upd.InnerCornersWidth != nil {
			w = pattern.ParseDimension(*upd.InnerCornersWidth, pattern.MaxWidth(cfg.SquareSizeMM()))
		}
		if upd.InnerCornersHeight != nil {
			h = pattern.ParseDimension(*upd.InnerCornersHeight, pattern.MaxHeight(cfg.SquareSizeMM()))
		}
		_, err = con.ctrl.SetInnerCorners(w, h)
	}
	if err == nil && (upd.MarkerSizeMM != nil || upd.MarkerDictionary != nil) {
		size := 0.0
		if upd.MarkerSizeMM != nil {
			size = pattern.ParseSquareSize(*upd.MarkerSizeMM)
		}
		dict := pattern.Dictionary("")
		if upd.MarkerDictionary != nil {
			dict = pattern.Dictionary(*upd.MarkerDictionary)
		}
		_, err = con.ctrl.SetMarker(size, dict)
	}
	if err != nil {
		con.abortWithSessionError(c, err)
		return
	}

	c.IndentedJSON(http.StatusOK, session.ViewOf(con.ctrl.Pattern()))
}

type startSessionRequest struct {
	CameraID string `json:"cameraId"`
}

func (con *Console) startSession(c *gin.Context) {
	var req startSessionRequest
	if err := c.BindJSON(&req); err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}
	if err := con.ctrl.StartSession(req.CameraID, nil); err != nil {
		con.abortWithSessionError(c, err)
		return
	}
	c.IndentedJSON(http.StatusCreated, con.ctrl.Status())
}

func (con *Console) captureFrame(c *gin.Context) {
	if err := con.ctrl.CaptureFrame(); err != nil {
		con.abortWithSessionError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, con.ctrl.Status())
}

func (con *Console) calculate(c *gin.Context) {
	if err := con.ctrl.Calculate(); err != nil {
		con.abortWithSessionError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, con.ctrl.Status())
}

func (con *Console) saveResult(c *gin.Context) {
	if err := con.ctrl.SaveResult(); err != nil {
		con.abortWithSessionError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, con.ctrl.Status())
}

func (con *Console) restart(c *gin.Context) {
	con.ctrl.Restart()
	c.IndentedJSON(http.StatusOK, con.ctrl.Status())
}

// getResult returns the last computed intrinsics with presentation fields:
// the quality tier and the fixed-precision matrix/coefficient strings.
func (con *Console) getResult(c *gin.Context) {
	st := con.ctrl.Status()
	if st.LastResult == nil {
		c.IndentedJSON(http.StatusNotFound, gin.H{"error": "no calibration result"})
		return
	}
	res := st.LastResult
	c.IndentedJSON(http.StatusOK, gin.H{
		"result":       res,
		"quality":      results.Classify(res.ReprojectionError),
		"cameraMatrix": results.FormatMatrix(res.CameraMatrix),
		"distCoeffs":   results.FormatDistCoeffs(res.DistCoeffs),
	})
}

// downloadPattern proxies the printable pattern document for the session's
// current configuration. The document is fetched in full before any byte of
// the response is committed, so a device failure surfaces as 502 instead of
// a truncated 200.
func (con *Console) downloadPattern(c *gin.Context) {
	var buf bytes.Buffer
	if err := con.device.DownloadPattern(con.ctrl.Pattern(), &buf); err != nil {
		logrus.WithError(err).Error("pattern download failed")
		c.IndentedJSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		_ = c.AbortWithError(http.StatusBadGateway, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="calibration-pattern.pdf"`)
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// streamEvents serves session transitions and status messages as SSE.
func (con *Console) streamEvents(c *gin.Context) {
	if con.hub == nil {
		c.IndentedJSON(http.StatusNotFound, gin.H{"error": "events disabled"})
		return
	}
	ch := con.hub.Subscribe()
	defer con.hub.Unsubscribe(ch)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(io.Writer) bool {
		select {
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(ev.Name, string(ev.Data))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
