// Package console exposes the admin console over HTTP: camera and pipeline
// CRUD proxied to the device, the calibration session workflow, and an SSE
// stream of session events for the web frontend.
package console

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/krystian-booker/ArcSight-sub000/pkg/client"
	"github.com/krystian-booker/ArcSight-sub000/pkg/events"
	"github.com/krystian-booker/ArcSight-sub000/pkg/session"
)

// Console wires the session controller, the device client and the event hub
// behind a gin router.
type Console struct {
	ctrl   *session.Controller
	device *client.Client
	hub    *events.EventHub
}

func New(ctrl *session.Controller, device *client.Client, hub *events.EventHub) *Console {
	return &Console{
		ctrl:   ctrl,
		device: device,
		hub:    hub,
	}
}

func (con *Console) setupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logrus.StandardLogger()))

	router.GET("/healthz", con.getHealth)

	router.GET("/api/cameras", con.listCameras)
	router.POST("/api/cameras", con.addCamera)
	router.DELETE("/api/cameras/:id", con.removeCamera)

	router.GET("/api/pipelines", con.listPipelines)
	router.POST("/api/pipelines", con.createPipeline)
	router.DELETE("/api/pipelines/:id", con.deletePipeline)

	router.GET("/api/calibration/session", con.getSession)
	router.PUT("/api/calibration/pattern", con.updatePattern)
	router.GET("/api/calibration/pattern", con.downloadPattern)
	router.POST("/api/calibration/start", con.startSession)
	router.POST("/api/calibration/capture", con.captureFrame)
	router.POST("/api/calibration/calculate", con.calculate)
	router.POST("/api/calibration/save", con.saveResult)
	router.POST("/api/calibration/restart", con.restart)
	router.GET("/api/calibration/result", con.getResult)

	router.GET("/api/events", con.streamEvents)

	return router
}

// Run serves the console API until SIGINT/SIGTERM, then shuts down
// gracefully.
func (con *Console) Run(addr string) error {
	router := con.setupRoutes()

	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		logrus.Infof("console listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatal(err)
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigc
	logrus.Infof("caught signal %q: shutting down.", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("failed to shutdown http server: %v", err)
		return err
	}

	logrus.Info("exiting")
	return nil
}
