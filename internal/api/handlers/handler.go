package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"uirecorder/internal/config"
	"uirecorder/internal/models"
	"uirecorder/internal/recorder"
	"uirecorder/internal/services"
	"uirecorder/internal/store"
	"uirecorder/pkg/replay"
)

// Runner queues and controls replays; *executor.Executor implements it.
type Runner interface {
	services.Runner
	Cancel(executionID uint) bool
	IsRunning(executionID uint) bool
}

// Scheduler keeps suite schedules in sync with saved suites.
type Scheduler interface {
	AddSuiteSchedule(ts models.TestSuite) error
	RemoveSuiteSchedule(suiteID uint)
}

// Recorders manages live recording sessions; *recorder.Manager
// implements it.
type Recorders interface {
	StartRecording(sessionID, targetURL, device string) (*recorder.Session, error)
	StopRecording(ctx context.Context, sessionID string) (*recorder.Session, error)
	GetSession(sessionID string) (*recorder.Session, bool)
	GetRecordingStatus(sessionID string) (recorder.SessionStatus, error)
	CleanupRecording(sessionID string)
}

type Handler struct {
	cfg       *config.Config
	store     store.Store
	service   *recorder.Service
	recorders Recorders
	runner    Runner
	scheduler Scheduler
	defaults  replay.Options
	now       func() time.Time
}

type Deps struct {
	Config    *config.Config
	Store     store.Store
	Service   *recorder.Service
	Recorders Recorders
	Runner    Runner
	Scheduler Scheduler
}

func New(d Deps) *Handler {
	return &Handler{
		cfg:       d.Config,
		store:     d.Store,
		service:   d.Service,
		recorders: d.Recorders,
		runner:    d.Runner,
		scheduler: d.Scheduler,
		defaults: replay.Options{
			ImplicitWait:   d.Config.Replay.ImplicitWait,
			ExplicitWait:   d.Config.Replay.ExplicitWait,
			ScreenshotsDir: d.Config.Replay.ScreenshotsDir,
		},
		now: time.Now,
	}
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "success",
		"data": gin.H{
			"status":    "healthy",
			"timestamp": h.now().UTC().Format(time.RFC3339),
		},
	})
}

func idParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
