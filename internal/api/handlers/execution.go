package handlers

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"uirecorder/internal/executor"
	"uirecorder/internal/models"
	"uirecorder/internal/store"
	"uirecorder/internal/suite"
	"uirecorder/pkg/logger"
	"uirecorder/pkg/replay"
	"uirecorder/pkg/response"
)

// enqueue queues flow and answers with the execution. With ?wait=true
// it answers once the run has finished.
func (h *Handler) enqueue(c *gin.Context, flow *suite.Suite, suiteID *uint, trigger string) {
	exec, results, err := h.runner.Enqueue(c.Request.Context(), flow, suiteID, trigger)
	if err != nil {
		if errors.Is(err, replay.ErrInvalidStep) {
			response.BadRequest(c, err.Error())
			return
		}
		if errors.Is(err, executor.ErrStopped) {
			response.ServiceUnavailable(c, err.Error())
			return
		}
		response.InternalServerError(c, "Failed to start replay: "+err.Error())
		return
	}

	if c.Query("wait") != "true" {
		response.SuccessWithMessage(c, "Replay queued", exec)
		return
	}

	select {
	case <-results:
	case <-c.Request.Context().Done():
		return
	}
	finished, err := h.store.GetExecution(c.Request.Context(), exec.ID)
	if err != nil {
		response.InternalServerError(c, "Failed to load execution")
		return
	}
	response.Success(c, finished)
}

// ReplayTestCases replays the test cases derived from the current
// recording.
func (h *Handler) ReplayTestCases(c *gin.Context) {
	tcs, err := h.service.TestCases(c.Request.Context())
	if err != nil {
		response.InternalServerError(c, err.Error())
		return
	}
	if len(tcs) == 0 {
		response.BadRequest(c, "No test cases recorded")
		return
	}
	h.enqueue(c, suite.FromTestCases("recorded flow", tcs), nil, models.TriggerRecorder)
}

func (h *Handler) GetExecutions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 10
	}

	filter := store.ExecutionFilter{Status: c.Query("status"), Page: page, PageSize: pageSize}
	if raw := c.Query("suite_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			response.BadRequest(c, "Invalid suite_id")
			return
		}
		suiteID := uint(id)
		filter.SuiteID = &suiteID
	}

	execs, total, err := h.store.ListExecutions(c.Request.Context(), filter)
	if err != nil {
		response.InternalServerError(c, "Failed to list executions")
		return
	}
	response.Page(c, execs, total, page, pageSize)
}

func (h *Handler) loadExecution(c *gin.Context) (*models.TestExecution, bool) {
	id, ok := idParam(c)
	if !ok {
		response.BadRequest(c, "Invalid execution ID")
		return nil, false
	}

	exec, err := h.store.GetExecution(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.NotFound(c, "Execution not found")
		} else {
			response.InternalServerError(c, "Failed to load execution")
		}
		return nil, false
	}
	return exec, true
}

func (h *Handler) GetExecution(c *gin.Context) {
	exec, ok := h.loadExecution(c)
	if !ok {
		return
	}
	response.Success(c, gin.H{
		"execution":  exec,
		"is_running": h.runner.IsRunning(exec.ID),
	})
}

func (h *Handler) StopExecution(c *gin.Context) {
	exec, ok := h.loadExecution(c)
	if !ok {
		return
	}
	if exec.Finished() {
		response.BadRequest(c, "Execution already finished")
		return
	}
	if !h.runner.Cancel(exec.ID) {
		response.BadRequest(c, "Execution is not running")
		return
	}
	response.SuccessWithMessage(c, "Execution stopping", nil)
}

func (h *Handler) GetExecutionScreenshots(c *gin.Context) {
	exec, ok := h.loadExecution(c)
	if !ok {
		return
	}
	shots, err := exec.GetScreenshots()
	if err != nil {
		response.InternalServerError(c, "Invalid screenshot list")
		return
	}

	root := h.defaults.ScreenshotsDir
	urls := make([]string, 0, len(shots))
	for _, shot := range shots {
		rel, err := filepath.Rel(root, shot)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		urls = append(urls, "/api/v1/screenshots/"+filepath.ToSlash(rel))
	}
	response.Success(c, urls)
}

// ServeScreenshot serves files below the screenshots directory.
func (h *Handler) ServeScreenshot(c *gin.Context) {
	rel := strings.TrimPrefix(c.Param("filepath"), "/")
	root, err := filepath.Abs(h.defaults.ScreenshotsDir)
	if err != nil {
		response.InternalServerError(c, err.Error())
		return
	}
	full := filepath.Join(root, filepath.FromSlash(rel))
	if full != root && !strings.HasPrefix(full, root+string(filepath.Separator)) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Screenshot not found"})
		return
	}

	if info, err := os.Stat(full); err != nil || info.IsDir() {
		logger.L().Debugf("Screenshot file not found: %s", full)
		c.JSON(http.StatusNotFound, gin.H{"error": "Screenshot not found"})
		return
	}
	c.File(full)
}
