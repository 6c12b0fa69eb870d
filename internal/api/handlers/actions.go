package handlers

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"uirecorder/internal/export"
	"uirecorder/internal/models"
	"uirecorder/internal/recorder"
	"uirecorder/internal/scriptgen"
	"uirecorder/internal/suite"
	"uirecorder/pkg/logger"
	"uirecorder/pkg/replay"
	"uirecorder/pkg/response"
)

// The recorder extension talks to these endpoints with plain
// {"ok": ...} bodies rather than the envelope.

func (h *Handler) Ping(c *gin.Context) {
	response.OK(c, nil)
}

func (h *Handler) PostActions(c *gin.Context) {
	var req struct {
		Actions []models.Action `json:"actions"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Actions == nil {
		response.Fail(c, http.StatusBadRequest, "Invalid actions array")
		return
	}

	summary, err := h.service.Ingest(c.Request.Context(), req.Actions)
	if err != nil {
		if errors.Is(err, recorder.ErrNoActions) {
			response.Fail(c, http.StatusBadRequest, "Invalid actions array")
			return
		}
		response.Fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) GetTestCases(c *gin.Context) {
	tcs, err := h.service.TestCases(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	if tcs == nil {
		tcs = make([]models.TestCase, 0)
	}
	c.JSON(http.StatusOK, tcs)
}

func (h *Handler) Clear(c *gin.Context) {
	if err := h.service.Clear(c.Request.Context()); err != nil {
		response.Fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.OK(c, gin.H{"message": "Data cleared"})
}

func (h *Handler) ExportExcel(c *gin.Context) {
	tcs, err := h.service.TestCases(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := export.WriteTestCases(&buf, tcs); err != nil {
		logger.L().Errorf("❌ Excel export failed: %v", err)
		response.Fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+export.Filename(h.now()))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// GetScript renders the current test cases as a Go test file.
func (h *Handler) GetScript(c *gin.Context) {
	tcs, err := h.service.TestCases(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	name := c.DefaultQuery("name", "recorded flow")
	src, err := scriptgen.Generate(suite.FromTestCases(name, tcs), scriptgen.Options{
		Package:  c.DefaultQuery("package", scriptgen.DefaultPackage),
		Defaults: h.defaults,
		Headless: h.cfg.Chrome.HeadlessMode,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, replay.ErrInvalidStep) || errors.Is(err, scriptgen.ErrInvalidPackage) {
			status = http.StatusBadRequest
		}
		response.Fail(c, status, err.Error())
		return
	}

	c.Header("Content-Disposition", "attachment; filename=recorded_flow_test.go")
	c.Data(http.StatusOK, "text/x-go; charset=utf-8", src)
}
