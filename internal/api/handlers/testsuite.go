package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"

	"uirecorder/internal/models"
	"uirecorder/internal/scriptgen"
	"uirecorder/internal/store"
	"uirecorder/internal/suite"
	"uirecorder/pkg/chrome"
	"uirecorder/pkg/logger"
	"uirecorder/pkg/response"
)

var cronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// validateSuite reports a client error for flow, or "" when it is valid.
func validateSuite(flow *suite.Suite) string {
	if flow.Name == "" {
		return "name is required"
	}
	if err := flow.Validate(); err != nil {
		return err.Error()
	}
	if flow.Cron != "" {
		if _, err := cronParser.Parse(flow.Cron); err != nil {
			return "Invalid cron expression: " + err.Error()
		}
	}
	if flow.Device != "" {
		if _, ok := chrome.LookupDevice(flow.Device); !ok {
			return "Unknown device: " + flow.Device
		}
	}
	return ""
}

func (h *Handler) createSuite(c *gin.Context, flow *suite.Suite) (*models.TestSuite, bool) {
	if msg := validateSuite(flow); msg != "" {
		response.BadRequest(c, msg)
		return nil, false
	}

	ts, err := flow.ToModel()
	if err != nil {
		response.InternalServerError(c, err.Error())
		return nil, false
	}
	if err := h.store.CreateSuite(c.Request.Context(), ts); err != nil {
		response.InternalServerError(c, "Failed to create test suite")
		return nil, false
	}
	h.schedule(*ts)
	return ts, true
}

func (h *Handler) schedule(ts models.TestSuite) {
	if h.scheduler == nil {
		return
	}
	if err := h.scheduler.AddSuiteSchedule(ts); err != nil {
		logger.L().Warnf("Failed to schedule test suite %d: %v", ts.ID, err)
	}
}

// loadSuite writes the error response itself when it returns false.
func (h *Handler) loadSuite(c *gin.Context) (*models.TestSuite, bool) {
	id, ok := idParam(c)
	if !ok {
		response.BadRequest(c, "Invalid test suite ID")
		return nil, false
	}

	ts, err := h.store.GetSuite(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.NotFound(c, "Test suite not found")
		} else {
			response.InternalServerError(c, "Failed to load test suite")
		}
		return nil, false
	}
	if flow, err := suite.FromModel(ts); err == nil {
		ts.StepCount = len(flow.Steps)
	}
	return ts, true
}

func (h *Handler) GetTestSuites(c *gin.Context) {
	suites, err := h.store.ListSuites(c.Request.Context())
	if err != nil {
		response.InternalServerError(c, "Failed to list test suites")
		return
	}
	for i := range suites {
		if flow, err := suite.FromModel(&suites[i]); err == nil {
			suites[i].StepCount = len(flow.Steps)
		}
	}
	response.Success(c, suites)
}

func (h *Handler) CreateTestSuite(c *gin.Context) {
	var flow suite.Suite
	if err := c.ShouldBindJSON(&flow); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	ts, ok := h.createSuite(c, &flow)
	if !ok {
		return
	}
	response.SuccessWithMessage(c, "Test suite created", ts)
}

func (h *Handler) GetTestSuite(c *gin.Context) {
	ts, ok := h.loadSuite(c)
	if !ok {
		return
	}
	response.Success(c, ts)
}

func (h *Handler) UpdateTestSuite(c *gin.Context) {
	existing, ok := h.loadSuite(c)
	if !ok {
		return
	}

	var flow suite.Suite
	if err := c.ShouldBindJSON(&flow); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if msg := validateSuite(&flow); msg != "" {
		response.BadRequest(c, msg)
		return
	}

	ts, err := flow.ToModel()
	if err != nil {
		response.InternalServerError(c, err.Error())
		return
	}
	ts.BaseModel = existing.BaseModel
	ts.Status = existing.Status
	if err := h.store.UpdateSuite(c.Request.Context(), ts); err != nil {
		response.InternalServerError(c, "Failed to update test suite")
		return
	}
	h.schedule(*ts)

	response.SuccessWithMessage(c, "Test suite updated", ts)
}

func (h *Handler) DeleteTestSuite(c *gin.Context) {
	ts, ok := h.loadSuite(c)
	if !ok {
		return
	}

	if h.scheduler != nil {
		h.scheduler.RemoveSuiteSchedule(ts.ID)
	}
	if err := h.store.DeleteSuite(c.Request.Context(), ts.ID); err != nil {
		response.InternalServerError(c, "Failed to delete test suite")
		return
	}
	response.SuccessWithMessage(c, "Test suite deleted", nil)
}

func (h *Handler) ReplayTestSuite(c *gin.Context) {
	ts, ok := h.loadSuite(c)
	if !ok {
		return
	}

	flow, err := suite.FromModel(ts)
	if err != nil {
		response.InternalServerError(c, err.Error())
		return
	}
	h.enqueue(c, flow, &ts.ID, models.TriggerManual)
}

func (h *Handler) GetTestSuiteScript(c *gin.Context) {
	ts, ok := h.loadSuite(c)
	if !ok {
		return
	}

	flow, err := suite.FromModel(ts)
	if err != nil {
		response.InternalServerError(c, err.Error())
		return
	}
	src, err := scriptgen.Generate(flow, scriptgen.Options{Defaults: h.defaults, Headless: h.cfg.Chrome.HeadlessMode})
	if err != nil {
		response.InternalServerError(c, err.Error())
		return
	}
	c.Data(http.StatusOK, "text/x-go; charset=utf-8", src)
}
