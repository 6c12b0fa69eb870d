package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"uirecorder/internal/recorder"
	"uirecorder/internal/suite"
	"uirecorder/pkg/chrome"
	"uirecorder/pkg/logger"
	"uirecorder/pkg/response"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (h *Handler) StartRecording(c *gin.Context) {
	var req struct {
		TargetURL string `json:"target_url" binding:"required,url"`
		SessionID string `json:"session_id"`
		Device    string `json:"device"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if req.Device != "" {
		if _, ok := chrome.LookupDevice(req.Device); !ok {
			response.BadRequest(c, "Unknown device: "+req.Device)
			return
		}
	}

	session, err := h.recorders.StartRecording(req.SessionID, req.TargetURL, req.Device)
	if err != nil {
		if errors.Is(err, recorder.ErrSessionExists) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalServerError(c, "Failed to start recording: "+err.Error())
		return
	}

	response.SuccessWithMessage(c, "Recording started", gin.H{
		"session_id": session.ID(),
	})
}

func (h *Handler) StopRecording(c *gin.Context) {
	var req struct {
		SessionID string `json:"session_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	session, err := h.recorders.StopRecording(c.Request.Context(), req.SessionID)
	switch {
	case errors.Is(err, recorder.ErrSessionNotFound):
		response.NotFound(c, "Recording session not found")
		return
	case errors.Is(err, recorder.ErrNotRecording):
		response.BadRequest(c, err.Error())
		return
	case err != nil:
		// The session is stopped; only delivery of queued actions failed.
		logger.L().Warnf("⚠️ Recording %s stopped with undelivered actions: %v", req.SessionID, err)
	}

	response.SuccessWithMessage(c, "Recording stopped", session.Status())
}

func (h *Handler) GetRecordingStatus(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		response.BadRequest(c, "session_id is required")
		return
	}

	status, err := h.recorders.GetRecordingStatus(sessionID)
	if err != nil {
		response.NotFound(c, "Recording session not found")
		return
	}
	response.Success(c, status)
}

// SaveRecording stores a stopped session's actions as a suite and
// releases the session.
func (h *Handler) SaveRecording(c *gin.Context) {
	var req struct {
		SessionID      string `json:"session_id" binding:"required"`
		Name           string `json:"name" binding:"required,min=1,max=200"`
		Description    string `json:"description" binding:"max=1000"`
		CronExpression string `json:"cron_expression" binding:"max=100"`
		Device         string `json:"device"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	session, ok := h.recorders.GetSession(req.SessionID)
	if !ok {
		response.NotFound(c, "Recording session not found")
		return
	}
	if session.IsRecording() {
		response.BadRequest(c, "Stop the recording first")
		return
	}
	actions := session.Actions()
	if len(actions) == 0 {
		response.BadRequest(c, "No actions were recorded")
		return
	}

	flow := suite.FromActions(req.Name, actions)
	flow.Description = req.Description
	flow.Cron = req.CronExpression
	flow.Device = req.Device
	if flow.Device == "" {
		flow.Device = session.Status().Device
	}

	ts, ok := h.createSuite(c, flow)
	if !ok {
		return
	}

	h.recorders.CleanupRecording(req.SessionID)
	response.SuccessWithMessage(c, "Test suite saved", ts)
}

func (h *Handler) RecordingWebSocket(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.L().Warnf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	session, exists := h.recorders.GetSession(sessionID)
	if !exists {
		_ = conn.WriteJSON(gin.H{"error": "Recording session not found"})
		return
	}

	session.SetWebSocketConnection(conn)
	defer session.ClearWebSocketConnection(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			logger.L().Debugf("WebSocket read error: %v", err)
			return
		}
	}
}
