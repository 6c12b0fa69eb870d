package handlers

import (
	"github.com/gin-gonic/gin"

	"uirecorder/pkg/auth"
	"uirecorder/pkg/response"
	"uirecorder/pkg/utils"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required,min=3"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	Username  string `json:"username"`
	ExpiresIn int    `json:"expires_in"`
}

// Login issues a token for the configured admin account.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	jwtCfg := h.cfg.JWT
	if jwtCfg.AdminPassword == "" || req.Username != jwtCfg.AdminUser || !utils.CheckPassword(req.Password, jwtCfg.AdminPassword) {
		response.Unauthorized(c, "Invalid username or password")
		return
	}

	token, err := auth.GenerateToken(1, req.Username, jwtCfg.ExpireTime)
	if err != nil {
		response.InternalServerError(c, "Failed to generate token")
		return
	}

	response.SuccessWithMessage(c, "Login successful", LoginResponse{
		Token:     token,
		Username:  req.Username,
		ExpiresIn: jwtCfg.ExpireTime,
	})
}
