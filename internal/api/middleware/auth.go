package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"uirecorder/pkg/auth"
	"uirecorder/pkg/response"
)

// AuthMiddleware requires a valid bearer token when enabled. The
// token's claims are stored as user_id and username.
func AuthMiddleware(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			response.Unauthorized(c, "Authorization header required")
			c.Abort()
			return
		}

		claims, err := auth.ParseToken(token)
		if err != nil {
			response.Unauthorized(c, "Invalid token")
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("username", claims.Username)
		c.Next()
	}
}
