package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uirecorder/pkg/auth"
	"uirecorder/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func protectedRouter(enabled bool) *gin.Engine {
	r := gin.New()
	r.Use(CORSMiddleware())
	r.GET("/private", AuthMiddleware(enabled), func(c *gin.Context) {
		response.Success(c, gin.H{"username": c.GetString("username")})
	})
	return r
}

func call(r http.Handler, method, token string) (*httptest.ResponseRecorder, response.Response) {
	req := httptest.NewRequest(method, "/private", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body response.Response
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware())
	r.POST("/actions", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/actions", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestAuthDisabled(t *testing.T) {
	_, body := call(protectedRouter(false), http.MethodGet, "")
	assert.Equal(t, 200, body.Code)
}

func TestAuthRequiresToken(t *testing.T) {
	auth.InitJWT("test-secret")

	_, body := call(protectedRouter(true), http.MethodGet, "")
	assert.Equal(t, 401, body.Code)

	_, body = call(protectedRouter(true), http.MethodGet, "garbage")
	assert.Equal(t, 401, body.Code)
}

func TestAuthAcceptsToken(t *testing.T) {
	auth.InitJWT("test-secret")
	token, err := auth.GenerateToken(1, "admin", 60)
	require.NoError(t, err)

	_, body := call(protectedRouter(true), http.MethodGet, token)
	assert.Equal(t, 200, body.Code)
	assert.Equal(t, map[string]interface{}{"username": "admin"}, body.Data)
}
