package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(t *testing.T, handle gin.HandlerFunc) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	handle(c)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestErrorKeepsHTTP200(t *testing.T) {
	w, body := record(t, func(c *gin.Context) { NotFound(c, "Test suite not found") })

	assert.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 404, body["code"])
	assert.Equal(t, "Test suite not found", body["message"])
	assert.NotContains(t, body, "data")
}

func TestPageCountsPages(t *testing.T) {
	tests := []struct {
		total    int64
		pageSize int
		want     float64
	}{
		{0, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{5, 0, 1},
	}
	for _, tt := range tests {
		_, body := record(t, func(c *gin.Context) { Page(c, []int{}, tt.total, 1, tt.pageSize) })
		data := body["data"].(map[string]any)
		assert.Equal(t, tt.want, data["pages"], "total %d size %d", tt.total, tt.pageSize)
	}
}

func TestExtensionBodies(t *testing.T) {
	w, body := record(t, func(c *gin.Context) { OK(c, gin.H{"message": "Data cleared"}) })
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{"ok": true, "message": "Data cleared"}, body)

	w, body = record(t, func(c *gin.Context) { Fail(c, http.StatusBadRequest, "Invalid actions array") })
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, map[string]any{"ok": false, "error": "Invalid actions array"}, body)
}
