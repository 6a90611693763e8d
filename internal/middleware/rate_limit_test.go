package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestResetRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mr := setupMockRedis()
	defer mr.Close()

	r := gin.New()
	r.POST("/auth/resets", ResetRateLimit(), func(c *gin.Context) {
		var body struct {
			UTORid string `json:"utorid"`
		}
		assert.NoError(t, c.ShouldBindJSON(&body))
		c.JSON(http.StatusAccepted, gin.H{"utorid": body.UTORid})
	})

	post := func(utorid, ip string) *httptest.ResponseRecorder {
		raw, _ := json.Marshal(gin.H{"utorid": utorid})
		req := httptest.NewRequest(http.MethodPost, "/auth/resets", bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = ip + ":4242"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	// The first request passes and the handler can still bind the body.
	w := post("limited1", "10.0.0.1")
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), "limited1")

	// The limit follows the utorid, not the address.
	w = post("limited1", "10.0.0.2")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// Other utorids are unaffected.
	w = post("someone2", "10.0.0.1")
	assert.Equal(t, http.StatusAccepted, w.Code)

	// The window reopens after 60 seconds.
	mr.FastForward(61 * time.Second)
	w = post("limited1", "10.0.0.3")
	assert.Equal(t, http.StatusAccepted, w.Code)
}
