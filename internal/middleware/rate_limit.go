package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"luckyaces-backend/internal/database"
	"luckyaces-backend/internal/utils"

	"github.com/gin-gonic/gin"
)

const resetRequestWindow = 60 * time.Second

// ResetRateLimit throttles password-reset requests to one per utorid per
// 60 seconds using a Redis fixed window. Further requests inside the window
// get 429. Requests without a parseable utorid fall back to the client IP.
func ResetRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if database.RedisClient == nil {
			c.Next()
			return
		}

		key := "reset-limit:" + resetSubject(c)
		ok, err := database.RedisClient.SetNX(database.Ctx, key, 1, resetRequestWindow).Result()
		if err != nil {
			c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to check rate limit"))
			c.Abort()
			return
		}
		if !ok {
			c.JSON(http.StatusTooManyRequests, utils.NewErrorResponse(http.StatusTooManyRequests, "Too many reset requests, try again later"))
			c.Abort()
			return
		}

		c.Next()
	}
}

// resetSubject peeks the utorid out of the request body, restoring the body
// so the handler can still bind it.
func resetSubject(c *gin.Context) string {
	raw, err := c.GetRawData()
	if err != nil {
		return c.ClientIP()
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(raw))

	var body struct {
		UTORid string `json:"utorid"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || body.UTORid == "" {
		return c.ClientIP()
	}
	return body.UTORid
}
