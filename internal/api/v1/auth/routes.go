package auth

import (
	"luckyaces-backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	auth.POST("/tokens", Login)
	auth.DELETE("/tokens", Logout)
	auth.POST("/resets", middleware.ResetRateLimit(), RequestReset)
	auth.POST("/resets/:resetToken", ResetPassword)
}
