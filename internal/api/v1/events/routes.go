package events

import (
	"luckyaces-backend/internal/middleware"
	"luckyaces-backend/internal/models"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/events", middleware.RequireRole(models.RoleManager), CreateEvent)
	router.GET("/events", ListEvents)
	router.GET("/events/:eventId", GetEvent)
	router.PATCH("/events/:eventId", UpdateEvent)
	router.DELETE("/events/:eventId", middleware.RequireRole(models.RoleManager), DeleteEvent)

	router.POST("/events/:eventId/guests", AddGuest)
	router.POST("/events/:eventId/guests/me", RSVP)
	router.DELETE("/events/:eventId/guests/me", CancelRSVP)
	router.DELETE("/events/:eventId/guests/:userId", middleware.RequireRole(models.RoleManager), RemoveGuest)

	router.POST("/events/:eventId/organizers", middleware.RequireRole(models.RoleManager), AddOrganizer)
	router.DELETE("/events/:eventId/organizers/:userId", middleware.RequireRole(models.RoleManager), RemoveOrganizer)

	router.POST("/events/:eventId/transactions", RewardPoints)
}
