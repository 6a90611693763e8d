package promotions

import (
	"luckyaces-backend/internal/middleware"
	"luckyaces-backend/internal/models"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/promotions", middleware.RequireRole(models.RoleManager), CreatePromotion)
	router.GET("/promotions", ListPromotions)
	router.GET("/promotions/:promotionId", GetPromotion)
	router.PATCH("/promotions/:promotionId", middleware.RequireRole(models.RoleManager), UpdatePromotion)
	router.DELETE("/promotions/:promotionId", middleware.RequireRole(models.RoleManager), DeletePromotion)
}
