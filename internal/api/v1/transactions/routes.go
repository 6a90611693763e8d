package transactions

import (
	"luckyaces-backend/internal/middleware"
	"luckyaces-backend/internal/models"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/transactions", middleware.RequireRole(models.RoleCashier), CreateTransaction)
	router.GET("/transactions", middleware.RequireRole(models.RoleManager), ListTransactions)
	router.GET("/transactions/export", middleware.RequireRole(models.RoleManager), ExportTransactions)
	router.GET("/transactions/:transactionId", middleware.RequireRole(models.RoleManager), GetTransaction)
	router.PATCH("/transactions/:transactionId/suspicious", middleware.RequireRole(models.RoleManager), SetSuspicious)
	router.PATCH("/transactions/:transactionId/processed", middleware.RequireRole(models.RoleCashier), ProcessRedemption)
}
