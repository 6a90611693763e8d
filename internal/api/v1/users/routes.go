package users

import (
	"luckyaces-backend/internal/api/v1/transactions"
	"luckyaces-backend/internal/middleware"
	"luckyaces-backend/internal/models"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/users", middleware.RequireRole(models.RoleCashier), CreateUser)
	router.GET("/users", middleware.RequireRole(models.RoleManager), ListUsers)

	router.GET("/users/me", GetMe)
	router.PATCH("/users/me", UpdateMe)
	router.PATCH("/users/me/password", ChangePassword)
	router.POST("/users/me/transactions", CreateRedemption)
	router.GET("/users/me/transactions", transactions.ListOwnTransactions)

	router.GET("/users/:userId", middleware.RequireRole(models.RoleCashier), GetUser)
	router.PATCH("/users/:userId", middleware.RequireRole(models.RoleManager), UpdateUser)
	router.POST("/users/:userId/transactions", CreateTransfer)
}
