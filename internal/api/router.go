package api

import (
	"luckyaces-backend/config"
	_ "luckyaces-backend/docs"
	"luckyaces-backend/internal/api/v1/auth"
	"luckyaces-backend/internal/api/v1/events"
	"luckyaces-backend/internal/api/v1/promotions"
	"luckyaces-backend/internal/api/v1/transactions"
	"luckyaces-backend/internal/api/v1/uploads"
	"luckyaces-backend/internal/api/v1/users"
	"luckyaces-backend/internal/database"
	"luckyaces-backend/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func NewRouter() (*gin.Engine, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	_, err = database.Connect(cfg.DSN())
	if err != nil {
		return nil, err
	}

	err = database.ConnectRedis(cfg)
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(middleware.Logger(), gin.Recovery())

	// Configure CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:8080"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1
	v1 := router.Group("/api/v1")
	{
		auth.RegisterRoutes(v1)

		authorized := v1.Group("/")
		authorized.Use(middleware.AuthMiddleware())
		{
			users.RegisterRoutes(authorized)
			transactions.RegisterRoutes(authorized)
			promotions.RegisterRoutes(authorized)
			events.RegisterRoutes(authorized)
			uploads.RegisterRoutes(authorized)
		}
	}

	return router, nil
}
