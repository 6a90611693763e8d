package main

import (
	"log"

	"luckyaces-backend/config"
	"luckyaces-backend/internal/api"
	"luckyaces-backend/internal/database"
	"luckyaces-backend/internal/models"
	"luckyaces-backend/pkg/logger"

	"golang.org/x/crypto/bcrypt"
)

// @title luckyaces-backend API
// @version 1.0
// @description Campus loyalty points platform: accounts, point transactions, promotions and events.
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	err = logger.InitLogger(&logger.Config{
		Level:      cfg.LogLevel,
		Filename:   cfg.LogFilename,
		MaxSize:    cfg.LogMaxSize,
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAge,
		Compress:   cfg.LogCompress,
	})
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	router, err := api.NewRouter()
	if err != nil {
		log.Fatalf("failed to create router: %v", err)
	}

	// Migrate the schema
	err = database.DB.AutoMigrate(
		&models.User{},
		&models.PasswordReset{},
		&models.Transaction{},
		&models.TransactionPromotion{},
		&models.Promotion{},
		&models.PromotionUse{},
		&models.Event{},
	)
	if err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	initSuperuser()

	if err := router.Run(":8080"); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}

func initSuperuser() {
	superUTORid := "clive123"
	superEmail := "clive.su@mail.utoronto.ca"
	superPassword := "SuperUser123!"

	var superuser models.User
	result := database.DB.Where("utorid = ?", superUTORid).First(&superuser)

	if result.Error != nil {
		if result.Error.Error() == "record not found" {
			hashedPassword, err := bcrypt.GenerateFromPassword([]byte(superPassword), bcrypt.DefaultCost)
			if err != nil {
				log.Fatalf("failed to hash superuser password: %v", err)
			}

			superuser = models.User{
				UTORid:   superUTORid,
				Name:     "Clive Su",
				Email:    superEmail,
				Password: string(hashedPassword),
				Role:     models.RoleSuperuser,
				Verified: true,
			}

			if err := database.DB.Create(&superuser).Error; err != nil {
				log.Fatalf("failed to create superuser: %v", err)
			}
			log.Println("Superuser created successfully!")
		} else {
			log.Fatalf("failed to check for superuser: %v", result.Error)
		}
	} else {
		log.Println("Superuser already exists.")
	}
}
