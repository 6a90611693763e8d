package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"luckyaces-backend/internal/database"
	"luckyaces-backend/internal/models"
	"luckyaces-backend/internal/services"
	"luckyaces-backend/internal/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

// Mock config for testing token generation
func setupTestConfig() {
	os.Setenv("JWT_SECRET", "test_secret")
}

func setupTestDB() {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}

	db.Migrator().DropTable(&models.User{})
	if err := db.AutoMigrate(&models.User{}); err != nil {
		panic("failed to migrate database")
	}
	db.Exec("DELETE FROM users")

	database.DB = db
}

func setupMockRedis() *miniredis.Miniredis {
	mr, err := miniredis.Run()
	if err != nil {
		panic(err)
	}

	database.RedisClient = redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	return mr
}

// Helper to generate test tokens
func generateTestToken(userID uint, role string, expired bool) string {
	claims := jwt.MapClaims{
		"user_id": userID,
		"utorid":  "tester01",
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
		// Unique per call so tokens built in the same second don't collide
		// with the revoked token, which is denylisted by exact string.
		"jti": uuid.NewString(),
	}
	if expired {
		claims["exp"] = time.Now().Add(-time.Hour).Unix()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tString, _ := token.SignedString([]byte("test_secret"))
	return tString
}

func TestAuthMiddleware(t *testing.T) {
	setupTestConfig()
	setupTestDB()
	mr := setupMockRedis()
	defer mr.Close()

	gin.SetMode(gin.TestMode)

	user := models.User{
		UTORid:   "tester01",
		Name:     "Tester",
		Email:    "tester01@mail.utoronto.ca",
		Password: "hashed",
		Role:     models.RoleRegular,
	}
	assert.NoError(t, database.DB.Create(&user).Error)

	revokedToken := generateTestToken(user.ID, "regular", false)
	assert.NoError(t, services.AddToDenylist(revokedToken, time.Hour))

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "Missing Authorization Header",
			authHeader:     "",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "authorization header is required",
		},
		{
			name:           "Invalid Token Format",
			authHeader:     "InvalidToken",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "bearer token not found",
		},
		{
			name:           "Invalid Token Signature",
			authHeader:     "Bearer invalid.token.signature",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "Invalid or expired token",
		},
		{
			name:           "Expired Token",
			authHeader:     "Bearer " + generateTestToken(user.ID, "regular", true),
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "Invalid or expired token",
		},
		{
			name:           "Revoked Token",
			authHeader:     "Bearer " + revokedToken,
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "Token has been revoked",
		},
		{
			name:           "Unknown User",
			authHeader:     "Bearer " + generateTestToken(9999, "regular", false),
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "User not found",
		},
		{
			name:           "Valid Token",
			authHeader:     "Bearer " + generateTestToken(user.ID, "regular", false),
			expectedStatus: http.StatusOK,
			expectedBody:   "Success",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/protected", AuthMiddleware(), func(c *gin.Context) {
				current, ok := CurrentUser(c)
				assert.True(t, ok)
				assert.Equal(t, user.UTORid, current.UTORid)
				c.JSON(http.StatusOK, utils.NewSuccessResponse("Success", nil))
			})

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var resp utils.Response
			assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Contains(t, resp.Message, tt.expectedBody)
		})
	}
}

func TestRequireRole(t *testing.T) {
	setupTestConfig()
	setupTestDB()
	mr := setupMockRedis()
	defer mr.Close()

	gin.SetMode(gin.TestMode)

	roles := []models.Role{models.RoleRegular, models.RoleCashier, models.RoleManager, models.RoleSuperuser}
	users := make(map[models.Role]models.User, len(roles))
	for i, role := range roles {
		u := models.User{
			UTORid:   "roleusr" + string(rune('1'+i)),
			Name:     "Role " + string(role),
			Email:    string(role) + "@mail.utoronto.ca",
			Password: "hashed",
			Role:     role,
		}
		assert.NoError(t, database.DB.Create(&u).Error)
		users[role] = u
	}

	tests := []struct {
		name           string
		callerRole     models.Role
		minRole        models.Role
		expectedStatus int
	}{
		{"Regular Below Cashier", models.RoleRegular, models.RoleCashier, http.StatusForbidden},
		{"Cashier Meets Cashier", models.RoleCashier, models.RoleCashier, http.StatusOK},
		{"Cashier Below Manager", models.RoleCashier, models.RoleManager, http.StatusForbidden},
		{"Manager Meets Manager", models.RoleManager, models.RoleManager, http.StatusOK},
		{"Manager Below Superuser", models.RoleManager, models.RoleSuperuser, http.StatusForbidden},
		{"Superuser Meets Everything", models.RoleSuperuser, models.RoleCashier, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/gated", AuthMiddleware(), RequireRole(tt.minRole), func(c *gin.Context) {
				c.JSON(http.StatusOK, utils.NewSuccessResponse("Success", nil))
			})

			caller := users[tt.callerRole]
			req := httptest.NewRequest(http.MethodGet, "/gated", nil)
			req.Header.Set("Authorization", "Bearer "+generateTestToken(caller.ID, string(tt.callerRole), false))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}
