package users_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"luckyaces-backend/internal/api/v1/users"
	"luckyaces-backend/internal/database"
	"luckyaces-backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func setupTestDB() {
	// Use in-memory SQLite for testing
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}

	db.Migrator().DropTable(
		&models.User{},
		&models.PasswordReset{},
		&models.Transaction{},
		&models.TransactionPromotion{},
		&models.Promotion{},
		&models.PromotionUse{},
	)

	err = db.AutoMigrate(
		&models.User{},
		&models.PasswordReset{},
		&models.Transaction{},
		&models.TransactionPromotion{},
		&models.Promotion{},
		&models.PromotionUse{},
	)
	if err != nil {
		panic("failed to migrate database")
	}

	database.DB = db
	database.RedisClient = nil
}

// newTestRouter wires the handler behind a stand-in for the auth middleware
// that injects the given caller.
func newTestRouter(caller models.User, method, path string, handler gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user", caller)
		c.Next()
	})
	r.Handle(method, path, handler)
	return r
}

func seedUser(utorid string, role models.Role, points int, verified bool) models.User {
	u := models.User{
		UTORid:   utorid,
		Name:     "Seed " + utorid,
		Email:    utorid + "@mail.utoronto.ca",
		Password: "hashed",
		Role:     role,
		Points:   points,
		Verified: verified,
	}
	if err := database.DB.Create(&u).Error; err != nil {
		panic(fmt.Sprintf("failed to seed user %s: %v", utorid, err))
	}
	return u
}

func TestCreateUserHandler(t *testing.T) {
	setupTestDB()
	gin.SetMode(gin.TestMode)

	cashier := seedUser("cashusr1", models.RoleCashier, 0, true)

	tests := []struct {
		name           string
		body           map[string]interface{}
		expectedStatus int
		checkResponse  func(t *testing.T, body []byte)
	}{
		{
			name: "Valid User",
			body: map[string]interface{}{
				"utorid": "fresher1",
				"name":   "Fresh User",
				"email":  "fresh.user@mail.utoronto.ca",
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, body []byte) {
				var resp struct {
					Status int                      `json:"status"`
					Data   users.CreateUserResponse `json:"data"`
				}
				json.Unmarshal(body, &resp)
				assert.Equal(t, http.StatusCreated, resp.Status)
				assert.Equal(t, "fresher1", resp.Data.UTORid)
				assert.NotEmpty(t, resp.Data.ResetToken)
				assert.True(t, resp.Data.ExpiresAt.After(time.Now()))
				assert.False(t, resp.Data.Verified)
			},
		},
		{
			name: "Bad UTORid",
			body: map[string]interface{}{
				"utorid": "x!",
				"name":   "Bad Id",
				"email":  "bad.id@mail.utoronto.ca",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "Non-Institutional Email",
			body: map[string]interface{}{
				"utorid": "fresher2",
				"name":   "Wrong Email",
				"email":  "wrong@gmail.com",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "Duplicate UTORid",
			body: map[string]interface{}{
				"utorid": "fresher1",
				"name":   "Copy Cat",
				"email":  "copy.cat@mail.utoronto.ca",
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "Missing Fields",
			body:           map[string]interface{}{"utorid": "fresher3"},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(cashier, http.MethodPost, "/users", users.CreateUser)

			raw, _ := json.Marshal(tt.body)
			req := httptest.NewRequest(http.MethodPost, "/users", bytes.NewReader(raw))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.checkResponse != nil {
				tt.checkResponse(t, w.Body.Bytes())
			}
		})
	}
}

func TestGetUserViews(t *testing.T) {
	setupTestDB()
	gin.SetMode(gin.TestMode)

	cashier := seedUser("cashusr2", models.RoleCashier, 0, true)
	manager := seedUser("mgrusr01", models.RoleManager, 0, true)
	target := seedUser("target02", models.RoleRegular, 120, true)

	bonus := 15
	promo := models.Promotion{
		Name:      "Welcome",
		Type:      models.PromotionTypeOneTime,
		StartTime: time.Now().Add(-time.Hour),
		EndTime:   time.Now().Add(time.Hour),
		Points:    &bonus,
	}
	assert.NoError(t, database.DB.Create(&promo).Error)

	// Cashier view: limited fields plus usable one-time promotions.
	r := newTestRouter(cashier, http.MethodGet, "/users/:userId", users.GetUser)
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/users/%d", target.ID), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var limited struct {
		Data users.LimitedUserResponse `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &limited))
	assert.Equal(t, target.UTORid, limited.Data.UTORid)
	assert.Equal(t, 120, limited.Data.Points)
	assert.Len(t, limited.Data.Promotions, 1)
	assert.Equal(t, promo.ID, limited.Data.Promotions[0].ID)

	// The limited view must not leak the email.
	assert.NotContains(t, w.Body.String(), target.Email)

	// Manager view: the full record.
	r = newTestRouter(manager, http.MethodGet, "/users/:userId", users.GetUser)
	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/users/%d", target.ID), nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var full struct {
		Data users.UserResponse `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &full))
	assert.Equal(t, target.Email, full.Data.Email)
	assert.Equal(t, models.RoleRegular, full.Data.Role)

	// Unknown user.
	req = httptest.NewRequest(http.MethodGet, "/users/9999", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateTransferHandler(t *testing.T) {
	setupTestDB()
	gin.SetMode(gin.TestMode)

	sender := seedUser("sendusr1", models.RoleRegular, 100, true)
	recipient := seedUser("recvusr1", models.RoleRegular, 0, true)

	transferBody := func(amount int) *bytes.Reader {
		raw, _ := json.Marshal(map[string]interface{}{
			"type":   "transfer",
			"amount": amount,
			"remark": "test transfer",
		})
		return bytes.NewReader(raw)
	}

	r := newTestRouter(sender, http.MethodPost, "/users/:userId/transactions", users.CreateTransfer)

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/users/%d/transactions", recipient.ID), transferBody(40))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	var fresh models.User
	assert.NoError(t, database.DB.First(&fresh, recipient.ID).Error)
	assert.Equal(t, 40, fresh.Points)

	// Over balance.
	req = httptest.NewRequest(http.MethodPost, fmt.Sprintf("/users/%d/transactions", recipient.ID), transferBody(1000))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown recipient.
	req = httptest.NewRequest(http.MethodPost, "/users/9999/transactions", transferBody(10))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Unverified senders cannot transfer.
	unverified := seedUser("sendusr2", models.RoleRegular, 100, false)
	r = newTestRouter(unverified, http.MethodPost, "/users/:userId/transactions", users.CreateTransfer)
	req = httptest.NewRequest(http.MethodPost, fmt.Sprintf("/users/%d/transactions", recipient.ID), transferBody(10))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateRedemptionHandler(t *testing.T) {
	setupTestDB()
	gin.SetMode(gin.TestMode)

	user := seedUser("redmusr1", models.RoleRegular, 80, true)

	r := newTestRouter(user, http.MethodPost, "/users/me/transactions", users.CreateRedemption)

	raw, _ := json.Marshal(map[string]interface{}{"type": "redemption", "amount": 50})
	req := httptest.NewRequest(http.MethodPost, "/users/me/transactions", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	// The request alone does not debit the balance.
	var fresh models.User
	assert.NoError(t, database.DB.First(&fresh, user.ID).Error)
	assert.Equal(t, 80, fresh.Points)

	// Wrong type literal.
	raw, _ = json.Marshal(map[string]interface{}{"type": "purchase", "amount": 50})
	req = httptest.NewRequest(http.MethodPost, "/users/me/transactions", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Over balance.
	raw, _ = json.Marshal(map[string]interface{}{"type": "redemption", "amount": 500})
	req = httptest.NewRequest(http.MethodPost, "/users/me/transactions", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateMeHandler(t *testing.T) {
	setupTestDB()
	gin.SetMode(gin.TestMode)

	user := seedUser("selfusr1", models.RoleRegular, 0, true)

	r := newTestRouter(user, http.MethodPatch, "/users/me", users.UpdateMe)

	raw, _ := json.Marshal(map[string]interface{}{
		"name":     "Renamed Self",
		"birthday": "2000-12-31",
	})
	req := httptest.NewRequest(http.MethodPatch, "/users/me", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var fresh models.User
	assert.NoError(t, database.DB.First(&fresh, user.ID).Error)
	assert.Equal(t, "Renamed Self", fresh.Name)
	assert.Equal(t, "2000-12-31", *fresh.Birthday)

	// Bad birthday format.
	raw, _ = json.Marshal(map[string]interface{}{"birthday": "31/12/2000"})
	req = httptest.NewRequest(http.MethodPatch, "/users/me", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Empty patch.
	req = httptest.NewRequest(http.MethodPatch, "/users/me", bytes.NewReader([]byte("{}")))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
