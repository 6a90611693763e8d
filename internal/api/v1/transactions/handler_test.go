package transactions_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"luckyaces-backend/internal/api/v1/transactions"
	"luckyaces-backend/internal/database"
	"luckyaces-backend/internal/models"
	"luckyaces-backend/internal/services"
	"luckyaces-backend/internal/utils"

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
		&models.Transaction{},
		&models.TransactionPromotion{},
		&models.Promotion{},
		&models.PromotionUse{},
	)

	err = db.AutoMigrate(
		&models.User{},
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

func postJSON(r *gin.Engine, path string, body map[string]interface{}) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func patchJSON(r *gin.Engine, path string, body map[string]interface{}) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPatch, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateTransactionHandler(t *testing.T) {
	setupTestDB()
	gin.SetMode(gin.TestMode)

	cashier := seedUser("cashtx01", models.RoleCashier, 0, true)
	manager := seedUser("mgrtx001", models.RoleManager, 0, true)
	payer := seedUser("payertx1", models.RoleRegular, 0, true)

	cashierRouter := newTestRouter(cashier, http.MethodPost, "/transactions", transactions.CreateTransaction)
	managerRouter := newTestRouter(manager, http.MethodPost, "/transactions", transactions.CreateTransaction)

	// A cashier records a purchase.
	w := postJSON(cashierRouter, "/transactions", map[string]interface{}{
		"utorid": payer.UTORid,
		"type":   "purchase",
		"spent":  19.99,
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Data transactions.TransactionResponse `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.TransactionTypePurchase, resp.Data.Type)
	assert.Equal(t, 76, resp.Data.Amount)
	assert.Equal(t, cashier.UTORid, resp.Data.CreatedBy)
	purchaseID := resp.Data.ID

	// Purchases need a spent amount.
	w = postJSON(cashierRouter, "/transactions", map[string]interface{}{
		"utorid": payer.UTORid,
		"type":   "purchase",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Adjustments are manager-only.
	amount := -10
	w = postJSON(cashierRouter, "/transactions", map[string]interface{}{
		"utorid":    payer.UTORid,
		"type":      "adjustment",
		"amount":    amount,
		"relatedId": purchaseID,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = postJSON(managerRouter, "/transactions", map[string]interface{}{
		"utorid":    payer.UTORid,
		"type":      "adjustment",
		"amount":    amount,
		"relatedId": purchaseID,
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	// Adjustments must reference a real transaction.
	w = postJSON(managerRouter, "/transactions", map[string]interface{}{
		"utorid":    payer.UTORid,
		"type":      "adjustment",
		"amount":    amount,
		"relatedId": 9999,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Transfers and redemptions go through their own endpoints.
	w = postJSON(cashierRouter, "/transactions", map[string]interface{}{
		"utorid": payer.UTORid,
		"type":   "transfer",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown payer.
	w = postJSON(cashierRouter, "/transactions", map[string]interface{}{
		"utorid": "nobody99",
		"type":   "purchase",
		"spent":  10.00,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProcessRedemptionHandler(t *testing.T) {
	setupTestDB()
	gin.SetMode(gin.TestMode)

	cashier := seedUser("cashtx02", models.RoleCashier, 0, true)
	user := seedUser("redtx001", models.RoleRegular, 100, true)

	row, err := services.RequestRedemption(user, 60, "")
	assert.NoError(t, err)

	r := newTestRouter(cashier, http.MethodPatch, "/transactions/:transactionId/processed", transactions.ProcessRedemption)

	// Processed can only be set to true.
	w := patchJSON(r, fmt.Sprintf("/transactions/%d/processed", row.ID), map[string]interface{}{"processed": false})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = patchJSON(r, fmt.Sprintf("/transactions/%d/processed", row.ID), map[string]interface{}{"processed": true})
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data transactions.TransactionResponse `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Data.Processed)
	assert.Equal(t, cashier.UTORid, *resp.Data.ProcessedBy)

	var fresh models.User
	assert.NoError(t, database.DB.First(&fresh, user.ID).Error)
	assert.Equal(t, 40, fresh.Points)

	// A second processing attempt is rejected.
	w = patchJSON(r, fmt.Sprintf("/transactions/%d/processed", row.ID), map[string]interface{}{"processed": true})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = patchJSON(r, "/transactions/9999/processed", map[string]interface{}{"processed": true})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSetSuspiciousHandler(t *testing.T) {
	setupTestDB()
	gin.SetMode(gin.TestMode)

	cashier := seedUser("cashtx03", models.RoleCashier, 0, true)
	manager := seedUser("mgrtx002", models.RoleManager, 0, true)
	payer := seedUser("payertx2", models.RoleRegular, 0, true)

	row, err := services.RecordPurchase(payer.UTORid, 10.00, nil, "", cashier)
	assert.NoError(t, err)

	r := newTestRouter(manager, http.MethodPatch, "/transactions/:transactionId/suspicious", transactions.SetSuspicious)

	w := patchJSON(r, fmt.Sprintf("/transactions/%d/suspicious", row.ID), map[string]interface{}{"suspicious": true})
	assert.Equal(t, http.StatusOK, w.Code)

	var fresh models.User
	assert.NoError(t, database.DB.First(&fresh, payer.ID).Error)
	assert.Equal(t, 0, fresh.Points)

	w = patchJSON(r, fmt.Sprintf("/transactions/%d/suspicious", row.ID), map[string]interface{}{"suspicious": false})
	assert.Equal(t, http.StatusOK, w.Code)

	assert.NoError(t, database.DB.First(&fresh, payer.ID).Error)
	assert.Equal(t, 40, fresh.Points)

	w = patchJSON(r, "/transactions/9999/suspicious", map[string]interface{}{"suspicious": true})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportTransactionsHandler(t *testing.T) {
	setupTestDB()
	gin.SetMode(gin.TestMode)

	cashier := seedUser("cashtx05", models.RoleCashier, 0, true)
	manager := seedUser("mgrtx004", models.RoleManager, 0, true)
	payer := seedUser("payertx3", models.RoleRegular, 0, true)

	_, err := services.RecordPurchase(payer.UTORid, 12.50, nil, "coffee run", cashier)
	assert.NoError(t, err)

	r := newTestRouter(manager, http.MethodGet, "/transactions/export", transactions.ExportTransactions)

	req := httptest.NewRequest(http.MethodGet, "/transactions/export", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment; filename=transactions_")

	body := w.Body.String()
	assert.Contains(t, body, "ID,Time,User ID,Type,Amount")
	assert.Contains(t, body, "purchase")
	assert.Contains(t, body, "coffee run")
	assert.Contains(t, body, cashier.UTORid)

	// A bad filter still answers 400, not a CSV.
	req = httptest.NewRequest(http.MethodGet, "/transactions/export?type=bogus", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListTransactionsHandler(t *testing.T) {
	setupTestDB()
	gin.SetMode(gin.TestMode)

	cashier := seedUser("cashtx04", models.RoleCashier, 0, true)
	manager := seedUser("mgrtx003", models.RoleManager, 0, true)
	alice := seedUser("alicetx1", models.RoleRegular, 0, true)
	bob := seedUser("bobtx001", models.RoleRegular, 0, true)

	_, err := services.RecordPurchase(alice.UTORid, 10.00, nil, "", cashier)
	assert.NoError(t, err)
	_, err = services.RecordPurchase(bob.UTORid, 20.00, nil, "", cashier)
	assert.NoError(t, err)

	r := newTestRouter(manager, http.MethodGet, "/transactions", transactions.ListTransactions)

	req := httptest.NewRequest(http.MethodGet, "/transactions", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data utils.ListData `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(2), resp.Data.Count)

	// Filtering by type and rejecting a bad operator.
	req = httptest.NewRequest(http.MethodGet, "/transactions?type=purchase", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/transactions?type=bogus", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/transactions?amount=10&operator=eq", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// The self-scoped listing only returns the caller's rows.
	own := newTestRouter(alice, http.MethodGet, "/users/me/transactions", transactions.ListOwnTransactions)
	req = httptest.NewRequest(http.MethodGet, "/users/me/transactions", nil)
	w = httptest.NewRecorder()
	own.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Data.Count)
}
