package services

import (
	"testing"
	"time"

	"luckyaces-backend/internal/database"
	"luckyaces-backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func createTestPromotion(name string, promotionType models.PromotionType, start, end time.Time) models.Promotion {
	bonus := 10
	p := models.Promotion{
		Name:      name,
		Type:      promotionType,
		StartTime: start,
		EndTime:   end,
		Points:    &bonus,
	}
	if err := database.DB.Create(&p).Error; err != nil {
		panic("failed to seed promotion: " + err.Error())
	}
	return p
}

func TestPurchasePromotionWindow(t *testing.T) {
	setupTestDB()

	cashier := createTestUser("cashpr01", models.RoleCashier, 0, true)
	payer := createTestUser("payerpr1", models.RoleRegular, 0, true)

	now := time.Now()
	future := createTestPromotion("Not Yet", models.PromotionTypeAutomatic, now.Add(time.Hour), now.Add(2*time.Hour))
	past := createTestPromotion("Too Late", models.PromotionTypeAutomatic, now.Add(-2*time.Hour), now.Add(-time.Hour))

	_, err := RecordPurchase(payer.UTORid, 10.00, []uint{future.ID}, "", cashier)
	assert.ErrorIs(t, err, ErrPromotionIneligible)

	_, err = RecordPurchase(payer.UTORid, 10.00, []uint{past.ID}, "", cashier)
	assert.ErrorIs(t, err, ErrPromotionIneligible)

	_, err = RecordPurchase(payer.UTORid, 10.00, []uint{9999}, "", cashier)
	assert.ErrorIs(t, err, ErrPromotionIneligible)

	// Nothing was credited and no rows were written.
	assert.Equal(t, 0, reloadUser(t, payer.ID).Points)
	var count int64
	database.DB.Model(&models.Transaction{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestPurchasePromotionMinSpending(t *testing.T) {
	setupTestDB()

	cashier := createTestUser("cashpr02", models.RoleCashier, 0, true)
	payer := createTestUser("payerpr2", models.RoleRegular, 0, true)

	now := time.Now()
	minSpending := 50.0
	bonus := 25
	promo := models.Promotion{
		Name:        "Big Spender",
		Type:        models.PromotionTypeAutomatic,
		StartTime:   now.Add(-time.Hour),
		EndTime:     now.Add(time.Hour),
		MinSpending: &minSpending,
		Points:      &bonus,
	}
	assert.NoError(t, database.DB.Create(&promo).Error)

	_, err := RecordPurchase(payer.UTORid, 49.99, []uint{promo.ID}, "", cashier)
	assert.ErrorIs(t, err, ErrPromotionIneligible)

	row, err := RecordPurchase(payer.UTORid, 50.00, []uint{promo.ID}, "", cashier)
	assert.NoError(t, err)
	assert.Equal(t, 50*4+25, row.Amount)
}

func TestFindPromotionsForUser(t *testing.T) {
	setupTestDB()

	user := createTestUser("promview1", models.RoleRegular, 0, true)

	now := time.Now()
	active := createTestPromotion("Active", models.PromotionTypeAutomatic, now.Add(-time.Hour), now.Add(time.Hour))
	consumed := createTestPromotion("Consumed", models.PromotionTypeOneTime, now.Add(-time.Hour), now.Add(time.Hour))
	createTestPromotion("Future", models.PromotionTypeAutomatic, now.Add(time.Hour), now.Add(2*time.Hour))
	createTestPromotion("Past", models.PromotionTypeAutomatic, now.Add(-2*time.Hour), now.Add(-time.Hour))

	assert.NoError(t, database.DB.Create(&models.PromotionUse{
		PromotionID:   consumed.ID,
		UserID:        user.ID,
		TransactionID: 1,
	}).Error)

	visible, total, err := FindPromotions(PromotionFilter{ForUser: &user, Page: 1, Limit: 10})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, active.ID, visible[0].ID)

	// The manager view sees everything.
	all, total, err := FindPromotions(PromotionFilter{Page: 1, Limit: 10})
	assert.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, all, 4)
}

func TestEligibleOneTimePromotions(t *testing.T) {
	setupTestDB()

	user := createTestUser("promview2", models.RoleRegular, 0, true)

	now := time.Now()
	open := createTestPromotion("Open", models.PromotionTypeOneTime, now.Add(-time.Hour), now.Add(time.Hour))
	used := createTestPromotion("Used", models.PromotionTypeOneTime, now.Add(-time.Hour), now.Add(time.Hour))
	createTestPromotion("Automatic", models.PromotionTypeAutomatic, now.Add(-time.Hour), now.Add(time.Hour))

	assert.NoError(t, database.DB.Create(&models.PromotionUse{
		PromotionID:   used.ID,
		UserID:        user.ID,
		TransactionID: 1,
	}).Error)

	eligible, err := EligibleOneTimePromotions(user.ID)
	assert.NoError(t, err)
	assert.Len(t, eligible, 1)
	assert.Equal(t, open.ID, eligible[0].ID)
}

func TestUpdatePromotionFrozenFields(t *testing.T) {
	setupTestDB()

	now := time.Now()
	started := createTestPromotion("Started", models.PromotionTypeAutomatic, now.Add(-time.Hour), now.Add(time.Hour))
	pending := createTestPromotion("Pending", models.PromotionTypeAutomatic, now.Add(time.Hour), now.Add(2*time.Hour))

	// A started promotion's financial fields are frozen.
	_, err := UpdatePromotion(started.ID, map[string]interface{}{"rate": 0.05})
	assert.ErrorIs(t, err, ErrPromotionStarted)

	_, err = UpdatePromotion(started.ID, map[string]interface{}{"min_spending": 10.0})
	assert.ErrorIs(t, err, ErrPromotionStarted)

	// Name and end time stay editable.
	updated, err := UpdatePromotion(started.ID, map[string]interface{}{"name": "Renamed"})
	assert.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)

	// Anything goes before the window opens.
	updated, err = UpdatePromotion(pending.ID, map[string]interface{}{"rate": 0.05})
	assert.NoError(t, err)
	assert.Equal(t, 0.05, *updated.Rate)

	_, err = UpdatePromotion(9999, map[string]interface{}{"name": "x"})
	assert.ErrorIs(t, err, ErrPromotionNotFound)
}

func TestUpdatePromotionAfterEnd(t *testing.T) {
	setupTestDB()

	now := time.Now()
	closed := createTestPromotion("Closed", models.PromotionTypeAutomatic, now.Add(-3*time.Hour), now.Add(-time.Hour))

	// A closed window freezes everything, non-financial fields included.
	_, err := UpdatePromotion(closed.ID, map[string]interface{}{"name": "Renamed"})
	assert.ErrorIs(t, err, ErrPromotionEnded)

	_, err = UpdatePromotion(closed.ID, map[string]interface{}{"end_time": now.Add(time.Hour)})
	assert.ErrorIs(t, err, ErrPromotionEnded)

	var fresh models.Promotion
	assert.NoError(t, database.DB.First(&fresh, closed.ID).Error)
	assert.Equal(t, "Closed", fresh.Name)
}

func TestDeletePromotion(t *testing.T) {
	setupTestDB()

	now := time.Now()
	started := createTestPromotion("Started", models.PromotionTypeAutomatic, now.Add(-time.Hour), now.Add(time.Hour))
	pending := createTestPromotion("Pending", models.PromotionTypeAutomatic, now.Add(time.Hour), now.Add(2*time.Hour))

	assert.ErrorIs(t, DeletePromotion(started.ID), ErrPromotionStarted)
	assert.NoError(t, DeletePromotion(pending.ID))
	assert.ErrorIs(t, DeletePromotion(pending.ID), ErrPromotionNotFound)
}
