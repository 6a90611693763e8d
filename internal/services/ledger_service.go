package services

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"luckyaces-backend/config"
	"luckyaces-backend/internal/database"
	"luckyaces-backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrNotVerified          = errors.New("user is not verified")
	ErrInvalidAmount        = errors.New("amount must be a positive integer")
	ErrInsufficientBalance  = errors.New("insufficient point balance")
	ErrNotRedemption        = errors.New("transaction is not a redemption")
	ErrAlreadyProcessed     = errors.New("redemption has already been processed")
	ErrAdjustmentSuspicious = errors.New("adjustments cannot be flagged suspicious")
	ErrSameUserTransfer     = errors.New("cannot transfer points to yourself")
)

// purchasePoints computes the points earned by a purchase: base points per
// whole dollar plus, per applied promotion, a rate share of the amount spent
// and/or a flat bonus. All promotion eligibility is checked before this runs.
func purchasePoints(spent float64, promotions []models.Promotion, pointsPerDollar int) int {
	earned := int(math.Floor(spent)) * pointsPerDollar
	for _, p := range promotions {
		if p.Rate != nil {
			earned += int(math.Round(*p.Rate * spent))
		}
		if p.Points != nil {
			earned += *p.Points
		}
	}
	return earned
}

// RecordPurchase writes a purchase ledger row for the payer and credits the
// earned points. One-time promotions are consumed in the same database
// transaction. A purchase recorded by a suspicious cashier is created with
// the suspicious flag set and credits nothing until a manager clears it.
func RecordPurchase(payerUTORid string, spent float64, promotionIDs []uint, remark string, actor models.User) (*models.Transaction, error) {
	if spent <= 0 {
		return nil, ErrInvalidAmount
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	payer, err := FindUserByUTORid(payerUTORid)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var row *models.Transaction

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		promotions, err := validatePurchasePromotions(tx, &payer, spent, promotionIDs, now)
		if err != nil {
			return err
		}

		earned := purchasePoints(spent, promotions, cfg.PointsPerDollar)

		row = &models.Transaction{
			UserID:       payer.ID,
			Type:         models.TransactionTypePurchase,
			Amount:       earned,
			Spent:        &spent,
			PromotionIDs: models.EncodePromotionIDs(promotionIDs),
			Remark:       remark,
			CreatedBy:    actor.UTORid,
			Suspicious:   actor.Suspicious,
		}
		if err := tx.Create(row).Error; err != nil {
			return err
		}

		for _, p := range promotions {
			if err := tx.Create(&models.TransactionPromotion{
				TransactionID: row.ID,
				PromotionID:   p.ID,
			}).Error; err != nil {
				return err
			}
			if p.Type == models.PromotionTypeOneTime {
				if err := tx.Create(&models.PromotionUse{
					PromotionID:   p.ID,
					UserID:        payer.ID,
					TransactionID: row.ID,
				}).Error; err != nil {
					return err
				}
			}
		}

		// Points from a suspicious cashier are withheld until the row is cleared.
		if !row.Suspicious {
			if err := tx.Model(&models.User{}).Where("id = ?", payer.ID).
				Update("points", gorm.Expr("points + ?", earned)).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	InvalidateUserCache(payer.ID)
	return row, nil
}

// RecordAdjustment applies a signed correction to a user's balance,
// referencing the transaction being corrected. Promotion windows are not
// re-validated: adjustments are historical corrections.
func RecordAdjustment(targetUTORid string, amount int, relatedID uint, promotionIDs []uint, remark string, actor models.User) (*models.Transaction, error) {
	target, err := FindUserByUTORid(targetUTORid)
	if err != nil {
		return nil, err
	}

	var related models.Transaction
	if err := database.DB.First(&related, relatedID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}

	var row *models.Transaction
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		row = &models.Transaction{
			UserID:       target.ID,
			Type:         models.TransactionTypeAdjustment,
			Amount:       amount,
			RelatedID:    &relatedID,
			PromotionIDs: models.EncodePromotionIDs(promotionIDs),
			Remark:       remark,
			CreatedBy:    actor.UTORid,
		}
		if err := tx.Create(row).Error; err != nil {
			return err
		}
		for _, pid := range promotionIDs {
			if err := tx.Create(&models.TransactionPromotion{
				TransactionID: row.ID,
				PromotionID:   pid,
			}).Error; err != nil {
				return err
			}
		}
		return tx.Model(&models.User{}).Where("id = ?", target.ID).
			Update("points", gorm.Expr("points + ?", amount)).Error
	})
	if err != nil {
		return nil, err
	}

	InvalidateUserCache(target.ID)
	return row, nil
}

// RecordTransfer moves points from the sender to the recipient. The sender
// must be verified and hold at least the transferred amount. Both balance
// updates and both ledger rows commit atomically or not at all.
func RecordTransfer(sender models.User, recipientUTORid string, amount int, remark string) (*models.Transaction, error) {
	if !sender.Verified {
		return nil, ErrNotVerified
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	recipient, err := FindUserByUTORid(recipientUTORid)
	if err != nil {
		return nil, err
	}
	if recipient.ID == sender.ID {
		return nil, ErrSameUserTransfer
	}

	var senderRow *models.Transaction
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		// Guard the debit with the balance condition so concurrent transfers
		// cannot drive the sender negative.
		result := tx.Model(&models.User{}).
			Where("id = ? AND points >= ?", sender.ID, amount).
			Update("points", gorm.Expr("points - ?", amount))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrInsufficientBalance
		}

		senderRow = &models.Transaction{
			UserID:    sender.ID,
			Type:      models.TransactionTypeTransfer,
			Amount:    -amount,
			RelatedID: &recipient.ID,
			Remark:    remark,
			CreatedBy: sender.UTORid,
		}
		if err := tx.Create(senderRow).Error; err != nil {
			return err
		}

		recipientRow := &models.Transaction{
			UserID:    recipient.ID,
			Type:      models.TransactionTypeTransfer,
			Amount:    amount,
			RelatedID: &sender.ID,
			Remark:    remark,
			CreatedBy: sender.UTORid,
		}
		if err := tx.Create(recipientRow).Error; err != nil {
			return err
		}

		return tx.Model(&models.User{}).Where("id = ?", recipient.ID).
			Update("points", gorm.Expr("points + ?", amount)).Error
	})
	if err != nil {
		return nil, err
	}

	InvalidateUserCache(sender.ID)
	InvalidateUserCache(recipient.ID)
	return senderRow, nil
}

// RequestRedemption creates an unprocessed redemption. The request is
// rejected when it exceeds the user's current balance, but the balance is
// only debited once a cashier processes the redemption.
func RequestRedemption(user models.User, amount int, remark string) (*models.Transaction, error) {
	if !user.Verified {
		return nil, ErrNotVerified
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var fresh models.User
	if err := database.DB.First(&fresh, user.ID).Error; err != nil {
		return nil, err
	}
	if fresh.Points < amount {
		return nil, ErrInsufficientBalance
	}

	row := &models.Transaction{
		UserID:    user.ID,
		Type:      models.TransactionTypeRedemption,
		Amount:    -amount,
		Redeemed:  &amount,
		Remark:    remark,
		CreatedBy: user.UTORid,
	}
	if err := database.DB.Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// ProcessRedemption marks a pending redemption processed and debits the
// requester's balance. Processing is idempotently rejected the second time.
func ProcessRedemption(transactionID uint, processor models.User) (*models.Transaction, error) {
	var row models.Transaction
	if err := database.DB.First(&row, transactionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}

	if row.Type != models.TransactionTypeRedemption {
		return nil, ErrNotRedemption
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		// The processed flag is flipped with a conditional update so two
		// concurrent processors cannot both claim the redemption.
		result := tx.Model(&models.Transaction{}).
			Where("id = ? AND processed = ?", row.ID, false).
			Updates(map[string]interface{}{
				"processed":    true,
				"processed_by": processor.UTORid,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrAlreadyProcessed
		}

		// The debit carries the same balance guard as transfers; failure
		// rolls the processed flag back.
		result = tx.Model(&models.User{}).
			Where("id = ? AND points >= ?", row.UserID, *row.Redeemed).
			Update("points", gorm.Expr("points - ?", *row.Redeemed))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrInsufficientBalance
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	InvalidateUserCache(row.UserID)
	database.DB.First(&row, transactionID)
	return &row, nil
}

// appliedDelta is the balance effect a ledger row currently carries: an
// unprocessed redemption has none, everything else its signed amount.
func appliedDelta(t *models.Transaction) int {
	if t.Type == models.TransactionTypeRedemption && !t.Processed {
		return 0
	}
	return t.Amount
}

// SetSuspicious toggles the suspicious flag. Flagging reverses the row's
// applied balance effect without deleting the row; clearing the flag
// re-applies it. Adjustments cannot be flagged. The reversal is row-local
// and never cascades to adjustments referencing the row.
func SetSuspicious(transactionID uint, suspicious bool) (*models.Transaction, error) {
	var row models.Transaction
	if err := database.DB.First(&row, transactionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}

	if row.Type == models.TransactionTypeAdjustment {
		return nil, ErrAdjustmentSuspicious
	}
	if row.Suspicious == suspicious {
		return &row, nil
	}

	delta := appliedDelta(&row)
	if suspicious {
		delta = -delta
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&row).Update("suspicious", suspicious).Error; err != nil {
			return err
		}
		if delta == 0 {
			return nil
		}
		return tx.Model(&models.User{}).Where("id = ?", row.UserID).
			Update("points", gorm.Expr("points + ?", delta)).Error
	})
	if err != nil {
		return nil, err
	}

	InvalidateUserCache(row.UserID)
	database.DB.First(&row, transactionID)
	return &row, nil
}

func FindTransactionByID(id uint) (models.Transaction, error) {
	var row models.Transaction
	if err := database.DB.First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return row, ErrTransactionNotFound
		}
		return row, err
	}
	return row, nil
}

// TransactionFilter defines criteria for listing ledger rows.
type TransactionFilter struct {
	UserID      *uint
	Name        string // owner utorid or display name
	CreatedBy   string
	Type        *models.TransactionType
	Suspicious  *bool
	RelatedID   *uint
	PromotionID *uint
	// Amount with Operator "gte" or "lte" bounds the signed delta.
	Amount   *int
	Operator string
	Page     int
	Limit    int
}

// FindTransactions retrieves a paginated list of ledger rows with filtering.
func FindTransactions(filter TransactionFilter) ([]models.Transaction, int64, error) {
	var transactions []models.Transaction
	var total int64

	query := database.DB.Model(&models.Transaction{})

	if filter.UserID != nil {
		query = query.Where("transactions.user_id = ?", *filter.UserID)
	}
	if filter.Name != "" {
		pattern := "%" + filter.Name + "%"
		query = query.Joins("JOIN users ON users.id = transactions.user_id").
			Where("users.utorid LIKE ? OR users.name LIKE ?", pattern, pattern)
	}
	if filter.CreatedBy != "" {
		query = query.Where("transactions.created_by = ?", filter.CreatedBy)
	}
	if filter.Type != nil {
		query = query.Where("transactions.type = ?", *filter.Type)
	}
	if filter.Suspicious != nil {
		query = query.Where("transactions.suspicious = ?", *filter.Suspicious)
	}
	if filter.RelatedID != nil {
		query = query.Where("transactions.related_id = ?", *filter.RelatedID)
	}
	if filter.PromotionID != nil {
		query = query.Where("transactions.id IN (?)", database.DB.Model(&models.TransactionPromotion{}).
			Select("transaction_id").Where("promotion_id = ?", *filter.PromotionID))
	}
	if filter.Amount != nil {
		switch filter.Operator {
		case "gte":
			query = query.Where("transactions.amount >= ?", *filter.Amount)
		case "lte":
			query = query.Where("transactions.amount <= ?", *filter.Amount)
		default:
			return nil, 0, fmt.Errorf("operator must be gte or lte")
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := query.Order("transactions.created_at desc").Limit(filter.Limit).Offset(offset).Find(&transactions).Error; err != nil {
		return nil, 0, err
	}

	return transactions, total, nil
}

// GenerateTransactionCSV renders ledger rows as a CSV document for export.
func GenerateTransactionCSV(transactions []models.Transaction) ([]byte, error) {
	b := &bytes.Buffer{}
	w := csv.NewWriter(b)

	header := []string{
		"ID", "Time", "User ID", "Type", "Amount",
		"Spent", "Redeemed", "Related ID", "Remark",
		"Created By", "Suspicious", "Processed", "Processed By",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, t := range transactions {
		spent := ""
		if t.Spent != nil {
			spent = fmt.Sprintf("%.2f", *t.Spent)
		}
		redeemed := ""
		if t.Redeemed != nil {
			redeemed = strconv.Itoa(*t.Redeemed)
		}
		relatedID := ""
		if t.RelatedID != nil {
			relatedID = strconv.FormatUint(uint64(*t.RelatedID), 10)
		}
		processedBy := ""
		if t.ProcessedBy != nil {
			processedBy = *t.ProcessedBy
		}

		record := []string{
			strconv.FormatUint(uint64(t.ID), 10),
			t.CreatedAt.Format(time.RFC3339Nano),
			strconv.FormatUint(uint64(t.UserID), 10),
			string(t.Type),
			strconv.Itoa(t.Amount),
			spent,
			redeemed,
			relatedID,
			t.Remark,
			t.CreatedBy,
			strconv.FormatBool(t.Suspicious),
			strconv.FormatBool(t.Processed),
			processedBy,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}
