package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type TransactionType string

const (
	TransactionTypePurchase   TransactionType = "purchase"
	TransactionTypeAdjustment TransactionType = "adjustment"
	TransactionTypeTransfer   TransactionType = "transfer"
	TransactionTypeRedemption TransactionType = "redemption"
	TransactionTypeEvent      TransactionType = "event"
)

// Valid reports whether t is one of the known ledger entry types.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypePurchase, TransactionTypeAdjustment, TransactionTypeTransfer,
		TransactionTypeRedemption, TransactionTypeEvent:
		return true
	}
	return false
}

// Transaction is one row of the append-only points ledger. Amount is the
// signed point delta applied to UserID's balance. Core fields are immutable
// once written; only Suspicious and the redemption Processed/ProcessedBy
// fields may change afterwards.
type Transaction struct {
	ID        uint            `gorm:"primarykey"`
	CreatedAt time.Time       `gorm:"precision:3"`
	UserID    uint            `gorm:"index;not null"`
	Type      TransactionType `gorm:"type:varchar(20);index;not null"`
	Amount    int             `gorm:"not null"`
	// Spent is the dollar amount of a purchase.
	Spent *float64
	// Redeemed is the point amount of a redemption request. The balance is
	// only debited when the redemption is processed.
	Redeemed *int
	// RelatedID links an adjustment to the transaction it corrects, a
	// transfer row to the counterparty user, a processed redemption to
	// nothing (ProcessedBy carries the processor), and an event reward to
	// the event it was drawn from.
	RelatedID *uint `gorm:"index"`
	// PromotionIDs is the JSON-encoded list of promotion IDs applied to a
	// purchase or referenced by an adjustment.
	PromotionIDs datatypes.JSON
	Remark       string `gorm:"type:text"`
	CreatedBy    string `gorm:"type:varchar(100);not null"`
	Suspicious   bool   `gorm:"not null;default:false"`
	Processed    bool   `gorm:"not null;default:false"`
	ProcessedBy  *string
}

// TransactionPromotion links a ledger row to one promotion applied to it.
// Written alongside the PromotionIDs payload so list filtering by promotion
// stays a plain join.
type TransactionPromotion struct {
	ID            uint `gorm:"primarykey"`
	TransactionID uint `gorm:"index;not null"`
	PromotionID   uint `gorm:"index;not null"`
}

// EncodePromotionIDs marshals ids for the PromotionIDs column.
func EncodePromotionIDs(ids []uint) datatypes.JSON {
	if len(ids) == 0 {
		return datatypes.JSON([]byte("[]"))
	}
	raw, _ := json.Marshal(ids)
	return datatypes.JSON(raw)
}

// DecodePromotionIDs unmarshals the PromotionIDs column.
func DecodePromotionIDs(raw datatypes.JSON) []uint {
	var ids []uint
	if len(raw) == 0 {
		return ids
	}
	_ = json.Unmarshal(raw, &ids)
	return ids
}
