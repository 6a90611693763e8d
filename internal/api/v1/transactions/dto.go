package transactions

import (
	"time"

	"luckyaces-backend/internal/models"
)

type TransactionResponse struct {
	ID           uint                   `json:"id"`
	CreatedAt    time.Time              `json:"createdAt"`
	UserID       uint                   `json:"userId"`
	Type         models.TransactionType `json:"type"`
	Amount       int                    `json:"amount"`
	Spent        *float64               `json:"spent,omitempty"`
	Redeemed     *int                   `json:"redeemed,omitempty"`
	RelatedID    *uint                  `json:"relatedId,omitempty"`
	PromotionIDs []uint                 `json:"promotionIds"`
	Remark       string                 `json:"remark"`
	CreatedBy    string                 `json:"createdBy"`
	Suspicious   bool                   `json:"suspicious"`
	Processed    bool                   `json:"processed"`
	ProcessedBy  *string                `json:"processedBy,omitempty"`
}

// NewTransactionResponse converts a ledger row to its API shape.
func NewTransactionResponse(t *models.Transaction) TransactionResponse {
	ids := models.DecodePromotionIDs(t.PromotionIDs)
	if ids == nil {
		ids = []uint{}
	}
	return TransactionResponse{
		ID:           t.ID,
		CreatedAt:    t.CreatedAt,
		UserID:       t.UserID,
		Type:         t.Type,
		Amount:       t.Amount,
		Spent:        t.Spent,
		Redeemed:     t.Redeemed,
		RelatedID:    t.RelatedID,
		PromotionIDs: ids,
		Remark:       t.Remark,
		CreatedBy:    t.CreatedBy,
		Suspicious:   t.Suspicious,
		Processed:    t.Processed,
		ProcessedBy:  t.ProcessedBy,
	}
}

// CreateTransactionInput covers the cashier/manager creation endpoint:
// purchases (spent + promotionIds) and adjustments (amount + relatedId).
type CreateTransactionInput struct {
	UTORid       string                 `json:"utorid" binding:"required"`
	Type         models.TransactionType `json:"type" binding:"required"`
	Spent        *float64               `json:"spent,omitempty"`
	Amount       *int                   `json:"amount,omitempty"`
	RelatedID    *uint                  `json:"relatedId,omitempty"`
	PromotionIDs []uint                 `json:"promotionIds,omitempty"`
	Remark       string                 `json:"remark,omitempty"`
}

type SetSuspiciousInput struct {
	Suspicious *bool `json:"suspicious" binding:"required"`
}

type ProcessInput struct {
	Processed *bool `json:"processed" binding:"required"`
}
