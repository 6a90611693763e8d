package models

import "time"

type PromotionType string

const (
	PromotionTypeAutomatic PromotionType = "automatic"
	PromotionTypeOneTime   PromotionType = "one-time"
)

// Valid reports whether t is one of the known promotion types.
func (t PromotionType) Valid() bool {
	return t == PromotionTypeAutomatic || t == PromotionTypeOneTime
}

// Promotion is a time-windowed bonus rule. Automatic promotions apply to
// every qualifying purchase inside their window; one-time promotions apply
// at most once per user. At least one of Rate and Points is set.
type Promotion struct {
	ID          uint `gorm:"primarykey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Name        string        `gorm:"not null"`
	Description string        `gorm:"type:text"`
	Type        PromotionType `gorm:"type:varchar(20);not null"`
	StartTime   time.Time     `gorm:"not null"`
	EndTime     time.Time     `gorm:"not null"`
	MinSpending *float64
	Rate        *float64
	Points      *int
}

// ActiveAt reports whether the promotion window contains at.
func (p *Promotion) ActiveAt(at time.Time) bool {
	return !at.Before(p.StartTime) && !at.After(p.EndTime)
}

// Started reports whether the promotion window has opened.
func (p *Promotion) Started(at time.Time) bool {
	return !at.Before(p.StartTime)
}

// Ended reports whether the promotion window has closed.
func (p *Promotion) Ended(at time.Time) bool {
	return at.After(p.EndTime)
}

// PromotionUse records the consumption of a one-time promotion by a user.
// It is written in the same database transaction as the purchase that
// consumed the promotion, so a failed purchase never burns the promotion.
type PromotionUse struct {
	ID            uint `gorm:"primarykey"`
	CreatedAt     time.Time
	PromotionID   uint `gorm:"uniqueIndex:idx_promotion_user;not null"`
	UserID        uint `gorm:"uniqueIndex:idx_promotion_user;not null"`
	TransactionID uint `gorm:"index;not null"`
}
