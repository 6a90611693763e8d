package models

import "time"

// PasswordReset is a single-use token that activates a freshly registered
// account or resets a forgotten password. Tokens expire one hour after
// issuance; issuing a new token for a user invalidates the previous one.
type PasswordReset struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	Token     string    `gorm:"uniqueIndex;not null"`
	UserID    uint      `gorm:"index;not null"`
	ExpiresAt time.Time `gorm:"not null"`
	Used      bool      `gorm:"not null;default:false"`
}

// Expired reports whether the token can no longer be redeemed at the given time.
func (p *PasswordReset) Expired(at time.Time) bool {
	return at.After(p.ExpiresAt)
}
