package users

import (
	"time"

	"luckyaces-backend/internal/models"
)

type CreateUserInput struct {
	UTORid string `json:"utorid" binding:"required"`
	Name   string `json:"name" binding:"required,min=1,max=50"`
	Email  string `json:"email" binding:"required"`
}

type CreateUserResponse struct {
	ID         uint      `json:"id"`
	UTORid     string    `json:"utorid"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Verified   bool      `json:"verified"`
	ResetToken string    `json:"resetToken"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// UserResponse is the full record, visible to managers and to the user
// themselves.
type UserResponse struct {
	ID         uint        `json:"id"`
	UTORid     string      `json:"utorid"`
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	Birthday   *string     `json:"birthday"`
	Role       models.Role `json:"role"`
	Points     int         `json:"points"`
	Verified   bool        `json:"verified"`
	Suspicious bool        `json:"suspicious"`
	AvatarURL  string      `json:"avatarUrl"`
	CreatedAt  time.Time   `json:"createdAt"`
	LastLogin  *time.Time  `json:"lastLogin"`
}

func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		UTORid:     u.UTORid,
		Name:       u.Name,
		Email:      u.Email,
		Birthday:   u.Birthday,
		Role:       u.Role,
		Points:     u.Points,
		Verified:   u.Verified,
		Suspicious: u.Suspicious,
		AvatarURL:  u.AvatarURL,
		CreatedAt:  u.CreatedAt,
		LastLogin:  u.LastLogin,
	}
}

// PromotionSummary is the slice of a promotion a cashier needs when ringing
// up a purchase.
type PromotionSummary struct {
	ID          uint     `json:"id"`
	Name        string   `json:"name"`
	MinSpending *float64 `json:"minSpending"`
	Rate        *float64 `json:"rate"`
	Points      *int     `json:"points"`
}

// LimitedUserResponse is the cashier view of a user: enough to record a
// purchase, nothing more.
type LimitedUserResponse struct {
	ID         uint               `json:"id"`
	UTORid     string             `json:"utorid"`
	Name       string             `json:"name"`
	Points     int                `json:"points"`
	Verified   bool               `json:"verified"`
	Promotions []PromotionSummary `json:"promotions"`
}

type UpdateUserInput struct {
	Email      *string `json:"email,omitempty"`
	Verified   *bool   `json:"verified,omitempty"`
	Suspicious *bool   `json:"suspicious,omitempty"`
	Role       *string `json:"role,omitempty"`
}

type UpdateProfileInput struct {
	Name     *string `json:"name,omitempty" binding:"omitempty,min=1,max=50"`
	Email    *string `json:"email,omitempty"`
	Birthday *string `json:"birthday,omitempty"`
	Avatar   *string `json:"avatar,omitempty"`
}

type ChangePasswordInput struct {
	Old string `json:"old" binding:"required"`
	New string `json:"new" binding:"required"`
}

type RedemptionInput struct {
	Type   string `json:"type" binding:"required"`
	Amount int    `json:"amount" binding:"required"`
	Remark string `json:"remark,omitempty"`
}

type TransferInput struct {
	Type   string `json:"type" binding:"required"`
	Amount int    `json:"amount" binding:"required"`
	Remark string `json:"remark,omitempty"`
}
