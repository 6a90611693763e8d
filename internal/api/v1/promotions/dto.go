package promotions

import (
	"time"

	"luckyaces-backend/internal/models"
)

type CreatePromotionInput struct {
	Name        string    `json:"name" binding:"required,min=1,max=100"`
	Description string    `json:"description,omitempty"`
	Type        string    `json:"type" binding:"required"`
	StartTime   time.Time `json:"startTime" binding:"required"`
	EndTime     time.Time `json:"endTime" binding:"required"`
	MinSpending *float64  `json:"minSpending,omitempty"`
	Rate        *float64  `json:"rate,omitempty"`
	Points      *int      `json:"points,omitempty"`
}

type UpdatePromotionInput struct {
	Name        *string    `json:"name,omitempty"`
	Description *string    `json:"description,omitempty"`
	Type        *string    `json:"type,omitempty"`
	StartTime   *time.Time `json:"startTime,omitempty"`
	EndTime     *time.Time `json:"endTime,omitempty"`
	MinSpending *float64   `json:"minSpending,omitempty"`
	Rate        *float64   `json:"rate,omitempty"`
	Points      *int       `json:"points,omitempty"`
}

type PromotionResponse struct {
	ID          uint                 `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Type        models.PromotionType `json:"type"`
	StartTime   time.Time            `json:"startTime"`
	EndTime     time.Time            `json:"endTime"`
	MinSpending *float64             `json:"minSpending"`
	Rate        *float64             `json:"rate"`
	Points      *int                 `json:"points"`
}

func NewPromotionResponse(p *models.Promotion) PromotionResponse {
	return PromotionResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Type:        p.Type,
		StartTime:   p.StartTime,
		EndTime:     p.EndTime,
		MinSpending: p.MinSpending,
		Rate:        p.Rate,
		Points:      p.Points,
	}
}
