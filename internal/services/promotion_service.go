package services

import (
	"errors"
	"fmt"
	"time"

	"luckyaces-backend/internal/database"
	"luckyaces-backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrPromotionNotFound   = errors.New("promotion not found")
	ErrPromotionStarted    = errors.New("promotion has already started")
	ErrPromotionEnded      = errors.New("promotion has already ended")
	ErrPromotionIneligible = errors.New("promotion is not applicable to this purchase")
)

func CreatePromotion(p *models.Promotion) error {
	return database.DB.Create(p).Error
}

func FindPromotionByID(id uint) (models.Promotion, error) {
	var p models.Promotion
	if err := database.DB.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return p, ErrPromotionNotFound
		}
		return p, err
	}
	return p, nil
}

// PromotionFilter defines criteria for listing promotions.
type PromotionFilter struct {
	Name    string
	Type    *models.PromotionType
	Started *bool
	Ended   *bool
	// ForUser restricts results to what that user may see: promotions in
	// their active window that the user has not yet consumed.
	ForUser *models.User
	Page    int
	Limit   int
}

// FindPromotions retrieves a paginated, filtered list of promotions. With
// ForUser set it returns only the promotions currently available to that
// user (the regular-user view).
func FindPromotions(filter PromotionFilter) ([]models.Promotion, int64, error) {
	var promotions []models.Promotion
	var total int64

	query := database.DB.Model(&models.Promotion{})
	now := time.Now()

	if filter.Name != "" {
		query = query.Where("name LIKE ?", "%"+filter.Name+"%")
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.Started != nil {
		if *filter.Started {
			query = query.Where("start_time <= ?", now)
		} else {
			query = query.Where("start_time > ?", now)
		}
	}
	if filter.Ended != nil {
		if *filter.Ended {
			query = query.Where("end_time < ?", now)
		} else {
			query = query.Where("end_time >= ?", now)
		}
	}
	if filter.ForUser != nil {
		query = query.Where("start_time <= ? AND end_time >= ?", now, now).
			Where("id NOT IN (?)", database.DB.Model(&models.PromotionUse{}).
				Select("promotion_id").Where("user_id = ?", filter.ForUser.ID))
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := query.Order("id asc").Limit(filter.Limit).Offset(offset).Find(&promotions).Error; err != nil {
		return nil, 0, err
	}

	return promotions, total, nil
}

// EligibleOneTimePromotions returns the one-time promotions a user can still
// apply: inside their window and without a consumption record for that user.
func EligibleOneTimePromotions(userID uint) ([]models.Promotion, error) {
	var promotions []models.Promotion
	now := time.Now()
	err := database.DB.
		Where("type = ?", models.PromotionTypeOneTime).
		Where("start_time <= ? AND end_time >= ?", now, now).
		Where("id NOT IN (?)", database.DB.Model(&models.PromotionUse{}).
			Select("promotion_id").Where("user_id = ?", userID)).
		Order("id asc").
		Find(&promotions).Error
	return promotions, err
}

// UpdatePromotion applies manager edits. Once a promotion's window has
// opened its financial fields (type, minSpending, rate, points, startTime)
// are frozen and only name/description/endTime may change. Once the window
// has closed the promotion is immutable.
func UpdatePromotion(id uint, updates map[string]interface{}) (*models.Promotion, error) {
	var p models.Promotion
	if err := database.DB.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPromotionNotFound
		}
		return nil, err
	}

	now := time.Now()
	if p.Ended(now) {
		return nil, ErrPromotionEnded
	}
	if p.Started(now) {
		for _, frozen := range []string{"type", "min_spending", "rate", "points", "start_time"} {
			if _, ok := updates[frozen]; ok {
				return nil, fmt.Errorf("%w: cannot change %s", ErrPromotionStarted, frozen)
			}
		}
	}

	if err := database.DB.Model(&p).Updates(updates).Error; err != nil {
		return nil, err
	}

	database.DB.First(&p, id)
	return &p, nil
}

// DeletePromotion removes a promotion that has not started yet.
func DeletePromotion(id uint) error {
	var p models.Promotion
	if err := database.DB.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPromotionNotFound
		}
		return err
	}

	if p.Started(time.Now()) {
		return ErrPromotionStarted
	}

	return database.DB.Delete(&p).Error
}

// validatePurchasePromotions loads the listed promotions and checks each one
// against the purchase: the window must contain now, minSpending (when set)
// must be satisfied, and one-time promotions must be unused by the payer.
// Runs inside the purchase's database transaction.
func validatePurchasePromotions(tx *gorm.DB, payer *models.User, spent float64, ids []uint, now time.Time) ([]models.Promotion, error) {
	promotions := make([]models.Promotion, 0, len(ids))
	for _, id := range ids {
		var p models.Promotion
		if err := tx.First(&p, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: promotion %d", ErrPromotionIneligible, id)
			}
			return nil, err
		}

		if !p.ActiveAt(now) {
			return nil, fmt.Errorf("%w: promotion %d is outside its window", ErrPromotionIneligible, id)
		}
		if p.MinSpending != nil && spent < *p.MinSpending {
			return nil, fmt.Errorf("%w: promotion %d requires spending at least %.2f", ErrPromotionIneligible, id, *p.MinSpending)
		}
		if p.Type == models.PromotionTypeOneTime {
			var used int64
			if err := tx.Model(&models.PromotionUse{}).
				Where("promotion_id = ? AND user_id = ?", p.ID, payer.ID).
				Count(&used).Error; err != nil {
				return nil, err
			}
			if used > 0 {
				return nil, fmt.Errorf("%w: promotion %d already used", ErrPromotionIneligible, id)
			}
		}

		promotions = append(promotions, p)
	}
	return promotions, nil
}
