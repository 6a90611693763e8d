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
	ErrEventNotFound     = errors.New("event not found")
	ErrEventStarted      = errors.New("event has already started")
	ErrEventEnded        = errors.New("event has already ended")
	ErrEventNotPublished = errors.New("event is not published")
	ErrEventEndedOrFull  = errors.New("event has ended or is full")
	ErrEventPublished    = errors.New("published events cannot be deleted")
	ErrEventHasRewards   = errors.New("events with reward transactions cannot be deleted")
	ErrAlreadyGuest      = errors.New("user is already a guest of this event")
	ErrIsOrganizer       = errors.New("user is an organizer of this event")
	ErrIsGuest           = errors.New("user is a guest of this event")
	ErrNotGuest          = errors.New("user is not a guest of this event")
	ErrNotOrganizer      = errors.New("user is not an organizer of this event")
	ErrBudgetExceeded    = errors.New("amount exceeds the event's remaining points budget")
	ErrCapacityTooSmall  = errors.New("capacity cannot be below the number of confirmed guests")
)

func CreateEvent(e *models.Event) error {
	return database.DB.Create(e).Error
}

func FindEventByID(id uint) (models.Event, error) {
	var e models.Event
	err := database.DB.Preload("Organizers").Preload("Guests").First(&e, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return e, ErrEventNotFound
		}
		return e, err
	}
	return e, nil
}

// CountGuests returns the number of confirmed guests of an event.
func CountGuests(eventID uint) (int, error) {
	e := models.Event{ID: eventID}
	n := database.DB.Model(&e).Association("Guests").Count()
	return int(n), database.DB.Model(&e).Association("Guests").Error
}

// IsOrganizer reports whether the user organizes the event.
func IsOrganizer(eventID, userID uint) bool {
	var count int64
	database.DB.Table("event_organizers").
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Count(&count)
	return count > 0
}

// IsGuest reports whether the user is a confirmed guest of the event.
func IsGuest(eventID, userID uint) bool {
	var count int64
	database.DB.Table("event_guests").
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Count(&count)
	return count > 0
}

// EventFilter defines criteria for listing events.
type EventFilter struct {
	Name     string
	Location string
	Started  *bool
	Ended    *bool
	// Published is forced to true for regular callers; managers may leave
	// it unset to see drafts.
	Published *bool
	ShowFull  bool
	Page      int
	Limit     int
}

// FindEvents retrieves a paginated, filtered list of events.
func FindEvents(filter EventFilter) ([]models.Event, int64, error) {
	var events []models.Event
	var total int64

	query := database.DB.Model(&models.Event{})
	now := time.Now()

	if filter.Name != "" {
		query = query.Where("name LIKE ?", "%"+filter.Name+"%")
	}
	if filter.Location != "" {
		query = query.Where("location LIKE ?", "%"+filter.Location+"%")
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
	if filter.Published != nil {
		query = query.Where("published = ?", *filter.Published)
	}
	if !filter.ShowFull {
		query = query.Where("capacity IS NULL OR capacity > (?)",
			database.DB.Table("event_guests").Select("count(*)").
				Where("event_guests.event_id = events.id"))
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := query.Order("start_time asc").Limit(filter.Limit).Offset(offset).
		Preload("Organizers").Preload("Guests").Find(&events).Error; err != nil {
		return nil, 0, err
	}

	return events, total, nil
}

// UpdateEvent applies organizer/manager edits. Once the event has started its
// name, description, location, start time and capacity are frozen; once it
// has ended the end time is frozen too. Capacity cannot drop below the
// confirmed guest count, and a budget change adjusts PointsRemain while
// keeping the points already awarded intact.
func UpdateEvent(id uint, updates map[string]interface{}) (*models.Event, error) {
	var e models.Event
	if err := database.DB.First(&e, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}

	now := time.Now()
	if e.Started(now) {
		for _, frozen := range []string{"name", "description", "location", "start_time", "capacity"} {
			if _, ok := updates[frozen]; ok {
				return nil, fmt.Errorf("%w: cannot change %s", ErrEventStarted, frozen)
			}
		}
	}
	if e.Ended(now) {
		if _, ok := updates["end_time"]; ok {
			return nil, fmt.Errorf("%w: cannot change end_time", ErrEventEnded)
		}
	}

	if capVal, ok := updates["capacity"]; ok && capVal != nil {
		numGuests, err := CountGuests(e.ID)
		if err != nil {
			return nil, err
		}
		if capacity, ok := capVal.(int); ok && capacity < numGuests {
			return nil, ErrCapacityTooSmall
		}
	}

	if budgetVal, ok := updates["points"]; ok {
		budget, _ := budgetVal.(int)
		if budget < e.PointsAwarded {
			return nil, ErrBudgetExceeded
		}
		delete(updates, "points")
		updates["points_remain"] = budget - e.PointsAwarded
	}

	if err := database.DB.Model(&e).Updates(updates).Error; err != nil {
		return nil, err
	}

	database.DB.First(&e, id)
	return &e, nil
}

// DeleteEvent removes an event that was never published and has no reward
// transactions drawn against it.
func DeleteEvent(id uint) error {
	var e models.Event
	if err := database.DB.First(&e, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEventNotFound
		}
		return err
	}

	if e.Published {
		return ErrEventPublished
	}

	var rewards int64
	if err := database.DB.Model(&models.Transaction{}).
		Where("type = ? AND related_id = ?", models.TransactionTypeEvent, id).
		Count(&rewards).Error; err != nil {
		return err
	}
	if rewards > 0 {
		return ErrEventHasRewards
	}

	return database.DB.Select("Organizers", "Guests").Delete(&e).Error
}

// AddGuest confirms a user as a guest. Valid only while the event is
// published, not ended and not full.
func AddGuest(eventID uint, utorid string) (*models.Event, *models.User, error) {
	var e models.Event
	if err := database.DB.First(&e, eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrEventNotFound
		}
		return nil, nil, err
	}

	if !e.Published {
		return nil, nil, ErrEventNotPublished
	}

	numGuests, err := CountGuests(e.ID)
	if err != nil {
		return nil, nil, err
	}
	if e.Ended(time.Now()) || e.Full(numGuests) {
		return nil, nil, ErrEventEndedOrFull
	}

	user, err := FindUserByUTORid(utorid)
	if err != nil {
		return nil, nil, err
	}

	if IsOrganizer(e.ID, user.ID) {
		return nil, nil, ErrIsOrganizer
	}
	if IsGuest(e.ID, user.ID) {
		return nil, nil, ErrAlreadyGuest
	}

	if err := database.DB.Model(&e).Association("Guests").Append(&user); err != nil {
		return nil, nil, err
	}
	return &e, &user, nil
}

// RemoveGuest drops a user from the guest list, freeing their slot.
func RemoveGuest(eventID, userID uint) error {
	var e models.Event
	if err := database.DB.First(&e, eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEventNotFound
		}
		return err
	}

	if !IsGuest(e.ID, userID) {
		return ErrNotGuest
	}

	return database.DB.Model(&e).Association("Guests").Delete(&models.User{ID: userID})
}

// AddOrganizer adds a user to the organizer list. Organizers cannot also be
// guests of the same event.
func AddOrganizer(eventID uint, utorid string) (*models.Event, *models.User, error) {
	var e models.Event
	if err := database.DB.First(&e, eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrEventNotFound
		}
		return nil, nil, err
	}

	if e.Ended(time.Now()) {
		return nil, nil, ErrEventEndedOrFull
	}

	user, err := FindUserByUTORid(utorid)
	if err != nil {
		return nil, nil, err
	}

	if IsGuest(e.ID, user.ID) {
		return nil, nil, ErrIsGuest
	}
	if IsOrganizer(e.ID, user.ID) {
		return nil, nil, ErrIsOrganizer
	}

	if err := database.DB.Model(&e).Association("Organizers").Append(&user); err != nil {
		return nil, nil, err
	}
	return &e, &user, nil
}

func RemoveOrganizer(eventID, userID uint) error {
	var e models.Event
	if err := database.DB.First(&e, eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEventNotFound
		}
		return err
	}

	if !IsOrganizer(e.ID, userID) {
		return ErrNotOrganizer
	}

	return database.DB.Model(&e).Association("Organizers").Delete(&models.User{ID: userID})
}

// RewardPoints draws amount points per recipient from the event budget and
// credits them, writing one event-type ledger row per recipient. With an
// empty recipient utorid every confirmed guest is rewarded. The budget
// moves from PointsRemain to PointsAwarded so their sum stays constant.
func RewardPoints(eventID uint, recipientUTORid string, amount int, remark string, actor models.User) ([]models.Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var e models.Event
	if err := database.DB.First(&e, eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}

	var recipients []models.User
	if recipientUTORid != "" {
		user, err := FindUserByUTORid(recipientUTORid)
		if err != nil {
			return nil, err
		}
		if !IsGuest(e.ID, user.ID) {
			return nil, ErrNotGuest
		}
		recipients = []models.User{user}
	} else {
		if err := database.DB.Model(&e).Association("Guests").Find(&recipients); err != nil {
			return nil, err
		}
		if len(recipients) == 0 {
			return nil, ErrNotGuest
		}
	}

	total := amount * len(recipients)
	if total > e.PointsRemain {
		return nil, ErrBudgetExceeded
	}

	var rows []models.Transaction
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		// Guard the decrement with the balance condition so concurrent
		// rewards cannot overdraw the budget.
		result := tx.Model(&models.Event{}).
			Where("id = ? AND points_remain >= ?", e.ID, total).
			Updates(map[string]interface{}{
				"points_remain":  gorm.Expr("points_remain - ?", total),
				"points_awarded": gorm.Expr("points_awarded + ?", total),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrBudgetExceeded
		}

		for _, recipient := range recipients {
			row := models.Transaction{
				UserID:    recipient.ID,
				Type:      models.TransactionTypeEvent,
				Amount:    amount,
				RelatedID: &e.ID,
				Remark:    remark,
				CreatedBy: actor.UTORid,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.User{}).Where("id = ?", recipient.ID).
				Update("points", gorm.Expr("points + ?", amount)).Error; err != nil {
				return err
			}
			rows = append(rows, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, recipient := range recipients {
		InvalidateUserCache(recipient.ID)
	}
	return rows, nil
}
