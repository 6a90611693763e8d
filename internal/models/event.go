package models

import "time"

// Event is a campus event with a fixed points budget. PointsRemain +
// PointsAwarded stays constant (the budget) across any sequence of rewards;
// budget edits adjust PointsRemain only.
type Event struct {
	ID          uint `gorm:"primarykey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Name        string    `gorm:"not null"`
	Description string    `gorm:"type:text"`
	Location    string    `gorm:"not null"`
	StartTime   time.Time `gorm:"not null"`
	EndTime     time.Time `gorm:"not null"`
	Capacity    *int
	// PointsRemain is the undistributed remainder of the event budget.
	PointsRemain  int  `gorm:"not null;default:0"`
	PointsAwarded int  `gorm:"not null;default:0"`
	Published     bool `gorm:"not null;default:false"`
	Organizers    []User `gorm:"many2many:event_organizers"`
	Guests        []User `gorm:"many2many:event_guests"`
}

// Started reports whether the event has begun at the given time.
func (e *Event) Started(at time.Time) bool {
	return !at.Before(e.StartTime)
}

// Ended reports whether the event has finished at the given time.
func (e *Event) Ended(at time.Time) bool {
	return at.After(e.EndTime)
}

// Full reports whether the event has reached capacity given numGuests
// confirmed guests. Events without a capacity are never full.
func (e *Event) Full(numGuests int) bool {
	return e.Capacity != nil && numGuests >= *e.Capacity
}
