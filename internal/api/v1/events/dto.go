package events

import (
	"time"

	"luckyaces-backend/internal/models"
)

type CreateEventInput struct {
	Name        string    `json:"name" binding:"required,min=1,max=100"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location" binding:"required"`
	StartTime   time.Time `json:"startTime" binding:"required"`
	EndTime     time.Time `json:"endTime" binding:"required"`
	Capacity    *int      `json:"capacity,omitempty"`
	Points      int       `json:"points" binding:"required,min=1"`
}

type UpdateEventInput struct {
	Name        *string    `json:"name,omitempty"`
	Description *string    `json:"description,omitempty"`
	Location    *string    `json:"location,omitempty"`
	StartTime   *time.Time `json:"startTime,omitempty"`
	EndTime     *time.Time `json:"endTime,omitempty"`
	Capacity    *int       `json:"capacity,omitempty"`
	Points      *int       `json:"points,omitempty"`
	Published   *bool      `json:"published,omitempty"`
}

type MemberSummary struct {
	ID     uint   `json:"id"`
	UTORid string `json:"utorid"`
	Name   string `json:"name"`
}

type EventResponse struct {
	ID            uint            `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Location      string          `json:"location"`
	StartTime     time.Time       `json:"startTime"`
	EndTime       time.Time       `json:"endTime"`
	Capacity      *int            `json:"capacity"`
	NumGuests     int             `json:"numGuests"`
	Published     bool            `json:"published"`
	Organizers    []MemberSummary `json:"organizers"`
	// PointsRemain and PointsAwarded are only populated for managers and
	// the event's organizers.
	PointsRemain  *int            `json:"pointsRemain,omitempty"`
	PointsAwarded *int            `json:"pointsAwarded,omitempty"`
	Guests        []MemberSummary `json:"guests,omitempty"`
}

// NewEventResponse builds the API view of an event. Budget counters and the
// guest list are withheld unless the caller manages or organizes the event.
func NewEventResponse(e *models.Event, privileged bool) EventResponse {
	organizers := make([]MemberSummary, 0, len(e.Organizers))
	for _, u := range e.Organizers {
		organizers = append(organizers, MemberSummary{ID: u.ID, UTORid: u.UTORid, Name: u.Name})
	}

	resp := EventResponse{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		Location:    e.Location,
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		Capacity:    e.Capacity,
		NumGuests:   len(e.Guests),
		Published:   e.Published,
		Organizers:  organizers,
	}

	if privileged {
		remain, awarded := e.PointsRemain, e.PointsAwarded
		resp.PointsRemain = &remain
		resp.PointsAwarded = &awarded
		guests := make([]MemberSummary, 0, len(e.Guests))
		for _, u := range e.Guests {
			guests = append(guests, MemberSummary{ID: u.ID, UTORid: u.UTORid, Name: u.Name})
		}
		resp.Guests = guests
	}

	return resp
}

type AddMemberInput struct {
	UTORid string `json:"utorid" binding:"required"`
}

type RewardInput struct {
	Type   string `json:"type" binding:"required"`
	UTORid string `json:"utorid,omitempty"`
	Amount int    `json:"amount" binding:"required,min=1"`
	Remark string `json:"remark,omitempty"`
}
