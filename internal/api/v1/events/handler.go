package events

import (
	"errors"
	"net/http"
	"strconv"

	"luckyaces-backend/internal/api/v1/transactions"
	"luckyaces-backend/internal/middleware"
	"luckyaces-backend/internal/models"
	"luckyaces-backend/internal/services"
	"luckyaces-backend/internal/utils"

	"github.com/gin-gonic/gin"
)

// CreateEvent godoc
// @Summary Create an event
// @Description Manager only. Events start unpublished with the full budget remaining.
// @Tags events
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body CreateEventInput true "Event"
// @Success 201 {object} utils.Response{data=EventResponse}
// @Failure 400 {object} utils.Response
// @Router /events [post]
func CreateEvent(c *gin.Context) {
	var input CreateEventInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	if !input.StartTime.Before(input.EndTime) {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "startTime must be before endTime"))
		return
	}
	if input.Capacity != nil && *input.Capacity <= 0 {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Capacity must be positive"))
		return
	}

	e := models.Event{
		Name:         input.Name,
		Description:  input.Description,
		Location:     input.Location,
		StartTime:    input.StartTime,
		EndTime:      input.EndTime,
		Capacity:     input.Capacity,
		PointsRemain: input.Points,
	}

	if err := services.CreateEvent(&e); err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to create event"))
		return
	}

	c.JSON(http.StatusCreated, utils.NewResponse(http.StatusCreated, "Event created successfully", NewEventResponse(&e, true)))
}

// ListEvents godoc
// @Summary List events
// @Description Regular users see published events only; managers may filter by published.
// @Tags events
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param name query string false "Filter by name"
// @Param location query string false "Filter by location"
// @Param started query bool false "Filter by started"
// @Param ended query bool false "Filter by ended"
// @Param published query bool false "Filter by published (manager only)"
// @Param showFull query bool false "Include full events"
// @Success 200 {object} utils.Response{data=utils.ListData}
// @Failure 400 {object} utils.Response
// @Router /events [get]
func ListEvents(c *gin.Context) {
	actor, _ := middleware.CurrentUser(c)

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid page number"))
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid limit number"))
		return
	}

	filter := services.EventFilter{
		Name:     c.Query("name"),
		Location: c.Query("location"),
		Page:     page,
		Limit:    limit,
	}

	if startedStr, exists := c.GetQuery("started"); exists {
		started, err := strconv.ParseBool(startedStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid started flag"))
			return
		}
		filter.Started = &started
	}
	if endedStr, exists := c.GetQuery("ended"); exists {
		ended, err := strconv.ParseBool(endedStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid ended flag"))
			return
		}
		filter.Ended = &ended
	}
	if showFullStr, exists := c.GetQuery("showFull"); exists {
		showFull, err := strconv.ParseBool(showFullStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid showFull flag"))
			return
		}
		filter.ShowFull = showFull
	}

	manager := actor.Role.AtLeast(models.RoleManager)
	if manager {
		if publishedStr, exists := c.GetQuery("published"); exists {
			published, err := strconv.ParseBool(publishedStr)
			if err != nil {
				c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid published flag"))
				return
			}
			filter.Published = &published
		}
	} else {
		published := true
		filter.Published = &published
	}

	eventsList, total, err := services.FindEvents(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to fetch events"))
		return
	}

	results := make([]EventResponse, 0, len(eventsList))
	for i := range eventsList {
		privileged := manager || services.IsOrganizer(eventsList[i].ID, actor.ID)
		results = append(results, NewEventResponse(&eventsList[i], privileged))
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Events retrieved successfully", utils.ListData{
		Count:   total,
		Results: results,
		Page:    page,
		Limit:   limit,
	}))
}

// GetEvent godoc
// @Summary Fetch one event
// @Tags events
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Event ID"
// @Success 200 {object} utils.Response{data=EventResponse}
// @Failure 404 {object} utils.Response
// @Router /events/{id} [get]
func GetEvent(c *gin.Context) {
	actor, _ := middleware.CurrentUser(c)

	e, ok := loadEvent(c)
	if !ok {
		return
	}

	manager := actor.Role.AtLeast(models.RoleManager)
	organizer := services.IsOrganizer(e.ID, actor.ID)
	if !e.Published && !manager && !organizer {
		c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "Event not found"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Event retrieved successfully", NewEventResponse(&e, manager || organizer)))
}

// UpdateEvent godoc
// @Summary Update an event
// @Description Managers or that event's organizers. Only managers may change the budget or publish.
// @Tags events
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Event ID"
// @Param body body UpdateEventInput true "Fields to update"
// @Success 200 {object} utils.Response{data=EventResponse}
// @Failure 400 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /events/{id} [patch]
func UpdateEvent(c *gin.Context) {
	actor, _ := middleware.CurrentUser(c)

	e, ok := loadEvent(c)
	if !ok {
		return
	}

	manager := actor.Role.AtLeast(models.RoleManager)
	if !manager && !services.IsOrganizer(e.ID, actor.ID) {
		c.JSON(http.StatusForbidden, utils.NewErrorResponse(http.StatusForbidden, "Only managers or organizers may edit this event"))
		return
	}

	var input UpdateEventInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	updates := make(map[string]interface{})
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Location != nil {
		updates["location"] = *input.Location
	}
	if input.StartTime != nil {
		updates["start_time"] = *input.StartTime
	}
	if input.EndTime != nil {
		updates["end_time"] = *input.EndTime
	}
	if input.Capacity != nil {
		updates["capacity"] = *input.Capacity
	}
	if input.Points != nil {
		if !manager {
			c.JSON(http.StatusForbidden, utils.NewErrorResponse(http.StatusForbidden, "Only managers may change the points budget"))
			return
		}
		updates["points"] = *input.Points
	}
	if input.Published != nil {
		if !manager {
			c.JSON(http.StatusForbidden, utils.NewErrorResponse(http.StatusForbidden, "Only managers may publish events"))
			return
		}
		if !*input.Published {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Published can only be set to true"))
			return
		}
		updates["published"] = true
	}

	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "No fields to update"))
		return
	}

	updated, err := services.UpdateEvent(e.ID, updates)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEventNotFound):
			c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "Event not found"))
		case errors.Is(err, services.ErrCapacityTooSmall),
			errors.Is(err, services.ErrBudgetExceeded),
			errors.Is(err, services.ErrEventStarted),
			errors.Is(err, services.ErrEventEnded):
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, err.Error()))
		default:
			c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to update event"))
		}
		return
	}

	full, _ := services.FindEventByID(updated.ID)
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Event updated successfully", NewEventResponse(&full, true)))
}

// DeleteEvent godoc
// @Summary Delete an event
// @Description Manager only. Published events and events with rewards are kept.
// @Tags events
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Event ID"
// @Success 204 {object} nil
// @Failure 400 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /events/{id} [delete]
func DeleteEvent(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("eventId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid event ID"))
		return
	}

	if err := services.DeleteEvent(uint(id)); err != nil {
		switch {
		case errors.Is(err, services.ErrEventNotFound):
			c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "Event not found"))
		case errors.Is(err, services.ErrEventPublished), errors.Is(err, services.ErrEventHasRewards):
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, err.Error()))
		default:
			c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to delete event"))
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// AddGuest godoc
// @Summary Add a guest to an event
// @Description Managers or that event's organizers.
// @Tags events
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Event ID"
// @Param body body AddMemberInput true "Guest"
// @Success 201 {object} utils.Response
// @Failure 400 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Failure 410 {object} utils.Response
// @Router /events/{id}/guests [post]
func AddGuest(c *gin.Context) {
	actor, _ := middleware.CurrentUser(c)

	e, ok := loadEvent(c)
	if !ok {
		return
	}

	if !actor.Role.AtLeast(models.RoleManager) && !services.IsOrganizer(e.ID, actor.ID) {
		c.JSON(http.StatusForbidden, utils.NewErrorResponse(http.StatusForbidden, "Only managers or organizers may add guests"))
		return
	}

	var input AddMemberInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	addGuestAndRespond(c, e.ID, input.UTORid)
}

// RSVP godoc
// @Summary RSVP to an event
// @Tags events
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Event ID"
// @Success 201 {object} utils.Response
// @Failure 400 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Failure 410 {object} utils.Response
// @Router /events/{id}/guests/me [post]
func RSVP(c *gin.Context) {
	actor, _ := middleware.CurrentUser(c)

	e, ok := loadEvent(c)
	if !ok {
		return
	}

	addGuestAndRespond(c, e.ID, actor.UTORid)
}

// CancelRSVP godoc
// @Summary Withdraw an RSVP
// @Tags events
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Event ID"
// @Success 204 {object} nil
// @Failure 404 {object} utils.Response
// @Router /events/{id}/guests/me [delete]
func CancelRSVP(c *gin.Context) {
	actor, _ := middleware.CurrentUser(c)

	e, ok := loadEvent(c)
	if !ok {
		return
	}

	if err := services.RemoveGuest(e.ID, actor.ID); err != nil {
		respondMembershipError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// RemoveGuest godoc
// @Summary Remove a guest from an event
// @Description Manager only.
// @Tags events
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Event ID"
// @Param userId path int true "User ID"
// @Success 204 {object} nil
// @Failure 404 {object} utils.Response
// @Router /events/{id}/guests/{userId} [delete]
func RemoveGuest(c *gin.Context) {
	e, ok := loadEvent(c)
	if !ok {
		return
	}

	userID, err := strconv.Atoi(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid user ID"))
		return
	}

	if err := services.RemoveGuest(e.ID, uint(userID)); err != nil {
		respondMembershipError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// AddOrganizer godoc
// @Summary Add an organizer to an event
// @Description Manager only. Organizers cannot also be guests.
// @Tags events
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Event ID"
// @Param body body AddMemberInput true "Organizer"
// @Success 201 {object} utils.Response
// @Failure 400 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Failure 410 {object} utils.Response
// @Router /events/{id}/organizers [post]
func AddOrganizer(c *gin.Context) {
	e, ok := loadEvent(c)
	if !ok {
		return
	}

	var input AddMemberInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	event, user, err := services.AddOrganizer(e.ID, input.UTORid)
	if err != nil {
		respondMembershipError(c, err)
		return
	}

	c.JSON(http.StatusCreated, utils.NewResponse(http.StatusCreated, "Organizer added successfully", gin.H{
		"eventId": event.ID,
		"utorid":  user.UTORid,
	}))
}

// RemoveOrganizer godoc
// @Summary Remove an organizer from an event
// @Description Manager only.
// @Tags events
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Event ID"
// @Param userId path int true "User ID"
// @Success 204 {object} nil
// @Failure 404 {object} utils.Response
// @Router /events/{id}/organizers/{userId} [delete]
func RemoveOrganizer(c *gin.Context) {
	e, ok := loadEvent(c)
	if !ok {
		return
	}

	userID, err := strconv.Atoi(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid user ID"))
		return
	}

	if err := services.RemoveOrganizer(e.ID, uint(userID)); err != nil {
		respondMembershipError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// RewardPoints godoc
// @Summary Award points from the event budget
// @Description Managers or that event's organizers. Omit utorid to reward every guest.
// @Tags events
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Event ID"
// @Param body body RewardInput true "Reward"
// @Success 201 {object} utils.Response
// @Failure 400 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /events/{id}/transactions [post]
func RewardPoints(c *gin.Context) {
	actor, _ := middleware.CurrentUser(c)

	e, ok := loadEvent(c)
	if !ok {
		return
	}

	if !actor.Role.AtLeast(models.RoleManager) && !services.IsOrganizer(e.ID, actor.ID) {
		c.JSON(http.StatusForbidden, utils.NewErrorResponse(http.StatusForbidden, "Only managers or organizers may award points"))
		return
	}

	var input RewardInput
	if !utils.BindAndValidate(c, &input) {
		return
	}
	if input.Type != string(models.TransactionTypeEvent) {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Type must be event"))
		return
	}

	rows, err := services.RewardPoints(e.ID, input.UTORid, input.Amount, input.Remark, actor)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEventNotFound), errors.Is(err, services.ErrUserNotFound):
			c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, err.Error()))
		case errors.Is(err, services.ErrNotGuest),
			errors.Is(err, services.ErrBudgetExceeded),
			errors.Is(err, services.ErrInvalidAmount):
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, err.Error()))
		default:
			c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to award points"))
		}
		return
	}

	results := make([]transactions.TransactionResponse, 0, len(rows))
	for i := range rows {
		results = append(results, transactions.NewTransactionResponse(&rows[i]))
	}

	c.JSON(http.StatusCreated, utils.NewResponse(http.StatusCreated, "Points awarded successfully", results))
}

// loadEvent parses the eventId parameter and fetches the event, writing the
// error response itself on failure.
func loadEvent(c *gin.Context) (models.Event, bool) {
	id, err := strconv.Atoi(c.Param("eventId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid event ID"))
		return models.Event{}, false
	}

	e, err := services.FindEventByID(uint(id))
	if err != nil {
		if errors.Is(err, services.ErrEventNotFound) {
			c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "Event not found"))
			return models.Event{}, false
		}
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to fetch event"))
		return models.Event{}, false
	}

	return e, true
}

func addGuestAndRespond(c *gin.Context, eventID uint, utorid string) {
	event, user, err := services.AddGuest(eventID, utorid)
	if err != nil {
		respondMembershipError(c, err)
		return
	}

	numGuests, _ := services.CountGuests(event.ID)
	c.JSON(http.StatusCreated, utils.NewResponse(http.StatusCreated, "Guest added successfully", gin.H{
		"eventId":   event.ID,
		"utorid":    user.UTORid,
		"numGuests": numGuests,
	}))
}

func respondMembershipError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrEventNotFound),
		errors.Is(err, services.ErrEventNotPublished),
		errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, err.Error()))
	case errors.Is(err, services.ErrEventEndedOrFull):
		c.JSON(http.StatusGone, utils.NewErrorResponse(http.StatusGone, err.Error()))
	case errors.Is(err, services.ErrAlreadyGuest),
		errors.Is(err, services.ErrIsOrganizer),
		errors.Is(err, services.ErrIsGuest),
		errors.Is(err, services.ErrNotGuest),
		errors.Is(err, services.ErrNotOrganizer):
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to update event membership"))
	}
}
