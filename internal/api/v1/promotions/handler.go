package promotions

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"luckyaces-backend/internal/middleware"
	"luckyaces-backend/internal/models"
	"luckyaces-backend/internal/services"
	"luckyaces-backend/internal/utils"

	"github.com/gin-gonic/gin"
)

// CreatePromotion godoc
// @Summary Create a promotion
// @Description Manager only. At least one of rate and points must be set.
// @Tags promotions
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body CreatePromotionInput true "Promotion"
// @Success 201 {object} utils.Response{data=PromotionResponse}
// @Failure 400 {object} utils.Response
// @Router /promotions [post]
func CreatePromotion(c *gin.Context) {
	var input CreatePromotionInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	promotionType := models.PromotionType(input.Type)
	if !promotionType.Valid() {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Type must be automatic or one-time"))
		return
	}
	if !input.StartTime.Before(input.EndTime) {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "startTime must be before endTime"))
		return
	}
	if input.Rate == nil && input.Points == nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "At least one of rate and points must be set"))
		return
	}
	if input.Rate != nil && *input.Rate <= 0 {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Rate must be positive"))
		return
	}
	if input.Points != nil && *input.Points <= 0 {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Points must be positive"))
		return
	}
	if input.MinSpending != nil && *input.MinSpending < 0 {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "minSpending must be non-negative"))
		return
	}

	p := models.Promotion{
		Name:        input.Name,
		Description: input.Description,
		Type:        promotionType,
		StartTime:   input.StartTime,
		EndTime:     input.EndTime,
		MinSpending: input.MinSpending,
		Rate:        input.Rate,
		Points:      input.Points,
	}

	if err := services.CreatePromotion(&p); err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to create promotion"))
		return
	}

	c.JSON(http.StatusCreated, utils.NewResponse(http.StatusCreated, "Promotion created successfully", NewPromotionResponse(&p)))
}

// ListPromotions godoc
// @Summary List promotions
// @Description Regular users see promotions they can use right now; managers see everything with filters.
// @Tags promotions
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param name query string false "Filter by name"
// @Param type query string false "Filter by type"
// @Param started query bool false "Filter by started (manager only)"
// @Param ended query bool false "Filter by ended (manager only)"
// @Success 200 {object} utils.Response{data=utils.ListData}
// @Failure 400 {object} utils.Response
// @Router /promotions [get]
func ListPromotions(c *gin.Context) {
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

	filter := services.PromotionFilter{
		Name:  c.Query("name"),
		Page:  page,
		Limit: limit,
	}

	if typeStr, exists := c.GetQuery("type"); exists {
		t := models.PromotionType(typeStr)
		if !t.Valid() {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid promotion type"))
			return
		}
		filter.Type = &t
	}

	if actor.Role.AtLeast(models.RoleManager) {
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
	} else {
		filter.ForUser = &actor
	}

	promotionsList, total, err := services.FindPromotions(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to fetch promotions"))
		return
	}

	results := make([]PromotionResponse, 0, len(promotionsList))
	for i := range promotionsList {
		results = append(results, NewPromotionResponse(&promotionsList[i]))
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Promotions retrieved successfully", utils.ListData{
		Count:   total,
		Results: results,
		Page:    page,
		Limit:   limit,
	}))
}

// GetPromotion godoc
// @Summary Fetch one promotion
// @Description Regular users only see promotions inside their active window.
// @Tags promotions
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Promotion ID"
// @Success 200 {object} utils.Response{data=PromotionResponse}
// @Failure 404 {object} utils.Response
// @Router /promotions/{id} [get]
func GetPromotion(c *gin.Context) {
	actor, _ := middleware.CurrentUser(c)

	id, err := strconv.Atoi(c.Param("promotionId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid promotion ID"))
		return
	}

	p, err := services.FindPromotionByID(uint(id))
	if err != nil {
		if errors.Is(err, services.ErrPromotionNotFound) {
			c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "Promotion not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to fetch promotion"))
		return
	}

	if !actor.Role.AtLeast(models.RoleManager) && !p.ActiveAt(time.Now()) {
		c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "Promotion not found"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Promotion retrieved successfully", NewPromotionResponse(&p)))
}

// UpdatePromotion godoc
// @Summary Update a promotion
// @Description Manager only. Financial fields freeze once the window opens.
// @Tags promotions
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Promotion ID"
// @Param body body UpdatePromotionInput true "Fields to update"
// @Success 200 {object} utils.Response{data=PromotionResponse}
// @Failure 400 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /promotions/{id} [patch]
func UpdatePromotion(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("promotionId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid promotion ID"))
		return
	}

	var input UpdatePromotionInput
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
	if input.Type != nil {
		t := models.PromotionType(*input.Type)
		if !t.Valid() {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Type must be automatic or one-time"))
			return
		}
		updates["type"] = string(t)
	}
	if input.StartTime != nil {
		updates["start_time"] = *input.StartTime
	}
	if input.EndTime != nil {
		updates["end_time"] = *input.EndTime
	}
	if input.MinSpending != nil {
		updates["min_spending"] = *input.MinSpending
	}
	if input.Rate != nil {
		updates["rate"] = *input.Rate
	}
	if input.Points != nil {
		updates["points"] = *input.Points
	}

	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "No fields to update"))
		return
	}

	p, err := services.UpdatePromotion(uint(id), updates)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPromotionNotFound):
			c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "Promotion not found"))
		case errors.Is(err, services.ErrPromotionStarted), errors.Is(err, services.ErrPromotionEnded):
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, err.Error()))
		default:
			c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to update promotion"))
		}
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Promotion updated successfully", NewPromotionResponse(p)))
}

// DeletePromotion godoc
// @Summary Delete a promotion
// @Description Manager only. Promotions that have started cannot be deleted.
// @Tags promotions
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Promotion ID"
// @Success 204 {object} nil
// @Failure 403 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /promotions/{id} [delete]
func DeletePromotion(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("promotionId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid promotion ID"))
		return
	}

	if err := services.DeletePromotion(uint(id)); err != nil {
		switch {
		case errors.Is(err, services.ErrPromotionNotFound):
			c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "Promotion not found"))
		case errors.Is(err, services.ErrPromotionStarted):
			c.JSON(http.StatusForbidden, utils.NewErrorResponse(http.StatusForbidden, err.Error()))
		default:
			c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to delete promotion"))
		}
		return
	}

	c.Status(http.StatusNoContent)
}
