package transactions

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"luckyaces-backend/internal/middleware"
	"luckyaces-backend/internal/models"
	"luckyaces-backend/internal/services"
	"luckyaces-backend/internal/utils"

	"github.com/gin-gonic/gin"
)

// CreateTransaction godoc
// @Summary Record a purchase or adjustment
// @Description Purchases require cashier+, adjustments manager+.
// @Tags transactions
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body CreateTransactionInput true "Transaction"
// @Success 201 {object} utils.Response{data=TransactionResponse}
// @Failure 400 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /transactions [post]
func CreateTransaction(c *gin.Context) {
	actor, _ := middleware.CurrentUser(c)

	var input CreateTransactionInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	switch input.Type {
	case models.TransactionTypePurchase:
		if input.Spent == nil {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Purchases require a spent amount"))
			return
		}
		row, err := services.RecordPurchase(input.UTORid, *input.Spent, input.PromotionIDs, input.Remark, actor)
		if err != nil {
			respondLedgerError(c, err)
			return
		}
		c.JSON(http.StatusCreated, utils.NewResponse(http.StatusCreated, "Purchase recorded", NewTransactionResponse(row)))

	case models.TransactionTypeAdjustment:
		if !actor.Role.AtLeast(models.RoleManager) {
			c.JSON(http.StatusForbidden, utils.NewErrorResponse(http.StatusForbidden, "Adjustments require manager privileges"))
			return
		}
		if input.Amount == nil || input.RelatedID == nil {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Adjustments require amount and relatedId"))
			return
		}
		row, err := services.RecordAdjustment(input.UTORid, *input.Amount, *input.RelatedID, input.PromotionIDs, input.Remark, actor)
		if err != nil {
			respondLedgerError(c, err)
			return
		}
		c.JSON(http.StatusCreated, utils.NewResponse(http.StatusCreated, "Adjustment recorded", NewTransactionResponse(row)))

	default:
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Type must be purchase or adjustment"))
	}
}

// ListTransactions godoc
// @Summary List ledger transactions
// @Description Paginated list with filtering. Manager only.
// @Tags transactions
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param name query string false "Filter by owner utorid or name"
// @Param createdBy query string false "Filter by creator utorid"
// @Param type query string false "Filter by transaction type"
// @Param suspicious query bool false "Filter by suspicious flag"
// @Param relatedId query int false "Filter by related id"
// @Param promotionId query int false "Filter by applied promotion"
// @Param amount query int false "Amount bound, used with operator"
// @Param operator query string false "gte or lte"
// @Success 200 {object} utils.Response{data=utils.ListData}
// @Failure 400 {object} utils.Response
// @Router /transactions [get]
func ListTransactions(c *gin.Context) {
	filter, ok := parseFilter(c)
	if !ok {
		return
	}

	listWithFilter(c, filter)
}

// ExportTransactions godoc
// @Summary Export transactions as CSV
// @Description Applies the same filters as the list endpoint. Manager only.
// @Tags transactions
// @Produce text/csv
// @Security ApiKeyAuth
// @Param name query string false "Filter by owner utorid or name"
// @Param createdBy query string false "Filter by creator utorid"
// @Param type query string false "Filter by transaction type"
// @Param suspicious query bool false "Filter by suspicious flag"
// @Success 200 {string} string "CSV document"
// @Failure 400 {object} utils.Response
// @Router /transactions/export [get]
func ExportTransactions(c *gin.Context) {
	filter, ok := parseFilter(c)
	if !ok {
		return
	}
	filter.Page = 1
	filter.Limit = 10000

	rows, _, err := services.FindTransactions(filter)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, err.Error()))
		return
	}

	csvContent, err := services.GenerateTransactionCSV(rows)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to generate CSV"))
		return
	}

	filename := fmt.Sprintf("transactions_%s.csv", time.Now().Format("20060102150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "text/csv", csvContent)
}

// GetTransaction godoc
// @Summary Fetch one transaction
// @Tags transactions
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Transaction ID"
// @Success 200 {object} utils.Response{data=TransactionResponse}
// @Failure 404 {object} utils.Response
// @Router /transactions/{id} [get]
func GetTransaction(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("transactionId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid transaction ID"))
		return
	}

	row, err := services.FindTransactionByID(uint(id))
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Transaction retrieved successfully", NewTransactionResponse(&row)))
}

// SetSuspicious godoc
// @Summary Toggle the suspicious flag on a transaction
// @Description Flagging reverses the point effect; clearing re-applies it. Manager only.
// @Tags transactions
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Transaction ID"
// @Param body body SetSuspiciousInput true "Flag"
// @Success 200 {object} utils.Response{data=TransactionResponse}
// @Failure 400 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /transactions/{id}/suspicious [patch]
func SetSuspicious(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("transactionId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid transaction ID"))
		return
	}

	var input SetSuspiciousInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	row, err := services.SetSuspicious(uint(id), *input.Suspicious)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Transaction updated successfully", NewTransactionResponse(row)))
}

// ProcessRedemption godoc
// @Summary Process a pending redemption
// @Description Debits the requester's balance exactly once. Cashier+.
// @Tags transactions
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Transaction ID"
// @Param body body ProcessInput true "Processed"
// @Success 200 {object} utils.Response{data=TransactionResponse}
// @Failure 400 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /transactions/{id}/processed [patch]
func ProcessRedemption(c *gin.Context) {
	actor, _ := middleware.CurrentUser(c)

	id, err := strconv.Atoi(c.Param("transactionId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid transaction ID"))
		return
	}

	var input ProcessInput
	if !utils.BindAndValidate(c, &input) {
		return
	}
	if !*input.Processed {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Processed can only be set to true"))
		return
	}

	row, err := services.ProcessRedemption(uint(id), actor)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Redemption processed successfully", NewTransactionResponse(row)))
}

// parseFilter reads the shared list query parameters. On a bad parameter it
// writes the 400 response and returns ok=false.
func parseFilter(c *gin.Context) (services.TransactionFilter, bool) {
	var filter services.TransactionFilter

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid page number"))
		return filter, false
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid limit number"))
		return filter, false
	}
	filter.Page = page
	filter.Limit = limit

	filter.Name = c.Query("name")
	filter.CreatedBy = c.Query("createdBy")

	if typeStr, exists := c.GetQuery("type"); exists {
		t := models.TransactionType(typeStr)
		if !t.Valid() {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid transaction type"))
			return filter, false
		}
		filter.Type = &t
	}
	if suspiciousStr, exists := c.GetQuery("suspicious"); exists {
		suspicious, err := strconv.ParseBool(suspiciousStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid suspicious flag"))
			return filter, false
		}
		filter.Suspicious = &suspicious
	}
	if relatedStr, exists := c.GetQuery("relatedId"); exists {
		related, err := strconv.Atoi(relatedStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid relatedId"))
			return filter, false
		}
		rid := uint(related)
		filter.RelatedID = &rid
	}
	if promoStr, exists := c.GetQuery("promotionId"); exists {
		promo, err := strconv.Atoi(promoStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid promotionId"))
			return filter, false
		}
		pid := uint(promo)
		filter.PromotionID = &pid
	}
	if amountStr, exists := c.GetQuery("amount"); exists {
		amount, err := strconv.Atoi(amountStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid amount"))
			return filter, false
		}
		operator := c.Query("operator")
		if operator != "gte" && operator != "lte" {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Operator must be gte or lte"))
			return filter, false
		}
		filter.Amount = &amount
		filter.Operator = operator
	}

	return filter, true
}

// listWithFilter runs the filter and writes the standard list envelope.
// Shared with the self-scoped listing in the users package.
func listWithFilter(c *gin.Context, filter services.TransactionFilter) {
	rows, total, err := services.FindTransactions(filter)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, err.Error()))
		return
	}

	results := make([]TransactionResponse, 0, len(rows))
	for i := range rows {
		results = append(results, NewTransactionResponse(&rows[i]))
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Transactions retrieved successfully", utils.ListData{
		Count:   total,
		Results: results,
		Page:    filter.Page,
		Limit:   filter.Limit,
	}))
}

// ListOwnTransactions is the self-scoped variant mounted under /users/me.
func ListOwnTransactions(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	filter, ok := parseFilter(c)
	if !ok {
		return
	}
	filter.UserID = &user.ID
	filter.Name = "" // owner filter is fixed to the caller

	listWithFilter(c, filter)
}

func respondLedgerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUserNotFound) || errors.Is(err, services.ErrTransactionNotFound):
		c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, err.Error()))
	case errors.Is(err, services.ErrNotVerified):
		c.JSON(http.StatusForbidden, utils.NewErrorResponse(http.StatusForbidden, err.Error()))
	case errors.Is(err, services.ErrPromotionIneligible),
		errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrInsufficientBalance),
		errors.Is(err, services.ErrNotRedemption),
		errors.Is(err, services.ErrAlreadyProcessed),
		errors.Is(err, services.ErrAdjustmentSuspicious),
		errors.Is(err, services.ErrSameUserTransfer):
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to record transaction"))
	}
}
