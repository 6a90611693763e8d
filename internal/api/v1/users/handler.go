package users

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

// CreateUser godoc
// @Summary Register a new user
// @Description Creates an account and returns its activation reset token. Cashier+.
// @Tags users
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body CreateUserInput true "New user"
// @Success 201 {object} utils.Response{data=CreateUserResponse}
// @Failure 400 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Router /users [post]
func CreateUser(c *gin.Context) {
	var input CreateUserInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	if !utils.ValidUTORid(input.UTORid) {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "utorid must be 7-8 alphanumeric characters"))
		return
	}
	if !utils.ValidInstitutionalEmail(input.Email) {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Email must be a valid institutional address"))
		return
	}

	user, reset, err := services.CreateUser(input.UTORid, input.Name, input.Email)
	if err != nil {
		if errors.Is(err, services.ErrUserExists) {
			c.JSON(http.StatusConflict, utils.NewErrorResponse(http.StatusConflict, err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to create user"))
		return
	}

	c.JSON(http.StatusCreated, utils.NewResponse(http.StatusCreated, "User created successfully", CreateUserResponse{
		ID:         user.ID,
		UTORid:     user.UTORid,
		Name:       user.Name,
		Email:      user.Email,
		Verified:   user.Verified,
		ResetToken: reset.Token,
		ExpiresAt:  reset.ExpiresAt,
	}))
}

// ListUsers godoc
// @Summary List users
// @Description Paginated list with filtering. Manager only.
// @Tags users
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param name query string false "Filter by utorid or name"
// @Param role query string false "Filter by role"
// @Param verified query bool false "Filter by verified"
// @Param activated query bool false "Filter by activation state"
// @Success 200 {object} utils.Response{data=utils.ListData}
// @Failure 400 {object} utils.Response
// @Router /users [get]
func ListUsers(c *gin.Context) {
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

	filter := services.UserFilter{
		Name:  c.Query("name"),
		Page:  page,
		Limit: limit,
	}

	if roleStr, exists := c.GetQuery("role"); exists {
		role := models.Role(roleStr)
		if !role.Valid() {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid role"))
			return
		}
		filter.Role = &role
	}
	if verifiedStr, exists := c.GetQuery("verified"); exists {
		verified, err := strconv.ParseBool(verifiedStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid verified flag"))
			return
		}
		filter.Verified = &verified
	}
	if activatedStr, exists := c.GetQuery("activated"); exists {
		activated, err := strconv.ParseBool(activatedStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid activated flag"))
			return
		}
		filter.Activated = &activated
	}

	usersList, total, err := services.FindUsers(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to fetch users"))
		return
	}

	results := make([]UserResponse, 0, len(usersList))
	for i := range usersList {
		results = append(results, NewUserResponse(&usersList[i]))
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Users retrieved successfully", utils.ListData{
		Count:   total,
		Results: results,
		Page:    page,
		Limit:   limit,
	}))
}

// GetUser godoc
// @Summary Fetch a user
// @Description Cashiers get a limited view with eligible one-time promotions; managers the full record.
// @Tags users
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "User ID"
// @Success 200 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /users/{id} [get]
func GetUser(c *gin.Context) {
	actor, _ := middleware.CurrentUser(c)

	id, err := strconv.Atoi(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid user ID"))
		return
	}

	user, err := services.FindUserByID(uint(id))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "User not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to fetch user"))
		return
	}

	if actor.Role.AtLeast(models.RoleManager) {
		c.JSON(http.StatusOK, utils.NewSuccessResponse("User retrieved successfully", NewUserResponse(&user)))
		return
	}

	promotions, err := services.EligibleOneTimePromotions(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to fetch promotions"))
		return
	}

	summaries := make([]PromotionSummary, 0, len(promotions))
	for _, p := range promotions {
		summaries = append(summaries, PromotionSummary{
			ID:          p.ID,
			Name:        p.Name,
			MinSpending: p.MinSpending,
			Rate:        p.Rate,
			Points:      p.Points,
		})
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("User retrieved successfully", LimitedUserResponse{
		ID:         user.ID,
		UTORid:     user.UTORid,
		Name:       user.Name,
		Points:     user.Points,
		Verified:   user.Verified,
		Promotions: summaries,
	}))
}

// UpdateUser godoc
// @Summary Update a user's status or role
// @Description Manager only. Managers may only assign regular or cashier.
// @Tags users
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "User ID"
// @Param body body UpdateUserInput true "Fields to update"
// @Success 200 {object} utils.Response{data=UserResponse}
// @Failure 400 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /users/{id} [patch]
func UpdateUser(c *gin.Context) {
	actor, _ := middleware.CurrentUser(c)

	id, err := strconv.Atoi(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid user ID"))
		return
	}

	var input UpdateUserInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	updates := make(map[string]interface{})
	if input.Email != nil {
		if !utils.ValidInstitutionalEmail(*input.Email) {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Email must be a valid institutional address"))
			return
		}
		updates["email"] = *input.Email
	}
	if input.Verified != nil {
		if !*input.Verified {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Verified can only be set to true"))
			return
		}
		updates["verified"] = true
	}
	if input.Suspicious != nil {
		updates["suspicious"] = *input.Suspicious
	}
	if input.Role != nil {
		updates["role"] = *input.Role
	}

	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "No fields to update"))
		return
	}

	user, err := services.UpdateUserByManager(uint(id), updates, actor)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "User not found"))
		case errors.Is(err, services.ErrRoleNotAllowed):
			c.JSON(http.StatusForbidden, utils.NewErrorResponse(http.StatusForbidden, err.Error()))
		default:
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, err.Error()))
		}
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("User updated successfully", NewUserResponse(user)))
}

// GetMe godoc
// @Summary Fetch the authenticated user
// @Tags users
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} utils.Response{data=UserResponse}
// @Router /users/me [get]
func GetMe(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	c.JSON(http.StatusOK, utils.NewSuccessResponse("User retrieved successfully", NewUserResponse(&user)))
}

// UpdateMe godoc
// @Summary Update the authenticated user's profile
// @Tags users
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body UpdateProfileInput true "Profile fields"
// @Success 200 {object} utils.Response{data=UserResponse}
// @Failure 400 {object} utils.Response
// @Router /users/me [patch]
func UpdateMe(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var input UpdateProfileInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	updates := make(map[string]interface{})
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Email != nil {
		if !utils.ValidInstitutionalEmail(*input.Email) {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Email must be a valid institutional address"))
			return
		}
		updates["email"] = *input.Email
	}
	if input.Birthday != nil {
		if !utils.ValidBirthday(*input.Birthday) {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Birthday must be YYYY-MM-DD"))
			return
		}
		updates["birthday"] = *input.Birthday
	}
	if input.Avatar != nil {
		updates["avatar_url"] = *input.Avatar
	}

	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "No fields to update"))
		return
	}

	updated, err := services.UpdateProfile(user.ID, updates)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to update profile"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Profile updated successfully", NewUserResponse(updated)))
}

// ChangePassword godoc
// @Summary Change the authenticated user's password
// @Tags users
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body ChangePasswordInput true "Old and new password"
// @Success 200 {object} utils.Response
// @Failure 400 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Router /users/me/password [patch]
func ChangePassword(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var input ChangePasswordInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	if !utils.ValidPassword(input.New) {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Password must be 8-20 characters with upper, lower, digit and special characters"))
		return
	}

	if err := services.ChangePassword(user.ID, input.Old, input.New); err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.JSON(http.StatusForbidden, utils.NewErrorResponse(http.StatusForbidden, "Incorrect current password"))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to change password"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Password updated successfully", nil))
}

// CreateRedemption godoc
// @Summary Request a redemption of the caller's points
// @Description Creates an unprocessed redemption. The balance is debited at processing time.
// @Tags users
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body RedemptionInput true "Redemption"
// @Success 201 {object} utils.Response{data=transactions.TransactionResponse}
// @Failure 400 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Router /users/me/transactions [post]
func CreateRedemption(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var input RedemptionInput
	if !utils.BindAndValidate(c, &input) {
		return
	}
	if input.Type != string(models.TransactionTypeRedemption) {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Type must be redemption"))
		return
	}

	row, err := services.RequestRedemption(user, input.Amount, input.Remark)
	if err != nil {
		respondTransferError(c, err)
		return
	}

	c.JSON(http.StatusCreated, utils.NewResponse(http.StatusCreated, "Redemption requested", transactions.NewTransactionResponse(row)))
}

// CreateTransfer godoc
// @Summary Transfer points to another user
// @Description Debits the caller and credits the target atomically.
// @Tags users
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Recipient user ID"
// @Param body body TransferInput true "Transfer"
// @Success 201 {object} utils.Response{data=transactions.TransactionResponse}
// @Failure 400 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /users/{id}/transactions [post]
func CreateTransfer(c *gin.Context) {
	sender, _ := middleware.CurrentUser(c)

	id, err := strconv.Atoi(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid user ID"))
		return
	}

	var input TransferInput
	if !utils.BindAndValidate(c, &input) {
		return
	}
	if input.Type != string(models.TransactionTypeTransfer) {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Type must be transfer"))
		return
	}

	recipient, err := services.FindUserByID(uint(id))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "User not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to fetch user"))
		return
	}

	row, err := services.RecordTransfer(sender, recipient.UTORid, input.Amount, input.Remark)
	if err != nil {
		respondTransferError(c, err)
		return
	}

	c.JSON(http.StatusCreated, utils.NewResponse(http.StatusCreated, "Transfer recorded", transactions.NewTransactionResponse(row)))
}

func respondTransferError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "User not found"))
	case errors.Is(err, services.ErrNotVerified):
		c.JSON(http.StatusForbidden, utils.NewErrorResponse(http.StatusForbidden, err.Error()))
	case errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrInsufficientBalance),
		errors.Is(err, services.ErrSameUserTransfer):
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to record transaction"))
	}
}
