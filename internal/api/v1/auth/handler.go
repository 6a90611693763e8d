package auth

import (
	"errors"
	"net/http"
	"time"

	"luckyaces-backend/internal/services"
	"luckyaces-backend/internal/utils"

	"github.com/gin-gonic/gin"
)

type LoginInput struct {
	UTORid   string `json:"utorid" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Login godoc
// @Summary Issue a bearer token
// @Description Log in with a utorid and password
// @Tags auth
// @Accept  json
// @Produce  json
// @Param   input     body   LoginInput  true  "Login Input"
// @Success 200 {object} utils.Response{data=TokenResponse}
// @Failure 400 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Router /auth/tokens [post]
func Login(c *gin.Context) {
	var input LoginInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	token, expiresAt, _, err := services.LoginUser(input.UTORid, input.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Invalid utorid or password"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Logged in successfully", TokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
	}))
}

// Logout godoc
// @Summary Revoke the current bearer token
// @Tags auth
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Router /auth/tokens [delete]
func Logout(c *gin.Context) {
	tokenString, err := utils.ExtractToken(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, err.Error()))
		return
	}

	remaining := utils.TokenLifetime
	if claims, err := utils.ValidateToken(tokenString); err == nil {
		if exp, ok := claims["exp"].(float64); ok {
			remaining = time.Until(time.Unix(int64(exp), 0))
		}
	}

	if err := services.AddToDenylist(tokenString, remaining); err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to revoke token"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Logged out successfully", nil))
}

type ResetRequestInput struct {
	UTORid string `json:"utorid" binding:"required"`
}

type ResetRequestResponse struct {
	ResetToken string    `json:"resetToken"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// RequestReset godoc
// @Summary Request a password reset token
// @Tags auth
// @Accept  json
// @Produce  json
// @Param   input     body   ResetRequestInput  true  "Reset Request Input"
// @Success 202 {object} utils.Response{data=ResetRequestResponse}
// @Failure 404 {object} utils.Response
// @Failure 429 {object} utils.Response
// @Router /auth/resets [post]
func RequestReset(c *gin.Context) {
	var input ResetRequestInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	reset, err := services.RequestPasswordReset(input.UTORid)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "User not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to create reset token"))
		return
	}

	c.JSON(http.StatusAccepted, utils.NewResponse(http.StatusAccepted, "Reset token created", ResetRequestResponse{
		ResetToken: reset.Token,
		ExpiresAt:  reset.ExpiresAt,
	}))
}

type ResetPasswordInput struct {
	UTORid   string `json:"utorid" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ResetPassword godoc
// @Summary Redeem a reset token and set a new password
// @Tags auth
// @Accept  json
// @Produce  json
// @Param   resetToken path string true "Reset token"
// @Param   input     body   ResetPasswordInput  true  "Reset Password Input"
// @Success 200 {object} utils.Response
// @Failure 400 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Failure 410 {object} utils.Response
// @Router /auth/resets/{resetToken} [post]
func ResetPassword(c *gin.Context) {
	var input ResetPasswordInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	if !utils.ValidPassword(input.Password) {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Password must be 8-20 characters with upper, lower, digit and special characters"))
		return
	}

	err := services.ResetPassword(c.Param("resetToken"), input.UTORid, input.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrResetTokenNotFound):
			c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "Reset token not found"))
		case errors.Is(err, services.ErrResetTokenExpired):
			c.JSON(http.StatusGone, utils.NewErrorResponse(http.StatusGone, "Reset token expired or already used"))
		case errors.Is(err, services.ErrResetTokenMismatch):
			c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Reset token does not belong to this utorid"))
		default:
			c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to reset password"))
		}
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Password updated successfully", nil))
}
