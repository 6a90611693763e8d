package uploads

import (
	"net/http"

	"luckyaces-backend/internal/services"
	"luckyaces-backend/internal/utils"

	"github.com/gin-gonic/gin"
)

// GetAvatarSTSToken godoc
// @Summary Get avatar upload STS token
// @Description Get short-lived STS credentials for uploading an avatar to OSS
// @Tags uploads
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} utils.Response{data=services.STSCredentials}
// @Router /uploads/sts [get]
func GetAvatarSTSToken(c *gin.Context) {
	token, err := services.GetAvatarSTSToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to get upload token: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Upload token retrieved successfully", token))
}
