package uploads

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/uploads")
	{
		group.GET("/sts", GetAvatarSTSToken)
	}
}
