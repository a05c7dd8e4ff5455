package routes

import (
	"promptarena/controllers"

	"github.com/gin-gonic/gin"
)

// SetupGenerationRoutes registers the provider passthrough endpoints.
func SetupGenerationRoutes(router *gin.RouterGroup) {
	router.POST("/generation/text", controllers.GenerateText)
	router.POST("/generation/image", controllers.GenerateImage)
	router.POST("/generation/audio", controllers.GenerateAudio)
}
