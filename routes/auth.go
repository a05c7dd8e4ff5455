package routes

import (
	"promptarena/controllers"

	"github.com/gin-gonic/gin"
)

// SetupAuthRoutes registers the public signup/login endpoints.
func SetupAuthRoutes(router *gin.RouterGroup) {
	router.POST("/auth/signup", controllers.SignUp)
	router.POST("/auth/login", controllers.Login)
}

// SetupAccountRoutes registers the JWT-gated account and chat endpoints.
func SetupAccountRoutes(router *gin.RouterGroup) {
	router.GET("/auth/profile", controllers.GetProfile)
	router.POST("/auth/update-tokens", controllers.UpdateTokens)
	router.POST("/auth/change-password", controllers.ChangePassword)
	router.POST("/auth/update-profile", controllers.UpdateProfile)

	router.POST("/auth/save-chat", controllers.SaveChat)
	router.GET("/auth/chats", controllers.ListChats)
	router.GET("/auth/chats/:id", controllers.GetChat)
	router.PUT("/auth/chats/:id", controllers.UpdateChat)
	router.DELETE("/auth/chats/:id", controllers.DeleteChat)
	router.GET("/auth/chats/search/:query", controllers.SearchChats)
}
