package routes

import (
	"promptarena/controllers"

	"github.com/gin-gonic/gin"
)

// SetupBattleRoutes registers the community battle endpoints.
func SetupBattleRoutes(router *gin.RouterGroup) {
	router.POST("/community-battles", controllers.CreateBattle)
	router.GET("/community-battles", controllers.ListBattles)
	router.POST("/community-battles/cleanup-expired", controllers.CleanupExpiredBattles)
	router.GET("/community-battles/:id", controllers.GetBattle)
	router.PUT("/community-battles/:id", controllers.UpdateBattle)
	router.POST("/community-battles/:id/vote", controllers.VoteBattle)
	router.DELETE("/community-battles/:id", controllers.DeleteBattle)
}
