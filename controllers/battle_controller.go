package controllers

import (
	"net/http"

	"promptarena/middlewares"
	"promptarena/services"
	"promptarena/structs"

	"github.com/gin-gonic/gin"
)

func CreateBattle(c *gin.Context) {
	var request structs.CreateBattleRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "message": err.Error()})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	battle, err := services.CreateBattle(ctx, middlewares.GetUserID(c), request)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, battle)
}

func ListBattles(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	battles, err := services.ListBattles(ctx)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, battles)
}

func GetBattle(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	battle, err := services.GetBattle(ctx, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, battle)
}

func UpdateBattle(c *gin.Context) {
	var request structs.UpdateBattleRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "message": err.Error()})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	battle, err := services.UpdateBattle(ctx, c.Param("id"), request)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, battle)
}

func VoteBattle(c *gin.Context) {
	var request structs.VoteRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "model is required"})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	battle, err := services.VoteBattle(ctx, c.Param("id"), middlewares.GetUserID(c), request.Model)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, battle)
}

func DeleteBattle(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := services.DeleteBattle(ctx, middlewares.GetUserID(c), c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Battle deleted"})
}

func CleanupExpiredBattles(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	count, err := services.CleanupExpiredBattles(ctx)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deactivated": count})
}
