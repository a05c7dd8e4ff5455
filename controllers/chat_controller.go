package controllers

import (
	"net/http"

	"promptarena/middlewares"
	"promptarena/services"
	"promptarena/structs"

	"github.com/gin-gonic/gin"
)

func SaveChat(c *gin.Context) {
	var request structs.SaveChatRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "message": err.Error()})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	chatID, err := services.CreateChat(ctx, middlewares.GetUserID(c), request)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"chatId": chatID})
}

func ListChats(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	chats, err := services.ListChats(ctx, middlewares.GetUserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, chats)
}

func GetChat(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	chat, err := services.GetChat(ctx, middlewares.GetUserID(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, chat)
}

func UpdateChat(c *gin.Context) {
	var request structs.UpdateChatRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "message": err.Error()})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := services.UpdateChat(ctx, middlewares.GetUserID(c), c.Param("id"), request); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Chat updated"})
}

func DeleteChat(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := services.DeleteChat(ctx, middlewares.GetUserID(c), c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Chat deleted"})
}

func SearchChats(c *gin.Context) {
	query := c.Param("query")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Search query is required"})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	chats, err := services.SearchChats(ctx, middlewares.GetUserID(c), query)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, chats)
}
