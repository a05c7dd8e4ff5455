package controllers

import (
	"context"
	"net/http"
	"time"

	"promptarena/services"
	"promptarena/structs"

	"github.com/gin-gonic/gin"
)

func GenerateText(c *gin.Context) {
	var request structs.TextGenerationRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "message": err.Error()})
		return
	}

	// Model inference can be slow; allow more than the usual request timeout.
	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()

	text, err := services.GenerateModelText(ctx, request.Model, request.Prompt)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Generation failed", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": text})
}

func GenerateImage(c *gin.Context) {
	var request structs.ImageGenerationRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "message": err.Error()})
		return
	}

	url, err := services.BuildImageURL(request.Prompt, request.Width, request.Height)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"imageUrl": url})
}

func GenerateAudio(c *gin.Context) {
	var request structs.AudioGenerationRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "message": err.Error()})
		return
	}

	url, err := services.BuildAudioURL(request.Prompt, request.Voice)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"audioUrl": url})
}
