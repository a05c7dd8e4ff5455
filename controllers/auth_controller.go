package controllers

import (
	"context"
	"net/http"
	"time"

	"promptarena/middlewares"
	"promptarena/services"
	"promptarena/structs"
	"promptarena/utils"

	"github.com/gin-gonic/gin"
)

func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), 10*time.Second)
}

func SignUp(c *gin.Context) {
	var request structs.SignUpRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "message": err.Error()})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := services.CreateUser(ctx, request.Email, request.Username, request.Password, request.ConfirmPassword)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	token, err := utils.GenerateJWTToken(user.ID.Hex())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusCreated, structs.AuthResponse{
		Token:    token,
		UserID:   user.ID.Hex(),
		Email:    user.Email,
		Username: user.Username,
	})
}

func Login(c *gin.Context) {
	var request structs.LoginRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "message": "Check email and password format"})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := services.Authenticate(ctx, request.Email, request.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	token, err := utils.GenerateJWTToken(user.ID.Hex())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, structs.AuthResponse{
		Token:    token,
		UserID:   user.ID.Hex(),
		Email:    user.Email,
		Username: user.Username,
	})
}

func GetProfile(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := services.GetProfile(ctx, middlewares.GetUserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func UpdateTokens(c *gin.Context) {
	var request structs.UpdateTokensRequest
	if err := c.ShouldBindJSON(&request); err != nil || request.Tokens == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tokens is required"})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := services.AddTokenUsage(ctx, middlewares.GetUserID(c), *request.Tokens)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"totalTokens":   user.TotalTokens,
		"monthlyTokens": user.MonthlyTokens,
	})
}

func ChangePassword(c *gin.Context) {
	var request structs.ChangePasswordRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "message": err.Error()})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := services.ChangePassword(ctx, middlewares.GetUserID(c), request.CurrentPassword, request.NewPassword); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password successfully changed"})
}

func UpdateProfile(c *gin.Context) {
	var request structs.UpdateProfileRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "message": err.Error()})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := services.UpdateProfile(ctx, middlewares.GetUserID(c), request.Email, request.Username)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
