package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ai-shadow/shadow-backend/internal/requestdata"
	"github.com/ai-shadow/shadow-backend/internal/services"
)

type AuthHandler struct {
	authService    services.AuthService
	profileService services.ProfileService
}

func NewAuthHandler(authService services.AuthService, profileService services.ProfileService) *AuthHandler {
	return &AuthHandler{authService: authService, profileService: profileService}
}

func (ah *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c)
		return
	}
	res, err := ah.authService.Register(c.Request.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"token":   res.Token,
		"user":    res.User,
	})
}

func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c)
		return
	}
	res, err := ah.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   res.Token,
		"user":    res.User,
	})
}

func (ah *AuthHandler) GetProfile(c *gin.Context) {
	ctx := c.Request.Context()
	user, err := ah.profileService.GetProfile(ctx, requestdata.UserID(ctx))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"user": user})
}

func (ah *AuthHandler) UpdateProfile(c *gin.Context) {
	var req struct {
		Name        *string         `json:"name"`
		AvatarURL   *string         `json:"avatar_url"`
		Preferences json.RawMessage `json:"preferences"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c)
		return
	}
	ctx := c.Request.Context()
	user, err := ah.profileService.UpdateProfile(ctx, requestdata.UserID(ctx), services.UpdateProfileInput{
		Name:        req.Name,
		AvatarURL:   req.AvatarURL,
		Preferences: req.Preferences,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"message": "Profile updated successfully", "user": user})
}
