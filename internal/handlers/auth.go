package handlers

import (
	"errors"
	"net/http"
	"strings"

	"taskflow/backend/internal/apierrors"
	"taskflow/backend/internal/models"
	"taskflow/backend/internal/services"
	"taskflow/backend/internal/validation"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AuthHandler struct {
	db          *gorm.DB
	userService services.UserService
	authService services.AuthService
}

func NewAuthHandler(db *gorm.DB, userService services.UserService, authService services.AuthService) *AuthHandler {
	return &AuthHandler{db: db, userService: userService, authService: authService}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Register creates the account and issues its first token pair. The
// password never leaves the server; the response is the bare success
// envelope.
func (h *AuthHandler) Register(c *gin.Context) {
	var input validation.UserCreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, "User data is required.")
		return
	}

	if err := validation.UserCreate(&input); err != nil {
		handleServiceError(c, err, "User not found.", "User already exists.")
		return
	}

	user := models.User{
		UserName: input.UserName,
		Email:    strings.ToLower(strings.TrimSpace(input.Email)),
		Password: input.Password,
		Role:     models.Role(input.Role),
	}

	created, err := h.userService.CreateUser(h.db, user)
	if err != nil {
		handleServiceError(c, err, "User not found.", "User already exists.")
		return
	}

	if _, err := h.authService.GenerateTokenPair(h.db, &created); err != nil {
		handleServiceError(c, err, "User not found.", "User already exists.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User created successfully",
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "User Data Required.")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	pair, err := h.authService.Login(h.db, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, apierrors.ErrInvalidCredentials) {
			respondError(c, http.StatusUnauthorized, "Invalid credentials.")
			return
		}
		handleServiceError(c, err, "User not found.", "User already exists.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      "Logged in successfully",
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		respondError(c, http.StatusUnauthorized, "No refresh token provided.")
		return
	}

	newAccessToken, err := h.authService.Refresh(h.db, req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, apierrors.ErrTokenInvalid):
			respondError(c, http.StatusForbidden, "Invalid refresh token.")
		case errors.Is(err, apierrors.ErrNotFound):
			respondError(c, http.StatusNotFound, "User not found.")
		default:
			handleServiceError(c, err, "User not found.", "User already exists.")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"message":        "Token refreshed successfully",
		"newAccessToken": newAccessToken,
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		respondError(c, http.StatusBadRequest, "No refresh token provided.")
		return
	}

	// Revoking an already-revoked or unknown token still logs out.
	_ = h.authService.Revoke(h.db, req.RefreshToken)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Successfully logged out",
	})
}
