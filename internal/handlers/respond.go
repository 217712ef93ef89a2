package handlers

import (
	"errors"
	"log"
	"net/http"

	"taskflow/backend/internal/apierrors"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": true, "message": message})
}

// handleServiceError maps the error taxonomy onto status codes and the
// failure envelope. notFoundMsg/duplicateMsg let each handler keep the
// entity-specific wording the clients expect.
func handleServiceError(c *gin.Context, err error, notFoundMsg, duplicateMsg string) {
	if ve, ok := apierrors.AsValidation(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   true,
			"message": "Validation failed.",
			"errors":  ve.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, apierrors.ErrNotFound):
		respondError(c, http.StatusNotFound, notFoundMsg)
	case errors.Is(err, apierrors.ErrDuplicate):
		respondError(c, http.StatusBadRequest, duplicateMsg)
	case errors.Is(err, apierrors.ErrInvalidAssignee):
		respondError(c, http.StatusBadRequest, "One or more assignees are invalid.")
	case errors.Is(err, apierrors.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, "Invalid credentials.")
	case errors.Is(err, apierrors.ErrTokenInvalid):
		respondError(c, http.StatusForbidden, "Invalid refresh token.")
	case errors.Is(err, apierrors.ErrForbidden):
		respondError(c, http.StatusForbidden, "You are not authorized to perform this action.")
	default:
		// Internal detail stays in the server log; the client only sees
		// an opaque message.
		log.Printf("internal error: %v", err)
		respondError(c, http.StatusInternalServerError, "Internal server error.")
	}
}
