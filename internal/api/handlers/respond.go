package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/greenmart/groceryapi/pkg/errors"
)

// writeServiceError maps the service error taxonomy onto HTTP statuses.
// Unknown errors are logged and surfaced as a generic 500.
func writeServiceError(c *gin.Context, logger *zap.Logger, err error) {
	switch err.(type) {
	case *errors.ErrValidation:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case *errors.ErrNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case *errors.ErrUnauthorized:
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case *errors.ErrBusinessRule, *errors.ErrInvalidPrice, *errors.ErrInvalidStateTransition:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case *errors.ErrGateway:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Error("Unhandled service error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
