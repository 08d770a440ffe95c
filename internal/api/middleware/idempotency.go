package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/greenmart/groceryapi/internal/repository"
	"github.com/greenmart/groceryapi/pkg/errors"
)

const (
	idempotencyHeader     = "Idempotency-Key"
	idempotencyContextKey = "idempotency_info"
)

type idempotencyInfo struct {
	key             string
	requestHash     string
	existingOrderID string
	isExisting      bool
}

// IdempotencyMiddleware resolves the Idempotency-Key header against the
// stored keys of the authenticated user. A key seen before with the
// same request body marks the request as a replay; the same key with a
// different body is rejected. Requests without the header pass through
// untouched. Must run after AuthMiddleware.
func IdempotencyMiddleware(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(idempotencyHeader)
		if key == "" {
			c.Next()
			return
		}

		user, ok := GetUserFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
			return
		}
		// The handler still needs to bind the body.
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		sum := sha256.Sum256(body)
		requestHash := hex.EncodeToString(sum[:])

		info := idempotencyInfo{key: key, requestHash: requestHash}

		stored, err := repos.Idempotency.Get(c.Request.Context(), key, user.ID)
		switch {
		case err == nil:
			if stored.RequestHash != requestHash {
				c.AbortWithStatusJSON(http.StatusConflict, gin.H{
					"error": "idempotency key was used with a different request body",
				})
				return
			}
			info.existingOrderID = stored.OrderID.String()
			info.isExisting = true
		default:
			if _, ok := err.(*errors.ErrNotFound); !ok {
				logger.Error("Failed to look up idempotency key", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
				return
			}
		}

		c.Set(idempotencyContextKey, info)
		c.Next()
	}
}

// GetIdempotencyInfo retrieves what IdempotencyMiddleware resolved for
// this request: the client key, the request body hash, and the ID of
// the order a previous identical request already created.
func GetIdempotencyInfo(c *gin.Context) (key, requestHash, existingOrderID string, isExisting bool) {
	val, exists := c.Get(idempotencyContextKey)
	if !exists {
		return "", "", "", false
	}
	info, ok := val.(idempotencyInfo)
	if !ok {
		return "", "", "", false
	}
	return info.key, info.requestHash, info.existingOrderID, info.isExisting
}
