package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/greenmart/groceryapi/internal/api/middleware"
	"github.com/greenmart/groceryapi/internal/gateway"
	"github.com/greenmart/groceryapi/internal/repository"
	"github.com/greenmart/groceryapi/internal/service"
)

// HandleProcessPayment handles POST /v1/payments/process. The card is
// charged through the gateway and the order is created only after the
// charge completes.
func HandleProcessPayment(repos *repository.Repositories, tx repository.TxManager, charger gateway.Charger, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		// A replay must never reach the gateway a second time.
		if existing, done := replayIdempotentOrder(c, repos, logger); done {
			if existing != nil {
				c.JSON(http.StatusOK, orderResponse(existing))
			}
			return
		}

		var req service.ProcessPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		paymentService := service.NewPaymentService(repos, tx, charger, logger)
		order, err := paymentService.ProcessPayment(c.Request.Context(), user.ID, req)
		if err != nil {
			writeServiceError(c, logger, err)
			return
		}

		storeIdempotencyKey(c, repos, logger, user.ID, order.ID)

		c.JSON(http.StatusCreated, orderResponse(order))
	}
}

// HandleRefundPayment handles POST /v1/admin/orders/:id/refund
func HandleRefundPayment(repos *repository.Repositories, tx repository.TxManager, charger gateway.Charger, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
			return
		}

		paymentService := service.NewPaymentService(repos, tx, charger, logger)
		payment, err := paymentService.RefundPayment(c.Request.Context(), orderID)
		if err != nil {
			writeServiceError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"order_id": payment.OrderID.String(),
			"amount":   payment.Amount.StringFixed(2),
			"status":   payment.Status,
		})
	}
}
