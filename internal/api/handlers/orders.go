package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/greenmart/groceryapi/internal/api/middleware"
	"github.com/greenmart/groceryapi/internal/domain"
	"github.com/greenmart/groceryapi/internal/repository"
	"github.com/greenmart/groceryapi/internal/service"
)

// OrderResponse represents the order response
type OrderResponse struct {
	ID              string               `json:"id"`
	OrderNumber     string               `json:"order_number"`
	Status          domain.OrderStatus   `json:"status"`
	PaymentStatus   domain.PaymentStatus `json:"payment_status"`
	Items           []OrderItemResponse  `json:"items"`
	Subtotal        string               `json:"subtotal"`
	Tax             string               `json:"tax"`
	Shipping        string               `json:"shipping"`
	Total           string               `json:"total"`
	ShippingAddress domain.Address       `json:"shipping_address"`
	BillingAddress  domain.Address       `json:"billing_address"`
	TransactionID   *string              `json:"transaction_id,omitempty"`
	CreatedAt       string               `json:"created_at"`
}

type OrderItemResponse struct {
	ProductID       string   `json:"product_id"`
	ProductName     string   `json:"product_name"`
	ProductImages   []string `json:"product_images"`
	Quantity        int      `json:"quantity"`
	Price           string   `json:"price"`
	DiscountedPrice *string  `json:"discounted_price,omitempty"`
	Total           string   `json:"total"`
}

func orderResponse(order *domain.Order) OrderResponse {
	items := make([]OrderItemResponse, len(order.Items))
	for i, item := range order.Items {
		items[i] = OrderItemResponse{
			ProductID:     item.ProductID.String(),
			ProductName:   item.ProductName,
			ProductImages: item.ProductImages,
			Quantity:      item.Quantity,
			Price:         item.Price.StringFixed(2),
			Total:         item.Total.StringFixed(2),
		}
		if item.DiscountedPrice != nil {
			discounted := item.DiscountedPrice.StringFixed(2)
			items[i].DiscountedPrice = &discounted
		}
	}

	return OrderResponse{
		ID:              order.ID.String(),
		OrderNumber:     order.OrderNumber,
		Status:          order.Status,
		PaymentStatus:   order.PaymentStatus,
		Items:           items,
		Subtotal:        order.Subtotal.StringFixed(2),
		Tax:             order.Tax.StringFixed(2),
		Shipping:        order.Shipping.StringFixed(2),
		Total:           order.Total.StringFixed(2),
		ShippingAddress: order.ShippingAddress,
		BillingAddress:  order.BillingAddress,
		TransactionID:   order.TransactionID,
		CreatedAt:       order.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// parsePaging reads limit/offset query parameters with sane bounds.
func parsePaging(c *gin.Context) (int, int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 50
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

// replayIdempotentOrder serves a request whose idempotency key already
// produced an order. The second return value reports whether the
// request was handled here; the caller returns without creating
// anything when it is true.
func replayIdempotentOrder(c *gin.Context, repos *repository.Repositories, logger *zap.Logger) (*domain.Order, bool) {
	_, _, existingOrderID, isExisting := middleware.GetIdempotencyInfo(c)
	if !isExisting {
		return nil, false
	}

	orderID, err := uuid.Parse(existingOrderID)
	if err != nil {
		logger.Error("Stored idempotency key holds an invalid order ID",
			zap.String("order_id", existingOrderID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return nil, true
	}

	order, err := repos.Orders.GetByID(c.Request.Context(), orderID)
	if err != nil {
		writeServiceError(c, logger, err)
		return nil, true
	}
	return order, true
}

// storeIdempotencyKey records the key after the order exists. A storage
// failure loses replay protection but never fails a request whose order
// was already created.
func storeIdempotencyKey(c *gin.Context, repos *repository.Repositories, logger *zap.Logger, userID, orderID uuid.UUID) {
	key, requestHash, _, _ := middleware.GetIdempotencyInfo(c)
	if key == "" {
		return
	}

	err := repos.Idempotency.Create(c.Request.Context(), &domain.IdempotencyKey{
		Key:         key,
		UserID:      userID,
		OrderID:     orderID,
		RequestHash: requestHash,
	})
	if err != nil {
		logger.Warn("Failed to store idempotency key",
			zap.String("key", key),
			zap.Error(err))
	}
}

// HandleCreateOrder handles POST /v1/orders
func HandleCreateOrder(repos *repository.Repositories, tx repository.TxManager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		// An identical request already created an order; replay it.
		if existing, done := replayIdempotentOrder(c, repos, logger); done {
			if existing != nil {
				c.JSON(http.StatusOK, orderResponse(existing))
			}
			return
		}

		var req service.CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		orderService := service.NewOrderService(repos, tx, logger)
		order, err := orderService.CreateOrderFromCart(c.Request.Context(), user.ID, req)
		if err != nil {
			writeServiceError(c, logger, err)
			return
		}

		storeIdempotencyKey(c, repos, logger, user.ID, order.ID)

		c.JSON(http.StatusCreated, orderResponse(order))
	}
}

// HandleGetOrder handles GET /v1/orders/:id
func HandleGetOrder(repos *repository.Repositories, tx repository.TxManager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		orderID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
			return
		}

		orderService := service.NewOrderService(repos, tx, logger)
		order, err := orderService.GetOrder(c.Request.Context(), orderID)
		if err != nil {
			writeServiceError(c, logger, err)
			return
		}

		// Verify the caller owns this order
		if order.UserID != user.ID && !user.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}

		c.JSON(http.StatusOK, orderResponse(order))
	}
}

// HandleListOrders handles GET /v1/orders
func HandleListOrders(repos *repository.Repositories, tx repository.TxManager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		limit, offset := parsePaging(c)

		orderService := service.NewOrderService(repos, tx, logger)
		orders, err := orderService.ListOrders(c.Request.Context(), user.ID, limit, offset)
		if err != nil {
			writeServiceError(c, logger, err)
			return
		}

		responses := make([]OrderResponse, len(orders))
		for i, order := range orders {
			responses[i] = orderResponse(order)
		}

		c.JSON(http.StatusOK, gin.H{
			"orders": responses,
			"limit":  limit,
			"offset": offset,
		})
	}
}

// HandleCancelOrder handles POST /v1/orders/:id/cancel
func HandleCancelOrder(repos *repository.Repositories, tx repository.TxManager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		orderID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
			return
		}

		orderService := service.NewOrderService(repos, tx, logger)
		order, err := orderService.GetOrder(c.Request.Context(), orderID)
		if err != nil {
			writeServiceError(c, logger, err)
			return
		}
		if order.UserID != user.ID && !user.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}

		order, err = orderService.CancelOrder(c.Request.Context(), orderID)
		if err != nil {
			writeServiceError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"id":             order.ID.String(),
			"status":         order.Status,
			"payment_status": order.PaymentStatus,
		})
	}
}

// UpdateOrderStatusRequest represents an admin status change
type UpdateOrderStatusRequest struct {
	Status domain.OrderStatus `json:"status" binding:"required"`
}

// HandleUpdateOrderStatus handles POST /v1/admin/orders/:id/status
func HandleUpdateOrderStatus(repos *repository.Repositories, tx repository.TxManager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
			return
		}

		var req UpdateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		orderService := service.NewOrderService(repos, tx, logger)
		order, err := orderService.UpdateStatus(c.Request.Context(), orderID, req.Status)
		if err != nil {
			writeServiceError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"id":     order.ID.String(),
			"status": order.Status,
		})
	}
}

// HandleAdminListOrders handles GET /v1/admin/orders
func HandleAdminListOrders(repos *repository.Repositories, tx repository.TxManager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := parsePaging(c)

		statusStr := c.Query("status")
		if statusStr == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
			return
		}
		status := domain.OrderStatus(statusStr)
		if !status.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}

		orderService := service.NewOrderService(repos, tx, logger)
		orders, err := orderService.ListOrdersByStatus(c.Request.Context(), status, limit, offset)
		if err != nil {
			writeServiceError(c, logger, err)
			return
		}

		responses := make([]OrderResponse, len(orders))
		for i, order := range orders {
			responses[i] = orderResponse(order)
		}

		c.JSON(http.StatusOK, gin.H{
			"orders": responses,
			"limit":  limit,
			"offset": offset,
		})
	}
}
