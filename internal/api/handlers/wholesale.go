package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/greenmart/groceryapi/internal/api/middleware"
	"github.com/greenmart/groceryapi/internal/domain"
	"github.com/greenmart/groceryapi/internal/repository"
	"github.com/greenmart/groceryapi/internal/service"
)

// WholesaleRequestResponse represents a wholesale order request
type WholesaleRequestResponse struct {
	ID            string                  `json:"id"`
	RequestNumber string                  `json:"request_number"`
	Status        domain.WholesaleStatus  `json:"status"`
	Items         []WholesaleItemResponse `json:"items"`
	Subtotal      string                  `json:"subtotal"`
	Tax           string                  `json:"tax"`
	Shipping      string                  `json:"shipping"`
	Discount      string                  `json:"discount"`
	Total         string                  `json:"total"`
	CreatedAt     string                  `json:"created_at"`
}

type WholesaleItemResponse struct {
	ProductID               string  `json:"product_id"`
	ProductName             string  `json:"product_name"`
	RequestedBoxes          int     `json:"requested_boxes"`
	UnitsPerCarton          *int    `json:"units_per_carton,omitempty"`
	WholesalePrice          *string `json:"wholesale_price,omitempty"`
	EffectivePricePerCarton string  `json:"effective_price_per_carton"`
	TotalUnits              *int    `json:"total_units,omitempty"`
	Total                   string  `json:"total"`
}

func wholesaleResponse(req *domain.WholesaleOrderRequest) WholesaleRequestResponse {
	items := make([]WholesaleItemResponse, len(req.Items))
	for i, item := range req.Items {
		items[i] = WholesaleItemResponse{
			ProductID:               item.ProductID.String(),
			ProductName:             item.ProductName,
			RequestedBoxes:          item.RequestedBoxes,
			UnitsPerCarton:          item.UnitsPerCarton,
			EffectivePricePerCarton: item.EffectivePricePerCarton.StringFixed(2),
			TotalUnits:              item.TotalUnits,
			Total:                   item.Total.StringFixed(2),
		}
		if item.WholesalePrice != nil {
			wholesale := item.WholesalePrice.StringFixed(2)
			items[i].WholesalePrice = &wholesale
		}
	}

	return WholesaleRequestResponse{
		ID:            req.ID.String(),
		RequestNumber: req.RequestNumber,
		Status:        req.Status,
		Items:         items,
		Subtotal:      req.Subtotal.StringFixed(2),
		Tax:           req.Tax.StringFixed(2),
		Shipping:      req.Shipping.StringFixed(2),
		Discount:      req.Discount.StringFixed(2),
		Total:         req.Total.StringFixed(2),
		CreatedAt:     req.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// HandleCreateWholesaleRequest handles POST /v1/wholesale-orders
func HandleCreateWholesaleRequest(repos *repository.Repositories, tx repository.TxManager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		wholesaleService := service.NewWholesaleService(repos, tx, logger)
		req, err := wholesaleService.CreateRequestFromCart(c.Request.Context(), user.ID)
		if err != nil {
			writeServiceError(c, logger, err)
			return
		}

		c.JSON(http.StatusCreated, wholesaleResponse(req))
	}
}

// HandleGetWholesaleRequest handles GET /v1/wholesale-orders/:id
func HandleGetWholesaleRequest(repos *repository.Repositories, tx repository.TxManager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		requestID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request ID"})
			return
		}

		wholesaleService := service.NewWholesaleService(repos, tx, logger)
		req, err := wholesaleService.GetRequest(c.Request.Context(), requestID)
		if err != nil {
			writeServiceError(c, logger, err)
			return
		}

		if req.UserID != user.ID && !user.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}

		c.JSON(http.StatusOK, wholesaleResponse(req))
	}
}

// HandleListWholesaleRequests handles GET /v1/wholesale-orders
func HandleListWholesaleRequests(repos *repository.Repositories, tx repository.TxManager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		limit, offset := parsePaging(c)

		wholesaleService := service.NewWholesaleService(repos, tx, logger)
		reqs, err := wholesaleService.ListRequests(c.Request.Context(), user.ID, limit, offset)
		if err != nil {
			writeServiceError(c, logger, err)
			return
		}

		responses := make([]WholesaleRequestResponse, len(reqs))
		for i, req := range reqs {
			responses[i] = wholesaleResponse(req)
		}

		c.JSON(http.StatusOK, gin.H{
			"requests": responses,
			"limit":    limit,
			"offset":   offset,
		})
	}
}

// HandleAdminListWholesaleRequests handles GET /v1/admin/wholesale-orders
func HandleAdminListWholesaleRequests(repos *repository.Repositories, tx repository.TxManager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := domain.WholesaleStatus(c.Query("status"))
		if !status.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or missing status"})
			return
		}

		limit, offset := parsePaging(c)

		wholesaleService := service.NewWholesaleService(repos, tx, logger)
		reqs, err := wholesaleService.ListRequestsByStatus(c.Request.Context(), status, limit, offset)
		if err != nil {
			writeServiceError(c, logger, err)
			return
		}

		responses := make([]WholesaleRequestResponse, len(reqs))
		for i, req := range reqs {
			responses[i] = wholesaleResponse(req)
		}

		c.JSON(http.StatusOK, gin.H{
			"requests": responses,
			"limit":    limit,
			"offset":   offset,
		})
	}
}

// UpdateWholesaleStatusRequest represents an admin workflow change
type UpdateWholesaleStatusRequest struct {
	Status domain.WholesaleStatus `json:"status" binding:"required"`
}

// HandleUpdateWholesaleStatus handles POST /v1/admin/wholesale-orders/:id/status
func HandleUpdateWholesaleStatus(repos *repository.Repositories, tx repository.TxManager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request ID"})
			return
		}

		var req UpdateWholesaleStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		wholesaleService := service.NewWholesaleService(repos, tx, logger)
		result, err := wholesaleService.UpdateStatus(c.Request.Context(), requestID, req.Status)
		if err != nil {
			writeServiceError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"id":     result.ID.String(),
			"status": result.Status,
		})
	}
}
