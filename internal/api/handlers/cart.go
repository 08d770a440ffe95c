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

// cartTypeFromQuery resolves the optional ?type= query parameter,
// defaulting to the regular cart.
func cartTypeFromQuery(c *gin.Context) domain.CartType {
	t := c.DefaultQuery("type", string(domain.CartTypeRegular))
	return domain.CartType(t)
}

// CartResponse represents a cart with its cached aggregates
type CartResponse struct {
	ID                string             `json:"id"`
	Type              domain.CartType    `json:"type"`
	Items             []CartItemResponse `json:"items"`
	Total             string             `json:"total"`
	ItemsCount        int                `json:"items_count"`
	WholesaleSubtotal string             `json:"wholesale_subtotal"`
	WholesaleDiscount string             `json:"wholesale_discount"`
	WholesaleShipping string             `json:"wholesale_shipping"`
	WholesaleTotal    string             `json:"wholesale_total"`
}

type CartItemResponse struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
}

func cartResponse(cart *domain.Cart) CartResponse {
	items := make([]CartItemResponse, len(cart.Items))
	for i, item := range cart.Items {
		items[i] = CartItemResponse{
			ProductID: item.ProductID.String(),
			Quantity:  item.Quantity,
			Price:     item.Price.StringFixed(2),
		}
	}
	return CartResponse{
		ID:                cart.ID.String(),
		Type:              cart.Type,
		Items:             items,
		Total:             cart.Total.StringFixed(2),
		ItemsCount:        cart.ItemsCount,
		WholesaleSubtotal: cart.WholesaleSubtotal.StringFixed(2),
		WholesaleDiscount: cart.WholesaleDiscount.StringFixed(2),
		WholesaleShipping: cart.WholesaleShipping.StringFixed(2),
		WholesaleTotal:    cart.WholesaleTotal.StringFixed(2),
	}
}

// HandleGetCart handles GET /v1/cart
func HandleGetCart(repos *repository.Repositories, tx repository.TxManager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		cartService := service.NewCartService(repos, tx, logger)
		cart, err := cartService.GetCart(c.Request.Context(), user.ID, cartTypeFromQuery(c))
		if err != nil {
			writeServiceError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, cartResponse(cart))
	}
}

// HandleAddCartItem handles POST /v1/cart/items
func HandleAddCartItem(repos *repository.Repositories, tx repository.TxManager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req service.AddCartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		productID, err := uuid.Parse(req.ProductID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
			return
		}

		cartService := service.NewCartService(repos, tx, logger)
		cart, err := cartService.AddItem(c.Request.Context(), user.ID, cartTypeFromQuery(c), productID, req.Quantity)
		if err != nil {
			writeServiceError(c, logger, err)
			return
		}

		c.JSON(http.StatusCreated, cartResponse(cart))
	}
}

// HandleUpdateCartItem handles PUT /v1/cart/items/:product_id
func HandleUpdateCartItem(repos *repository.Repositories, tx repository.TxManager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		productID, err := uuid.Parse(c.Param("product_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
			return
		}

		var req service.UpdateCartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		cartService := service.NewCartService(repos, tx, logger)
		cart, err := cartService.UpdateItemQuantity(c.Request.Context(), user.ID, cartTypeFromQuery(c), productID, req.Quantity)
		if err != nil {
			writeServiceError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, cartResponse(cart))
	}
}

// HandleRemoveCartItem handles DELETE /v1/cart/items/:product_id
func HandleRemoveCartItem(repos *repository.Repositories, tx repository.TxManager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		productID, err := uuid.Parse(c.Param("product_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
			return
		}

		cartService := service.NewCartService(repos, tx, logger)
		cart, err := cartService.RemoveItem(c.Request.Context(), user.ID, cartTypeFromQuery(c), productID)
		if err != nil {
			writeServiceError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, cartResponse(cart))
	}
}

// HandleClearCart handles DELETE /v1/cart
func HandleClearCart(repos *repository.Repositories, tx repository.TxManager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		cartService := service.NewCartService(repos, tx, logger)
		if err := cartService.ClearCart(c.Request.Context(), user.ID, cartTypeFromQuery(c)); err != nil {
			writeServiceError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "cart cleared"})
	}
}
