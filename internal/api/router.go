package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/greenmart/groceryapi/internal/api/handlers"
	"github.com/greenmart/groceryapi/internal/api/middleware"
	"github.com/greenmart/groceryapi/internal/config"
	"github.com/greenmart/groceryapi/internal/gateway"
	"github.com/greenmart/groceryapi/internal/repository"
)

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, repos *repository.Repositories, tx repository.TxManager, charger gateway.Charger, logger *zap.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Idempotency-Key"},
		AllowCredentials: false,
	}))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes
	v1 := router.Group("/v1")
	{
		// Customer routes (require authentication)
		customerRoutes := v1.Group("")
		customerRoutes.Use(middleware.AuthMiddleware(repos, logger))
		{
			customerRoutes.GET("/products", handlers.HandleListProducts(repos, logger))
			customerRoutes.GET("/products/:id", handlers.HandleGetProduct(repos, logger))

			customerRoutes.GET("/cart", handlers.HandleGetCart(repos, tx, logger))
			customerRoutes.POST("/cart/items", handlers.HandleAddCartItem(repos, tx, logger))
			customerRoutes.PUT("/cart/items/:product_id", handlers.HandleUpdateCartItem(repos, tx, logger))
			customerRoutes.DELETE("/cart/items/:product_id", handlers.HandleRemoveCartItem(repos, tx, logger))
			customerRoutes.DELETE("/cart", handlers.HandleClearCart(repos, tx, logger))

			// Order-creating routes carry idempotency protection so a
			// timed-out checkout can be retried safely.
			idempotent := middleware.IdempotencyMiddleware(repos, logger)

			customerRoutes.POST("/orders", idempotent, handlers.HandleCreateOrder(repos, tx, logger))
			customerRoutes.GET("/orders", handlers.HandleListOrders(repos, tx, logger))
			customerRoutes.GET("/orders/:id", handlers.HandleGetOrder(repos, tx, logger))
			customerRoutes.POST("/orders/:id/cancel", handlers.HandleCancelOrder(repos, tx, logger))

			customerRoutes.POST("/payments/process", idempotent, handlers.HandleProcessPayment(repos, tx, charger, logger))

			customerRoutes.POST("/wholesale-orders", handlers.HandleCreateWholesaleRequest(repos, tx, logger))
			customerRoutes.GET("/wholesale-orders", handlers.HandleListWholesaleRequests(repos, tx, logger))
			customerRoutes.GET("/wholesale-orders/:id", handlers.HandleGetWholesaleRequest(repos, tx, logger))
		}

		// Admin routes
		adminRoutes := v1.Group("/admin")
		adminRoutes.Use(middleware.AuthMiddleware(repos, logger))
		adminRoutes.Use(middleware.RequireAdmin())
		{
			adminRoutes.GET("/orders", handlers.HandleAdminListOrders(repos, tx, logger))
			adminRoutes.POST("/orders/:id/status", handlers.HandleUpdateOrderStatus(repos, tx, logger))
			adminRoutes.POST("/orders/:id/refund", handlers.HandleRefundPayment(repos, tx, charger, logger))

			adminRoutes.GET("/wholesale-orders", handlers.HandleAdminListWholesaleRequests(repos, tx, logger))
			adminRoutes.POST("/wholesale-orders/:id/status", handlers.HandleUpdateWholesaleStatus(repos, tx, logger))
		}
	}

	return router
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
		)
	}
}
