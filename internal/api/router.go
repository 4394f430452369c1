package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tiendaluna/storeapi/internal/api/handlers"
	"github.com/tiendaluna/storeapi/internal/api/middleware"
	"github.com/tiendaluna/storeapi/internal/config"
	"github.com/tiendaluna/storeapi/internal/repository"
)

// Services groups the dependencies the routes need.
type Services struct {
	Webhook  handlers.WebhookProcessor
	Orders   handlers.OrderService
	Admin    handlers.AdminOrderService
	Reloader handlers.RecipientReloader
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, repos *repository.Repositories, svcs Services, logger *zap.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Payment gateway notifications
	router.GET("/webhooks/mercadopago", handlers.HandleWebhookHealth())
	router.POST("/webhooks/mercadopago", handlers.HandleWebhook(svcs.Webhook, logger))

	// API v1 routes
	v1 := router.Group("/v1")
	{
		v1.POST("/checkout", handlers.HandleCheckout(svcs.Orders, logger))
		v1.GET("/orders/:number", handlers.HandleGetOrder(svcs.Orders, logger))

		// Back-office routes
		adminRoutes := v1.Group("/admin")
		adminRoutes.Use(middleware.AdminAuthMiddleware(cfg.Admin.APIKeyHash, logger))
		{
			adminRoutes.GET("/orders", handlers.HandleAdminListOrders(repos, logger))
			adminRoutes.POST("/orders/:number/status", handlers.HandleAdminSetStatus(svcs.Admin, logger))
			adminRoutes.POST("/orders/:number/ship", handlers.HandleAdminShipOrder(svcs.Admin, logger))
			adminRoutes.POST("/orders/:number/cancel", handlers.HandleAdminCancelOrder(svcs.Admin, logger))
			adminRoutes.POST("/notifications/reload", handlers.HandleReloadNotificationRecipients(svcs.Reloader))
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
