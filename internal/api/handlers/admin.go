package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tiendaluna/storeapi/internal/domain"
	"github.com/tiendaluna/storeapi/internal/repository"
	"github.com/tiendaluna/storeapi/pkg/errors"
)

// AdminOrderService is the back-office slice of the order service.
type AdminOrderService interface {
	SetStatus(ctx context.Context, orderNumber string, newStatus domain.OrderStatus, reason *string) (*domain.Order, error)
	ShipOrder(ctx context.Context, orderNumber, trackingNumber string) (*domain.Order, error)
	CancelOrder(ctx context.Context, orderNumber, reason string) (*domain.Order, error)
}

// RecipientReloader invalidates the cached admin notification recipients.
type RecipientReloader interface {
	InvalidateRecipients()
}

// SetStatusRequest represents a manual status override
type SetStatusRequest struct {
	Status string  `json:"status" binding:"required"`
	Reason *string `json:"reason,omitempty"`
}

// ShipOrderRequest represents ship order request
type ShipOrderRequest struct {
	TrackingNumber string `json:"tracking_number" binding:"required"`
}

// CancelOrderRequest represents an admin cancellation
type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// HandleAdminListOrders handles GET /v1/admin/orders
func HandleAdminListOrders(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		statusStr := c.Query("status")
		limitStr := c.DefaultQuery("limit", "50")
		offsetStr := c.DefaultQuery("offset", "0")

		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 || limit > 100 {
			limit = 50
		}

		offset, err := strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			offset = 0
		}

		var orders []*domain.Order
		if statusStr != "" {
			status := domain.OrderStatus(statusStr)
			if !status.IsValid() {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
				return
			}
			orders, err = repos.Order.ListByStatus(c.Request.Context(), status, limit, offset)
		} else {
			orders, err = repos.Order.List(c.Request.Context(), limit, offset)
		}

		if err != nil {
			logger.Error("Failed to list orders", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		orderResponses := make([]gin.H, len(orders))
		for i, order := range orders {
			orderResponses[i] = gin.H{
				"order_number":   order.OrderNumber,
				"status":         order.Status,
				"customer_name":  order.CustomerName,
				"customer_email": order.CustomerEmail,
				"total":          order.Total,
				"payment_status": order.PaymentStatus,
				"payment_method": order.PaymentMethodLabel,
				"created_at":     order.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
				"updated_at":     order.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"orders": orderResponses,
			"limit":  limit,
			"offset": offset,
		})
	}
}

// HandleAdminSetStatus handles POST /v1/admin/orders/:number/status
func HandleAdminSetStatus(orders AdminOrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderNumber := c.Param("number")

		var req SetStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		status := domain.OrderStatus(req.Status)
		if !status.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}

		order, err := orders.SetStatus(c.Request.Context(), orderNumber, status, req.Reason)
		if err != nil {
			respondAdminOrderError(c, logger, "set status", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"order_number": order.OrderNumber,
			"status":       order.Status,
		})
	}
}

// HandleAdminShipOrder handles POST /v1/admin/orders/:number/ship
func HandleAdminShipOrder(orders AdminOrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderNumber := c.Param("number")

		var req ShipOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		order, err := orders.ShipOrder(c.Request.Context(), orderNumber, req.TrackingNumber)
		if err != nil {
			respondAdminOrderError(c, logger, "ship", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"order_number":    order.OrderNumber,
			"status":          order.Status,
			"tracking_number": order.TrackingNumber,
		})
	}
}

// HandleAdminCancelOrder handles POST /v1/admin/orders/:number/cancel
func HandleAdminCancelOrder(orders AdminOrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderNumber := c.Param("number")

		var req CancelOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		order, err := orders.CancelOrder(c.Request.Context(), orderNumber, req.Reason)
		if err != nil {
			respondAdminOrderError(c, logger, "cancel", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"order_number": order.OrderNumber,
			"status":       order.Status,
		})
	}
}

// HandleReloadNotificationRecipients handles POST /v1/admin/notifications/reload
func HandleReloadNotificationRecipients(reloader RecipientReloader) gin.HandlerFunc {
	return func(c *gin.Context) {
		reloader.InvalidateRecipients()
		c.JSON(http.StatusOK, gin.H{"reloaded": true})
	}
}

func respondAdminOrderError(c *gin.Context, logger *zap.Logger, op string, err error) {
	switch err.(type) {
	case *errors.ErrNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
	case *errors.ErrInvalidStateTransition:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Error("Failed to "+op+" order", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to " + op + " order"})
	}
}
