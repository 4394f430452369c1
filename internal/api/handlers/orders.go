package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tiendaluna/storeapi/internal/domain"
	"github.com/tiendaluna/storeapi/internal/mercadopago"
	"github.com/tiendaluna/storeapi/internal/service"
	"github.com/tiendaluna/storeapi/pkg/errors"
)

// OrderService is the storefront-facing slice of the order service.
type OrderService interface {
	CreateOrder(ctx context.Context, req service.CheckoutRequest) (*domain.Order, *mercadopago.Preference, error)
	GetOrder(ctx context.Context, orderNumber string) (*domain.Order, error)
}

// OrderResponse represents the order response
type OrderResponse struct {
	OrderNumber        string                 `json:"order_number"`
	Status             domain.OrderStatus     `json:"status"`
	CustomerName       string                 `json:"customer_name"`
	CustomerEmail      string                 `json:"customer_email"`
	ShippingAddress    map[string]interface{} `json:"shipping_address"`
	Total              float64                `json:"total"`
	PaymentID          *string                `json:"payment_id,omitempty"`
	PaymentStatus      string                 `json:"payment_status,omitempty"`
	PaymentMethod      string                 `json:"payment_method,omitempty"`
	TrackingNumber     *string                `json:"tracking_number,omitempty"`
	CancellationReason *string                `json:"cancellation_reason,omitempty"`
	Items              []OrderItemResponse    `json:"items"`
	CreatedAt          string                 `json:"created_at"`
	UpdatedAt          string                 `json:"updated_at"`
}

type OrderItemResponse struct {
	ProductID string  `json:"product_id"`
	Title     string  `json:"title"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

// HandleCheckout handles POST /v1/checkout
func HandleCheckout(orders OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.CheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		order, pref, err := orders.CreateOrder(c.Request.Context(), req)
		if err != nil {
			if _, ok := err.(*errors.ErrGatewayUnavailable); ok {
				logger.Error("Payment gateway unavailable during checkout", zap.Error(err))
				c.JSON(http.StatusBadGateway, gin.H{"error": "payment gateway unavailable"})
				return
			}
			logger.Error("Failed to create order", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create order"})
			return
		}

		c.JSON(http.StatusCreated, service.CheckoutResponse{
			OrderNumber: order.OrderNumber,
			Status:      string(order.Status),
			InitPoint:   pref.InitPoint,
		})
	}
}

// HandleGetOrder handles GET /v1/orders/:number
func HandleGetOrder(orders OrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderNumber := c.Param("number")

		order, err := orders.GetOrder(c.Request.Context(), orderNumber)
		if err != nil {
			if _, ok := err.(*errors.ErrNotFound); ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
				return
			}
			logger.Error("Failed to get order", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, toOrderResponse(order))
	}
}

func toOrderResponse(order *domain.Order) OrderResponse {
	itemResponses := make([]OrderItemResponse, len(order.Items))
	for i, item := range order.Items {
		itemResponses[i] = OrderItemResponse{
			ProductID: item.ProductID,
			Title:     item.Title,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		}
	}

	response := OrderResponse{
		OrderNumber:        order.OrderNumber,
		Status:             order.Status,
		CustomerName:       order.CustomerName,
		CustomerEmail:      order.CustomerEmail,
		ShippingAddress:    order.ShippingAddress,
		Total:              order.Total,
		PaymentID:          order.PaymentID,
		PaymentStatus:      order.PaymentStatus,
		PaymentMethod:      order.PaymentMethodLabel,
		TrackingNumber:     order.TrackingNumber,
		CancellationReason: order.CancellationReason,
		Items:              itemResponses,
		CreatedAt:          order.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:          order.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}

	return response
}
