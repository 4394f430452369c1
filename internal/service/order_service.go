package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tiendaluna/storeapi/internal/domain"
	"github.com/tiendaluna/storeapi/internal/mercadopago"
	"github.com/tiendaluna/storeapi/internal/repository"
	"github.com/tiendaluna/storeapi/pkg/errors"
)

// PreferenceCreator is the slice of the gateway client checkout needs.
type PreferenceCreator interface {
	CreatePreference(ctx context.Context, req mercadopago.PreferenceRequest) (*mercadopago.Preference, error)
}

type orderService struct {
	repos      *repository.Repositories
	gateway    PreferenceCreator
	dispatcher Notifier
	logger     *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(repos *repository.Repositories, gateway PreferenceCreator, dispatcher Notifier, logger *zap.Logger) *orderService {
	return &orderService{
		repos:      repos,
		gateway:    gateway,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// CreateOrder creates an order from a checkout submission and opens a payment
// preference for it. The order number doubles as the gateway's
// external_reference, which is how payment notifications find their way back.
func (s *orderService) CreateOrder(ctx context.Context, req CheckoutRequest) (*domain.Order, *mercadopago.Preference, error) {
	order := &domain.Order{
		OrderNumber:   newOrderNumber(),
		CustomerName:  req.Customer.Name,
		CustomerEmail: req.Customer.Email,
		Status:        domain.OrderStatusPaymentPending,
		Total:         req.Total,
	}

	order.ShippingAddress = map[string]interface{}{
		"street":      req.Shipping.Street,
		"city":        req.Shipping.City,
		"postal_code": req.Shipping.PostalCode,
		"country":     req.Shipping.Country,
	}
	if req.Shipping.State != nil {
		order.ShippingAddress["state"] = *req.Shipping.State
	}

	if err := s.repos.Order.Create(ctx, order); err != nil {
		return nil, nil, err
	}

	items := make([]*domain.OrderItem, 0, len(req.Items))
	prefItems := make([]mercadopago.PreferenceItem, 0, len(req.Items))
	for _, checkoutItem := range req.Items {
		items = append(items, &domain.OrderItem{
			OrderNumber: order.OrderNumber,
			ProductID:   checkoutItem.ProductID,
			Title:       checkoutItem.Title,
			UnitPrice:   checkoutItem.Price,
			Quantity:    checkoutItem.Quantity,
		})
		prefItems = append(prefItems, mercadopago.PreferenceItem{
			Title:     checkoutItem.Title,
			Quantity:  checkoutItem.Quantity,
			UnitPrice: checkoutItem.Price,
		})
	}

	if err := s.repos.OrderItem.CreateBatch(ctx, items); err != nil {
		return nil, nil, err
	}
	order.Items = derefItems(items)

	pref, err := s.gateway.CreatePreference(ctx, mercadopago.PreferenceRequest{
		Items:             prefItems,
		ExternalReference: order.OrderNumber,
		Payer: &mercadopago.PreferencePayer{
			Name:  req.Customer.Name,
			Email: req.Customer.Email,
		},
	})
	if err != nil {
		return nil, nil, &errors.ErrGatewayUnavailable{Op: "create preference", Err: err}
	}

	recordOrderEvent(ctx, s.logger, s.repos.OrderEvent, &domain.OrderEvent{
		OrderNumber: order.OrderNumber,
		EventType:   "order_created",
		EventData: map[string]interface{}{
			"status":        order.Status,
			"total":         order.Total,
			"preference_id": pref.ID,
		},
	})

	return order, pref, nil
}

// GetOrder returns an order with its items loaded.
func (s *orderService) GetOrder(ctx context.Context, orderNumber string) (*domain.Order, error) {
	order, err := s.repos.Order.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}

	items, err := s.repos.OrderItem.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	order.Items = derefItems(items)

	return order, nil
}

// SetStatus applies an admin status override. Validated against the state
// machine; the webhook pipeline never calls this.
func (s *orderService) SetStatus(ctx context.Context, orderNumber string, newStatus domain.OrderStatus, reason *string) (*domain.Order, error) {
	order, err := s.GetOrder(ctx, orderNumber)
	if err != nil {
		return nil, err
	}

	if !order.Status.CanTransitionTo(newStatus) {
		return nil, &errors.ErrInvalidStateTransition{
			From: order.Status,
			To:   newStatus,
		}
	}

	var storedReason *string
	if newStatus == domain.OrderStatusCancelled {
		storedReason = reason
	}
	if err := s.repos.Order.UpdateStatus(ctx, orderNumber, newStatus, storedReason); err != nil {
		return nil, err
	}

	event := &domain.OrderEvent{
		OrderNumber: orderNumber,
		EventType:   "status_change",
		EventData: map[string]interface{}{
			"from":   order.Status,
			"to":     newStatus,
			"source": "admin",
		},
	}
	if storedReason != nil {
		event.EventData["reason"] = *storedReason
	}
	recordOrderEvent(ctx, s.logger, s.repos.OrderEvent, event)

	prevStatus := order.Status
	order.Status = newStatus
	order.CancellationReason = storedReason

	result := s.dispatcher.Dispatch(ctx, order, prevStatus, newStatus, false)
	logDispatchResult(s.logger, "", orderNumber, result)

	return order, nil
}

// ShipOrder marks an order as shipped with its tracking number.
func (s *orderService) ShipOrder(ctx context.Context, orderNumber, trackingNumber string) (*domain.Order, error) {
	order, err := s.GetOrder(ctx, orderNumber)
	if err != nil {
		return nil, err
	}

	if !order.Status.CanTransitionTo(domain.OrderStatusShipped) {
		return nil, &errors.ErrInvalidStateTransition{
			From: order.Status,
			To:   domain.OrderStatusShipped,
		}
	}

	if err := s.repos.Order.MarkShipped(ctx, orderNumber, trackingNumber); err != nil {
		return nil, err
	}

	recordOrderEvent(ctx, s.logger, s.repos.OrderEvent, &domain.OrderEvent{
		OrderNumber: orderNumber,
		EventType:   "status_change",
		EventData: map[string]interface{}{
			"from":            order.Status,
			"to":              domain.OrderStatusShipped,
			"tracking_number": trackingNumber,
			"source":          "admin",
		},
	})

	prevStatus := order.Status
	order.Status = domain.OrderStatusShipped
	order.TrackingNumber = &trackingNumber

	result := s.dispatcher.Dispatch(ctx, order, prevStatus, domain.OrderStatusShipped, false)
	logDispatchResult(s.logger, "", orderNumber, result)

	return order, nil
}

// CancelOrder is an admin cancellation. An empty reason falls back to the
// stock admin-cancellation message at email-render time.
func (s *orderService) CancelOrder(ctx context.Context, orderNumber, reason string) (*domain.Order, error) {
	var reasonPtr *string
	if strings.TrimSpace(reason) != "" {
		reasonPtr = &reason
	}
	return s.SetStatus(ctx, orderNumber, domain.OrderStatusCancelled, reasonPtr)
}

func newOrderNumber() string {
	return fmt.Sprintf("ORD-%s", strings.ToUpper(uuid.NewString()[:8]))
}
