package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tiendaluna/storeapi/internal/domain"
	"github.com/tiendaluna/storeapi/internal/mercadopago"
	"github.com/tiendaluna/storeapi/internal/notify"
	"github.com/tiendaluna/storeapi/internal/repository"
	"github.com/tiendaluna/storeapi/pkg/errors"
)

// PaymentFetcher is the slice of the gateway client the webhook pipeline
// needs.
type PaymentFetcher interface {
	GetPayment(ctx context.Context, paymentID string) (*mercadopago.Payment, error)
}

// Notifier dispatches order notifications.
type Notifier interface {
	Dispatch(ctx context.Context, order *domain.Order, prevStatus, newStatus domain.OrderStatus, fromPayment bool) notify.Result
}

type webhookService struct {
	gateway    PaymentFetcher
	repos      *repository.Repositories
	dispatcher Notifier
	logger     *zap.Logger
}

// NewWebhookService creates the payment-notification pipeline
func NewWebhookService(gateway PaymentFetcher, repos *repository.Repositories, dispatcher Notifier, logger *zap.Logger) *webhookService {
	return &webhookService{
		gateway:    gateway,
		repos:      repos,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// ProcessPayment runs the reconciliation pipeline for one payment
// notification. The only error it ever returns is *errors.ErrGatewayUnavailable
// from the payment fetch, which the HTTP layer turns into a 500 so the
// gateway retries. Every failure after the fetch is logged for manual
// follow-up and swallowed: by then the pipeline may have taken observable
// actions, and a retry storm of duplicate emails helps nobody.
func (s *webhookService) ProcessPayment(ctx context.Context, traceID, paymentID string) error {
	payment, err := s.gateway.GetPayment(ctx, paymentID)
	if err != nil {
		s.logger.Error("Failed to fetch payment from gateway",
			zap.String("trace_id", traceID),
			zap.String("payment_id", paymentID),
			zap.Error(err),
		)
		return &errors.ErrGatewayUnavailable{Op: "fetch payment", Err: err}
	}

	s.logger.Info("Payment fetched",
		zap.String("trace_id", traceID),
		zap.String("payment_id", paymentID),
		zap.String("payment_status", payment.Status),
		zap.String("external_reference", payment.ExternalReference),
	)

	s.ApplyPayment(ctx, traceID, payment)
	return nil
}

// ApplyPayment maps a fetched payment onto its order and fires notifications.
// Shared by the webhook pipeline and the reconciliation sweep. Never returns
// an error: all failures at this stage are logged for manual reconciliation.
func (s *webhookService) ApplyPayment(ctx context.Context, traceID string, payment *mercadopago.Payment) {
	if payment.ExternalReference == "" {
		s.logger.Warn("Payment carries no external reference, skipping",
			zap.String("trace_id", traceID),
			zap.Int64("payment_id", payment.ID),
		)
		return
	}

	status := domain.ParsePaymentStatus(payment.Status)
	newStatus, known := status.OrderStatusFor()
	if !known {
		s.logger.Warn("Unknown gateway payment status, order left untouched",
			zap.String("trace_id", traceID),
			zap.String("payment_status", payment.Status),
			zap.String("order_number", payment.ExternalReference),
		)
		return
	}

	order, err := s.repos.Order.GetByOrderNumber(ctx, payment.ExternalReference)
	if err != nil {
		if _, ok := err.(*errors.ErrNotFound); ok {
			// Known race: the notification can arrive before checkout
			// finishes writing the order row. Flagged for manual
			// reconciliation, not an error to the gateway.
			s.logger.Warn("Order not found for payment, needs manual reconciliation",
				zap.String("trace_id", traceID),
				zap.String("order_number", payment.ExternalReference),
				zap.Int64("payment_id", payment.ID),
			)
			return
		}
		s.logger.Error("Failed to load order for payment",
			zap.String("trace_id", traceID),
			zap.String("order_number", payment.ExternalReference),
			zap.Error(err),
		)
		return
	}

	// Payment events only ever move pending orders. An order already
	// advanced past confirmation (or re-notified on the status it already
	// holds) keeps its state; re-applying the same status is a harmless
	// full replace of the same values.
	if !order.Status.IsPending() && order.Status != newStatus {
		s.logger.Warn("Payment event ignored for non-pending order",
			zap.String("trace_id", traceID),
			zap.String("order_number", order.OrderNumber),
			zap.String("order_status", string(order.Status)),
			zap.String("payment_status", payment.Status),
		)
		return
	}

	update := domain.PaymentUpdate{
		Status:             newStatus,
		PaymentID:          paymentIDString(payment.ID),
		PaymentStatus:      payment.Status,
		PaymentMethodLabel: domain.PaymentMethodLabel(payment.PaymentMethodID),
	}

	if err := s.repos.Order.UpdatePayment(ctx, order.OrderNumber, update); err != nil {
		s.logger.Error("Failed to persist payment update, needs manual follow-up",
			zap.String("trace_id", traceID),
			zap.String("order_number", order.OrderNumber),
			zap.Error(err),
		)
		return
	}

	// Audit trail, best effort.
	recordOrderEvent(ctx, s.logger, s.repos.OrderEvent, &domain.OrderEvent{
		OrderNumber: order.OrderNumber,
		EventType:   "payment_event",
		EventData: map[string]interface{}{
			"trace_id":       traceID,
			"payment_id":     payment.ID,
			"payment_status": payment.Status,
			"from":           order.Status,
			"to":             newStatus,
		},
	})

	prevStatus := order.Status
	order.Status = newStatus
	order.PaymentID = &update.PaymentID
	order.PaymentStatus = update.PaymentStatus
	order.PaymentMethodLabel = update.PaymentMethodLabel

	if items, err := s.repos.OrderItem.GetByOrderNumber(ctx, order.OrderNumber); err == nil {
		order.Items = derefItems(items)
	} else {
		s.logger.Warn("Failed to load order items for notification",
			zap.String("trace_id", traceID),
			zap.String("order_number", order.OrderNumber),
			zap.Error(err),
		)
	}

	result := s.dispatcher.Dispatch(ctx, order, prevStatus, newStatus, true)
	logDispatchResult(s.logger, traceID, order.OrderNumber, result)
}

// recordOrderEvent writes an audit row. Best effort: a failed write is logged
// and never fails the mutation it describes.
func recordOrderEvent(ctx context.Context, logger *zap.Logger, events repository.OrderEventRepository, event *domain.OrderEvent) {
	if err := events.Create(ctx, event); err != nil {
		logger.Warn("Failed to record order event",
			zap.String("order_number", event.OrderNumber),
			zap.String("event_type", event.EventType),
			zap.Error(err),
		)
	}
}

func logDispatchResult(logger *zap.Logger, traceID, orderNumber string, result notify.Result) {
	if result.CustomerErr != nil {
		logger.Error("Customer notification failed",
			zap.String("trace_id", traceID),
			zap.String("order_number", orderNumber),
			zap.Error(result.CustomerErr),
		)
	}
	if result.AdminErr != nil {
		logger.Error("Admin notification failed",
			zap.String("trace_id", traceID),
			zap.String("order_number", orderNumber),
			zap.Error(result.AdminErr),
		)
	}
	if result.CustomerSent || result.AdminSent {
		logger.Info("Notifications dispatched",
			zap.String("trace_id", traceID),
			zap.String("order_number", orderNumber),
			zap.Bool("customer", result.CustomerSent),
			zap.Bool("confirmation", result.ConfirmationSent),
			zap.Bool("admin", result.AdminSent),
		)
	}
}

func derefItems(items []*domain.OrderItem) []domain.OrderItem {
	out := make([]domain.OrderItem, len(items))
	for i, item := range items {
		out[i] = *item
	}
	return out
}

func paymentIDString(id int64) string {
	return fmt.Sprintf("%d", id)
}
