package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tiendaluna/storeapi/internal/cache"
	"github.com/tiendaluna/storeapi/internal/domain"
	"github.com/tiendaluna/storeapi/internal/mailer"
	"github.com/tiendaluna/storeapi/internal/repository"
)

// RecipientsFunc resolves the current admin notification recipients.
type RecipientsFunc func() ([]string, error)

// Result reports what each sink did. Errors here are informational: the
// caller logs them and moves on, they never affect order state or the HTTP
// response.
type Result struct {
	CustomerSent     bool
	ConfirmationSent bool
	AdminSent        bool
	CustomerErr      error
	AdminErr         error
}

// Dispatcher fans an order status change out to the two notification sinks.
// Each sink is isolated: a failure in one never blocks the other.
type Dispatcher struct {
	sender         mailer.Sender
	orders         repository.OrderRepository
	recipients     *cache.TTL[[]string]
	loadRecipients RecipientsFunc
	logger         *zap.Logger
}

// NewDispatcher creates a dispatcher. recipientsTTL bounds how long the admin
// recipient list is cached between loads.
func NewDispatcher(
	sender mailer.Sender,
	orders repository.OrderRepository,
	loadRecipients RecipientsFunc,
	recipientsTTL time.Duration,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		sender:         sender,
		orders:         orders,
		recipients:     cache.NewTTL[[]string](recipientsTTL),
		loadRecipients: loadRecipients,
		logger:         logger,
	}
}

// InvalidateRecipients drops the cached admin recipient list.
func (d *Dispatcher) InvalidateRecipients() {
	d.recipients.Invalidate()
}

// Dispatch sends the notifications a transition from prevStatus to newStatus
// calls for. fromPayment distinguishes webhook-driven changes from admin
// overrides: the one-time order-confirmation email only fires for a
// payment-driven transition to confirmed, and admin copies only go out for
// payment-driven changes (admins already know about their own).
//
// Duplicate webhook deliveries stay quiet on both sinks: the admin copy
// requires an actual status change, and the customer email is gated on the
// order's persisted last_notified_status field.
func (d *Dispatcher) Dispatch(ctx context.Context, order *domain.Order, prevStatus, newStatus domain.OrderStatus, fromPayment bool) Result {
	var res Result

	res = d.notifyCustomer(ctx, order, newStatus, fromPayment, res)

	if fromPayment && prevStatus != newStatus {
		res = d.notifyAdmins(order, newStatus, res)
	}

	return res
}

func (d *Dispatcher) notifyCustomer(ctx context.Context, order *domain.Order, newStatus domain.OrderStatus, fromPayment bool, res Result) Result {
	if !domain.CustomerEmailStatuses[newStatus] {
		return res
	}
	if order.LastNotifiedStatus == newStatus {
		d.logger.Debug("Customer already notified for status, skipping",
			zap.String("order_number", order.OrderNumber),
			zap.String("status", string(newStatus)),
		)
		return res
	}
	if order.CustomerEmail == "" {
		d.logger.Warn("Order has no customer email, skipping notification",
			zap.String("order_number", order.OrderNumber),
		)
		return res
	}

	var subject, body string
	var err error
	confirmation := fromPayment && newStatus == domain.OrderStatusConfirmed
	if confirmation {
		subject, body, err = mailer.RenderConfirmationEmail(order)
	} else {
		subject, body, err = mailer.RenderStatusEmail(order, newStatus)
	}
	if err != nil {
		res.CustomerErr = err
		return res
	}

	if err := d.sender.Send([]string{order.CustomerEmail}, subject, body); err != nil {
		res.CustomerErr = err
		return res
	}

	res.CustomerSent = true
	res.ConfirmationSent = confirmation

	// Record the notified status so a duplicate delivery stays silent. A
	// failed write here is logged only: worst case is one extra email.
	if err := d.orders.UpdateLastNotifiedStatus(ctx, order.OrderNumber, newStatus); err != nil {
		d.logger.Warn("Failed to record last notified status",
			zap.String("order_number", order.OrderNumber),
			zap.Error(err),
		)
	}
	order.LastNotifiedStatus = newStatus

	return res
}

func (d *Dispatcher) notifyAdmins(order *domain.Order, newStatus domain.OrderStatus, res Result) Result {
	recipients, err := d.recipients.Get(d.loadRecipients)
	if err != nil {
		res.AdminErr = err
		return res
	}
	if len(recipients) == 0 {
		return res
	}

	subject, body := mailer.RenderAdminNotification(order, newStatus)
	if err := d.sender.Send(recipients, subject, body); err != nil {
		res.AdminErr = err
		return res
	}

	res.AdminSent = true
	return res
}
