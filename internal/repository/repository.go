package repository

import (
	"context"

	"github.com/tiendaluna/storeapi/internal/domain"
)

// OrderRepository is the narrow row-store contract the pipeline relies on.
// "Not found" is a normal outcome surfaced as *errors.ErrNotFound.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByOrderNumber(ctx context.Context, orderNumber string) (*domain.Order, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Order, error)
	ListByStatus(ctx context.Context, status domain.OrderStatus, limit, offset int) ([]*domain.Order, error)
	// ListStalePending returns orders still in a pending status that were
	// created more than maxAgeSeconds ago. Used by the reconciliation sweep.
	ListStalePending(ctx context.Context, maxAgeSeconds int) ([]*domain.Order, error)
	// UpdatePayment replaces all payment-related fields at once.
	UpdatePayment(ctx context.Context, orderNumber string, update domain.PaymentUpdate) error
	UpdateStatus(ctx context.Context, orderNumber string, status domain.OrderStatus, reason *string) error
	// MarkShipped sets the shipped status and the tracking number in one
	// write, so a partial failure can never leave a tracking number on an
	// un-shipped order.
	MarkShipped(ctx context.Context, orderNumber string, trackingNumber string) error
	UpdateLastNotifiedStatus(ctx context.Context, orderNumber string, status domain.OrderStatus) error
}

// OrderItemRepository persists line items with their price snapshots.
type OrderItemRepository interface {
	CreateBatch(ctx context.Context, items []*domain.OrderItem) error
	GetByOrderNumber(ctx context.Context, orderNumber string) ([]*domain.OrderItem, error)
}

// OrderEventRepository records the audit trail of order mutations.
type OrderEventRepository interface {
	Create(ctx context.Context, event *domain.OrderEvent) error
	GetByOrderNumber(ctx context.Context, orderNumber string) ([]*domain.OrderEvent, error)
}

// Repositories bundles all repositories for injection
type Repositories struct {
	Order      OrderRepository
	OrderItem  OrderItemRepository
	OrderEvent OrderEventRepository
}
