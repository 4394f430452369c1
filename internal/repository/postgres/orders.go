package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/tiendaluna/storeapi/internal/domain"
	"github.com/tiendaluna/storeapi/pkg/errors"
)

const orderColumns = `
	order_number, customer_name, customer_email, status, total,
	shipping_address, payment_id, payment_status, payment_method_label,
	tracking_number, cancellation_reason, last_notified_status,
	created_at, updated_at
`

type orderRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *sql.DB, logger *zap.Logger) *orderRepository {
	return &orderRepository{
		db:     db,
		logger: logger,
	}
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (
			order_number, customer_name, customer_email, status, total,
			shipping_address, payment_status, payment_method_label,
			last_notified_status, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	now := time.Now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = now
	}

	shippingJSON, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query,
		order.OrderNumber,
		order.CustomerName,
		order.CustomerEmail,
		order.Status,
		order.Total,
		shippingJSON,
		order.PaymentStatus,
		order.PaymentMethodLabel,
		order.LastNotifiedStatus,
		order.CreatedAt,
		order.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create order", zap.Error(err))
		return err
	}

	return nil
}

func (r *orderRepository) GetByOrderNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_number = $1`

	row := r.db.QueryRowContext(ctx, query, orderNumber)
	order, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "order", ID: orderNumber}
	}
	if err != nil {
		r.logger.Error("Failed to get order", zap.Error(err))
		return nil, err
	}

	return order, nil
}

func (r *orderRepository) List(ctx context.Context, limit, offset int) ([]*domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	return collectOrders(rows)
}

func (r *orderRepository) ListByStatus(ctx context.Context, status domain.OrderStatus, limit, offset int) ([]*domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, status, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list orders by status", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	return collectOrders(rows)
}

func (r *orderRepository) ListStalePending(ctx context.Context, maxAgeSeconds int) ([]*domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE status IN ('pending', 'payment_pending', 'pending_transfer')
		  AND created_at < NOW() - ($1 || ' seconds')::interval
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, maxAgeSeconds)
	if err != nil {
		r.logger.Error("Failed to list stale pending orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	return collectOrders(rows)
}

func (r *orderRepository) UpdatePayment(ctx context.Context, orderNumber string, update domain.PaymentUpdate) error {
	query := `
		UPDATE orders
		SET status = $2, payment_id = $3, payment_status = $4,
		    payment_method_label = $5, updated_at = $6
		WHERE order_number = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		orderNumber,
		update.Status,
		update.PaymentID,
		update.PaymentStatus,
		update.PaymentMethodLabel,
		time.Now(),
	)

	if err != nil {
		r.logger.Error("Failed to update order payment fields", zap.Error(err))
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &errors.ErrNotFound{Resource: "order", ID: orderNumber}
	}

	return nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, orderNumber string, status domain.OrderStatus, reason *string) error {
	query := `
		UPDATE orders
		SET status = $2, cancellation_reason = $3, updated_at = $4
		WHERE order_number = $1
	`

	result, err := r.db.ExecContext(ctx, query, orderNumber, status, reason, time.Now())
	if err != nil {
		r.logger.Error("Failed to update order status", zap.Error(err))
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &errors.ErrNotFound{Resource: "order", ID: orderNumber}
	}

	return nil
}

func (r *orderRepository) MarkShipped(ctx context.Context, orderNumber string, trackingNumber string) error {
	query := `
		UPDATE orders
		SET status = $2, tracking_number = $3, updated_at = $4
		WHERE order_number = $1
	`

	result, err := r.db.ExecContext(ctx, query, orderNumber, domain.OrderStatusShipped, trackingNumber, time.Now())
	if err != nil {
		r.logger.Error("Failed to mark order shipped", zap.Error(err))
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &errors.ErrNotFound{Resource: "order", ID: orderNumber}
	}

	return nil
}

func (r *orderRepository) UpdateLastNotifiedStatus(ctx context.Context, orderNumber string, status domain.OrderStatus) error {
	query := `
		UPDATE orders
		SET last_notified_status = $2, updated_at = $3
		WHERE order_number = $1
	`

	_, err := r.db.ExecContext(ctx, query, orderNumber, status, time.Now())
	if err != nil {
		r.logger.Error("Failed to update last notified status", zap.Error(err))
		return err
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var order domain.Order
	var shippingJSON []byte
	var paymentID, trackingNumber, cancellationReason sql.NullString
	var lastNotified sql.NullString

	err := row.Scan(
		&order.OrderNumber,
		&order.CustomerName,
		&order.CustomerEmail,
		&order.Status,
		&order.Total,
		&shippingJSON,
		&paymentID,
		&order.PaymentStatus,
		&order.PaymentMethodLabel,
		&trackingNumber,
		&cancellationReason,
		&lastNotified,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(shippingJSON) > 0 {
		if err := json.Unmarshal(shippingJSON, &order.ShippingAddress); err != nil {
			return nil, err
		}
	}
	if paymentID.Valid {
		order.PaymentID = &paymentID.String
	}
	if trackingNumber.Valid {
		order.TrackingNumber = &trackingNumber.String
	}
	if cancellationReason.Valid {
		order.CancellationReason = &cancellationReason.String
	}
	if lastNotified.Valid {
		order.LastNotifiedStatus = domain.OrderStatus(lastNotified.String)
	}

	return &order, nil
}

func collectOrders(rows *sql.Rows) ([]*domain.Order, error) {
	orders := make([]*domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}
