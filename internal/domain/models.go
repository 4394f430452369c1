package domain

import (
	"time"
)

// Order represents a storefront order. Identified externally by OrderNumber,
// which is also the external_reference sent to Mercado Pago at checkout.
type Order struct {
	OrderNumber        string
	CustomerName       string
	CustomerEmail      string
	Status             OrderStatus
	Items              []OrderItem
	Total              float64
	ShippingAddress    map[string]interface{} // JSONB
	PaymentID          *string
	PaymentStatus      string // raw gateway value, stored for audit
	PaymentMethodLabel string
	TrackingNumber     *string
	CancellationReason *string
	LastNotifiedStatus OrderStatus // last status a customer email was sent for
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// OrderItem represents a line item with its unit price snapshotted at
// checkout time.
type OrderItem struct {
	ID          int64
	OrderNumber string
	ProductID   string
	Title       string
	UnitPrice   float64
	Quantity    int
	CreatedAt   time.Time
}

// PaymentUpdate carries the payment-derived fields the webhook pipeline
// writes onto an order. The write is a full replace of these fields, never
// a partial update.
type PaymentUpdate struct {
	Status             OrderStatus
	PaymentID          string
	PaymentStatus      string
	PaymentMethodLabel string
}

// OrderEvent represents an audit event for an order
type OrderEvent struct {
	ID          int64
	OrderNumber string
	EventType   string
	EventData   map[string]interface{} // JSONB
	CreatedAt   time.Time
}
