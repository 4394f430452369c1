package domain

// OrderStatus represents the status of a storefront order
type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "pending"
	OrderStatusPaymentPending  OrderStatus = "payment_pending"
	OrderStatusPendingTransfer OrderStatus = "pending_transfer"
	OrderStatusConfirmed       OrderStatus = "confirmed"
	OrderStatusProcessing      OrderStatus = "processing"
	OrderStatusShipped         OrderStatus = "shipped"
	OrderStatusDelivered       OrderStatus = "delivered"
	OrderStatusCancelled       OrderStatus = "cancelled"
)

// IsValid checks if the order status is valid
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending,
		OrderStatusPaymentPending,
		OrderStatusPendingTransfer,
		OrderStatusConfirmed,
		OrderStatusProcessing,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// IsPending reports whether the order is still waiting on a payment outcome.
func (s OrderStatus) IsPending() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaymentPending, OrderStatusPendingTransfer:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transitions exist from this status.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo checks if a status transition is valid. Payment events only
// ever move pending* orders to confirmed or cancelled; everything past
// confirmed is advanced by admin action. An admin can also push a pending
// order straight into fulfillment, e.g. a transfer paid out of band.
func (s OrderStatus) CanTransitionTo(newStatus OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusPaymentPending, OrderStatusPendingTransfer:
		return newStatus.IsValid()
	case OrderStatusConfirmed:
		return newStatus == OrderStatusProcessing ||
			newStatus == OrderStatusShipped ||
			newStatus == OrderStatusCancelled
	case OrderStatusProcessing:
		return newStatus == OrderStatusShipped ||
			newStatus == OrderStatusCancelled
	case OrderStatusShipped:
		return newStatus == OrderStatusDelivered
	case OrderStatusDelivered, OrderStatusCancelled:
		return false // Terminal states
	default:
		return false
	}
}

// CustomerEmailStatuses are the statuses that trigger a customer-facing
// status email. A mere pending update sends nothing.
var CustomerEmailStatuses = map[OrderStatus]bool{
	OrderStatusConfirmed:  true,
	OrderStatusProcessing: true,
	OrderStatusShipped:    true,
	OrderStatusDelivered:  true,
	OrderStatusCancelled:  true,
}
