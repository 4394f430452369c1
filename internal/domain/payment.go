package domain

import "fmt"

// PaymentStatus is the Mercado Pago payment status vocabulary. Values beyond
// the ones enumerated here reach us occasionally (refunded, charged_back,
// authorized); they map to PaymentStatusUnknown and leave the order untouched.
type PaymentStatus string

const (
	PaymentStatusApproved  PaymentStatus = "approved"
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusInProcess PaymentStatus = "in_process"
	PaymentStatusRejected  PaymentStatus = "rejected"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusUnknown   PaymentStatus = "unknown"
)

// ParsePaymentStatus normalizes a raw gateway status string. Never fails;
// unrecognized input becomes PaymentStatusUnknown.
func ParsePaymentStatus(raw string) PaymentStatus {
	switch PaymentStatus(raw) {
	case PaymentStatusApproved, PaymentStatusPending, PaymentStatusInProcess,
		PaymentStatusRejected, PaymentStatusCancelled:
		return PaymentStatus(raw)
	default:
		return PaymentStatusUnknown
	}
}

// OrderStatusFor translates a gateway payment status into the order status it
// drives. The second return is false for unknown statuses, in which case the
// order must be left as-is (callers log and skip the write).
func (p PaymentStatus) OrderStatusFor() (OrderStatus, bool) {
	switch p {
	case PaymentStatusApproved:
		return OrderStatusConfirmed, true
	case PaymentStatusPending, PaymentStatusInProcess:
		return OrderStatusPending, true
	case PaymentStatusRejected, PaymentStatusCancelled:
		return OrderStatusCancelled, true
	default:
		return OrderStatusPending, false
	}
}

// paymentMethodLabels maps Mercado Pago payment_method_id codes to the
// display categories shown on emails and the order page. Data table, kept
// here rather than branching logic so new codes are a one-line change.
var paymentMethodLabels = map[string]string{
	"visa":          "Tarjeta de Crédito",
	"master":        "Tarjeta de Crédito",
	"amex":          "Tarjeta de Crédito",
	"naranja":       "Tarjeta de Crédito",
	"cabal":         "Tarjeta de Crédito",
	"debvisa":       "Tarjeta de Débito",
	"debmaster":     "Tarjeta de Débito",
	"debcabal":      "Tarjeta de Débito",
	"maestro":       "Tarjeta de Débito",
	"rapipago":      "Efectivo",
	"pagofacil":     "Efectivo",
	"account_money": "Dinero en Cuenta MP",
	"debin":         "Transferencia Bancaria",
	"cvu":           "Transferencia Bancaria",
}

// PaymentMethodLabel returns the human-readable label for a gateway
// payment-method code. Unrecognized or empty codes fall back to a generic
// Mercado Pago label.
func PaymentMethodLabel(code string) string {
	if code == "" {
		return "Mercado Pago"
	}
	if label, ok := paymentMethodLabels[code]; ok {
		return label
	}
	return fmt.Sprintf("Mercado Pago (%s)", code)
}
