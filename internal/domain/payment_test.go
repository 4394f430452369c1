package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusFor(t *testing.T) {
	tests := []struct {
		raw        string
		wantStatus OrderStatus
		wantKnown  bool
	}{
		{"approved", OrderStatusConfirmed, true},
		{"pending", OrderStatusPending, true},
		{"in_process", OrderStatusPending, true},
		{"rejected", OrderStatusCancelled, true},
		{"cancelled", OrderStatusCancelled, true},
		{"refunded", OrderStatusPending, false},
		{"charged_back", OrderStatusPending, false},
		{"", OrderStatusPending, false},
		{"APPROVED", OrderStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, known := ParsePaymentStatus(tt.raw).OrderStatusFor()
			assert.Equal(t, tt.wantStatus, got)
			assert.Equal(t, tt.wantKnown, known)
		})
	}
}

func TestParsePaymentStatusUnknownFallback(t *testing.T) {
	assert.Equal(t, PaymentStatusUnknown, ParsePaymentStatus("something_new"))
	assert.Equal(t, PaymentStatusApproved, ParsePaymentStatus("approved"))
}

func TestPaymentMethodLabel(t *testing.T) {
	assert.Equal(t, "Tarjeta de Crédito", PaymentMethodLabel("visa"))
	assert.Equal(t, "Tarjeta de Crédito", PaymentMethodLabel("master"))
	assert.Equal(t, "Tarjeta de Débito", PaymentMethodLabel("debvisa"))
	assert.Equal(t, "Efectivo", PaymentMethodLabel("rapipago"))
	assert.Equal(t, "Dinero en Cuenta MP", PaymentMethodLabel("account_money"))
	assert.Equal(t, "Transferencia Bancaria", PaymentMethodLabel("debin"))
}

func TestPaymentMethodLabelFallback(t *testing.T) {
	assert.Equal(t, "Mercado Pago (pix)", PaymentMethodLabel("pix"))
	assert.Equal(t, "Mercado Pago", PaymentMethodLabel(""))
}
