package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tiendaluna/storeapi/internal/mercadopago"
)

type recordingApplier struct {
	applied []*mercadopago.Payment
}

func (r *recordingApplier) ApplyPayment(ctx context.Context, traceID string, payment *mercadopago.Payment) {
	r.applied = append(r.applied, payment)
}

func TestSweepAppliesLatestPayment(t *testing.T) {
	orderRepo := newMemOrderRepo(pendingOrder("ORD-1"))
	gateway := &fakeGateway{searchRes: []mercadopago.Payment{
		{ID: 2, Status: "approved", ExternalReference: "ORD-1"},
		{ID: 1, Status: "in_process", ExternalReference: "ORD-1"},
	}}
	applier := &recordingApplier{}

	r := NewReconciler(newRepos(orderRepo, newMemItemRepo(), &memEventRepo{}), gateway, applier, 15*time.Minute, zap.NewNop())

	require.NoError(t, r.Sweep(context.Background()))

	assert.Equal(t, []string{"ORD-1"}, gateway.searched)
	require.Len(t, applier.applied, 1)
	assert.Equal(t, int64(2), applier.applied[0].ID)
}

func TestSweepSkipsOrdersWithoutPayments(t *testing.T) {
	orderRepo := newMemOrderRepo(pendingOrder("ORD-1"))
	gateway := &fakeGateway{searchRes: nil}
	applier := &recordingApplier{}

	r := NewReconciler(newRepos(orderRepo, newMemItemRepo(), &memEventRepo{}), gateway, applier, 15*time.Minute, zap.NewNop())

	require.NoError(t, r.Sweep(context.Background()))
	assert.Empty(t, applier.applied)
}

func TestSweepContinuesPastGatewayErrors(t *testing.T) {
	orderRepo := newMemOrderRepo(pendingOrder("ORD-1"), pendingOrder("ORD-2"))
	gateway := &fakeGateway{searchErr: errors.New("gateway down")}
	applier := &recordingApplier{}

	r := NewReconciler(newRepos(orderRepo, newMemItemRepo(), &memEventRepo{}), gateway, applier, 15*time.Minute, zap.NewNop())

	// Per-order failures are logged and skipped, never fatal to the sweep.
	require.NoError(t, r.Sweep(context.Background()))
	assert.Len(t, gateway.searched, 2)
	assert.Empty(t, applier.applied)
}
