package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tiendaluna/storeapi/internal/mercadopago"
	"github.com/tiendaluna/storeapi/internal/repository"
)

// PaymentSearcher looks payments up by external reference.
type PaymentSearcher interface {
	SearchByExternalReference(ctx context.Context, ref string) ([]mercadopago.Payment, error)
}

// PaymentApplier applies a fetched payment to its order.
type PaymentApplier interface {
	ApplyPayment(ctx context.Context, traceID string, payment *mercadopago.Payment)
}

// Reconciler sweeps orders stuck in a pending status and asks the gateway
// what actually happened to them. This is the manual-reconciliation backstop
// for notifications that never arrived or raced ahead of checkout.
type Reconciler struct {
	repos    *repository.Repositories
	gateway  PaymentSearcher
	pipeline PaymentApplier
	maxAge   time.Duration
	logger   *zap.Logger
}

// NewReconciler creates a reconciler that considers pending orders older than
// maxAge stuck.
func NewReconciler(repos *repository.Repositories, gateway PaymentSearcher, pipeline PaymentApplier, maxAge time.Duration, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		repos:    repos,
		gateway:  gateway,
		pipeline: pipeline,
		maxAge:   maxAge,
		logger:   logger,
	}
}

// Run sweeps on every tick until the context is cancelled.
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.logger.Info("Reconciliation worker started", zap.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Sweep(ctx); err != nil {
				r.logger.Error("Reconciliation sweep failed", zap.Error(err))
			}
		}
	}
}

// Sweep processes every stuck pending order once. Per-order gateway failures
// are logged and skipped; the order waits for the next sweep.
func (r *Reconciler) Sweep(ctx context.Context) error {
	stuck, err := r.repos.Order.ListStalePending(ctx, int(r.maxAge.Seconds()))
	if err != nil {
		return err
	}

	if len(stuck) == 0 {
		return nil
	}

	r.logger.Info("Reconciling stuck pending orders", zap.Int("count", len(stuck)))

	for _, order := range stuck {
		traceID := uuid.NewString()
		payments, err := r.gateway.SearchByExternalReference(ctx, order.OrderNumber)
		if err != nil {
			r.logger.Warn("Failed to search gateway for order, will retry next sweep",
				zap.String("trace_id", traceID),
				zap.String("order_number", order.OrderNumber),
				zap.Error(err),
			)
			continue
		}

		if len(payments) == 0 {
			r.logger.Info("No payment recorded for order yet",
				zap.String("trace_id", traceID),
				zap.String("order_number", order.OrderNumber),
			)
			continue
		}

		// Results arrive newest first; the latest payment is the gateway's
		// current word on the order.
		r.pipeline.ApplyPayment(ctx, traceID, &payments[0])
	}

	return nil
}
