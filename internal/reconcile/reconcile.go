// Package reconcile sweeps up verified charges that never became orders.
//
// A payment row is written the moment a gateway signature verifies; the
// order referencing it is written afterwards. If the checkout dies in
// between (or its finalization was compensated away), the customer has been
// charged for nothing. The reconciler periodically finds such payments and
// raises an event so they get completed or refunded out-of-band.
package reconcile

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/threadcart/backend/internal/domain/event"
	"github.com/threadcart/backend/internal/domain/payment"
)

// Config controls the reconciliation loop.
type Config struct {
	// Interval between sweeps.
	Interval time.Duration
	// MinAge a payment must reach before it counts as unreconciled. Keeps
	// the sweep from racing checkouts that are still in flight.
	MinAge time.Duration
}

// Reconciler runs the periodic sweep.
type Reconciler struct {
	payments payment.Repository
	notifier event.Notifier
	cfg      Config
	lg       *zap.Logger
}

// New creates a Reconciler.
func New(payments payment.Repository, notifier event.Notifier, cfg Config, lg *zap.Logger) *Reconciler {
	return &Reconciler{payments: payments, notifier: notifier, cfg: cfg, lg: lg}
}

// Run sweeps at the configured interval until ctx is cancelled. The first
// sweep happens immediately.
func (r *Reconciler) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		if err := r.Sweep(ctx); err != nil {
			r.lg.Error("Reconciliation sweep failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Sweep performs one pass: list payments older than MinAge with no matching
// order and raise a PaymentUnreconciled event for each.
func (r *Reconciler) Sweep(ctx context.Context) error {
	cutoff := time.Now().Add(-r.cfg.MinAge)

	orphans, err := r.payments.ListUnmatched(ctx, cutoff)
	if err != nil {
		return errors.Wrap(err, "list unmatched payments")
	}

	for _, p := range orphans {
		r.lg.Warn("Unreconciled payment",
			zap.String("paymentId", p.ID),
			zap.String("gatewayOrderId", p.GatewayOrderID),
			zap.Time("createdAt", p.CreatedAt),
		)
		r.notifier.Notify(ctx, event.Event{
			Type: event.PaymentUnreconciled,
			Payload: map[string]any{
				"paymentId":        p.ID,
				"gatewayOrderId":   p.GatewayOrderID,
				"gatewayPaymentId": p.GatewayPaymentID,
				"createdAt":        p.CreatedAt,
			},
			At: time.Now(),
		})
	}

	if len(orphans) > 0 {
		r.lg.Info("Reconciliation sweep done", zap.Int("unreconciled", len(orphans)))
	}
	return nil
}
