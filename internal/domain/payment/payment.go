// Package payment holds the gateway payment record and its signature
// verification.
package payment

import (
	"context"
	"time"
)

// Payment is the write-once record of a verified gateway charge. It is
// created only after signature verification succeeds and is never mutated.
// A payment row with no matching order is the durable proof of a charge
// that was never fulfilled; the reconciler sweeps those up.
type Payment struct {
	ID               string
	GatewayOrderID   string
	GatewayPaymentID string
	GatewaySignature string
	CreatedAt        time.Time
}

// Repository defines persistence for payment records.
type Repository interface {
	// Create persists p and returns the stored record. It is idempotent on
	// the gateway payment id: when a record for the same charge already
	// exists (a compensated checkout being retried), the existing record is
	// returned instead of an error, so the retry resumes with the payment
	// row the first attempt left behind.
	Create(ctx context.Context, p *Payment) (*Payment, error)

	// ListUnmatched returns payments created before cutoff that no order
	// references. These are charges whose checkout never completed.
	ListUnmatched(ctx context.Context, cutoff time.Time) ([]Payment, error)
}
