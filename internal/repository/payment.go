package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/threadcart/backend/internal/domain/payment"
)

const (
	// The gateway payment id is the idempotency key: a retried checkout
	// whose earlier attempt was compensated resumes with the row that
	// attempt wrote instead of colliding with it.
	createPaymentSQL = `INSERT INTO payments (id, gateway_order_id, gateway_payment_id, gateway_signature, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (gateway_payment_id) DO NOTHING
		RETURNING id, gateway_order_id, gateway_payment_id, gateway_signature, created_at`

	getPaymentByGatewayIDSQL = `SELECT id, gateway_order_id, gateway_payment_id, gateway_signature, created_at
		FROM payments WHERE gateway_payment_id = $1`

	listUnmatchedPaymentsSQL = `SELECT p.id, p.gateway_order_id, p.gateway_payment_id, p.gateway_signature, p.created_at
		FROM payments p
		LEFT JOIN orders o ON o.payment_id = p.id
		WHERE o.id IS NULL AND p.created_at < $1
		ORDER BY p.created_at`
)

var _ payment.Repository = (*PaymentRepository)(nil)

// PaymentRepository implements payment.Repository backed by PostgreSQL.
// Payments are write-once; there is deliberately no update or delete.
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository returns a PaymentRepository that uses the given pool.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

// Create persists a verified payment record and returns the stored row. A
// record for the same gateway payment id already on file is returned as-is.
func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) (*payment.Payment, error) {
	rows, err := r.pool.Query(ctx, createPaymentSQL,
		p.ID, p.GatewayOrderID, p.GatewayPaymentID, p.GatewaySignature, p.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating payment %q: %w", p.ID, err)
	}

	stored, err := pgx.CollectExactlyOneRow(rows, scanPayment)
	if err == nil {
		return &stored, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("creating payment %q: %w", p.ID, err)
	}

	// ON CONFLICT DO NOTHING returned no row: the charge is already on file.
	rows, err = r.pool.Query(ctx, getPaymentByGatewayIDSQL, p.GatewayPaymentID)
	if err != nil {
		return nil, fmt.Errorf("fetching payment for charge %q: %w", p.GatewayPaymentID, err)
	}
	existing, err := pgx.CollectExactlyOneRow(rows, scanPayment)
	if err != nil {
		return nil, fmt.Errorf("fetching payment for charge %q: %w", p.GatewayPaymentID, err)
	}
	return &existing, nil
}

// ListUnmatched returns payments older than cutoff with no matching order.
func (r *PaymentRepository) ListUnmatched(ctx context.Context, cutoff time.Time) ([]payment.Payment, error) {
	rows, err := r.pool.Query(ctx, listUnmatchedPaymentsSQL, cutoff)
	if err != nil {
		return nil, fmt.Errorf("listing unmatched payments: %w", err)
	}
	return pgx.CollectRows(rows, scanPayment)
}

func scanPayment(row pgx.CollectableRow) (payment.Payment, error) {
	var p payment.Payment
	err := row.Scan(&p.ID, &p.GatewayOrderID, &p.GatewayPaymentID, &p.GatewaySignature, &p.CreatedAt)
	return p, err
}
