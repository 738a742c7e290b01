package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/threadcart/backend/internal/domain/inventory"
)

const (
	// The availability check and the decrement are one statement: the WHERE
	// clause makes two concurrent reservations on the same (product, size)
	// serialize on the row, so they can never jointly oversell it.
	reserveStockSQL = `UPDATE product_stock SET quantity = quantity - $3
		WHERE product_id = $1 AND size = $2 AND quantity >= $3`

	releaseStockSQL = `UPDATE product_stock SET quantity = quantity + $3
		WHERE product_id = $1 AND size = $2`

	getStockSQL = `SELECT quantity FROM product_stock WHERE product_id = $1 AND size = $2`

	productExistsSQL = `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`
)

var _ inventory.Ledger = (*InventoryLedger)(nil)

// InventoryLedger implements inventory.Ledger on PostgreSQL using atomic
// conditional updates. No application-level locking is involved.
type InventoryLedger struct {
	pool *pgxpool.Pool
}

// NewInventoryLedger returns an InventoryLedger that uses the given pool.
func NewInventoryLedger(pool *pgxpool.Pool) *InventoryLedger {
	return &InventoryLedger{pool: pool}
}

// Reserve decrements availability by qty if and only if enough remains.
func (l *InventoryLedger) Reserve(ctx context.Context, productID, size string, qty int) error {
	if qty < 1 {
		return errors.Errorf("reserve quantity must be positive, got %d", qty)
	}

	tag, err := l.pool.Exec(ctx, reserveStockSQL, productID, size, qty)
	if err != nil {
		return fmt.Errorf("reserving %d of %s/%s: %w", qty, productID, size, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	// The conditional update matched nothing. Diagnose why: the row may be
	// missing (unknown product or size) or present with too little stock.
	return l.diagnoseReserveFailure(ctx, productID, size, qty)
}

// Release increments availability by qty. Only called to compensate a
// reservation made earlier in the same checkout, so the row must exist.
func (l *InventoryLedger) Release(ctx context.Context, productID, size string, qty int) error {
	if qty < 1 {
		return errors.Errorf("release quantity must be positive, got %d", qty)
	}

	tag, err := l.pool.Exec(ctx, releaseStockSQL, productID, size, qty)
	if err != nil {
		return fmt.Errorf("releasing %d of %s/%s: %w", qty, productID, size, err)
	}
	if tag.RowsAffected() != 1 {
		return &inventory.SizeNotFoundError{ProductID: productID, Size: size}
	}
	return nil
}

func (l *InventoryLedger) diagnoseReserveFailure(ctx context.Context, productID, size string, qty int) error {
	var available int
	err := l.pool.QueryRow(ctx, getStockSQL, productID, size).Scan(&available)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		var exists bool
		if err := l.pool.QueryRow(ctx, productExistsSQL, productID).Scan(&exists); err != nil {
			return fmt.Errorf("checking product %q: %w", productID, err)
		}
		if !exists {
			return &inventory.ProductNotFoundError{ProductID: productID}
		}
		return &inventory.SizeNotFoundError{ProductID: productID, Size: size}
	case err != nil:
		return fmt.Errorf("checking stock for %s/%s: %w", productID, size, err)
	}

	return &inventory.InsufficientStockError{
		ProductID: productID,
		Size:      size,
		Available: available,
		Requested: qty,
	}
}
