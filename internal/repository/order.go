package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/threadcart/backend/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders (id, payment_id, user_id, items, address, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	getOrderSQL = `SELECT id, payment_id, user_id, items, address, status, created_at
		FROM orders WHERE id = $1`

	lockOrderSQL = `SELECT id, payment_id, user_id, items, address, status, created_at
		FROM orders WHERE id = $1 FOR UPDATE`

	setOrderStatusSQL = `UPDATE orders SET status = $2 WHERE id = $1`

	deleteOrderSQL = `DELETE FROM orders WHERE id = $1`

	listOrdersSQL = `SELECT id, payment_id, user_id, items, address, status, created_at
		FROM orders ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	countOrdersSQL = `SELECT COUNT(*) FROM orders`

	listUserOrdersSQL = `SELECT id, payment_id, user_id, items, address, status, created_at
		FROM orders WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	countUserOrdersSQL = `SELECT COUNT(*) FROM orders WHERE user_id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. Line
// items and address are serialized to JSONB: they are immutable snapshots,
// never queried relationally.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}
	addressJSON, err := json.Marshal(o.Address)
	if err != nil {
		return fmt.Errorf("marshaling order address: %w", err)
	}

	_, err = r.pool.Exec(ctx, createOrderSQL,
		o.ID, o.PaymentID, o.UserID, itemsJSON, addressJSON, string(o.Status), o.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrUniqueViolation && pgErr.ConstraintName == "orders_payment_id_key" {
			return order.ErrDuplicatePayment
		}
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// pgerrUniqueViolation is the PostgreSQL unique_violation SQLSTATE.
const pgerrUniqueViolation = "23505"

// GetByID returns a single order by its identifier.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return &o, nil
}

// UpdateStatus applies a transition inside a transaction holding a row lock,
// so concurrent updates on the same order serialize and each one validates
// against the status it actually supersedes. The returned order is the row
// read under that lock, so a successful transition is reported even if the
// row vanishes right after commit.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, to order.Status) (*order.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("beginning status update for order %q: %w", id, err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, lockOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("locking order %q: %w", id, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("locking order %q: %w", id, err)
	}

	if !order.CanTransition(o.Status, to) {
		return nil, &order.InvalidTransitionError{From: o.Status, To: to}
	}

	if _, err := tx.Exec(ctx, setOrderStatusSQL, id, string(to)); err != nil {
		return nil, fmt.Errorf("updating status of order %q: %w", id, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing status update for order %q: %w", id, err)
	}

	o.Status = to
	return &o, nil
}

// Delete removes an order row. Compensation-only.
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, deleteOrderSQL, id); err != nil {
		return fmt.Errorf("deleting order %q: %w", id, err)
	}
	return nil
}

// List returns a page of all orders, newest first, and the total count.
func (r *OrderRepository) List(ctx context.Context, p order.Page) ([]order.Order, int, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("listing orders: %w", err)
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, 0, fmt.Errorf("listing orders: %w", err)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countOrdersSQL).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting orders: %w", err)
	}
	return orders, total, nil
}

// ListByUser returns a page of one user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string, p order.Page) ([]order.Order, int, error) {
	rows, err := r.pool.Query(ctx, listUserOrdersSQL, userID, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("listing orders for user %q: %w", userID, err)
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, 0, fmt.Errorf("listing orders for user %q: %w", userID, err)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countUserOrdersSQL, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting orders for user %q: %w", userID, err)
	}
	return orders, total, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o           order.Order
		status      string
		itemsJSON   []byte
		addressJSON []byte
	)
	err := row.Scan(&o.ID, &o.PaymentID, &o.UserID, &itemsJSON, &addressJSON, &status, &o.CreatedAt)
	if err != nil {
		return o, err
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return o, fmt.Errorf("unmarshaling items of order %q: %w", o.ID, err)
	}
	if err := json.Unmarshal(addressJSON, &o.Address); err != nil {
		return o, fmt.Errorf("unmarshaling address of order %q: %w", o.ID, err)
	}
	o.Status = order.Status(status)
	return o, nil
}
