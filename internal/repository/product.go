package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/threadcart/backend/internal/domain/product"
)

const (
	getProductSQL = `SELECT id, name, price FROM products WHERE id = $1`

	getProductSizesSQL = `SELECT size, quantity FROM product_stock WHERE product_id = $1 ORDER BY size`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// GetByID returns a single product with its per-size availability snapshot.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	var p product.Product
	err := r.pool.QueryRow(ctx, getProductSQL, id).Scan(&p.ID, &p.Name, &p.Price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	rows, err := r.pool.Query(ctx, getProductSizesSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting sizes for product %q: %w", id, err)
	}
	defer rows.Close()

	p.Sizes = make(map[string]int)
	for rows.Next() {
		var (
			size string
			qty  int
		)
		if err := rows.Scan(&size, &qty); err != nil {
			return nil, fmt.Errorf("scanning size for product %q: %w", id, err)
		}
		p.Sizes[size] = qty
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("getting sizes for product %q: %w", id, err)
	}

	return &p, nil
}
