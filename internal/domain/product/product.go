package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a product does not exist in the catalog.
var ErrNotFound = errors.New("product not found")

// Product is a catalog entry with its per-size availability.
//
// Sizes maps a size label to the available quantity. A size absent from the
// map is distinct from a size present with quantity zero: the former means
// the product is not sold in that size at all.
type Product struct {
	ID    string
	Name  string
	Price decimal.Decimal
	Sizes map[string]int
}

// Repository defines read-only catalog access.
//
// Quantities returned here are advisory. The authoritative availability check
// is the inventory ledger's atomic reserve.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Product, error)
}
