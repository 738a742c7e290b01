// Package inventory defines the stock ledger: the single authority for
// per-(product, size) available quantity.
package inventory

import (
	"context"
	"fmt"
)

// ProductNotFoundError indicates the product id is unknown to the ledger.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// SizeNotFoundError indicates the product exists but is not stocked in the
// requested size. Distinct from a size that is stocked with zero quantity.
type SizeNotFoundError struct {
	ProductID string
	Size      string
}

func (e *SizeNotFoundError) Error() string {
	return fmt.Sprintf("product %s has no size %s", e.ProductID, e.Size)
}

// InsufficientStockError indicates fewer units are available than requested.
// Available is the quantity observed at the moment the reservation failed.
type InsufficientStockError struct {
	ProductID string
	Size      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s size %s: %d available, %d requested",
		e.ProductID, e.Size, e.Available, e.Requested)
}

// Ledger exposes atomic stock reservation and its compensating release.
//
// Reserve must be serializable with respect to concurrent Reserve/Release
// calls on the same (product, size) key: the availability check and the
// decrement happen as one step, never as a read-modify-write across two
// round trips. Two concurrent reservations whose combined quantity exceeds
// availability must never both succeed.
type Ledger interface {
	// Reserve atomically decrements the available quantity by qty, or fails
	// with ProductNotFoundError, SizeNotFoundError, or InsufficientStockError
	// without changing anything.
	Reserve(ctx context.Context, productID, size string, qty int) error

	// Release atomically increments the available quantity by qty. Used only
	// to compensate reservations made by a checkout that later failed.
	Release(ctx context.Context, productID, size string, qty int) error
}
