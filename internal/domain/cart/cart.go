// Package cart models the per-user shopping cart consumed by checkout.
package cart

import "context"

// Item is a single cart line: product, size, and how many.
type Item struct {
	ProductID string `json:"productId"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

// Store defines the cart operations checkout depends on. The cart itself is
// mutated by the storefront's cart endpoints; checkout only ever empties it.
type Store interface {
	// Clear unconditionally empties the user's cart. Clearing an already
	// empty cart is a no-op success.
	Clear(ctx context.Context, userID string) error
}
