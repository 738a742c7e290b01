package checkout

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/threadcart/backend/internal/domain/inventory"
	"github.com/threadcart/backend/internal/domain/product"
)

// GatewayOrder is the gateway's handle for a charge-in-progress. Its ID is
// what the client pays against and what later comes back signed.
type GatewayOrder struct {
	ID       string
	Amount   decimal.Decimal
	Currency string
	Receipt  string
}

// Gateway creates charge orders at the external payment processor. The call
// blocks until the gateway answers; there is no callback variant.
type Gateway interface {
	CreateOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string) (*GatewayOrder, error)
}

// SessionItem is one cart line submitted for a checkout session.
type SessionItem struct {
	ProductID string
	Size      string
	Quantity  int
}

// SessionRequest opens a checkout session for the given cart total.
type SessionRequest struct {
	Amount decimal.Decimal
	Items  []SessionItem
}

// Sessions opens checkout sessions: an advisory stock check against the
// catalog followed by gateway order creation. The stock check here only
// avoids charging a customer for an obviously unfillable cart; the
// authoritative check is the ledger's atomic reserve during PlaceOrder.
type Sessions struct {
	catalog  product.Repository
	gateway  Gateway
	currency string
}

// NewSessions creates a Sessions service charging in the given currency.
func NewSessions(catalog product.Repository, gateway Gateway, currency string) *Sessions {
	return &Sessions{catalog: catalog, gateway: gateway, currency: currency}
}

// Create validates the cart against the catalog and opens a gateway order
// for the amount. Stock shortfalls are reported with the same typed errors
// the ledger uses.
func (s *Sessions) Create(ctx context.Context, req SessionRequest) (*GatewayOrder, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	if !req.Amount.IsPositive() {
		return nil, errors.New("amount must be positive")
	}

	for _, item := range req.Items {
		if item.Quantity < 1 {
			return nil, &InvalidItemError{ProductID: item.ProductID, Reason: "quantity must be at least 1"}
		}

		p, err := s.catalog.GetByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, product.ErrNotFound) {
				return nil, &inventory.ProductNotFoundError{ProductID: item.ProductID}
			}
			return nil, errors.Wrapf(err, "get product %s", item.ProductID)
		}

		available, ok := p.Sizes[item.Size]
		if !ok {
			return nil, &inventory.SizeNotFoundError{ProductID: item.ProductID, Size: item.Size}
		}
		if available < item.Quantity {
			return nil, &inventory.InsufficientStockError{
				ProductID: item.ProductID,
				Size:      item.Size,
				Available: available,
				Requested: item.Quantity,
			}
		}
	}

	gwOrder, err := s.gateway.CreateOrder(ctx, req.Amount, s.currency, newReceipt())
	if err != nil {
		return nil, errors.Wrap(err, "create gateway order")
	}
	return gwOrder, nil
}

// newReceipt generates the opaque receipt reference the gateway requires.
func newReceipt() string {
	var b [10]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
