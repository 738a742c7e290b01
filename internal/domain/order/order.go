package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when an order id is unknown.
var ErrNotFound = errors.New("order not found")

// ErrDuplicatePayment is returned by Create when an order already references
// the given payment. A payment funds at most one order, so this means the
// checkout for that charge has already committed.
var ErrDuplicatePayment = errors.New("an order already references this payment")

// LineItem is a product snapshot copied into the order at checkout time.
// Later catalog or price edits never alter a placed order.
type LineItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Size      string          `json:"size"`
	Color     string          `json:"color"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// Address is the delivery address snapshot embedded in the order.
type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// Order is a durable placed order. Line items and address are immutable
// after creation; only Status ever changes.
type Order struct {
	ID        string
	PaymentID string
	UserID    string
	Items     []LineItem
	Address   Address
	Status    Status
	CreatedAt time.Time
}

// Page describes an offset/limit window for order listings.
type Page struct {
	Number int
	Limit  int
}

// Offset returns the row offset for the page.
func (p Page) Offset() int {
	n := p.Number
	if n < 1 {
		n = 1
	}
	return (n - 1) * p.Limit
}

// Repository defines persistence for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)

	// UpdateStatus applies a status transition and returns the updated order.
	// It fails with ErrNotFound for unknown ids and with InvalidTransitionError
	// for transitions outside the allowed set; the check and the write are one
	// atomic step with respect to concurrent updates on the same order, and
	// the returned order reflects the row as observed within that step.
	UpdateStatus(ctx context.Context, id string, to Status) (*Order, error)

	// Delete removes an order. Used only to compensate a checkout whose
	// finalization failed after the order row was written.
	Delete(ctx context.Context, id string) error

	List(ctx context.Context, p Page) ([]Order, int, error)
	ListByUser(ctx context.Context, userID string, p Page) ([]Order, int, error)
}
