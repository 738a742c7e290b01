package checkout

import (
	"fmt"

	"github.com/go-faster/errors"
)

// ErrInvalidSignature is the terminal outcome of a failed payment signature
// check. Deliberately generic: callers must not learn which part of the
// check failed.
var ErrInvalidSignature = errors.New("invalid signature")

// ErrEmptyItems is returned when a checkout carries no line items.
var ErrEmptyItems = errors.New("items required")

// ErrAlreadyPlaced is returned when an order already exists for the
// submitted payment: the checkout committed on an earlier attempt and the
// client is replaying it.
var ErrAlreadyPlaced = errors.New("order already placed for this payment")

// InvalidItemError indicates a malformed line item (non-positive quantity,
// missing product id or size).
type InvalidItemError struct {
	ProductID string
	Reason    string
}

func (e *InvalidItemError) Error() string {
	return fmt.Sprintf("invalid item %s: %s", e.ProductID, e.Reason)
}

// StorageUnavailableError wraps a transient infrastructure failure during
// persisting or finalizing. By the time the caller sees it, all compensation
// has run: the checkout is safe to retry from scratch.
type StorageUnavailableError struct {
	Err error
}

func (e *StorageUnavailableError) Error() string {
	return fmt.Sprintf("storage unavailable: %v", e.Err)
}

func (e *StorageUnavailableError) Unwrap() error {
	return e.Err
}
