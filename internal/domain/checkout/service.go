// Package checkout implements order placement as a compensating-transaction
// saga: verify the gateway signature, reserve stock line by line, persist the
// payment and order, clear the cart. Every step that leaves durable state has
// a defined undo, and any failure unwinds all completed steps before the
// error reaches the caller, so no partial checkout ever survives.
package checkout

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/threadcart/backend/internal/domain/cart"
	"github.com/threadcart/backend/internal/domain/event"
	"github.com/threadcart/backend/internal/domain/inventory"
	"github.com/threadcart/backend/internal/domain/order"
	"github.com/threadcart/backend/internal/domain/payment"
)

// Item is one checkout line: the cart snapshot enriched with the product
// snapshot (name, color, unit price) taken at checkout time.
type Item struct {
	ProductID string
	Name      string
	Size      string
	Color     string
	Quantity  int
	Price     decimal.Decimal
}

// Request is a complete checkout submission: the gateway's payment proof
// plus the cart snapshot it pays for. Identity comes from the authenticated
// session, never from the request body.
type Request struct {
	UserID    string
	UserEmail string

	GatewayOrderID   string
	GatewayPaymentID string
	GatewaySignature string

	Items     []Item
	Address   order.Address
	ClearCart bool
}

// Result reports a committed checkout.
type Result struct {
	OrderID        string
	GatewayOrderID string
}

// Service drives the checkout saga. All collaborators are injected; the
// service holds no ambient globals.
type Service struct {
	verifier *payment.Verifier
	payments payment.Repository
	ledger   inventory.Ledger
	orders   order.Repository
	carts    cart.Store
	notifier event.Notifier
}

// NewService creates a checkout Service.
func NewService(
	verifier *payment.Verifier,
	payments payment.Repository,
	ledger inventory.Ledger,
	orders order.Repository,
	carts cart.Store,
	notifier event.Notifier,
) *Service {
	return &Service{
		verifier: verifier,
		payments: payments,
		ledger:   ledger,
		orders:   orders,
		carts:    carts,
		notifier: notifier,
	}
}

// undoStep is one entry on the saga's compensation stack.
type undoStep struct {
	name string
	undo func(ctx context.Context) error
}

// PlaceOrder runs the checkout saga and returns the committed order id.
//
// Failure semantics:
//   - Invalid signature: nothing written, ErrInvalidSignature.
//   - Reservation failure: every reservation already made for this checkout
//     is released; the inventory error (with product, size, and observed
//     availability) is returned as-is.
//   - Storage failure while persisting or finalizing: reservations are
//     released and the order row, if already written, is deleted; the caller
//     sees StorageUnavailableError and may retry the whole checkout. The
//     payment row is deliberately NOT undone — it is the durable proof the
//     charge happened, and the reconciler completes or refunds it.
func (s *Service) PlaceOrder(ctx context.Context, req Request) (*Result, error) {
	if err := validateItems(req.Items); err != nil {
		return nil, err
	}

	if !s.verifier.Verify(req.GatewayOrderID, req.GatewayPaymentID, req.GatewaySignature) {
		return nil, ErrInvalidSignature
	}

	var undos []undoStep

	// Reserve stock line by line, in input order. The stable order matters:
	// on failure we know exactly which reservations succeeded.
	for _, item := range req.Items {
		if err := s.ledger.Reserve(ctx, item.ProductID, item.Size, item.Quantity); err != nil {
			s.compensate(ctx, undos)
			return nil, err
		}
		undos = append(undos, releaseStep(s.ledger, item))
	}

	// Create is idempotent on the gateway payment id: a retry after a
	// compensated attempt resumes with the payment row that attempt left
	// behind instead of colliding with it.
	pay, err := s.payments.Create(ctx, &payment.Payment{
		ID:               uuid.New().String(),
		GatewayOrderID:   req.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
		GatewaySignature: req.GatewaySignature,
		CreatedAt:        time.Now(),
	})
	if err != nil {
		s.compensate(ctx, undos)
		return nil, &StorageUnavailableError{Err: err}
	}

	o := &order.Order{
		ID:        uuid.New().String(),
		PaymentID: pay.ID,
		UserID:    req.UserID,
		Items:     lineItems(req.Items),
		Address:   req.Address,
		Status:    order.StatusProcessing,
		CreatedAt: time.Now(),
	}
	if err := s.orders.Create(ctx, o); err != nil {
		s.compensate(ctx, undos)
		if errors.Is(err, order.ErrDuplicatePayment) {
			// The previous attempt actually committed; only its response was
			// lost. The stock reserved for this replay has been released.
			return nil, ErrAlreadyPlaced
		}
		return nil, &StorageUnavailableError{Err: err}
	}
	undos = append(undos, undoStep{
		name: "delete order " + o.ID,
		undo: func(ctx context.Context) error { return s.orders.Delete(ctx, o.ID) },
	})

	if req.ClearCart {
		if err := s.carts.Clear(ctx, req.UserID); err != nil {
			s.compensate(ctx, undos)
			return nil, &StorageUnavailableError{Err: err}
		}
	}

	s.notifier.Notify(ctx, event.Event{
		Type:      event.OrderPlaced,
		UserEmail: req.UserEmail,
		OrderID:   o.ID,
		Payload:   map[string]any{"gatewayOrderId": req.GatewayOrderID},
		At:        time.Now(),
	})

	return &Result{OrderID: o.ID, GatewayOrderID: req.GatewayOrderID}, nil
}

// compensate unwinds completed steps in reverse order. It keeps going past
// individual failures: a failed undo is logged for manual reconciliation but
// must not strand the remaining compensations. Cancellation of the inbound
// request must not abort the unwind either, hence WithoutCancel.
func (s *Service) compensate(ctx context.Context, undos []undoStep) {
	lg := zctx.From(ctx)
	ctx = context.WithoutCancel(ctx)
	for i := len(undos) - 1; i >= 0; i-- {
		if err := undos[i].undo(ctx); err != nil {
			lg.Error("Checkout compensation failed",
				zap.String("step", undos[i].name),
				zap.Error(err),
			)
		}
	}
}

func releaseStep(ledger inventory.Ledger, item Item) undoStep {
	return undoStep{
		name: "release " + item.ProductID + "/" + item.Size,
		undo: func(ctx context.Context) error {
			return ledger.Release(ctx, item.ProductID, item.Size, item.Quantity)
		},
	}
}

func validateItems(items []Item) error {
	if len(items) == 0 {
		return ErrEmptyItems
	}
	for _, item := range items {
		switch {
		case item.ProductID == "":
			return &InvalidItemError{ProductID: item.ProductID, Reason: "product id required"}
		case item.Size == "":
			return &InvalidItemError{ProductID: item.ProductID, Reason: "size required"}
		case item.Quantity < 1:
			return &InvalidItemError{ProductID: item.ProductID, Reason: "quantity must be at least 1"}
		}
	}
	return nil
}

func lineItems(items []Item) []order.LineItem {
	out := make([]order.LineItem, len(items))
	for i, item := range items {
		out[i] = order.LineItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Size:      item.Size,
			Color:     item.Color,
			Quantity:  item.Quantity,
			Price:     item.Price,
		}
	}
	return out
}
