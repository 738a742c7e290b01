package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/threadcart/backend/internal/domain/event"
)

// Service wraps the order repository with the notification side effects of
// status changes. Notifications are best-effort: the status change is
// already durable by the time the notifier runs, and a delivery failure
// never rolls it back.
type Service struct {
	orders   Repository
	notifier event.Notifier
}

// NewService creates an order Service.
func NewService(orders Repository, notifier event.Notifier) *Service {
	return &Service{orders: orders, notifier: notifier}
}

// Get returns a single order by id.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	return s.orders.GetByID(ctx, id)
}

// List returns a page of all orders, newest first, with the total count.
func (s *Service) List(ctx context.Context, p Page) ([]Order, int, error) {
	return s.orders.List(ctx, p)
}

// ListByUser returns a page of one user's orders, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string, p Page) ([]Order, int, error) {
	return s.orders.ListByUser(ctx, userID, p)
}

// UpdateStatus applies a status transition and emits the matching event.
// Unknown statuses are rejected before touching storage.
func (s *Service) UpdateStatus(ctx context.Context, id string, to Status, userEmail string) (*Order, error) {
	if !to.Valid() {
		return nil, errors.Errorf("unknown order status %q", to)
	}

	updated, err := s.orders.UpdateStatus(ctx, id, to)
	if err != nil {
		return nil, err
	}

	typ := event.OrderStatusChanged
	if to == StatusCancelled {
		typ = event.OrderCancelled
	}
	s.notifier.Notify(ctx, event.Event{
		Type:      typ,
		UserEmail: userEmail,
		OrderID:   updated.ID,
		Payload:   map[string]any{"status": statusLabel(to)},
		At:        time.Now(),
	})

	return updated, nil
}

// Cancel moves an order to cancelled. An already-cancelled order fails with
// InvalidTransitionError like any other disallowed transition.
func (s *Service) Cancel(ctx context.Context, id, userEmail string) (*Order, error) {
	return s.UpdateStatus(ctx, id, StatusCancelled, userEmail)
}

var titleCaser = cases.Title(language.English)

// statusLabel renders a status for user-facing notifications ("Shipped").
func statusLabel(s Status) string {
	return titleCaser.String(string(s))
}
