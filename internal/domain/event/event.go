// Package event defines the outbound notification contract. Delivery is
// fire-and-forget: a failed notification is logged by the implementation and
// never affects the outcome of the operation that raised it.
package event

import (
	"context"
	"time"
)

// Type identifies what happened.
type Type string

const (
	OrderPlaced        Type = "order.placed"
	OrderCancelled     Type = "order.cancelled"
	OrderStatusChanged Type = "order.status_changed"

	// PaymentUnreconciled is raised by the reconciler for a verified charge
	// that has no matching order and needs completion or refund.
	PaymentUnreconciled Type = "payment.unreconciled"
)

// Event is a single outbound notification.
type Event struct {
	Type      Type           `json:"type"`
	UserEmail string         `json:"userEmail,omitempty"`
	OrderID   string         `json:"orderId,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	At        time.Time      `json:"at"`
}

// Notifier hands events off for delivery. Implementations must not block on
// delivery and must swallow (but log) delivery failures.
type Notifier interface {
	Notify(ctx context.Context, e Event)
}
