// Package notifier delivers domain events to Kafka. Delivery is
// fire-and-forget by contract: the publishing goroutine logs write failures
// and the producing request never waits on the broker.
package notifier

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/threadcart/backend/internal/domain/event"
)

var _ event.Notifier = (*Kafka)(nil)

// Kafka publishes events to a single topic through a buffered inbox drained
// by one background goroutine. Events are keyed by order id so per-order
// ordering survives partitioning.
type Kafka struct {
	w     *kafka.Writer
	inbox chan kafka.Message
	done  chan struct{}
	lg    *zap.Logger

	mu     sync.RWMutex
	closed bool
}

// NewKafka creates a Kafka notifier for the given brokers and topic. Call
// Start before producing and Close to flush on shutdown.
func NewKafka(brokers []string, topic string, buffer int, lg *zap.Logger) *Kafka {
	return &Kafka{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
		inbox: make(chan kafka.Message, buffer),
		done:  make(chan struct{}),
		lg:    lg,
	}
}

// Start launches the publishing goroutine. It drains the inbox until Close
// is called, then flushes whatever is left and stops.
func (k *Kafka) Start() {
	go func() {
		defer close(k.done)
		for m := range k.inbox {
			if err := k.w.WriteMessages(context.Background(), m); err != nil {
				k.lg.Error("Event publish failed",
					zap.String("key", string(m.Key)),
					zap.Error(err),
				)
			}
		}
		if err := k.w.Close(); err != nil {
			k.lg.Error("Kafka writer close failed", zap.Error(err))
		}
	}()
}

// Notify enqueues the event for delivery. When the inbox is full the event
// is dropped and logged rather than blocking the caller: notification loss
// is acceptable, a stalled checkout is not.
func (k *Kafka) Notify(_ context.Context, e event.Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}

	value, err := json.Marshal(e)
	if err != nil {
		k.lg.Error("Event marshal failed", zap.String("type", string(e.Type)), zap.Error(err))
		return
	}

	msg := kafka.Message{
		Key:   []byte(e.OrderID),
		Value: value,
		Time:  e.At,
	}

	// The read lock keeps Close from closing the inbox mid-send.
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.closed {
		k.lg.Warn("Event dropped, notifier closed",
			zap.String("type", string(e.Type)),
			zap.String("orderId", e.OrderID),
		)
		return
	}
	select {
	case k.inbox <- msg:
	default:
		k.lg.Warn("Event dropped, notifier inbox full",
			zap.String("type", string(e.Type)),
			zap.String("orderId", e.OrderID),
		)
	}
}

// Close stops intake and waits for the pending events to flush. Notify calls
// arriving after Close drop their event instead of panicking. Safe to call
// more than once.
func (k *Kafka) Close() {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return
	}
	k.closed = true
	k.mu.Unlock()

	close(k.inbox)
	<-k.done
}
