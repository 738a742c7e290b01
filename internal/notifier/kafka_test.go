package notifier

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/threadcart/backend/internal/domain/event"
)

func TestNotify_EnqueuesKeyedMessage(t *testing.T) {
	k := NewKafka([]string{"localhost:9092"}, "shop.events", 4, zap.NewNop())

	k.Notify(context.Background(), event.Event{
		Type:      event.OrderPlaced,
		UserEmail: "u1@example.com",
		OrderID:   "o1",
		At:        time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	})

	require.Len(t, k.inbox, 1)
	msg := <-k.inbox
	assert.Equal(t, "o1", string(msg.Key))

	var e event.Event
	require.NoError(t, json.Unmarshal(msg.Value, &e))
	assert.Equal(t, event.OrderPlaced, e.Type)
	assert.Equal(t, "u1@example.com", e.UserEmail)
}

func TestNotify_DefaultsTimestamp(t *testing.T) {
	k := NewKafka([]string{"localhost:9092"}, "shop.events", 1, zap.NewNop())

	k.Notify(context.Background(), event.Event{Type: event.OrderPlaced, OrderID: "o1"})

	msg := <-k.inbox
	assert.WithinDuration(t, time.Now(), msg.Time, time.Minute)
}

func TestNotify_AfterCloseDropsQuietly(t *testing.T) {
	k := NewKafka([]string{"localhost:9092"}, "shop.events", 4, zap.NewNop())
	k.Start()
	k.Close()

	require.NotPanics(t, func() {
		k.Notify(context.Background(), event.Event{Type: event.OrderPlaced, OrderID: "o1"})
	})
	require.NotPanics(t, k.Close, "second Close is a no-op")
}

func TestNotify_DropsWhenInboxFull(t *testing.T) {
	k := NewKafka([]string{"localhost:9092"}, "shop.events", 1, zap.NewNop())

	k.Notify(context.Background(), event.Event{Type: event.OrderPlaced, OrderID: "o1"})
	k.Notify(context.Background(), event.Event{Type: event.OrderPlaced, OrderID: "o2"})

	require.Len(t, k.inbox, 1)
	msg := <-k.inbox
	assert.Equal(t, "o1", string(msg.Key), "first event kept, second dropped")
}
