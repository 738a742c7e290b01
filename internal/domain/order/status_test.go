package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition_FromProcessing(t *testing.T) {
	assert.True(t, CanTransition(StatusProcessing, StatusShipped))
	assert.True(t, CanTransition(StatusProcessing, StatusCancelled))

	// No skipping ahead.
	assert.False(t, CanTransition(StatusProcessing, StatusDelivered))
	assert.False(t, CanTransition(StatusProcessing, StatusReturned))
	assert.False(t, CanTransition(StatusProcessing, StatusRefunded))
}

func TestCanTransition_FromShipped(t *testing.T) {
	assert.True(t, CanTransition(StatusShipped, StatusDelivered))
	assert.True(t, CanTransition(StatusShipped, StatusReturned))
	assert.True(t, CanTransition(StatusShipped, StatusRefunded))

	assert.False(t, CanTransition(StatusShipped, StatusProcessing))
}

func TestCanTransition_NoWayBackToProcessing(t *testing.T) {
	for _, from := range []Status{StatusShipped, StatusCancelled, StatusDelivered, StatusReturned, StatusRefunded} {
		assert.False(t, CanTransition(from, StatusProcessing), "from %s", from)
	}
}

func TestCanTransition_CancelledCanOnlyRefund(t *testing.T) {
	assert.True(t, CanTransition(StatusCancelled, StatusRefunded))
	assert.False(t, CanTransition(StatusCancelled, StatusShipped))
	assert.False(t, CanTransition(StatusCancelled, StatusDelivered))
	assert.False(t, CanTransition(StatusCancelled, StatusCancelled))
}

func TestCanTransition_TerminalStates(t *testing.T) {
	for _, terminal := range []Status{StatusDelivered, StatusReturned, StatusRefunded} {
		assert.True(t, terminal.Terminal())
		for _, to := range []Status{StatusProcessing, StatusShipped, StatusCancelled, StatusDelivered, StatusReturned, StatusRefunded} {
			assert.False(t, CanTransition(terminal, to), "%s -> %s", terminal, to)
		}
	}
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusProcessing.Valid())
	assert.True(t, StatusRefunded.Valid())
	assert.False(t, Status("pending").Valid())
	assert.False(t, Status("").Valid())
}

func TestInvalidTransitionError_Message(t *testing.T) {
	err := &InvalidTransitionError{From: StatusProcessing, To: StatusDelivered}
	assert.Equal(t, "invalid order status transition processing -> delivered", err.Error())
}
