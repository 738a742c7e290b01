package order

import "fmt"

// Status is the order lifecycle state. Transitions only move forward; there
// is no path back into StatusProcessing.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusCancelled  Status = "cancelled"
	StatusDelivered  Status = "delivered"
	StatusReturned   Status = "returned"
	StatusRefunded   Status = "refunded"
)

// validNext is the full transition table. Delivered, returned, and refunded
// are terminal. A cancelled order can still be refunded.
var validNext = map[Status]map[Status]bool{
	StatusProcessing: {StatusShipped: true, StatusCancelled: true},
	StatusShipped:    {StatusDelivered: true, StatusReturned: true, StatusRefunded: true},
	StatusCancelled:  {StatusRefunded: true},
	StatusDelivered:  {},
	StatusReturned:   {},
	StatusRefunded:   {},
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	_, ok := validNext[s]
	return ok
}

// Terminal reports whether no further transitions are possible from s,
// other than the cancelled → refunded tail.
func (s Status) Terminal() bool {
	return len(validNext[s]) == 0
}

// CanTransition reports whether from → to is an allowed transition.
func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// InvalidTransitionError is returned when a status change is outside the
// allowed transition set. It is never silently coerced.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid order status transition %s -> %s", e.From, e.To)
}
