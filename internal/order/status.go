package order

import "fmt"

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// transitions holds the forward edges of the lifecycle. Cancellation is
// handled separately via Cancellable.
var transitions = map[Status]Status{
	StatusPending:    StatusConfirmed,
	StatusConfirmed:  StatusProcessing,
	StatusProcessing: StatusShipped,
	StatusShipped:    StatusDelivered,
}

func (s Status) CanTransitionTo(next Status) bool {
	if next == StatusCancelled {
		return s.Cancellable()
	}
	return transitions[s] == next
}

// Cancellable reports whether an order in this status may still be cancelled.
// Shipped goods cannot be recalled through the cancel path.
func (s Status) Cancellable() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusProcessing:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

func ParseStatus(v string) (Status, error) {
	switch Status(v) {
	case StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return Status(v), nil
	}
	return "", fmt.Errorf("unknown order status %q", v)
}
