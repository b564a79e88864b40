package order

import (
	"errors"
	"fmt"
)

// ErrInvalidUser is returned when the user named on an order intake does not
// exist. Nothing is persisted in that case.
var ErrInvalidUser = errors.New("order: user not found")

// ValidationError rejects malformed intake before anything is persisted.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid order: " + e.Reason
}

// InsufficientStockError names the first product whose requested quantity
// exceeded availability. The entire order is rejected; there are no partial
// orders.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// InvalidStateError reports an operation attempted against an order whose
// current status does not permit it.
type InvalidStateError struct {
	OrderID   string
	Status    Status
	Operation string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("order %s: cannot %s in status %s", e.OrderID, e.Operation, e.Status)
}
