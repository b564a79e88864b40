package inventory

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("inventory: product not found")

type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

type OverReleaseError struct {
	ProductID string
	Requested int
	Reserved  int
}

func (e *OverReleaseError) Error() string {
	return fmt.Sprintf("cannot release %d of product %s: only %d reserved",
		e.Requested, e.ProductID, e.Reserved)
}

type OverFulfillError struct {
	ProductID string
	Requested int
	Reserved  int
}

func (e *OverFulfillError) Error() string {
	return fmt.Sprintf("cannot fulfill %d of product %s: only %d reserved",
		e.Requested, e.ProductID, e.Reserved)
}

// InvariantError reports an administrative adjustment that would leave
// reserved stock exceeding on-hand quantity.
type InvariantError struct {
	ProductID string
	Quantity  int
	Reserved  int
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("product %s: quantity %d below reserved %d",
		e.ProductID, e.Quantity, e.Reserved)
}
