package inventory

import "time"

// Record tracks one product's physical stock and the portion earmarked for
// in-flight orders. Invariant: 0 <= Reserved <= Quantity.
type Record struct {
	ProductID    string    `json:"productId"`
	Quantity     int       `json:"quantity"`
	Reserved     int       `json:"reserved"`
	Location     string    `json:"location"`
	ReorderLevel int       `json:"reorderLevel"`
	LastUpdated  time.Time `json:"lastUpdated"`
}

// Available is the stock not yet promised to any order.
func (r Record) Available() int {
	return r.Quantity - r.Reserved
}

type Line struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type ReservationState string

const (
	ReservationReserved  ReservationState = "reserved"
	ReservationReleased  ReservationState = "released"
	ReservationFulfilled ReservationState = "fulfilled"
)

// Reservation records the lines held for one order. It is the unit of
// compensation (release on cancel) and of replay detection (fulfillment of an
// already-fulfilled reservation is a no-op).
type Reservation struct {
	OrderID   string           `json:"orderId"`
	Lines     []Line           `json:"lines"`
	State     ReservationState `json:"state"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}
