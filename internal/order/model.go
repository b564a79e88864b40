package order

import "time"

type Item struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	LineTotal float64 `json:"lineTotal"`
}

// StatusNote is one entry in the append-only status log.
type StatusNote struct {
	Status    Status    `json:"status"`
	Note      string    `json:"note"`
	Timestamp time.Time `json:"timestamp"`
}

// Order is the saga's root entity. TotalAmount is frozen at creation and
// never recomputed from live prices. Orders are never deleted; terminal
// states are retained for audit.
type Order struct {
	ID                 string       `json:"orderId"`
	UserID             string       `json:"userId"`
	Items              []Item       `json:"items"`
	TotalAmount        float64      `json:"totalAmount"`
	Status             Status       `json:"status"`
	ShippingAddress    string       `json:"shippingAddress"`
	PaymentMethod      string       `json:"paymentMethod"`
	PaymentID          string       `json:"paymentId,omitempty"`
	CancellationReason string       `json:"cancellationReason,omitempty"`
	StatusNotes        []StatusNote `json:"statusNotes"`
	CreatedAt          time.Time    `json:"createdAt"`
	UpdatedAt          time.Time    `json:"updatedAt"`
	PaidAt             *time.Time   `json:"paidAt,omitempty"`
	ShippedAt          *time.Time   `json:"shippedAt,omitempty"`
	CancelledAt        *time.Time   `json:"cancelledAt,omitempty"`
}

func (o *Order) appendNote(status Status, note string, at time.Time) {
	o.StatusNotes = append(o.StatusNotes, StatusNote{Status: status, Note: note, Timestamp: at})
}

func (o *Order) setStatus(status Status, note string) {
	now := time.Now().UTC()
	o.Status = status
	o.UpdatedAt = now
	o.appendNote(status, note, now)
}
