// Package events defines the topics and payload contracts shared by the
// saga, ledger, payment, and notification consumers.
package events

import "time"

const (
	TopicOrderCreated      = "order-created"
	TopicOrderCancelled    = "order-cancelled"
	TopicOrderShipped      = "order-shipped"
	TopicPaymentCompleted  = "payment-completed"
	TopicPaymentFailed     = "payment-failed"
	TopicReserveInventory  = "reserve-inventory"
	TopicInventoryReserved = "inventory-reserved"
	TopicInventoryReleased = "inventory-released"
	TopicInventoryUpdated  = "inventory-updated"
	TopicReorderNeeded     = "reorder-needed"
)

// OrderLine is the product/quantity pair carried by order-scoped events.
type OrderLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type OrderCreated struct {
	OrderID     string      `json:"orderId"`
	UserID      string      `json:"userId"`
	TotalAmount float64     `json:"totalAmount"`
	Items       []OrderLine `json:"items"`
	Timestamp   time.Time   `json:"timestamp"`
}

type OrderCancelled struct {
	OrderID   string    `json:"orderId"`
	UserID    string    `json:"userId"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

type OrderShipped struct {
	OrderID   string      `json:"orderId"`
	UserID    string      `json:"userId"`
	Items     []OrderLine `json:"items"`
	Timestamp time.Time   `json:"timestamp"`
}

type PaymentCompleted struct {
	PaymentID string    `json:"paymentId"`
	OrderID   string    `json:"orderId"`
	Amount    float64   `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

type PaymentFailed struct {
	OrderID   string    `json:"orderId"`
	UserID    string    `json:"userId"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

type ReserveInventory struct {
	OrderID string      `json:"orderId"`
	Items   []OrderLine `json:"items"`
}

type InventoryReserved struct {
	ProductID          string `json:"productId"`
	Quantity           int    `json:"quantity"`
	OrderID            string `json:"orderId"`
	RemainingAvailable int    `json:"remainingAvailable"`
}

type InventoryReleased struct {
	ProductID string    `json:"productId"`
	Quantity  int       `json:"quantity"`
	OrderID   string    `json:"orderId"`
	Timestamp time.Time `json:"timestamp"`
}

type InventoryUpdated struct {
	ProductID    string    `json:"productId"`
	Quantity     int       `json:"quantity"`
	Reserved     int       `json:"reserved"`
	Location     string    `json:"location"`
	ReorderLevel int       `json:"reorderLevel"`
	Timestamp    time.Time `json:"timestamp"`
}

type ReorderNeeded struct {
	ProductID                string `json:"productId"`
	CurrentQuantity          int    `json:"currentQuantity"`
	ReorderLevel             int    `json:"reorderLevel"`
	SuggestedReorderQuantity int    `json:"suggestedReorderQuantity"`
}
