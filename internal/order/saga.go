package order

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/hakkisagdic/otokoc-demo/internal/bus"
	"github.com/hakkisagdic/otokoc-demo/internal/catalog"
	"github.com/hakkisagdic/otokoc-demo/internal/events"
	"github.com/hakkisagdic/otokoc-demo/internal/payment"
)

// Catalog is the subset of the catalog client the saga validates against.
type Catalog interface {
	GetUser(ctx context.Context, userID string) (*catalog.User, error)
	GetProduct(ctx context.Context, productID string) (*catalog.Product, error)
}

// PaymentAuthorizer is the synchronous payment dependency.
type PaymentAuthorizer interface {
	Authorize(ctx context.Context, orderID string, amount float64, method string, card payment.CardDetails) (*payment.Payment, error)
}

// Saga drives an order from intake to a terminal state. Synchronous calls
// (intake validation, payment) mutate state directly; everything downstream
// advances through consumed events. Each step commits independently: the
// flow is a sequence of local transactions, not one distributed one.
type Saga struct {
	repo     Repository
	catalog  Catalog
	payments PaymentAuthorizer
	bus      bus.Bus
	logger   *log.Logger
}

func NewSaga(repo Repository, cat Catalog, payments PaymentAuthorizer, b bus.Bus, logger *log.Logger) *Saga {
	return &Saga{repo: repo, catalog: cat, payments: payments, bus: b, logger: logger}
}

type RequestedItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type CreateOrderRequest struct {
	UserID          string          `json:"userId"`
	Items           []RequestedItem `json:"items"`
	ShippingAddress string          `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
}

// CreateOrder validates the user and every line's availability, freezes the
// live prices into the order, persists it as Pending and announces it.
// Validation failures leave nothing behind.
func (s *Saga) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, &ValidationError{Reason: "order has no items"}
	}
	for _, it := range req.Items {
		if it.ProductID == "" {
			return nil, &ValidationError{Reason: "item missing productId"}
		}
		if it.Quantity <= 0 {
			return nil, &ValidationError{Reason: fmt.Sprintf("item %s: quantity must be positive", it.ProductID)}
		}
	}

	if _, err := s.catalog.GetUser(ctx, req.UserID); err != nil {
		if errors.Is(err, catalog.ErrUserNotFound) {
			return nil, ErrInvalidUser
		}
		return nil, fmt.Errorf("validate user %s: %w", req.UserID, err)
	}

	now := time.Now().UTC()
	o := &Order{
		ID:              uuid.NewString(),
		UserID:          req.UserID,
		Status:          StatusPending,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	for _, it := range req.Items {
		p, err := s.catalog.GetProduct(ctx, it.ProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrProductNotFound) {
				return nil, &ValidationError{Reason: fmt.Sprintf("unknown product %s", it.ProductID)}
			}
			return nil, fmt.Errorf("validate product %s: %w", it.ProductID, err)
		}
		if it.Quantity > p.Available {
			return nil, &InsufficientStockError{ProductID: it.ProductID, Requested: it.Quantity, Available: p.Available}
		}
		line := Item{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: p.Price,
			LineTotal: p.Price * float64(it.Quantity),
		}
		o.Items = append(o.Items, line)
		o.TotalAmount += line.LineTotal
	}

	o.appendNote(StatusPending, "order created", now)
	if err := s.repo.Save(ctx, o); err != nil {
		return nil, err
	}

	s.publish(ctx, events.TopicOrderCreated, events.OrderCreated{
		OrderID:     o.ID,
		UserID:      o.UserID,
		TotalAmount: o.TotalAmount,
		Items:       eventLines(o.Items),
		Timestamp:   now,
	}, o.ID)

	s.logger.Printf("created order %s for user %s total=%.2f", o.ID, o.UserID, o.TotalAmount)
	return o, nil
}

// ProcessPayment authorizes payment for a Pending order. On approval the
// order moves to Confirmed and payment-completed is published. On decline the
// order stays Pending so the caller may retry with different details.
func (s *Saga) ProcessPayment(ctx context.Context, orderID string, card payment.CardDetails) (*Order, *payment.Payment, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if o.Status != StatusPending {
		return o, nil, &InvalidStateError{OrderID: o.ID, Status: o.Status, Operation: "process payment"}
	}

	p, err := s.payments.Authorize(ctx, o.ID, o.TotalAmount, o.PaymentMethod, card)
	if err != nil {
		var declined *payment.DeclinedError
		if errors.As(err, &declined) {
			s.publish(ctx, events.TopicPaymentFailed, events.PaymentFailed{
				OrderID:   o.ID,
				UserID:    o.UserID,
				Reason:    declined.Reason,
				Timestamp: time.Now().UTC(),
			}, o.ID)
			s.logger.Printf("payment declined for order %s: %s", o.ID, declined.Reason)
		}
		return o, p, err
	}

	now := time.Now().UTC()
	o.PaymentID = p.ID
	o.PaidAt = &now
	o.setStatus(StatusConfirmed, "payment "+p.ID+" completed")
	if err := s.repo.Save(ctx, o); err != nil {
		return nil, nil, err
	}

	s.publish(ctx, events.TopicPaymentCompleted, events.PaymentCompleted{
		PaymentID: p.ID,
		OrderID:   o.ID,
		Amount:    p.Amount,
		Timestamp: now,
	}, o.ID)

	return o, p, nil
}

// HandlePaymentCompleted advances Confirmed -> Processing and requests the
// inventory reservation. Re-delivery for an order past Confirmed is a no-op.
func (s *Saga) HandlePaymentCompleted(ctx context.Context, orderID string) error {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if o.Status != StatusConfirmed {
		s.logger.Printf("skip payment-completed for order %s in status %s", o.ID, o.Status)
		return nil
	}

	o.setStatus(StatusProcessing, "reserving inventory")
	if err := s.repo.Save(ctx, o); err != nil {
		return err
	}

	s.publish(ctx, events.TopicReserveInventory, events.ReserveInventory{
		OrderID: o.ID,
		Items:   eventLines(o.Items),
	}, o.ID)
	return nil
}

// HandleInventoryReserved advances Processing -> Shipped once reservation is
// confirmed. The reservation events arrive per product; only the first one
// moves the order, the rest are no-ops.
func (s *Saga) HandleInventoryReserved(ctx context.Context, orderID string) error {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if o.Status != StatusProcessing {
		s.logger.Printf("skip inventory-reserved for order %s in status %s", o.ID, o.Status)
		return nil
	}

	now := time.Now().UTC()
	o.ShippedAt = &now
	o.setStatus(StatusShipped, "inventory reserved, order shipped")
	if err := s.repo.Save(ctx, o); err != nil {
		return err
	}

	s.publish(ctx, events.TopicOrderShipped, events.OrderShipped{
		OrderID:   o.ID,
		UserID:    o.UserID,
		Items:     eventLines(o.Items),
		Timestamp: now,
	}, o.ID)
	return nil
}

// UpdateStatus is the administrative escape hatch (e.g. marking Delivered).
// It appends to the status log but deliberately bypasses the state machine.
func (s *Saga) UpdateStatus(ctx context.Context, orderID string, status Status, note string) (*Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	o.setStatus(status, note)
	if err := s.repo.Save(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// CancelOrder marks a pre-shipment order Cancelled and publishes the
// compensation trigger. Inventory release and payment refund happen as
// reactions to the event; the saga does not know whether those steps ran.
func (s *Saga) CancelOrder(ctx context.Context, orderID, reason string) (*Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.Status.Cancellable() {
		return o, &InvalidStateError{OrderID: o.ID, Status: o.Status, Operation: "cancel"}
	}

	now := time.Now().UTC()
	o.CancellationReason = reason
	o.CancelledAt = &now
	o.setStatus(StatusCancelled, "cancelled: "+reason)
	if err := s.repo.Save(ctx, o); err != nil {
		return nil, err
	}

	s.publish(ctx, events.TopicOrderCancelled, events.OrderCancelled{
		OrderID:   o.ID,
		UserID:    o.UserID,
		Reason:    reason,
		Timestamp: now,
	}, o.ID)

	s.logger.Printf("cancelled order %s: %s", o.ID, reason)
	return o, nil
}

// publish is best-effort after the local state is committed: a failed publish
// is logged, never rolled back. A lost event can strand an order in a
// non-terminal state; re-publication is an operational concern.
func (s *Saga) publish(ctx context.Context, topic string, payload any, orderID string) {
	if err := s.bus.Publish(ctx, topic, payload, bus.Meta{CorrelationID: orderID}); err != nil {
		s.logger.Printf("publish %s for order %s: %v", topic, orderID, err)
	}
}

func eventLines(items []Item) []events.OrderLine {
	lines := make([]events.OrderLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, events.OrderLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return lines
}
