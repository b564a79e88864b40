package inventory

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/hakkisagdic/otokoc-demo/internal/bus"
	"github.com/hakkisagdic/otokoc-demo/internal/events"
)

// ReserveInventoryHandler reserves stock for an order. An insufficient-stock
// outcome is a business result, not a delivery failure: it is logged and the
// message is acked so it will not be redelivered.
func ReserveInventoryHandler(ledger *Ledger, logger *log.Logger) bus.HandlerFunc {
	return func(ctx context.Context, body []byte) error {
		env, err := bus.ParseEnvelope(body)
		if err != nil {
			return err
		}

		var ev events.ReserveInventory
		if err := env.DecodePayload(&ev); err != nil {
			return err
		}
		if ev.OrderID == "" {
			return fmt.Errorf("reserve-inventory missing orderId")
		}

		lines := make([]Line, 0, len(ev.Items))
		for _, it := range ev.Items {
			if it.ProductID == "" || it.Quantity <= 0 {
				continue
			}
			lines = append(lines, Line{ProductID: it.ProductID, Quantity: it.Quantity})
		}

		if err := ledger.ReserveOrder(ctx, ev.OrderID, lines); err != nil {
			var short *InsufficientStockError
			if errors.As(err, &short) || errors.Is(err, ErrNotFound) {
				logger.Printf("reservation rejected for order %s: %v", ev.OrderID, err)
				return nil
			}
			return err
		}
		return nil
	}
}

// OrderShippedHandler converts the order's reservation into a permanent
// stock decrement.
func OrderShippedHandler(ledger *Ledger, logger *log.Logger) bus.HandlerFunc {
	return func(ctx context.Context, body []byte) error {
		env, err := bus.ParseEnvelope(body)
		if err != nil {
			return err
		}

		var ev events.OrderShipped
		if err := env.DecodePayload(&ev); err != nil {
			return err
		}
		if ev.OrderID == "" {
			return fmt.Errorf("order-shipped missing orderId")
		}

		return ledger.FulfillOrder(ctx, ev.OrderID)
	}
}

// OrderCancelledHandler releases any reservation still held for the order.
func OrderCancelledHandler(ledger *Ledger, logger *log.Logger) bus.HandlerFunc {
	return func(ctx context.Context, body []byte) error {
		env, err := bus.ParseEnvelope(body)
		if err != nil {
			return err
		}

		var ev events.OrderCancelled
		if err := env.DecodePayload(&ev); err != nil {
			return err
		}
		if ev.OrderID == "" {
			return fmt.Errorf("order-cancelled missing orderId")
		}

		return ledger.ReleaseOrder(ctx, ev.OrderID)
	}
}
