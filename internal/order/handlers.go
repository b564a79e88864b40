package order

import (
	"context"
	"fmt"
	"log"

	"github.com/hakkisagdic/otokoc-demo/internal/bus"
	"github.com/hakkisagdic/otokoc-demo/internal/events"
)

// PaymentCompletedHandler returns the handler for payment-completed events.
func PaymentCompletedHandler(saga *Saga, logger *log.Logger) bus.HandlerFunc {
	return func(ctx context.Context, body []byte) error {
		env, err := bus.ParseEnvelope(body)
		if err != nil {
			return err
		}

		var ev events.PaymentCompleted
		if err := env.DecodePayload(&ev); err != nil {
			return err
		}
		if ev.OrderID == "" {
			return fmt.Errorf("payment-completed missing orderId")
		}

		if err := saga.HandlePaymentCompleted(ctx, ev.OrderID); err != nil {
			return fmt.Errorf("advance order %s on payment-completed: %w", ev.OrderID, err)
		}
		return nil
	}
}

// InventoryReservedHandler returns the handler for inventory-reserved events.
func InventoryReservedHandler(saga *Saga, logger *log.Logger) bus.HandlerFunc {
	return func(ctx context.Context, body []byte) error {
		env, err := bus.ParseEnvelope(body)
		if err != nil {
			return err
		}

		var ev events.InventoryReserved
		if err := env.DecodePayload(&ev); err != nil {
			return err
		}
		if ev.OrderID == "" {
			return fmt.Errorf("inventory-reserved missing orderId")
		}

		if err := saga.HandleInventoryReserved(ctx, ev.OrderID); err != nil {
			return fmt.Errorf("advance order %s on inventory-reserved: %w", ev.OrderID, err)
		}
		return nil
	}
}
