package notification

import (
	"context"
	"fmt"
	"log"

	"github.com/hakkisagdic/otokoc-demo/internal/bus"
	"github.com/hakkisagdic/otokoc-demo/internal/events"
)

// Handlers send customer-facing messages in reaction to order lifecycle
// events. Delivery failures are logged and acked: a missed notification must
// never hold a message in the queue.

func OrderCreatedHandler(d *Dispatcher, logger *log.Logger) bus.HandlerFunc {
	return func(ctx context.Context, body []byte) error {
		env, err := bus.ParseEnvelope(body)
		if err != nil {
			return err
		}

		var ev events.OrderCreated
		if err := env.DecodePayload(&ev); err != nil {
			return err
		}

		subject := "Order received"
		content := fmt.Sprintf("Your order %s for %.2f has been received.", ev.OrderID, ev.TotalAmount)
		if _, err := d.Dispatch(ctx, TypeEmail, ev.UserID, subject, content); err != nil {
			logger.Printf("notify order-created %s: %v", ev.OrderID, err)
		}
		return nil
	}
}

func OrderShippedHandler(d *Dispatcher, logger *log.Logger) bus.HandlerFunc {
	return func(ctx context.Context, body []byte) error {
		env, err := bus.ParseEnvelope(body)
		if err != nil {
			return err
		}

		var ev events.OrderShipped
		if err := env.DecodePayload(&ev); err != nil {
			return err
		}

		subject := "Order shipped"
		content := fmt.Sprintf("Your order %s is on its way.", ev.OrderID)
		if _, err := d.Dispatch(ctx, TypeEmail, ev.UserID, subject, content); err != nil {
			logger.Printf("notify order-shipped %s: %v", ev.OrderID, err)
		}
		return nil
	}
}

func OrderCancelledHandler(d *Dispatcher, logger *log.Logger) bus.HandlerFunc {
	return func(ctx context.Context, body []byte) error {
		env, err := bus.ParseEnvelope(body)
		if err != nil {
			return err
		}

		var ev events.OrderCancelled
		if err := env.DecodePayload(&ev); err != nil {
			return err
		}

		subject := "Order cancelled"
		content := fmt.Sprintf("Your order %s was cancelled: %s.", ev.OrderID, ev.Reason)
		if _, err := d.Dispatch(ctx, TypeEmail, ev.UserID, subject, content); err != nil {
			logger.Printf("notify order-cancelled %s: %v", ev.OrderID, err)
		}
		return nil
	}
}

func PaymentFailedHandler(d *Dispatcher, logger *log.Logger) bus.HandlerFunc {
	return func(ctx context.Context, body []byte) error {
		env, err := bus.ParseEnvelope(body)
		if err != nil {
			return err
		}

		var ev events.PaymentFailed
		if err := env.DecodePayload(&ev); err != nil {
			return err
		}

		subject := "Payment failed"
		content := fmt.Sprintf("Payment for order %s failed: %s. Please try again.", ev.OrderID, ev.Reason)
		if _, err := d.Dispatch(ctx, TypeInApp, ev.UserID, subject, content); err != nil {
			logger.Printf("notify payment-failed %s: %v", ev.OrderID, err)
		}
		return nil
	}
}
