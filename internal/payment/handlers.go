package payment

import (
	"context"
	"fmt"
	"log"

	"github.com/hakkisagdic/otokoc-demo/internal/bus"
	"github.com/hakkisagdic/otokoc-demo/internal/events"
)

// OrderCancelledHandler refunds the order's completed payment, if any. This
// is the payment leg of the cancellation compensation.
func OrderCancelledHandler(proc *Processor, logger *log.Logger) bus.HandlerFunc {
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

		reason := ev.Reason
		if reason == "" {
			reason = "order cancelled"
		}
		return proc.RefundForOrder(ctx, ev.OrderID, reason)
	}
}
