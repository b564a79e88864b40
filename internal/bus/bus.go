// Package bus abstracts at-least-once publish/subscribe on named topics.
// Delivery is asynchronous and unordered; handlers must tolerate duplicates
// and out-of-order messages.
package bus

import "context"

// HandlerFunc processes one delivered message. The body is the JSON-encoded
// Envelope. Returning an error rejects the delivery; the message may be
// redelivered depending on the driver.
type HandlerFunc func(ctx context.Context, body []byte) error

// Meta carries correlation metadata stamped onto published envelopes.
type Meta struct {
	CorrelationID string
	CausationID   string
}

type Bus interface {
	Publish(ctx context.Context, topic string, payload any, meta Meta) error
	Subscribe(ctx context.Context, topic, consumer string, h HandlerFunc) error
}
