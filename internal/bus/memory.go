package bus

import (
	"context"
	"encoding/json"
	"log"
	"sync"
)

// MemoryBus dispatches synchronously within the process. It is used by tests
// and local single-binary runs. Handler errors are logged, matching the
// no-dead-letter policy of the real drivers.
type MemoryBus struct {
	producer string
	logger   *log.Logger

	mu          sync.Mutex
	subscribers map[string][]memorySubscriber
	published   []Envelope
}

type memorySubscriber struct {
	consumer string
	handler  HandlerFunc
}

func NewMemoryBus(producer string, logger *log.Logger) *MemoryBus {
	return &MemoryBus{
		producer:    producer,
		logger:      logger,
		subscribers: make(map[string][]memorySubscriber),
	}
}

func (b *MemoryBus) Publish(ctx context.Context, topic string, payload any, meta Meta) error {
	env, err := NewEnvelope(topic, b.producer, payload, meta)
	if err != nil {
		return err
	}
	body, err := json.Marshal(env)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.published = append(b.published, env)
	subs := make([]memorySubscriber, len(b.subscribers[topic]))
	copy(subs, b.subscribers[topic])
	b.mu.Unlock()

	// Dispatch outside the lock: handlers may publish follow-up events.
	for _, sub := range subs {
		if err := sub.handler(ctx, body); err != nil {
			b.logger.Printf("handler error consumer=%s topic=%s: %v", sub.consumer, topic, err)
		}
	}
	return nil
}

func (b *MemoryBus) Subscribe(ctx context.Context, topic, consumer string, h HandlerFunc) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[topic] = append(b.subscribers[topic], memorySubscriber{consumer: consumer, handler: h})
	return nil
}

// Published returns a copy of every envelope published so far, in order.
func (b *MemoryBus) Published() []Envelope {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Envelope, len(b.published))
	copy(out, b.published)
	return out
}

// PublishedOn filters Published by topic.
func (b *MemoryBus) PublishedOn(topic string) []Envelope {
	var out []Envelope
	for _, env := range b.Published() {
		if env.EventName == topic {
			out = append(out, env)
		}
	}
	return out
}
