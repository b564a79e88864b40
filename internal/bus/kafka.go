package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/segmentio/kafka-go"
)

// KafkaBus is an alternative driver keyed by topic. Offsets are committed
// only after the handler succeeds.
type KafkaBus struct {
	brokers  []string
	producer string
	logger   *log.Logger

	mu      sync.Mutex
	writers map[string]*kafka.Writer
}

func NewKafkaBus(brokers []string, producer string, logger *log.Logger) *KafkaBus {
	return &KafkaBus{
		brokers:  brokers,
		producer: producer,
		logger:   logger,
		writers:  make(map[string]*kafka.Writer),
	}
}

func (b *KafkaBus) writer(topic string) *kafka.Writer {
	b.mu.Lock()
	defer b.mu.Unlock()

	w, ok := b.writers[topic]
	if !ok {
		w = &kafka.Writer{
			Addr:         kafka.TCP(b.brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		}
		b.writers[topic] = w
	}
	return w
}

func (b *KafkaBus) Publish(ctx context.Context, topic string, payload any, meta Meta) error {
	env, err := NewEnvelope(topic, b.producer, payload, meta)
	if err != nil {
		return err
	}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s envelope: %w", topic, err)
	}

	msg := kafka.Message{Value: body}
	if meta.CorrelationID != "" {
		msg.Key = []byte(meta.CorrelationID)
	}
	if err := b.writer(topic).WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s: %w", topic, err)
	}
	return nil
}

func (b *KafkaBus) Subscribe(ctx context.Context, topic, consumer string, h HandlerFunc) error {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        b.brokers,
		GroupID:        consumer,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
	})

	go func() {
		defer r.Close()
		for {
			m, err := r.FetchMessage(ctx)
			if err != nil {
				select {
				case <-ctx.Done():
				default:
					b.logger.Printf("fetch %s: %v", topic, err)
				}
				return
			}
			if err := h(ctx, m.Value); err != nil {
				b.logger.Printf("handle %s: %v", topic, err)
				continue // offset not committed; message will be redelivered
			}
			if err := r.CommitMessages(ctx, m); err != nil {
				b.logger.Printf("commit %s: %v", topic, err)
			}
		}
	}()

	return nil
}

func (b *KafkaBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, w := range b.writers {
		_ = w.Close()
	}
	return nil
}
