package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const eventsExchange = "otokoc.events"

// RabbitBus publishes to a topic exchange and consumes from one durable
// queue per consumer/topic pair. Messages are acked only after the handler
// succeeds, so delivery is at-least-once.
type RabbitBus struct {
	conn     *amqp.Connection
	pubCh    *amqp.Channel
	producer string
	logger   *log.Logger
}

func NewRabbitBus(conn *amqp.Connection, producer string, logger *log.Logger) (*RabbitBus, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := declareEventsExchange(ch); err != nil {
		return nil, fmt.Errorf("declare events exchange: %w", err)
	}
	return &RabbitBus{conn: conn, pubCh: ch, producer: producer, logger: logger}, nil
}

func MustDialRabbit(url string) *amqp.Connection {
	conn, err := amqp.Dial(url)
	if err != nil {
		log.Fatalf("connect to RabbitMQ: %v", err)
	}
	return conn
}

func declareEventsExchange(ch *amqp.Channel) error {
	return ch.ExchangeDeclare(
		eventsExchange,
		"topic",
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	)
}

func (b *RabbitBus) Publish(ctx context.Context, topic string, payload any, meta Meta) error {
	env, err := NewEnvelope(topic, b.producer, payload, meta)
	if err != nil {
		return err
	}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s envelope: %w", topic, err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return b.pubCh.PublishWithContext(
		pubCtx,
		eventsExchange,
		topic,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    env.EventID,
			Body:         body,
		},
	)
}

func (b *RabbitBus) Subscribe(ctx context.Context, topic, consumer string, h HandlerFunc) error {
	ch, err := b.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	if err := declareEventsExchange(ch); err != nil {
		return fmt.Errorf("declare events exchange: %w", err)
	}

	queue := consumer + "." + topic
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare %s: %w", queue, err)
	}
	if err := ch.QueueBind(queue, topic, eventsExchange, false, nil); err != nil {
		return fmt.Errorf("bind %s: %w", queue, err)
	}

	msgs, err := ch.Consume(queue, consumer, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", queue, err)
	}

	go func() {
		defer ch.Close()
		for {
			select {
			case <-ctx.Done():
				b.logger.Printf("stopping %s consumer", queue)
				return
			case msg, ok := <-msgs:
				if !ok {
					b.logger.Printf("%s messages channel closed", queue)
					return
				}
				if err := h(ctx, msg.Body); err != nil {
					b.logger.Printf("handle %s: %v", topic, err)
					_ = msg.Nack(false, false) // no dead-letter; dropped after logging
					continue
				}
				_ = msg.Ack(false)
			}
		}
	}()

	return nil
}

func (b *RabbitBus) Close() error {
	return b.pubCh.Close()
}
