package audit

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPSink publishes entries as JSON to a RabbitMQ topic exchange, routed by
// "<action>.<status>", e.g. "reservation.submit.error".
type AMQPSink struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// NewAMQPSink dials RabbitMQ and declares a durable topic exchange.
func NewAMQPSink(url, exchange string) (*AMQPSink, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQPSink{conn: conn, ch: ch, exchange: exchange}, nil
}

// Write publishes the entry.
func (s *AMQPSink) Write(ctx context.Context, e Entry) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode audit entry: %w", err)
	}
	return s.ch.PublishWithContext(ctx, s.exchange, RoutingKey(e), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    e.ID,
		Timestamp:    e.At,
		Body:         body,
	})
}

// RoutingKey returns the topic an entry is published under.
func RoutingKey(e Entry) string {
	return e.Action + "." + e.Status
}

// Close closes the channel and connection.
func (s *AMQPSink) Close() error {
	if s.ch != nil {
		_ = s.ch.Close()
	}
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
