/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package broker

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Seednode/matchfabric/internal/logging"
)

// reconnectBackoff is the fixed 5s retry interval §5 mandates for broker
// connection failures: "retries with fixed 5 s backoff indefinitely until
// connected".
const reconnectBackoff = 5 * time.Second

// AMQPBroker is the production Broker, backed by RabbitMQ.
type AMQPBroker struct {
	url    string
	logger *logging.Logger

	conn *amqp.Connection
	ch   *amqp.Channel
}

// Dial connects to url, retrying with reconnectBackoff until ctx is
// cancelled or a connection succeeds.
func Dial(ctx context.Context, url string, logger *logging.Logger) (*AMQPBroker, error) {
	b := &AMQPBroker{url: url, logger: logger}

	for {
		err := b.connect()
		if err == nil {
			return b, nil
		}
		logger.Errorf("amqp dial: %v, retrying in %s", err, reconnectBackoff)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(reconnectBackoff):
		}
	}
}

func (b *AMQPBroker) connect() error {
	conn, err := amqp.Dial(b.url)
	if err != nil {
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return err
	}

	b.conn = conn
	b.ch = ch

	return nil
}

func (b *AMQPBroker) declare(queue string) error {
	_, err := b.ch.QueueDeclare(queue, true, false, false, false, nil)
	return err
}

func (b *AMQPBroker) Publish(ctx context.Context, queue string, body []byte) error {
	if err := b.declare(queue); err != nil {
		return fmt.Errorf("declare queue %s: %w", queue, err)
	}

	return b.ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}

func (b *AMQPBroker) Reply(ctx context.Context, replyTo string, body []byte) error {
	return b.ch.PublishWithContext(ctx, "", replyTo, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}

// Consume declares queue and spawns handler once per delivery, matching
// games-agent/src/main.rs's listen_for_* functions (tokio::spawn per
// delivery, ack on success, nack otherwise).
func (b *AMQPBroker) Consume(ctx context.Context, queue string, handler Handler) error {
	if err := b.declare(queue); err != nil {
		return fmt.Errorf("declare queue %s: %w", queue, err)
	}

	deliveries, err := b.ch.ConsumeWithContext(ctx, queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume queue %s: %w", queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}

			go func(d amqp.Delivery) {
				err := handler(ctx, Delivery{Body: d.Body, ReplyTo: d.ReplyTo})
				if err != nil {
					b.logger.Errorf("handle delivery on %s: %v", queue, err)
					_ = d.Nack(false, false)
					return
				}
				_ = d.Ack(false)
			}(d)
		}
	}
}

func (b *AMQPBroker) Close() error {
	if b.ch != nil {
		_ = b.ch.Close()
	}
	if b.conn != nil {
		return b.conn.Close()
	}
	return nil
}
