/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package broker wraps the message-transport layer C4 publishes to and C5
// consumes from. It is an out-of-pack dependency (github.com/rabbitmq/
// amqp091-go) grounded in original_source/communicator/src/rabbitmq.rs and
// games-agent/src/main.rs's lapin usage - see DESIGN.md for why no example
// repo in the pack supplied an AMQP idiom to imitate directly.
package broker

import "context"

// Delivery is one consumed message, with an optional ReplyTo for the
// request/reply pattern game-created uses (§6).
type Delivery struct {
	Body    []byte
	ReplyTo string
}

// Handler processes one delivery. Returning an error nacks the message;
// returning nil acks it.
type Handler func(ctx context.Context, d Delivery) error

// Broker is the minimal publish/consume/reply surface every queue in §6
// needs.
type Broker interface {
	// Publish sends body on queue.
	Publish(ctx context.Context, queue string, body []byte) error
	// Consume registers handler on queue and runs until ctx is cancelled.
	Consume(ctx context.Context, queue string, handler Handler) error
	// Reply publishes body to the given reply-to address, used by the
	// game-created request/response queue (§6).
	Reply(ctx context.Context, replyTo string, body []byte) error
	Close() error
}
