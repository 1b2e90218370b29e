/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package brokertest provides an in-memory broker.Broker for unit tests.
package brokertest

import (
	"context"
	"sync"

	"github.com/Seednode/matchfabric/internal/broker"
)

// Broker is an in-process broker.Broker backed by buffered channels (256
// messages per queue, one per reply-to address).
type Broker struct {
	mu      sync.Mutex
	queues  map[string]chan broker.Delivery
	replies map[string]chan broker.Delivery
}

func New() *Broker {
	return &Broker{
		queues:  make(map[string]chan broker.Delivery),
		replies: make(map[string]chan broker.Delivery),
	}
}

func (b *Broker) queueFor(name string) chan broker.Delivery {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, ok := b.queues[name]
	if !ok {
		ch = make(chan broker.Delivery, 256)
		b.queues[name] = ch
	}

	return ch
}

func (b *Broker) Publish(_ context.Context, queue string, body []byte) error {
	b.queueFor(queue) <- broker.Delivery{Body: body}

	return nil
}

// PublishWithReply publishes body to queue carrying a reply-to address the
// test can read back from via AwaitReply.
func (b *Broker) PublishWithReply(_ context.Context, queue, replyTo string, body []byte) error {
	b.mu.Lock()
	if _, ok := b.replies[replyTo]; !ok {
		b.replies[replyTo] = make(chan broker.Delivery, 1)
	}
	b.mu.Unlock()

	b.queueFor(queue) <- broker.Delivery{Body: body, ReplyTo: replyTo}

	return nil
}

func (b *Broker) Reply(_ context.Context, replyTo string, body []byte) error {
	b.mu.Lock()
	ch, ok := b.replies[replyTo]
	if !ok {
		ch = make(chan broker.Delivery, 1)
		b.replies[replyTo] = ch
	}
	b.mu.Unlock()

	ch <- broker.Delivery{Body: body}

	return nil
}

// AwaitReply blocks until a Reply for replyTo is published.
func (b *Broker) AwaitReply(replyTo string) broker.Delivery {
	b.mu.Lock()
	ch, ok := b.replies[replyTo]
	if !ok {
		ch = make(chan broker.Delivery, 1)
		b.replies[replyTo] = ch
	}
	b.mu.Unlock()

	return <-ch
}

func (b *Broker) Consume(ctx context.Context, queue string, handler broker.Handler) error {
	ch := b.queueFor(queue)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d := <-ch:
			if err := handler(ctx, d); err != nil {
				continue
			}
		}
	}
}

func (b *Broker) Close() error { return nil }

// Pop blocks until one message has been published to queue and returns it,
// letting a test assert on a publish without running a full Consume loop.
func (b *Broker) Pop(queue string) broker.Delivery {
	return <-b.queueFor(queue)
}

// TryPop reports whether a message is already waiting on queue, without
// blocking, for tests asserting that a publish did NOT happen.
func (b *Broker) TryPop(queue string) (broker.Delivery, bool) {
	select {
	case d := <-b.queueFor(queue):
		return d, true
	default:
		return broker.Delivery{}, false
	}
}
