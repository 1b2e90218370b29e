/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package state implements the typed, event-emitting key-value store (C1):
// a field-per-key encoding over a shared database, generic over entity
// kind, with insert/get/update/remove and insert/update/delete
// notifications.
package state

import (
	"context"
	"time"
)

// Backend is the minimal surface Store needs from the shared key/value
// database - narrow enough to fake in unit tests, the same seam idea as
// playpool's GameManager wrapping *redis.Client behind its own methods
// instead of threading the client itself through every caller.
type Backend interface {
	Incr(ctx context.Context, key string) (int64, error)
	Set(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Del(ctx context.Context, keys ...string) error
	ScanKeys(ctx context.Context, pattern string) ([]string, error)
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Pipeline(ctx context.Context, fn func(p Pipeline) error) error
	Publish(ctx context.Context, channel, message string) error
	PSubscribe(ctx context.Context, pattern string) Subscription
	// Expire sets a TTL on key, refreshed per field on insert (§3, §4.1).
	// A zero ttl clears any existing expiration.
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

// Pipeline batches writes so a multi-field entity lands atomically,
// mirroring the original adapter's redis::pipe().atomic() usage inside
// Insertable::insert and Updateable::update.
type Pipeline interface {
	Set(key, value string)
	HSet(key string, fields map[string]string)
	Del(keys ...string)
}

// Subscription is a live pattern-subscribed feed of published messages.
type Subscription interface {
	Channel() <-chan Message
	Close() error
}

// Message is one published value on a subscribed channel pattern.
type Message struct {
	Channel string
	Payload string
}
