/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package statetest provides an in-memory state.Backend for unit tests
// across every component, so none of them need a live redis instance to
// exercise their store interactions.
package statetest

import (
	"context"
	"path"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/Seednode/matchfabric/internal/state"
)

// Backend is an in-memory state.Backend, grounded in celebrity.go's
// mutex-guarded Hub fields rather than a real database client.
type Backend struct {
	mu      sync.Mutex
	strs    map[string]string
	hashes  map[string]map[string]string
	expires map[string]time.Time
	subs    []*sub

	// now is overridable by tests to exercise TTL expiry deterministically
	// (the Searcher/HostRequest TTL boundary) without sleeping real
	// wall-clock time.
	now func() time.Time
}

func NewBackend() *Backend {
	return &Backend{
		strs:    make(map[string]string),
		hashes:  make(map[string]map[string]string),
		expires: make(map[string]time.Time),
		now:     time.Now,
	}
}

// SetClock overrides the backend's notion of "now", for tests simulating
// TTL expiry without real sleeps.
func (b *Backend) SetClock(now func() time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.now = now
}

// expiredLocked reports whether key has an expiry in the past. Callers
// must hold b.mu.
func (b *Backend) expiredLocked(key string) bool {
	exp, ok := b.expires[key]

	return ok && !exp.After(b.now())
}

func (b *Backend) dropExpiredLocked(key string) {
	if b.expiredLocked(key) {
		delete(b.strs, key)
		delete(b.hashes, key)
		delete(b.expires, key)
	}
}

func (b *Backend) Incr(_ context.Context, key string) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n, _ := strconv.ParseInt(b.strs[key], 10, 64)
	n++
	b.strs[key] = strconv.FormatInt(n, 10)

	return n, nil
}

func (b *Backend) Set(_ context.Context, key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.strs[key] = value

	return nil
}

func (b *Backend) Get(_ context.Context, key string) (string, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.dropExpiredLocked(key)
	v, ok := b.strs[key]

	return v, ok, nil
}

func (b *Backend) Del(_ context.Context, keys ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, k := range keys {
		delete(b.strs, k)
		delete(b.hashes, k)
		delete(b.expires, k)
	}

	return nil
}

func (b *Backend) ScanKeys(_ context.Context, pattern string) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for k := range b.strs {
		b.dropExpiredLocked(k)
	}
	for k := range b.hashes {
		b.dropExpiredLocked(k)
	}

	var out []string

	for k := range b.strs {
		if match(pattern, k) {
			out = append(out, k)
		}
	}
	for k := range b.hashes {
		if match(pattern, k) {
			out = append(out, k)
		}
	}

	sort.Strings(out)

	return out, nil
}

func (b *Backend) HSet(_ context.Context, key string, fields map[string]string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.dropExpiredLocked(key)

	h, ok := b.hashes[key]
	if !ok {
		h = make(map[string]string)
		b.hashes[key] = h
	}
	for k, v := range fields {
		h[k] = v
	}

	return nil
}

func (b *Backend) HGetAll(_ context.Context, key string) (map[string]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.dropExpiredLocked(key)

	out := make(map[string]string, len(b.hashes[key]))
	for k, v := range b.hashes[key] {
		out[k] = v
	}

	return out, nil
}

// Expire sets key's TTL, mirroring RedisBackend.Expire: ttl<=0 clears any
// existing expiration instead of deleting the key outright.
func (b *Backend) Expire(_ context.Context, key string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ttl <= 0 {
		delete(b.expires, key)

		return nil
	}

	b.expires[key] = b.now().Add(ttl)

	return nil
}

func (b *Backend) Pipeline(ctx context.Context, fn func(p state.Pipeline) error) error {
	return fn(&pipeline{ctx: ctx, backend: b})
}

func (b *Backend) Publish(_ context.Context, channel, message string) error {
	b.mu.Lock()
	subs := make([]*sub, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, s := range subs {
		if match(s.pattern, channel) {
			select {
			case s.out <- state.Message{Channel: channel, Payload: message}:
			default:
			}
		}
	}

	return nil
}

func (b *Backend) PSubscribe(_ context.Context, pattern string) state.Subscription {
	s := &sub{pattern: pattern, out: make(chan state.Message, 256)}

	b.mu.Lock()
	b.subs = append(b.subs, s)
	b.mu.Unlock()

	return &subscription{sub: s, backend: b}
}

func match(pattern, key string) bool {
	ok, err := path.Match(pattern, key)

	return err == nil && ok
}

type pipeline struct {
	ctx     context.Context
	backend *Backend
}

func (p *pipeline) Set(key, value string) {
	_ = p.backend.Set(p.ctx, key, value)
}

func (p *pipeline) HSet(key string, fields map[string]string) {
	_ = p.backend.HSet(p.ctx, key, fields)
}

func (p *pipeline) Del(keys ...string) {
	_ = p.backend.Del(p.ctx, keys...)
}

type sub struct {
	pattern string
	out     chan state.Message
}

type subscription struct {
	sub     *sub
	backend *Backend
}

func (s *subscription) Channel() <-chan state.Message { return s.sub.out }

func (s *subscription) Close() error {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()

	for i, x := range s.backend.subs {
		if x == s.sub {
			s.backend.subs = append(s.backend.subs[:i], s.backend.subs[i+1:]...)
			break
		}
	}
	close(s.sub.out)

	return nil
}
