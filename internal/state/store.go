/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package state

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const eventPrefix = "events"

// Op names a store mutation, embedded in the published event channel.
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Store is a typed view over Backend for one entity kind: it allocates
// monotonic ids via INCR, writes/reads fields through Codec, and publishes
// insert/update/delete events - the Go shape of matchmaking-state's
// RedisAdapter plus its RedisInsertWriter/RedisOutputReader/RedisUpdater
// trait family, collapsed into one generic type per entity.
type Store[T any] struct {
	backend Backend
	codec   Codec[T]
}

func NewStore[T any](backend Backend, codec Codec[T]) *Store[T] {
	return &Store[T]{backend: backend, codec: codec}
}

func (s *Store[T]) Kind() string { return s.codec.Kind() }

func (s *Store[T]) markerKey(id string) string {
	return fmt.Sprintf("%s:%s", id, s.codec.Kind())
}

func (s *Store[T]) fieldKey(id, field string) string {
	return fmt.Sprintf("%s:%s:%s", id, s.codec.Kind(), field)
}

// Insert allocates a new id via INCR, writes every field atomically, and
// publishes an insert event, mirroring Insertable::insert's
// next_uuid-then-pipe().atomic() sequence.
func (s *Store[T]) Insert(ctx context.Context, v T) (string, error) {
	n, err := s.backend.Incr(ctx, "uuid_inc")
	if err != nil {
		return "", fmt.Errorf("allocate id: %w", err)
	}

	id := strconv.FormatInt(n, 10)

	if err := s.writeFields(ctx, id, v); err != nil {
		return "", err
	}

	s.publish(ctx, OpInsert, id)

	return id, nil
}

// InsertTTL is Insert followed by an Expire on every key just written, the
// Go shape of Insertable::insert_with_ttl: Searcher and HostRequest rows
// carry a configurable TTL (default 60s per §5) so a store-level sweep -
// not an in-process timer - is the safety net named in §7's propagation
// policy. A zero ttl behaves exactly like Insert.
func (s *Store[T]) InsertTTL(ctx context.Context, v T, ttl time.Duration) (string, error) {
	id, err := s.Insert(ctx, v)
	if err != nil {
		return "", err
	}
	if ttl <= 0 {
		return id, nil
	}

	for _, key := range s.allKeys(id, v) {
		if err := s.backend.Expire(ctx, key, ttl); err != nil {
			return id, fmt.Errorf("expire %s: %w", key, err)
		}
	}

	return id, nil
}

// allKeys enumerates every key Encode(v) would have written under id,
// including the marker key, so InsertTTL can refresh a TTL on all of them.
func (s *Store[T]) allKeys(id string, v T) []string {
	f := s.codec.Encode(v)

	keys := []string{s.markerKey(id)}

	for field := range f.Scalars {
		keys = append(keys, s.fieldKey(id, field))
	}
	for field, vals := range f.Vectors {
		for i := range vals {
			keys = append(keys, s.fieldKey(id, fmt.Sprintf("%s:%d", field, i)))
		}
	}
	for field := range f.Hashes {
		keys = append(keys, s.fieldKey(id, field))
	}

	return keys
}

func (s *Store[T]) writeFields(ctx context.Context, id string, v T) error {
	f := s.codec.Encode(v)

	return s.backend.Pipeline(ctx, func(p Pipeline) error {
		p.Set(s.markerKey(id), id)

		for field, val := range f.Scalars {
			p.Set(s.fieldKey(id, field), val)
		}

		for field, vals := range f.Vectors {
			for i, val := range vals {
				p.Set(s.fieldKey(id, fmt.Sprintf("%s:%d", field, i)), val)
			}
		}

		for field, h := range f.Hashes {
			p.HSet(s.fieldKey(id, field), h)
		}

		return nil
	})
}

// Update rewrites every field of an existing entity under its current id
// and publishes an update event. Partial updates are the caller's
// responsibility: callers read-modify-write through Get, matching
// Updateable::update's contract of receiving a complete replacement value.
//
// Because a shrinking vector or hash must not leave stale trailing keys
// behind - readVector stops at the first absent index, so a shrunk vector
// would otherwise re-materialize its old tail, and a shrunk hash would
// keep serving removed fields - Update first reconciles deletions: it
// diffs the entity's current keys against the keys the new value would
// write and deletes whatever is no longer present, in the same
// transaction as the rewrite.
func (s *Store[T]) Update(ctx context.Context, id string, v T) error {
	existing, err := s.backend.ScanKeys(ctx, id+":*")
	if err != nil {
		return err
	}

	f := s.codec.Encode(v)

	keep := make(map[string]bool, len(existing))
	for _, key := range s.allKeys(id, v) {
		keep[key] = true
	}

	var stale []string
	for _, key := range existing {
		if !keep[key] {
			stale = append(stale, key)
		}
	}

	// A hash key's name survives between old and new values even when its
	// member fields shrink, so it is never picked up by the diff above.
	// Delete-then-HSet inside the same pipeline reconciles removed members
	// without needing a separate per-field HDEL.
	for field := range f.Hashes {
		stale = append(stale, s.fieldKey(id, field))
	}

	if err := s.backend.Pipeline(ctx, func(p Pipeline) error {
		if len(stale) > 0 {
			p.Del(stale...)
		}

		p.Set(s.markerKey(id), id)

		for field, val := range f.Scalars {
			p.Set(s.fieldKey(id, field), val)
		}

		for field, vals := range f.Vectors {
			for i, val := range vals {
				p.Set(s.fieldKey(id, fmt.Sprintf("%s:%d", field, i)), val)
			}
		}

		for field, h := range f.Hashes {
			p.HSet(s.fieldKey(id, field), h)
		}

		return nil
	}); err != nil {
		return err
	}

	s.publish(ctx, OpUpdate, id)

	return nil
}

// Get reads one entity back by id. ok is false, not an error, when the
// marker key is absent.
func (s *Store[T]) Get(ctx context.Context, id string) (T, bool, error) {
	var zero T

	_, ok, err := s.backend.Get(ctx, s.markerKey(id))
	if err != nil {
		return zero, false, err
	}
	if !ok {
		return zero, false, nil
	}

	f, err := s.readFields(ctx, id)
	if err != nil {
		return zero, false, err
	}

	v, err := s.codec.Decode(id, f)
	if err != nil {
		return zero, false, err
	}

	return v, true, nil
}

func (s *Store[T]) readFields(ctx context.Context, id string) (Fields, error) {
	f := NewFields()

	for _, field := range s.codec.ScalarFields() {
		val, ok, err := s.backend.Get(ctx, s.fieldKey(id, field))
		if err != nil {
			return Fields{}, err
		}
		if ok {
			f.Scalars[field] = val
		}
	}

	for _, field := range s.codec.VectorFields() {
		vals, err := s.readVector(ctx, id, field)
		if err != nil {
			return Fields{}, err
		}
		f.Vectors[field] = vals
	}

	for _, field := range s.codec.HashFields() {
		h, err := s.backend.HGetAll(ctx, s.fieldKey(id, field))
		if err != nil {
			return Fields{}, err
		}
		f.Hashes[field] = h
	}

	return f, nil
}

// readVector reads index-suffixed keys starting at 0 until one is absent,
// the same termination rule the original Vec<T> reader used.
func (s *Store[T]) readVector(ctx context.Context, id, field string) ([]string, error) {
	var out []string

	for i := 0; ; i++ {
		val, ok, err := s.backend.Get(ctx, s.fieldKey(id, fmt.Sprintf("%s:%d", field, i)))
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		out = append(out, val)
	}

	return out, nil
}

// All enumerates every entity of this kind by scanning the marker-key
// suffix, matching Gettable::all's "*:{kind}" scan.
func (s *Store[T]) All(ctx context.Context) ([]T, error) {
	keys, err := s.backend.ScanKeys(ctx, "*:"+s.codec.Kind())
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(keys))

	for _, key := range keys {
		id := strings.TrimSuffix(key, ":"+s.codec.Kind())

		v, ok, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, v)
		}
	}

	return out, nil
}

// Entry pairs a decoded entity with the id it was read from, for callers
// that need the id alongside the value (dedup lookups, removal by id).
type Entry[T any] struct {
	ID    string
	Value T
}

// AllWithIDs is All but retains each entity's id, for callers performing
// id-keyed dedup lookups (GameServerCreate, AIPlayerRegister).
func (s *Store[T]) AllWithIDs(ctx context.Context) ([]Entry[T], error) {
	keys, err := s.backend.ScanKeys(ctx, "*:"+s.codec.Kind())
	if err != nil {
		return nil, err
	}

	out := make([]Entry[T], 0, len(keys))

	for _, key := range keys {
		id := strings.TrimSuffix(key, ":"+s.codec.Kind())

		v, ok, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, Entry[T]{ID: id, Value: v})
		}
	}

	return out, nil
}

// Filter enumerates All and keeps only entities matching pred, the Go
// equivalent of Searchable::filter over a predicate struct.
func (s *Store[T]) Filter(ctx context.Context, pred func(T) bool) ([]T, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(all))
	for _, v := range all {
		if pred(v) {
			out = append(out, v)
		}
	}

	return out, nil
}

// Remove atomically deletes every key with the "<id>:" prefix and publishes
// a delete event, matching Removable::remove's scan-then-pipelined-DEL.
func (s *Store[T]) Remove(ctx context.Context, id string) error {
	keys, err := s.backend.ScanKeys(ctx, id+":*")
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	if err := s.backend.Del(ctx, keys...); err != nil {
		return err
	}

	s.publish(ctx, OpDelete, id)

	return nil
}

func (s *Store[T]) publish(ctx context.Context, op Op, id string) {
	channel := fmt.Sprintf("%s:%s:%s:%s", eventPrefix, op, id, s.codec.Kind())
	_ = s.backend.Publish(ctx, channel, id)
}

// Subscribe returns a feed of every insert/update/delete event for this
// entity kind, matching loop_on_redis_event's PSUBSCRIBE pattern
// "{EVENT_PREFIX}:{op}:*:{kind}".
func (s *Store[T]) Subscribe(ctx context.Context) Subscription {
	pattern := fmt.Sprintf("%s:*:*:%s", eventPrefix, s.codec.Kind())

	return s.backend.PSubscribe(ctx, pattern)
}
