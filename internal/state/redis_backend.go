/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package state

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend is the production Backend, grounded in the redis/go-redis/v9
// client the pack uses for game-session state (Byabasaija-playpool's
// GameManager, MOHCentral-opm-stats-api's worker pool).
type RedisBackend struct {
	client *redis.Client
}

func NewRedisBackend(url string) (*RedisBackend, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}

	return &RedisBackend{client: redis.NewClient(opt)}, nil
}

func (b *RedisBackend) Close() error {
	return b.client.Close()
}

func (b *RedisBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *RedisBackend) Incr(ctx context.Context, key string) (int64, error) {
	return b.client.Incr(ctx, key).Result()
}

func (b *RedisBackend) Set(ctx context.Context, key, value string) error {
	return b.client.Set(ctx, key, value, 0).Err()
}

func (b *RedisBackend) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := b.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	return v, true, nil
}

func (b *RedisBackend) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	return b.client.Del(ctx, keys...).Err()
}

func (b *RedisBackend) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)

	for {
		batch, next, err := b.client.Scan(ctx, cursor, pattern, 256).Result()
		if err != nil {
			return nil, err
		}

		keys = append(keys, batch...)
		cursor = next

		if cursor == 0 {
			break
		}
	}

	return keys, nil
}

func (b *RedisBackend) HSet(ctx context.Context, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}

	return b.client.HSet(ctx, key, flatten(fields)).Err()
}

func (b *RedisBackend) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	return b.client.HGetAll(ctx, key).Result()
}

func (b *RedisBackend) Pipeline(ctx context.Context, fn func(p Pipeline) error) error {
	pipe := b.client.TxPipeline()

	if err := fn(&redisPipeline{ctx: ctx, pipe: pipe}); err != nil {
		return err
	}

	_, err := pipe.Exec(ctx)

	return err
}

func (b *RedisBackend) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return b.client.Persist(ctx, key).Err()
	}

	return b.client.Expire(ctx, key, ttl).Err()
}

func (b *RedisBackend) Publish(ctx context.Context, channel, message string) error {
	return b.client.Publish(ctx, channel, message).Err()
}

func (b *RedisBackend) PSubscribe(ctx context.Context, pattern string) Subscription {
	sub := b.client.PSubscribe(ctx, pattern)
	out := make(chan Message, 64)

	go func() {
		defer close(out)

		for msg := range sub.Channel() {
			out <- Message{Channel: msg.Channel, Payload: msg.Payload}
		}
	}()

	return &redisSubscription{sub: sub, out: out}
}

type redisPipeline struct {
	ctx  context.Context
	pipe redis.Pipeliner
}

func (p *redisPipeline) Set(key, value string) {
	p.pipe.Set(p.ctx, key, value, 0)
}

func (p *redisPipeline) HSet(key string, fields map[string]string) {
	if len(fields) == 0 {
		return
	}

	p.pipe.HSet(p.ctx, key, flatten(fields))
}

func (p *redisPipeline) Del(keys ...string) {
	if len(keys) == 0 {
		return
	}

	p.pipe.Del(p.ctx, keys...)
}

func flatten(fields map[string]string) []any {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}

	return args
}

type redisSubscription struct {
	sub *redis.PubSub
	out chan Message
}

func (s *redisSubscription) Channel() <-chan Message { return s.out }

func (s *redisSubscription) Close() error { return s.sub.Close() }
