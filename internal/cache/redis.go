package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bizdash/internal/log"

	"github.com/redis/go-redis/v9"
)

// RedisCache shares entries between API replicas. Values are stored as JSON
// under prefix.
type RedisCache[T any] struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *log.Logger
}

// Connect opens a client for addr and checks it with PING.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return client, nil
}

func NewRedisCache[T any](client *redis.Client, prefix string, ttl time.Duration, logger *log.Logger) *RedisCache[T] {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &RedisCache[T]{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: logger.WithComponent(log.ComponentCache),
	}
}

func (c *RedisCache[T]) Get(ctx context.Context, key string) (T, bool) {
	var v T
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return v, false
	}
	if err != nil {
		c.logger.WarnContext(ctx, "Redis GET failed", "key", key, log.FieldError, err)
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		c.logger.WarnContext(ctx, "Dropping undecodable cache entry", "key", key, log.FieldError, err)
		c.Delete(ctx, key)
		return v, false
	}
	return v, true
}

func (c *RedisCache[T]) Set(ctx context.Context, key string, value T) {
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.WarnContext(ctx, "Cannot encode cache entry", "key", key, log.FieldError, err)
		return
	}
	if err := c.client.Set(ctx, c.prefix+key, raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "Redis SET failed", "key", key, log.FieldError, err)
	}
}

func (c *RedisCache[T]) Delete(ctx context.Context, key string) {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		c.logger.WarnContext(ctx, "Redis DEL failed", "key", key, log.FieldError, err)
	}
}

func (c *RedisCache[T]) Purge(ctx context.Context) {
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.WarnContext(ctx, "Redis SCAN failed", log.FieldError, err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.WarnContext(ctx, "Redis purge failed", log.FieldError, err)
	}
}
