package dedup

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisDeduplicator usa SETNX con TTL: la primera réplica que reserva la clave gana.
type RedisDeduplicator struct {
	client *redis.Client
	window time.Duration
	prefix string
}

var _ Deduplicator = (*RedisDeduplicator)(nil)

func NewRedisDeduplicator(client *redis.Client, window time.Duration, prefix string) *RedisDeduplicator {
	return &RedisDeduplicator{client: client, window: window, prefix: prefix}
}

func (d *RedisDeduplicator) Claim(ctx context.Context, key string) (bool, error) {
	return d.client.SetNX(ctx, d.prefix+key, 1, d.window).Result()
}

func (d *RedisDeduplicator) Release(ctx context.Context, key string) error {
	return d.client.Del(ctx, d.prefix+key).Err()
}
