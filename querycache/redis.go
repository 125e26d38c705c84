package querycache

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/careercompass/compass-client/internal/errors"
)

const redisKeyspace = "compass:"

// RedisStore backs the query cache with Redis so multiple client instances
// (e.g. a fleet of dashboard workers) share one cache and one invalidation.
type RedisStore struct {
	inner *redis.Client
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects to Redis and verifies the connection with a ping.
func NewRedisStore(ctx context.Context, opts *redis.Options) (*RedisStore, error) {
	if opts == nil {
		return nil, errors.Wrapf(errors.ErrInternal, "redis options required")
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrapf(err, "redis ping")
	}
	return &RedisStore{inner: client}, nil
}

func (rs *RedisStore) Get(ctx context.Context, key Key) ([]byte, error) {
	value, err := rs.inner.Get(ctx, redisKeyspace+key.String()).Bytes()
	if err == redis.Nil {
		return nil, errors.ErrCacheMiss
	}
	if err != nil {
		return nil, errors.Wrapf(err, "redis get")
	}
	return value, nil
}

func (rs *RedisStore) Set(ctx context.Context, key Key, value []byte, ttl time.Duration) error {
	if err := rs.inner.Set(ctx, redisKeyspace+key.String(), value, ttl).Err(); err != nil {
		return errors.Wrapf(err, "redis set")
	}
	return nil
}

func (rs *RedisStore) InvalidatePrefix(ctx context.Context, resource string, userID int) error {
	pattern := redisKeyspace + Prefix(resource, userID) + "*"

	iter := rs.inner.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return errors.Wrapf(err, "redis scan %q", pattern)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := rs.inner.Del(ctx, keys...).Err(); err != nil {
		return errors.Wrapf(err, "redis del")
	}
	return nil
}

// Close releases the underlying connection.
func (rs *RedisStore) Close() error {
	return rs.inner.Close()
}
