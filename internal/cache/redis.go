package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces every key the shared tier writes.
const KeyPrefix = "courtvision:cache:"

// RedisStore is the Redis-backed shared tier.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return NewRedisStoreFromClient(client), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Close closes the Redis connection.
func (rs *RedisStore) Close() error {
	return rs.client.Close()
}

// Client returns the underlying Redis client.
func (rs *RedisStore) Client() *redis.Client {
	return rs.client
}

// HealthCheck pings Redis to verify connection.
func (rs *RedisStore) HealthCheck(ctx context.Context) error {
	return rs.client.Ping(ctx).Err()
}

// Get returns the stored bytes, or ErrMiss.
func (rs *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := rs.client.Get(ctx, KeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return data, err
}

// Set stores value with a TTL.
func (rs *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return rs.client.Set(ctx, KeyPrefix+key, value, ttl).Err()
}

// Delete removes keys.
func (rs *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = KeyPrefix + k
	}
	return rs.client.Del(ctx, prefixed...).Err()
}

// clearBatch bounds each SCAN page and DEL call.
const clearBatch = 500

// Clear deletes every key under KeyPrefix, whichever process wrote it.
func (rs *RedisStore) Clear(ctx context.Context) error {
	iter := rs.client.Scan(ctx, 0, KeyPrefix+"*", clearBatch).Iterator()
	batch := make([]string, 0, clearBatch)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == clearBatch {
			if err := rs.client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return rs.client.Del(ctx, batch...).Err()
	}
	return nil
}
