package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/medrex/portal-gate/pkg/types"
)

// RedisBackend stores each profile's session as one Redis hash
type RedisBackend struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisBackend creates a Redis-backed session backend
func NewRedisBackend(client *redis.Client, prefix string, ttl time.Duration) *RedisBackend {
	if prefix == "" {
		prefix = "session:"
	}
	return &RedisBackend{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Dial connects to Redis and verifies the connection
func Dial(ctx context.Context, addr, password string, db, poolSize int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
		PoolSize: poolSize,
	})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("session: redis ping failed: %w", err)
	}

	return client, nil
}

// ForProfile returns the store for profileID
func (b *RedisBackend) ForProfile(profileID string) Store {
	return &RedisStore{
		client: b.client,
		key:    b.prefix + profileID,
		ttl:    b.ttl,
	}
}

// Ping checks the Redis connection
func (b *RedisBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// RedisStore is a Store over a single Redis hash key
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// Read loads the hash; missing or partial hashes read as absent
func (r *RedisStore) Read(ctx context.Context) (*types.Session, error) {
	fields, err := r.client.HGetAll(ctx, r.key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, types.WrapAccessError(types.ErrorKindStorage, "failed to read session", err)
	}
	return decode(fields), nil
}

// Write replaces the hash inside one MULTI/EXEC so readers never see a partial session
func (r *RedisStore) Write(ctx context.Context, s types.Session) error {
	fields, err := prepare(s)
	if err != nil {
		return err
	}

	values := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		values = append(values, k, v)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key)
		pipe.HSet(ctx, r.key, values...)
		if r.ttl > 0 {
			pipe.Expire(ctx, r.key, r.ttl)
		}
		return nil
	})
	if err != nil {
		return types.WrapAccessError(types.ErrorKindStorage, "failed to write session", err)
	}
	return nil
}

// Clear deletes the hash
func (r *RedisStore) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return types.WrapAccessError(types.ErrorKindStorage, "failed to clear session", err)
	}
	return nil
}
