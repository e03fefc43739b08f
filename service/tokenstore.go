package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// TokenStore holds short-lived one-time values: account verification codes
// and password reset tokens. Keys are scoped by the caller (e.g.
// "otp:<email>"). Implementations must be safe for concurrent use.
type TokenStore interface {
	// Put stores value under key for ttl, replacing any existing value.
	Put(ctx context.Context, key, value string, ttl time.Duration) error

	// Get returns the value under key without removing it.
	//
	// Returns:
	//   - The stored value, or "" if absent or expired
	//   - true if the key was present
	Get(ctx context.Context, key string) (string, bool, error)

	// Consume returns the value under key and removes it atomically, so a
	// code can be redeemed at most once.
	//
	// Returns:
	//   - The stored value, or "" if absent or expired
	//   - true if the key was present and has now been removed
	Consume(ctx context.Context, key string) (string, bool, error)
}

// memoryTokenStore is the in-process TokenStore, backed by go-cache for its
// per-entry TTL handling.
type memoryTokenStore struct {
	c *cache.Cache
}

// NewMemoryTokenStore returns a TokenStore keeping tokens in process memory.
// Expired entries are purged every cleanupInterval.
//
// Parameters:
//   - cleanupInterval: Interval at which expired tokens are removed
//
// Returns:
//   - A memory-backed TokenStore
func NewMemoryTokenStore(cleanupInterval time.Duration) TokenStore {
	return &memoryTokenStore{c: cache.New(cache.NoExpiration, cleanupInterval)}
}

// Put implements TokenStore.
func (m *memoryTokenStore) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.c.Set(key, value, ttl)
	return nil
}

// Get implements TokenStore.
func (m *memoryTokenStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	v, found := m.c.Get(key)
	if !found {
		return "", false, nil
	}

	return v.(string), true, nil
}

// Consume implements TokenStore.
func (m *memoryTokenStore) Consume(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	v, found := m.c.Get(key)
	if !found {
		return "", false, nil
	}
	m.c.Delete(key)

	return v.(string), true, nil
}

// redisTokenStore is the redis-backed TokenStore, for deployments where
// several server processes must honor each other's codes.
type redisTokenStore struct {
	client *redis.Client
}

// NewRedisTokenStore returns a TokenStore backed by the given redis client.
//
// Example:
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	tokens := service.NewRedisTokenStore(client)
func NewRedisTokenStore(client *redis.Client) TokenStore {
	return &redisTokenStore{client: client}
}

// Put implements TokenStore.
func (r *redisTokenStore) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Get implements TokenStore.
func (r *redisTokenStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}

	return v, true, nil
}

// Consume implements TokenStore. GETDEL makes the read-and-remove atomic
// across processes.
func (r *redisTokenStore) Consume(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.GetDel(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis getdel %s: %w", key, err)
	}

	return v, true, nil
}
