// Package attemptstore tracks bounded retry attempts per correlation key.
// The store is injectable: the Redis implementation survives process restarts
// in production, the in-memory implementation serves tests.
package attemptstore

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/jkarimi/pesaflow/internal/pkg/database"
)

// Store counts attempts per key. Incr returns the attempt number after the
// increment, so the first call returns 1.
type Store interface {
	Incr(ctx context.Context, key string) (int, error)
	Get(ctx context.Context, key string) (int, error)
	Clear(ctx context.Context, key string) error
}

// RedisStore keeps attempt counters in Redis with a TTL so abandoned keys
// eventually disappear.
type RedisStore struct {
	client *database.RedisClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed attempt store
func NewRedisStore(client *database.RedisClient, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *RedisStore) key(key string) string {
	return s.prefix + ":" + key
}

// Incr increments and returns the attempt count for the key
func (s *RedisStore) Incr(ctx context.Context, key string) (int, error) {
	n, err := s.client.Incr(ctx, s.key(key), s.ttl)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Get returns the current attempt count, zero when the key is absent
func (s *RedisStore) Get(ctx context.Context, key string) (int, error) {
	val, err := s.client.GetClient().Get(ctx, s.key(key)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return val, nil
}

// Clear removes the attempt counter for the key
func (s *RedisStore) Clear(ctx context.Context, key string) error {
	return s.client.Delete(ctx, s.key(key))
}

// MemoryStore is an in-memory attempt store for tests
type MemoryStore struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewMemoryStore creates an in-memory attempt store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{counts: make(map[string]int)}
}

// Incr increments and returns the attempt count for the key
func (s *MemoryStore) Incr(ctx context.Context, key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[key]++
	return s.counts[key], nil
}

// Get returns the current attempt count
func (s *MemoryStore) Get(ctx context.Context, key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[key], nil
}

// Clear removes the attempt counter for the key
func (s *MemoryStore) Clear(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.counts, key)
	return nil
}
