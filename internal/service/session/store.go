// Package session provides the transient key-value store that backs the
// OAuth state and credential handoff records.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/your-org/integrations-service/internal/config"
	"github.com/your-org/integrations-service/pkg/logger"
)

// Store provides expiring storage for opaque session values.
// A Get on a missing or expired key returns (nil, nil).
type Store interface {
	// Set stores value under key with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get retrieves the value for key, or nil if absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Health checks if the store is reachable.
	Health(ctx context.Context) error

	// Close closes the store.
	Close() error
}

// NewStore creates a session store based on configuration.
func NewStore(cfg config.SessionStoreConfig, log logger.Logger) (Store, error) {
	switch cfg.Type {
	case "memory", "":
		return NewMemoryStore(log), nil
	case "redis":
		return NewRedisStore(cfg.Redis, log)
	default:
		return nil, fmt.Errorf("unsupported session store type: %s", cfg.Type)
	}
}

// =============================================================================
// Memory Store
// =============================================================================

// MemoryStore is an in-memory session store with per-key expiry.
type MemoryStore struct {
	entries map[string]memoryEntry
	mu      sync.RWMutex
	now     func() time.Time
	log     logger.Logger
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryStore creates a new in-memory session store.
func NewMemoryStore(log logger.Logger) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
		log:     log,
	}
}

// SetClock replaces the store's time source. Test hook.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Set stores value in memory with the given TTL.
func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, len(value))
	copy(buf, value)

	s.entries[key] = memoryEntry{
		value:     buf,
		expiresAt: s.now().Add(ttl),
	}
	return nil
}

// Get retrieves value from memory, treating expired entries as absent.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, nil
	}

	if s.now().After(entry.expiresAt) {
		delete(s.entries, key)
		return nil, nil
	}

	// Copy out so a caller mutation cannot corrupt the stored record.
	buf := make([]byte, len(entry.value))
	copy(buf, entry.value)
	return buf, nil
}

// Delete removes key from memory.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

// Health returns nil as the memory store is always healthy.
func (s *MemoryStore) Health(ctx context.Context) error {
	return nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error {
	return nil
}

// =============================================================================
// Redis Store
// =============================================================================

// RedisStore is a Redis-backed session store. Expiry is delegated to Redis
// via per-key TTLs, so records vanish on their own if never consumed.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	log       logger.Logger
}

// NewRedisStore creates a new Redis session store.
func NewRedisStore(cfg config.RedisConfig, log logger.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{
		client:    client,
		keyPrefix: cfg.KeyPrefix,
		log:       log,
	}, nil
}

// Set stores value in Redis with the given TTL.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.keyPrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session value: %w", err)
	}
	return nil
}

// Get retrieves value from Redis.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.keyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session value: %w", err)
	}
	return data, nil
}

// Delete removes key from Redis.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("failed to delete session value: %w", err)
	}
	return nil
}

// Health checks if Redis is reachable.
func (s *RedisStore) Health(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
