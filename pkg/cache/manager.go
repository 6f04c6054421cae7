package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrCacheMiss indicates the requested key was not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")
)

const (
	// DefaultRetention is how long stale entries are kept for revalidation.
	DefaultRetention = time.Hour

	// DefaultMemoryEntries bounds the in-process layer.
	DefaultMemoryEntries = 512
)

// Option customizes a Manager.
type Option func(*Manager)

// WithMemoryLayer enables an in-process LRU in front of Redis.
// Entries live there for at most ttl.
func WithMemoryLayer(size int, ttl time.Duration) Option {
	return func(m *Manager) {
		if size <= 0 || ttl <= 0 {
			return
		}
		m.memory = expirable.NewLRU[string, *CacheEntry](size, nil, ttl)
	}
}

// WithRetention overrides how long stale entries stay in Redis.
func WithRetention(d time.Duration) Option {
	return func(m *Manager) {
		if d >= 0 {
			m.retention = d
		}
	}
}

// Manager handles caching operations with a Redis backend.
// Stale entries are returned by Get so callers can revalidate them.
type Manager struct {
	redis     *redis.Client
	memory    *expirable.LRU[string, *CacheEntry]
	retention time.Duration
}

// NewManager creates a new cache manager with Redis backend.
func NewManager(redisClient *redis.Client, opts ...Option) *Manager {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	m := &Manager{
		redis:     redisClient,
		retention: DefaultRetention,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get retrieves a cache entry by key, fresh or stale.
// Returns ErrCacheMiss if the key doesn't exist.
func (m *Manager) Get(ctx context.Context, key CacheKey) (*CacheEntry, error) {
	cacheKey := key.String()

	if m.memory != nil {
		if entry, ok := m.memory.Get(cacheKey); ok {
			CacheHits.WithLabelValues("memory").Inc()
			return entry, nil
		}
	}

	data, err := m.redis.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			CacheMisses.Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	CacheHits.WithLabelValues("redis").Inc()
	if m.memory != nil {
		m.memory.Add(cacheKey, &entry)
	}

	return &entry, nil
}

// Set stores a cache entry. Redis keeps it for the entry's freshness plus
// the retention window.
func (m *Manager) Set(ctx context.Context, key CacheKey, entry *CacheEntry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}

	cacheKey := key.String()

	ttl := entry.TTL() + m.retention
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := m.redis.Set(ctx, cacheKey, data, ttl).Err(); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	CacheSize.WithLabelValues("redis").Add(float64(len(data)))
	if m.memory != nil {
		m.memory.Add(cacheKey, entry)
		CacheSize.WithLabelValues("memory").Add(float64(len(entry.Data)))
	}

	return nil
}

// Delete removes a cache entry from every layer.
func (m *Manager) Delete(ctx context.Context, key CacheKey) error {
	cacheKey := key.String()

	if m.memory != nil {
		m.memory.Remove(cacheKey)
	}

	if err := m.redis.Del(ctx, cacheKey).Err(); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}

	return nil
}

// Revalidate marks an entry fresh again until newExpires.
// Used when GitHub answers a conditional request with 304 Not Modified.
func (m *Manager) Revalidate(ctx context.Context, key CacheKey, entry *CacheEntry, newExpires time.Time) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}

	updated := *entry
	updated.Expires = newExpires
	return m.Set(ctx, key, &updated)
}

// UpdateTTL updates the freshness of an existing cache entry.
func (m *Manager) UpdateTTL(ctx context.Context, key CacheKey, newExpires time.Time) error {
	entry, err := m.Get(ctx, key)
	if err != nil {
		return err
	}
	return m.Revalidate(ctx, key, entry, newExpires)
}
