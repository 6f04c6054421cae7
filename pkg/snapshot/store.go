package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotFound indicates no snapshot is stored for the key
	ErrNotFound = errors.New("snapshot not found")

	// ErrInvalidSnapshot indicates the stored snapshot could not be decoded
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)

// DefaultTTL bounds how long a stored first page may be shown as a placeholder.
const DefaultTTL = 24 * time.Hour

// entry is the stored form of a snapshot.
type entry struct {
	Records json.RawMessage `json:"records"`
	Count   int             `json:"count"`
	SavedAt time.Time       `json:"saved_at"`
}

// Store persists first-page snapshots in Redis so the next session can paint
// them before its own page 1 arrives.
type Store struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewStore creates a snapshot store with Redis backend.
func NewStore(redisClient *redis.Client, ttl time.Duration) *Store {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		redis: redisClient,
		ttl:   ttl,
	}
}

// save marshals records and stores them under key.
func (s *Store) save(ctx context.Context, key Key, records any, count int) error {
	data, err := json.Marshal(records)
	if err != nil {
		StoreOps.WithLabelValues("save", "error").Inc()
		return fmt.Errorf("marshal snapshot records: %w", err)
	}

	raw, err := json.Marshal(entry{Records: data, Count: count, SavedAt: time.Now()})
	if err != nil {
		StoreOps.WithLabelValues("save", "error").Inc()
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := s.redis.Set(ctx, key.String(), raw, s.ttl).Err(); err != nil {
		StoreOps.WithLabelValues("save", "error").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	StoreOps.WithLabelValues("save", "ok").Inc()
	return nil
}

// load fetches the raw entry for key.
func (s *Store) load(ctx context.Context, key Key) (*entry, error) {
	data, err := s.redis.Get(ctx, key.String()).Bytes()
	if err != nil {
		if err == redis.Nil {
			StoreOps.WithLabelValues("load", "miss").Inc()
			return nil, ErrNotFound
		}
		StoreOps.WithLabelValues("load", "error").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		StoreOps.WithLabelValues("load", "error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	return &e, nil
}

// Delete removes the snapshot for key.
func (s *Store) Delete(ctx context.Context, key Key) error {
	if err := s.redis.Del(ctx, key.String()).Err(); err != nil {
		StoreOps.WithLabelValues("delete", "error").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Save stores records as the snapshot for key. Empty pages are not stored.
func Save[T any](ctx context.Context, s *Store, key Key, records []T) error {
	if len(records) == 0 {
		return nil
	}
	return s.save(ctx, key, records, len(records))
}

// Load returns the records stored for key, or ErrNotFound.
func Load[T any](ctx context.Context, s *Store, key Key) ([]T, error) {
	e, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}

	var records []T
	if err := json.Unmarshal(e.Records, &records); err != nil {
		StoreOps.WithLabelValues("load", "error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}

	StoreOps.WithLabelValues("load", "hit").Inc()
	return records, nil
}

// Restore builds a reconciler from the stored snapshot for key.
// Misses and decode failures yield an empty reconciler.
func Restore[T any](ctx context.Context, s *Store, key Key) *Reconciler[T] {
	if s == nil {
		return New[T](nil)
	}
	records, err := Load[T](ctx, s, key)
	if err != nil || len(records) == 0 {
		return New[T](nil)
	}
	return New(records)
}

// Persister returns a callback that saves a session's page 1 under key.
func Persister[T any](s *Store, key Key) func(context.Context, []T) error {
	return func(ctx context.Context, records []T) error {
		return Save(ctx, s, key, records)
	}
}
