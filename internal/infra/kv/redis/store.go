// Package redis implements the portal key-value store on Redis.
// All keys are namespaced with the configured namespace so several portal
// instances can share one Redis database.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"wasteportal/pkg/domain"
)

var _ domain.KeyValueStore = (*Store)(nil)

// Store is safe for concurrent use.
type Store struct {
	rdb       *redis.Client
	namespace string
}

// New creates a store for the given namespace.
// Returns an error if namespace is empty.
func New(opts *redis.Options, namespace string) (*Store, error) {
	if namespace == "" {
		return nil, fmt.Errorf("namespace cannot be empty")
	}
	return &Store{rdb: redis.NewClient(opts), namespace: namespace}, nil
}

// NewFromURL parses a redis:// URL and creates a store.
func NewFromURL(url, namespace string) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return New(opts, namespace)
}

// Key returns the namespaced redis key for key.
func (s *Store) Key(key string) string {
	return fmt.Sprintf("%s:%s", s.namespace, key)
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, s.Key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s from Redis: %w", key, err)
	}
	return v, true, nil
}

// Set writes value under key without expiry.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.rdb.Set(ctx, s.Key(key), value, 0).Err(); err != nil {
		if isOOM(err) {
			return fmt.Errorf("failed to write %s to Redis: %w: %v", key, domain.ErrQuotaExceeded, err)
		}
		return fmt.Errorf("failed to write %s to Redis: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, s.Key(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete %s from Redis: %w", key, err)
	}
	return nil
}

// Ping verifies Redis connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.rdb.Close()
}

// isOOM matches the error redis returns when maxmemory is reached.
func isOOM(err error) bool {
	var rerr redis.Error
	if errors.As(err, &rerr) {
		msg := rerr.Error()
		return len(msg) >= 3 && msg[:3] == "OOM"
	}
	return false
}
