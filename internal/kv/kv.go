// Package kv selects the key-value backend from configuration and provides
// prefix views over any store.
package kv

import (
	"context"
	"fmt"

	"wasteportal/internal/config"
	"wasteportal/internal/infra/kv/memory"
	"wasteportal/internal/infra/kv/postgres"
	"wasteportal/internal/infra/kv/redis"
	"wasteportal/internal/infra/kv/sqlite"
	"wasteportal/pkg/domain"
)

// Store is a key-value store owning resources that must be released.
type Store interface {
	domain.KeyValueStore
	Close() error
}

// Open constructs the backend named by cfg.Driver.
func Open(ctx context.Context, cfg config.Storage) (Store, error) {
	switch cfg.Driver {
	case config.StorageMemory:
		return memory.NewWithQuota(cfg.MemoryQuota), nil
	case config.StorageSQLite, "":
		s, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StoragePostgres:
		s, err := postgres.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StorageRedis:
		s, err := redis.NewFromURL(cfg.RedisURL, cfg.RedisNamespace)
		if err != nil {
			return nil, err
		}
		if err := s.Ping(ctx); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %s", cfg.Driver)
	}
}

// prefixed namespaces every key of an underlying store.
type prefixed struct {
	inner  domain.KeyValueStore
	prefix string
}

// WithPrefix returns a view of store whose keys are stored as prefix+key.
// Views with different prefixes never observe each other's keys.
func WithPrefix(store domain.KeyValueStore, prefix string) domain.KeyValueStore {
	if prefix == "" {
		return store
	}
	if p, ok := store.(prefixed); ok {
		return prefixed{inner: p.inner, prefix: p.prefix + prefix}
	}
	return prefixed{inner: store, prefix: prefix}
}

func (p prefixed) Get(ctx context.Context, key string) (string, bool, error) {
	return p.inner.Get(ctx, p.prefix+key)
}

func (p prefixed) Set(ctx context.Context, key, value string) error {
	return p.inner.Set(ctx, p.prefix+key, value)
}

func (p prefixed) Delete(ctx context.Context, key string) error {
	return p.inner.Delete(ctx, p.prefix+key)
}

// SessionView returns the view holding the per-session keys of token.
func SessionView(store domain.KeyValueStore, token string) domain.KeyValueStore {
	return WithPrefix(store, "session:"+token+":")
}
