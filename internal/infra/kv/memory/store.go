// Package memory implements an in-process key-value store, used for tests
// and ephemeral deployments.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"wasteportal/pkg/domain"
)

var _ domain.KeyValueStore = (*Store)(nil)

// Store keeps string values in a map. A positive quota bounds the summed
// length of keys and values the way browser local storage is bounded.
type Store struct {
	mu    sync.RWMutex
	data  map[string]string
	quota int
	used  int
}

// New returns an unbounded store.
func New() *Store { return NewWithQuota(0) }

// NewWithQuota returns a store holding at most quota bytes. Zero or a
// negative quota disables the bound.
func NewWithQuota(quota int) *Store {
	return &Store{data: make(map[string]string), quota: quota}
}

// Get returns the value stored under key.
func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok, nil
}

// Set stores value under key, failing with domain.ErrQuotaExceeded when the
// write would overflow the quota. A failed write leaves the previous value.
func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.used + len(key) + len(value)
	if prev, ok := s.data[key]; ok {
		next -= len(key) + len(prev)
	}
	if s.quota > 0 && next > s.quota {
		return fmt.Errorf("set %s (%d of %d bytes): %w", key, next, s.quota, domain.ErrQuotaExceeded)
	}
	s.data[key] = value
	s.used = next
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.data[key]; ok {
		s.used -= len(key) + len(prev)
		delete(s.data, key)
	}
	return nil
}

// Keys lists stored keys with the given prefix in lexical order.
func (s *Store) Keys(prefix string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.data))
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Used returns the number of bytes currently accounted against the quota.
func (s *Store) Used() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.used
}

// Close is a no-op; it lets the store satisfy the closable store contract.
func (s *Store) Close() error { return nil }
