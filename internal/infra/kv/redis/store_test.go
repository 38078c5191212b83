package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore creates a store connected to a miniredis instance
func setupTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	t.Cleanup(mr.Close)

	s, err := New(&redis.Options{Addr: mr.Addr()}, "portal-test")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, mr
}

func TestNew(t *testing.T) {
	t.Run("rejects empty namespace", func(t *testing.T) {
		_, err := New(&redis.Options{Addr: "localhost:6379"}, "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "namespace cannot be empty")
	})

	t.Run("rejects invalid url", func(t *testing.T) {
		_, err := NewFromURL("://nope", "ns")
		assert.Error(t, err)
	})

	t.Run("pings", func(t *testing.T) {
		s, _ := setupTestStore(t)
		assert.NoError(t, s.Ping(context.Background()))
	})
}

func TestStoreRoundTrip(t *testing.T) {
	s, mr := setupTestStore(t)
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "mockUsers")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "mockUsers", `[{"id":1}]`))
	raw, err := mr.Get("portal-test:mockUsers")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1}]`, raw, "keys are namespaced")

	v, ok, err := s.Get(ctx, "mockUsers")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":1}]`, v)

	require.NoError(t, s.Delete(ctx, "mockUsers"))
	require.NoError(t, s.Delete(ctx, "mockUsers"))
	assert.False(t, mr.Exists("portal-test:mockUsers"))
}

func TestStoreConnectionError(t *testing.T) {
	s, mr := setupTestStore(t)
	mr.Close()

	err := s.Set(context.Background(), "k", "v")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write k to Redis")
}
