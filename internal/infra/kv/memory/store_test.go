package memory

import (
	"context"
	"errors"
	"testing"

	"wasteportal/pkg/domain"
)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New()
	if _, ok, err := s.Get(ctx, "missing"); ok || err != nil {
		t.Fatalf("expected absent key, got ok=%v err=%v", ok, err)
	}
	if err := s.Set(ctx, "a", "1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok, err := s.Get(ctx, "a")
	if err != nil || !ok || v != "1" {
		t.Fatalf("unexpected get: %q %v %v", v, ok, err)
	}
	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("second delete should be a no-op: %v", err)
	}
	if s.Used() != 0 {
		t.Fatalf("expected zero usage, got %d", s.Used())
	}
}

func TestStoreQuota(t *testing.T) {
	ctx := context.Background()
	s := NewWithQuota(10)
	if err := s.Set(ctx, "k", "12345"); err != nil {
		t.Fatalf("set within quota: %v", err)
	}
	err := s.Set(ctx, "other", "123456")
	if !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatalf("expected quota error, got %v", err)
	}
	// overwriting reuses the existing allocation
	if err := s.Set(ctx, "k", "123456789"); err != nil {
		t.Fatalf("overwrite within quota: %v", err)
	}
	if err := s.Set(ctx, "k", "1234567890"); !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatalf("expected quota error on overwrite, got %v", err)
	}
	v, _, _ := s.Get(ctx, "k")
	if v != "123456789" {
		t.Fatalf("failed write must keep previous value, got %q", v)
	}
}

func TestStoreKeys(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, k := range []string{"session:b", "session:a", "reports_data"} {
		if err := s.Set(ctx, k, "x"); err != nil {
			t.Fatalf("set %s: %v", k, err)
		}
	}
	keys := s.Keys("session:")
	if len(keys) != 2 || keys[0] != "session:a" || keys[1] != "session:b" {
		t.Fatalf("unexpected keys %v", keys)
	}
}
