package sqlite

import (
	"context"
	"path/filepath"
	"testing"
)

func TestStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "portal.db")

	s, err := New(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Set(ctx, "reports_data", `[{"id":1}]`); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, "reports_data", `[{"id":2}]`); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { _ = reopened.Close() })
	if reopened.Path() != path {
		t.Fatalf("unexpected path %s", reopened.Path())
	}
	v, ok, err := reopened.Get(ctx, "reports_data")
	if err != nil || !ok {
		t.Fatalf("get after reopen: ok=%v err=%v", ok, err)
	}
	if v != `[{"id":2}]` {
		t.Fatalf("unexpected value %s", v)
	}
}

func TestStoreMissingAndDelete(t *testing.T) {
	ctx := context.Background()
	s, err := New(filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	if _, ok, err := s.Get(ctx, "currentUser"); ok || err != nil {
		t.Fatalf("expected missing key, ok=%v err=%v", ok, err)
	}
	if err := s.Set(ctx, "currentUser", `{"id":1}`); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Delete(ctx, "currentUser"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, "currentUser"); err != nil {
		t.Fatalf("idempotent delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "currentUser"); ok {
		t.Fatalf("expected key removed")
	}
	var n int
	if err := s.DB().QueryRow(`SELECT COUNT(*) FROM kv`).Scan(&n); err != nil || n != 0 {
		t.Fatalf("expected empty table, n=%d err=%v", n, err)
	}
}
