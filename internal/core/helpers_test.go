package core

import (
	"bytes"
	"context"
	"errors"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"wasteportal/internal/infra/kv/memory"
	"wasteportal/pkg/domain"
)

var errBackendDown = errors.New("backend down")

// flakyKV wraps a memory store and fails writes on demand.
type flakyKV struct {
	*memory.Store
	mu       sync.Mutex
	failSets bool
	failAt   int
	sets     int
}

func newFlakyKV() *flakyKV { return &flakyKV{Store: memory.New()} }

func (f *flakyKV) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	f.sets++
	fail := f.failSets || f.sets == f.failAt
	f.mu.Unlock()
	if fail {
		return errBackendDown
	}
	return f.Store.Set(ctx, key, value)
}

func (f *flakyKV) setFail(v bool) {
	f.mu.Lock()
	f.failSets = v
	f.mu.Unlock()
}

// failNthSet makes the nth Set from now fail once.
func (f *flakyKV) failNthSet(n int) {
	f.mu.Lock()
	f.failAt = f.sets + n
	f.mu.Unlock()
}

func (f *flakyKV) setCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sets
}

// countingRepo records Save calls.
type countingRepo struct {
	domain.ReportRepository
	saves int
}

func (c *countingRepo) Save(ctx context.Context, reports []domain.Report) error {
	c.saves++
	return c.ReportRepository.Save(ctx, reports)
}

// captureLogger keeps formatted log lines.
type captureLogger struct {
	buf bytes.Buffer
	*StdLogger
}

func newCaptureLogger() *captureLogger {
	c := &captureLogger{}
	c.StdLogger = NewStdLogger(log.New(&c.buf, "", 0), true)
	return c
}

func fixedClock() func() time.Time {
	return func() time.Time { return time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC) }
}

func newTestService(t *testing.T, opts ...Option) (*Service, *flakyKV) {
	t.Helper()
	store := newFlakyKV()
	opts = append([]Option{WithCredentialCost(bcrypt.MinCost), WithNow(fixedClock())}, opts...)
	svc, err := NewService(context.Background(), store, opts...)
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return svc, store
}

func strPtr(s string) *string { return &s }
