package core

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"wasteportal/pkg/domain"
)

// CurrentUserKey is the key holding the signed-in user of a session view.
const CurrentUserKey = "currentUser"

// SessionGate answers identity questions for one client context. The view
// is the key-value namespace of that client; each session gets its own.
type SessionGate struct {
	view    domain.KeyValueStore
	users   *UserDirectory
	delay   time.Duration
	logger  Logger
	metrics MetricsRecorder
}

// GateOption configures a SessionGate.
type GateOption func(*SessionGate)

// WithLoginDelay makes Login wait d before checking credentials.
func WithLoginDelay(d time.Duration) GateOption {
	return func(g *SessionGate) { g.delay = d }
}

// WithGateLogger sets the logger.
func WithGateLogger(l Logger) GateOption {
	return func(g *SessionGate) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithGateMetrics sets the metrics recorder.
func WithGateMetrics(m MetricsRecorder) GateOption {
	return func(g *SessionGate) {
		if m != nil {
			g.metrics = m
		}
	}
}

// NewSessionGate returns a gate over view.
func NewSessionGate(view domain.KeyValueStore, users *UserDirectory, opts ...GateOption) *SessionGate {
	g := &SessionGate{view: view, users: users, logger: noopLogger{}, metrics: noopMetrics{}}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Login authenticates and records the user as the session's current user.
// A failed attempt leaves the session untouched.
func (g *SessionGate) Login(ctx context.Context, username, credential string) (domain.User, error) {
	var user domain.User
	err := observe(ctx, g.metrics, "session.login", func() error {
		if err := sleep(ctx, g.delay); err != nil {
			return err
		}
		u, err := g.users.Authenticate(ctx, username, credential)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(u.Public())
		if err != nil {
			return fmt.Errorf("encode session user: %w", err)
		}
		if err := g.view.Set(ctx, CurrentUserKey, string(raw)); err != nil {
			return fmt.Errorf("store session: %w", err)
		}
		user = u.Public()
		return nil
	})
	return user, err
}

// Logout clears the session. Logging out twice is not an error.
func (g *SessionGate) Logout(ctx context.Context) error {
	return g.view.Delete(ctx, CurrentUserKey)
}

// CurrentUser returns the signed-in user or nil. An unreadable session
// record counts as signed out.
func (g *SessionGate) CurrentUser(ctx context.Context) (*domain.User, error) {
	raw, ok, err := g.view.Get(ctx, CurrentUserKey)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var u domain.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		g.logger.Warn("session record unreadable, treating as signed out", "error", err)
		return nil, nil
	}
	u = u.Public()
	return &u, nil
}

// IsAuthenticated reports whether a readable session user exists.
func (g *SessionGate) IsAuthenticated(ctx context.Context) bool {
	u, err := g.CurrentUser(ctx)
	return err == nil && u != nil
}

// HasRole reports whether the session user holds role.
func (g *SessionGate) HasRole(ctx context.Context, role domain.Role) bool {
	u, err := g.CurrentUser(ctx)
	return err == nil && u != nil && u.Role == role
}

// sleep waits d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
