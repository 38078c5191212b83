package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"wasteportal/pkg/domain"
)

// UsersKey is the key the user table is persisted under.
const UsersKey = "mockUsers"

// storedUser is the persisted form of a user. Password only appears in
// tables written by older clients that kept plain credentials; such entries
// are hashed on load.
type storedUser struct {
	domain.User
	Password string `json:"password,omitempty"`
}

// DirectoryOption configures a UserDirectory.
type DirectoryOption func(*UserDirectory)

// WithBcryptCost sets the cost used when hashing credentials.
func WithBcryptCost(cost int) DirectoryOption {
	return func(d *UserDirectory) {
		if cost > 0 {
			d.cost = cost
		}
	}
}

// WithDirectoryLogger sets the logger.
func WithDirectoryLogger(l Logger) DirectoryOption {
	return func(d *UserDirectory) {
		if l != nil {
			d.logger = l
		}
	}
}

// UserDirectory is the provisioned user table. It is seeded on first access
// and never mutated by the portal afterwards.
type UserDirectory struct {
	mu     sync.Mutex
	kv     domain.KeyValueStore
	cost   int
	logger Logger
	cache  []domain.User
}

// NewUserDirectory returns a directory persisted in kv.
func NewUserDirectory(kv domain.KeyValueStore, opts ...DirectoryOption) *UserDirectory {
	d := &UserDirectory{kv: kv, cost: bcrypt.DefaultCost, logger: noopLogger{}}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Authenticate returns the public view of the user whose username matches
// case-insensitively and whose credential matches the stored hash.
func (d *UserDirectory) Authenticate(ctx context.Context, username, credential string) (domain.User, error) {
	users, err := d.users(ctx)
	if err != nil {
		return domain.User{}, err
	}
	name := strings.TrimSpace(username)
	for _, u := range users {
		if !strings.EqualFold(u.Username, name) {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(credential)) != nil {
			return domain.User{}, domain.ErrInvalidCredentials
		}
		return u.Public(), nil
	}
	return domain.User{}, domain.ErrInvalidCredentials
}

// List returns the public view of every user ordered as stored.
func (d *UserDirectory) List(ctx context.Context) ([]domain.User, error) {
	users, err := d.users(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.User, len(users))
	for i, u := range users {
		out[i] = u.Public()
	}
	return out, nil
}

// Get returns the public view of the user with id.
func (d *UserDirectory) Get(ctx context.Context, id int64) (domain.User, bool, error) {
	users, err := d.users(ctx)
	if err != nil {
		return domain.User{}, false, err
	}
	for _, u := range users {
		if u.ID == id {
			return u.Public(), true, nil
		}
	}
	return domain.User{}, false, nil
}

// WithRole returns the users holding role.
func (d *UserDirectory) WithRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	all, err := d.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.User, 0, len(all))
	for _, u := range all {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

// users returns the table, loading and seeding it once.
func (d *UserDirectory) users(ctx context.Context) ([]domain.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cache != nil {
		return d.cache, nil
	}
	raw, ok, err := d.kv.Get(ctx, UsersKey)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	if ok {
		users, migrated, err := d.decode(raw)
		if err == nil {
			if migrated {
				if err := d.persist(ctx, users); err != nil {
					return nil, err
				}
			}
			d.cache = users
			return users, nil
		}
		d.logger.Warn("persisted users unreadable, restoring seed users", "error", err)
	}
	users, err := d.seed()
	if err != nil {
		return nil, err
	}
	if err := d.persist(ctx, users); err != nil {
		return nil, err
	}
	d.cache = users
	return users, nil
}

func (d *UserDirectory) decode(raw string) ([]domain.User, bool, error) {
	var stored []storedUser
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, false, fmt.Errorf("%w: %s: %v", domain.ErrMalformedState, UsersKey, err)
	}
	if len(stored) == 0 {
		return nil, false, fmt.Errorf("%w: %s holds no users", domain.ErrMalformedState, UsersKey)
	}
	migrated := false
	users := make([]domain.User, len(stored))
	for i, s := range stored {
		u := s.User
		if u.PasswordHash == "" {
			if s.Password == "" {
				return nil, false, fmt.Errorf("%w: user %d has no credential", domain.ErrMalformedState, u.ID)
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(s.Password), d.cost)
			if err != nil {
				return nil, false, fmt.Errorf("hash credential: %w", err)
			}
			u.PasswordHash = string(hash)
			migrated = true
		}
		users[i] = u
	}
	return users, migrated, nil
}

func (d *UserDirectory) seed() ([]domain.User, error) {
	accounts := seedAccounts()
	users := make([]domain.User, len(accounts))
	for i, a := range accounts {
		hash, err := bcrypt.GenerateFromPassword([]byte(a.credential), d.cost)
		if err != nil {
			return nil, fmt.Errorf("hash seed credential: %w", err)
		}
		u := a.user
		u.PasswordHash = string(hash)
		users[i] = u
	}
	return users, nil
}

func (d *UserDirectory) persist(ctx context.Context, users []domain.User) error {
	raw, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}
	if err := d.kv.Set(ctx, UsersKey, string(raw)); err != nil {
		return fmt.Errorf("save users: %w", err)
	}
	return nil
}

// IsInvalidCredentials reports whether err is a failed login.
func IsInvalidCredentials(err error) bool {
	return errors.Is(err, domain.ErrInvalidCredentials)
}
