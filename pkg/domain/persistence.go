package domain

import "context"

// KeyValueStore is the durable string-keyed store the portal persists into.
// A missing key yields ok=false with a nil error.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// ReportRepository is the storage port of the report store. Load returns
// ErrMalformedState (wrapped) when persisted data cannot be decoded and
// found=false when nothing was persisted yet. Save replaces the whole
// collection.
type ReportRepository interface {
	Load(ctx context.Context) (reports []Report, found bool, err error)
	Save(ctx context.Context, reports []Report) error
}
