package core

import (
	"context"
	"encoding/json"
	"fmt"

	"wasteportal/pkg/domain"
)

// ReportsKey is the key the report collection is persisted under.
const ReportsKey = "reports_data"

var _ domain.ReportRepository = (*KVReportRepository)(nil)

// KVReportRepository persists the whole report collection as one JSON array
// in a key-value store.
type KVReportRepository struct {
	kv domain.KeyValueStore
}

// NewKVReportRepository returns a repository over kv.
func NewKVReportRepository(kv domain.KeyValueStore) *KVReportRepository {
	return &KVReportRepository{kv: kv}
}

// Load decodes the persisted collection.
func (r *KVReportRepository) Load(ctx context.Context) ([]domain.Report, bool, error) {
	raw, ok, err := r.kv.Get(ctx, ReportsKey)
	if err != nil {
		return nil, false, fmt.Errorf("load reports: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	var reports []domain.Report
	if err := json.Unmarshal([]byte(raw), &reports); err != nil {
		return nil, true, fmt.Errorf("%w: %s: %v", domain.ErrMalformedState, ReportsKey, err)
	}
	if reports == nil {
		return nil, true, fmt.Errorf("%w: %s is null", domain.ErrMalformedState, ReportsKey)
	}
	return reports, true, nil
}

// Save replaces the persisted collection.
func (r *KVReportRepository) Save(ctx context.Context, reports []domain.Report) error {
	if reports == nil {
		reports = []domain.Report{}
	}
	raw, err := json.Marshal(reports)
	if err != nil {
		return fmt.Errorf("encode reports: %w", err)
	}
	if err := r.kv.Set(ctx, ReportsKey, string(raw)); err != nil {
		return fmt.Errorf("save reports: %w", err)
	}
	return nil
}
