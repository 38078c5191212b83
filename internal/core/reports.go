package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"wasteportal/pkg/domain"
)

// TimestampLayout is the UTC ISO-8601 layout of stamps the store assigns.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// EventKind distinguishes report mutations delivered to listeners.
type EventKind string

// Report mutation kinds.
const (
	EventReportAdded   EventKind = "report.added"
	EventReportUpdated EventKind = "report.updated"
)

// ReportEvent describes one successful mutation. Previous is set for
// updates.
type ReportEvent struct {
	Kind     EventKind      `json:"type"`
	Report   domain.Report  `json:"report"`
	Previous *domain.Report `json:"-"`
}

// Listener observes report mutations. Listeners run synchronously on the
// mutating goroutine after the store lock has been released.
type Listener func(ReportEvent)

// StoreOption configures a ReportStore.
type StoreOption func(*ReportStore)

// WithClock overrides the time source used for createdAt and verifiedAt.
func WithClock(now func() time.Time) StoreOption {
	return func(s *ReportStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithStoreLogger sets the logger.
func WithStoreLogger(l Logger) StoreOption {
	return func(s *ReportStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStoreMetrics sets the metrics recorder. When m also implements
// ReportGauge the backlog is published after each mutation.
func WithStoreMetrics(m MetricsRecorder) StoreOption {
	return func(s *ReportStore) {
		if m != nil {
			s.metrics = m
		}
		if g, ok := m.(ReportGauge); ok {
			s.gauge = g
		}
	}
}

// ReportStore owns the report collection, newest first. Every mutation is
// persisted through the repository before it becomes visible; a failed save
// leaves the collection as it was.
type ReportStore struct {
	mu      sync.RWMutex
	repo    domain.ReportRepository
	reports []domain.Report

	listenerMu sync.Mutex
	listeners  map[int]Listener
	nextSub    int

	now     func() time.Time
	logger  Logger
	metrics MetricsRecorder
	gauge   ReportGauge
}

// NewReportStore loads the collection from repo. Missing or undecodable
// state falls back to the seed collection, which is then persisted.
func NewReportStore(ctx context.Context, repo domain.ReportRepository, opts ...StoreOption) (*ReportStore, error) {
	s := &ReportStore{
		repo:      repo,
		listeners: make(map[int]Listener),
		now:       time.Now,
		logger:    noopLogger{},
		metrics:   noopMetrics{},
	}
	for _, opt := range opts {
		opt(s)
	}

	reports, found, err := repo.Load(ctx)
	switch {
	case errors.Is(err, domain.ErrMalformedState):
		s.logger.Warn("persisted reports unreadable, restoring seed collection", "error", err)
		found = false
	case err != nil:
		return nil, err
	}
	if found {
		s.reports = reports
	} else {
		s.reports = SeedReports()
		if err := repo.Save(ctx, s.reports); err != nil {
			s.logger.Error("persist seed reports", "error", err)
		}
	}
	s.publishGauge()
	return s, nil
}

// List returns a copy of the collection, newest first.
func (s *ReportStore) List() []domain.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneReports(s.reports)
}

// Get returns a copy of the report with id.
func (s *ReportStore) Get(id int64) (domain.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexOf(s.reports, id); i >= 0 {
		return s.reports[i].Clone(), true
	}
	return domain.Report{}, false
}

// Add validates draft, stores it as a new pending report at the head of the
// collection and returns it.
func (s *ReportStore) Add(ctx context.Context, draft domain.ReportDraft) (domain.Report, error) {
	var created domain.Report
	err := observe(ctx, s.metrics, "report.add", func() error {
		d := draft.Normalize()
		if err := ValidateDraft(d); err != nil {
			return err
		}
		s.mu.Lock()
		r := domain.Report{
			ID:          nextReportID(s.reports),
			UserID:      d.UserID,
			UserName:    d.UserName,
			Title:       d.Title,
			Description: d.Description,
			Category:    d.Category,
			Location:    d.Location,
			Status:      domain.ReportPending,
			CreatedAt:   s.stamp(),
			Photo:       d.Photo,
		}
		next := make([]domain.Report, 0, len(s.reports)+1)
		next = append(next, r)
		next = append(next, s.reports...)
		if err := s.repo.Save(ctx, next); err != nil {
			s.mu.Unlock()
			return err
		}
		s.reports = next
		s.mu.Unlock()
		created = r.Clone()
		return nil
	})
	if err != nil {
		return domain.Report{}, err
	}
	s.publishGauge()
	s.notify(ReportEvent{Kind: EventReportAdded, Report: created.Clone()})
	return created, nil
}

// Update applies patch to the report with id. An unknown id is a no-op
// returning found=false; the collection is not re-persisted. Verification
// is final: a patch moving a verified report back to pending is rejected.
// The result always satisfies verifiedAt != nil exactly when status is
// verified.
func (s *ReportStore) Update(ctx context.Context, id int64, patch domain.ReportPatch) (domain.Report, bool, error) {
	var (
		updated  domain.Report
		previous domain.Report
		found    bool
	)
	err := observe(ctx, s.metrics, "report.update", func() error {
		if err := validatePatch(patch); err != nil {
			return err
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		i := indexOf(s.reports, id)
		if i < 0 {
			return nil
		}
		found = true
		previous = s.reports[i].Clone()
		if previous.Status == domain.ReportVerified && patch.Status != nil && *patch.Status != domain.ReportVerified {
			return domain.NewValidationError("status", msgVerifiedFinal)
		}
		r := applyPatch(previous.Clone(), patch)
		if r.Status == domain.ReportVerified && r.VerifiedAt == nil {
			at := s.stamp()
			r.VerifiedAt = &at
		}
		if r.Status == domain.ReportPending {
			r.VerifiedAt = nil
		}
		next := cloneReports(s.reports)
		next[i] = r
		if err := s.repo.Save(ctx, next); err != nil {
			return err
		}
		s.reports = next
		updated = r.Clone()
		return nil
	})
	if err != nil || !found {
		return domain.Report{}, false, err
	}
	s.publishGauge()
	s.notify(ReportEvent{Kind: EventReportUpdated, Report: updated.Clone(), Previous: &previous})
	return updated, true, nil
}

// Subscribe registers l and returns a function removing it.
func (s *ReportStore) Subscribe(l Listener) (unsubscribe func()) {
	s.listenerMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = l
	s.listenerMu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenerMu.Lock()
			delete(s.listeners, id)
			s.listenerMu.Unlock()
		})
	}
}

// Counts returns the number of reports per status.
func (s *ReportStore) Counts() map[domain.ReportStatus]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[domain.ReportStatus]int, 2)
	for _, r := range s.reports {
		counts[r.Status]++
	}
	return counts
}

func (s *ReportStore) notify(ev ReportEvent) {
	s.listenerMu.Lock()
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	listeners := make([]Listener, 0, len(ids))
	sort.Ints(ids)
	for _, id := range ids {
		listeners = append(listeners, s.listeners[id])
	}
	s.listenerMu.Unlock()
	for _, l := range listeners {
		l(ev)
	}
}

func (s *ReportStore) publishGauge() {
	if s.gauge != nil {
		s.gauge.SetReportCounts(s.Counts())
	}
}

func (s *ReportStore) stamp() string {
	return s.now().UTC().Format(TimestampLayout)
}

func validatePatch(p domain.ReportPatch) error {
	if p.Category != nil && !p.Category.Valid() {
		return domain.NewValidationError("category", msgCategoryUnknown)
	}
	if p.Status != nil && !p.Status.Valid() {
		return domain.NewValidationError("status", fmt.Sprintf("status %q tidak dikenal", *p.Status))
	}
	return nil
}

func applyPatch(r domain.Report, p domain.ReportPatch) domain.Report {
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Category != nil {
		r.Category = *p.Category
	}
	if p.Location != nil {
		r.Location = *p.Location
	}
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.VerifiedAt != nil {
		v := *p.VerifiedAt
		r.VerifiedAt = &v
	}
	if p.Photo != nil {
		v := *p.Photo
		r.Photo = &v
	}
	if p.Assigned != nil {
		r.Assigned = *p.Assigned
	}
	if p.AssignedAt != nil {
		v := *p.AssignedAt
		r.AssignedAt = &v
	}
	return r
}

// nextReportID is one above the largest id in use, so ids never repeat
// within a collection regardless of wall-clock resolution.
func nextReportID(reports []domain.Report) int64 {
	var maxID int64
	for _, r := range reports {
		if r.ID > maxID {
			maxID = r.ID
		}
	}
	return maxID + 1
}

func indexOf(reports []domain.Report, id int64) int {
	for i, r := range reports {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func cloneReports(in []domain.Report) []domain.Report {
	out := make([]domain.Report, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}
