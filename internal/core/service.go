package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	blobcore "wasteportal/internal/blob/core"
	"wasteportal/internal/kv"
	"wasteportal/pkg/domain"
)

// Service wires the portal components over one key-value store. It is
// built once at startup and shared by the HTTP adapter and the CLI.
type Service struct {
	kv        domain.KeyValueStore
	users     *UserDirectory
	reports   *ReportStore
	wallets   *Wallets
	photos    *PhotoStore
	waste     []domain.WasteLogEntry
	schedules []domain.Schedule

	guard        Guard
	logger       Logger
	metrics      MetricsRecorder
	now          func() time.Time
	loginDelay   time.Duration
	submitDelay  time.Duration
	rewardPoints int64
	unsubscribe  func()
}

type serviceConfig struct {
	logger          Logger
	metrics         MetricsRecorder
	blob            blobcore.Store
	now             func() time.Time
	loginDelay      time.Duration
	submitDelay     time.Duration
	bcryptCost      int
	rewardPoints    int64
	balancePerPoint float64
}

// Option configures NewService.
type Option func(*serviceConfig)

// WithLogger sets the logger shared by every component.
func WithLogger(l Logger) Option {
	return func(c *serviceConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics sets the metrics recorder shared by every component.
func WithMetrics(m MetricsRecorder) Option {
	return func(c *serviceConfig) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithBlobStore stores report photos in b instead of inline.
func WithBlobStore(b blobcore.Store) Option {
	return func(c *serviceConfig) { c.blob = b }
}

// WithNow overrides the clock.
func WithNow(now func() time.Time) Option {
	return func(c *serviceConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// WithDelays sets the simulated latency of login and report submission.
func WithDelays(login, submit time.Duration) Option {
	return func(c *serviceConfig) {
		c.loginDelay = login
		c.submitDelay = submit
	}
}

// WithCredentialCost sets the bcrypt cost for seeded credentials.
func WithCredentialCost(cost int) Option {
	return func(c *serviceConfig) { c.bcryptCost = cost }
}

// WithRewards sets the points credited per verified report and the balance
// each point is worth.
func WithRewards(points int64, balancePerPoint float64) Option {
	return func(c *serviceConfig) {
		c.rewardPoints = points
		c.balancePerPoint = balancePerPoint
	}
}

// NewService loads the report store and prepares the other components.
func NewService(ctx context.Context, store domain.KeyValueStore, opts ...Option) (*Service, error) {
	cfg := serviceConfig{
		logger:          noopLogger{},
		metrics:         noopMetrics{},
		now:             time.Now,
		bcryptCost:      10,
		rewardPoints:    10,
		balancePerPoint: 100,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	reports, err := NewReportStore(ctx, NewKVReportRepository(store),
		WithClock(cfg.now), WithStoreLogger(cfg.logger), WithStoreMetrics(cfg.metrics))
	if err != nil {
		return nil, err
	}
	wallets := NewWallets(store, cfg.balancePerPoint, cfg.logger)
	wallets.now = cfg.now
	s := &Service{
		kv:           store,
		users:        NewUserDirectory(store, WithBcryptCost(cfg.bcryptCost), WithDirectoryLogger(cfg.logger)),
		reports:      reports,
		wallets:      wallets,
		photos:       NewPhotoStore(cfg.blob),
		waste:        SeedWasteLog(),
		schedules:    SeedSchedules(),
		logger:       cfg.logger,
		metrics:      cfg.metrics,
		now:          cfg.now,
		loginDelay:   cfg.loginDelay,
		submitDelay:  cfg.submitDelay,
		rewardPoints: cfg.rewardPoints,
	}
	s.unsubscribe = reports.Subscribe(s.rewardVerification)
	return s, nil
}

// Close detaches the service from the report store.
func (s *Service) Close() { s.unsubscribe() }

// Users returns the user directory.
func (s *Service) Users() *UserDirectory { return s.users }

// Reports returns the report store.
func (s *Service) Reports() *ReportStore { return s.reports }

// Wallets returns the reward wallets.
func (s *Service) Wallets() *Wallets { return s.wallets }

// Photos returns the photo store.
func (s *Service) Photos() *PhotoStore { return s.photos }

// Guard returns the route guard.
func (s *Service) Guard() Guard { return s.guard }

// Session returns the identity gate of the client holding token.
func (s *Service) Session(token string) *SessionGate {
	return NewSessionGate(kv.SessionView(s.kv, token), s.users,
		WithLoginDelay(s.loginDelay), WithGateLogger(s.logger), WithGateMetrics(s.metrics))
}

// SubmitReport files draft on behalf of user. A data URI photo is validated
// and moved to the photo store when one is configured.
func (s *Service) SubmitReport(ctx context.Context, user domain.User, draft domain.ReportDraft) (domain.Report, error) {
	if err := sleep(ctx, s.submitDelay); err != nil {
		return domain.Report{}, err
	}
	draft = draft.Normalize()
	draft.UserID = user.ID
	draft.UserName = user.Name
	if err := ValidateDraft(draft); err != nil {
		return domain.Report{}, err
	}
	if draft.Photo != nil && strings.TrimSpace(*draft.Photo) == "" {
		draft.Photo = nil
	}
	if draft.Photo != nil {
		ct, data, err := DecodeDataURI(*draft.Photo)
		if err != nil {
			return domain.Report{}, err
		}
		if s.photos.Enabled() {
			key, err := s.photos.Save(ctx, ct, data)
			if err != nil {
				return domain.Report{}, err
			}
			draft.Photo = &key
			report, err := s.reports.Add(ctx, draft)
			if err != nil {
				if derr := s.photos.Delete(context.WithoutCancel(ctx), key); derr != nil {
					s.logger.Error("remove photo of rejected report", "key", key, "error", derr)
				}
				return domain.Report{}, err
			}
			return report, nil
		}
	}
	return s.reports.Add(ctx, draft)
}

// SubmitReportWithPhoto files draft with an uploaded photo.
func (s *Service) SubmitReportWithPhoto(ctx context.Context, user domain.User, draft domain.ReportDraft, contentType string, data []byte) (domain.Report, error) {
	if err := ValidatePhoto(contentType, int64(len(data))); err != nil {
		return domain.Report{}, err
	}
	uri := EncodeDataURI(contentType, data)
	draft.Photo = &uri
	return s.SubmitReport(ctx, user, draft)
}

// PrunePhotos deletes stored photos no report references. Photos younger
// than grace are kept so that a submission in flight is not raced.
func (s *Service) PrunePhotos(ctx context.Context, grace time.Duration) (int, error) {
	keep := make(map[string]bool)
	for _, r := range s.reports.List() {
		if r.Photo != nil && IsPhotoKey(*r.Photo) {
			keep[*r.Photo] = true
		}
	}
	n, err := s.photos.Prune(ctx, keep, s.now().Add(-grace))
	if err != nil {
		return n, err
	}
	if n > 0 {
		s.logger.Info("pruned orphaned photos", "count", n)
	}
	return n, nil
}

// ListReports returns every report, or those with status when it is set.
// "all" is accepted as no filter.
func (s *Service) ListReports(status string) ([]domain.Report, error) {
	all := s.reports.List()
	if status == "" || status == "all" {
		return all, nil
	}
	if !domain.ReportStatus(status).Valid() {
		return nil, domain.NewValidationError("status", fmt.Sprintf("status %q tidak dikenal", status))
	}
	return FilterByStatus(all, status), nil
}

// ReportsOf returns the reports filed by userID, newest first.
func (s *Service) ReportsOf(userID int64) []domain.Report {
	return FilterByOwner(s.reports.List(), userID)
}

// UpdateReport patches report id.
func (s *Service) UpdateReport(ctx context.Context, id int64, patch domain.ReportPatch) (domain.Report, bool, error) {
	return s.reports.Update(ctx, id, patch)
}

// VerifyReport marks report id verified now, keeping an existing stamp.
func (s *Service) VerifyReport(ctx context.Context, id int64) (domain.Report, bool, error) {
	if r, ok := s.reports.Get(id); ok && r.Status == domain.ReportVerified {
		return r, true, nil
	}
	status := domain.ReportVerified
	return s.reports.Update(ctx, id, domain.ReportPatch{Status: &status})
}

// AssignReport flags report id as assigned to a field team.
func (s *Service) AssignReport(ctx context.Context, id int64) (domain.Report, bool, error) {
	assigned := true
	at := s.now().UTC().Format(TimestampLayout)
	return s.reports.Update(ctx, id, domain.ReportPatch{Assigned: &assigned, AssignedAt: &at})
}

// WasteLog returns the disposal events of userID.
func (s *Service) WasteLog(userID int64) []domain.WasteLogEntry {
	return FilterByOwner(s.waste, userID)
}

// Schedules returns the pickup schedule, of one region when region is set,
// ordered by region then weekday.
func (s *Service) Schedules(region string) []domain.Schedule {
	all := s.schedules
	if region != "" {
		all = FilterByRegion(all, region)
	}
	return SortSchedulesByRegion(all)
}

// ScheduleGroups returns the full schedule grouped by region.
func (s *Service) ScheduleGroups() []RegionGroup[domain.Schedule] {
	return GroupByRegion(SortSchedulesByRegion(s.schedules))
}

// ResidentDashboard summarises the records of user.
func (s *Service) ResidentDashboard(user domain.User) ResidentDashboard {
	return BuildResidentDashboard(user, s.waste, s.reports.List(), s.schedules)
}

// AgencyDashboard summarises every record.
func (s *Service) AgencyDashboard(ctx context.Context) (AgencyDashboard, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return AgencyDashboard{}, err
	}
	return BuildAgencyDashboard(users, s.waste, s.reports.List(), s.schedules), nil
}

// ResidentRoster lists residents with their totals.
func (s *Service) ResidentRoster(ctx context.Context) ([]ResidentStats, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	return BuildResidentRoster(users, s.waste, s.reports.List()), nil
}

// Wallet returns the reward wallet of userID.
func (s *Service) Wallet(ctx context.Context, userID int64) (domain.Wallet, error) {
	return s.wallets.Get(ctx, userID)
}

// rewardVerification credits the reporter when a report turns verified.
func (s *Service) rewardVerification(ev ReportEvent) {
	if ev.Kind != EventReportUpdated || ev.Previous == nil || s.rewardPoints <= 0 {
		return
	}
	if ev.Previous.Status == domain.ReportVerified || ev.Report.Status != domain.ReportVerified {
		return
	}
	reason := fmt.Sprintf("Laporan #%d terverifikasi", ev.Report.ID)
	if _, err := s.wallets.Credit(context.Background(), ev.Report.UserID, s.rewardPoints, reason); err != nil {
		s.logger.Error("credit wallet", "user", ev.Report.UserID, "report", ev.Report.ID, "error", err)
		return
	}
	s.logger.Info("wallet credited", "user", ev.Report.UserID, "report", ev.Report.ID, "points", s.rewardPoints)
}
