package core

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wasteportal/pkg/domain"
)

func newStore(t *testing.T, kv domain.KeyValueStore, opts ...StoreOption) *ReportStore {
	t.Helper()
	s, err := NewReportStore(context.Background(), NewKVReportRepository(kv), append([]StoreOption{WithClock(fixedClock())}, opts...)...)
	require.NoError(t, err)
	return s
}

func draft(title string) domain.ReportDraft {
	return domain.ReportDraft{Title: title, Description: "d", Category: domain.CategoryWasteAccumulation, Location: "l", UserID: 1, UserName: "Budi"}
}

func TestNewReportStoreSeedsEmptyBackend(t *testing.T) {
	kv := newFlakyKV()
	s := newStore(t, kv)

	reports := s.List()
	require.Len(t, reports, 4)
	assert.Equal(t, []int64{1, 2, 3, 4}, []int64{reports[0].ID, reports[1].ID, reports[2].ID, reports[3].ID})

	raw, ok, err := kv.Get(context.Background(), ReportsKey)
	require.NoError(t, err)
	require.True(t, ok, "seed must be persisted")
	var persisted []domain.Report
	require.NoError(t, json.Unmarshal([]byte(raw), &persisted))
	assert.Equal(t, reports, persisted)
}

func TestNewReportStoreRecoversFromMalformedState(t *testing.T) {
	for name, raw := range map[string]string{
		"truncated json": `[{"id":1,`,
		"wrong shape":    `{"id":1}`,
		"null":           `null`,
	} {
		t.Run(name, func(t *testing.T) {
			kv := newFlakyKV()
			require.NoError(t, kv.Set(context.Background(), ReportsKey, raw))
			logger := newCaptureLogger()

			s := newStore(t, kv, WithStoreLogger(logger))

			assert.Equal(t, SeedReports(), s.List())
			assert.Contains(t, logger.buf.String(), "[WARN] persisted reports unreadable")
			stored, _, _ := kv.Get(context.Background(), ReportsKey)
			assert.NotEqual(t, raw, stored, "seed replaces the malformed value")
		})
	}
}

func TestNewReportStoreBackendErrorIsReturned(t *testing.T) {
	repo := failingLoadRepo{}
	_, err := NewReportStore(context.Background(), repo)
	assert.ErrorIs(t, err, errBackendDown)
}

type failingLoadRepo struct{ domain.ReportRepository }

func (failingLoadRepo) Load(context.Context) ([]domain.Report, bool, error) {
	return nil, false, errBackendDown
}

func TestAddAssignsPendingAndUniqueIDs(t *testing.T) {
	s := newStore(t, newFlakyKV())
	ctx := context.Background()

	first, err := s.Add(ctx, draft("t"))
	require.NoError(t, err)
	second, err := s.Add(ctx, draft("t"))
	require.NoError(t, err)

	assert.Equal(t, domain.ReportPending, first.Status)
	assert.Nil(t, first.VerifiedAt)
	assert.Equal(t, "2025-02-01T10:00:00.000Z", first.CreatedAt)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Greater(t, second.ID, first.ID)
	assert.Equal(t, int64(5), first.ID)

	list := s.List()
	assert.Equal(t, second.ID, list[0].ID, "newest first")
	assert.Equal(t, first.ID, list[1].ID)
}

func TestAddConcurrentIDsAreDistinct(t *testing.T) {
	s := newStore(t, newFlakyKV())
	var wg sync.WaitGroup
	ids := make(chan int64, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := s.Add(context.Background(), draft("c"))
			if err == nil {
				ids <- r.ID
			}
		}()
	}
	wg.Wait()
	close(ids)
	seen := map[int64]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, 20)
}

func TestAddRejectsInvalidDraftWithoutWriting(t *testing.T) {
	kv := newFlakyKV()
	s := newStore(t, kv)
	before := kv.setCount()

	_, err := s.Add(context.Background(), domain.ReportDraft{Title: "  ", Description: "d", Location: "l"})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Contains(t, err.Error(), msgTitleRequired)

	_, err = s.Add(context.Background(), domain.ReportDraft{Title: "t", Description: "d", Location: "l", Category: "banjir"})
	assert.True(t, domain.IsValidation(err))

	assert.Equal(t, before, kv.setCount())
	assert.Len(t, s.List(), 4)
}

func TestAddRollsBackOnPersistFailure(t *testing.T) {
	kv := newFlakyKV()
	s := newStore(t, kv)
	kv.setFail(true)

	_, err := s.Add(context.Background(), draft("t"))
	require.ErrorIs(t, err, errBackendDown)
	assert.Equal(t, SeedReports(), s.List())
}

func TestUpdateMissingIDIsNoop(t *testing.T) {
	repo := &countingRepo{ReportRepository: NewKVReportRepository(newFlakyKV())}
	s, err := NewReportStore(context.Background(), repo)
	require.NoError(t, err)
	saves := repo.saves
	before := s.List()

	status := domain.ReportVerified
	r, found, err := s.Update(context.Background(), 999, domain.ReportPatch{Status: &status})
	require.NoError(t, err)
	assert.False(t, found)
	assert.Zero(t, r)
	assert.Equal(t, before, s.List())
	assert.Equal(t, saves, repo.saves, "missing id must not re-persist")
}

func TestUpdateVerifyScenario(t *testing.T) {
	s := newStore(t, newFlakyKV())
	before := s.List()
	status := domain.ReportVerified

	r, found, err := s.Update(context.Background(), 2, domain.ReportPatch{Status: &status, VerifiedAt: strPtr("2025-01-11T09:15:00")})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, domain.ReportVerified, r.Status)
	assert.Equal(t, "2025-01-11T09:15:00", *r.VerifiedAt)

	after := s.List()
	for i := range before {
		if before[i].ID == 2 {
			continue
		}
		a, _ := json.Marshal(before[i])
		b, _ := json.Marshal(after[i])
		assert.JSONEq(t, string(a), string(b))
	}
}

func TestUpdateNormalizesVerificationInvariant(t *testing.T) {
	s := newStore(t, newFlakyKV())
	ctx := context.Background()

	verified := domain.ReportVerified
	r, _, err := s.Update(ctx, 1, domain.ReportPatch{Status: &verified})
	require.NoError(t, err)
	require.NotNil(t, r.VerifiedAt)
	assert.Equal(t, "2025-02-01T10:00:00.000Z", *r.VerifiedAt)

	r, _, err = s.Update(ctx, 3, domain.ReportPatch{VerifiedAt: strPtr("2025-01-20T00:00:00")})
	require.NoError(t, err)
	assert.Equal(t, domain.ReportPending, r.Status)
	assert.Nil(t, r.VerifiedAt)

	for _, rep := range s.List() {
		assert.Equal(t, rep.Status == domain.ReportVerified, rep.VerifiedAt != nil, "report %d", rep.ID)
	}
}

func TestUpdateRefusesToUnverify(t *testing.T) {
	kv := newFlakyKV()
	s := newStore(t, kv)
	ctx := context.Background()
	var events int
	s.Subscribe(func(ReportEvent) { events++ })
	writes := kv.setCount()

	pending := domain.ReportPending
	_, found, err := s.Update(ctx, 2, domain.ReportPatch{Status: &pending, Title: strPtr("x")})
	require.True(t, domain.IsValidation(err))
	assert.False(t, found)
	assert.Equal(t, writes, kv.setCount())
	assert.Zero(t, events)

	r, _ := s.Get(2)
	assert.Equal(t, domain.ReportVerified, r.Status)
	assert.Equal(t, "2025-01-11T09:15:00", *r.VerifiedAt)
	assert.Equal(t, "Pembuangan Sampah Liar", r.Title)
}

func TestUpdateLeavesUnspecifiedFields(t *testing.T) {
	s := newStore(t, newFlakyKV())
	orig, _ := s.Get(3)
	r, _, err := s.Update(context.Background(), 3, domain.ReportPatch{Title: strPtr("Saluran Tersumbat")})
	require.NoError(t, err)
	assert.Equal(t, "Saluran Tersumbat", r.Title)
	assert.Equal(t, orig.Description, r.Description)
	assert.Equal(t, orig.CreatedAt, r.CreatedAt)
	assert.Equal(t, orig.Status, r.Status)
}

func TestUpdateRejectsUnknownEnums(t *testing.T) {
	s := newStore(t, newFlakyKV())
	bad := domain.ReportStatus("rejected")
	_, _, err := s.Update(context.Background(), 1, domain.ReportPatch{Status: &bad})
	assert.True(t, domain.IsValidation(err))
	cat := domain.Category("banjir")
	_, _, err = s.Update(context.Background(), 1, domain.ReportPatch{Category: &cat})
	assert.True(t, domain.IsValidation(err))
}

func TestUpdateRollsBackOnPersistFailure(t *testing.T) {
	kv := newFlakyKV()
	s := newStore(t, kv)
	kv.setFail(true)
	status := domain.ReportVerified
	_, found, err := s.Update(context.Background(), 1, domain.ReportPatch{Status: &status})
	require.ErrorIs(t, err, errBackendDown)
	assert.False(t, found)
	r, _ := s.Get(1)
	assert.Equal(t, domain.ReportPending, r.Status)
}

func TestPersistReloadRoundTrip(t *testing.T) {
	kv := newFlakyKV()
	s := newStore(t, kv)
	ctx := context.Background()
	_, err := s.Add(ctx, draft("new"))
	require.NoError(t, err)
	assigned := true
	_, _, err = s.Update(ctx, 3, domain.ReportPatch{Assigned: &assigned, AssignedAt: strPtr("2025-02-01T10:00:00.000Z")})
	require.NoError(t, err)

	reloaded := newStore(t, kv)
	assert.Equal(t, s.List(), reloaded.List())
}

func TestListReturnsCopies(t *testing.T) {
	s := newStore(t, newFlakyKV())
	list := s.List()
	list[0].Title = "mutated"
	*list[1].VerifiedAt = "mutated"
	again := s.List()
	assert.NotEqual(t, "mutated", again[0].Title)
	assert.Equal(t, "2025-01-11T09:15:00", *again[1].VerifiedAt)
}

func TestSubscribeReceivesEventsOutsideLock(t *testing.T) {
	s := newStore(t, newFlakyKV())
	var events []ReportEvent
	unsubscribe := s.Subscribe(func(ev ReportEvent) {
		// reading the store from a listener must not deadlock
		_ = s.List()
		events = append(events, ev)
	})

	added, err := s.Add(context.Background(), draft("t"))
	require.NoError(t, err)
	status := domain.ReportVerified
	_, _, err = s.Update(context.Background(), added.ID, domain.ReportPatch{Status: &status})
	require.NoError(t, err)
	_, _, err = s.Update(context.Background(), 12345, domain.ReportPatch{Status: &status})
	require.NoError(t, err)

	require.Len(t, events, 2)
	assert.Equal(t, EventReportAdded, events[0].Kind)
	assert.Equal(t, EventReportUpdated, events[1].Kind)
	require.NotNil(t, events[1].Previous)
	assert.Equal(t, domain.ReportPending, events[1].Previous.Status)

	unsubscribe()
	unsubscribe()
	_, err = s.Add(context.Background(), draft("t2"))
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestCounts(t *testing.T) {
	s := newStore(t, newFlakyKV())
	counts := s.Counts()
	assert.Equal(t, 2, counts[domain.ReportPending])
	assert.Equal(t, 2, counts[domain.ReportVerified])
}
