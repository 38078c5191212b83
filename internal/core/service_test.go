package core

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	blobcore "wasteportal/internal/blob/core"
	blobmemory "wasteportal/internal/infra/blob/memory"
	"wasteportal/pkg/domain"
)

func resident() domain.User { return seedAccounts()[0].user.Public() }

func TestSubmitReportStampsOwner(t *testing.T) {
	svc, _ := newTestService(t)
	r, err := svc.SubmitReport(context.Background(), resident(), domain.ReportDraft{
		Title: " Sampah ", Description: "d", Location: "l", UserID: 99, UserName: "spoofed",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), r.UserID)
	assert.Equal(t, "Budi Santoso", r.UserName)
	assert.Equal(t, "Sampah", r.Title)
	assert.Equal(t, domain.CategoryWasteAccumulation, r.Category)
	assert.Nil(t, r.Photo)
	assert.Len(t, svc.ReportsOf(1), 5)
}

func TestSubmitReportKeepsInlinePhotoWithoutBlobStore(t *testing.T) {
	svc, _ := newTestService(t)
	uri := EncodeDataURI("image/png", []byte("png"))
	r, err := svc.SubmitReport(context.Background(), resident(), domain.ReportDraft{
		Title: "t", Description: "d", Location: "l", Photo: &uri,
	})
	require.NoError(t, err)
	require.NotNil(t, r.Photo)
	assert.Equal(t, uri, *r.Photo)

	ct, rc, size, err := svc.Photos().Open(context.Background(), *r.Photo)
	require.NoError(t, err)
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	assert.Equal(t, "image/png", ct)
	assert.Equal(t, int64(3), size)
	assert.Equal(t, "png", string(body))
}

func TestSubmitReportMovesPhotoToBlobStore(t *testing.T) {
	blobs := blobmemory.New()
	svc, _ := newTestService(t, WithBlobStore(blobs))
	r, err := svc.SubmitReportWithPhoto(context.Background(), resident(),
		domain.ReportDraft{Title: "t", Description: "d", Location: "l"}, "image/jpeg", []byte("jpeg-bytes"))
	require.NoError(t, err)
	require.NotNil(t, r.Photo)
	assert.True(t, IsPhotoKey(*r.Photo))
	assert.True(t, strings.HasSuffix(*r.Photo, ".jpg"))

	list, err := blobs.List(context.Background(), PhotoPrefix)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "image/jpeg", list[0].ContentType)

	ct, rc, _, err := svc.Photos().Open(context.Background(), *r.Photo)
	require.NoError(t, err)
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	assert.Equal(t, "image/jpeg", ct)
	assert.Equal(t, "jpeg-bytes", string(body))
}

func TestSubmitReportValidatesBeforeStoringPhoto(t *testing.T) {
	blobs := blobmemory.New()
	svc, _ := newTestService(t, WithBlobStore(blobs))
	_, err := svc.SubmitReportWithPhoto(context.Background(), resident(),
		domain.ReportDraft{Title: "t", Description: "", Location: "l"}, "image/png", []byte("x"))
	require.True(t, domain.IsValidation(err))

	_, err = svc.SubmitReportWithPhoto(context.Background(), resident(),
		domain.ReportDraft{Title: "t", Description: "d", Location: "l"}, "application/pdf", []byte("x"))
	require.True(t, domain.IsValidation(err))
	assert.Contains(t, err.Error(), msgPhotoNotImage)

	list, _ := blobs.List(context.Background(), "")
	assert.Empty(t, list)
	assert.Len(t, svc.Reports().List(), 4)
}

func TestSubmitReportDelayHonoursContext(t *testing.T) {
	svc, _ := newTestService(t, WithDelays(0, time.Hour))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := svc.SubmitReport(ctx, resident(), draft("t"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestVerifyCreditsWalletOnce(t *testing.T) {
	logger := newCaptureLogger()
	svc, _ := newTestService(t, WithRewards(10, 100), WithLogger(logger))
	ctx := context.Background()

	r, found, err := svc.VerifyReport(ctx, 1)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, domain.ReportVerified, r.Status)
	assert.Equal(t, "2025-02-01T10:00:00.000Z", *r.VerifiedAt)

	_, _, err = svc.VerifyReport(ctx, 1)
	require.NoError(t, err)
	status := domain.ReportVerified
	_, _, err = svc.UpdateReport(ctx, 1, domain.ReportPatch{Status: &status})
	require.NoError(t, err)

	w, err := svc.Wallet(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(10), w.Points)
	assert.Equal(t, 1000.0, w.Balance)
	require.Len(t, w.History, 1)
	assert.Equal(t, "Laporan #1 terverifikasi", w.History[0].Reason)
	assert.Contains(t, logger.buf.String(), "[INFO] wallet credited")

	_, found, err = svc.VerifyReport(ctx, 404)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestAssignReport(t *testing.T) {
	svc, _ := newTestService(t)
	r, found, err := svc.AssignReport(context.Background(), 3)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, r.Assigned)
	assert.Equal(t, "2025-02-01T10:00:00.000Z", *r.AssignedAt)
	assert.Equal(t, domain.ReportPending, r.Status)
}

func TestListReports(t *testing.T) {
	svc, _ := newTestService(t)
	all, err := svc.ListReports("all")
	require.NoError(t, err)
	assert.Len(t, all, 4)
	verified, err := svc.ListReports("verified")
	require.NoError(t, err)
	assert.Len(t, verified, 2)
	_, err = svc.ListReports("rejected")
	assert.True(t, domain.IsValidation(err))
}

func TestSchedules(t *testing.T) {
	svc, _ := newTestService(t)
	assert.Len(t, svc.Schedules(""), 8)
	menteng := svc.Schedules("Kelurahan Menteng")
	require.Len(t, menteng, 3)
	assert.Equal(t, "Sabtu", menteng[2].Day)
	assert.Len(t, svc.ScheduleGroups(), 3)
	assert.Len(t, svc.WasteLog(1), 5)
	assert.Empty(t, svc.WasteLog(2))
}

func TestDashboards(t *testing.T) {
	svc, _ := newTestService(t)
	rd := svc.ResidentDashboard(resident())
	assert.Equal(t, 10.1, rd.TotalWasteKg)

	ad, err := svc.AgencyDashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, ad.TotalReports)
	assert.Equal(t, 1, ad.Residents)

	roster, err := svc.ResidentRoster(context.Background())
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Empty(t, roster[0].PasswordHash)
}

func TestPrometheusRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewPrometheusMetricsRecorder(reg)
	svc, _ := newTestService(t, WithMetrics(rec))

	_, err := svc.SubmitReport(context.Background(), resident(), draft("t"))
	require.NoError(t, err)
	_, err = svc.SubmitReport(context.Background(), resident(), domain.ReportDraft{})
	require.Error(t, err)
	_, err = svc.Session("tok").Login(context.Background(), "user", "wrong")
	require.Error(t, err)

	ops, _, gauge := rec.Collectors()
	assert.Equal(t, 1.0, testutil.ToFloat64(ops.WithLabelValues("report.add", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(ops.WithLabelValues("session.login", "error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(gauge.WithLabelValues("pending")))
	assert.Equal(t, 2.0, testutil.ToFloat64(gauge.WithLabelValues("verified")))

	rec.Observe(context.Background(), "", true, time.Second)
	count, err := testutil.GatherAndCount(reg, "wasteportal_operations_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestWalletToleratesUnreadableValues(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "points_1", "many"))
	require.NoError(t, store.Set(ctx, "history_1", "{"))
	w, err := svc.Wallet(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, w.Points)
	assert.Empty(t, w.History)

	w, err = svc.Wallets().Credit(ctx, 1, 5, "bonus")
	require.NoError(t, err)
	assert.Equal(t, int64(5), w.Points)
	raw, _, _ := store.Get(ctx, "points_1")
	assert.Equal(t, "5", raw)
}

func TestStdLoggerFormatsPairs(t *testing.T) {
	l := newCaptureLogger()
	l.Info("started", "addr", ":8080", "dangling")
	l.Debug("detail")
	assert.Equal(t, "[INFO] started addr=:8080 dangling\n[DEBUG] detail\n", l.buf.String())

	quiet := NewStdLogger(nil, false)
	quiet.Debug("dropped")
	noopLogger{}.Error("ignored")
}

func TestVerificationIsFinalAndRewardedOnce(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.VerifyReport(ctx, 1)
	require.NoError(t, err)
	pending := domain.ReportPending
	_, _, err = svc.UpdateReport(ctx, 1, domain.ReportPatch{Status: &pending})
	require.True(t, domain.IsValidation(err))
	r, _, err := svc.VerifyReport(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportVerified, r.Status)

	w, err := svc.Wallet(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(10), w.Points)
	assert.Len(t, w.History, 1)
}

func TestSubmitReportRemovesPhotoWhenSaveFails(t *testing.T) {
	blobs := blobmemory.New()
	logger := newCaptureLogger()
	svc, store := newTestService(t, WithBlobStore(blobs), WithLogger(logger))
	store.setFail(true)

	_, err := svc.SubmitReportWithPhoto(context.Background(), resident(),
		domain.ReportDraft{Title: "t", Description: "d", Location: "l"}, "image/png", []byte("png"))
	require.ErrorIs(t, err, errBackendDown)

	list, err := blobs.List(context.Background(), PhotoPrefix)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Len(t, svc.Reports().List(), 4)
	assert.NotContains(t, logger.buf.String(), "[ERROR]")
}

func TestPhotoStatAndPrune(t *testing.T) {
	ctx := context.Background()
	blobs := blobmemory.New()
	svc, _ := newTestService(t, WithBlobStore(blobs),
		WithNow(func() time.Time { return time.Now().Add(time.Hour) }))

	r, err := svc.SubmitReportWithPhoto(ctx, resident(),
		domain.ReportDraft{Title: "t", Description: "d", Location: "l"}, "image/png", []byte("png"))
	require.NoError(t, err)
	ct, size, err := svc.Photos().Stat(ctx, *r.Photo)
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)
	assert.Equal(t, int64(3), size)

	_, err = blobs.Put(ctx, PhotoPrefix+"orphan.png", strings.NewReader("x"), blobcore.PutOptions{ContentType: "image/png"})
	require.NoError(t, err)

	n, err := svc.PrunePhotos(ctx, 2*time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n, "recent photos are kept")

	n, err = svc.PrunePhotos(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	list, _ := blobs.List(ctx, PhotoPrefix)
	require.Len(t, list, 1)
	assert.Equal(t, *r.Photo, list[0].Key)

	_, _, err = svc.Photos().Stat(ctx, PhotoPrefix+"orphan.png")
	assert.ErrorIs(t, err, blobcore.ErrNotFound)
}

func TestWalletCreditRestoresOnPartialWrite(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	_, err := svc.Wallets().Credit(ctx, 1, 5, "bonus")
	require.NoError(t, err)

	store.failNthSet(2)
	_, err = svc.Wallets().Credit(ctx, 1, 10, "again")
	require.ErrorIs(t, err, errBackendDown)

	w, err := svc.Wallet(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(5), w.Points)
	assert.Equal(t, 500.0, w.Balance)
	require.Len(t, w.History, 1)
	assert.Equal(t, "bonus", w.History[0].Reason)

	store.failNthSet(3)
	_, err = svc.Wallets().Credit(ctx, 2, 10, "first")
	require.ErrorIs(t, err, errBackendDown)
	for _, key := range []string{"points_2", "balance_2", "history_2"} {
		_, ok, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok, key)
	}
}
