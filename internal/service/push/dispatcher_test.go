package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vqanh/storegate/internal/model"
	apperrors "github.com/vqanh/storegate/pkg/errors"
	"github.com/vqanh/storegate/pkg/logger"
	"github.com/vqanh/storegate/pkg/metrics"
)

var (
	pushMetricsOnce sync.Once
	pushMetrics     *metrics.Metrics
)

func newTestDispatcher(subs *fakeSubRepo, logs *fakeLogRepo, settings *fakeSettingsRepo, transport Transport, cfg DispatcherConfig) *Dispatcher {
	pushMetricsOnce.Do(func() {
		pushMetrics = metrics.NewMetrics("storegate_test", "push")
	})
	log := logger.NewLogger(&logger.Config{
		Level:      logger.ErrorLevel,
		TimeFormat: time.RFC3339,
		Output:     io.Discard,
	})
	return NewDispatcher(subs, logs, settings, transport, cfg, log, pushMetrics)
}

// fakeTransport fails endpoints listed in gone with a terminal error and
// endpoints listed in flaky with a transient one; everything else succeeds.
type fakeTransport struct {
	mu       sync.Mutex
	gone     map[string]bool
	flaky    map[string]bool
	sent     []string
	times    []time.Time
	payloads map[string][]byte
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		gone:     map[string]bool{},
		flaky:    map[string]bool{},
		payloads: map[string][]byte{},
	}
}

func (f *fakeTransport) Send(ctx context.Context, sub *model.PushSubscription, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sub.Endpoint)
	f.times = append(f.times, time.Now())
	f.payloads[sub.Endpoint] = payload
	if f.gone[sub.Endpoint] {
		return apperrors.EndpointGone(errors.New("push service returned 410"))
	}
	if f.flaky[sub.Endpoint] {
		return apperrors.TransientSend(errors.New("push service returned 500"))
	}
	return nil
}

func (f *fakeTransport) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeTransport) sendTimes() []time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Time(nil), f.times...)
}

type fakeSubRepo struct {
	mu      sync.Mutex
	subs    []*model.PushSubscription
	removed []string
}

func (f *fakeSubRepo) Upsert(ctx context.Context, sub *model.PushSubscription) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.subs {
		if existing.Endpoint == sub.Endpoint {
			existing.P256dhKey = sub.P256dhKey
			existing.AuthKey = sub.AuthKey
			existing.IsActive = true
			return existing.ID, nil
		}
	}
	sub.ID = uuid.New()
	sub.IsActive = true
	f.subs = append(f.subs, sub)
	return sub.ID, nil
}

func (f *fakeSubRepo) Remove(ctx context.Context, endpoint string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, endpoint)
	for i, s := range f.subs {
		if s.Endpoint == endpoint {
			f.subs = append(f.subs[:i], f.subs[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeSubRepo) RemoveByID(ctx context.Context, id uuid.UUID) error { return nil }

func (f *fakeSubRepo) Verify(ctx context.Context, endpoint string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.subs {
		if s.Endpoint == endpoint && s.IsActive {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSubRepo) ListActive(ctx context.Context, userID *uuid.UUID) ([]*model.PushSubscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*model.PushSubscription, 0, len(f.subs))
	for _, s := range f.subs {
		if !s.IsActive {
			continue
		}
		if userID != nil && (s.UserID == nil || *s.UserID != *userID) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeSubRepo) List(ctx context.Context) ([]*model.PushSubscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subs, nil
}

func (f *fakeSubRepo) removedEndpoints() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.removed...)
}

type fakeLogRepo struct {
	mu        sync.Mutex
	rows      []*model.NotificationLog
	sentSince int64
	lastSince time.Time
	countErr  error
}

func (f *fakeLogRepo) Create(ctx context.Context, row *model.NotificationLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, row)
	return nil
}

func (f *fakeLogRepo) UpdateStatus(ctx context.Context, notificationID uuid.UUID, status model.DeliveryStatus) error {
	return nil
}

func (f *fakeLogRepo) CountSince(ctx context.Context, since time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSince = since
	return f.sentSince, f.countErr
}

func (f *fakeLogRepo) Stats(ctx context.Context, since time.Time) (*model.DeliveryStats, error) {
	return &model.DeliveryStats{}, nil
}

func (f *fakeLogRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeLogRepo) byStatus(status model.DeliveryStatus) []*model.NotificationLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.NotificationLog
	for _, r := range f.rows {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out
}

type fakeSettingsRepo struct {
	settings *model.NotificationSettings
	err      error
}

func (f *fakeSettingsRepo) Get(ctx context.Context) (*model.NotificationSettings, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.settings == nil {
		return model.DefaultNotificationSettings(), nil
	}
	return f.settings, nil
}

func (f *fakeSettingsRepo) Update(ctx context.Context, s *model.NotificationSettings) error {
	f.settings = s
	return nil
}

func seedSubs(repo *fakeSubRepo, n int) {
	for i := 0; i < n; i++ {
		repo.subs = append(repo.subs, &model.PushSubscription{
			ID:        uuid.New(),
			Endpoint:  fmt.Sprintf("https://push.example.com/sub-%03d", i),
			P256dhKey: "p256dh",
			AuthKey:   "auth",
			IsActive:  true,
		})
	}
}

func TestSendToAllReachesEverySubscription(t *testing.T) {
	subs := &fakeSubRepo{}
	seedSubs(subs, 250)
	logs := &fakeLogRepo{}
	transport := newFakeTransport()
	d := newTestDispatcher(subs, logs, &fakeSettingsRepo{}, transport, DispatcherConfig{
		BatchSize:  100,
		BatchDelay: time.Millisecond,
	})

	res, err := d.SendToAll(context.Background(), SpecialAnnouncement("Khuyến mãi", "Giảm 10% hôm nay", ""), model.CategorySpecialAnnouncement, nil)
	require.NoError(t, err)

	assert.Equal(t, 250, res.Sent)
	assert.Equal(t, 0, res.Failed)
	assert.Equal(t, 250, transport.sentCount(), "every subscription got exactly one attempt")
	assert.Len(t, logs.byStatus(model.DeliverySent), 250)
}

func TestSendToAllBatchesWithInterBatchDelay(t *testing.T) {
	subs := &fakeSubRepo{}
	seedSubs(subs, 250)
	transport := newFakeTransport()
	delay := 120 * time.Millisecond
	d := newTestDispatcher(subs, &fakeLogRepo{}, &fakeSettingsRepo{}, transport, DispatcherConfig{
		BatchSize:  100,
		BatchDelay: delay,
	})

	start := time.Now()
	res, err := d.SendToAll(context.Background(), SpecialAnnouncement("t", "m", ""), model.CategorySpecialAnnouncement, nil)
	elapsed := time.Since(start)
	require.NoError(t, err)
	require.Equal(t, 250, res.Sent)

	times := transport.sendTimes()
	require.Len(t, times, 250)
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	// Sends within a batch land back to back; the configured delay separates
	// one batch from the next. Cluster the timestamps on that gap.
	var batches []int
	size := 1
	for i := 1; i < len(times); i++ {
		gap := times[i].Sub(times[i-1])
		if gap >= delay/2 {
			assert.GreaterOrEqual(t, gap, delay, "batch gap shorter than the configured delay")
			batches = append(batches, size)
			size = 1
			continue
		}
		size++
	}
	batches = append(batches, size)

	assert.Equal(t, []int{100, 100, 50}, batches)
	assert.GreaterOrEqual(t, elapsed, 2*delay, "two inter-batch delays expected for three batches")
}

func TestSendToAllCountsMatchSubscriptionTotal(t *testing.T) {
	subs := &fakeSubRepo{}
	seedSubs(subs, 30)
	transport := newFakeTransport()
	transport.gone["https://push.example.com/sub-003"] = true
	transport.flaky["https://push.example.com/sub-017"] = true
	transport.flaky["https://push.example.com/sub-021"] = true
	logs := &fakeLogRepo{}
	d := newTestDispatcher(subs, logs, &fakeSettingsRepo{}, transport, DispatcherConfig{BatchSize: 10, BatchDelay: time.Millisecond})

	res, err := d.SendToAll(context.Background(), SpecialAnnouncement("t", "m", ""), model.CategorySpecialAnnouncement, nil)
	require.NoError(t, err)

	assert.Equal(t, 27, res.Sent)
	assert.Equal(t, 3, res.Failed)
	assert.Equal(t, 30, res.Sent+res.Failed)
}

func TestGoneEndpointIsPruned(t *testing.T) {
	subs := &fakeSubRepo{}
	seedSubs(subs, 3)
	prunedID := subs.subs[1].ID
	transport := newFakeTransport()
	transport.gone["https://push.example.com/sub-001"] = true
	logs := &fakeLogRepo{}
	d := newTestDispatcher(subs, logs, &fakeSettingsRepo{}, transport, DispatcherConfig{BatchDelay: time.Millisecond})

	res, err := d.SendToAll(context.Background(), SpecialAnnouncement("t", "m", ""), model.CategorySpecialAnnouncement, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Sent)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, []string{"https://push.example.com/sub-001"}, subs.removedEndpoints())

	remaining, err := subs.ListActive(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, remaining, 2)

	// Pruning the endpoint must not take its delivery history with it: the
	// failed attempt stays logged against the subscription that was removed.
	failed := logs.byStatus(model.DeliveryFailed)
	require.Len(t, failed, 1)
	require.NotNil(t, failed[0].SubscriptionID)
	assert.Equal(t, prunedID, *failed[0].SubscriptionID)
}

func TestTransientFailureKeepsSubscription(t *testing.T) {
	subs := &fakeSubRepo{}
	seedSubs(subs, 2)
	transport := newFakeTransport()
	transport.flaky["https://push.example.com/sub-000"] = true
	logs := &fakeLogRepo{}
	d := newTestDispatcher(subs, logs, &fakeSettingsRepo{}, transport, DispatcherConfig{BatchDelay: time.Millisecond})

	res, err := d.SendToAll(context.Background(), SpecialAnnouncement("t", "m", ""), model.CategorySpecialAnnouncement, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Failed)
	assert.Empty(t, subs.removedEndpoints())

	failed := logs.byStatus(model.DeliveryFailed)
	require.Len(t, failed, 1)
	require.NotNil(t, failed[0].ErrorMessage)
	assert.Contains(t, *failed[0].ErrorMessage, "500")
}

func TestSendToAllSkippedWhenCategoryDisabled(t *testing.T) {
	subs := &fakeSubRepo{}
	seedSubs(subs, 5)
	transport := newFakeTransport()
	settings := model.DefaultNotificationSettings()
	settings.MarketingEnabled = false
	d := newTestDispatcher(subs, &fakeLogRepo{}, &fakeSettingsRepo{settings: settings}, transport, DispatcherConfig{})

	res, err := d.SendToAll(context.Background(), MarketingNotification("t", "m", ""), model.CategoryMarketing, nil)
	require.NoError(t, err)

	assert.True(t, res.Skipped)
	assert.Equal(t, "category disabled", res.Reason)
	assert.Zero(t, transport.sentCount())
}

func TestSendToAllSkippedDuringQuietHours(t *testing.T) {
	subs := &fakeSubRepo{}
	seedSubs(subs, 5)
	transport := newFakeTransport()
	settings := model.DefaultNotificationSettings()
	// Build a window guaranteed to contain the current wall clock.
	now := time.Now()
	settings.QuietHoursStart = now.Add(-time.Hour).Format("15:04")
	settings.QuietHoursEnd = now.Add(time.Hour).Format("15:04")
	d := newTestDispatcher(subs, &fakeLogRepo{}, &fakeSettingsRepo{settings: settings}, transport, DispatcherConfig{})

	res, err := d.SendToAll(context.Background(), SpecialAnnouncement("t", "m", ""), model.CategorySpecialAnnouncement, nil)
	require.NoError(t, err)

	assert.True(t, res.Skipped)
	assert.Equal(t, "quiet hours", res.Reason)
	assert.Zero(t, transport.sentCount())
}

func TestSendToAllSkippedAtDailyCap(t *testing.T) {
	subs := &fakeSubRepo{}
	seedSubs(subs, 5)
	transport := newFakeTransport()
	settings := model.DefaultNotificationSettings()
	settings.MaxDaily = 10
	logs := &fakeLogRepo{sentSince: 10}
	d := newTestDispatcher(subs, logs, &fakeSettingsRepo{settings: settings}, transport, DispatcherConfig{})

	res, err := d.SendToAll(context.Background(), SpecialAnnouncement("t", "m", ""), model.CategorySpecialAnnouncement, nil)
	require.NoError(t, err)

	assert.True(t, res.Skipped)
	assert.Equal(t, "daily cap reached", res.Reason)
	assert.Zero(t, transport.sentCount())

	// The cap window opens at local midnight of the current day.
	since := logs.lastSince
	assert.Zero(t, since.Hour())
	assert.Zero(t, since.Minute())
	assert.Zero(t, since.Second())
	assert.Equal(t, time.Local, since.Location())
	assert.False(t, since.After(time.Now()))
	assert.Less(t, time.Since(since), 25*time.Hour)
}

func TestStartOfDayUsesLocalMidnight(t *testing.T) {
	ict := time.FixedZone("ICT", 7*3600)

	at := time.Date(2026, 3, 9, 1, 30, 0, 0, ict)
	got := startOfDay(at)
	assert.True(t, got.Equal(time.Date(2026, 3, 9, 0, 0, 0, 0, ict)))
	assert.Equal(t, ict, got.Location())
	// Truncating to 24h would land on UTC midnight, 07:00 local, a different
	// instant that shifts the cap window by the zone offset.
	assert.False(t, got.Equal(at.Truncate(24*time.Hour)))

	late := time.Date(2026, 3, 9, 23, 59, 0, 0, ict)
	assert.True(t, startOfDay(late).Equal(got), "same calendar day shares one window start")
}

func TestSendToAllProceedsWhenSettingsUnavailable(t *testing.T) {
	subs := &fakeSubRepo{}
	seedSubs(subs, 2)
	transport := newFakeTransport()
	d := newTestDispatcher(subs, &fakeLogRepo{}, &fakeSettingsRepo{err: errors.New("settings table missing")}, transport, DispatcherConfig{BatchDelay: time.Millisecond})

	res, err := d.SendToAll(context.Background(), SpecialAnnouncement("t", "m", ""), model.CategorySpecialAnnouncement, nil)
	require.NoError(t, err)

	assert.False(t, res.Skipped, "a broken settings read must not silence notifications")
	assert.Equal(t, 2, res.Sent)
}

func TestSendToAllFiltersByUser(t *testing.T) {
	subs := &fakeSubRepo{}
	seedSubs(subs, 4)
	target := uuid.New()
	subs.subs[1].UserID = &target
	subs.subs[3].UserID = &target
	transport := newFakeTransport()
	d := newTestDispatcher(subs, &fakeLogRepo{}, &fakeSettingsRepo{}, transport, DispatcherConfig{BatchDelay: time.Millisecond})

	res, err := d.SendToAll(context.Background(), OrderStatusNotification("42", "Món đã sẵn sàng"), model.CategoryOrderStatus, &target)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Sent)
	assert.Equal(t, 2, transport.sentCount())
}

func TestPayloadIsStampedPerDispatch(t *testing.T) {
	subs := &fakeSubRepo{}
	seedSubs(subs, 1)
	transport := newFakeTransport()
	logs := &fakeLogRepo{}
	d := newTestDispatcher(subs, logs, &fakeSettingsRepo{}, transport, DispatcherConfig{BatchDelay: time.Millisecond})
	payload := ShopStatusNotification(false, "Quán đóng cửa sớm hôm nay")

	_, err := d.SendToAll(context.Background(), payload, model.CategoryShopStatus, nil)
	require.NoError(t, err)

	raw := transport.payloads["https://push.example.com/sub-000"]
	require.NotNil(t, raw)

	var sent model.NotificationPayload
	require.NoError(t, json.Unmarshal(raw, &sent))

	firstID := sent.Data["notificationId"]
	require.NotEmpty(t, firstID)
	_, err = uuid.Parse(firstID)
	assert.NoError(t, err)

	_, err = time.Parse(time.RFC3339, sent.Data["timestamp"])
	assert.NoError(t, err)
	assert.Equal(t, "/", sent.Data["url"])
	assert.Empty(t, payload.Data["notificationId"], "the caller's payload is never mutated")

	// A second dispatch of the same payload gets a fresh id.
	_, err = d.SendToAll(context.Background(), payload, model.CategoryShopStatus, nil)
	require.NoError(t, err)

	var again model.NotificationPayload
	require.NoError(t, json.Unmarshal(transport.payloads["https://push.example.com/sub-000"], &again))
	assert.NotEqual(t, firstID, again.Data["notificationId"])
}

func TestLogRowCarriesNotificationID(t *testing.T) {
	subs := &fakeSubRepo{}
	seedSubs(subs, 1)
	transport := newFakeTransport()
	logs := &fakeLogRepo{}
	d := newTestDispatcher(subs, logs, &fakeSettingsRepo{}, transport, DispatcherConfig{BatchDelay: time.Millisecond})

	_, err := d.SendToAll(context.Background(), SpecialAnnouncement("t", "m", ""), model.CategorySpecialAnnouncement, nil)
	require.NoError(t, err)

	rows := logs.byStatus(model.DeliverySent)
	require.Len(t, rows, 1)
	assert.NotEqual(t, uuid.Nil, rows[0].NotificationID)

	var sent model.NotificationPayload
	require.NoError(t, json.Unmarshal(transport.payloads["https://push.example.com/sub-000"], &sent))
	assert.Equal(t, sent.Data["notificationId"], rows[0].NotificationID.String(), "log row and payload share the id")
}
