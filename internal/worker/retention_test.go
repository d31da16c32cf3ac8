package worker

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vqanh/storegate/internal/model"
	"github.com/vqanh/storegate/pkg/logger"
	"github.com/vqanh/storegate/pkg/metrics"
)

var (
	workerMetricsOnce sync.Once
	workerMetrics     *metrics.Metrics
)

func newTestRetentionWorker(logs *fakeRetentionLogs, retentionDays int) *RetentionWorker {
	workerMetricsOnce.Do(func() {
		workerMetrics = metrics.NewMetrics("storegate_test", "worker")
	})
	log := logger.NewLogger(&logger.Config{
		Level:      logger.ErrorLevel,
		TimeFormat: time.RFC3339,
		Output:     io.Discard,
	})
	return NewRetentionWorker(logs, retentionDays, time.Hour, log, workerMetrics)
}

type fakeRetentionLogs struct {
	cutoffs []time.Time
	rows    int64
	err     error
}

func (f *fakeRetentionLogs) Create(ctx context.Context, row *model.NotificationLog) error {
	return nil
}

func (f *fakeRetentionLogs) UpdateStatus(ctx context.Context, notificationID uuid.UUID, status model.DeliveryStatus) error {
	return nil
}

func (f *fakeRetentionLogs) CountSince(ctx context.Context, since time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeRetentionLogs) Stats(ctx context.Context, since time.Time) (*model.DeliveryStats, error) {
	return &model.DeliveryStats{}, nil
}

func (f *fakeRetentionLogs) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	f.cutoffs = append(f.cutoffs, cutoff)
	return f.rows, f.err
}

func TestCleanupDeletesRowsPastRetention(t *testing.T) {
	logs := &fakeRetentionLogs{rows: 12}
	w := newTestRetentionWorker(logs, 30)
	before := testutil.ToFloat64(workerMetrics.DatabaseOperations.WithLabelValues("delete_old_logs", "success"))

	require.NoError(t, w.cleanup(context.Background()))

	require.Len(t, logs.cutoffs, 1)
	want := time.Now().AddDate(0, 0, -30)
	assert.WithinDuration(t, want, logs.cutoffs[0], time.Minute)

	after := testutil.ToFloat64(workerMetrics.DatabaseOperations.WithLabelValues("delete_old_logs", "success"))
	assert.Equal(t, before+1, after)
}

func TestCleanupReportsStorageError(t *testing.T) {
	logs := &fakeRetentionLogs{err: errors.New("relation does not exist")}
	w := newTestRetentionWorker(logs, 7)
	before := testutil.ToFloat64(workerMetrics.DatabaseOperations.WithLabelValues("delete_old_logs", "error"))

	err := w.cleanup(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relation does not exist")

	after := testutil.ToFloat64(workerMetrics.DatabaseOperations.WithLabelValues("delete_old_logs", "error"))
	assert.Equal(t, before+1, after)
}
