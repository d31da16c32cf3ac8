package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/vqanh/storegate/internal/repository"
	"github.com/vqanh/storegate/pkg/logger"
	"github.com/vqanh/storegate/pkg/metrics"
)

// RetentionWorker ages out old notification log rows on a fixed cadence.
type RetentionWorker struct {
	logs          repository.NotificationLogRepository
	retentionDays int
	interval      time.Duration
	logger        *logger.Logger
	metrics       *metrics.Metrics
}

func NewRetentionWorker(logs repository.NotificationLogRepository, retentionDays int, interval time.Duration, logger *logger.Logger, metrics *metrics.Metrics) *RetentionWorker {
	return &RetentionWorker{
		logs:          logs,
		retentionDays: retentionDays,
		interval:      interval,
		logger:        logger,
		metrics:       metrics,
	}
}

func (w *RetentionWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("starting notification log retention worker",
		"retention_days", w.retentionDays,
		"interval", w.interval.String(),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("stopping retention worker")
			return
		case <-ticker.C:
			if err := w.cleanup(ctx); err != nil {
				w.logger.Error(err, "failed to clean up notification logs")
			}
		}
	}
}

func (w *RetentionWorker) cleanup(ctx context.Context) error {
	cutoff := time.Now().AddDate(0, 0, -w.retentionDays)

	rows, err := w.logs.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		w.metrics.DatabaseOperations.WithLabelValues("delete_old_logs", "error").Inc()
		return fmt.Errorf("failed to delete old notification logs: %w", err)
	}
	w.metrics.DatabaseOperations.WithLabelValues("delete_old_logs", "success").Inc()

	w.logger.Info("cleaned up notification logs", "rows", rows, "cutoff", cutoff.Format(time.RFC3339))
	return nil
}
