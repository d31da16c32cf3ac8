package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vqanh/storegate/internal/model"
	"github.com/vqanh/storegate/internal/repository"
	apperrors "github.com/vqanh/storegate/pkg/errors"
)

type notificationLogRepository struct {
	BaseRepository
}

func NewNotificationLogRepository(base BaseRepository) repository.NotificationLogRepository {
	return &notificationLogRepository{base}
}

func (r *notificationLogRepository) Create(ctx context.Context, log *model.NotificationLog) error {
	query := `
		INSERT INTO notification_logs (
			id, subscription_id, notification_id, title, body,
			data_payload, status, error_message, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	log.ID = uuid.New()
	log.CreatedAt = time.Now()
	log.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		log.ID,
		log.SubscriptionID,
		log.NotificationID,
		log.Title,
		log.Body,
		log.DataPayload,
		log.Status,
		log.ErrorMessage,
		log.CreatedAt,
		log.UpdatedAt,
	)
	if err != nil {
		return apperrors.Storage(fmt.Errorf("failed to create notification log: %w", err))
	}
	return nil
}

// UpdateStatus records a client-reported interaction (delivered/clicked) for
// every log row sharing the notification id.
func (r *notificationLogRepository) UpdateStatus(ctx context.Context, notificationID uuid.UUID, status model.DeliveryStatus) error {
	query := `
		UPDATE notification_logs
		SET status = $1, updated_at = $2
		WHERE notification_id = $3
	`
	if _, err := r.db.ExecContext(ctx, query, status, time.Now(), notificationID); err != nil {
		return apperrors.Storage(fmt.Errorf("failed to update notification status: %w", err))
	}
	return nil
}

func (r *notificationLogRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	query := `
		SELECT COUNT(*) FROM notification_logs
		WHERE status = $1 AND created_at >= $2
	`
	var count int64
	if err := r.db.GetContext(ctx, &count, query, model.DeliverySent, since); err != nil {
		return 0, apperrors.Storage(fmt.Errorf("failed to count notifications: %w", err))
	}
	return count, nil
}

func (r *notificationLogRepository) Stats(ctx context.Context, since time.Time) (*model.DeliveryStats, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'sent') AS sent,
			COUNT(*) FILTER (WHERE status = 'failed') AS failed,
			COUNT(*) FILTER (WHERE status = 'delivered') AS delivered,
			COUNT(*) FILTER (WHERE status = 'clicked') AS clicked
		FROM notification_logs
		WHERE created_at >= $1
	`
	var stats model.DeliveryStats
	if err := r.db.GetContext(ctx, &stats, query, since); err != nil {
		return nil, apperrors.Storage(fmt.Errorf("failed to get delivery stats: %w", err))
	}
	return &stats, nil
}

func (r *notificationLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM notification_logs
		WHERE created_at < $1
	`
	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, apperrors.Storage(fmt.Errorf("failed to delete old notification logs: %w", err))
	}
	return result.RowsAffected()
}
