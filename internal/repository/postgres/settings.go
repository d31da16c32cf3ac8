package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vqanh/storegate/internal/model"
	"github.com/vqanh/storegate/internal/repository"
	apperrors "github.com/vqanh/storegate/pkg/errors"
)

type settingsRepository struct {
	BaseRepository
}

func NewSettingsRepository(base BaseRepository) repository.SettingsRepository {
	return &settingsRepository{base}
}

// Get returns the singleton settings row, or defaults when it has never
// been written.
func (r *settingsRepository) Get(ctx context.Context) (*model.NotificationSettings, error) {
	query := `
		SELECT shop_status_enabled, order_status_enabled, announcements_enabled,
			   marketing_enabled, max_daily, quiet_hours_start, quiet_hours_end,
			   updated_at
		FROM notification_settings
		WHERE id = 1
	`
	var s model.NotificationSettings
	err := r.db.GetContext(ctx, &s, query)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DefaultNotificationSettings(), nil
	}
	if err != nil {
		return nil, apperrors.Storage(fmt.Errorf("failed to get notification settings: %w", err))
	}
	return &s, nil
}

func (r *settingsRepository) Update(ctx context.Context, s *model.NotificationSettings) error {
	query := `
		INSERT INTO notification_settings (
			id, shop_status_enabled, order_status_enabled, announcements_enabled,
			marketing_enabled, max_daily, quiet_hours_start, quiet_hours_end, updated_at
		) VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			shop_status_enabled = EXCLUDED.shop_status_enabled,
			order_status_enabled = EXCLUDED.order_status_enabled,
			announcements_enabled = EXCLUDED.announcements_enabled,
			marketing_enabled = EXCLUDED.marketing_enabled,
			max_daily = EXCLUDED.max_daily,
			quiet_hours_start = EXCLUDED.quiet_hours_start,
			quiet_hours_end = EXCLUDED.quiet_hours_end,
			updated_at = EXCLUDED.updated_at
	`
	s.UpdatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, query,
		s.ShopStatusEnabled,
		s.OrderStatusEnabled,
		s.AnnouncementsEnabled,
		s.MarketingEnabled,
		s.MaxDaily,
		s.QuietHoursStart,
		s.QuietHoursEnd,
		s.UpdatedAt,
	)
	if err != nil {
		return apperrors.Storage(fmt.Errorf("failed to update notification settings: %w", err))
	}
	return nil
}
