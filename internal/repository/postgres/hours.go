package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/vqanh/storegate/internal/model"
	"github.com/vqanh/storegate/internal/repository"
)

type hoursRepository struct {
	BaseRepository
}

func NewHoursRepository(base BaseRepository) repository.HoursRepository {
	return &hoursRepository{base}
}

func (r *hoursRepository) List(ctx context.Context) ([]*model.OperatingHours, error) {
	query := `
		SELECT day_of_week, open_time, close_time, is_open, updated_at
		FROM operating_hours
		ORDER BY day_of_week ASC
	`
	var entries []*model.OperatingHours
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("failed to list operating hours: %w", err)
	}
	return entries, nil
}

func (r *hoursRepository) GetByDay(ctx context.Context, dayOfWeek int) (*model.OperatingHours, error) {
	query := `
		SELECT day_of_week, open_time, close_time, is_open, updated_at
		FROM operating_hours
		WHERE day_of_week = $1
	`
	var entry model.OperatingHours
	if err := r.db.GetContext(ctx, &entry, query, dayOfWeek); err != nil {
		return nil, fmt.Errorf("failed to get operating hours for day %d: %w", dayOfWeek, err)
	}
	return &entry, nil
}

// BulkUpdate replaces the weekly schedule in one transaction so clients never
// observe a half-updated week.
func (r *hoursRepository) BulkUpdate(ctx context.Context, entries []*model.OperatingHours) error {
	if len(entries) != 7 {
		return fmt.Errorf("expected 7 schedule entries, got %d", len(entries))
	}

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE operating_hours
			SET open_time = $1, close_time = $2, is_open = $3, updated_at = $4
			WHERE day_of_week = $5
		`
		now := time.Now()
		for _, e := range entries {
			e.UpdatedAt = now
			result, err := tx.ExecContext(ctx, query,
				e.OpenTime,
				e.CloseTime,
				e.IsOpen,
				e.UpdatedAt,
				e.DayOfWeek,
			)
			if err != nil {
				return fmt.Errorf("failed to update day %d: %w", e.DayOfWeek, err)
			}
			rows, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to get rows affected: %w", err)
			}
			if rows == 0 {
				return fmt.Errorf("no schedule row for day %d", e.DayOfWeek)
			}
		}
		return nil
	})
}
