package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vqanh/storegate/internal/model"
	"github.com/vqanh/storegate/internal/repository"
)

type announcementRepository struct {
	BaseRepository
}

func NewAnnouncementRepository(base BaseRepository) repository.AnnouncementRepository {
	return &announcementRepository{base}
}

func (r *announcementRepository) Create(ctx context.Context, a *model.Announcement) error {
	query := `
		INSERT INTO announcements (
			id, title, message, start_date, end_date,
			show_overlay, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		a.ID,
		a.Title,
		a.Message,
		a.StartDate,
		a.EndDate,
		a.ShowOverlay,
		a.IsActive,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create announcement: %w", err)
	}
	return nil
}

func (r *announcementRepository) Get(ctx context.Context, id uuid.UUID) (*model.Announcement, error) {
	query := `
		SELECT id, title, message, start_date, end_date,
			   show_overlay, is_active, created_at, updated_at
		FROM announcements
		WHERE id = $1
	`
	var a model.Announcement
	if err := r.db.GetContext(ctx, &a, query, id); err != nil {
		return nil, fmt.Errorf("failed to get announcement: %w", err)
	}
	return &a, nil
}

func (r *announcementRepository) Update(ctx context.Context, a *model.Announcement) error {
	query := `
		UPDATE announcements
		SET title = $1, message = $2, start_date = $3, end_date = $4,
			show_overlay = $5, is_active = $6, updated_at = $7
		WHERE id = $8
	`
	a.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		a.Title,
		a.Message,
		a.StartDate,
		a.EndDate,
		a.ShowOverlay,
		a.IsActive,
		a.UpdatedAt,
		a.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update announcement: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("announcement not found")
	}
	return nil
}

func (r *announcementRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		DELETE FROM announcements
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete announcement: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("announcement not found")
	}
	return nil
}

func (r *announcementRepository) List(ctx context.Context) ([]*model.Announcement, error) {
	query := `
		SELECT id, title, message, start_date, end_date,
			   show_overlay, is_active, created_at, updated_at
		FROM announcements
		ORDER BY start_date DESC
	`
	var list []*model.Announcement
	if err := r.db.SelectContext(ctx, &list, query); err != nil {
		return nil, fmt.Errorf("failed to list announcements: %w", err)
	}
	return list, nil
}

// GetActive picks the announcement in effect at now. With overlapping
// windows the latest start date wins.
func (r *announcementRepository) GetActive(ctx context.Context, now time.Time) (*model.Announcement, error) {
	query := `
		SELECT id, title, message, start_date, end_date,
			   show_overlay, is_active, created_at, updated_at
		FROM announcements
		WHERE is_active = true
		  AND start_date <= $1
		  AND end_date >= $1
		ORDER BY start_date DESC
		LIMIT 1
	`
	var a model.Announcement
	err := r.db.GetContext(ctx, &a, query, now)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active announcement: %w", err)
	}
	return &a, nil
}
