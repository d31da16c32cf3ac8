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

type subscriptionRepository struct {
	BaseRepository
}

func NewSubscriptionRepository(base BaseRepository) repository.SubscriptionRepository {
	return &subscriptionRepository{base}
}

// Upsert inserts a subscription or, when the endpoint is already registered,
// refreshes its keys and metadata and reactivates it. Last write wins on
// concurrent upserts for the same endpoint.
func (r *subscriptionRepository) Upsert(ctx context.Context, sub *model.PushSubscription) (uuid.UUID, error) {
	query := `
		INSERT INTO push_subscriptions (
			id, user_id, endpoint, p256dh_key, auth_key,
			user_agent, browser_info, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, true, $8, $8)
		ON CONFLICT (endpoint) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			p256dh_key = EXCLUDED.p256dh_key,
			auth_key = EXCLUDED.auth_key,
			user_agent = EXCLUDED.user_agent,
			browser_info = EXCLUDED.browser_info,
			is_active = true,
			updated_at = EXCLUDED.updated_at
		RETURNING id
	`
	now := time.Now()
	var id uuid.UUID
	err := r.db.QueryRowContext(ctx, query,
		uuid.New(),
		sub.UserID,
		sub.Endpoint,
		sub.P256dhKey,
		sub.AuthKey,
		sub.UserAgent,
		sub.BrowserInfo,
		now,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, apperrors.Storage(fmt.Errorf("failed to upsert subscription: %w", err))
	}
	sub.ID = id
	return id, nil
}

// Remove hard-deletes by endpoint. Removing an absent endpoint is not an
// error.
func (r *subscriptionRepository) Remove(ctx context.Context, endpoint string) error {
	query := `
		DELETE FROM push_subscriptions
		WHERE endpoint = $1
	`
	if _, err := r.db.ExecContext(ctx, query, endpoint); err != nil {
		return apperrors.Storage(fmt.Errorf("failed to remove subscription: %w", err))
	}
	return nil
}

func (r *subscriptionRepository) RemoveByID(ctx context.Context, id uuid.UUID) error {
	query := `
		DELETE FROM push_subscriptions
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return apperrors.Storage(fmt.Errorf("failed to remove subscription: %w", err))
	}
	return nil
}

func (r *subscriptionRepository) Verify(ctx context.Context, endpoint string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM push_subscriptions
			WHERE endpoint = $1 AND is_active = true
		)
	`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, endpoint); err != nil {
		return false, apperrors.Storage(fmt.Errorf("failed to verify subscription: %w", err))
	}
	return exists, nil
}

func (r *subscriptionRepository) ListActive(ctx context.Context, userID *uuid.UUID) ([]*model.PushSubscription, error) {
	query := `
		SELECT id, user_id, endpoint, p256dh_key, auth_key,
			   user_agent, browser_info, is_active, created_at, updated_at
		FROM push_subscriptions
		WHERE is_active = true
	`
	args := []interface{}{}
	if userID != nil {
		query += ` AND user_id = $1`
		args = append(args, *userID)
	}
	query += ` ORDER BY created_at ASC`

	var subs []*model.PushSubscription
	if err := r.db.SelectContext(ctx, &subs, query, args...); err != nil {
		return nil, apperrors.Storage(fmt.Errorf("failed to list subscriptions: %w", err))
	}
	return subs, nil
}

func (r *subscriptionRepository) List(ctx context.Context) ([]*model.PushSubscription, error) {
	query := `
		SELECT id, user_id, endpoint, p256dh_key, auth_key,
			   user_agent, browser_info, is_active, created_at, updated_at
		FROM push_subscriptions
		ORDER BY created_at DESC
	`
	var subs []*model.PushSubscription
	if err := r.db.SelectContext(ctx, &subs, query); err != nil {
		return nil, apperrors.Storage(fmt.Errorf("failed to list subscriptions: %w", err))
	}
	return subs, nil
}
