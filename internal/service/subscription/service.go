package subscription

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/vqanh/storegate/internal/model"
	"github.com/vqanh/storegate/internal/repository"
	apperrors "github.com/vqanh/storegate/pkg/errors"
)

type Servicer interface {
	Subscribe(ctx context.Context, sub *model.PushSubscription, userID *uuid.UUID, userAgent string, browserInfo json.RawMessage) (uuid.UUID, error)
	Unsubscribe(ctx context.Context, endpoint string) error
	Verify(ctx context.Context, endpoint string) (bool, error)
	ListActive(ctx context.Context, userID *uuid.UUID) ([]*model.PushSubscription, error)
	List(ctx context.Context) ([]*model.PushSubscription, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	repo repository.SubscriptionRepository
}

func NewService(repo repository.SubscriptionRepository) *Service {
	return &Service{repo: repo}
}

// Subscribe registers or refreshes a push subscription. Re-subscribing from
// the same browser updates the stored keys and reactivates the row.
func (s *Service) Subscribe(ctx context.Context, sub *model.PushSubscription, userID *uuid.UUID, userAgent string, browserInfo json.RawMessage) (uuid.UUID, error) {
	if err := sub.Validate(); err != nil {
		return uuid.Nil, apperrors.InvalidSubscription("invalid subscription data", err)
	}

	sub.UserID = userID
	sub.UserAgent = userAgent
	sub.BrowserInfo = browserInfo

	id, err := s.repo.Upsert(ctx, sub)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to register subscription: %w", err)
	}
	return id, nil
}

// Unsubscribe hard-deletes by endpoint; absent endpoints are a no-op.
func (s *Service) Unsubscribe(ctx context.Context, endpoint string) error {
	if endpoint == "" {
		return apperrors.InvalidSubscription("endpoint is required", nil)
	}
	return s.repo.Remove(ctx, endpoint)
}

func (s *Service) Verify(ctx context.Context, endpoint string) (bool, error) {
	if endpoint == "" {
		return false, apperrors.InvalidSubscription("endpoint is required", nil)
	}
	return s.repo.Verify(ctx, endpoint)
}

func (s *Service) ListActive(ctx context.Context, userID *uuid.UUID) ([]*model.PushSubscription, error) {
	return s.repo.ListActive(ctx, userID)
}

func (s *Service) List(ctx context.Context) ([]*model.PushSubscription, error) {
	return s.repo.List(ctx)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.RemoveByID(ctx, id)
}
