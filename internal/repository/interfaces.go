package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vqanh/storegate/internal/model"
)

// All repository interfaces in one file
type (
	// HoursRepository stores the weekly operating-hours schedule. Exactly
	// seven rows exist, one per weekday; rows are updated, never deleted.
	HoursRepository interface {
		List(ctx context.Context) ([]*model.OperatingHours, error)
		GetByDay(ctx context.Context, dayOfWeek int) (*model.OperatingHours, error)
		BulkUpdate(ctx context.Context, entries []*model.OperatingHours) error
	}

	// AnnouncementRepository stores time-boxed announcements.
	AnnouncementRepository interface {
		Create(ctx context.Context, a *model.Announcement) error
		Get(ctx context.Context, id uuid.UUID) (*model.Announcement, error)
		Update(ctx context.Context, a *model.Announcement) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]*model.Announcement, error)
		// GetActive returns the announcement in effect at now, or nil when
		// none is. Overlapping windows tie-break on latest start date.
		GetActive(ctx context.Context, now time.Time) (*model.Announcement, error)
	}

	// SubscriptionRepository is the push subscription registry, keyed
	// uniquely on endpoint.
	SubscriptionRepository interface {
		Upsert(ctx context.Context, sub *model.PushSubscription) (uuid.UUID, error)
		Remove(ctx context.Context, endpoint string) error
		RemoveByID(ctx context.Context, id uuid.UUID) error
		Verify(ctx context.Context, endpoint string) (bool, error)
		ListActive(ctx context.Context, userID *uuid.UUID) ([]*model.PushSubscription, error)
		List(ctx context.Context) ([]*model.PushSubscription, error)
	}

	// NotificationLogRepository is the append-only delivery log.
	NotificationLogRepository interface {
		Create(ctx context.Context, log *model.NotificationLog) error
		UpdateStatus(ctx context.Context, notificationID uuid.UUID, status model.DeliveryStatus) error
		CountSince(ctx context.Context, since time.Time) (int64, error)
		Stats(ctx context.Context, since time.Time) (*model.DeliveryStats, error)
		DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	}

	// SettingsRepository stores the singleton notification settings row.
	SettingsRepository interface {
		Get(ctx context.Context) (*model.NotificationSettings, error)
		Update(ctx context.Context, s *model.NotificationSettings) error
	}
)
