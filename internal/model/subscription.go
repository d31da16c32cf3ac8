package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PushSubscription is one browser/device web-push registration. Endpoint is
// the natural key: re-subscribing from the same browser upserts the existing
// row rather than creating a duplicate.
type PushSubscription struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	UserID      *uuid.UUID      `db:"user_id" json:"user_id,omitempty"`
	Endpoint    string          `db:"endpoint" json:"endpoint"`
	P256dhKey   string          `db:"p256dh_key" json:"p256dh_key"`
	AuthKey     string          `db:"auth_key" json:"auth_key"`
	UserAgent   string          `db:"user_agent" json:"user_agent,omitempty"`
	BrowserInfo json.RawMessage `db:"browser_info" json:"browser_info,omitempty"`
	IsActive    bool            `db:"is_active" json:"is_active"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

func (s *PushSubscription) Validate() error {
	if s.Endpoint == "" {
		return fmt.Errorf("endpoint is required")
	}
	if s.P256dhKey == "" || s.AuthKey == "" {
		return fmt.Errorf("p256dh and auth keys are required")
	}
	return nil
}
