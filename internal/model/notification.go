package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type DeliveryStatus string

const (
	DeliverySent      DeliveryStatus = "sent"
	DeliveryFailed    DeliveryStatus = "failed"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryClicked   DeliveryStatus = "clicked"
)

// NotificationCategory selects payload defaults and the settings toggle that
// gates dispatch.
type NotificationCategory string

const (
	CategoryShopStatus          NotificationCategory = "shop_status"
	CategoryOrderStatus         NotificationCategory = "order_status"
	CategorySpecialAnnouncement NotificationCategory = "special_announcement"
	CategoryMarketing           NotificationCategory = "marketing"
)

// NotificationPayload is the serialized body handed to the push transport.
// Data always carries a fresh notification id and a send timestamp so the
// client can deduplicate and report interactions back.
type NotificationPayload struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Icon  string            `json:"icon,omitempty"`
	Badge string            `json:"badge,omitempty"`
	Tag   string            `json:"tag,omitempty"`
	URL   string            `json:"url,omitempty"`
	Data  map[string]string `json:"data,omitempty"`
}

func (p *NotificationPayload) Marshal() ([]byte, error) {
	return json.Marshal(p)
}

// NotificationLog is one row per delivery attempt, append-only. Rows outlive
// the subscription they reference (SubscriptionID goes nil when the endpoint
// is pruned) and are aged out by the retention worker.
type NotificationLog struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	SubscriptionID *uuid.UUID      `db:"subscription_id" json:"subscription_id,omitempty"`
	NotificationID uuid.UUID       `db:"notification_id" json:"notification_id"`
	Title          string          `db:"title" json:"title"`
	Body           string          `db:"body" json:"body"`
	DataPayload    json.RawMessage `db:"data_payload" json:"data_payload,omitempty"`
	Status         DeliveryStatus  `db:"status" json:"status"`
	ErrorMessage   *string         `db:"error_message" json:"error_message,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// DeliveryStats aggregates log rows over a trailing window for the admin
// dashboard.
type DeliveryStats struct {
	Sent      int64 `db:"sent" json:"sent"`
	Failed    int64 `db:"failed" json:"failed"`
	Delivered int64 `db:"delivered" json:"delivered"`
	Clicked   int64 `db:"clicked" json:"clicked"`
}
