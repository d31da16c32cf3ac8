package model

import "time"

type StatusKind string

const (
	StatusOpen                StatusKind = "open"
	StatusClosed              StatusKind = "closed"
	StatusSpecialNotification StatusKind = "special_notification"
)

// ShopStatus is the derived open/closed view of the storefront. It is never
// persisted or mutated in place; the evaluator rebuilds it from the schedule
// and announcement tables on every refresh.
type ShopStatus struct {
	IsOpen              bool            `json:"is_open"`
	Kind                StatusKind      `json:"status"`
	Title               string          `json:"title,omitempty"`
	Message             string          `json:"message"`
	NextOpenTime        *time.Time      `json:"next_open_time,omitempty"`
	CurrentTime         time.Time       `json:"current_time"`
	OperatingHoursToday *OperatingHours `json:"operating_hours_today,omitempty"`
}
