package model

import "time"

// NotificationSettings is the singleton row of dispatcher controls. Category
// toggles switch whole classes of notifications off; quiet hours and the
// daily cap throttle everything except nothing is throttled when the values
// are zero.
type NotificationSettings struct {
	ShopStatusEnabled    bool      `db:"shop_status_enabled" json:"shop_status_enabled"`
	OrderStatusEnabled   bool      `db:"order_status_enabled" json:"order_status_enabled"`
	AnnouncementsEnabled bool      `db:"announcements_enabled" json:"announcements_enabled"`
	MarketingEnabled     bool      `db:"marketing_enabled" json:"marketing_enabled"`
	MaxDaily             int       `db:"max_daily" json:"max_daily"`
	QuietHoursStart      string    `db:"quiet_hours_start" json:"quiet_hours_start"`
	QuietHoursEnd        string    `db:"quiet_hours_end" json:"quiet_hours_end"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}

// DefaultNotificationSettings is used when the settings row has never been
// written.
func DefaultNotificationSettings() *NotificationSettings {
	return &NotificationSettings{
		ShopStatusEnabled:    true,
		OrderStatusEnabled:   true,
		AnnouncementsEnabled: true,
		MarketingEnabled:     false,
		MaxDaily:             0,
		QuietHoursStart:      "",
		QuietHoursEnd:        "",
	}
}

// CategoryEnabled maps a notification category to its toggle.
func (s *NotificationSettings) CategoryEnabled(c NotificationCategory) bool {
	switch c {
	case CategoryShopStatus:
		return s.ShopStatusEnabled
	case CategoryOrderStatus:
		return s.OrderStatusEnabled
	case CategorySpecialAnnouncement:
		return s.AnnouncementsEnabled
	case CategoryMarketing:
		return s.MarketingEnabled
	default:
		return false
	}
}

// InQuietHours reports whether now falls inside the configured quiet window.
// A window that crosses midnight (e.g. 22:00-07:00) is supported. Empty
// bounds disable the window.
func (s *NotificationSettings) InQuietHours(now time.Time) bool {
	if s.QuietHoursStart == "" || s.QuietHoursEnd == "" {
		return false
	}
	start, err := ParseClock(s.QuietHoursStart)
	if err != nil {
		return false
	}
	end, err := ParseClock(s.QuietHoursEnd)
	if err != nil {
		return false
	}
	cur := now.Hour()*60 + now.Minute()
	if start <= end {
		return cur >= start && cur < end
	}
	return cur >= start || cur < end
}
