package push

import (
	"fmt"

	"github.com/vqanh/storegate/internal/model"
)

const (
	defaultIcon  = "/icons/icon-192.png"
	defaultBadge = "/icons/badge-72.png"
)

// ShopStatusNotification builds the payload for an open/closed flip. The
// fixed tag makes a newer status notification replace the previous one in
// the platform's notification shade instead of stacking.
func ShopStatusNotification(isOpen bool, message string) *model.NotificationPayload {
	title := "Quán đã đóng cửa"
	if isOpen {
		title = "Quán đã mở cửa!"
	}
	if message == "" {
		message = title
	}
	return &model.NotificationPayload{
		Title: title,
		Body:  message,
		Icon:  defaultIcon,
		Badge: defaultBadge,
		Tag:   "shop-status",
		URL:   "/",
		Data:  map[string]string{"type": string(model.CategoryShopStatus)},
	}
}

// OrderStatusNotification tags per order so updates for different orders do
// not replace each other.
func OrderStatusNotification(orderID, status string) *model.NotificationPayload {
	return &model.NotificationPayload{
		Title: "Cập nhật đơn hàng",
		Body:  fmt.Sprintf("Đơn hàng #%s: %s", orderID, status),
		Icon:  defaultIcon,
		Badge: defaultBadge,
		Tag:   fmt.Sprintf("order-%s", orderID),
		URL:   fmt.Sprintf("/orders/%s", orderID),
		Data: map[string]string{
			"type":    string(model.CategoryOrderStatus),
			"orderId": orderID,
		},
	}
}

// SpecialAnnouncement builds the payload for an admin announcement.
func SpecialAnnouncement(title, message, url string) *model.NotificationPayload {
	if url == "" {
		url = "/"
	}
	return &model.NotificationPayload{
		Title: title,
		Body:  message,
		Icon:  defaultIcon,
		Badge: defaultBadge,
		Tag:   "announcement",
		URL:   url,
		Data:  map[string]string{"type": string(model.CategorySpecialAnnouncement)},
	}
}

// MarketingNotification is like an announcement but gated behind its own
// settings toggle, off by default.
func MarketingNotification(title, message, url string) *model.NotificationPayload {
	p := SpecialAnnouncement(title, message, url)
	p.Tag = "marketing"
	p.Data["type"] = string(model.CategoryMarketing)
	return p
}

// ForCategory maps an admin broadcast request onto the right builder.
func ForCategory(category model.NotificationCategory, title, message, url string) *model.NotificationPayload {
	switch category {
	case model.CategoryMarketing:
		return MarketingNotification(title, message, url)
	default:
		p := SpecialAnnouncement(title, message, url)
		p.Data["type"] = string(category)
		return p
	}
}
