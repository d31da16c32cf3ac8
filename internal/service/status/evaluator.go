package status

import (
	"time"

	"github.com/vqanh/storegate/internal/model"
)

const (
	defaultClosedMessage = "Quán hiện đang đóng cửa. Vui lòng quay lại trong giờ mở cửa."
	defaultOpenMessage   = "Quán đang mở cửa, mời bạn đặt món."
)

// Evaluate derives the shop status at now from the weekly schedule and an
// optional active announcement. It is a pure function: same inputs, same
// output, no side effects.
//
// Precedence: an active announcement with the overlay flag wins over the
// schedule; otherwise today's schedule row decides.
func Evaluate(now time.Time, week []*model.OperatingHours, active *model.Announcement) *model.ShopStatus {
	if active != nil && active.ActiveAt(now) && active.ShowOverlay {
		return &model.ShopStatus{
			IsOpen:      false,
			Kind:        model.StatusSpecialNotification,
			Title:       active.Title,
			Message:     active.Message,
			CurrentTime: now,
		}
	}

	today := entryFor(week, int(now.Weekday()))
	if today == nil {
		// No schedule row: fail open rather than lock customers out.
		return openStatus(now, nil)
	}

	if !today.IsOpen {
		return closedStatus(now, today, nextOpen(now, week))
	}

	open, err1 := model.ParseClock(today.OpenTime)
	clos, err2 := model.ParseClock(today.CloseTime)
	if err1 != nil || err2 != nil {
		return openStatus(now, today)
	}

	cur := now.Hour()*60 + now.Minute()
	if cur < open || cur >= clos {
		return closedStatus(now, today, nextOpen(now, week))
	}

	return openStatus(now, today)
}

func openStatus(now time.Time, today *model.OperatingHours) *model.ShopStatus {
	return &model.ShopStatus{
		IsOpen:              true,
		Kind:                model.StatusOpen,
		Message:             defaultOpenMessage,
		CurrentTime:         now,
		OperatingHoursToday: today,
	}
}

func closedStatus(now time.Time, today *model.OperatingHours, next *time.Time) *model.ShopStatus {
	return &model.ShopStatus{
		IsOpen:              false,
		Kind:                model.StatusClosed,
		Message:             defaultClosedMessage,
		NextOpenTime:        next,
		CurrentTime:         now,
		OperatingHoursToday: today,
	}
}

// nextOpen reports when the shop opens next: today's open time when now is
// still before it, otherwise tomorrow's. It deliberately looks only one day
// ahead, so when tomorrow is a closed day the reported time is that day's
// configured open time anyway. Kept as-is to match the storefront's
// long-standing behavior.
func nextOpen(now time.Time, week []*model.OperatingHours) *time.Time {
	today := entryFor(week, int(now.Weekday()))
	if today != nil && today.IsOpen {
		if open, err := model.ClockAt(now, today.OpenTime); err == nil && now.Before(open) {
			return &open
		}
	}

	tomorrow := now.AddDate(0, 0, 1)
	entry := entryFor(week, int(tomorrow.Weekday()))
	if entry == nil {
		return nil
	}
	open, err := model.ClockAt(tomorrow, entry.OpenTime)
	if err != nil {
		return nil
	}
	return &open
}

func entryFor(week []*model.OperatingHours, day int) *model.OperatingHours {
	for _, e := range week {
		if e.DayOfWeek == day {
			return e
		}
	}
	return nil
}
