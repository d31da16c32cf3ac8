package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAnnouncementActiveAt(t *testing.T) {
	start := time.Date(2026, 4, 28, 0, 0, 0, 0, time.Local)
	end := time.Date(2026, 5, 2, 23, 59, 0, 0, time.Local)
	a := &Announcement{
		Title:     "Nghỉ lễ 30/4",
		Message:   "Quán nghỉ lễ, hẹn gặp lại sau kỳ nghỉ.",
		StartDate: start,
		EndDate:   end,
		IsActive:  true,
	}

	assert.False(t, a.ActiveAt(start.Add(-time.Minute)))
	assert.True(t, a.ActiveAt(start), "boundaries are inclusive")
	assert.True(t, a.ActiveAt(start.AddDate(0, 0, 2)))
	assert.True(t, a.ActiveAt(end))
	assert.False(t, a.ActiveAt(end.Add(time.Minute)))

	a.IsActive = false
	assert.False(t, a.ActiveAt(start.AddDate(0, 0, 2)), "disabled announcements never apply")
}

func TestAnnouncementValidate(t *testing.T) {
	now := time.Now()

	ok := &Announcement{Title: "t", Message: "m", StartDate: now, EndDate: now.Add(time.Hour)}
	assert.NoError(t, ok.Validate())

	assert.Error(t, (&Announcement{Message: "m", StartDate: now, EndDate: now.Add(time.Hour)}).Validate())
	assert.Error(t, (&Announcement{Title: "t", StartDate: now, EndDate: now.Add(time.Hour)}).Validate())
	assert.Error(t, (&Announcement{Title: "t", Message: "m", StartDate: now.Add(time.Hour), EndDate: now}).Validate())
	assert.Error(t, (&Announcement{Title: "t", Message: "m", StartDate: now, EndDate: now}).Validate())
}

func TestPushSubscriptionValidate(t *testing.T) {
	ok := &PushSubscription{Endpoint: "https://push.example.com/abc", P256dhKey: "p", AuthKey: "a"}
	assert.NoError(t, ok.Validate())

	assert.Error(t, (&PushSubscription{P256dhKey: "p", AuthKey: "a"}).Validate())
	assert.Error(t, (&PushSubscription{Endpoint: "e", AuthKey: "a"}).Validate())
	assert.Error(t, (&PushSubscription{Endpoint: "e", P256dhKey: "p"}).Validate())
}
