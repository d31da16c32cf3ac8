package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Announcement is an admin-configured, time-boxed notice that can force the
// storefront into a special closed-like state regardless of the weekly
// schedule. Announcements are never deleted automatically; the evaluator
// simply stops selecting them once EndDate has passed.
type Announcement struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Message     string    `db:"message" json:"message"`
	StartDate   time.Time `db:"start_date" json:"start_date"`
	EndDate     time.Time `db:"end_date" json:"end_date"`
	ShowOverlay bool      `db:"show_overlay" json:"show_overlay"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

func (a *Announcement) Validate() error {
	if a.Title == "" {
		return fmt.Errorf("title is required")
	}
	if a.Message == "" {
		return fmt.Errorf("message is required")
	}
	if !a.StartDate.Before(a.EndDate) {
		return fmt.Errorf("start_date must be before end_date")
	}
	return nil
}

// ActiveAt reports whether the announcement should be considered by the
// status evaluator at the given instant.
func (a *Announcement) ActiveAt(now time.Time) bool {
	return a.IsActive && !now.Before(a.StartDate) && !now.After(a.EndDate)
}
