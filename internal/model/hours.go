package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// OperatingHours is the per-weekday open/close schedule row. There are
// always exactly seven rows, one per DayOfWeek (0 = Sunday .. 6 = Saturday).
// Times are local wall-clock "HH:MM" strings; the deployment runs in a
// single timezone.
type OperatingHours struct {
	DayOfWeek int       `db:"day_of_week" json:"day_of_week"`
	OpenTime  string    `db:"open_time" json:"open_time"`
	CloseTime string    `db:"close_time" json:"close_time"`
	IsOpen    bool      `db:"is_open" json:"is_open"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Validate checks the schedule invariant: an open day must have a
// well-formed window with open strictly before close.
func (h *OperatingHours) Validate() error {
	if h.DayOfWeek < 0 || h.DayOfWeek > 6 {
		return fmt.Errorf("day_of_week must be between 0 and 6, got %d", h.DayOfWeek)
	}
	if !h.IsOpen {
		return nil
	}
	open, err := ParseClock(h.OpenTime)
	if err != nil {
		return fmt.Errorf("invalid open_time: %w", err)
	}
	clos, err := ParseClock(h.CloseTime)
	if err != nil {
		return fmt.Errorf("invalid close_time: %w", err)
	}
	if open >= clos {
		return fmt.Errorf("open_time %s must be before close_time %s", h.OpenTime, h.CloseTime)
	}
	return nil
}

// ParseClock converts an "HH:MM" wall-clock string to minutes since midnight.
func ParseClock(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	hh, err := strconv.Atoi(parts[0])
	if err != nil || hh < 0 || hh > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	mm, err := strconv.Atoi(parts[1])
	if err != nil || mm < 0 || mm > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hh*60 + mm, nil
}

// ClockAt returns the time.Time on day d with the given "HH:MM" clock.
func ClockAt(d time.Time, clock string) (time.Time, error) {
	mins, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), mins/60, mins%60, 0, 0, d.Location()), nil
}
