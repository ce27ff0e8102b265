// Package schedule computes the weekly pickup calendar: which dates buyers
// may order for, and until when an order for a date stays editable.
package schedule

import (
	"fmt"
	"time"

	"github.com/farmbasket/farmbasket-backend/internal/config"
)

// DateKeyLayout is the compact key identifying one pickup day. It doubles as
// the storage key component for orders, so it must never change format.
const DateKeyLayout = "20060102"

// Calculator derives pickup dates and edit deadlines from the configured
// weekly cadence. All arithmetic happens in the shop timezone so that a
// buyer in another zone sees the same cutoff the seller does.
//
// Now is injectable for tests and defaults to time.Now.
type Calculator struct {
	weekday      time.Weekday
	datesOffered int
	cutoffDays   int
	cutoffHour   int
	loc          *time.Location

	Now func() time.Time
}

func NewCalculator(cfg config.Schedule) (*Calculator, error) {
	weekday, err := cfg.Weekday()
	if err != nil {
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	if cfg.DatesOffered < 1 {
		return nil, fmt.Errorf("schedule must offer at least one pickup date, got %d", cfg.DatesOffered)
	}

	return &Calculator{
		weekday:      weekday,
		datesOffered: cfg.DatesOffered,
		cutoffDays:   cfg.CutoffDays,
		cutoffHour:   cfg.CutoffHour,
		loc:          loc,
		Now:          time.Now,
	}, nil
}

// Location returns the shop timezone.
func (c *Calculator) Location() *time.Location {
	return c.loc
}

// AvailablePickupDates lists the next configured number of pickup dates that
// are still open for ordering. A date whose edit deadline has already passed
// is skipped, so right after a cutoff the nearest offered date jumps a week.
func (c *Calculator) AvailablePickupDates() []time.Time {
	now := c.Now().In(c.loc)

	candidate := c.normalize(now)
	for candidate.Weekday() != c.weekday {
		candidate = candidate.AddDate(0, 0, 1)
	}

	dates := make([]time.Time, 0, c.datesOffered)
	for len(dates) < c.datesOffered {
		if now.Before(c.EditDeadline(candidate)) {
			dates = append(dates, candidate)
		}

		candidate = candidate.AddDate(0, 0, 7)
	}

	return dates
}

// IsPickupDateValid reports whether the given date is one of the currently
// offered pickup dates. The time-of-day portion is ignored.
func (c *Calculator) IsPickupDateValid(pickup time.Time) bool {
	day := c.normalize(pickup)

	for _, offered := range c.AvailablePickupDates() {
		if offered.Equal(day) {
			return true
		}
	}

	return false
}

// EditDeadline returns the moment an order for the given pickup date becomes
// read-only: the configured number of days before pickup, at the cutoff hour
// in the shop timezone.
func (c *Calculator) EditDeadline(pickup time.Time) time.Time {
	day := c.normalize(pickup)

	return time.Date(day.Year(), day.Month(), day.Day()-c.cutoffDays, c.cutoffHour, 0, 0, 0, c.loc)
}

// CanEdit reports whether an order for the given pickup date may still be
// changed or cancelled. The deadline itself counts as closed.
func (c *Calculator) CanEdit(pickup time.Time) bool {
	return c.Now().Before(c.EditDeadline(pickup))
}

// DateKey renders the pickup day as its storage key, e.g. "20250530".
func (c *Calculator) DateKey(pickup time.Time) string {
	return pickup.In(c.loc).Format(DateKeyLayout)
}

// TodayKey returns the storage key for the current day in the shop timezone.
func (c *Calculator) TodayKey() string {
	return c.DateKey(c.Now())
}

// ParseDateKey converts a storage key back to midnight of that day in the
// shop timezone.
func (c *Calculator) ParseDateKey(key string) (time.Time, error) {
	day, err := time.ParseInLocation(DateKeyLayout, key, c.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date key %q: %w", key, err)
	}

	return day, nil
}

// normalize truncates a timestamp to midnight of its calendar day in the
// shop timezone.
func (c *Calculator) normalize(t time.Time) time.Time {
	lt := t.In(c.loc)

	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, c.loc)
}
