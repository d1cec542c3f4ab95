// Package domain contains core business types and interfaces.
//
// This file defines the process-wide calendar used for every day-granular
// rule: usage buckets, streak gaps, subscription expiry and water dates.
package domain

import (
	"fmt"
	"time"
)

// DefaultTimezone is used when no TIMEZONE is configured.
const DefaultTimezone = "Asia/Almaty"

// DateLayout is the storage format for calendar dates.
const DateLayout = "2006-01-02"

// Calendar performs local-day arithmetic in a single fixed location.
type Calendar struct {
	loc *time.Location
}

// NewCalendar loads the named IANA zone.
func NewCalendar(name string) (*Calendar, error) {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return &Calendar{loc: loc}, nil
}

// NewCalendarIn wraps an already loaded location.
func NewCalendarIn(loc *time.Location) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return &Calendar{loc: loc}
}

// Location returns the configured zone.
func (c *Calendar) Location() *time.Location {
	return c.loc
}

// StartOfDay returns local midnight of the day containing t.
func (c *Calendar) StartOfDay(t time.Time) time.Time {
	local := t.In(c.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, c.loc)
}

// DateKey formats t as the local YYYY-MM-DD date.
func (c *Calendar) DateKey(t time.Time) string {
	return t.In(c.loc).Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD string as local midnight.
func (c *Calendar) ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, c.loc)
}

// DaysBetween returns the number of local calendar days from earlier to later.
// 23:59 followed by 00:01 the next day is one day apart.
func (c *Calendar) DaysBetween(earlier, later time.Time) int {
	a := c.StartOfDay(earlier)
	b := c.StartOfDay(later)
	// Date arithmetic through UTC keeps DST shifts from skewing the count.
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// AddDays returns local midnight of the day containing t plus n calendar days.
func (c *Calendar) AddDays(t time.Time, n int) time.Time {
	return c.StartOfDay(t).AddDate(0, 0, n)
}

// DayBounds returns [start, end) of the local day containing t.
func (c *Calendar) DayBounds(t time.Time) (time.Time, time.Time) {
	start := c.StartOfDay(t)
	return start, start.AddDate(0, 0, 1)
}

// MonthBounds returns [start, end) of a local calendar month. Months outside
// 1..12 are rejected rather than normalised.
func (c *Calendar) MonthBounds(year int, month time.Month) (time.Time, time.Time, error) {
	if month < time.January || month > time.December {
		return time.Time{}, time.Time{}, fmt.Errorf("month %d out of range", month)
	}
	if year < 1970 || year > 9999 {
		return time.Time{}, time.Time{}, fmt.Errorf("year %d out of range", year)
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, c.loc)
	return start, start.AddDate(0, 1, 0), nil
}
