package domain

import "time"

// Streak counts consecutive local days with activity.
type Streak struct {
	Current   int
	Longest   int
	LastVisit *time.Time // stored in UTC
}

// RecordActivity applies one activity at now.
// changed is false only for a repeat on the same local day, in which case
// nothing must be written.
func (s Streak) RecordActivity(cal *Calendar, now time.Time) (next Streak, changed bool) {
	next = s
	visit := now.UTC()

	if s.LastVisit == nil {
		next.Current = 1
		next.Longest = max(s.Longest, 1)
		next.LastVisit = &visit
		return next, true
	}

	gap := cal.DaysBetween(*s.LastVisit, now)
	switch {
	case gap <= 0:
		return s, false
	case gap == 1:
		if s.Current == 0 {
			next.Current = 1
		} else {
			next.Current = s.Current + 1
		}
	default:
		next.Current = 1
	}

	next.Longest = max(s.Longest, next.Current)
	next.LastVisit = &visit
	return next, true
}

// Reconcile zeroes a streak whose last activity is two or more local days
// old. Applying it twice gives the same result as once.
func (s Streak) Reconcile(cal *Calendar, now time.Time) (next Streak, changed bool) {
	if s.LastVisit == nil || s.Current == 0 {
		return s, false
	}
	if cal.DaysBetween(*s.LastVisit, now) < 2 {
		return s, false
	}
	next = s
	next.Current = 0
	return next, true
}
