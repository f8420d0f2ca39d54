// Package clock abstracts wall-clock time so that protection deadlines and
// month boundaries can be pinned in tests.  All engine components take a
// Clock instead of calling time.Now directly.
package clock

import "time"

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// System returns a Clock backed by time.Now in UTC.
func System() Clock { return systemClock{} }

// ProtectionDeadline returns the instant a protection for the given month
// expires: day 3 of that month at 23:59:59 in loc.
func ProtectionDeadline(month, year int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(year, time.Month(month), 3, 23, 59, 59, 0, loc)
}

// NextMonth returns the calendar month immediately following the given one,
// rolling the year over after December.
func NextMonth(month, year int) (int, int) {
	if month >= 12 {
		return 1, year + 1
	}
	return month + 1, year
}

// DaysRemaining returns how many full days are left in the month containing
// now, not counting today.  Used by the manual protection window policy.
func DaysRemaining(now time.Time) int {
	daysInMonth := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, now.Location()).Day()
	return daysInMonth - now.Day()
}
