// Package clock abstracts the ambient wall clock so date-sensitive logic
// stays deterministic under test.
package clock

import "time"

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// System returns a Clock backed by time.Now.
func System() Clock { return systemClock{} }

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// Fixed returns a Clock frozen at t.
func Fixed(t time.Time) Clock { return fixedClock{t: t} }

// Today returns c's current date at midnight in its location.
func Today(c Clock) time.Time { return DateOf(c.Now()) }

// DateOf strips the time-of-day component from t and pins the calendar date
// to UTC, so date-only values compare and round-trip through the store
// consistently regardless of the host timezone.
func DateOf(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// SameDate reports whether a and b fall on the same calendar day.
func SameDate(a, b time.Time) bool {
	return DateOf(a).Equal(DateOf(b))
}
