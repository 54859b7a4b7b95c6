// Package recurrence expands weekly recurrence patterns into concrete
// calendar dates.
package recurrence

import "time"

// Weekday is a lowercase English weekday name as stored on a recurrence
// definition.
type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

var isoNumbers = map[Weekday]int{
	Monday:    1,
	Tuesday:   2,
	Wednesday: 3,
	Thursday:  4,
	Friday:    5,
	Saturday:  6,
	Sunday:    7,
}

// ISO returns the ISO-8601 weekday number (Monday=1..Sunday=7). The second
// return value is false for unrecognized names.
func (d Weekday) ISO() (int, bool) {
	n, ok := isoNumbers[d]
	return n, ok
}

// Weekdays is the set of weekdays a recurrence fires on, serialized as a
// JSON list on the recurrence definition row.
type Weekdays []Weekday

// isoSet maps the named days to ISO numbers. Unrecognized names are
// silently dropped.
func (ds Weekdays) isoSet() map[int]bool {
	set := make(map[int]bool, len(ds))
	for _, d := range ds {
		if n, ok := d.ISO(); ok {
			set[n] = true
		}
	}
	return set
}

// Contains reports whether t falls on one of the named weekdays.
func (ds Weekdays) Contains(t time.Time) bool {
	return ds.isoSet()[ISOWeekday(t)]
}

// ISOWeekday returns t's ISO-8601 weekday number (Monday=1..Sunday=7).
func ISOWeekday(t time.Time) int {
	n := int(t.Weekday())
	if n == 0 {
		n = 7
	}
	return n
}

// Generate walks every calendar day from start to end inclusive and returns,
// in ascending order, the dates whose weekday is in days. The result carries
// no duplicates and no time-of-day component beyond midnight in start's
// location. Pure: same inputs always yield the same sequence.
func Generate(days Weekdays, start, end time.Time) []time.Time {
	set := days.isoSet()
	if len(set) == 0 {
		return nil
	}

	start = truncateToDate(start)
	end = truncateToDate(end)

	var dates []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if set[ISOWeekday(d)] {
			dates = append(dates, d)
		}
	}
	return dates
}

func truncateToDate(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
