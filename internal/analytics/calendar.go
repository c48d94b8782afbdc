package analytics

import "time"

// startOfDay returns local midnight of t in loc.
func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// dayNumber counts calendar days since the Unix epoch for t as seen in loc.
// Differences of day numbers are DST-safe.
func dayNumber(t time.Time, loc *time.Location) int64 {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}

// daysBetween returns the calendar-day distance from earlier to later in loc.
func daysBetween(later, earlier time.Time, loc *time.Location) int64 {
	return dayNumber(later, loc) - dayNumber(earlier, loc)
}
