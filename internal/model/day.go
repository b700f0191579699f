package model

import "time"

// DayLayout is the calendar-day format used in cache and quota keys.
const DayLayout = "2006-01-02"

// UTCDay returns the UTC calendar day of t as YYYY-MM-DD.
func UTCDay(t time.Time) string {
	return t.UTC().Format(DayLayout)
}

// NextUTCMidnight returns the first instant of the UTC day after t.
func NextUTCMidnight(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
}

// UntilNextUTCMidnight returns the TTL that makes a key written at t expire
// exactly at the next UTC midnight. Never returns less than one second.
func UntilNextUTCMidnight(t time.Time) time.Duration {
	d := NextUTCMidnight(t).Sub(t)
	if d < time.Second {
		return time.Second
	}
	return d
}
