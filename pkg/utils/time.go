package utils

import (
	"time"
)

// DateOnly truncates a time to its UTC calendar date (midnight UTC).
// Streak arithmetic works on calendar days, never on instants.
func DateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether two times fall on the same UTC calendar date
func SameDay(a, b time.Time) bool {
	return DateOnly(a).Equal(DateOnly(b))
}

// IsYesterdayOf reports whether a is exactly one calendar day before b
func IsYesterdayOf(a, b time.Time) bool {
	return DateOnly(a).AddDate(0, 0, 1).Equal(DateOnly(b))
}
