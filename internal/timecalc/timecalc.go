// Package timecalc holds the time arithmetic and display helpers used when
// chaining flight legs.
package timecalc

import (
	"fmt"
	"strings"
	"time"
)

// TaxiBuffer is the ground-movement time added before a leg's nominal departure
const TaxiBuffer = 15

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// AddMinutes shifts t forward by the given number of minutes
func AddMinutes(t time.Time, minutes int) time.Time {
	return t.Add(time.Duration(minutes) * time.Minute)
}

// SubtractMinutes shifts t backward by the given number of minutes
func SubtractMinutes(t time.Time, minutes int) time.Time {
	return t.Add(-time.Duration(minutes) * time.Minute)
}

// Combine parses a local date ("2006-01-02") and clock time ("15:04") in loc
func Combine(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}

	day, err := time.ParseInLocation(DateLayout, strings.TrimSpace(date), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}

	// Accept seconds from HTML time inputs.
	clock = strings.TrimSpace(clock)
	layout := ClockLayout
	if strings.Count(clock, ":") == 2 {
		layout = "15:04:05"
	}
	hm, err := time.Parse(layout, clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: %w", clock, err)
	}

	return time.Date(day.Year(), day.Month(), day.Day(), hm.Hour(), hm.Minute(), hm.Second(), 0, loc), nil
}

// FormatDuration renders minutes as "1h 05m" or "45m". Zero renders as "—".
func FormatDuration(minutes int) string {
	if minutes <= 0 {
		return "—"
	}
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %02dm", minutes/60, minutes%60)
}

// FormatClock renders the local wall-clock time of t
func FormatClock(t time.Time) string {
	return t.Format(ClockLayout)
}

// FormatISO renders t as ISO 8601
func FormatISO(t time.Time) string {
	return t.Format(time.RFC3339)
}
