package model

import (
	"fmt"
	"strings"
	"time"
)

// DayLayout is the wire format of a calendar day.
const DayLayout = "2006-01-02"

// DayOf returns the calendar day of t as seen in loc, stored as midnight UTC.
// Every day value in the service uses this representation so days compare with Equal/Before.
func DayOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDay accepts YYYY-MM-DD as a literal calendar day, or an RFC3339
// timestamp which is first moved into loc and then truncated.
func ParseDay(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if d, err := time.Parse(DayLayout, raw); err == nil {
		return d, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return DayOf(t, loc), nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q", raw)
}

func FormatDay(day time.Time) string {
	return day.UTC().Format(DayLayout)
}

// IsPastDay reports whether day is strictly before today. Time of day is ignored.
func IsPastDay(day, today time.Time) bool {
	return day.Before(today)
}
