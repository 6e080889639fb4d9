package model

import (
	"fmt"
	"time"
)

// DateLayout is the canonical textual form of a partition date.
const DateLayout = "2006-01-02"

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Date builds a UTC calendar date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD date.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad date %q: %v", ErrMisconfiguredInput, s, err)
	}
	return t, nil
}

// DaysInRange lists every date from start to end inclusive.
func DaysInRange(start, end time.Time) ([]time.Time, error) {
	start, end = Day(start), Day(end)
	if end.Before(start) {
		return nil, fmt.Errorf("%w: range end %s before start %s", ErrMisconfiguredInput,
			end.Format(DateLayout), start.Format(DateLayout))
	}
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days, nil
}

// MonthDays lists every date of a calendar month.
func MonthDays(year, month int) ([]time.Time, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("%w: month %d outside 1..12", ErrMisconfiguredInput, month)
	}
	first := Date(year, time.Month(month), 1)
	return DaysInRange(first, first.AddDate(0, 1, -1))
}
