package calendar

import (
	"time"

	"outlay/internal/core"
)

// PreviousDay returns the day before d.
func PreviousDay(d core.Date) core.Date {
	return core.Date{Time: d.AddDate(0, 0, -1)}
}

// NextDay returns the day after d.
func NextDay(d core.Date) core.Date {
	return core.Date{Time: d.AddDate(0, 0, 1)}
}

// PreviousWeek returns the date exactly seven days earlier.
func PreviousWeek(d core.Date) core.Date {
	return core.Date{Time: d.AddDate(0, 0, -7)}
}

// NextWeek returns the date exactly seven days later.
func NextWeek(d core.Date) core.Date {
	return core.Date{Time: d.AddDate(0, 0, 7)}
}

// PreviousMonth moves one month back, clamping to the target month's length.
func PreviousMonth(d core.Date) core.Date {
	return addMonths(d, -1)
}

// NextMonth moves one month forward, clamping to the target month's length:
// January 31 navigates to the last day of February, never into March.
func NextMonth(d core.Date) core.Date {
	return addMonths(d, 1)
}

func addMonths(d core.Date, n int) core.Date {
	year, month, day := d.Date()
	// Anchor on the first of the target month so time.Date cannot overflow,
	// then clamp the day.
	anchor := time.Date(year, month+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	if max := daysInMonth(anchor.Year(), anchor.Month()); day > max {
		day = max
	}
	return core.NewDate(anchor.Year(), anchor.Month(), day)
}
