// Package calendar derives day/week/month bucket keys from calendar dates.
//
// Every function is a pure function of its arguments. WeekKey in particular
// is the single source of truth for week bucketing: the write path, the query
// path, and the reindex worker all call it, so a record can never drift out
// of its own week view.
package calendar

import (
	"fmt"
	"time"

	"outlay/internal/core"
)

// DayKey formats a date as YYYY-MM-DD using its local calendar fields.
func DayKey(d core.Date) string {
	return d.Format("2006-01-02")
}

// MonthKey formats a date as YYYY-MM. Independent of the week-start setting.
func MonthKey(d core.Date) string {
	return d.Format("2006-01")
}

// WeekKey formats a date as YYYY-Www for a week beginning on weekStart.
//
// Both the week number and the year are derived from the first day of the
// configured week, so every day of a week shares one key regardless of the
// week-start setting. Using the week-start year instead of the ISO week-year
// is a deliberate simplification carried consistently everywhere week keys
// are computed or compared.
func WeekKey(d core.Date, weekStart time.Weekday) string {
	ws := WeekStartDate(d, weekStart)
	_, week := ws.ISOWeek()
	return fmt.Sprintf("%d-W%02d", ws.Year(), week)
}

// WeekStartDate returns the first day of the week containing d.
func WeekStartDate(d core.Date, weekStart time.Weekday) core.Date {
	offset := (int(d.Weekday()) - int(weekStart) + 7) % 7
	return core.Date{Time: d.AddDate(0, 0, -offset)}
}

// WeekEndDate returns the last day of the week containing d.
func WeekEndDate(d core.Date, weekStart time.Weekday) core.Date {
	return core.Date{Time: WeekStartDate(d, weekStart).AddDate(0, 0, 6)}
}

// MonthStartDate returns the first day of d's month.
func MonthStartDate(d core.Date) core.Date {
	return core.NewDate(d.Year(), d.Month(), 1)
}

// MonthEndDate returns the last day of d's month.
func MonthEndDate(d core.Date) core.Date {
	return core.NewDate(d.Year(), d.Month(), daysInMonth(d.Year(), d.Month()))
}

// DaysInRange enumerates every calendar day from start through end inclusive,
// ascending. An end before start yields nil.
func DaysInRange(start, end core.Date) []core.Date {
	if end.Before(start.Time) {
		return nil
	}
	var days []core.Date
	for d := start; !d.After(end.Time); d.Time = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// DaysInWeek returns the 7 days of the week containing d.
func DaysInWeek(d core.Date, weekStart time.Weekday) []core.Date {
	return DaysInRange(WeekStartDate(d, weekStart), WeekEndDate(d, weekStart))
}

// DaysInMonth returns every day of d's month.
func DaysInMonth(d core.Date) []core.Date {
	return DaysInRange(MonthStartDate(d), MonthEndDate(d))
}

// WeekKeysInMonth returns the distinct week keys covering d's month, in
// calendar order. Used to zero-fill the monthly weekly breakdown.
func WeekKeysInMonth(d core.Date, weekStart time.Weekday) []string {
	var keys []string
	seen := map[string]struct{}{}
	for _, day := range DaysInMonth(d) {
		k := WeekKey(day, weekStart)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys
}

func daysInMonth(year int, month time.Month) int {
	// Day zero of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
