package calendar

import (
	"testing"
	"time"

	"outlay/internal/core"
)

func TestDayAndMonthKeys(t *testing.T) {
	d := core.NewDate(2026, time.March, 7)
	if got := DayKey(d); got != "2026-03-07" {
		t.Errorf("DayKey = %q", got)
	}
	if got := MonthKey(d); got != "2026-03" {
		t.Errorf("MonthKey = %q", got)
	}
	// Deterministic: same input, same key.
	if DayKey(d) != DayKey(d) || MonthKey(d) != MonthKey(d) {
		t.Error("keys are not stable across calls")
	}
}

func TestWeekKey(t *testing.T) {
	tests := []struct {
		name      string
		date      core.Date
		weekStart time.Weekday
		want      string
	}{
		{
			name:      "midweek monday start",
			date:      core.NewDate(2026, time.January, 14), // Wednesday
			weekStart: time.Monday,
			want:      "2026-W03",
		},
		{
			name:      "sunday belongs to week of preceding monday",
			date:      core.NewDate(2026, time.January, 18), // Sunday
			weekStart: time.Monday,
			want:      "2026-W03",
		},
		{
			name:      "monday opens a new week",
			date:      core.NewDate(2026, time.January, 19),
			weekStart: time.Monday,
			want:      "2026-W04",
		},
		{
			name:      "year from week start at year boundary",
			date:      core.NewDate(2025, time.December, 31), // Wednesday, ISO week 1 of 2026
			weekStart: time.Monday,
			want:      "2025-W01",
		},
		{
			name:      "sunday start",
			date:      core.NewDate(2026, time.January, 18), // Sunday opens its own week
			weekStart: time.Sunday,
			want:      "2026-W03",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WeekKey(tt.date, tt.weekStart); got != tt.want {
				t.Errorf("WeekKey(%s, %v) = %q, want %q", DayKey(tt.date), tt.weekStart, got, tt.want)
			}
		})
	}
}

func TestWeekKeyCoversItsOwnWindow(t *testing.T) {
	// Every date must land inside the 7-day window it is keyed to, for every
	// week-start configuration.
	start := core.NewDate(2025, time.December, 20)
	for ws := time.Sunday; ws <= time.Saturday; ws++ {
		for i, d := 0, start; i < 60; i, d = i+1, NextDay(d) {
			ws0 := WeekStartDate(d, ws)
			we := WeekEndDate(d, ws)
			if d.Before(ws0.Time) || d.After(we.Time) {
				t.Fatalf("%s outside window %s..%s (weekStart=%v)", DayKey(d), DayKey(ws0), DayKey(we), ws)
			}
			if ws0.Weekday() != ws {
				t.Fatalf("week start %s has weekday %v, want %v", DayKey(ws0), ws0.Weekday(), ws)
			}
			if got := we.Sub(ws0.Time); got != 6*24*time.Hour {
				t.Fatalf("week window length = %v", got)
			}
			// Same key for every day of the window.
			for _, day := range DaysInWeek(d, ws) {
				if WeekKey(day, ws) != WeekKey(ws0, ws) {
					t.Fatalf("key drift inside week of %s: %s vs %s", DayKey(d), WeekKey(day, ws), WeekKey(ws0, ws))
				}
			}
		}
	}
}

func TestDaysInRange(t *testing.T) {
	start := core.NewDate(2026, time.February, 26)
	end := core.NewDate(2026, time.March, 2)
	days := DaysInRange(start, end)
	want := []string{"2026-02-26", "2026-02-27", "2026-02-28", "2026-03-01", "2026-03-02"}
	if len(days) != len(want) {
		t.Fatalf("got %d days, want %d", len(days), len(want))
	}
	for i, d := range days {
		if DayKey(d) != want[i] {
			t.Errorf("day %d = %s, want %s", i, DayKey(d), want[i])
		}
	}
	if got := DaysInRange(end, start); got != nil {
		t.Errorf("reversed range should be empty, got %d days", len(got))
	}
	if got := DaysInRange(start, start); len(got) != 1 {
		t.Errorf("single-day range should have 1 day, got %d", len(got))
	}
}

func TestDaysInMonth(t *testing.T) {
	if got := len(DaysInMonth(core.NewDate(2026, time.February, 10))); got != 28 {
		t.Errorf("feb 2026 has %d days", got)
	}
	if got := len(DaysInMonth(core.NewDate(2028, time.February, 1))); got != 29 {
		t.Errorf("feb 2028 (leap) has %d days", got)
	}
}

func TestWeekKeysInMonth(t *testing.T) {
	keys := WeekKeysInMonth(core.NewDate(2026, time.January, 1), time.Monday)
	// January 2026: Thu Jan 1 .. Sat Jan 31 spans 5 Monday-based weeks.
	if len(keys) != 5 {
		t.Fatalf("got %d week keys: %v", len(keys), keys)
	}
	seen := map[string]struct{}{}
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			t.Fatalf("duplicate week key %s", k)
		}
		seen[k] = struct{}{}
	}
	if keys[0] != WeekKey(core.NewDate(2026, time.January, 1), time.Monday) {
		t.Errorf("first key %s should match the month's first day", keys[0])
	}
}
