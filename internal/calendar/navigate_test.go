package calendar

import (
	"testing"
	"time"

	"outlay/internal/core"
)

func TestDayNavigation(t *testing.T) {
	d := core.NewDate(2026, time.March, 1)
	if got := DayKey(PreviousDay(d)); got != "2026-02-28" {
		t.Errorf("PreviousDay = %s", got)
	}
	if got := DayKey(NextDay(core.NewDate(2026, time.February, 28))); got != "2026-03-01" {
		t.Errorf("NextDay = %s", got)
	}
}

func TestWeekNavigation(t *testing.T) {
	d := core.NewDate(2026, time.January, 1)
	if got := DayKey(NextWeek(d)); got != "2026-01-08" {
		t.Errorf("NextWeek = %s", got)
	}
	if got := DayKey(PreviousWeek(d)); got != "2025-12-25" {
		t.Errorf("PreviousWeek = %s", got)
	}
}

func TestMonthNavigationClamps(t *testing.T) {
	tests := []struct {
		name string
		from core.Date
		next bool
		want string
	}{
		{"jan 31 forward clamps to feb", core.NewDate(2026, time.January, 31), true, "2026-02-28"},
		{"jan 31 forward in leap year", core.NewDate(2028, time.January, 31), true, "2028-02-29"},
		{"mar 31 back clamps to feb", core.NewDate(2026, time.March, 31), false, "2026-02-28"},
		{"mid month unaffected", core.NewDate(2026, time.April, 15), true, "2026-05-15"},
		{"year rollover forward", core.NewDate(2025, time.December, 10), true, "2026-01-10"},
		{"year rollover back", core.NewDate(2026, time.January, 10), false, "2025-12-10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got core.Date
			if tt.next {
				got = NextMonth(tt.from)
			} else {
				got = PreviousMonth(tt.from)
			}
			if DayKey(got) != tt.want {
				t.Errorf("got %s, want %s", DayKey(got), tt.want)
			}
		})
	}
}
