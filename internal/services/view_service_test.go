package services

import (
	"context"
	"testing"
	"time"

	"outlay/internal/core"
	"outlay/internal/report"
	"outlay/internal/store/memory"
)

func newViewFixture(t *testing.T) (*ViewService, *ExpenseService, *CategoryService, *memory.Store) {
	t.Helper()
	mem := memory.New()
	views := NewViewService(mem.Expenses(), mem.Categories(), mem.Settings())
	expenses := NewExpenseService(mem.Expenses(), mem.Settings(), nil, nil)
	categories := NewCategoryService(mem.Categories(), nil)
	return views, expenses, categories, mem
}

func mustCreate(t *testing.T, svc *ExpenseService, scopeID string, cents int64, desc string, d core.Date, catIDs ...string) core.ExpenseRecord {
	t.Helper()
	rec, err := svc.Create(context.Background(), scopeID, ExpenseInput{
		Amount:      core.Money{Cents: cents},
		Description: desc,
		OccurredAt:  d,
		CategoryIDs: catIDs,
	})
	if err != nil {
		t.Fatalf("create %q: %v", desc, err)
	}
	return rec
}

func TestViewServiceDay(t *testing.T) {
	views, expenses, categories, _ := newViewFixture(t)
	ctx := context.Background()

	food, err := categories.Create(ctx, "u1", "Food")
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	day := core.NewDate(2026, time.January, 14)
	mustCreate(t, expenses, "u1", 1500, "groceries", day, food.ID)
	mustCreate(t, expenses, "u1", 500, "parking", day)
	mustCreate(t, expenses, "u1", 999, "elsewhere", core.NewDate(2026, time.January, 15))

	view, err := views.Day(ctx, "u1", day)
	if err != nil {
		t.Fatalf("day view: %v", err)
	}

	if view.DayKey != "2026-01-14" {
		t.Errorf("DayKey = %q", view.DayKey)
	}
	if len(view.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(view.Records))
	}
	if view.TotalCents != 2000 {
		t.Errorf("TotalCents = %d", view.TotalCents)
	}
	if len(view.Breakdown) != 2 {
		t.Fatalf("breakdown = %+v", view.Breakdown)
	}
	if view.Breakdown[0].Name != "Food" || view.Breakdown[0].TotalCents != 1500 {
		t.Errorf("breakdown[0] = %+v", view.Breakdown[0])
	}
	if view.Breakdown[1].Name != report.UncategorizedName || view.Breakdown[1].TotalCents != 500 {
		t.Errorf("breakdown[1] = %+v", view.Breakdown[1])
	}
}

func TestViewServiceWeek(t *testing.T) {
	views, expenses, _, _ := newViewFixture(t)
	ctx := context.Background()

	// Week 2026-W03 runs Monday Jan 12 through Sunday Jan 18.
	mustCreate(t, expenses, "u1", 10000, "rent share", core.NewDate(2026, time.January, 12))
	mustCreate(t, expenses, "u1", 9000, "groceries", core.NewDate(2026, time.January, 14))
	mustCreate(t, expenses, "u1", 6000, "dinner", core.NewDate(2026, time.January, 18))
	mustCreate(t, expenses, "u1", 100, "outside the week", core.NewDate(2026, time.January, 19))

	view, err := views.Week(ctx, "u1", core.NewDate(2026, time.January, 15))
	if err != nil {
		t.Fatalf("week view: %v", err)
	}

	if view.WeekKey != "2026-W03" {
		t.Errorf("WeekKey = %q", view.WeekKey)
	}
	if got := view.Start.Format("2006-01-02"); got != "2026-01-12" {
		t.Errorf("Start = %s", got)
	}
	if got := view.End.Format("2006-01-02"); got != "2026-01-18" {
		t.Errorf("End = %s", got)
	}
	if len(view.Days) != 7 {
		t.Fatalf("days = %d, want 7", len(view.Days))
	}
	if view.Days[0].TotalCents != 10000 || view.Days[0].Count != 1 {
		t.Errorf("monday = %+v", view.Days[0])
	}
	if view.Days[1].TotalCents != 0 || view.Days[1].Count != 0 {
		t.Errorf("empty tuesday = %+v", view.Days[1])
	}
	if view.TotalCents != 25000 {
		t.Errorf("TotalCents = %d", view.TotalCents)
	}
	// Exactly at the default budget: inclusive lower bound puts it in the
	// critical tier without being over.
	if view.Budget.Tier != report.TierCritical || view.Budget.IsOver {
		t.Errorf("budget = %+v", view.Budget)
	}
	if view.Budget.RemainingCents != 0 {
		t.Errorf("RemainingCents = %d", view.Budget.RemainingCents)
	}
}

func TestViewServiceMonth(t *testing.T) {
	views, expenses, _, mem := newViewFixture(t)
	ctx := context.Background()

	err := mem.Settings().Set(ctx, "u1", core.Settings{
		WeeklyBudgetCents: 10000,
		WeekStartDay:      time.Monday,
	})
	if err != nil {
		t.Fatalf("set settings: %v", err)
	}

	mustCreate(t, expenses, "u1", 12000, "over in week one", core.NewDate(2026, time.January, 2))
	mustCreate(t, expenses, "u1", 4000, "fine in week two", core.NewDate(2026, time.January, 7))

	view, err := views.Month(ctx, "u1", core.NewDate(2026, time.January, 20))
	if err != nil {
		t.Fatalf("month view: %v", err)
	}

	if view.MonthKey != "2026-01" {
		t.Errorf("MonthKey = %q", view.MonthKey)
	}
	// January 2026 spans five Monday-start weeks; the first begins on
	// Monday Dec 29 2025 and is keyed by its start date's year.
	if len(view.Weeks) != 5 {
		t.Fatalf("weeks = %+v", view.Weeks)
	}
	if view.Weeks[0].WeekKey != "2025-W01" || view.Weeks[0].TotalCents != 12000 || !view.Weeks[0].IsOver {
		t.Errorf("week one = %+v", view.Weeks[0])
	}
	if view.Weeks[1].WeekKey != "2026-W02" || view.Weeks[1].TotalCents != 4000 || view.Weeks[1].IsOver {
		t.Errorf("week two = %+v", view.Weeks[1])
	}
	if view.Weeks[4].TotalCents != 0 {
		t.Errorf("empty week = %+v", view.Weeks[4])
	}
	if view.TotalCents != 16000 {
		t.Errorf("TotalCents = %d", view.TotalCents)
	}
}

func TestViewServiceRangeFiltersByCategory(t *testing.T) {
	views, expenses, categories, _ := newViewFixture(t)
	ctx := context.Background()

	travel, err := categories.Create(ctx, "u1", "Travel")
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	mustCreate(t, expenses, "u1", 8000, "train", core.NewDate(2026, time.February, 3), travel.ID)
	mustCreate(t, expenses, "u1", 2000, "lunch", core.NewDate(2026, time.February, 4))
	mustCreate(t, expenses, "u1", 5000, "hotel", core.NewDate(2026, time.February, 10), travel.ID)
	mustCreate(t, expenses, "u1", 700, "before the range", core.NewDate(2026, time.January, 31), travel.ID)

	view, err := views.Range(ctx, "u1",
		core.NewDate(2026, time.February, 1), core.NewDate(2026, time.February, 28), travel.ID)
	if err != nil {
		t.Fatalf("range view: %v", err)
	}

	if len(view.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(view.Records))
	}
	if view.TotalCents != 13000 {
		t.Errorf("TotalCents = %d", view.TotalCents)
	}

	all, err := views.Range(ctx, "u1",
		core.NewDate(2026, time.February, 1), core.NewDate(2026, time.February, 28), "")
	if err != nil {
		t.Fatalf("range view: %v", err)
	}
	if len(all.Records) != 3 || all.TotalCents != 15000 {
		t.Errorf("unfiltered = %d records, %d cents", len(all.Records), all.TotalCents)
	}
}
