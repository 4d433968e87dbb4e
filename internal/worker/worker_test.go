package worker

import (
	"context"
	"testing"
	"time"

	"outlay/internal/amqp"
	"outlay/internal/calendar"
	"outlay/internal/core"
	"outlay/internal/export"
	"outlay/internal/store/memory"
)

func newWorkerFixture(t *testing.T) (*ChangeWorker, *memory.Store, *export.MemoryExporter) {
	t.Helper()
	mem := memory.New()
	exp := export.NewMemoryExporter()
	w := NewChangeWorker(mem.Expenses(), mem.Categories(), mem.Expenses(), exp, nil, nil, 10)
	return w, mem, exp
}

func seedRecord(t *testing.T, mem *memory.Store, scopeID string, d core.Date, cents int64, catIDs ...string) core.ExpenseRecord {
	t.Helper()
	ctx := context.Background()
	rec := core.ExpenseRecord{
		Amount:      core.Money{Cents: cents},
		Description: "seeded",
		OccurredAt:  d,
		CategoryIDs: catIDs,
		DayKey:      calendar.DayKey(d),
		WeekKey:     calendar.WeekKey(d, time.Monday),
		MonthKey:    calendar.MonthKey(d),
	}
	id, err := mem.Expenses().Create(ctx, scopeID, rec)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	saved, err := mem.Expenses().Get(ctx, scopeID, id)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	return saved
}

func TestHandleExpenseChangedExportsCurrentRecord(t *testing.T) {
	w, mem, exp := newWorkerFixture(t)
	ctx := context.Background()

	catID, err := mem.Categories().Create(ctx, "u1", core.Category{Name: "Food"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	rec := seedRecord(t, mem, "u1", core.NewDate(2026, time.January, 14), 1250, catID)

	err = w.HandleExpenseChanged(ctx, &amqp.ExpenseChangedMessage{
		ScopeID: "u1", ID: rec.ID, Op: amqp.OpCreate,
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}

	rows := exp.Rows()
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	row := rows[0]
	if row.Op != amqp.OpCreate || row.RecordID != rec.ID || row.OccurredAt != "2026-01-14" {
		t.Errorf("row = %+v", row)
	}
	if row.Amount != "12.50" {
		t.Errorf("Amount = %q", row.Amount)
	}
	if len(row.Categories) != 1 || row.Categories[0] != "Food" {
		t.Errorf("Categories = %v", row.Categories)
	}
}

func TestHandleExpenseChangedDeleteNeedsNoRecord(t *testing.T) {
	w, _, exp := newWorkerFixture(t)

	err := w.HandleExpenseChanged(context.Background(), &amqp.ExpenseChangedMessage{
		ScopeID: "u1", ID: "already-gone", Op: amqp.OpDelete,
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}

	rows := exp.Rows()
	if len(rows) != 1 || rows[0].Op != amqp.OpDelete || rows[0].RecordID != "already-gone" {
		t.Errorf("rows = %+v", rows)
	}
}

func TestHandleExpenseChangedVanishedRecordIsSkipped(t *testing.T) {
	w, _, exp := newWorkerFixture(t)

	err := w.HandleExpenseChanged(context.Background(), &amqp.ExpenseChangedMessage{
		ScopeID: "u1", ID: "missing", Op: amqp.OpUpdate,
	})
	if err != nil {
		t.Fatalf("vanished record should not requeue: %v", err)
	}
	if len(exp.Rows()) != 0 {
		t.Errorf("nothing should be exported, got %+v", exp.Rows())
	}
}

func TestHandleReindexWeeks(t *testing.T) {
	w, mem, _ := newWorkerFixture(t)
	ctx := context.Background()

	// Saturday Jan 17: Monday-start week begins Jan 12, Sunday-start week
	// begins Jan 11 and lands in the previous ISO week.
	rec := seedRecord(t, mem, "u1", core.NewDate(2026, time.January, 17), 100)
	if rec.WeekKey != "2026-W03" {
		t.Fatalf("seeded week key = %q", rec.WeekKey)
	}

	err := w.HandleReindexWeeks(ctx, &amqp.ReindexWeeksMessage{
		ScopeID: "u1", WeekStartDay: int(time.Sunday),
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}

	after, err := mem.Expenses().Get(ctx, "u1", rec.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if after.WeekKey != calendar.WeekKey(rec.OccurredAt, time.Sunday) {
		t.Errorf("WeekKey = %q", after.WeekKey)
	}
	if after.WeekKey == rec.WeekKey {
		t.Error("week key should have changed")
	}
}

func TestHandleReindexWeeksInvalidDayIsDropped(t *testing.T) {
	w, _, _ := newWorkerFixture(t)

	err := w.HandleReindexWeeks(context.Background(), &amqp.ReindexWeeksMessage{
		ScopeID: "u1", WeekStartDay: 9,
	})
	if err != nil {
		t.Errorf("invalid day should be dropped, not requeued: %v", err)
	}
}

func TestCatchUpWithoutTrackerIsNoop(t *testing.T) {
	w, _, exp := newWorkerFixture(t)

	if err := w.CatchUp(context.Background()); err != nil {
		t.Fatalf("catch-up: %v", err)
	}
	if len(exp.Rows()) != 0 {
		t.Errorf("rows = %+v", exp.Rows())
	}
}
