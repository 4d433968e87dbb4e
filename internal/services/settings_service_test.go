package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"outlay/internal/core"
	"outlay/internal/feed"
	"outlay/internal/store"
	"outlay/internal/store/memory"
)

func TestSettingsServiceGetDefaults(t *testing.T) {
	mem := memory.New()
	svc := NewSettingsService(mem.Settings(), nil, nil)

	got, err := svc.Get(context.Background(), "fresh")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != core.DefaultSettings() {
		t.Errorf("settings = %+v, want defaults", got)
	}
}

func TestSettingsServicePartialUpdate(t *testing.T) {
	mem := memory.New()
	pub := &fakePublisher{}
	svc := NewSettingsService(mem.Settings(), pub, nil)
	ctx := context.Background()

	budget := int64(30000)
	got, err := svc.Update(ctx, "u1", SettingsUpdate{WeeklyBudgetCents: &budget})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.WeeklyBudgetCents != 30000 {
		t.Errorf("WeeklyBudgetCents = %d", got.WeeklyBudgetCents)
	}
	if got.WeekStartDay != core.DefaultWeekStartDay {
		t.Errorf("WeekStartDay = %v, want untouched default", got.WeekStartDay)
	}
	if len(pub.reindex) != 0 {
		t.Errorf("budget-only change must not reindex, got %v", pub.reindex)
	}
}

func TestSettingsServiceWeekStartChangeTriggersReindex(t *testing.T) {
	mem := memory.New()
	pub := &fakePublisher{}
	hub := feed.NewHub()
	svc := NewSettingsService(mem.Settings(), pub, hub)
	ctx := context.Background()

	events, cancel := hub.Subscribe("u1")
	defer cancel()

	sunday := time.Sunday
	if _, err := svc.Update(ctx, "u1", SettingsUpdate{WeekStartDay: &sunday}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(pub.reindex) != 1 || pub.reindex[0] != int(time.Sunday) {
		t.Errorf("reindex = %v, want [0]", pub.reindex)
	}

	select {
	case ev := <-events:
		if ev.Op != feed.OpSettingsChanged {
			t.Errorf("event op = %q", ev.Op)
		}
	default:
		t.Fatal("expected a settings event")
	}

	// Setting the same value again is a no-op for the worker.
	if _, err := svc.Update(ctx, "u1", SettingsUpdate{WeekStartDay: &sunday}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(pub.reindex) != 1 {
		t.Errorf("unchanged week start must not reindex again, got %v", pub.reindex)
	}
}

func TestSettingsServiceRejectsInvalid(t *testing.T) {
	mem := memory.New()
	svc := NewSettingsService(mem.Settings(), nil, nil)

	bad := int64(0)
	_, err := svc.Update(context.Background(), "u1", SettingsUpdate{WeeklyBudgetCents: &bad})
	if !errors.Is(err, core.ErrInvalidBudget) {
		t.Fatalf("err = %v, want ErrInvalidBudget", err)
	}
	var verr *store.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("err = %v, want ValidationError", err)
	}
}
