// Package services orchestrates writes and read models on top of the stores:
// bucket keys are derived here at write time, and every successful write
// publishes a change message plus a feed event.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"outlay/internal/amqp"
	"outlay/internal/calendar"
	"outlay/internal/core"
	"outlay/internal/feed"
	applog "outlay/internal/log"
	"outlay/internal/store"
)

// ChangePublisher sends change messages to the worker queue. A nil publisher
// disables messaging; local writes still succeed.
type ChangePublisher interface {
	PublishExpenseChanged(ctx context.Context, scopeID, id, op string) error
	PublishReindexWeeks(ctx context.Context, scopeID string, weekStartDay int) error
}

// ExpenseInput carries the caller-supplied fields of an expense. Bucket keys
// are never accepted from callers.
type ExpenseInput struct {
	Amount      core.Money
	Description string
	OccurredAt  core.Date
	CategoryIDs []string
}

// ExpenseService persists expenses and keeps their derived keys consistent
// with the scope's current week-start setting.
type ExpenseService struct {
	expenses  store.ExpenseStore
	settings  store.SettingsStore
	publisher ChangePublisher
	hub       *feed.Hub
}

func NewExpenseService(expenses store.ExpenseStore, settings store.SettingsStore, publisher ChangePublisher, hub *feed.Hub) *ExpenseService {
	return &ExpenseService{
		expenses:  expenses,
		settings:  settings,
		publisher: publisher,
		hub:       hub,
	}
}

// Create saves a new expense. DayKey, WeekKey and MonthKey are derived from
// OccurredAt and the scope's week-start day before the record reaches storage.
func (s *ExpenseService) Create(ctx context.Context, scopeID string, in ExpenseInput) (core.ExpenseRecord, error) {
	rec := core.ExpenseRecord{
		Amount:      in.Amount,
		Description: in.Description,
		OccurredAt:  in.OccurredAt,
		CategoryIDs: in.CategoryIDs,
	}
	if err := s.deriveKeys(ctx, scopeID, &rec); err != nil {
		return core.ExpenseRecord{}, err
	}

	id, err := s.expenses.Create(ctx, scopeID, rec)
	if err != nil {
		return core.ExpenseRecord{}, fmt.Errorf("create expense: %w", err)
	}

	saved, err := s.expenses.Get(ctx, scopeID, id)
	if err != nil {
		return core.ExpenseRecord{}, fmt.Errorf("reload expense %s: %w", id, err)
	}

	s.announce(ctx, scopeID, saved, amqp.OpCreate, feed.OpCreated)
	return saved, nil
}

// Update replaces the caller-supplied fields of an existing expense and
// recomputes every derived key, whether or not OccurredAt changed.
func (s *ExpenseService) Update(ctx context.Context, scopeID, id string, in ExpenseInput) (core.ExpenseRecord, error) {
	current, err := s.expenses.Get(ctx, scopeID, id)
	if err != nil {
		return core.ExpenseRecord{}, fmt.Errorf("load expense %s: %w", id, err)
	}

	current.Amount = in.Amount
	current.Description = in.Description
	current.OccurredAt = in.OccurredAt
	current.CategoryIDs = in.CategoryIDs
	if err := s.deriveKeys(ctx, scopeID, &current); err != nil {
		return core.ExpenseRecord{}, err
	}

	if err := s.expenses.Update(ctx, scopeID, current); err != nil {
		return core.ExpenseRecord{}, fmt.Errorf("update expense %s: %w", id, err)
	}

	saved, err := s.expenses.Get(ctx, scopeID, id)
	if err != nil {
		return core.ExpenseRecord{}, fmt.Errorf("reload expense %s: %w", id, err)
	}

	s.announce(ctx, scopeID, saved, amqp.OpUpdate, feed.OpUpdated)
	return saved, nil
}

// Delete removes an expense. The feed event still carries the old bucket keys
// so cached views covering them can be dropped.
func (s *ExpenseService) Delete(ctx context.Context, scopeID, id string) error {
	current, err := s.expenses.Get(ctx, scopeID, id)
	if err != nil {
		return fmt.Errorf("load expense %s: %w", id, err)
	}

	if err := s.expenses.Delete(ctx, scopeID, id); err != nil {
		return fmt.Errorf("delete expense %s: %w", id, err)
	}

	s.announce(ctx, scopeID, current, amqp.OpDelete, feed.OpDeleted)
	return nil
}

func (s *ExpenseService) Get(ctx context.Context, scopeID, id string) (core.ExpenseRecord, error) {
	return s.expenses.Get(ctx, scopeID, id)
}

func (s *ExpenseService) deriveKeys(ctx context.Context, scopeID string, rec *core.ExpenseRecord) error {
	cfg, err := s.settings.Get(ctx, scopeID)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	rec.DayKey = calendar.DayKey(rec.OccurredAt)
	rec.WeekKey = calendar.WeekKey(rec.OccurredAt, cfg.WeekStartDay)
	rec.MonthKey = calendar.MonthKey(rec.OccurredAt)
	return nil
}

func (s *ExpenseService) announce(ctx context.Context, scopeID string, rec core.ExpenseRecord, amqpOp string, feedOp feed.Op) {
	if s.publisher != nil {
		if err := s.publisher.PublishExpenseChanged(ctx, scopeID, rec.ID, amqpOp); err != nil {
			// The local write already succeeded; the worker's catch-up
			// pass will pick the record up later.
			slog.ErrorContext(ctx, "failed to publish change message",
				applog.FieldRecordID, rec.ID, applog.FieldOp, amqpOp,
				applog.FieldError, err)
		}
	}
	if s.hub != nil {
		s.hub.Publish(feed.Event{
			ScopeID:  scopeID,
			Op:       feedOp,
			RecordID: rec.ID,
			DayKey:   rec.DayKey,
			WeekKey:  rec.WeekKey,
			MonthKey: rec.MonthKey,
			At:       time.Now(),
		})
	}
}
