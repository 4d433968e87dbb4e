// Package worker consumes change messages: expense changes are appended to
// the export spreadsheet, reindex messages rewrite stored week keys.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"outlay/internal/amqp"
	"outlay/internal/core"
	"outlay/internal/export"
	"outlay/internal/feed"
	applog "outlay/internal/log"
	"outlay/internal/store"
	"outlay/internal/storage"
)

type ChangeWorker struct {
	expenses   store.ExpenseStore
	categories store.CategoryStore
	reindexer  store.WeekReindexer
	exporter   export.Exporter
	// tracker is nil when the backend has no export log; catch-up is
	// skipped in that case.
	tracker   *storage.ExportLog
	hub       *feed.Hub
	batchSize int
}

func NewChangeWorker(
	expenses store.ExpenseStore,
	categories store.CategoryStore,
	reindexer store.WeekReindexer,
	exporter export.Exporter,
	tracker *storage.ExportLog,
	hub *feed.Hub,
	batchSize int,
) *ChangeWorker {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &ChangeWorker{
		expenses:   expenses,
		categories: categories,
		reindexer:  reindexer,
		exporter:   exporter,
		tracker:    tracker,
		hub:        hub,
		batchSize:  batchSize,
	}
}

// Handlers wires the worker into the message consumer.
func (w *ChangeWorker) Handlers() amqp.Handlers {
	return amqp.Handlers{
		ExpenseChanged: w.HandleExpenseChanged,
		ReindexWeeks:   w.HandleReindexWeeks,
	}
}

// HandleExpenseChanged exports one change. The message only carries the id;
// the current record is loaded from storage so a stale message can never
// export stale data.
func (w *ChangeWorker) HandleExpenseChanged(ctx context.Context, msg *amqp.ExpenseChangedMessage) error {
	slog.InfoContext(ctx, "processing expense change",
		applog.FieldScopeID, msg.ScopeID, applog.FieldRecordID, msg.ID,
		applog.FieldOp, msg.Op)

	if msg.Op == amqp.OpDelete {
		_, err := w.exporter.AppendChange(ctx, export.Row{
			ScopeID:  msg.ScopeID,
			Op:       msg.Op,
			RecordID: msg.ID,
		})
		if err != nil {
			return fmt.Errorf("export delete %s: %w", msg.ID, err)
		}
		return nil
	}

	rec, err := w.expenses.Get(ctx, msg.ScopeID, msg.ID)
	if errors.Is(err, store.ErrNotFound) {
		// Deleted between publish and consume; the delete message that
		// follows covers it.
		slog.InfoContext(ctx, "record gone before export", applog.FieldRecordID, msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load record %s: %w", msg.ID, err)
	}

	return w.exportRecord(ctx, msg.ScopeID, msg.Op, rec)
}

// HandleReindexWeeks recomputes every stored week key of a scope.
func (w *ChangeWorker) HandleReindexWeeks(ctx context.Context, msg *amqp.ReindexWeeksMessage) error {
	if msg.WeekStartDay < 0 || msg.WeekStartDay > 6 {
		slog.WarnContext(ctx, "dropping reindex with invalid week start",
			applog.FieldScopeID, msg.ScopeID, "week_start_day", msg.WeekStartDay)
		return nil
	}

	changed, err := w.reindexer.ReindexWeekKeys(ctx, msg.ScopeID, time.Weekday(msg.WeekStartDay))
	if err != nil {
		return fmt.Errorf("reindex week keys for %s: %w", msg.ScopeID, err)
	}

	slog.InfoContext(ctx, "reindexed week keys",
		applog.FieldScopeID, msg.ScopeID, "week_start_day", msg.WeekStartDay,
		"changed", changed)

	if w.hub != nil {
		w.hub.Publish(feed.Event{
			ScopeID: msg.ScopeID,
			Op:      feed.OpReindexed,
			At:      time.Now(),
		})
	}
	return nil
}

// CatchUp exports records that never made it to the spreadsheet, typically
// because the broker was down when they were written.
func (w *ChangeWorker) CatchUp(ctx context.Context) error {
	if w.tracker == nil {
		return nil
	}

	pending, err := w.tracker.ListUnexported(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list unexported: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "catching up unexported records", "count", len(pending))

	var failed int
	for _, p := range pending {
		if err := w.exportRecord(ctx, p.ScopeID, amqp.OpCreate, p.Record); err != nil {
			slog.ErrorContext(ctx, "catch-up export failed",
				"id", p.Record.ID, "error", err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("catch-up: %d of %d exports failed", failed, len(pending))
	}
	return nil
}

// RunCatchUp sweeps on an interval until ctx is cancelled. One pass runs
// immediately on start to recover from worker downtime.
func (w *ChangeWorker) RunCatchUp(ctx context.Context, interval time.Duration) error {
	if err := w.CatchUp(ctx); err != nil {
		slog.ErrorContext(ctx, "startup catch-up failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.CatchUp(ctx); err != nil {
				slog.ErrorContext(ctx, "catch-up failed", "error", err)
			}
		}
	}
}

func (w *ChangeWorker) exportRecord(ctx context.Context, scopeID, op string, rec core.ExpenseRecord) error {
	names, err := w.categoryNames(ctx, scopeID, rec.CategoryIDs)
	if err != nil {
		return err
	}

	ref, err := w.exporter.AppendChange(ctx, export.BuildRow(scopeID, op, rec, names))
	if err != nil {
		return fmt.Errorf("export %s: %w", rec.ID, err)
	}

	if w.tracker != nil {
		if err := w.tracker.MarkExported(ctx, scopeID, rec.ID); err != nil {
			// The export itself worked; the next catch-up pass will
			// retry the mark via a duplicate append at worst.
			slog.ErrorContext(ctx, "failed to mark exported",
				applog.FieldRecordID, rec.ID, applog.FieldError, err)
		}
	}

	slog.InfoContext(ctx, "exported expense change",
		applog.FieldRecordID, rec.ID, applog.FieldOp, op, applog.FieldRowRef, ref)
	return nil
}

func (w *ChangeWorker) categoryNames(ctx context.Context, scopeID string, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	list, err := w.categories.List(ctx, scopeID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	byID := make(map[string]string, len(list))
	for _, c := range list {
		byID[c.ID] = c.Name
	}

	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := byID[id]; ok {
			names = append(names, name)
		}
	}
	return names, nil
}
