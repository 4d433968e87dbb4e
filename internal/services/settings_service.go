package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"outlay/internal/core"
	"outlay/internal/feed"
	applog "outlay/internal/log"
	"outlay/internal/store"
)

// SettingsUpdate is a partial settings change. Nil fields keep the current
// value.
type SettingsUpdate struct {
	WeeklyBudgetCents *int64
	WeekStartDay      *time.Weekday
}

// SettingsService reads and updates the per-scope budget configuration. A
// week-start change triggers a reindex message so stored week keys keep
// matching what the query path derives.
type SettingsService struct {
	settings  store.SettingsStore
	publisher ChangePublisher
	hub       *feed.Hub
}

func NewSettingsService(settings store.SettingsStore, publisher ChangePublisher, hub *feed.Hub) *SettingsService {
	return &SettingsService{settings: settings, publisher: publisher, hub: hub}
}

func (s *SettingsService) Get(ctx context.Context, scopeID string) (core.Settings, error) {
	return s.settings.Get(ctx, scopeID)
}

func (s *SettingsService) Update(ctx context.Context, scopeID string, upd SettingsUpdate) (core.Settings, error) {
	current, err := s.settings.Get(ctx, scopeID)
	if err != nil {
		return core.Settings{}, fmt.Errorf("load settings: %w", err)
	}

	next := current
	if upd.WeeklyBudgetCents != nil {
		next.WeeklyBudgetCents = *upd.WeeklyBudgetCents
	}
	if upd.WeekStartDay != nil {
		next.WeekStartDay = *upd.WeekStartDay
	}
	if err := next.Validate(); err != nil {
		return core.Settings{}, store.Validation(err)
	}

	if err := s.settings.Set(ctx, scopeID, next); err != nil {
		return core.Settings{}, fmt.Errorf("save settings: %w", err)
	}

	if next.WeekStartDay != current.WeekStartDay && s.publisher != nil {
		if err := s.publisher.PublishReindexWeeks(ctx, scopeID, int(next.WeekStartDay)); err != nil {
			// Week keys stay stale until the worker's next catch-up pass.
			slog.ErrorContext(ctx, "failed to publish reindex message",
				"week_start_day", int(next.WeekStartDay), applog.FieldError, err)
		}
	}

	if s.hub != nil {
		s.hub.Publish(feed.Event{
			ScopeID: scopeID,
			Op:      feed.OpSettingsChanged,
			At:      time.Now(),
		})
	}

	return next, nil
}
