// Package store defines the outbound contracts for expense, category and
// settings persistence. Implementations must validate writes and hand out
// snapshot copies; callers never mutate returned records.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"outlay/internal/core"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicateName = errors.New("duplicate name")
)

// ValidationError marks a write rejected before reaching storage.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %v", e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Validation wraps err as a ValidationError.
func Validation(err error) error {
	return &ValidationError{Err: err}
}

// DateRange is an inclusive day-key range.
type DateRange struct {
	Start core.Date
	End   core.Date
}

type (
	// ExpenseStore persists expense records per scope. Create and Update
	// expect derived bucket keys to be populated by the caller; the store
	// rejects records failing core validation with a ValidationError.
	ExpenseStore interface {
		Create(ctx context.Context, scopeID string, rec core.ExpenseRecord) (id string, err error)
		Update(ctx context.Context, scopeID string, rec core.ExpenseRecord) error
		Delete(ctx context.Context, scopeID, id string) error
		Get(ctx context.Context, scopeID, id string) (core.ExpenseRecord, error)

		FetchByDayKey(ctx context.Context, scopeID, dayKey string) ([]core.ExpenseRecord, error)
		FetchByWeekKey(ctx context.Context, scopeID, weekKey string) ([]core.ExpenseRecord, error)
		FetchByMonthKey(ctx context.Context, scopeID, monthKey string) ([]core.ExpenseRecord, error)
		FetchByDateRange(ctx context.Context, scopeID string, r DateRange) ([]core.ExpenseRecord, error)
	}

	// CategoryStore persists tag/bank labels. Names are unique per scope.
	CategoryStore interface {
		List(ctx context.Context, scopeID string) ([]core.Category, error)
		Create(ctx context.Context, scopeID string, c core.Category) (id string, err error)
		Update(ctx context.Context, scopeID string, c core.Category) error
		Delete(ctx context.Context, scopeID, id string) error
	}

	// SettingsStore persists the per-scope budget configuration. Get returns
	// defaults when the scope has no saved settings yet.
	SettingsStore interface {
		Get(ctx context.Context, scopeID string) (core.Settings, error)
		Set(ctx context.Context, scopeID string, s core.Settings) error
	}

	// WeekReindexer bulk-recomputes stored week keys after the week-start
	// setting changes.
	WeekReindexer interface {
		ReindexWeekKeys(ctx context.Context, scopeID string, weekStart time.Weekday) (int, error)
	}
)
