package core

import (
	"errors"
	"strings"
	"time"
)

type (
	// Date is a calendar date. The time portion is normalized to midnight UTC;
	// bucket keys are derived from the calendar fields only.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// ExpenseRecord is a single logged expense. The DayKey/WeekKey/MonthKey
	// fields are derived from OccurredAt plus the active week-start setting and
	// must be recomputed whenever OccurredAt changes.
	ExpenseRecord struct {
		ID          string
		Amount      Money
		Description string
		OccurredAt  Date
		CreatedAt   time.Time
		CategoryIDs []string

		DayKey   string
		WeekKey  string
		MonthKey string
	}

	// Category is a user-defined tag or bank used to label expenses.
	Category struct {
		ID         string
		Name       string
		Color      ColorToken
		LastUsedAt time.Time
	}

	// Settings holds the per-user budget configuration. Created with defaults
	// on first access and never deleted.
	Settings struct {
		WeeklyBudgetCents int64
		WeekStartDay      time.Weekday
	}
)

const (
	DefaultWeeklyBudgetCents int64 = 25000
	DefaultWeekStartDay            = time.Monday

	maxDescriptionLen = 200
)

var (
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrEmptyDescription    = errors.New("empty description")
	ErrDescriptionTooLong  = errors.New("description too long")
	ErrEmptyCategoryName   = errors.New("empty category name")
	ErrInvalidBudget       = errors.New("invalid weekly budget")
	ErrInvalidWeekStartDay = errors.New("invalid week start day")
)

// NewDate creates a Date from year, month, day at midnight UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e ExpenseRecord) Validate() error {
	if err := e.OccurredAt.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Description) == "" {
		return ErrEmptyDescription
	}
	if len(e.Description) > maxDescriptionLen {
		return ErrDescriptionTooLong
	}
	return e.Amount.Validate()
}

// Uncategorized reports whether the record has no category labels.
func (e ExpenseRecord) Uncategorized() bool {
	return len(e.CategoryIDs) == 0
}

// HasCategory reports whether the record carries the given category id.
func (e ExpenseRecord) HasCategory(id string) bool {
	for _, cid := range e.CategoryIDs {
		if cid == id {
			return true
		}
	}
	return false
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyCategoryName
	}
	return nil
}

// DefaultSettings returns the configuration used before the user has saved one.
func DefaultSettings() Settings {
	return Settings{
		WeeklyBudgetCents: DefaultWeeklyBudgetCents,
		WeekStartDay:      DefaultWeekStartDay,
	}
}

func (s Settings) Validate() error {
	if s.WeeklyBudgetCents <= 0 {
		return ErrInvalidBudget
	}
	if s.WeekStartDay < time.Sunday || s.WeekStartDay > time.Saturday {
		return ErrInvalidWeekStartDay
	}
	return nil
}
