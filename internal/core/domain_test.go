package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestExpenseRecord_Validate(t *testing.T) {
	valid := ExpenseRecord{
		Amount:      Money{Cents: 1250},
		Description: "groceries",
		OccurredAt:  NewDate(2026, time.January, 15),
	}

	tests := []struct {
		name    string
		mutate  func(*ExpenseRecord)
		wantErr error
	}{
		{"valid", func(e *ExpenseRecord) {}, nil},
		{"zero date", func(e *ExpenseRecord) { e.OccurredAt = Date{} }, ErrInvalidDate},
		{"zero amount", func(e *ExpenseRecord) { e.Amount.Cents = 0 }, ErrInvalidAmount},
		{"negative amount", func(e *ExpenseRecord) { e.Amount.Cents = -100 }, ErrInvalidAmount},
		{"empty description", func(e *ExpenseRecord) { e.Description = "  " }, ErrEmptyDescription},
		{"long description", func(e *ExpenseRecord) { e.Description = strings.Repeat("x", 201) }, ErrDescriptionTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := valid
			tt.mutate(&e)
			err := e.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSettings_Validate(t *testing.T) {
	if err := DefaultSettings().Validate(); err != nil {
		t.Fatalf("default settings should validate: %v", err)
	}
	if err := (Settings{WeeklyBudgetCents: 0, WeekStartDay: time.Monday}).Validate(); !errors.Is(err, ErrInvalidBudget) {
		t.Errorf("zero budget: got %v", err)
	}
	if err := (Settings{WeeklyBudgetCents: 100, WeekStartDay: 7}).Validate(); !errors.Is(err, ErrInvalidWeekStartDay) {
		t.Errorf("weekday out of range: got %v", err)
	}
}

func TestExpenseRecord_HasCategory(t *testing.T) {
	e := ExpenseRecord{CategoryIDs: []string{"a", "b"}}
	if !e.HasCategory("b") || e.HasCategory("c") {
		t.Errorf("HasCategory mismatch: %v", e.CategoryIDs)
	}
	if e.Uncategorized() {
		t.Error("record with categories reported uncategorized")
	}
	if !(ExpenseRecord{}).Uncategorized() {
		t.Error("empty record should be uncategorized")
	}
}

func TestColorToken(t *testing.T) {
	if got := ColorTeal.Hex(); got != "#2dd4bf" {
		t.Errorf("teal hex = %q", got)
	}
	if got := ColorToken("slate-900").Hex(); got != ColorNeutral.Hex() {
		t.Errorf("unknown token should fall back to neutral, got %q", got)
	}
	if got := ColorToken("bogus").Normalize(); got != ColorNeutral {
		t.Errorf("Normalize(bogus) = %q", got)
	}
	for i := 0; i < 2*len(Palette); i++ {
		if c := PaletteColor(i); !c.IsValid() || c == ColorNeutral {
			t.Fatalf("PaletteColor(%d) = %q", i, c)
		}
	}
	if PaletteColor(0) != PaletteColor(len(Palette)) {
		t.Error("palette rotation should wrap")
	}
}
