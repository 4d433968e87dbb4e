package report

import (
	"testing"
	"time"

	"outlay/internal/core"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name           string
		spent, budget  int64
		wantPercentage float64
		wantRemaining  int64
		wantOver       bool
		wantTier       Tier
	}{
		{"nothing spent", 0, 10000, 0, 10000, false, TierNormal},
		{"under warning boundary", 74, 100, 74, 26, false, TierNormal},
		{"warning boundary inclusive", 75, 100, 75, 25, false, TierWarning},
		{"just under critical", 99, 100, 99, 1, false, TierWarning},
		{"critical boundary inclusive", 100, 100, 100, 0, false, TierCritical},
		{"over budget clamps percentage", 150, 100, 100, -50, true, TierCritical},
		{"scenario from weekly view", 2000, 2000, 100, 0, false, TierCritical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.spent, tt.budget)
			if got.Percentage != tt.wantPercentage {
				t.Errorf("Percentage = %v, want %v", got.Percentage, tt.wantPercentage)
			}
			if got.RemainingCents != tt.wantRemaining {
				t.Errorf("RemainingCents = %d, want %d", got.RemainingCents, tt.wantRemaining)
			}
			if got.IsOver != tt.wantOver {
				t.Errorf("IsOver = %v, want %v", got.IsOver, tt.wantOver)
			}
			if got.Tier != tt.wantTier {
				t.Errorf("Tier = %v, want %v", got.Tier, tt.wantTier)
			}
		})
	}
}

func TestEvaluate_IsOverMatchesComparison(t *testing.T) {
	for spent := int64(0); spent <= 300; spent += 25 {
		for _, budget := range []int64{1, 100, 250} {
			if got := Evaluate(spent, budget).IsOver; got != (spent > budget) {
				t.Fatalf("Evaluate(%d, %d).IsOver = %v", spent, budget, got)
			}
		}
	}
}

func TestEvaluate_DegenerateBudget(t *testing.T) {
	if ev := Evaluate(0, 0); ev.Tier != TierNormal || ev.IsOver {
		t.Errorf("no spend against no budget: %+v", ev)
	}
	if ev := Evaluate(1, 0); ev.Tier != TierCritical || !ev.IsOver || ev.Percentage != 100 {
		t.Errorf("spend against no budget: %+v", ev)
	}
}

func TestSegments(t *testing.T) {
	breakdown := []CategoryTotal{
		{CategoryID: "a", Name: "Food", Color: core.ColorTeal, TotalCents: 1500},
		{CategoryID: "", Name: UncategorizedName, Color: core.ColorNeutral, TotalCents: 500},
	}

	segments := Segments(breakdown, 2000)
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	if segments[0].Width != 75 || segments[1].Width != 25 {
		t.Errorf("widths = %v, %v", segments[0].Width, segments[1].Width)
	}
	if segments[0].Color != core.ColorTeal.Hex() {
		t.Errorf("segment color = %s", segments[0].Color)
	}

	// A single segment may exceed 100; clamping is the renderer's job.
	wide := Segments([]CategoryTotal{{Name: "Big", TotalCents: 3000}}, 2000)
	if wide[0].Width != 150 {
		t.Errorf("oversized width = %v, want 150", wide[0].Width)
	}

	if got := Segments(breakdown, 0); got != nil {
		t.Errorf("zero budget should yield no segments")
	}
}

func TestBudgetScenario(t *testing.T) {
	// Records {500, no categories} and {1500, category A}, budget 2000.
	categories := []core.Category{{ID: "A", Name: "A", Color: core.ColorTeal}}
	now := time.Now()
	records := []core.ExpenseRecord{
		rec("1", 500, "", "", now),
		rec("2", 1500, "", "", now, "A"),
	}

	total := Total(records)
	if total != 2000 {
		t.Fatalf("total = %d", total)
	}
	ev := Evaluate(total, 2000)
	if ev.IsOver || ev.Percentage != 100 || ev.Tier != TierCritical {
		t.Errorf("evaluation = %+v", ev)
	}
	breakdown := CategoryBreakdown(records, categories)
	if len(breakdown) != 2 || breakdown[0].Name != "A" || breakdown[0].TotalCents != 1500 ||
		breakdown[1].Name != UncategorizedName || breakdown[1].TotalCents != 500 {
		t.Errorf("breakdown = %+v", breakdown)
	}
}
