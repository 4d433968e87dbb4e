// Package report contains the aggregation arithmetic behind the daily,
// weekly, monthly and bank views: totals, day grouping, proportional
// category breakdowns, and budget classification.
//
// Every function is pure and performs no I/O; callers pass fully materialized
// snapshots and malformed records (amount <= 0) contribute nothing instead of
// failing, so totals stay computable on whatever data is present.
package report

import (
	"math"
	"sort"

	"outlay/internal/core"
)

// UncategorizedName labels the synthetic bucket for records without
// categories. The bucket has an empty category id and the neutral color.
const UncategorizedName = "Uncategorized"

// CategoryTotal is one row of a category breakdown.
type CategoryTotal struct {
	CategoryID string // empty for the uncategorized bucket
	Name       string
	Color      core.ColorToken
	TotalCents int64
}

// Total sums record amounts in exact integer arithmetic. Empty input is 0;
// non-positive amounts are skipped.
func Total(records []core.ExpenseRecord) int64 {
	var sum int64
	for _, r := range records {
		if r.Amount.Cents > 0 {
			sum += r.Amount.Cents
		}
	}
	return sum
}

// GroupByDayKey buckets records by their stored day key. Within a day the
// order is most-recent-created-first, with the record id as a deterministic
// tiebreak for identical timestamps.
func GroupByDayKey(records []core.ExpenseRecord) map[string][]core.ExpenseRecord {
	grouped := make(map[string][]core.ExpenseRecord)
	for _, r := range records {
		grouped[r.DayKey] = append(grouped[r.DayKey], r)
	}
	for key, day := range grouped {
		sort.SliceStable(day, func(i, j int) bool {
			if !day[i].CreatedAt.Equal(day[j].CreatedAt) {
				return day[i].CreatedAt.After(day[j].CreatedAt)
			}
			return day[i].ID < day[j].ID
		})
		grouped[key] = day
	}
	return grouped
}

// CategoryBreakdown splits each record's amount evenly across its categories
// and returns per-category totals sorted by total descending, name ascending
// on ties.
//
// The split accumulates as a real value per category and is rounded once per
// bucket at the end, so summing the breakdown reconstructs Total(records)
// within one cent per bucket. Records without categories contribute their
// full amount to the synthetic uncategorized bucket. Categories with no
// matched records are omitted.
func CategoryBreakdown(records []core.ExpenseRecord, categories []core.Category) []CategoryTotal {
	byID := make(map[string]core.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	totals := make(map[string]float64)
	for _, r := range records {
		if r.Amount.Cents <= 0 {
			continue
		}
		if r.Uncategorized() {
			totals[""] += float64(r.Amount.Cents)
			continue
		}
		share := float64(r.Amount.Cents) / float64(len(r.CategoryIDs))
		for _, id := range r.CategoryIDs {
			totals[id] += share
		}
	}

	out := make([]CategoryTotal, 0, len(totals))
	for id, total := range totals {
		rounded := int64(math.Round(total))
		if rounded == 0 {
			continue
		}
		row := CategoryTotal{CategoryID: id, TotalCents: rounded}
		if id == "" {
			row.Name = UncategorizedName
			row.Color = core.ColorNeutral
		} else {
			cat, known := byID[id]
			if !known {
				// Label deleted after the record was written; skip it the way
				// the category list view would.
				continue
			}
			row.Name = cat.Name
			row.Color = cat.Color.Normalize()
		}
		out = append(out, row)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalCents != out[j].TotalCents {
			return out[i].TotalCents > out[j].TotalCents
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// WeeklyTotalsWithinMonth sums records per stored week key for each supplied
// key, zero-filling keys with no records. Records keyed outside the supplied
// list are ignored.
func WeeklyTotalsWithinMonth(records []core.ExpenseRecord, weekKeys []string) map[string]int64 {
	totals := make(map[string]int64, len(weekKeys))
	for _, k := range weekKeys {
		totals[k] = 0
	}
	for _, r := range records {
		if _, ok := totals[r.WeekKey]; !ok {
			continue
		}
		if r.Amount.Cents > 0 {
			totals[r.WeekKey] += r.Amount.Cents
		}
	}
	return totals
}
