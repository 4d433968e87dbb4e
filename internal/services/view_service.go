package services

import (
	"context"
	"fmt"

	"outlay/internal/calendar"
	"outlay/internal/core"
	"outlay/internal/report"
	"outlay/internal/store"
)

type (
	// DayView is one day's records with totals and a category breakdown.
	DayView struct {
		Date       core.Date
		DayKey     string
		Records    []core.ExpenseRecord
		TotalCents int64
		Breakdown  []report.CategoryTotal
	}

	// DaySummary is one column of a week grid.
	DaySummary struct {
		Date       core.Date
		DayKey     string
		TotalCents int64
		Count      int
	}

	// WeekView is the budget week containing the anchor date: seven day
	// columns plus the evaluation against the weekly budget.
	WeekView struct {
		WeekKey    string
		Start      core.Date
		End        core.Date
		Days       []DaySummary
		TotalCents int64
		Budget     report.Evaluation
		Breakdown  []report.CategoryTotal
		Segments   []report.Segment
	}

	// WeekSummary is one row of a month's weekly breakdown.
	WeekSummary struct {
		WeekKey    string
		TotalCents int64
		IsOver     bool
	}

	// MonthView aggregates a calendar month: weekly totals flagged against
	// the weekly budget, plus a month-wide category breakdown.
	MonthView struct {
		MonthKey   string
		Start      core.Date
		End        core.Date
		Weeks      []WeekSummary
		TotalCents int64
		Breakdown  []report.CategoryTotal
	}

	// RangeView lists records over an inclusive date range, optionally
	// filtered to a single category.
	RangeView struct {
		Start      core.Date
		End        core.Date
		Records    []core.ExpenseRecord
		TotalCents int64
		Breakdown  []report.CategoryTotal
	}
)

// ViewService builds the read models the clients render. All calendar math
// uses the scope's current week-start setting, the same derivation the write
// path uses, so stored keys and queried keys always agree.
type ViewService struct {
	expenses   store.ExpenseStore
	categories store.CategoryStore
	settings   store.SettingsStore
}

func NewViewService(expenses store.ExpenseStore, categories store.CategoryStore, settings store.SettingsStore) *ViewService {
	return &ViewService{expenses: expenses, categories: categories, settings: settings}
}

func (s *ViewService) Day(ctx context.Context, scopeID string, date core.Date) (DayView, error) {
	dayKey := calendar.DayKey(date)
	records, err := s.expenses.FetchByDayKey(ctx, scopeID, dayKey)
	if err != nil {
		return DayView{}, fmt.Errorf("fetch day %s: %w", dayKey, err)
	}
	cats, err := s.categories.List(ctx, scopeID)
	if err != nil {
		return DayView{}, fmt.Errorf("list categories: %w", err)
	}

	return DayView{
		Date:       date,
		DayKey:     dayKey,
		Records:    records,
		TotalCents: report.Total(records),
		Breakdown:  report.CategoryBreakdown(records, cats),
	}, nil
}

func (s *ViewService) Week(ctx context.Context, scopeID string, anchor core.Date) (WeekView, error) {
	cfg, err := s.settings.Get(ctx, scopeID)
	if err != nil {
		return WeekView{}, fmt.Errorf("load settings: %w", err)
	}

	weekKey := calendar.WeekKey(anchor, cfg.WeekStartDay)
	records, err := s.expenses.FetchByWeekKey(ctx, scopeID, weekKey)
	if err != nil {
		return WeekView{}, fmt.Errorf("fetch week %s: %w", weekKey, err)
	}
	cats, err := s.categories.List(ctx, scopeID)
	if err != nil {
		return WeekView{}, fmt.Errorf("list categories: %w", err)
	}

	byDay := report.GroupByDayKey(records)
	days := make([]DaySummary, 0, 7)
	for _, d := range calendar.DaysInWeek(anchor, cfg.WeekStartDay) {
		key := calendar.DayKey(d)
		days = append(days, DaySummary{
			Date:       d,
			DayKey:     key,
			TotalCents: report.Total(byDay[key]),
			Count:      len(byDay[key]),
		})
	}

	total := report.Total(records)
	breakdown := report.CategoryBreakdown(records, cats)

	return WeekView{
		WeekKey:    weekKey,
		Start:      calendar.WeekStartDate(anchor, cfg.WeekStartDay),
		End:        calendar.WeekEndDate(anchor, cfg.WeekStartDay),
		Days:       days,
		TotalCents: total,
		Budget:     report.Evaluate(total, cfg.WeeklyBudgetCents),
		Breakdown:  breakdown,
		Segments:   report.Segments(breakdown, cfg.WeeklyBudgetCents),
	}, nil
}

func (s *ViewService) Month(ctx context.Context, scopeID string, anchor core.Date) (MonthView, error) {
	cfg, err := s.settings.Get(ctx, scopeID)
	if err != nil {
		return MonthView{}, fmt.Errorf("load settings: %w", err)
	}

	monthKey := calendar.MonthKey(anchor)
	records, err := s.expenses.FetchByMonthKey(ctx, scopeID, monthKey)
	if err != nil {
		return MonthView{}, fmt.Errorf("fetch month %s: %w", monthKey, err)
	}
	cats, err := s.categories.List(ctx, scopeID)
	if err != nil {
		return MonthView{}, fmt.Errorf("list categories: %w", err)
	}

	weekKeys := calendar.WeekKeysInMonth(anchor, cfg.WeekStartDay)
	totals := report.WeeklyTotalsWithinMonth(records, weekKeys)
	weeks := make([]WeekSummary, 0, len(weekKeys))
	for _, key := range weekKeys {
		weeks = append(weeks, WeekSummary{
			WeekKey:    key,
			TotalCents: totals[key],
			IsOver:     totals[key] > cfg.WeeklyBudgetCents,
		})
	}

	return MonthView{
		MonthKey:   monthKey,
		Start:      calendar.MonthStartDate(anchor),
		End:        calendar.MonthEndDate(anchor),
		Weeks:      weeks,
		TotalCents: report.Total(records),
		Breakdown:  report.CategoryBreakdown(records, cats),
	}, nil
}

// Range lists records between start and end inclusive. A non-empty categoryID
// keeps only records labeled with it.
func (s *ViewService) Range(ctx context.Context, scopeID string, start, end core.Date, categoryID string) (RangeView, error) {
	records, err := s.expenses.FetchByDateRange(ctx, scopeID, store.DateRange{Start: start, End: end})
	if err != nil {
		return RangeView{}, fmt.Errorf("fetch range: %w", err)
	}
	cats, err := s.categories.List(ctx, scopeID)
	if err != nil {
		return RangeView{}, fmt.Errorf("list categories: %w", err)
	}

	if categoryID != "" {
		filtered := records[:0]
		for _, r := range records {
			if r.HasCategory(categoryID) {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}

	return RangeView{
		Start:      start,
		End:        end,
		Records:    records,
		TotalCents: report.Total(records),
		Breakdown:  report.CategoryBreakdown(records, cats),
	}, nil
}
