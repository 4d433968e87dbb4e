package http

import (
	"net/http"

	"outlay/internal/calendar"
	"outlay/internal/core"
	"outlay/internal/report"
)

type breakdownEntry struct {
	CategoryID string `json:"category_id,omitempty"`
	Name       string `json:"name"`
	Color      string `json:"color"`
	ColorHex   string `json:"color_hex"`
	TotalCents int64  `json:"total_cents"`
	Total      string `json:"total"`
}

func toBreakdown(rows []report.CategoryTotal) []breakdownEntry {
	out := make([]breakdownEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, breakdownEntry{
			CategoryID: row.CategoryID,
			Name:       row.Name,
			Color:      string(row.Color),
			ColorHex:   row.Color.Hex(),
			TotalCents: row.TotalCents,
			Total:      core.FormatCents(row.TotalCents),
		})
	}
	return out
}

type budgetEntry struct {
	Percentage     float64 `json:"percentage"`
	RemainingCents int64   `json:"remaining_cents"`
	IsOver         bool    `json:"is_over"`
	Tier           string  `json:"tier"`
}

func toBudget(e report.Evaluation) budgetEntry {
	return budgetEntry{
		Percentage:     e.Percentage,
		RemainingCents: e.RemainingCents,
		IsOver:         e.IsOver,
		Tier:           string(e.Tier),
	}
}

type segmentEntry struct {
	CategoryID string  `json:"category_id,omitempty"`
	Name       string  `json:"name"`
	Color      string  `json:"color"`
	Width      float64 `json:"width"`
}

func toSegments(segs []report.Segment) []segmentEntry {
	out := make([]segmentEntry, 0, len(segs))
	for _, seg := range segs {
		out = append(out, segmentEntry{
			CategoryID: seg.CategoryID,
			Name:       seg.Name,
			Color:      seg.Color,
			Width:      seg.Width,
		})
	}
	return out
}

func (s *Server) handleDayView(w http.ResponseWriter, r *http.Request) {
	date, err := parseDate(r.PathValue("date"))
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid date, want YYYY-MM-DD")
		return
	}

	view, err := s.deps.Views.Day(r.Context(), scopeID(r.Context()), date)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	records := make([]expenseResponse, 0, len(view.Records))
	for _, rec := range view.Records {
		records = append(records, toExpenseResponse(rec))
	}

	respondJSON(w, http.StatusOK, struct {
		DayKey      string            `json:"day_key"`
		PreviousDay string            `json:"previous_day"`
		NextDay     string            `json:"next_day"`
		Records     []expenseResponse `json:"records"`
		TotalCents  int64             `json:"total_cents"`
		Total       string            `json:"total"`
		Breakdown   []breakdownEntry  `json:"breakdown"`
	}{
		DayKey:      view.DayKey,
		PreviousDay: calendar.DayKey(calendar.PreviousDay(date)),
		NextDay:     calendar.DayKey(calendar.NextDay(date)),
		Records:     records,
		TotalCents:  view.TotalCents,
		Total:       core.FormatCents(view.TotalCents),
		Breakdown:   toBreakdown(view.Breakdown),
	})
}

func (s *Server) handleWeekView(w http.ResponseWriter, r *http.Request) {
	anchor, err := parseDate(r.PathValue("date"))
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid date, want YYYY-MM-DD")
		return
	}

	view, err := s.deps.Views.Week(r.Context(), scopeID(r.Context()), anchor)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	type dayEntry struct {
		DayKey     string `json:"day_key"`
		TotalCents int64  `json:"total_cents"`
		Count      int    `json:"count"`
	}
	days := make([]dayEntry, 0, len(view.Days))
	for _, d := range view.Days {
		days = append(days, dayEntry{DayKey: d.DayKey, TotalCents: d.TotalCents, Count: d.Count})
	}

	respondJSON(w, http.StatusOK, struct {
		WeekKey        string           `json:"week_key"`
		Start          string           `json:"start"`
		End            string           `json:"end"`
		PreviousAnchor string           `json:"previous_anchor"`
		NextAnchor     string           `json:"next_anchor"`
		Days           []dayEntry       `json:"days"`
		TotalCents     int64            `json:"total_cents"`
		Total          string           `json:"total"`
		Budget         budgetEntry      `json:"budget"`
		Breakdown      []breakdownEntry `json:"breakdown"`
		Segments       []segmentEntry   `json:"segments"`
	}{
		WeekKey:        view.WeekKey,
		Start:          calendar.DayKey(view.Start),
		End:            calendar.DayKey(view.End),
		PreviousAnchor: calendar.DayKey(calendar.PreviousWeek(anchor)),
		NextAnchor:     calendar.DayKey(calendar.NextWeek(anchor)),
		Days:           days,
		TotalCents:     view.TotalCents,
		Total:          core.FormatCents(view.TotalCents),
		Budget:         toBudget(view.Budget),
		Breakdown:      toBreakdown(view.Breakdown),
		Segments:       toSegments(view.Segments),
	})
}

func (s *Server) handleMonthView(w http.ResponseWriter, r *http.Request) {
	anchor, err := parseMonth(r.PathValue("month"))
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid month, want YYYY-MM")
		return
	}

	view, err := s.deps.Views.Month(r.Context(), scopeID(r.Context()), anchor)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	type weekEntry struct {
		WeekKey    string `json:"week_key"`
		TotalCents int64  `json:"total_cents"`
		IsOver     bool   `json:"is_over"`
	}
	weeks := make([]weekEntry, 0, len(view.Weeks))
	for _, wk := range view.Weeks {
		weeks = append(weeks, weekEntry{WeekKey: wk.WeekKey, TotalCents: wk.TotalCents, IsOver: wk.IsOver})
	}

	respondJSON(w, http.StatusOK, struct {
		MonthKey      string           `json:"month_key"`
		Start         string           `json:"start"`
		End           string           `json:"end"`
		PreviousMonth string           `json:"previous_month"`
		NextMonth     string           `json:"next_month"`
		Weeks         []weekEntry      `json:"weeks"`
		TotalCents    int64            `json:"total_cents"`
		Total         string           `json:"total"`
		Breakdown     []breakdownEntry `json:"breakdown"`
	}{
		MonthKey:      view.MonthKey,
		Start:         calendar.DayKey(view.Start),
		End:           calendar.DayKey(view.End),
		PreviousMonth: calendar.MonthKey(calendar.PreviousMonth(anchor)),
		NextMonth:     calendar.MonthKey(calendar.NextMonth(anchor)),
		Weeks:         weeks,
		TotalCents:    view.TotalCents,
		Total:         core.FormatCents(view.TotalCents),
		Breakdown:     toBreakdown(view.Breakdown),
	})
}

func (s *Server) handleRangeView(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := parseDate(q.Get("start"))
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid start, want YYYY-MM-DD")
		return
	}
	end, err := parseDate(q.Get("end"))
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid end, want YYYY-MM-DD")
		return
	}
	if end.Before(start.Time) {
		respondError(w, http.StatusUnprocessableEntity, "end before start")
		return
	}

	view, err := s.deps.Views.Range(r.Context(), scopeID(r.Context()), start, end, q.Get("category"))
	if err != nil {
		respondStoreError(w, err)
		return
	}

	records := make([]expenseResponse, 0, len(view.Records))
	for _, rec := range view.Records {
		records = append(records, toExpenseResponse(rec))
	}

	respondJSON(w, http.StatusOK, struct {
		Start      string            `json:"start"`
		End        string            `json:"end"`
		Records    []expenseResponse `json:"records"`
		TotalCents int64             `json:"total_cents"`
		Total      string            `json:"total"`
		Breakdown  []breakdownEntry  `json:"breakdown"`
	}{
		Start:      calendar.DayKey(start),
		End:        calendar.DayKey(end),
		Records:    records,
		TotalCents: view.TotalCents,
		Total:      core.FormatCents(view.TotalCents),
		Breakdown:  toBreakdown(view.Breakdown),
	})
}
