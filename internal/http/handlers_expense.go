package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"outlay/internal/core"
	"outlay/internal/services"
)

type expenseRequest struct {
	Amount      string   `json:"amount"` // decimal units, e.g. "12.50"
	Description string   `json:"description"`
	OccurredAt  string   `json:"occurred_at"` // YYYY-MM-DD
	CategoryIDs []string `json:"category_ids"`
}

type expenseResponse struct {
	ID          string   `json:"id"`
	Amount      string   `json:"amount"`
	AmountCents int64    `json:"amount_cents"`
	Description string   `json:"description"`
	OccurredAt  string   `json:"occurred_at"`
	CreatedAt   string   `json:"created_at"`
	CategoryIDs []string `json:"category_ids"`
	DayKey      string   `json:"day_key"`
	WeekKey     string   `json:"week_key"`
	MonthKey    string   `json:"month_key"`
}

func toExpenseResponse(rec core.ExpenseRecord) expenseResponse {
	ids := rec.CategoryIDs
	if ids == nil {
		ids = []string{}
	}
	return expenseResponse{
		ID:          rec.ID,
		Amount:      core.FormatCents(rec.Amount.Cents),
		AmountCents: rec.Amount.Cents,
		Description: rec.Description,
		OccurredAt:  rec.DayKey,
		CreatedAt:   rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		CategoryIDs: ids,
		DayKey:      rec.DayKey,
		WeekKey:     rec.WeekKey,
		MonthKey:    rec.MonthKey,
	}
}

func (s *Server) parseExpenseInput(w http.ResponseWriter, r *http.Request) (services.ExpenseInput, bool) {
	var req expenseRequest
	if !decodeBody(w, r, &req) {
		return services.ExpenseInput{}, false
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid amount")
		return services.ExpenseInput{}, false
	}

	occurred, err := parseDate(req.OccurredAt)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid occurred_at, want YYYY-MM-DD")
		return services.ExpenseInput{}, false
	}

	return services.ExpenseInput{
		Amount:      core.Money{Cents: cents},
		Description: sanitizeInput(req.Description),
		OccurredAt:  occurred,
		CategoryIDs: req.CategoryIDs,
	}, true
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	in, ok := s.parseExpenseInput(w, r)
	if !ok {
		return
	}

	rec, err := s.deps.Expenses.Create(r.Context(), scopeID(r.Context()), in)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	s.touchCategories(r.Context(), scopeID(r.Context()), rec.CategoryIDs)
	respondJSON(w, http.StatusCreated, toExpenseResponse(rec))
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	rec, err := s.deps.Expenses.Get(r.Context(), scopeID(r.Context()), r.PathValue("id"))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toExpenseResponse(rec))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	in, ok := s.parseExpenseInput(w, r)
	if !ok {
		return
	}

	rec, err := s.deps.Expenses.Update(r.Context(), scopeID(r.Context()), r.PathValue("id"), in)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	s.touchCategories(r.Context(), scopeID(r.Context()), rec.CategoryIDs)
	respondJSON(w, http.StatusOK, toExpenseResponse(rec))
}

// touchCategories bumps recency on the labels an expense just used. Failures
// only affect category ordering in pickers, so they are logged and dropped.
func (s *Server) touchCategories(ctx context.Context, scope string, ids []string) {
	now := time.Now()
	for _, id := range ids {
		if err := s.deps.Categories.Touch(ctx, scope, id, now); err != nil {
			slog.DebugContext(ctx, "failed to touch category", "category_id", id, "error", err)
		}
	}
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Expenses.Delete(r.Context(), scopeID(r.Context()), r.PathValue("id")); err != nil {
		respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
