package http

import (
	"net/http"
	"time"

	"outlay/internal/core"
	"outlay/internal/services"
)

type settingsRequest struct {
	WeeklyBudgetCents *int64 `json:"weekly_budget_cents"`
	WeekStartDay      *int   `json:"week_start_day"` // 0 Sunday .. 6 Saturday
}

type settingsResponse struct {
	WeeklyBudgetCents int64  `json:"weekly_budget_cents"`
	WeeklyBudget      string `json:"weekly_budget"`
	WeekStartDay      int    `json:"week_start_day"`
}

func toSettingsResponse(s core.Settings) settingsResponse {
	return settingsResponse{
		WeeklyBudgetCents: s.WeeklyBudgetCents,
		WeeklyBudget:      core.FormatCents(s.WeeklyBudgetCents),
		WeekStartDay:      int(s.WeekStartDay),
	}
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	got, err := s.deps.Settings.Get(r.Context(), scopeID(r.Context()))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toSettingsResponse(got))
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	upd := services.SettingsUpdate{WeeklyBudgetCents: req.WeeklyBudgetCents}
	if req.WeekStartDay != nil {
		if *req.WeekStartDay < 0 || *req.WeekStartDay > 6 {
			respondError(w, http.StatusUnprocessableEntity, "week_start_day must be 0 through 6")
			return
		}
		day := time.Weekday(*req.WeekStartDay)
		upd.WeekStartDay = &day
	}

	saved, err := s.deps.Settings.Update(r.Context(), scopeID(r.Context()), upd)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toSettingsResponse(saved))
}
