package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// handleStream sends the scope's change events as server-sent events.
// Clients re-query the views they are watching when an event's keys overlap.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	if s.deps.Hub == nil {
		respondError(w, http.StatusServiceUnavailable, "change feed unavailable")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	scope := scopeID(r.Context())
	events, cancel := s.deps.Hub.Subscribe(scope)
	defer cancel()

	slog.InfoContext(r.Context(), "stream opened", "scope_id", scope)

	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			slog.InfoContext(r.Context(), "stream closed", "scope_id", scope)
			return
		case <-keepalive.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case ev, ok := <-events:
			if !ok {
				return
			}
			payload, err := json.Marshal(struct {
				Op       string `json:"op"`
				RecordID string `json:"record_id,omitempty"`
				DayKey   string `json:"day_key,omitempty"`
				WeekKey  string `json:"week_key,omitempty"`
				MonthKey string `json:"month_key,omitempty"`
				At       string `json:"at"`
			}{
				Op:       string(ev.Op),
				RecordID: ev.RecordID,
				DayKey:   ev.DayKey,
				WeekKey:  ev.WeekKey,
				MonthKey: ev.MonthKey,
				At:       ev.At.UTC().Format(time.RFC3339),
			})
			if err != nil {
				slog.ErrorContext(r.Context(), "failed to encode event", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: change\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
