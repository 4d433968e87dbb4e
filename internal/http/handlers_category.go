package http

import (
	"net/http"
	"time"

	"outlay/internal/core"
)

type categoryRequest struct {
	Name string `json:"name"`
}

type categoryResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Color      string `json:"color"`
	ColorHex   string `json:"color_hex"`
	LastUsedAt string `json:"last_used_at,omitempty"`
}

func toCategoryResponse(c core.Category) categoryResponse {
	resp := categoryResponse{
		ID:       c.ID,
		Name:     c.Name,
		Color:    string(c.Color),
		ColorHex: c.Color.Hex(),
	}
	if !c.LastUsedAt.IsZero() {
		resp.LastUsedAt = c.LastUsedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Categories.List(r.Context(), scopeID(r.Context()))
	if err != nil {
		respondStoreError(w, err)
		return
	}

	out := make([]categoryResponse, 0, len(list))
	for _, c := range list {
		out = append(out, toCategoryResponse(c))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	created, err := s.deps.Categories.Create(r.Context(), scopeID(r.Context()), sanitizeInput(req.Name))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, toCategoryResponse(created))
}

func (s *Server) handleRenameCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	renamed, err := s.deps.Categories.Rename(r.Context(), scopeID(r.Context()), r.PathValue("id"), sanitizeInput(req.Name))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toCategoryResponse(renamed))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Categories.Delete(r.Context(), scopeID(r.Context()), r.PathValue("id")); err != nil {
		respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
