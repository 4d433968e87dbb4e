// Package http exposes the JSON API. All data routes are scoped by the
// bearer token's subject; views are cached per scope and invalidated by the
// change feed.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"outlay/internal/cache"
	"outlay/internal/feed"
	"outlay/internal/identity"
	applog "outlay/internal/log"
	"outlay/internal/services"
)

type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeyScopeID
)

// Deps carries everything the server needs.
type Deps struct {
	Expenses   *services.ExpenseService
	Categories *services.CategoryService
	Settings   *services.SettingsService
	Views      *services.ViewService
	Identity   *identity.Provider
	Hub        *feed.Hub
}

type Server struct {
	http.Server

	deps        Deps
	rateLimiter *rateLimiter
	viewCache   *cache.LRU[[]byte]
	caches      *cache.Manager

	// stops the feed-driven invalidation loop
	stopInvalidate func()
	shutdownOnce   sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		deps:        deps,
		rateLimiter: newRateLimiter(60),
		viewCache:   cache.NewLRU[[]byte](500, 5*time.Minute),
		caches:      cache.NewManager(),
	}

	s.caches.Register(s.viewCache)
	s.caches.Start(10 * time.Minute)
	s.startInvalidation()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/expenses", s.secured(s.handleCreateExpense))
	mux.HandleFunc("GET /api/expenses/{id}", s.secured(s.handleGetExpense))
	mux.HandleFunc("PUT /api/expenses/{id}", s.secured(s.handleUpdateExpense))
	mux.HandleFunc("DELETE /api/expenses/{id}", s.secured(s.handleDeleteExpense))

	mux.HandleFunc("GET /api/categories", s.secured(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", s.secured(s.handleCreateCategory))
	mux.HandleFunc("PUT /api/categories/{id}", s.secured(s.handleRenameCategory))
	mux.HandleFunc("DELETE /api/categories/{id}", s.secured(s.handleDeleteCategory))

	mux.HandleFunc("GET /api/settings", s.secured(s.handleGetSettings))
	mux.HandleFunc("PATCH /api/settings", s.secured(s.handleUpdateSettings))

	mux.HandleFunc("GET /api/views/day/{date}", s.secured(s.cached(s.handleDayView)))
	mux.HandleFunc("GET /api/views/week/{date}", s.secured(s.cached(s.handleWeekView)))
	mux.HandleFunc("GET /api/views/month/{month}", s.secured(s.cached(s.handleMonthView)))
	mux.HandleFunc("GET /api/views/range", s.secured(s.cached(s.handleRangeView)))

	mux.HandleFunc("GET /api/stream", s.secured(s.handleStream))

	return s
}

// startInvalidation drops a scope's cached views whenever one of its records
// or settings changes.
func (s *Server) startInvalidation() {
	if s.deps.Hub == nil {
		s.stopInvalidate = func() {}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.stopInvalidate = cancel

	go func() {
		events, unsubscribe := s.deps.Hub.SubscribeAll()
		defer unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				dropped := s.viewCache.DeletePrefix(ev.ScopeID + "|")
				if dropped > 0 {
					slog.Debug("invalidated cached views",
						applog.FieldScopeID, ev.ScopeID, "dropped", dropped)
				}
			}
		}
	}()
}

// secured applies security headers, request logging, authentication and
// write-path rate limiting.
func (s *Server) secured(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), ctxKeyRequestID, requestID)
		r = r.WithContext(ctx)

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		scopeID, err := s.deps.Identity.ScopeFromHeader(r.Header.Get("Authorization"))
		if err != nil {
			slog.InfoContext(ctx, "request rejected",
				applog.FieldRequestID, requestID, applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path, applog.FieldClientIP, clientIP,
				applog.FieldError, err)
			respondError(w, http.StatusUnauthorized, "invalid or missing token")
			return
		}
		ctx = context.WithValue(ctx, ctxKeyScopeID, scopeID)
		r = r.WithContext(ctx)

		if isWrite(r.Method) && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "rate limit exceeded",
				applog.FieldClientIP, clientIP, applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			respondError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "request completed",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.status,
			applog.FieldDuration, time.Since(start).Milliseconds(),
			applog.FieldClientIP, clientIP)
	}
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// cached serves GET responses from the per-scope view cache. Keys include
// the full URL so every view variant caches independently.
func (s *Server) cached(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := scopeID(r.Context()) + "|" + r.URL.RequestURI()

		if body, ok := s.viewCache.Get(key); ok {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-Cache", "hit")
			_, _ = w.Write(body)
			return
		}

		rec := &recordingWriter{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)

		if rec.status == http.StatusOK {
			s.viewCache.Set(key, rec.body)
		}
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// recordingWriter tees the response body so it can be cached.
type recordingWriter struct {
	http.ResponseWriter
	status int
	body   []byte
}

func (w *recordingWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	w.body = append(w.body, b...)
	return w.ResponseWriter.Write(b)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func scopeID(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyScopeID).(string)
	return v
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Shutdown stops background loops and then the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		if s.stopInvalidate != nil {
			s.stopInvalidate()
		}
		s.caches.Stop()
		s.rateLimiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
