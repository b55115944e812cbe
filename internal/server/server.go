// Package server exposes the vault over HTTP: action and approval state,
// audit queries, health, the rendered dashboard, and a live audit stream.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/yuin/goldmark"

	"github.com/ziadkadry99/vaultpilot/internal/action"
	"github.com/ziadkadry99/vaultpilot/internal/audit"
	"github.com/ziadkadry99/vaultpilot/internal/dashboard"
	"github.com/ziadkadry99/vaultpilot/internal/plan"
	"github.com/ziadkadry99/vaultpilot/internal/recovery"
)

// Server serves the vault API.
type Server struct {
	store   *action.Store
	gate    *plan.Gate
	checker *recovery.Checker
	trail   *audit.Trail
	audits  *audit.Store
	board   *dashboard.Board
	logger  *slog.Logger

	httpServer *http.Server
}

// New creates a Server with its routes mounted.
func New(store *action.Store, gate *plan.Gate, checker *recovery.Checker,
	trail *audit.Trail, audits *audit.Store, board *dashboard.Board, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:   store,
		gate:    gate,
		checker: checker,
		trail:   trail,
		audits:  audits,
		board:   board,
		logger:  logger,
	}
}

// Router builds the chi router.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/actions", func(r chi.Router) {
		r.Get("/", s.handleActions)
		r.Get("/pending", s.handleActions)
	})

	r.Route("/api/approvals", func(r chi.Router) {
		r.Get("/", s.handleApprovals)
		r.Post("/{id}/approve", s.handleDecision(s.gate.Approve, "approved"))
		r.Post("/{id}/reject", s.handleDecision(s.gate.Reject, "rejected"))
	})

	audit.RegisterRoutes(r, s.audits, s.trail)

	r.Get("/dashboard", s.handleDashboard)
	r.Get("/ws", s.handleWS)

	return r
}

// ListenAndServe blocks serving on addr until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	s.logger.Info("http server listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.checker.Check()
	status := http.StatusOK
	if report.OverallStatus == "critical" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

func (s *Server) handleActions(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.ListPending()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	type item struct {
		ID       string        `json:"id"`
		Channel  string        `json:"channel"`
		Type     string        `json:"type"`
		Priority string        `json:"priority"`
		Status   action.Status `json:"status"`
		Created  string        `json:"created"`
	}
	items := make([]item, 0, len(records))
	for _, rec := range records {
		items = append(items, item{
			ID:       rec.ID(),
			Channel:  rec.Channel(),
			Type:     rec.Meta.Type,
			Priority: rec.Meta.Priority,
			Status:   rec.Meta.Status,
			Created:  rec.Meta.Created,
		})
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleApprovals(w http.ResponseWriter, r *http.Request) {
	pending, err := s.gate.ListPending()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if pending == nil {
		pending = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"pending": pending})
}

func (s *Server) handleDecision(decide func(string) error, decision string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := decide(id); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"action": id, "decision": decision})
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	content, err := s.board.Content()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(content), &buf); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<!DOCTYPE html><html><head><title>VaultPilot</title></head><body>%s</body></html>", buf.String())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
