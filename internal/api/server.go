// Package api serves assessment sessions over a JSON HTTP API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/abhisek/skillprobe/internal/evaluate"
	"github.com/abhisek/skillprobe/internal/llm"
	"github.com/abhisek/skillprobe/internal/session"
)

// Server exposes a session.Registry over HTTP.
type Server struct {
	registry *session.Registry
	logger   *slog.Logger
	router   *mux.Router
	server   *http.Server
}

// NewServer creates a server listening on addr.
func NewServer(addr string, registry *session.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		registry: registry,
		logger:   logger,
		router:   mux.NewRouter(),
	}
	s.setupRoutes()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(requestIDMiddleware, s.loggingMiddleware)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	v1 := s.router.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/sessions", s.handleCreateSession).Methods(http.MethodPost)
	v1.HandleFunc("/sessions", s.handleListSessions).Methods(http.MethodGet)
	v1.HandleFunc("/sessions/{id}", s.handleGetSession).Methods(http.MethodGet)
	v1.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods(http.MethodDelete)
	v1.HandleFunc("/sessions/{id}/next", s.handleNext).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{id}/answer", s.handleAnswer).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{id}/retry", s.handleRetry).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{id}/skip", s.handleSkip).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{id}/expire", s.handleExpire).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{id}/finish", s.handleFinish).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{id}/restart", s.handleRestart).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{id}/summary", s.handleSummary).Methods(http.MethodGet)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("starting api server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down api server")
	return s.server.Shutdown(ctx)
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) jsonError(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]any{
		"error":  message,
		"status": status,
	})
}

// writeErr maps a flow error to a status code. Anything unrecognized came
// from a collaborator (LLM, sandbox, similarity scorer).
func (s *Server) writeErr(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway

	var rateLimit *llm.ErrRateLimit
	switch {
	case errors.Is(err, session.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrEmptyTopic):
		status = http.StatusBadRequest
	case errors.Is(err, session.ErrInvalidPhase),
		errors.Is(err, session.ErrSubmissionAfterTimeout),
		errors.Is(err, session.ErrTimeRemaining),
		errors.Is(err, session.ErrNothingToRetry):
		status = http.StatusConflict
	case errors.Is(err, evaluate.ErrTooManyChoices):
		status = http.StatusBadRequest
	case errors.Is(err, evaluate.ErrEmptyCorrectSet),
		errors.Is(err, evaluate.ErrNoTestCases),
		errors.Is(err, evaluate.ErrInvalidScore):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &rateLimit):
		status = http.StatusServiceUnavailable
	}

	if status >= http.StatusInternalServerError {
		s.logger.Warn("request failed", "status", status, "error", err)
	}
	s.jsonError(w, status, err.Error())
}
