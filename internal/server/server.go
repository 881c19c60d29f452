// Package server provides the HTTP API for preflight: settings, check
// runs streamed over SSE, save interception and a websocket hub.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jonathan/preflight/internal/checker"
	"github.com/jonathan/preflight/internal/config"
	"github.com/jonathan/preflight/internal/content"
	"github.com/jonathan/preflight/internal/db"
	"github.com/jonathan/preflight/internal/dirty"
	"github.com/jonathan/preflight/internal/logging"
	"github.com/jonathan/preflight/internal/server/middleware"
	"github.com/jonathan/preflight/internal/types"
)

// CheckService runs checks and evaluates the save and panel gates.
type CheckService interface {
	CheckDocument(ctx context.Context, id int, culture string, fromSave bool, sink checker.ResultSink) (checker.RunResult, error)
	CheckPartial(ctx context.Context, docID int, culture string, fields []checker.PartialField, sink checker.ResultSink) (checker.RunResult, error)
	BeforeSave(ctx context.Context, docID int, userGroups []string, sink checker.ResultSink) (checker.SaveDecision, error)
	PanelVisible(ctx context.Context, cultures, userGroups []string, presentEditors []types.EditorKind) (bool, error)
}

// SettingsService resolves and saves settings.
type SettingsService interface {
	Resolve(ctx context.Context, culture string, allowFallback bool) (*types.SettingsSet, error)
	Value(ctx context.Context, culture, alias string) (string, error)
	GetTestableFieldKinds(ctx context.Context, culture, contentType string) ([]types.EditorKind, bool, error)
	Save(ctx context.Context, set *types.SettingsSet) bool
}

// ContentSource loads documents.
type ContentSource interface {
	Document(ctx context.Context, id int) (*content.Document, error)
}

// RunStore keeps the check run audit trail.
type RunStore interface {
	RecordRun(ctx context.Context, run db.CheckRun) error
	ListRuns(ctx context.Context, documentID, limit int) ([]db.CheckRun, error)
}

// Config holds server configuration
type Config struct {
	Port     int
	Checker  CheckService
	Settings SettingsService
	// Content is used to find a document's cultures and editors when a
	// panel request does not list them.
	Content ContentSource
	// Sessions reduces dirty requests that carry a session id.
	Sessions *dirty.Sessions
	// Runs records every full run when set.
	Runs RunStore
	// Hub receives every event; a new hub is created when nil.
	Hub *Hub
	// JWT enables bearer authentication when it carries a secret.
	JWT           *config.JWTConfig
	AllowFallback bool
	Logger        *zap.Logger
}

// Server represents the HTTP server
type Server struct {
	httpServer    *http.Server
	handler       http.Handler
	checker       CheckService
	settings      SettingsService
	content       ContentSource
	sessions      *dirty.Sessions
	runs          RunStore
	hub           *Hub
	allowFallback bool
	validate      *validator.Validate
	logger        *zap.Logger
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	if cfg.Checker == nil || cfg.Settings == nil {
		return nil, fmt.Errorf("server requires a checker and a settings service")
	}
	logger := logging.OrNop(cfg.Logger)
	hub := cfg.Hub
	if hub == nil {
		hub = NewHub(logger)
	}

	s := &Server{
		checker:       cfg.Checker,
		settings:      cfg.Settings,
		content:       cfg.Content,
		sessions:      cfg.Sessions,
		runs:          cfg.Runs,
		hub:           hub,
		allowFallback: cfg.AllowFallback,
		validate:      validator.New(),
		logger:        logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Settings
	mux.HandleFunc("GET /settings/{culture}", s.handleGetSettings)
	mux.HandleFunc("GET /settings/{culture}/{alias}", s.handleGetSettingValue)
	mux.HandleFunc("POST /settings", s.handleSaveSettings)
	mux.HandleFunc("GET /properties/{culture}/{alias}", s.handleGetProperties)

	// Check runs
	mux.HandleFunc("GET /check/{id}/{culture}", s.handleCheckDocument)
	mux.HandleFunc("POST /check/{id}/{culture}/dirty", s.handleCheckDirty)
	mux.HandleFunc("POST /documents/{id}/before-save", s.handleBeforeSave)
	mux.HandleFunc("GET /documents/{id}/panel", s.handlePanel)
	mux.HandleFunc("GET /documents/{id}/runs", s.handleListRuns)
	mux.HandleFunc("GET /hub", s.hub.ServeWS)

	var tokens middleware.TokenValidator
	if cfg.JWT.Enabled() {
		tokens = NewJWTService(cfg.JWT)
	}
	s.handler = s.withLogging(s.withCORS(middleware.AuthMiddleware(tokens, "/health", "/metrics")(mux)))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // Long timeout for link probing runs
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the server's root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start serves requests until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.hub.Close()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote", r.RemoteAddr),
			zap.Duration("duration", time.Since(start)))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("failed to encode JSON response", zap.Error(err))
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// errorFor writes err with the status HTTPStatus maps it to.
func (s *Server) errorFor(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	}
	s.errorResponse(w, status, err.Error())
}
