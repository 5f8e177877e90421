package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/living-docs/livingdocs-core/internal/core/ports/driven"
	"github.com/living-docs/livingdocs-core/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string
	logger     *slog.Logger

	// Services
	authService     driving.AuthService
	projectService  driving.ProjectService
	documentService driving.DocumentService
	queryService    driving.QueryService

	// Orchestrator is only wired when the API and worker run in the
	// same process; cancel requests fail otherwise.
	orchestrator driving.IngestionOrchestrator

	historyStore driven.QueryHistoryStore

	// Infrastructure health checks
	db    Pinger
	queue Pinger // optional
}

// Config holds server configuration
type Config struct {
	Host    string
	Port    int
	Version string
	Logger  *slog.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:    "0.0.0.0",
		Port:    8080,
		Version: "dev",
	}
}

// Services groups the driving ports the server exposes.
type Services struct {
	Auth     driving.AuthService
	Projects driving.ProjectService
	Docs     driving.DocumentService
	Query    driving.QueryService

	Orchestrator driving.IngestionOrchestrator // optional
	History      driven.QueryHistoryStore      // optional

	DB    Pinger
	Queue Pinger // optional
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, svcs Services) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		router:          http.NewServeMux(),
		version:         cfg.Version,
		logger:          logger,
		authService:     svcs.Auth,
		projectService:  svcs.Projects,
		documentService: svcs.Docs,
		queryService:    svcs.Query,
		orchestrator:    svcs.Orchestrator,
		historyStore:    svcs.History,
		db:              svcs.DB,
		queue:           svcs.Queue,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.withMiddleware(s.router),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.setupRoutes()
	return s
}

func (s *Server) withMiddleware(h http.Handler) http.Handler {
	recovery := NewRecoveryMiddleware(s.logger)
	logging := NewLoggingMiddleware(s.logger)
	return recovery.Handler(logging.Handler(h))
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	authMiddleware := NewAuthMiddleware(s.authService)

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)

	// Auth endpoints (public)
	s.router.HandleFunc("POST /api/v1/auth/login", s.handleLogin)

	// Project endpoints
	s.router.Handle("POST /api/v1/projects",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleCreateProject)))
	s.router.Handle("GET /api/v1/projects",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleListProjects)))
	s.router.Handle("GET /api/v1/projects/{id}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleGetProject)))
	s.router.Handle("GET /api/v1/projects/{id}/stats",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleProjectStats)))
	s.router.Handle("DELETE /api/v1/projects/{id}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleDeleteProject)))

	// Document endpoints
	s.router.Handle("POST /api/v1/projects/{id}/documents",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleUploadDocument)))
	s.router.Handle("GET /api/v1/projects/{id}/documents",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleListDocuments)))
	s.router.Handle("GET /api/v1/documents/{id}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleGetDocument)))
	s.router.Handle("DELETE /api/v1/documents/{id}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleDeleteDocument)))
	s.router.Handle("POST /api/v1/documents/{id}/reprocess",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleReprocessDocument)))
	s.router.Handle("POST /api/v1/documents/{id}/cancel",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleCancelIngestion)))

	// Query endpoints
	s.router.Handle("POST /api/v1/projects/{id}/query",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleQuery)))
	s.router.Handle("POST /api/v1/projects/{id}/similar",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleSimilar)))
	s.router.Handle("GET /api/v1/projects/{id}/history",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleQueryHistory)))
}

// Start starts listening. It blocks until the server is shut down.
func (s *Server) Start() error {
	s.logger.Info("starting http server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.withMiddleware(s.router)
}
