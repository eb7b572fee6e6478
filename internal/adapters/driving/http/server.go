package http

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
	"github.com/custodia-labs/pdfqa/internal/core/ports/driven"
	"github.com/custodia-labs/pdfqa/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	handler    http.Handler
	version    string
	logger     *slog.Logger
	upgrader   websocket.Upgrader

	maxUploadBytes int64
	uploadTimeout  time.Duration
	queryTimeout   time.Duration

	// Services
	uploadService   driving.UploadService
	questionService driving.QuestionService
	docService      driving.DocumentService
	sessionService  driving.SessionService

	// Infrastructure
	uploadLimiter driven.RateLimiter
	vectorIndex   driven.VectorIndex
	runtimeConfig *domain.RuntimeConfig
	checks        map[string]Pinger // readiness checks by name
}

// Config holds server configuration
type Config struct {
	Host               string
	Port               int
	Version            string
	MaxUploadBytes     int64
	UploadTimeout      time.Duration
	QueryTimeout       time.Duration
	CORSAllowedOrigins []string
	Logger             *slog.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:               "0.0.0.0",
		Port:               8000,
		Version:            "dev",
		MaxUploadBytes:     50 << 20,
		UploadTimeout:      5 * time.Minute,
		QueryTimeout:       90 * time.Second,
		CORSAllowedOrigins: []string{"*"},
	}
}

// Dependencies are the services and adapters the server routes to
type Dependencies struct {
	UploadService   driving.UploadService
	QuestionService driving.QuestionService
	DocumentService driving.DocumentService
	SessionService  driving.SessionService

	UploadLimiter driven.RateLimiter // nil disables upload rate limiting
	VectorIndex   driven.VectorIndex
	RuntimeConfig *domain.RuntimeConfig // reported by /ready when set

	// Checks are pinged by /ready, e.g. "database" and "redis"
	Checks map[string]Pinger
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		router:          http.NewServeMux(),
		version:         cfg.Version,
		logger:          logger.With("component", "http"),
		maxUploadBytes:  cfg.MaxUploadBytes,
		uploadTimeout:   cfg.UploadTimeout,
		queryTimeout:    cfg.QueryTimeout,
		uploadService:   deps.UploadService,
		questionService: deps.QuestionService,
		docService:      deps.DocumentService,
		sessionService:  deps.SessionService,
		uploadLimiter:   deps.UploadLimiter,
		vectorIndex:     deps.VectorIndex,
		runtimeConfig:   deps.RuntimeConfig,
		checks:          deps.Checks,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(cfg.CORSAllowedOrigins),
	}

	s.setupRoutes()

	// Outermost first: recover, then log, then CORS.
	s.handler = NewRecoveryMiddleware(s.logger).Handler(
		NewLoggingMiddleware(s.logger).Handler(
			NewCORSMiddleware(cfg.CORSAllowedOrigins).Handler(s.router)))

	// Uploads may run for the whole upload timeout before the response is written.
	writeTimeout := 30 * time.Second
	if cfg.UploadTimeout+30*time.Second > writeTimeout {
		writeTimeout = cfg.UploadTimeout + 30*time.Second
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health endpoints
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)

	// Front-end page
	s.router.HandleFunc("GET /{$}", s.handleIndex)

	// Upload, rate limited per client address
	upload := http.Handler(http.HandlerFunc(s.handleUpload))
	if s.uploadLimiter != nil {
		upload = NewRateLimitMiddleware(s.uploadLimiter, s.logger).Handler(upload)
	}
	s.router.Handle("POST /upload/{$}", upload)
	s.router.Handle("POST /upload", upload)

	// Query channel
	s.router.HandleFunc("GET /ws", s.handleWebSocket)

	// Documents (read-only)
	s.router.HandleFunc("GET /documents", s.handleListDocuments)
	s.router.HandleFunc("GET /documents/{id}", s.handleGetDocument)
}

// Handler returns the fully wrapped handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start starts the HTTP server with graceful shutdown
func (s *Server) Start() error {
	// Channel to listen for OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or listener failure
	select {
	case <-stop:
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
	log.Println("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
