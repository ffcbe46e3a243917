// Package http provides the shared HTTP server shell used by the auth and
// profile services: gin engine, request-id and logging middleware, CORS,
// health and readiness endpoints. Each service injects its own routes.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RouteRegistrar mounts a service's routes on the engine.
type RouteRegistrar func(router *gin.Engine)

// Options configures the server shell.
type Options struct {
	Host            string
	Port            int
	GinMode         string
	CORSEnabled     bool
	CORSOrigins     string
	ExtraMiddleware []gin.HandlerFunc
}

// Server is a gin HTTP server with the shared middleware stack.
type Server struct {
	opts   Options
	db     *sql.DB
	logger *slog.Logger
	router *gin.Engine
	server *http.Server
}

// NewServer creates a new Server. The db handle backs the readiness check and
// may be nil in tests.
func NewServer(db *sql.DB, opts Options, logger *slog.Logger, register RouteRegistrar) *Server {
	gin.SetMode(opts.GinMode)

	s := &Server{
		opts:   opts,
		db:     db,
		logger: logger,
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(logger))

	if corsMiddleware := createCORSMiddleware(opts.CORSEnabled, opts.CORSOrigins, logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	for _, mw := range opts.ExtraMiddleware {
		router.Use(mw)
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	if register != nil {
		register(router)
	}

	s.router = router
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", opts.Host, opts.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Router returns the underlying gin engine for testing purposes.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

// healthHandler reports process liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the server can serve traffic, checking the
// database connection.
func (s *Server) readinessHandler(c *gin.Context) {
	components := gin.H{}
	ready := true

	if s.db == nil {
		components["database"] = "error"
		ready = false
	} else {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := s.db.PingContext(ctx); err != nil {
			components["database"] = "error"
			ready = false
		} else {
			components["database"] = "ok"
		}
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": components,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": components,
	})
}
