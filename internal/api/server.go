// Package api exposes the reconciliation service over HTTP.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/urizarreta/conciliar-backend/internal/api/handlers"
	"github.com/urizarreta/conciliar-backend/internal/application/service"
)

// Config holds API server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string

	// DefaultWindowDays is used when a run-creation request omits its
	// matching window.
	DefaultWindowDays int
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	return Config{
		Port:           8080,
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
	}
}

// Server is the HTTP API server.
type Server struct {
	config     Config
	router     *gin.Engine
	httpServer *http.Server
	logger     *slog.Logger
	svc        *service.ReconcileService
}

// NewServer creates a new API server.
func NewServer(cfg Config, svc *service.ReconcileService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-User-Id"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	s := &Server{
		config: cfg,
		router: router,
		logger: logger,
		svc:    svc,
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check (no /api prefix - for load balancers)
	s.router.GET("/health", handlers.Health)

	api := s.router.Group("/api")
	{
		runs := handlers.NewRunsHandler(s.svc, s.config.DefaultWindowDays)
		api.POST("/runs", runs.Create)
		api.GET("/runs", runs.List)
		api.GET("/runs/:id", runs.Get)
		api.PATCH("/runs/:id", runs.Update)
		api.DELETE("/runs/:id", runs.Delete)
		api.PATCH("/runs/:id/system", runs.UpdateSystem)
		api.POST("/runs/:id/exclusions", runs.Exclude)
		api.POST("/runs/:id/exclusions/category", runs.ExcludeByCategory)
		api.DELETE("/runs/:id/exclusions", runs.RemoveExclusion)
		api.POST("/runs/:id/recompute", runs.Recompute)
		api.POST("/runs/:id/match", runs.SetMatch)

		categories := handlers.NewCategoriesHandler(s.svc)
		api.GET("/categories", categories.List)
		api.POST("/categories", categories.Create)
		api.DELETE("/categories/:id", categories.Delete)
		api.POST("/categories/:id/rules", categories.CreateRule)
		api.DELETE("/rules/:id", categories.DeleteRule)
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting API server", "addr", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")

	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Router returns the gin engine for testing.
func (s *Server) Router() *gin.Engine {
	return s.router
}
