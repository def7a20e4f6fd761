package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/clinicore/scribe/internal/config"
	"github.com/clinicore/scribe/internal/medical"
	"github.com/clinicore/scribe/internal/soap"
	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
)

// Transcriber transcribes uploaded encounter audio.
type Transcriber interface {
	TranscribeFile(ctx context.Context, audioFile io.Reader) (string, error)
}

// NoteGenerator produces SOAP notes from transcripts.
type NoteGenerator interface {
	Generate(ctx context.Context, transcription, chiefComplaint string) (*soap.Note, error)
	ModelName() string
}

// Store persists and reads encounters.
type Store interface {
	SaveEncounter(ctx context.Context, enc *medical.Encounter) error
	GetEncounter(ctx context.Context, id string) (*medical.Encounter, error)
	ListEncounters(ctx context.Context) ([]*medical.Encounter, error)
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	config      *config.Config
	logger      *slog.Logger
	router      *gin.Engine
	transcriber Transcriber
	generator   NoteGenerator
	store       Store
}

// New creates a new Server instance
func New(cfg *config.Config, logger *slog.Logger, transcriber Transcriber, generator NoteGenerator, store Store) *Server {
	// Set Gin mode based on environment
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	server := &Server{
		config:      cfg,
		logger:      logger,
		router:      router,
		transcriber: transcriber,
		generator:   generator,
		store:       store,
	}

	// Setup middleware and routes
	setupSecurityMiddleware(router, cfg, logger)
	server.setupRoutes()

	return server
}

// Run starts the HTTP server
func Run(s *Server) error {
	s.logger.Info("Server listening", "port", s.config.Port)
	return s.router.Run(":" + s.config.Port)
}

// Router exposes the underlying handler, primarily for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api/v1")
	{
		api.POST("/transcribe", s.handleTranscribe)
		api.POST("/encounters", s.handleCreateEncounter)
		api.GET("/encounters", s.handleListEncounters)
		api.GET("/encounters/:id", s.handleGetEncounter)
	}

	// Serve the browser front end, if assets are present.
	if s.config.StaticDir != "" {
		s.router.Use(static.Serve("/", static.LocalFile(s.config.StaticDir, false)))
	}
}

// handleHealth handles the health check endpoint
func (s *Server) handleHealth(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		s.logger.Error("Health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": "scribe-api",
			"detail":  "database unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "scribe-api",
	})
}
