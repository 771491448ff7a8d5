// Package statusapi exposes a read-only HTTP status endpoint over the
// running engine: GET /status (portfolio summary) and GET /healthz.
// Strictly observational — no order routing or mutation lives here,
// matching spec.md's Non-goal on live-order routing. Grounded in the
// teacher's internal/api/server.go gin+cors setup, pared down to the
// unauthenticated read-only subset this engine needs.
package statusapi

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// StatusSource is anything that can produce the current portfolio
// summary. cmd/engine wires it to internal/orchestrator.Engine's
// Status(), the summary the cycle driver publishes after each mutation.
type StatusSource interface {
	Status() map[string]any
}

// Server is the read-only status HTTP server.
type Server struct {
	router *gin.Engine
	source StatusSource
	logger zerolog.Logger
}

// New builds a Server backed by source. It switches gin to release
// mode (a process-wide setting), overriding any mode set before the
// call.
func New(source StatusSource, logger zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	s := &Server{
		router: router,
		source: source,
		logger: logger.With().Str("component", "statusapi").Logger(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s.router.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.source.Status())
	})
}

// Run starts the HTTP server on addr; blocks until it errors or the
// listener is closed (mirrors gin.Engine.Run).
func (s *Server) Run(addr string) error {
	s.logger.Info().Str("addr", addr).Msg("status API listening")
	return s.router.Run(addr)
}

// Handler exposes the underlying http.Handler for embedding in a
// custom http.Server (e.g. one with graceful shutdown), instead of
// calling Run directly.
func (s *Server) Handler() http.Handler {
	return s.router
}
