// Package server provides the HTTP server and routing for the edge proxy.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/quotedesk/edgeproxy/internal/config"
	"github.com/quotedesk/edgeproxy/internal/modules/darkpool"
	"github.com/quotedesk/edgeproxy/internal/modules/filings"
	"github.com/quotedesk/edgeproxy/internal/modules/quote"
	"github.com/quotedesk/edgeproxy/internal/modules/shortinterest"
	"github.com/quotedesk/edgeproxy/internal/ratelimit"
)

// Config holds server configuration
type Config struct {
	Log                  zerolog.Logger
	Config               *config.Config
	Limiter              *ratelimit.Limiter
	SystemHandlers       *SystemHandlers
	QuoteHandler         *quote.Handler
	FilingsHandler       *filings.Handler
	ShortInterestHandler *shortinterest.Handler
	DarkPoolHandler      *darkpool.Handler
}

// Server represents the HTTP server
type Server struct {
	router               *chi.Mux
	server               *http.Server
	log                  zerolog.Logger
	cfg                  *config.Config
	origins              *originPolicy
	limiter              *ratelimit.Limiter
	systemHandlers       *SystemHandlers
	quoteHandler         *quote.Handler
	filingsHandler       *filings.Handler
	shortInterestHandler *shortinterest.Handler
	darkPoolHandler      *darkpool.Handler
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:               chi.NewRouter(),
		log:                  cfg.Log.With().Str("component", "server").Logger(),
		cfg:                  cfg.Config,
		origins:              newOriginPolicy(cfg.Config.AllowedOrigin),
		limiter:              cfg.Limiter,
		systemHandlers:       cfg.SystemHandlers,
		quoteHandler:         cfg.QuoteHandler,
		filingsHandler:       cfg.FilingsHandler,
		shortInterestHandler: cfg.ShortInterestHandler,
		darkPoolHandler:      cfg.DarkPoolHandler,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware. Order matters: the recoverer is
// outermost so nothing escapes to the runtime; the origin check runs before
// rate limiting because it is cheaper and should block abuse earlier; the
// rate limiter runs before any handler.
func (s *Server) setupMiddleware() {
	s.router.Use(s.recoverMiddleware)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(15 * time.Second))
	s.router.Use(s.corsMiddleware)
	s.router.Use(s.rateLimitMiddleware)
}

// setupRoutes configures all routes. Dispatch is by exact path; anything
// else falls through to chi's plain-text 404.
func (s *Server) setupRoutes() {
	s.router.Get("/", s.systemHandlers.HandleHealth)

	s.router.Get("/api/status", s.systemHandlers.HandleStatus)
	s.router.Get("/api/quote", s.quoteHandler.HandleQuote)
	s.router.Get("/api/filings/s3", s.filingsHandler.HandleRecent)
	s.router.Get("/api/short-interest", s.shortInterestHandler.HandleSnapshot)
	s.router.Get("/api/dark-pool", s.darkPoolHandler.HandleLookup)
}

// Router exposes the underlying handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
