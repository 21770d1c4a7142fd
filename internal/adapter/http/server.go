package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/stockfolio/backend/internal/usecase/stocks"
)

// Pinger checks store liveness for the health endpoint
type Pinger interface {
	Ping() error
}

// Config holds server configuration
type Config struct {
	Port     int
	Log      zerolog.Logger
	Service  *stocks.PortfolioService
	Resolver IdentityResolver
	Store    Pinger
	DevMode  bool
}

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
	store  Pinger
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "server").Logger(),
		store:  cfg.Store,
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes(cfg)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(cfg Config) {
	s.router.Get("/health", s.handleHealth)

	handlers := NewStockHandlers(cfg.Service, cfg.Log)

	s.router.Route("/api/stocks", func(r chi.Router) {
		r.Use(Authenticate(cfg.Resolver))

		r.Get("/my-stocks", handlers.ListMyStocks)
		r.Get("/user/{userID}", handlers.ListForUser)

		r.Post("/", handlers.CreateStock)
		r.Post("/bulk", handlers.BulkCreateStocks)

		r.Get("/id/{id}", handlers.GetStockByID)
		r.Get("/detail/{ticker}", handlers.GetStockByTicker)
		r.Get("/filter/{userID}/{category}", handlers.FilterByCategory)

		r.Put("/{id}/category", handlers.SetCategory)
		r.Put("/{id}/holding", handlers.MarkHolding)
		r.Put("/{id}/wishlist", handlers.MarkWishlist)
		r.Put("/{id}/ai-report", handlers.AttachAIReport)
		r.Put("/user/{userID}/ticker/{ticker}", handlers.UpdateByTicker)
		r.Put("/user/{userID}/category", handlers.BulkCategoryMove)

		r.Delete("/id/{id}", handlers.DeleteByID)
		r.Delete("/user/{userID}/ticker/{ticker}", handlers.DeleteByTicker)
		r.Delete("/user/{userID}", handlers.DeleteAllForUser)
	})
}

// Router exposes the handler tree, mainly for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// handleHealth reports liveness and store reachability
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		if err := s.store.Ping(); err != nil {
			s.log.Error().Err(err).Msg("Health check failed: store unreachable")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
