package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/tokenfund/rebalancer/internal/database"
	"github.com/tokenfund/rebalancer/internal/events"
	"github.com/tokenfund/rebalancer/internal/modules/access"
	"github.com/tokenfund/rebalancer/internal/modules/rebalancing"
	"github.com/tokenfund/rebalancer/internal/modules/registry"
	"github.com/tokenfund/rebalancer/internal/modules/valuation"
)

// Config holds server configuration
type Config struct {
	Port    int
	Log     zerolog.Logger
	DB      *database.DB
	DevMode bool

	Gate        *access.Gate
	Pause       *access.PauseSwitch
	EventStore  *events.Store
	Registry    *registry.Handler
	Valuation   *valuation.Handler
	Rebalancing *rebalancing.Handler
}

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
	db     *database.DB
	cfg    Config
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "server").Logger(),
		db:     cfg.DB,
		cfg:    cfg,
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

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
	s.router.Use(access.CallerMiddleware)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/portfolios/{id}", func(r chi.Router) {
			r.Get("/", s.cfg.Registry.HandleGetPortfolio)
			r.Post("/assets", s.cfg.Registry.HandleAddAssets)
			r.Put("/assets", s.cfg.Registry.HandleUpdateAssets)
			r.Put("/assets/{ref}", s.cfg.Registry.HandleUpdateAsset)
			r.Get("/assets/{ref}", s.cfg.Registry.HandleGetAssetAllocation)
			r.Put("/threshold", s.cfg.Registry.HandleSetThreshold)
			r.Get("/value", s.cfg.Valuation.HandleGetValue)
			r.Get("/drift", s.cfg.Valuation.HandleGetDrift)
			r.Post("/rebalance", s.cfg.Rebalancing.HandleRebalance)
		})

		r.Post("/rebalance/batch", s.cfg.Rebalancing.HandleBatchRebalance)

		r.Get("/events", s.handleListEvents)

		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.handleSystemStatus)
			r.Post("/pause", s.handlePause)
			r.Post("/resume", s.handleResume)
		})
	})
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
