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

	"github.com/ziadkadry99/docvault/internal/audit"
	"github.com/ziadkadry99/docvault/internal/docstore"
	"github.com/ziadkadry99/docvault/internal/llm"
	"github.com/ziadkadry99/docvault/internal/metrics"
	"github.com/ziadkadry99/docvault/internal/rag"
)

// Config holds server configuration.
type Config struct {
	Port           int
	AllowAll       bool          // allow all CORS origins (dev mode)
	AdminToken     string        // required by the reset endpoint; empty disables it
	RequestTimeout time.Duration // per-request deadline for the JSON API
}

// Deps are the components the HTTP API exposes.
type Deps struct {
	Store    *docstore.Store
	Pipeline *rag.Pipeline
	Models   llm.ModelLister // optional; backs GET /api/models/{name}
	Audit    *audit.Store    // optional; backs /api/audit
	Metrics  *metrics.Metrics
	Logger   zerolog.Logger
}

// Server is the docvault HTTP API.
type Server struct {
	cfg        Config
	deps       Deps
	logger     zerolog.Logger
	router     chi.Router
	httpServer *http.Server
}

// New creates a server and builds its routes.
func New(cfg Config, deps Deps) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	s := &Server{
		cfg:    cfg,
		deps:   deps,
		logger: deps.Logger.With().Str("component", "server").Logger(),
	}
	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger, s.deps.Metrics))
	r.Use(middleware.Recoverer)

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", adminTokenHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", s.deps.Metrics.Handler())

	// The chat socket is long-lived and stays outside the request timeout.
	r.Get("/ws/chat", s.handleChat)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))

		r.Route("/api/documents", func(r chi.Router) {
			r.Post("/", s.handleIngest)
			r.Get("/", s.handleListSources)
			r.Post("/delete", s.handleDeleteSources)
			r.Post("/reset", s.handleReset)
		})
		r.Post("/api/query", s.handleQuery)
		r.Get("/api/models/{name}", s.handleCheckModel)

		if s.deps.Audit != nil {
			audit.RegisterRoutes(r, s.deps.Audit)
		}
	})

	return r
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port. It returns
// http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info().Str("addr", addr).Msg("docvault server listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
