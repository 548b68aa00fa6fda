// Package server exposes the tile pipeline over HTTP.
//
// Routes:
//
//	GET  /healthz
//	GET  /metrics
//	GET  /api/tiles?parentId=&width=&height=&format=&seed=&labels=
//	POST /api/layout
//	POST /api/hit
//
// Every tile request writes the computed positions back to the domain
// store in the background, so the next load of the same level takes the
// preserve path.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/matzehuels/semtiles/pkg/observability/prom"
	"github.com/matzehuels/semtiles/pkg/pipeline"
)

// Config holds server configuration.
type Config struct {
	Addr     string
	AllowAll bool // allow all CORS origins (dev mode)

	// Defaults for requests that omit them.
	Width  float64
	Height float64
	Seed   uint64
}

// Server is the tile server.
type Server struct {
	cfg        Config
	runner     *pipeline.Runner
	metrics    *prom.Registry
	logger     *log.Logger
	router     chi.Router
	httpServer *http.Server
}

// New creates a server. metrics may be nil to disable /metrics.
func New(cfg Config, runner *pipeline.Runner, metrics *prom.Registry, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if cfg.Width == 0 {
		cfg.Width = pipeline.DefaultWidth
	}
	if cfg.Height == 0 {
		cfg.Height = pipeline.DefaultHeight
	}
	if cfg.Seed == 0 {
		cfg.Seed = pipeline.DefaultSeed
	}
	s := &Server{
		cfg:     cfg,
		runner:  runner,
		metrics: metrics,
		logger:  logger,
	}
	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  s.logger.StandardLog(log.StandardLogOptions{ForceLevel: log.DebugLevel}),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(s.instrument)

	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{headerStrategy, headerStale, headerSyncJob, headerCache},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
		corsOpts.AllowCredentials = false
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/tiles", s.handleTiles)
		r.Post("/layout", s.handleLayout)
		r.Post("/hit", s.handleHit)
	})
	return r
}

// instrument records request counts and latency by route pattern.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.metrics == nil {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.RecordHTTPRequest(r.Method, route, status, time.Since(start))
	})
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Start listens on the configured address until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("semtiles server listening", "addr", s.cfg.Addr)
		errc <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}
}

// Shutdown gracefully shuts down the server and waits for pending
// position writes.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	if s.runner != nil && s.runner.Syncer != nil {
		s.runner.Syncer.Wait()
	}
	return err
}
