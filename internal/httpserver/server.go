// Package httpserver assembles the chi router and owns the HTTP listener.
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/linkus/internal/config"
	"github.com/MrSnakeDoc/linkus/internal/httpserver/deps"
	"github.com/MrSnakeDoc/linkus/internal/httpserver/mw"
	"github.com/MrSnakeDoc/linkus/internal/httpserver/routes"
	"github.com/MrSnakeDoc/linkus/internal/logger"
)

// Server wraps the HTTP server and its dependencies.
type Server struct {
	http    *http.Server
	logger  logger.Logger
	started time.Time
}

// New builds the HTTP server (router, middlewares, route registration).
func New(cfg *config.Config, loggerClient logger.Logger, d deps.Deps) *Server {
	return &Server{
		http: &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           Router(cfg, loggerClient, d),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			// must outlive the per-request timeout so the 503 can be written
			WriteTimeout:   cfg.RequestTimeout + 5*time.Second,
			IdleTimeout:    60 * time.Second,
			MaxHeaderBytes: 1 << 20,
		},
		logger:  loggerClient,
		started: d.StartTime,
	}
}

// Router returns the fully wired handler. Exposed for tests.
func Router(cfg *config.Config, loggerClient logger.Logger, d deps.Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.GetHead)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(mw.Log(loggerClient, cfg.TrustProxy))
	r.Use(mw.CORS(cfg.CORSOrigins))

	rateLimit := mw.RateLimit(cfg.RateLimit, cfg.TrustProxy, loggerClient)
	resolve := mw.Identity(d.Identity, d.Dashboard.Load)
	routes.RegisterAll(r, d, map[routes.Group]routes.Middleware{
		routes.API:   func(next http.Handler) http.Handler { return rateLimit(resolve(next)) },
		routes.Admin: mw.AllowOnlyCIDRS(cfg.AllowedCIDRS, cfg.TrustProxy, loggerClient),
	})
	return r
}

// Start runs the HTTP server (blocks until error or shutdown).
func (s *Server) Start() error {
	s.logger.Infof("HTTP server listening on %s", s.http.Addr)
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gracefully shuts down the server with the provided context deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down",
		logger.Duration("uptime", time.Since(s.started)))
	return s.http.Shutdown(ctx)
}
