package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/cityjson-codec/internal/core/config"
	"github.com/mohammed-shakir/cityjson-codec/internal/core/health"
	middleware "github.com/mohammed-shakir/cityjson-codec/internal/core/middleware"
	"github.com/mohammed-shakir/cityjson-codec/internal/core/router"
)

// Handler serves the codec routes and the session resource.
type Handler interface {
	router.CodecHandler
	HandleGetSession(w http.ResponseWriter, r *http.Request)
	HandleDeleteSession(w http.ResponseWriter, r *http.Request)
}

// Deps are the pieces the routes need besides the handler.
type Deps struct {
	Metrics http.Handler
	Ready   health.ReadinessReporter
}

func NewRouter(cfg config.Config, logger *slog.Logger, handler Handler, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS())

	r.Get("/healthz", health.Liveness())
	if deps.Ready != nil {
		r.Get("/readyz", health.Readiness(deps.Ready))
	}
	if deps.Metrics != nil {
		r.Get("/metrics", deps.Metrics.ServeHTTP)
	}

	r.Route("/v1", func(r chi.Router) {
		r.With(middleware.MaxBody(cfg.MaxBodyBytes)).Post("/decode", router.HandleDecode(logger, cfg, handler))
		r.With(middleware.MaxBody(cfg.MaxBodyBytes)).Post("/normalize", router.HandleNormalize(logger, cfg, handler))
		r.Get("/sessions/{id}", handler.HandleGetSession)
		r.Delete("/sessions/{id}", handler.HandleDeleteSession)
	})
	return r
}

// sets up http and starts serving
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger, handler Handler, deps Deps) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(cfg, logger, handler, deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listen", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
