package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/emicklei/go-restful/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/devseek/devseek/internal/api/middleware"
)

const shutdownTimeout = 10 * time.Second

// BuildHandler assembles the full HTTP handler: the restful container with
// logging, recovery, and metrics filters, the /metrics endpoint, and a
// permissive CORS wrapper. metrics and registry may be nil to disable
// prometheus instrumentation.
func BuildHandler(handler *Handler, metrics *middleware.Metrics, registry *prometheus.Registry, logger *slog.Logger) http.Handler {
	container := restful.NewContainer()
	container.Filter(middleware.RequestLogger(logger))
	container.Filter(middleware.RecoverPanic(logger, metrics))
	if metrics != nil {
		container.Filter(middleware.MetricsFilter(metrics))
	}
	RegisterRoutes(container, handler)

	// Mounted directly on the mux so scrapes skip the request filters.
	if registry != nil {
		container.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}).Handler(container)
}

// Server runs the HTTP API with graceful shutdown.
type Server struct {
	http   *http.Server
	logger *slog.Logger
}

// NewServer wraps the handler in an http.Server bound to addr.
func NewServer(addr string, handler http.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		http: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger: logger,
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests for up
// to shutdownTimeout. A listen failure returns immediately.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http_server_listening", slog.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("http_server_draining")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("http_server_stopped")
	return nil
}
