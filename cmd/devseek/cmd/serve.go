package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/devseek/devseek/internal/api"
	"github.com/devseek/devseek/internal/api/middleware"
	"github.com/devseek/devseek/internal/config"
	"github.com/devseek/devseek/internal/intent"
	"github.com/devseek/devseek/internal/logging"
	"github.com/devseek/devseek/pkg/version"
)

func newServeCmd() *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Run the devseek HTTP API server.

Serves GET/POST /search, GET /trending, GET /health, GET /stats, and
Prometheus metrics on /metrics. The server holds an instance lock so
two servers never share one telemetry database.

Examples:
  devseek serve
  devseek serve --port 9000
  devseek serve --host 0.0.0.0 --port 8000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), host, port)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Bind address (default from config)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port (default from config)")

	return cmd
}

func runServe(ctx context.Context, host string, port int) error {
	root, err := config.FindProjectRoot(".")
	if err != nil {
		root, _ = os.Getwd()
	}
	cfg, err := config.Load(root)
	if err != nil {
		return err
	}
	if host != "" {
		cfg.Server.Host = host
	}
	if port > 0 {
		cfg.Server.Port = port
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	if cfg.Logging.File != "" {
		logCfg.FilePath = cfg.Logging.File
	}
	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer cleanup()
	slog.SetDefault(logger)

	// One server per data directory. A second instance would race on the
	// telemetry database and the log file.
	lock := config.NewInstanceLock(config.DataDir())
	acquired, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire instance lock: %w", err)
	}
	if !acquired {
		return fmt.Errorf("another devseek serve instance is running (lock held at %s)", lock.Path())
	}
	defer func() { _ = lock.Unlock() }()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	pl, err := buildPipeline(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = pl.Close() }()

	// Hot-reload the intent patterns while the server runs.
	if path := cfg.Search.PatternsFile; path != "" {
		watcher, err := intent.NewReloadWatcher(path, pl.classifier, logger)
		if err != nil {
			logger.Warn("pattern_watcher_failed",
				slog.String("path", path),
				slog.String("error", err.Error()))
		} else {
			go func() {
				if err := watcher.Start(ctx); err != nil {
					logger.Warn("pattern_watcher_stopped", slog.String("error", err.Error()))
				}
			}()
		}
	}

	registry := prometheus.NewRegistry()
	metrics := middleware.NewMetrics()
	if err := metrics.Register(registry); err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	handler := api.NewHandler(pl.engine, pl.metrics, version.Version, logger)
	httpHandler := api.BuildHandler(handler, metrics, registry, logger)

	logger.Info("serve_starting",
		slog.String("addr", cfg.Server.Addr()),
		slog.String("version", version.Version),
		slog.String("cache_backend", cfg.Cache.Backend),
		slog.String("rewrite_mode", cfg.Rewrite.Mode))

	return api.NewServer(cfg.Server.Addr(), httpHandler, logger).Run(ctx)
}
