package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/devseek/devseek/internal/cache"
	"github.com/devseek/devseek/internal/config"
	"github.com/devseek/devseek/internal/engine"
	dverrors "github.com/devseek/devseek/internal/errors"
	"github.com/devseek/devseek/internal/fetch"
	"github.com/devseek/devseek/internal/intent"
	"github.com/devseek/devseek/internal/relevance"
	"github.com/devseek/devseek/internal/rewrite"
	"github.com/devseek/devseek/internal/sources"
	"github.com/devseek/devseek/internal/telemetry"
)

// pipeline bundles the wired engine with the handles commands need after
// construction: the classifier for hot reloads and the metrics recorder
// for the stats surface.
type pipeline struct {
	engine     *engine.Engine
	classifier *intent.PatternClassifier
	metrics    *telemetry.QueryMetrics
}

// Close releases the pipeline. The engine owns the cache and metrics, so
// a single close is enough.
func (p *pipeline) Close() error {
	return p.engine.Close()
}

// buildPipeline wires the full search pipeline from configuration:
// classifier, source clients, orchestrator, cache, rewriter, telemetry,
// and the engine itself. Degraded dependencies (unreachable Redis, broken
// telemetry store) fall back with a warning rather than failing the build;
// only invalid configuration is fatal.
func buildPipeline(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pipeline, error) {
	classifier, err := buildClassifier(cfg, logger)
	if err != nil {
		return nil, err
	}

	github, huggingface, reddit := buildSourceClients(cfg, logger)
	orch, err := fetch.NewOrchestrator(github, huggingface, reddit, fetch.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to wire fetch orchestrator: %w", err)
	}

	rewriter, synthesizer := buildRewriter(cfg)
	metrics := buildMetrics(cfg, logger)

	opts := []engine.EngineOption{
		engine.WithRanker(relevance.NewRanker(relevance.WithLogger(logger))),
		engine.WithRewriter(rewriter),
		engine.WithSynthesizer(synthesizer),
		engine.WithCacheTTLs(cfg.Cache.SearchTTLDuration(), cfg.Cache.TrendingTTLDuration()),
		engine.WithTrendingSources(github, huggingface, reddit),
		engine.WithLogger(logger),
	}
	if responseCache := buildCache(ctx, cfg, logger); responseCache != nil {
		opts = append(opts, engine.WithCache(responseCache))
	}
	if metrics != nil {
		opts = append(opts, engine.WithMetrics(metrics))
	}

	eng, err := engine.NewEngine(classifier, orch, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build engine: %w", err)
	}

	return &pipeline{engine: eng, classifier: classifier, metrics: metrics}, nil
}

// buildClassifier creates the intent classifier, applying the configured
// pattern file and weight overrides. A missing or malformed pattern file
// keeps the built-in patterns; invalid weight rows are fatal because they
// would silently skew every ranking.
func buildClassifier(cfg *config.Config, logger *slog.Logger) (*intent.PatternClassifier, error) {
	classifier := intent.NewPatternClassifier()

	if path := cfg.Search.PatternsFile; path != "" {
		set, err := intent.LoadPatternSet(path)
		if err != nil {
			logger.Warn("pattern_file_load_failed",
				slog.String("path", path),
				slog.String("error", err.Error()))
		} else if err := classifier.Reload(set); err != nil {
			logger.Warn("pattern_file_rejected",
				slog.String("path", path),
				slog.String("error", err.Error()))
		} else {
			logger.Info("pattern_file_loaded", slog.String("path", path))
		}
	}

	if overrides := cfg.Search.WeightOverrides(); len(overrides) > 0 {
		if err := classifier.SetWeightOverrides(overrides); err != nil {
			return nil, fmt.Errorf("invalid search.weights: %w", err)
		}
	}

	return classifier, nil
}

// buildSourceClients creates the three upstream clients sharing one HTTP
// client with the configured fetch timeout. Each source gets its own
// circuit breaker so one failing upstream cannot trip the others.
func buildSourceClients(cfg *config.Config, logger *slog.Logger) (*sources.GitHubClient, *sources.HuggingFaceClient, *sources.RedditClient) {
	httpClient := &http.Client{Timeout: cfg.Sources.FetchTimeout()}

	github := &sources.GitHubClient{
		Client:     httpClient,
		Token:      cfg.Sources.GitHubToken,
		UserAgent:  cfg.Sources.UserAgent,
		MaxResults: cfg.Sources.MaxPerSource,
		Breaker:    dverrors.NewCircuitBreaker("github"),
		Logger:     logger,
	}
	huggingface := &sources.HuggingFaceClient{
		Client:     httpClient,
		UserAgent:  cfg.Sources.UserAgent,
		MaxResults: cfg.Sources.MaxPerSource,
		Breaker:    dverrors.NewCircuitBreaker("huggingface"),
	}
	reddit := &sources.RedditClient{
		Client:     httpClient,
		UserAgent:  cfg.Sources.UserAgent,
		MaxResults: cfg.Sources.MaxPerSource,
		Breaker:    dverrors.NewCircuitBreaker("reddit"),
		Logger:     logger,
	}

	return github, huggingface, reddit
}

// buildCache returns the configured response cache, or nil for the "none"
// backend so the engine falls back to its no-op cache. An unreachable
// Redis degrades to the in-process cache instead of failing startup.
func buildCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) cache.Cache {
	switch cfg.Cache.Backend {
	case "redis":
		redisCache, err := cache.NewRedis(ctx, cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			logger.Warn("redis_unavailable_using_memory",
				slog.String("addr", cfg.Cache.RedisAddr),
				slog.String("error", err.Error()))
			return cache.NewMemory(cfg.Cache.MemorySize)
		}
		return redisCache
	case "none":
		return nil
	default:
		return cache.NewMemory(cfg.Cache.MemorySize)
	}
}

// buildRewriter selects the rewrite strategy. The rules mode pairs the
// rule-based rewriter with template synthesis and works fully offline;
// llm and hybrid route through the configured Ollama endpoint.
func buildRewriter(cfg *config.Config) (rewrite.Rewriter, rewrite.Synthesizer) {
	ollamaConfig := rewrite.OllamaConfig{
		Host:           cfg.Rewrite.OllamaHost,
		Model:          cfg.Rewrite.Model,
		SynthesisModel: cfg.Rewrite.SynthesisModel,
		Timeout:        cfg.Rewrite.TimeoutDuration(),
	}

	switch cfg.Rewrite.Mode {
	case "llm":
		llm := rewrite.NewOllama(ollamaConfig)
		return llm, llm
	case "hybrid":
		hybrid := rewrite.NewHybrid(rewrite.NewOllama(ollamaConfig))
		return hybrid, hybrid
	default:
		return rewrite.NewRuleBased(), rewrite.Template{}
	}
}

// buildMetrics creates the query metrics recorder, or nil when telemetry
// is disabled. A broken SQLite store degrades to in-memory counters so a
// bad path never blocks searching.
func buildMetrics(cfg *config.Config, logger *slog.Logger) *telemetry.QueryMetrics {
	if !cfg.Telemetry.Enabled {
		return nil
	}
	path := cfg.Telemetry.DBPath
	if path == "" {
		return telemetry.NewQueryMetrics(nil)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		logger.Warn("telemetry_dir_create_failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return telemetry.NewQueryMetrics(nil)
	}
	store, err := telemetry.OpenSQLiteMetricsStore(path)
	if err != nil {
		logger.Warn("telemetry_store_open_failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return telemetry.NewQueryMetrics(nil)
	}
	return telemetry.NewQueryMetrics(store)
}

// loadConfig resolves configuration for a command invocation: project
// config when inside a project, otherwise user config merged over
// defaults. Never fails; a broken file falls back to defaults with a
// warning so the CLI stays usable.
func loadConfig(logger *slog.Logger) *config.Config {
	root, err := config.FindProjectRoot(".")
	if err != nil {
		root, err = os.Getwd()
		if err != nil {
			root = "."
		}
	}
	cfg, err := config.Load(root)
	if err != nil {
		logger.Warn("config_load_failed", slog.String("error", err.Error()))
		return config.NewConfig()
	}
	return cfg
}
