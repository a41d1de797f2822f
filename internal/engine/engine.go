// Package engine wires the full answer pipeline behind one facade: classify
// intent, rewrite the query per source, fetch concurrently, rank each
// source's results, merge them into one list, and synthesize a verdict. The
// serving layers (HTTP, MCP, CLI) talk to the Engine and nothing below it.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/devseek/devseek/internal/cache"
	"github.com/devseek/devseek/internal/fetch"
	"github.com/devseek/devseek/internal/intent"
	"github.com/devseek/devseek/internal/merge"
	"github.com/devseek/devseek/internal/model"
	"github.com/devseek/devseek/internal/relevance"
	"github.com/devseek/devseek/internal/rewrite"
	"github.com/devseek/devseek/internal/telemetry"
)

// Searcher is the engine surface the serving layers depend on.
type Searcher interface {
	Search(ctx context.Context, query string, opts Options) (*Response, error)
	Trending(ctx context.Context) (*TrendingResponse, error)
	Close() error
}

// Engine runs the search pipeline. Construct with NewEngine.
type Engine struct {
	classifier  intent.Classifier
	orch        *fetch.Orchestrator
	ranker      *relevance.Ranker
	rewriter    rewrite.Rewriter
	synthesizer rewrite.Synthesizer
	cache       cache.Cache
	searchTTL   time.Duration
	trendingTTL time.Duration
	metrics     *telemetry.QueryMetrics

	codeTrends       CodeTrender
	modelTrends      ModelTrender
	discussionTrends DiscussionTrender

	logger *slog.Logger
	now    func() time.Time
}

var _ Searcher = (*Engine)(nil)

// ErrNilDependency is returned when a required dependency is nil.
var ErrNilDependency = errors.New("nil dependency")

// ErrEmptyQuery is returned when the query is empty after trimming.
var ErrEmptyQuery = errors.New("empty query")

// EngineOption configures optional collaborators.
type EngineOption func(*Engine)

// WithRanker replaces the default per-source ranker.
func WithRanker(r *relevance.Ranker) EngineOption {
	return func(e *Engine) {
		if r != nil {
			e.ranker = r
		}
	}
}

// WithRewriter sets the per-source query rewriter. Defaults to the
// rule-based rewriter.
func WithRewriter(r rewrite.Rewriter) EngineOption {
	return func(e *Engine) {
		if r != nil {
			e.rewriter = r
		}
	}
}

// WithSynthesizer sets the verdict synthesizer. Defaults to the template
// synthesizer.
func WithSynthesizer(s rewrite.Synthesizer) EngineOption {
	return func(e *Engine) {
		if s != nil {
			e.synthesizer = s
		}
	}
}

// WithCache sets the response cache. Defaults to no caching.
func WithCache(c cache.Cache) EngineOption {
	return func(e *Engine) {
		if c != nil {
			e.cache = c
		}
	}
}

// WithCacheTTLs overrides the cached-response lifetimes. Non-positive
// values keep the defaults.
func WithCacheTTLs(search, trending time.Duration) EngineOption {
	return func(e *Engine) {
		if search > 0 {
			e.searchTTL = search
		}
		if trending > 0 {
			e.trendingTTL = trending
		}
	}
}

// WithMetrics sets an optional query telemetry collector.
func WithMetrics(m *telemetry.QueryMetrics) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithTrendingSources enables Trending with the given per-source feeds.
// A nil feed leaves that source out of the snapshot.
func WithTrendingSources(code CodeTrender, models ModelTrender, discussions DiscussionTrender) EngineOption {
	return func(e *Engine) {
		e.codeTrends = code
		e.modelTrends = models
		e.discussionTrends = discussions
	}
}

// WithLogger sets the logger used for request instrumentation.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine wires the pipeline. The classifier and orchestrator are
// required; every other collaborator has a working default.
func NewEngine(classifier intent.Classifier, orch *fetch.Orchestrator, opts ...EngineOption) (*Engine, error) {
	if classifier == nil {
		return nil, fmt.Errorf("%w: intent classifier is required", ErrNilDependency)
	}
	if orch == nil {
		return nil, fmt.Errorf("%w: fetch orchestrator is required", ErrNilDependency)
	}
	e := &Engine{
		classifier:  classifier,
		orch:        orch,
		ranker:      relevance.NewRanker(),
		rewriter:    rewrite.NewRuleBased(),
		synthesizer: rewrite.Template{},
		cache:       cache.Noop{},
		searchTTL:   cache.SearchTTL,
		trendingTTL: cache.TrendingTTL,
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Search answers one query end to end. Upstream source failures degrade the
// response (fewer results, entries in SourceErrors) instead of failing it;
// the returned error is reserved for cancellation and defects.
func (e *Engine) Search(ctx context.Context, query string, opts Options) (*Response, error) {
	start := time.Now()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	opts = applyDefaults(opts)

	requestID := uuid.NewString()
	logger := e.logger.With(slog.String("request_id", requestID))

	category, weights, err := e.classifier.Classify(ctx, query)
	if err != nil {
		// A broken classifier downgrades the search to the general bucket.
		category = model.IntentGeneral
		weights = model.DefaultSourceWeights()
		logger.Warn("intent_classification_failed", slog.String("error", err.Error()))
	}

	key := cache.SearchKey(query, opts.Sources, opts.MaxResults)
	if !opts.Refresh {
		if resp, ok := e.cachedResponse(ctx, key, logger); ok {
			resp.RequestID = requestID
			resp.Cached = true
			resp.Duration = time.Since(start)
			e.recordMetrics(query, category, len(resp.Results), true, nil, resp.Duration)
			logger.Info("search_completed",
				slog.String("intent", category.String()),
				slog.Int("results", len(resp.Results)),
				slog.Bool("cached", true),
				slog.Duration("duration", resp.Duration))
			return resp, nil
		}
	}

	queries, err := e.rewriter.Rewrite(ctx, query, category)
	if err != nil {
		queries = rewrite.Queries{
			CodeHost:   query,
			ModelHub:   query,
			Discussion: query,
			Reasoning:  "rewrite failed; all sources searched with the raw query",
		}
		logger.Warn("query_rewrite_failed", slog.String("error", err.Error()))
	}

	repos, cards, threads, fetchErrs, err := e.orch.Orchestrate(ctx,
		queries.CodeHost, queries.ModelHub, queries.Discussion)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}

	allowed := make(map[model.Source]bool, len(opts.Sources))
	for _, s := range opts.Sources {
		allowed[s] = true
	}
	if !allowed[model.SourceCodeHost] {
		repos = nil
	}
	if !allowed[model.SourceModelHub] {
		cards = nil
	}
	if !allowed[model.SourceDiscussion] {
		threads = nil
	}
	fetchErrs = slices.DeleteFunc(fetchErrs, func(fe fetch.SourceError) bool {
		return !allowed[fe.Source]
	})

	// Ranking sees the original query: the rewritten strings are shaped for
	// each source's search syntax, not for relevance comparison.
	rankedCode := e.ranker.Rank(query, codeRecords(repos))
	rankedHub := e.ranker.Rank(query, modelRecords(cards))
	rankedDiscussion := e.ranker.Rank(query, discussionRecords(threads))

	results := merge.Merge(rankedCode, rankedHub, rankedDiscussion, weights, category)
	if len(results) > opts.MaxResults {
		results = results[:opts.MaxResults]
	}

	synthesis, err := e.synthesizer.Synthesize(ctx, query,
		scoredRepos(rankedCode), scoredCards(rankedHub), scoredThreads(rankedDiscussion))
	if err != nil {
		logger.Warn("synthesis_failed", slog.String("error", err.Error()))
		synthesis = ""
	}

	resp := &Response{
		RequestID:    requestID,
		Query:        query,
		Intent:       category,
		Weights:      weights,
		Queries:      queries,
		Results:      results,
		Synthesis:    synthesis,
		SourceErrors: fetchErrs,
		Duration:     time.Since(start),
		Timestamp:    e.now().UTC(),
	}

	e.storeResponse(ctx, key, resp, logger)
	e.recordMetrics(query, category, len(results), false, fetchErrs, resp.Duration)
	logger.Info("search_completed",
		slog.String("intent", category.String()),
		slog.Int("results", len(results)),
		slog.Int("source_errors", len(fetchErrs)),
		slog.Bool("cached", false),
		slog.Duration("duration", resp.Duration))

	return resp, nil
}

// Close releases the collaborators the engine owns: the telemetry collector
// (final flush) and the cache backend.
func (e *Engine) Close() error {
	var errs []error

	if e.metrics != nil {
		if err := e.metrics.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := e.cache.Close(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func (e *Engine) cachedResponse(ctx context.Context, key string, logger *slog.Logger) (*Response, bool) {
	payload, ok, err := e.cache.Get(ctx, key)
	if err != nil {
		logger.Warn("cache_read_failed", slog.String("error", err.Error()))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var resp Response
	if err := json.Unmarshal(payload, &resp); err != nil {
		logger.Warn("cache_entry_corrupt", slog.String("error", err.Error()))
		return nil, false
	}
	return &resp, true
}

func (e *Engine) storeResponse(ctx context.Context, key string, resp *Response, logger *slog.Logger) {
	payload, err := json.Marshal(resp)
	if err != nil {
		logger.Warn("cache_encode_failed", slog.String("error", err.Error()))
		return
	}
	if err := e.cache.Set(ctx, key, payload, e.searchTTL); err != nil {
		logger.Warn("cache_write_failed", slog.String("error", err.Error()))
	}
}

// recordMetrics records query telemetry if a collector is configured.
func (e *Engine) recordMetrics(query string, category model.IntentCategory, resultCount int, cacheHit bool, fetchErrs []fetch.SourceError, latency time.Duration) {
	if e.metrics == nil {
		return
	}
	var failed []string
	for _, fe := range fetchErrs {
		failed = append(failed, fe.Source.String())
	}
	e.metrics.Record(telemetry.QueryEvent{
		Query:         query,
		Intent:        telemetry.Intent(category),
		ResultCount:   resultCount,
		Latency:       latency,
		CacheHit:      cacheHit,
		FailedSources: failed,
		Timestamp:     time.Now(),
	})
}

func codeRecords(repos []*model.CodeRepo) []model.SourceRecord {
	out := make([]model.SourceRecord, len(repos))
	for i, r := range repos {
		out[i] = model.CodeRecord(r)
	}
	return out
}

func modelRecords(cards []*model.ModelCard) []model.SourceRecord {
	out := make([]model.SourceRecord, len(cards))
	for i, c := range cards {
		out[i] = model.ModelRecord(c)
	}
	return out
}

func discussionRecords(threads []*model.DiscussionThread) []model.SourceRecord {
	out := make([]model.SourceRecord, len(threads))
	for i, t := range threads {
		out[i] = model.DiscussionRecord(t)
	}
	return out
}

func scoredRepos(ranked []model.ScoredRecord) []*model.CodeRepo {
	var out []*model.CodeRepo
	for _, sr := range ranked {
		if sr.Record.Code != nil {
			out = append(out, sr.Record.Code)
		}
	}
	return out
}

func scoredCards(ranked []model.ScoredRecord) []*model.ModelCard {
	var out []*model.ModelCard
	for _, sr := range ranked {
		if sr.Record.Model != nil {
			out = append(out, sr.Record.Model)
		}
	}
	return out
}

func scoredThreads(ranked []model.ScoredRecord) []*model.DiscussionThread {
	var out []*model.DiscussionThread
	for _, sr := range ranked {
		if sr.Record.Discussion != nil {
			out = append(out, sr.Record.Discussion)
		}
	}
	return out
}
