package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/devseek/devseek/internal/cache"
	"github.com/devseek/devseek/internal/fetch"
	"github.com/devseek/devseek/internal/model"
)

// CodeTrender supplies currently popular code repositories.
type CodeTrender interface {
	Trending(ctx context.Context) ([]*model.CodeRepo, error)
}

// ModelTrender supplies currently popular model cards.
type ModelTrender interface {
	Trending(ctx context.Context) ([]*model.ModelCard, error)
}

// DiscussionTrender supplies currently hot discussion threads.
type DiscussionTrender interface {
	Trending(ctx context.Context) ([]*model.DiscussionThread, error)
}

// ErrTrendingUnavailable is returned by Trending when no trending feed is
// configured.
var ErrTrendingUnavailable = errors.New("no trending sources configured")

// Trending assembles a best-effort snapshot of what is popular on each
// configured feed. Warned discussion threads are excluded, each source is
// capped at TrendingPerSource, and the snapshot is cached under one fixed
// key so all callers share a single refresh per TTL window.
func (e *Engine) Trending(ctx context.Context) (*TrendingResponse, error) {
	start := time.Now()

	if e.codeTrends == nil && e.modelTrends == nil && e.discussionTrends == nil {
		return nil, ErrTrendingUnavailable
	}

	requestID := uuid.NewString()
	logger := e.logger.With(slog.String("request_id", requestID))

	if resp, ok := e.cachedTrending(ctx, logger); ok {
		resp.RequestID = requestID
		resp.Cached = true
		resp.Duration = time.Since(start)
		return resp, nil
	}

	var (
		repos   []*model.CodeRepo
		cards   []*model.ModelCard
		threads []*model.DiscussionThread

		codeErr, modelErr, discussionErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	if e.codeTrends != nil {
		g.Go(func() error {
			repos, codeErr = e.codeTrends.Trending(gctx)
			return nil
		})
	}
	if e.modelTrends != nil {
		g.Go(func() error {
			cards, modelErr = e.modelTrends.Trending(gctx)
			return nil
		})
	}
	if e.discussionTrends != nil {
		g.Go(func() error {
			threads, discussionErr = e.discussionTrends.Trending(gctx)
			return nil
		})
	}
	// Branches never return errors, so Wait only synchronizes.
	if waitErr := g.Wait(); waitErr != nil {
		return nil, waitErr
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	var srcErrs []fetch.SourceError
	if codeErr != nil {
		repos = nil
		srcErrs = append(srcErrs, fetch.SourceError{
			Source:  model.SourceCodeHost,
			Message: fmt.Sprintf("code host trending failed: %v", codeErr),
		})
		e.reportTrendingFailure(logger, model.SourceCodeHost, codeErr)
	}
	if modelErr != nil {
		cards = nil
		srcErrs = append(srcErrs, fetch.SourceError{
			Source:  model.SourceModelHub,
			Message: fmt.Sprintf("model hub trending failed: %v", modelErr),
		})
		e.reportTrendingFailure(logger, model.SourceModelHub, modelErr)
	}
	if discussionErr != nil {
		threads = nil
		srcErrs = append(srcErrs, fetch.SourceError{
			Source:  model.SourceDiscussion,
			Message: fmt.Sprintf("discussion trending failed: %v", discussionErr),
		})
		e.reportTrendingFailure(logger, model.SourceDiscussion, discussionErr)
	}

	resp := &TrendingResponse{
		RequestID:    requestID,
		Repos:        capList(repos, TrendingPerSource),
		Cards:        capList(cards, TrendingPerSource),
		Threads:      capList(dropWarned(threads), TrendingPerSource),
		Synthesis:    e.trendingSynthesis(),
		SourceErrors: srcErrs,
		Duration:     time.Since(start),
		Timestamp:    e.now().UTC(),
	}

	// An empty snapshot would pin total upstream failure for the whole TTL;
	// leave the key unset so the next caller retries.
	if len(resp.Repos)+len(resp.Cards)+len(resp.Threads) > 0 {
		e.storeTrending(ctx, resp, logger)
	}

	logger.Info("trending_completed",
		slog.Int("repos", len(resp.Repos)),
		slog.Int("cards", len(resp.Cards)),
		slog.Int("threads", len(resp.Threads)),
		slog.Int("source_errors", len(srcErrs)),
		slog.Duration("duration", resp.Duration))

	return resp, nil
}

func (e *Engine) reportTrendingFailure(logger *slog.Logger, source model.Source, err error) {
	if e.metrics != nil {
		e.metrics.RecordSourceFailure(source.String())
	}
	logger.Warn("trending_fetch_failed",
		slog.String("source", source.String()),
		slog.String("error", err.Error()))
}

// dropWarned removes threads flagged by sentiment analysis. Trending never
// surfaces warned content.
func dropWarned(threads []*model.DiscussionThread) []*model.DiscussionThread {
	var kept []*model.DiscussionThread
	for _, t := range threads {
		if !t.Warning {
			kept = append(kept, t)
		}
	}
	return kept
}

func (e *Engine) trendingSynthesis() string {
	now := e.now()
	return fmt.Sprintf("Explore trending projects, models, and discussions from %s %d. Updated in real-time.",
		now.Month(), now.Year())
}

func (e *Engine) cachedTrending(ctx context.Context, logger *slog.Logger) (*TrendingResponse, bool) {
	payload, ok, err := e.cache.Get(ctx, cache.TrendingKey)
	if err != nil {
		logger.Warn("cache_read_failed", slog.String("error", err.Error()))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var resp TrendingResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		logger.Warn("cache_entry_corrupt", slog.String("error", err.Error()))
		return nil, false
	}
	return &resp, true
}

func (e *Engine) storeTrending(ctx context.Context, resp *TrendingResponse, logger *slog.Logger) {
	payload, err := json.Marshal(resp)
	if err != nil {
		logger.Warn("cache_encode_failed", slog.String("error", err.Error()))
		return
	}
	if err := e.cache.Set(ctx, cache.TrendingKey, payload, e.trendingTTL); err != nil {
		logger.Warn("cache_write_failed", slog.String("error", err.Error()))
	}
}
