package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devseek/devseek/internal/cache"
	"github.com/devseek/devseek/internal/fetch"
	"github.com/devseek/devseek/internal/model"
	"github.com/devseek/devseek/internal/telemetry"
)

type codeTrenderFunc func(ctx context.Context) ([]*model.CodeRepo, error)

func (f codeTrenderFunc) Trending(ctx context.Context) ([]*model.CodeRepo, error) { return f(ctx) }

type modelTrenderFunc func(ctx context.Context) ([]*model.ModelCard, error)

func (f modelTrenderFunc) Trending(ctx context.Context) ([]*model.ModelCard, error) { return f(ctx) }

type discussionTrenderFunc func(ctx context.Context) ([]*model.DiscussionThread, error)

func (f discussionTrenderFunc) Trending(ctx context.Context) ([]*model.DiscussionThread, error) {
	return f(ctx)
}

func newTrendingEngine(t *testing.T, opts ...EngineOption) *Engine {
	t.Helper()
	orch := mustOrchestrator(t, staticCode(), staticModels(), staticDiscussions())
	base := []EngineOption{WithClock(fixedClock), WithLogger(discardLogger())}
	eng, err := NewEngine(
		staticClassifier(model.IntentGeneral, model.DefaultSourceWeights()),
		orch,
		append(base, opts...)...,
	)
	require.NoError(t, err)
	return eng
}

func TestEngine_Trending_NotConfigured(t *testing.T) {
	eng := newTrendingEngine(t)

	resp, err := eng.Trending(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTrendingUnavailable)
	assert.Nil(t, resp)
}

func TestEngine_Trending_Snapshot(t *testing.T) {
	repos := make([]*model.CodeRepo, 8)
	for i := range repos {
		repos[i] = &model.CodeRepo{Title: fmt.Sprintf("acme/hot-%d", i), URL: fmt.Sprintf("https://github.com/acme/hot-%d", i)}
	}
	cards := []*model.ModelCard{
		{Title: "acme/llm-a", URL: "https://huggingface.co/acme/llm-a"},
		{Title: "acme/llm-b", URL: "https://huggingface.co/acme/llm-b"},
	}
	// Nine threads; the first two carry warnings and must go before capping.
	threads := make([]*model.DiscussionThread, 9)
	for i := range threads {
		threads[i] = &model.DiscussionThread{
			Title:   fmt.Sprintf("thread-%d", i),
			URL:     fmt.Sprintf("https://reddit.com/r/programming/%d", i),
			Warning: i < 2,
		}
	}

	rc := newRecordingCache()
	eng := newTrendingEngine(t,
		WithCache(rc),
		WithTrendingSources(
			codeTrenderFunc(func(context.Context) ([]*model.CodeRepo, error) { return repos, nil }),
			modelTrenderFunc(func(context.Context) ([]*model.ModelCard, error) { return cards, nil }),
			discussionTrenderFunc(func(context.Context) ([]*model.DiscussionThread, error) { return threads, nil }),
		),
	)

	resp, err := eng.Trending(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, resp.RequestID)
	assert.False(t, resp.Cached)
	assert.Empty(t, resp.SourceErrors)
	assert.Equal(t, fixedClock(), resp.Timestamp)
	assert.Equal(t,
		"Explore trending projects, models, and discussions from February 2026. Updated in real-time.",
		resp.Synthesis)

	require.Len(t, resp.Repos, TrendingPerSource)
	assert.Equal(t, "acme/hot-0", resp.Repos[0].Title)
	require.Len(t, resp.Cards, 2)

	// Warned threads were dropped before the cap, so six clean ones remain.
	require.Len(t, resp.Threads, TrendingPerSource)
	assert.Equal(t, "thread-2", resp.Threads[0].Title)
	for _, th := range resp.Threads {
		assert.False(t, th.Warning)
	}

	require.Equal(t, 1, rc.sets)
	assert.Contains(t, rc.entries, cache.TrendingKey)
	assert.Equal(t, cache.TrendingTTL, rc.ttls[cache.TrendingKey])
}

func TestEngine_Trending_PartialConfiguration(t *testing.T) {
	repo := &model.CodeRepo{Title: "acme/solo", URL: "https://github.com/acme/solo"}
	eng := newTrendingEngine(t,
		WithTrendingSources(
			codeTrenderFunc(func(context.Context) ([]*model.CodeRepo, error) { return []*model.CodeRepo{repo}, nil }),
			nil,
			nil,
		),
	)

	resp, err := eng.Trending(context.Background())

	require.NoError(t, err)
	require.Len(t, resp.Repos, 1)
	assert.Empty(t, resp.Cards)
	assert.Empty(t, resp.Threads)
	assert.Empty(t, resp.SourceErrors, "unconfigured feeds are not failures")
}

func TestEngine_Trending_ServesFromCache(t *testing.T) {
	var calls atomic.Int32
	rc := newRecordingCache()
	eng := newTrendingEngine(t,
		WithCache(rc),
		WithTrendingSources(
			codeTrenderFunc(func(context.Context) ([]*model.CodeRepo, error) {
				calls.Add(1)
				return []*model.CodeRepo{{Title: "acme/hot", URL: "https://github.com/acme/hot"}}, nil
			}),
			nil,
			nil,
		),
	)

	first, err := eng.Trending(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(1), calls.Load())

	second, err := eng.Trending(context.Background())
	require.NoError(t, err)

	assert.True(t, second.Cached)
	assert.Equal(t, int32(1), calls.Load(), "cached snapshot must not refetch")
	assert.NotEqual(t, first.RequestID, second.RequestID)
	assert.Equal(t, first.Repos, second.Repos)
}

func TestEngine_Trending_PartialFailure(t *testing.T) {
	metrics := telemetry.NewQueryMetrics(nil)
	rc := newRecordingCache()
	eng := newTrendingEngine(t,
		WithCache(rc),
		WithMetrics(metrics),
		WithTrendingSources(
			codeTrenderFunc(func(context.Context) ([]*model.CodeRepo, error) {
				return []*model.CodeRepo{{Title: "acme/alive", URL: "https://github.com/acme/alive"}}, nil
			}),
			modelTrenderFunc(func(context.Context) ([]*model.ModelCard, error) {
				return nil, errors.New("hub stalled")
			}),
			discussionTrenderFunc(func(context.Context) ([]*model.DiscussionThread, error) {
				return []*model.DiscussionThread{{Title: "still here", URL: "https://reddit.com/r/golang/9"}}, nil
			}),
		),
	)

	resp, err := eng.Trending(context.Background())

	require.NoError(t, err)
	require.Len(t, resp.SourceErrors, 1)
	assert.Equal(t, fetch.SourceError{
		Source:  model.SourceModelHub,
		Message: "model hub trending failed: hub stalled",
	}, resp.SourceErrors[0])
	assert.Len(t, resp.Repos, 1)
	assert.Empty(t, resp.Cards)
	assert.Len(t, resp.Threads, 1)

	// A partially successful snapshot is still worth caching.
	assert.Equal(t, 1, rc.sets)
	assert.Equal(t, int64(1), metrics.Snapshot().SourceFailures[model.SourceModelHub.String()])
}

func TestEngine_Trending_TotalFailureNotCached(t *testing.T) {
	var calls atomic.Int32
	rc := newRecordingCache()
	down := errors.New("upstream down")
	eng := newTrendingEngine(t,
		WithCache(rc),
		WithTrendingSources(
			codeTrenderFunc(func(context.Context) ([]*model.CodeRepo, error) {
				calls.Add(1)
				return nil, down
			}),
			modelTrenderFunc(func(context.Context) ([]*model.ModelCard, error) { return nil, down }),
			discussionTrenderFunc(func(context.Context) ([]*model.DiscussionThread, error) { return nil, down }),
		),
	)

	resp, err := eng.Trending(context.Background())
	require.NoError(t, err)

	require.Len(t, resp.SourceErrors, 3)
	assert.Equal(t, model.SourceCodeHost, resp.SourceErrors[0].Source)
	assert.Equal(t, model.SourceModelHub, resp.SourceErrors[1].Source)
	assert.Equal(t, model.SourceDiscussion, resp.SourceErrors[2].Source)
	assert.Empty(t, resp.Repos)
	assert.Empty(t, resp.Cards)
	assert.Empty(t, resp.Threads)
	assert.Zero(t, rc.sets, "an empty snapshot must not be pinned")

	_, err = eng.Trending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load(), "next caller retries after total failure")
}
