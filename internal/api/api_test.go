package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devseek/devseek/internal/api"
	"github.com/devseek/devseek/internal/api/middleware"
	"github.com/devseek/devseek/internal/engine"
	"github.com/devseek/devseek/internal/fetch"
	"github.com/devseek/devseek/internal/model"
	"github.com/devseek/devseek/internal/rewrite"
	"github.com/devseek/devseek/internal/telemetry"
)

type stubSearcher struct {
	searchFn   func(ctx context.Context, query string, opts engine.Options) (*engine.Response, error)
	trendingFn func(ctx context.Context) (*engine.TrendingResponse, error)
	calls      int
}

func (s *stubSearcher) Search(ctx context.Context, query string, opts engine.Options) (*engine.Response, error) {
	s.calls++
	if s.searchFn == nil {
		return &engine.Response{Query: query}, nil
	}
	return s.searchFn(ctx, query, opts)
}

func (s *stubSearcher) Trending(ctx context.Context) (*engine.TrendingResponse, error) {
	s.calls++
	if s.trendingFn == nil {
		return nil, engine.ErrTrendingUnavailable
	}
	return s.trendingFn(ctx)
}

func (s *stubSearcher) Close() error { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAPI(t *testing.T, eng engine.Searcher, metrics *telemetry.QueryMetrics) http.Handler {
	t.Helper()
	handler := api.NewHandler(eng, metrics, "1.2.3", discardLogger())
	return api.BuildHandler(handler, nil, nil, discardLogger())
}

func doGET(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func doPOST(t *testing.T, h http.Handler, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	encoded, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(encoded))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}

// sampleResponse is a two-result engine answer with one degraded source.
func sampleResponse(query string) *engine.Response {
	repo := &model.CodeRepo{
		Title:        "acme/httpkit",
		URL:          "https://github.com/acme/httpkit",
		Description:  "HTTP toolkit for Go services",
		Stars:        1200,
		Language:     "Go",
		LastActivity: time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC),
		Lifecycle:    model.LifecycleActive,
		Topics:       []string{"http", "middleware"},
	}
	thread := &model.DiscussionThread{
		Title:       "Best Go HTTP toolkit?",
		URL:         "https://forum.example.com/t/991",
		Section:     "golang",
		Votes:       420,
		Comments:    88,
		Created:     time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC),
		Body:        "Looking for a composable HTTP toolkit.",
		TopComments: []string{"httpkit has been solid for us"},
		Sentiment:   model.SentimentPositive,
	}
	return &engine.Response{
		RequestID: "req-123",
		Query:     query,
		Intent:    model.IntentHowTo,
		Weights:   model.DefaultSourceWeights(),
		Queries: rewrite.Queries{
			CodeHost:   "code q",
			ModelHub:   "hub q",
			Discussion: "disc q",
			Reasoning:  "split per source",
		},
		Results: []model.RankedResult{
			{Record: model.CodeRecord(repo), Score: 90.5, Rank: 1},
			{Record: model.DiscussionRecord(thread), Score: 71.2, Rank: 2},
		},
		Synthesis: "httpkit looks strongest.",
		SourceErrors: []fetch.SourceError{
			{Source: model.SourceModelHub, Message: "model hub search failed: hub down"},
		},
		Duration:  125 * time.Millisecond,
		Timestamp: time.Date(2026, time.February, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestAPI_Health(t *testing.T) {
	h := newTestAPI(t, &stubSearcher{}, nil)

	rec := doGET(t, h, "/api/v1/health")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	resp := decode[api.HealthResponse](t, rec)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
	assert.False(t, resp.Timestamp.IsZero())
}

func TestAPI_SearchGet(t *testing.T) {
	var gotQuery string
	var gotOpts engine.Options
	stub := &stubSearcher{
		searchFn: func(ctx context.Context, query string, opts engine.Options) (*engine.Response, error) {
			gotQuery = query
			gotOpts = opts
			return sampleResponse(query), nil
		},
	}
	h := newTestAPI(t, stub, nil)

	params := url.Values{}
	params.Set("q", "rust web framework")
	params.Set("sources", "code_host,discussion")
	params.Set("limit", "5")
	params.Set("refresh", "true")
	rec := doGET(t, h, "/api/v1/search?"+params.Encode())

	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
	assert.Equal(t, "rust web framework", gotQuery)
	assert.Equal(t, []model.Source{model.SourceCodeHost, model.SourceDiscussion}, gotOpts.Sources)
	assert.Equal(t, 5, gotOpts.MaxResults)
	assert.True(t, gotOpts.Refresh)

	resp := decode[api.SearchResponse](t, rec)
	assert.Equal(t, "req-123", resp.RequestID)
	assert.Equal(t, "rust web framework", resp.Query)
	assert.Equal(t, "how_to", resp.Intent)
	assert.Equal(t, model.DefaultSourceWeights(), resp.Weights)
	assert.Equal(t, "code q", resp.Queries.CodeHost)
	assert.Equal(t, "split per source", resp.Queries.Reasoning)
	assert.Equal(t, "httpkit looks strongest.", resp.Synthesis)
	assert.Equal(t, []string{"model hub search failed: hub down"}, resp.Errors)
	assert.Equal(t, int64(125), resp.DurationMS)
	assert.False(t, resp.Cached)

	require.Len(t, resp.Results, 2)
	first := resp.Results[0]
	assert.Equal(t, 1, first.Rank)
	assert.Equal(t, "code_host", first.Source)
	require.NotNil(t, first.Repo)
	assert.Equal(t, "acme/httpkit", first.Repo.Title)
	assert.Equal(t, "git clone https://github.com/acme/httpkit.git", first.Repo.CloneCommand)
	assert.Equal(t, "active", first.Repo.Status)
	assert.Equal(t, "2026-01-10T00:00:00Z", first.Repo.LastActivity)
	assert.Nil(t, first.Model)
	assert.Nil(t, first.Thread)

	second := resp.Results[1]
	assert.Equal(t, "discussion", second.Source)
	require.NotNil(t, second.Thread)
	assert.Equal(t, "golang", second.Thread.Section)
	assert.Equal(t, 420, second.Thread.Votes)
	assert.Equal(t, "positive", second.Thread.Sentiment)
	assert.False(t, second.Thread.HasWarning)
}

func TestAPI_SearchGet_Validation(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		wantErr string
	}{
		{
			name:    "missing query",
			target:  "/api/v1/search",
			wantErr: "query must be at least 3 characters",
		},
		{
			name:    "query too short",
			target:  "/api/v1/search?q=ab",
			wantErr: "query must be at least 3 characters",
		},
		{
			name:    "query too long",
			target:  "/api/v1/search?q=" + strings.Repeat("a", 1001),
			wantErr: "query must be at most 1000 characters",
		},
		{
			name:    "unknown source",
			target:  "/api/v1/search?q=cache+library&sources=bogus",
			wantErr: `unknown source "bogus"`,
		},
		{
			name:    "limit not an integer",
			target:  "/api/v1/search?q=cache+library&limit=many",
			wantErr: "limit must be an integer",
		},
		{
			name:    "limit zero",
			target:  "/api/v1/search?q=cache+library&limit=0",
			wantErr: "limit must be between 1 and 100",
		},
		{
			name:    "limit above cap",
			target:  "/api/v1/search?q=cache+library&limit=101",
			wantErr: "limit must be between 1 and 100",
		},
		{
			name:    "refresh not boolean",
			target:  "/api/v1/search?q=cache+library&refresh=maybe",
			wantErr: "refresh must be a boolean",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubSearcher{}
			h := newTestAPI(t, stub, nil)

			rec := doGET(t, h, tt.target)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decode[middleware.ErrorResponse](t, rec)
			assert.Equal(t, tt.wantErr, resp.Error)
			assert.Zero(t, stub.calls, "rejected request must not reach the engine")
		})
	}
}

func TestAPI_SearchPost(t *testing.T) {
	var gotQuery string
	var gotOpts engine.Options
	stub := &stubSearcher{
		searchFn: func(ctx context.Context, query string, opts engine.Options) (*engine.Response, error) {
			gotQuery = query
			gotOpts = opts
			return sampleResponse(query), nil
		},
	}
	h := newTestAPI(t, stub, nil)

	rec := doPOST(t, h, "/api/v1/search", api.SearchRequest{
		Query:      "  vector database  ",
		Sources:    []string{"discussion"},
		MaxResults: 10,
		Refresh:    true,
	})

	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
	assert.Equal(t, "vector database", gotQuery)
	assert.Equal(t, []model.Source{model.SourceDiscussion}, gotOpts.Sources)
	assert.Equal(t, 10, gotOpts.MaxResults)
	assert.True(t, gotOpts.Refresh)

	resp := decode[api.SearchResponse](t, rec)
	assert.Equal(t, "vector database", resp.Query)
}

func TestAPI_SearchPost_Invalid(t *testing.T) {
	t.Run("malformed body", func(t *testing.T) {
		stub := &stubSearcher{}
		h := newTestAPI(t, stub, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/search", strings.NewReader("{not json"))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decode[middleware.ErrorResponse](t, rec)
		assert.Equal(t, "invalid request body", resp.Error)
		assert.Zero(t, stub.calls)
	})

	t.Run("query too short", func(t *testing.T) {
		stub := &stubSearcher{}
		h := newTestAPI(t, stub, nil)

		rec := doPOST(t, h, "/api/v1/search", api.SearchRequest{Query: "ab"})

		require.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decode[middleware.ErrorResponse](t, rec)
		assert.Equal(t, "query must be at least 3 characters", resp.Error)
	})

	t.Run("max results above cap", func(t *testing.T) {
		stub := &stubSearcher{}
		h := newTestAPI(t, stub, nil)

		rec := doPOST(t, h, "/api/v1/search", api.SearchRequest{Query: "cache library", MaxResults: 1000})

		require.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decode[middleware.ErrorResponse](t, rec)
		assert.Equal(t, "limit must be between 1 and 100", resp.Error)
	})
}

func TestAPI_Search_EngineFailure(t *testing.T) {
	t.Run("internal error", func(t *testing.T) {
		stub := &stubSearcher{
			searchFn: func(ctx context.Context, query string, opts engine.Options) (*engine.Response, error) {
				return nil, errors.New("boom")
			},
		}
		h := newTestAPI(t, stub, nil)

		rec := doGET(t, h, "/api/v1/search?q=cache+library")

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		resp := decode[middleware.ErrorResponse](t, rec)
		assert.Equal(t, "search failed", resp.Error)
	})

	t.Run("timeout", func(t *testing.T) {
		stub := &stubSearcher{
			searchFn: func(ctx context.Context, query string, opts engine.Options) (*engine.Response, error) {
				return nil, context.DeadlineExceeded
			},
		}
		h := newTestAPI(t, stub, nil)

		rec := doGET(t, h, "/api/v1/search?q=cache+library")

		require.Equal(t, http.StatusGatewayTimeout, rec.Code)
		resp := decode[middleware.ErrorResponse](t, rec)
		assert.Equal(t, "search timed out", resp.Error)
	})
}

func TestAPI_Trending(t *testing.T) {
	stub := &stubSearcher{
		trendingFn: func(ctx context.Context) (*engine.TrendingResponse, error) {
			return &engine.TrendingResponse{
				RequestID: "req-777",
				Repos: []*model.CodeRepo{
					{Title: "acme/hot", URL: "https://github.com/acme/hot", Lifecycle: model.LifecycleActive},
				},
				Cards: []*model.ModelCard{
					{Title: "org/llm", URL: "https://hub.example.com/org/llm", Downloads: 9000},
				},
				Threads: []*model.DiscussionThread{
					{Title: "What is everyone building?", URL: "https://forum.example.com/t/1", Section: "programming"},
				},
				Synthesis: "Explore trending projects, models, and discussions from February 2026. Updated in real-time.",
				Timestamp: time.Date(2026, time.February, 1, 12, 0, 0, 0, time.UTC),
			}, nil
		},
	}
	h := newTestAPI(t, stub, nil)

	rec := doGET(t, h, "/api/v1/trending")

	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
	resp := decode[api.TrendingResponse](t, rec)
	assert.Equal(t, "req-777", resp.RequestID)
	require.Len(t, resp.Repos, 1)
	assert.Equal(t, "acme/hot", resp.Repos[0].Title)
	require.Len(t, resp.Models, 1)
	assert.Equal(t, 9000, resp.Models[0].Downloads)
	require.Len(t, resp.Discussions, 1)
	assert.Equal(t, "programming", resp.Discussions[0].Section)
	assert.Contains(t, resp.Synthesis, "trending projects")
}

func TestAPI_Trending_NotConfigured(t *testing.T) {
	h := newTestAPI(t, &stubSearcher{}, nil)

	rec := doGET(t, h, "/api/v1/trending")

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	resp := decode[middleware.ErrorResponse](t, rec)
	assert.Equal(t, "trending is not configured", resp.Error)
}

func TestAPI_Stats(t *testing.T) {
	t.Run("with telemetry", func(t *testing.T) {
		metrics := telemetry.NewQueryMetrics(nil)
		t.Cleanup(func() { _ = metrics.Close() })
		metrics.Record(telemetry.QueryEvent{
			Query:       "rate limiter",
			Intent:      telemetry.Intent(model.IntentHowTo),
			ResultCount: 4,
			Latency:     80 * time.Millisecond,
			Timestamp:   time.Now(),
		})

		h := newTestAPI(t, &stubSearcher{}, metrics)

		rec := doGET(t, h, "/api/v1/stats")

		require.Equal(t, http.StatusOK, rec.Code)
		snapshot := decode[telemetry.QueryMetricsSnapshot](t, rec)
		assert.Equal(t, int64(1), snapshot.TotalQueries)
		assert.Equal(t, int64(1), snapshot.IntentCounts[telemetry.Intent(model.IntentHowTo)])
	})

	t.Run("telemetry disabled", func(t *testing.T) {
		h := newTestAPI(t, &stubSearcher{}, nil)

		rec := doGET(t, h, "/api/v1/stats")

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		resp := decode[middleware.ErrorResponse](t, rec)
		assert.Equal(t, "telemetry is not enabled", resp.Error)
	})
}

func TestAPI_PanicRecovery(t *testing.T) {
	stub := &stubSearcher{
		searchFn: func(ctx context.Context, query string, opts engine.Options) (*engine.Response, error) {
			panic("kaboom")
		},
	}
	h := newTestAPI(t, stub, nil)

	rec := doGET(t, h, "/api/v1/search?q=cache+library")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decode[middleware.ErrorResponse](t, rec)
	assert.Equal(t, "internal server error", resp.Error)
}

func TestAPI_MetricsEndpoint(t *testing.T) {
	metrics := middleware.NewMetrics()
	registry := prometheus.NewRegistry()
	require.NoError(t, metrics.Register(registry))

	handler := api.NewHandler(&stubSearcher{}, nil, "1.2.3", discardLogger())
	h := api.BuildHandler(handler, metrics, registry, discardLogger())

	// One routed request so the labelled collectors have samples.
	rec := doGET(t, h, "/api/v1/health")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doGET(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "devseek_http_requests_total")
	assert.Contains(t, rec.Body.String(), "devseek_http_request_duration_seconds")
}
