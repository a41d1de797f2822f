// Package api exposes the search pipeline over HTTP: go-restful routes
// under /api/v1, request validation, and the DTO layer that flattens
// engine responses into wire shapes.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/emicklei/go-restful/v3"

	"github.com/devseek/devseek/internal/api/middleware"
	"github.com/devseek/devseek/internal/engine"
	dverrors "github.com/devseek/devseek/internal/errors"
	"github.com/devseek/devseek/internal/model"
	"github.com/devseek/devseek/internal/telemetry"
)

// Handler serves the /api/v1 routes.
type Handler struct {
	engine  engine.Searcher
	metrics *telemetry.QueryMetrics
	version string
	logger  *slog.Logger
}

// NewHandler builds a Handler. metrics may be nil; the stats route then
// reports telemetry as unavailable.
func NewHandler(eng engine.Searcher, metrics *telemetry.QueryMetrics, version string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		engine:  eng,
		metrics: metrics,
		version: version,
		logger:  logger,
	}
}

// GET /api/v1/search?q=...&sources=...&limit=...&refresh=...
func (h *Handler) Search(req *restful.Request, resp *restful.Response) {
	query, err := validateQuery(req.QueryParameter("q"))
	if err != nil {
		middleware.WriteError(resp, http.StatusBadRequest, err.Error())
		return
	}

	var opts engine.Options
	if raw := req.QueryParameter("sources"); raw != "" {
		sources, err := parseSources(strings.Split(raw, ","))
		if err != nil {
			middleware.WriteError(resp, http.StatusBadRequest, err.Error())
			return
		}
		opts.Sources = sources
	}
	if raw := req.QueryParameter("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			middleware.WriteError(resp, http.StatusBadRequest, "limit must be an integer")
			return
		}
		if err := validateLimit(limit); err != nil {
			middleware.WriteError(resp, http.StatusBadRequest, err.Error())
			return
		}
		opts.MaxResults = limit
	}
	if raw := req.QueryParameter("refresh"); raw != "" {
		refresh, err := strconv.ParseBool(raw)
		if err != nil {
			middleware.WriteError(resp, http.StatusBadRequest, "refresh must be a boolean")
			return
		}
		opts.Refresh = refresh
	}

	h.runSearch(req, resp, query, opts)
}

// POST /api/v1/search
// Body: SearchRequest
func (h *Handler) SearchPost(req *restful.Request, resp *restful.Response) {
	var body SearchRequest
	if err := req.ReadEntity(&body); err != nil {
		middleware.WriteError(resp, http.StatusBadRequest, "invalid request body")
		return
	}

	query, err := validateQuery(body.Query)
	if err != nil {
		middleware.WriteError(resp, http.StatusBadRequest, err.Error())
		return
	}
	sources, err := parseSources(body.Sources)
	if err != nil {
		middleware.WriteError(resp, http.StatusBadRequest, err.Error())
		return
	}
	if body.MaxResults != 0 {
		if err := validateLimit(body.MaxResults); err != nil {
			middleware.WriteError(resp, http.StatusBadRequest, err.Error())
			return
		}
	}

	h.runSearch(req, resp, query, engine.Options{
		Sources:    sources,
		MaxResults: body.MaxResults,
		Refresh:    body.Refresh,
	})
}

func (h *Handler) runSearch(req *restful.Request, resp *restful.Response, query string, opts engine.Options) {
	result, err := h.engine.Search(req.Request.Context(), query, opts)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrEmptyQuery):
			middleware.WriteError(resp, http.StatusBadRequest, "query must not be empty")
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			middleware.WriteError(resp, http.StatusGatewayTimeout, "search timed out")
		default:
			h.logger.Error("search_failed",
				slog.String("query", query),
				slog.Any("error", dverrors.FormatForLog(err)))
			middleware.WriteError(resp, http.StatusInternalServerError, "search failed")
		}
		return
	}

	_ = resp.WriteHeaderAndEntity(http.StatusOK, searchResponse(result))
}

// GET /api/v1/trending
func (h *Handler) Trending(req *restful.Request, resp *restful.Response) {
	result, err := h.engine.Trending(req.Request.Context())
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrTrendingUnavailable):
			middleware.WriteError(resp, http.StatusServiceUnavailable, "trending is not configured")
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			middleware.WriteError(resp, http.StatusGatewayTimeout, "trending timed out")
		default:
			h.logger.Error("trending_failed", slog.Any("error", dverrors.FormatForLog(err)))
			middleware.WriteError(resp, http.StatusInternalServerError, "trending failed")
		}
		return
	}

	_ = resp.WriteHeaderAndEntity(http.StatusOK, trendingResponse(result))
}

// GET /api/v1/health
func (h *Handler) Health(req *restful.Request, resp *restful.Response) {
	_ = resp.WriteHeaderAndEntity(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Version:   h.version,
		Timestamp: time.Now().UTC(),
	})
}

// GET /api/v1/stats
func (h *Handler) Stats(req *restful.Request, resp *restful.Response) {
	if h.metrics == nil {
		middleware.WriteError(resp, http.StatusServiceUnavailable, "telemetry is not enabled")
		return
	}
	_ = resp.WriteHeaderAndEntity(http.StatusOK, h.metrics.Snapshot())
}

// validateQuery trims the raw query and enforces the length bounds. The
// bounds count runes, not bytes, so multi-byte input is not over-rejected.
func validateQuery(raw string) (string, error) {
	query := strings.TrimSpace(raw)
	switch n := utf8.RuneCountInString(query); {
	case n < model.QueryMinLength:
		return "", fmt.Errorf("query must be at least %d characters", model.QueryMinLength)
	case n > model.QueryMaxLength:
		return "", fmt.Errorf("query must be at most %d characters", model.QueryMaxLength)
	}
	return query, nil
}

func validateLimit(limit int) error {
	if limit < 1 || limit > engine.MaxResultsLimit {
		return fmt.Errorf("limit must be between 1 and %d", engine.MaxResultsLimit)
	}
	return nil
}

func parseSources(names []string) ([]model.Source, error) {
	var sources []model.Source
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		source := model.Source(trimmed)
		if !source.Valid() {
			return nil, fmt.Errorf("unknown source %q", trimmed)
		}
		sources = append(sources, source)
	}
	return sources, nil
}
