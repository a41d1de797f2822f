package engine

import (
	"time"

	"github.com/devseek/devseek/internal/fetch"
	"github.com/devseek/devseek/internal/model"
	"github.com/devseek/devseek/internal/rewrite"
)

// Merged result list bounds.
const (
	DefaultMaxResults = 30
	MaxResultsLimit   = 100
)

// TrendingPerSource caps how many records each source contributes to a
// trending snapshot.
const TrendingPerSource = 6

// Options control one search request.
type Options struct {
	// Sources restricts the response to the given sources. Empty means all
	// three. Excluded sources are still fetched; their results, failures,
	// and synthesis contribution are dropped before ranking.
	Sources []model.Source

	// MaxResults caps the merged result list. Non-positive selects
	// DefaultMaxResults; values above MaxResultsLimit are clamped.
	MaxResults int

	// Refresh bypasses the cache read and overwrites the cached entry with
	// the fresh response.
	Refresh bool
}

// applyDefaults resolves zero values to the documented defaults.
func applyDefaults(opts Options) Options {
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultMaxResults
	}
	if opts.MaxResults > MaxResultsLimit {
		opts.MaxResults = MaxResultsLimit
	}
	if len(opts.Sources) == 0 {
		opts.Sources = model.Sources
	}
	return opts
}

// Response is one answered search request. It is also the unit the cache
// stores, so everything needed to replay the answer lives here.
type Response struct {
	// RequestID identifies the request in logs. Reassigned on cache hits.
	RequestID string

	// Query is the trimmed user query.
	Query string

	// Intent is the classified intent category.
	Intent model.IntentCategory

	// Weights is the source weight distribution the merge used.
	Weights model.SourceWeights

	// Queries are the per-source rewritten search strings.
	Queries rewrite.Queries

	// Results is the merged, globally ranked list.
	Results []model.RankedResult

	// Synthesis is the narrative verdict over the results.
	Synthesis string

	// SourceErrors lists the sources that failed, phrased for end users.
	SourceErrors []fetch.SourceError

	// Cached reports whether this response was served from the cache.
	Cached bool

	// Duration is the time spent answering this request. On a cache hit it
	// is the lookup time, not the original pipeline time.
	Duration time.Duration

	// Timestamp is when the pipeline produced the response. Preserved on
	// cache hits so callers can tell how old the data is.
	Timestamp time.Time
}

// TrendingResponse is a per-source snapshot of what is currently popular.
// Fields mirror Response where they overlap.
type TrendingResponse struct {
	RequestID    string
	Repos        []*model.CodeRepo
	Cards        []*model.ModelCard
	Threads      []*model.DiscussionThread
	Synthesis    string
	SourceErrors []fetch.SourceError
	Cached       bool
	Duration     time.Duration
	Timestamp    time.Time
}

func capList[T any](list []T, n int) []T {
	if len(list) > n {
		return list[:n]
	}
	return list
}
