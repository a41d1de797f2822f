// Package rewrite turns one user query into per-source search queries, and
// synthesizes a short narrative verdict over the fetched results. Both
// concerns have a rule-based implementation and an optional local-LLM one.
package rewrite

import (
	"context"
	"strings"

	"github.com/devseek/devseek/internal/model"
)

// Queries holds the per-source search strings derived from one user query.
type Queries struct {
	// CodeHost is the query sent to the code-hosting search.
	CodeHost string

	// ModelHub is the query sent to the model-hub search.
	ModelHub string

	// Discussion is the query sent to the discussion-forum search.
	Discussion string

	// Reasoning is a one-line note on how the queries were derived.
	Reasoning string
}

// Rewriter derives per-source search queries from one user query.
type Rewriter interface {
	Rewrite(ctx context.Context, query string, category model.IntentCategory) (Queries, error)
}

// Synthesizer produces a short narrative verdict over fetched results.
type Synthesizer interface {
	Synthesize(ctx context.Context, query string,
		repos []*model.CodeRepo, cards []*model.ModelCard, threads []*model.DiscussionThread) (string, error)
}

// normalizeQuery normalizes a query for cache keying.
func normalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}
