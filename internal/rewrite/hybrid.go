package rewrite

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	dverrors "github.com/devseek/devseek/internal/errors"
	"github.com/devseek/devseek/internal/model"
)

// DefaultRewriteCacheSize bounds the per-process rewrite cache.
const DefaultRewriteCacheSize = 1024

// Hybrid tries the local LLM first and falls back to deterministic rules
// when the LLM is absent or misbehaving. Successful rewrites are cached by
// normalized query. Repeated LLM failures open a circuit breaker so a dead
// endpoint stops taxing every request.
type Hybrid struct {
	llm      *Ollama
	rules    *RuleBased
	template *Template
	cache    *lru.Cache[string, Queries]
	breaker  *dverrors.CircuitBreaker
}

var (
	_ Rewriter    = (*Hybrid)(nil)
	_ Synthesizer = (*Hybrid)(nil)
)

// NewHybrid creates a hybrid rewriter. llm may be nil, in which case every
// rewrite and synthesis is rule-based.
func NewHybrid(llm *Ollama) *Hybrid {
	cache, _ := lru.New[string, Queries](DefaultRewriteCacheSize)
	return &Hybrid{
		llm:      llm,
		rules:    NewRuleBased(),
		template: &Template{},
		cache:    cache,
		breaker:  dverrors.NewCircuitBreaker("rewrite-llm"),
	}
}

func (h *Hybrid) Rewrite(ctx context.Context, query string, category model.IntentCategory) (Queries, error) {
	key := normalizeQuery(query)
	if key == "" {
		return h.rules.Rewrite(ctx, query, category)
	}

	if cached, ok := h.cache.Get(key); ok {
		return cached, nil
	}

	if h.llm == nil {
		q, err := h.rules.Rewrite(ctx, query, category)
		if err == nil {
			h.cache.Add(key, q)
		}
		return q, err
	}

	q, err := dverrors.CircuitExecuteWithResult(h.breaker,
		func() (Queries, error) { return h.llm.Rewrite(ctx, query, category) },
		func() (Queries, error) { return h.rules.Rewrite(ctx, query, category) },
	)
	if err != nil {
		// Closed-state LLM failure: the breaker counted it, rules take over.
		q, err = h.rules.Rewrite(ctx, query, category)
	}
	if err == nil {
		h.cache.Add(key, q)
	}
	return q, err
}

func (h *Hybrid) Synthesize(ctx context.Context, query string,
	repos []*model.CodeRepo, cards []*model.ModelCard, threads []*model.DiscussionThread) (string, error) {

	if h.llm == nil {
		return h.template.Synthesize(ctx, query, repos, cards, threads)
	}

	verdict, err := dverrors.CircuitExecuteWithResult(h.breaker,
		func() (string, error) { return h.llm.Synthesize(ctx, query, repos, cards, threads) },
		func() (string, error) { return h.template.Synthesize(ctx, query, repos, cards, threads) },
	)
	if err != nil {
		return h.template.Synthesize(ctx, query, repos, cards, threads)
	}
	return verdict, nil
}
