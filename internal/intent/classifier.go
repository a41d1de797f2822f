package intent

import (
	"context"
	"fmt"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/devseek/devseek/internal/model"
)

// DefaultCacheSize is the LRU cache size for classification results.
// Entries are tiny (normalized query string plus two small values), so a
// large cache is cheap and keeps repeat queries off the regex path.
const DefaultCacheSize = 10000

// Classifier maps a raw query to its primary intent and the source weights
// that intent implies.
type Classifier interface {
	Classify(ctx context.Context, query string) (model.IntentCategory, model.SourceWeights, error)
}

// classification holds cached classifier output.
type classification struct {
	category model.IntentCategory
	weights  model.SourceWeights
}

// PatternClassifier scores each category as the count of its patterns that
// match the query and picks the highest scorer. A zero maximum falls back to
// the general category. Results are cached in an LRU keyed by the normalized
// query; Reload swaps rules and cache together so a classification computed
// against old rules can never be cached past the reload.
type PatternClassifier struct {
	mu        sync.RWMutex
	rules     *ruleSet
	overrides map[model.IntentCategory]model.SourceWeights
	cache     *lru.Cache[string, classification]
	cacheSize int
}

// NewPatternClassifier creates a classifier over the built-in pattern set.
func NewPatternClassifier() *PatternClassifier {
	return newClassifier(mustCompile(DefaultPatternSet()), DefaultCacheSize)
}

// NewPatternClassifierWithSet creates a classifier over a custom pattern set.
func NewPatternClassifierWithSet(set PatternSet) (*PatternClassifier, error) {
	rules, err := set.compile()
	if err != nil {
		return nil, err
	}
	return newClassifier(rules, DefaultCacheSize), nil
}

func newClassifier(rules *ruleSet, cacheSize int) *PatternClassifier {
	cache, _ := lru.New[string, classification](cacheSize)
	return &PatternClassifier{rules: rules, cache: cache, cacheSize: cacheSize}
}

// Classify determines the primary intent and its source weights.
// Returns (category, weights, nil) - never returns an error.
func (c *PatternClassifier) Classify(_ context.Context, query string) (model.IntentCategory, model.SourceWeights, error) {
	rules, overrides, cache := c.snapshot()

	key := normalizeQuery(query)
	if key == "" {
		return model.IntentGeneral, lookupWeights(overrides, model.IntentGeneral), nil
	}

	if hit, ok := cache.Get(key); ok {
		return hit.category, hit.weights, nil
	}

	cat := classifyQuery(rules, key)
	weights := lookupWeights(overrides, cat)
	cache.Add(key, classification{category: cat, weights: weights})
	return cat, weights, nil
}

// lookupWeights resolves a category through the override table, falling back
// to the built-in weights.
func lookupWeights(overrides map[model.IntentCategory]model.SourceWeights, cat model.IntentCategory) model.SourceWeights {
	if w, ok := overrides[cat]; ok {
		return w
	}
	return WeightsForIntent(cat)
}

// classifyQuery scores every category and returns the best one. Categories
// are evaluated in priority order, so a strict comparison resolves ties in
// favor of the earlier category.
func classifyQuery(rules *ruleSet, query string) model.IntentCategory {
	best := model.IntentGeneral
	bestScore := 0

	for _, cm := range rules.rules {
		score := 0
		for _, re := range cm.patterns {
			if re.MatchString(query) {
				score++
			}
		}
		if score > bestScore {
			best = cm.category
			bestScore = score
		}
	}

	return best
}

// Reload swaps in a new pattern set together with a fresh cache. The
// previous set stays active if the new one fails to compile. Weight
// overrides survive a pattern reload; the two are tuned independently.
func (c *PatternClassifier) Reload(set PatternSet) error {
	rules, err := set.compile()
	if err != nil {
		return err
	}
	cache, _ := lru.New[string, classification](c.cacheSize)

	c.mu.Lock()
	c.rules = rules
	c.cache = cache
	c.mu.Unlock()
	return nil
}

// SetWeightOverrides replaces the per-category weight rows consulted before
// the built-in table. Every row must name a known category and sum to 1.0.
// A nil table restores the built-in weights. Cached classifications embed
// weights, so the cache is flushed together with the swap.
func (c *PatternClassifier) SetWeightOverrides(table map[model.IntentCategory]model.SourceWeights) error {
	var overrides map[model.IntentCategory]model.SourceWeights
	if len(table) > 0 {
		overrides = make(map[model.IntentCategory]model.SourceWeights, len(table))
		for cat, row := range table {
			if !cat.Valid() {
				return fmt.Errorf("unknown intent category %q", cat)
			}
			if !row.Normalized() {
				return fmt.Errorf("weights for %s sum to %v, want 1.0", cat, row.Sum())
			}
			overrides[cat] = row
		}
	}
	cache, _ := lru.New[string, classification](c.cacheSize)

	c.mu.Lock()
	c.overrides = overrides
	c.cache = cache
	c.mu.Unlock()
	return nil
}

// Version reports the revision of the active pattern set.
func (c *PatternClassifier) Version() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rules.version
}

func (c *PatternClassifier) snapshot() (*ruleSet, map[model.IntentCategory]model.SourceWeights, *lru.Cache[string, classification]) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rules, c.overrides, c.cache
}

// normalizeQuery normalizes a query for matching and cache keys.
func normalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// Ensure PatternClassifier implements Classifier interface.
var _ Classifier = (*PatternClassifier)(nil)
