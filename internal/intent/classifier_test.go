package intent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devseek/devseek/internal/model"
)

// =============================================================================
// WeightsForIntent Tests
// =============================================================================

func TestWeightsForIntent(t *testing.T) {
	tests := []struct {
		name           string
		category       model.IntentCategory
		wantCodeHost   float64
		wantModelHub   float64
		wantDiscussion float64
	}{
		{"project search favors code hosts", model.IntentProjectSearch, 0.7, 0.1, 0.2},
		{"how-to favors discussions", model.IntentHowTo, 0.3, 0.1, 0.6},
		{"recommendation favors discussions", model.IntentRecommendation, 0.25, 0.15, 0.6},
		{"comparison splits code and discussions", model.IntentComparison, 0.3, 0.2, 0.5},
		{"troubleshooting favors discussions heavily", model.IntentTroubleshooting, 0.2, 0.1, 0.7},
		{"model search favors the model hub", model.IntentModelSearch, 0.2, 0.7, 0.1},
		{"general balances code and discussions", model.IntentGeneral, 0.4, 0.2, 0.4},
		{"unknown category defaults to general", model.IntentCategory("nonsense"), 0.4, 0.2, 0.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			weights := WeightsForIntent(tt.category)
			assert.InDelta(t, tt.wantCodeHost, weights.CodeHost, 0.001)
			assert.InDelta(t, tt.wantModelHub, weights.ModelHub, 0.001)
			assert.InDelta(t, tt.wantDiscussion, weights.Discussion, 0.001)
		})
	}
}

func TestWeightsForIntent_EveryCategorySumsToOne(t *testing.T) {
	for _, cat := range model.IntentCategories {
		t.Run(string(cat), func(t *testing.T) {
			assert.InDelta(t, 1.0, WeightsForIntent(cat).Sum(), 1e-9)
		})
	}
}

// =============================================================================
// PatternClassifier Tests
// =============================================================================

func TestPatternClassifier_Categories(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  model.IntentCategory
	}{
		{"template hunt", "find an open-source dashboard template on github", model.IntentProjectSearch},
		{"existence question", "is there a rust implementation of raft", model.IntentProjectSearch},
		{"how to", "how to deploy a flask app", model.IntentHowTo},
		{"learning", "learn to set up kubernetes", model.IntentHowTo},
		{"best of", "best python library for web scraping", model.IntentRecommendation},
		{"difference", "difference between redis and memcached", model.IntentComparison},
		{"versus", "compare tensorflow versus pytorch", model.IntentComparison},
		{"broken install", "how to fix npm install error", model.IntentTroubleshooting},
		{"not working", "why is my docker container not working", model.IntentTroubleshooting},
		{"named model", "best llama model for summarization", model.IntentModelSearch},
		{"pretrained", "pretrained bert for sentiment", model.IntentModelSearch},
	}

	classifier := NewPatternClassifier()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, weights, err := classifier.Classify(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cat)
			assert.Equal(t, WeightsForIntent(tt.want), weights)
		})
	}
}

func TestPatternClassifier_GeneralFallback(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"no signals", "purple elephant parade"},
		{"off-topic", "weather in tokyo"},
		{"empty", ""},
		{"whitespace only", "   "},
	}

	classifier := NewPatternClassifier()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, weights, err := classifier.Classify(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Equal(t, model.IntentGeneral, cat)
			assert.InDelta(t, 0.4, weights.CodeHost, 0.001)
			assert.InDelta(t, 0.2, weights.ModelHub, 0.001)
			assert.InDelta(t, 0.4, weights.Discussion, 0.001)
		})
	}
}

// Ties go to the category listed first. "postgres vs mysql" matches one
// recommendation pattern and one comparison pattern; recommendation is
// listed earlier and wins.
func TestPatternClassifier_TiePriority(t *testing.T) {
	classifier := NewPatternClassifier()

	cat, _, err := classifier.Classify(context.Background(), "postgres vs mysql")
	require.NoError(t, err)
	assert.Equal(t, model.IntentRecommendation, cat)
}

// "recommendation system" must not trip the recommendation category: its
// patterns match whole words, and the higher how-to score wins regardless.
func TestPatternClassifier_HowToBeatsRecommendationVocabulary(t *testing.T) {
	classifier := NewPatternClassifier()

	cat, weights, err := classifier.Classify(context.Background(), "how to build a recommendation system in python")
	require.NoError(t, err)
	assert.Equal(t, model.IntentHowTo, cat)
	assert.Equal(t, WeightsForIntent(model.IntentHowTo), weights)
}

func TestPatternClassifier_CachesNormalizedQuery(t *testing.T) {
	classifier := NewPatternClassifier()

	first, _, err := classifier.Classify(context.Background(), "  Best Python Library  ")
	require.NoError(t, err)

	assert.True(t, classifier.cache.Contains("best python library"))

	second, _, err := classifier.Classify(context.Background(), "best python library")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPatternClassifier_Reload(t *testing.T) {
	classifier := NewPatternClassifier()

	cat, _, err := classifier.Classify(context.Background(), "zorp")
	require.NoError(t, err)
	require.Equal(t, model.IntentGeneral, cat)

	err = classifier.Reload(PatternSet{
		Version: "2",
		Categories: []CategoryRules{
			{Category: model.IntentTroubleshooting, Patterns: []string{`\bzorp\b`}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "2", classifier.Version())

	cat, _, err = classifier.Classify(context.Background(), "zorp")
	require.NoError(t, err)
	assert.Equal(t, model.IntentTroubleshooting, cat)
}

func TestPatternClassifier_ReloadKeepsOldSetOnError(t *testing.T) {
	classifier := NewPatternClassifier()

	err := classifier.Reload(PatternSet{
		Version: "bad",
		Categories: []CategoryRules{
			{Category: model.IntentHowTo, Patterns: []string{`[`}},
		},
	})
	require.Error(t, err)

	assert.Equal(t, "1", classifier.Version())

	cat, _, err := classifier.Classify(context.Background(), "how to deploy a flask app")
	require.NoError(t, err)
	assert.Equal(t, model.IntentHowTo, cat)
}

func TestNewPatternClassifierWithSet_RejectsInvalid(t *testing.T) {
	_, err := NewPatternClassifierWithSet(PatternSet{
		Categories: []CategoryRules{
			{Category: model.IntentCategory("nonsense"), Patterns: []string{`x`}},
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown intent category")
}

// =============================================================================
// Weight Override Tests
// =============================================================================

func TestPatternClassifier_SetWeightOverrides(t *testing.T) {
	classifier := NewPatternClassifier()
	custom := model.SourceWeights{CodeHost: 0.1, ModelHub: 0.1, Discussion: 0.8}

	err := classifier.SetWeightOverrides(map[model.IntentCategory]model.SourceWeights{
		model.IntentHowTo: custom,
	})
	require.NoError(t, err)

	cat, weights, err := classifier.Classify(context.Background(), "how to deploy a flask app")
	require.NoError(t, err)
	require.Equal(t, model.IntentHowTo, cat)
	assert.Equal(t, custom, weights)

	// Categories without an override keep the built-in row.
	cat, weights, err = classifier.Classify(context.Background(), "bert sentiment model")
	require.NoError(t, err)
	require.Equal(t, model.IntentModelSearch, cat)
	assert.Equal(t, WeightsForIntent(model.IntentModelSearch), weights)

	// Nil restores the built-in table.
	require.NoError(t, classifier.SetWeightOverrides(nil))
	_, weights, err = classifier.Classify(context.Background(), "how to deploy a flask app")
	require.NoError(t, err)
	assert.Equal(t, WeightsForIntent(model.IntentHowTo), weights)
}

func TestPatternClassifier_SetWeightOverrides_FlushesCache(t *testing.T) {
	classifier := NewPatternClassifier()

	_, before, err := classifier.Classify(context.Background(), "how to deploy a flask app")
	require.NoError(t, err)
	require.Equal(t, WeightsForIntent(model.IntentHowTo), before)

	custom := model.SourceWeights{CodeHost: 0.5, ModelHub: 0.25, Discussion: 0.25}
	require.NoError(t, classifier.SetWeightOverrides(map[model.IntentCategory]model.SourceWeights{
		model.IntentHowTo: custom,
	}))

	// The cached entry embedded the old weights and must not survive.
	_, after, err := classifier.Classify(context.Background(), "how to deploy a flask app")
	require.NoError(t, err)
	assert.Equal(t, custom, after)
}

func TestPatternClassifier_SetWeightOverrides_RejectsInvalid(t *testing.T) {
	classifier := NewPatternClassifier()

	err := classifier.SetWeightOverrides(map[model.IntentCategory]model.SourceWeights{
		model.IntentCategory("nonsense"): {CodeHost: 0.4, ModelHub: 0.2, Discussion: 0.4},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown intent category")

	err = classifier.SetWeightOverrides(map[model.IntentCategory]model.SourceWeights{
		model.IntentHowTo: {CodeHost: 0.5, ModelHub: 0.5, Discussion: 0.5},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want 1.0")
}

func TestPatternClassifier_OverridesSurvivePatternReload(t *testing.T) {
	classifier := NewPatternClassifier()
	custom := model.SourceWeights{CodeHost: 0.2, ModelHub: 0.2, Discussion: 0.6}

	require.NoError(t, classifier.SetWeightOverrides(map[model.IntentCategory]model.SourceWeights{
		model.IntentTroubleshooting: custom,
	}))
	require.NoError(t, classifier.Reload(PatternSet{
		Version: "2",
		Categories: []CategoryRules{
			{Category: model.IntentTroubleshooting, Patterns: []string{`\bzorp\b`}},
		},
	}))

	cat, weights, err := classifier.Classify(context.Background(), "zorp")
	require.NoError(t, err)
	require.Equal(t, model.IntentTroubleshooting, cat)
	assert.Equal(t, custom, weights)
}

// =============================================================================
// Benchmarks
// =============================================================================

func BenchmarkPatternClassifier_Classify(b *testing.B) {
	classifier := NewPatternClassifier()
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = classifier.Classify(ctx, "how to build a recommendation system in python")
	}
}

func BenchmarkPatternClassifier_ClassifyUncached(b *testing.B) {
	classifier := NewPatternClassifier()
	rules, _, _ := classifier.snapshot()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = classifyQuery(rules, "how to build a recommendation system in python")
	}
}
