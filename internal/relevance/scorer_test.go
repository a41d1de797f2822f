package relevance

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/devseek/devseek/internal/intent"
)

func TestSemanticRelevance_EmptyText(t *testing.T) {
	sig := intent.Extract("build a rest api")
	assert.Zero(t, semanticRelevance("", sig))
}

func TestSemanticRelevance_PhraseScoring(t *testing.T) {
	sig := intent.Extract("build a rest api")

	// All five phrase windows hit (45+30+45+30+30), the action verb "build"
	// adds 5, the bag words "build" and "rest" add 2 each ("a" and "api" are
	// below the length floor), and three density hits trigger the strong
	// multiplier: (180 + 5 + 4) * 1.5.
	got := semanticRelevance("build a rest api server", sig)
	assert.InDelta(t, 283.5, got, 1e-9)
}

func TestSemanticRelevance_PartialPhraseMatch(t *testing.T) {
	sig := intent.Extract("build a rest api")

	// Only the trailing bigram hits (30) plus the bag word "rest" (2);
	// density stays below the multiplier thresholds.
	got := semanticRelevance("rest api", sig)
	assert.InDelta(t, 32.0, got, 1e-9)
}

func TestSemanticRelevance_TechnologyRepeatBonus(t *testing.T) {
	sig := intent.Extract("react hooks")

	// Phrase hit 30, tech hit 12 plus 3 per repeat beyond the first (x3
	// occurrences), bag words 4, then the good-density multiplier:
	// (30 + 18 + 4) * 1.3.
	got := semanticRelevance("react hooks and more react patterns with react", sig)
	assert.InDelta(t, 67.6, got, 1e-9)
}

func TestSemanticRelevance_DensityMultiplier(t *testing.T) {
	sig := intent.Extract("train a pytorch model")

	sparse := semanticRelevance("generic deep learning toolkit", sig)
	dense := semanticRelevance("train a pytorch model end to end", sig)

	assert.Greater(t, dense, sparse)
}

func TestStepMultiplier(t *testing.T) {
	steps := []boostStep{{1000, 1.6}, {500, 1.5}, {100, 1.3}}

	tests := []struct {
		name  string
		value float64
		want  float64
	}{
		{"below all steps", 50, 1.0},
		{"boundary is exclusive", 100, 1.0},
		{"first band", 101, 1.3},
		{"middle band", 600, 1.5},
		{"top band", 5000, 1.6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, stepMultiplier(tt.value, steps), 1e-9)
		})
	}
}
