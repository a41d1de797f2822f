package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/devseek/devseek/internal/model"
)

// ============================================================================
// Text analysis
// ============================================================================

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		label  model.SentimentLabel
		reason string
	}{
		{
			name:   "two negative phrases read negative",
			text:   "this is broken and deprecated, don't use",
			label:  model.SentimentNegative,
			reason: "Community concerns: broken, deprecated, don't use",
		},
		{
			name:   "single negative phrase reads mixed",
			text:   "the docs are terrible",
			label:  model.SentimentMixed,
			reason: "Mixed feedback: terrible",
		},
		{
			name:   "single negative with a positive cancels to neutral",
			text:   "terrible docs but works great overall",
			label:  model.SentimentNeutral,
			reason: "",
		},
		{
			name:   "two positive phrases read positive",
			text:   "works great, highly recommend",
			label:  model.SentimentPositive,
			reason: "",
		},
		{
			name:   "one positive phrase is not enough",
			text:   "probably the best option",
			label:  model.SentimentNeutral,
			reason: "",
		},
		{
			name:   "plain text reads neutral",
			text:   "how do I configure the connection pool?",
			label:  model.SentimentNeutral,
			reason: "",
		},
		{
			name:   "empty text reads neutral",
			text:   "",
			label:  model.SentimentNeutral,
			reason: "",
		},
		{
			name:   "matching is case-insensitive",
			text:   "BROKEN and USELESS",
			label:  model.SentimentNegative,
			reason: "Community concerns: broken, useless",
		},
		{
			name:   "contractions match without the apostrophe",
			text:   "it doesnt work anymore and the repo is abandoned",
			label:  model.SentimentNegative,
			reason: "Community concerns: doesnt work, abandoned",
		},
		{
			name:   "buggy counts but a bug report does not",
			text:   "found a bug in the parser",
			label:  model.SentimentNeutral,
			reason: "",
		},
		{
			name:   "buggy reads mixed",
			text:   "the ui is really buggy",
			label:  model.SentimentMixed,
			reason: "Mixed feedback: buggy",
		},
		{
			name:   "repeating one phrase counts once",
			text:   "broken broken broken",
			label:  model.SentimentMixed,
			reason: "Mixed feedback: broken",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, reason := Analyze(tt.text)
			assert.Equal(t, tt.label, label)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestAnalyze_ReportsAtMostThreeConcerns(t *testing.T) {
	label, reason := Analyze("broken garbage, terrible and horrible, useless")

	assert.Equal(t, model.SentimentNegative, label)
	// Concerns are reported in detection order, capped at three.
	assert.Equal(t, "Community concerns: broken, terrible, horrible", reason)
}

// ============================================================================
// Thread analysis
// ============================================================================

func TestAnalyzeThread(t *testing.T) {
	t.Run("concerns accumulate across comments", func(t *testing.T) {
		label, warning, reason := AnalyzeThread([]string{
			"it's broken for me",
			"yeah the project is abandoned",
		})

		assert.Equal(t, model.SentimentNegative, label)
		assert.True(t, warning)
		assert.Equal(t, "Community concerns: broken, abandoned", reason)
	})

	t.Run("mixed thread still warns", func(t *testing.T) {
		label, warning, reason := AnalyzeThread([]string{"kind of useless imho"})

		assert.Equal(t, model.SentimentMixed, label)
		assert.True(t, warning)
		assert.Equal(t, "Mixed feedback: useless", reason)
	})

	t.Run("positive thread does not warn", func(t *testing.T) {
		label, warning, reason := AnalyzeThread([]string{
			"works great for my use case",
			"highly recommend it",
		})

		assert.Equal(t, model.SentimentPositive, label)
		assert.False(t, warning)
		assert.Empty(t, reason)
	})

	t.Run("no comments reads neutral", func(t *testing.T) {
		label, warning, reason := AnalyzeThread(nil)

		assert.Equal(t, model.SentimentNeutral, label)
		assert.False(t, warning)
		assert.Empty(t, reason)
	})
}

// ============================================================================
// Benchmarks
// ============================================================================

func BenchmarkAnalyze(b *testing.B) {
	text := "the library worked at first but now it doesn't work, the docs are " +
		"terrible and the maintainers say it is deprecated, total waste of time"
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Analyze(text)
	}
}
