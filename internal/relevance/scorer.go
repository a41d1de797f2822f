// Package relevance scores source records against a query and orders each
// source's results by that score. All three source scorers share one additive
// signal algebra; they differ in which record fields feed it and in the
// quality, recency and penalty multipliers layered on top.
package relevance

import (
	"strings"
	"time"

	"github.com/devseek/devseek/internal/intent"
	"github.com/devseek/devseek/internal/model"
)

// Additive signal scores shared by every source scorer. Phrase hits dominate,
// vocabulary hits follow, loose word overlap trails.
const (
	// phraseWordScore is earned per word of a matched multi-word phrase, so
	// a trigram hit outscores a bigram hit.
	phraseWordScore = 15.0

	// wholeQueryBonus is the flat bonus for the entire query appearing
	// verbatim in a record's title.
	wholeQueryBonus = 30.0

	techScore       = 12.0
	techRepeatScore = 3.0
	languageScore   = 10.0
	taskScore       = 10.0
	actionScore     = 5.0
	bagWordScore    = 2.0

	// minBagWordLen filters connective noise out of bag-of-words matching.
	minBagWordLen = 4
)

// Context-density multipliers reward text that hits several distinct signal
// kinds at once rather than one lucky keyword.
const (
	densityPhraseWindow     = 3
	densityStrongThreshold  = 3
	densityStrongMultiplier = 1.5
	densityGoodThreshold    = 2
	densityGoodMultiplier   = 1.3
)

// Multi-phrase bonuses fire when at least multiPhraseThreshold of the
// leading phraseMatchWindow phrases appear in one field.
const (
	phraseMatchWindow    = 5
	multiPhraseThreshold = 2
)

// Scorer rates one record against the extracted query signals. now anchors
// recency decay so one ranking pass sees a single consistent clock.
type Scorer interface {
	Score(rec model.SourceRecord, sig intent.Signals, now time.Time) (float64, error)
}

// semanticRelevance is the shared additive algebra. It scores how strongly a
// block of text matches the query signals and applies the context-density
// multiplier. Empty text scores zero.
func semanticRelevance(text string, sig intent.Signals) float64 {
	if text == "" {
		return 0
	}
	lower := strings.ToLower(text)

	score := 0.0

	for _, phrase := range sig.Phrases {
		if strings.Contains(lower, phrase) {
			score += float64(len(strings.Fields(phrase))) * phraseWordScore
		}
	}

	for _, tech := range sig.Technologies {
		if n := strings.Count(lower, tech); n > 0 {
			score += techScore
			if n > 1 {
				score += float64(n-1) * techRepeatScore
			}
		}
	}

	for _, lang := range sig.Languages {
		if strings.Contains(lower, lang) {
			score += languageScore
		}
	}

	for _, task := range sig.Tasks {
		if strings.Contains(lower, task) {
			score += taskScore
		}
	}

	for _, action := range sig.Actions {
		if strings.Contains(lower, action) {
			score += actionScore
		}
	}

	matched := 0
	for _, word := range sig.Words {
		if len(word) >= minBagWordLen && strings.Contains(lower, word) {
			matched++
		}
	}
	score += float64(matched) * bagWordScore

	density := topPhraseMatches(lower, sig.Phrases, densityPhraseWindow)
	density += countContained(lower, sig.Technologies)

	switch {
	case density >= densityStrongThreshold:
		score *= densityStrongMultiplier
	case density >= densityGoodThreshold:
		score *= densityGoodMultiplier
	}

	return score
}

// topPhraseMatches counts how many of the first n phrases occur in the
// lowercased text.
func topPhraseMatches(lower string, phrases []string, n int) int {
	if len(phrases) > n {
		phrases = phrases[:n]
	}
	matches := 0
	for _, phrase := range phrases {
		if strings.Contains(lower, phrase) {
			matches++
		}
	}
	return matches
}

// countContained counts the terms occurring in the lowercased text.
func countContained(lower string, terms []string) int {
	count := 0
	for _, term := range terms {
		if strings.Contains(lower, term) {
			count++
		}
	}
	return count
}

// anyContained reports whether any term occurs in the lowercased text.
func anyContained(lower string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// containsTerm reports exact membership of term in terms.
func containsTerm(terms []string, term string) bool {
	for _, t := range terms {
		if t == term {
			return true
		}
	}
	return false
}

// boostStep maps a popularity threshold to a multiplier. Steps are listed
// highest threshold first; the first exceeded step wins.
type boostStep struct {
	above float64
	mult  float64
}

// stepMultiplier returns the multiplier of the first step the value exceeds,
// or 1.0 when none apply.
func stepMultiplier(value float64, steps []boostStep) float64 {
	for _, s := range steps {
		if value > s.above {
			return s.mult
		}
	}
	return 1.0
}
