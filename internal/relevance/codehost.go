package relevance

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/devseek/devseek/internal/intent"
	"github.com/devseek/devseek/internal/model"
)

// Field weights and bonuses for code repositories. Curated topics carry the
// highest field weight: they are the least noisy signal a repository exposes.
const (
	codeTitleWeight      = 8.0
	codeDescWeight       = 10.0
	codeReadmeWeight     = 12.0
	codeTopicsWeight     = 15.0
	codeMultiPhraseBonus = 25.0
	codeImplMatchScore   = 8.0
	codeTopicTermBonus   = 20.0
	codeLanguageBonus    = 15.0
	codeStarLogScale     = 2.0
	codeEmptyPenalty     = 0.6
)

// codeStarSteps rewards flagship popularity without letting stars dominate
// relevance.
var codeStarSteps = []boostStep{
	{10000, 1.5},
	{5000, 1.4},
	{1000, 1.3},
	{500, 1.2},
}

// CodeHostScorer scores code repository records.
type CodeHostScorer struct{}

func (CodeHostScorer) Score(rec model.SourceRecord, sig intent.Signals, now time.Time) (float64, error) {
	repo := rec.Code
	if rec.Source != model.SourceCodeHost || repo == nil {
		return 0, fmt.Errorf("code host scorer: record has source %q", rec.Source)
	}

	score := semanticRelevance(repo.Title, sig) * codeTitleWeight
	if strings.Contains(strings.ToLower(repo.Title), sig.Original) {
		score += wholeQueryBonus
	}

	if repo.Description != "" {
		score += semanticRelevance(repo.Description, sig) * codeDescWeight
		if topPhraseMatches(strings.ToLower(repo.Description), sig.Phrases, phraseMatchWindow) >= multiPhraseThreshold {
			score += codeMultiPhraseBonus
		}
	}

	if repo.Readme != "" {
		score += semanticRelevance(repo.Readme, sig) * codeReadmeWeight

		readmeLower := strings.ToLower(repo.Readme)
		implMatches := countContained(readmeLower, sig.Technologies) +
			countContained(readmeLower, sig.Tasks) +
			countContained(readmeLower, sig.Languages)
		score += float64(implMatches) * codeImplMatchScore
	}

	if len(repo.Topics) > 0 {
		score += semanticRelevance(strings.Join(repo.Topics, " "), sig) * codeTopicsWeight

		for _, term := range sig.Technologies {
			if anyTopicContains(repo.Topics, term) {
				score += codeTopicTermBonus
			}
		}
		for _, term := range sig.Tasks {
			if anyTopicContains(repo.Topics, term) {
				score += codeTopicTermBonus
			}
		}
	}

	if repo.Language != "" && containsTerm(sig.Languages, strings.ToLower(repo.Language)) {
		score += codeLanguageBonus
	}

	allContent := strings.ToLower(repo.Title + " " + repo.Description + " " + repo.Readme + " " + strings.Join(repo.Topics, " "))
	unique := 0
	if anyContained(allContent, sig.Languages) {
		unique++
	}
	if anyContained(allContent, sig.Technologies) {
		unique++
	}
	if anyContained(allContent, sig.Tasks) {
		unique++
	}
	switch {
	case unique >= 3:
		score *= 2.0
	case unique >= 2:
		score *= 1.6
	}

	if repo.Stars > 0 {
		score += math.Log10(float64(repo.Stars)+1) * codeStarLogScale
		score *= stepMultiplier(float64(repo.Stars), codeStarSteps)
	}

	score *= lifecycleMultiplier(repo.Lifecycle)

	if !repo.LastActivity.IsZero() {
		ageDays := int(now.Sub(repo.LastActivity).Hours() / 24)
		score *= codeRecencyMultiplier(ageDays)
	}

	if repo.Description == "" && repo.Readme == "" {
		score *= codeEmptyPenalty
	}

	return score, nil
}

// anyTopicContains reports whether any topic contains the term.
func anyTopicContains(topics []string, term string) bool {
	for _, topic := range topics {
		if strings.Contains(strings.ToLower(topic), term) {
			return true
		}
	}
	return false
}

// lifecycleMultiplier encodes how heavily maintenance state gates relevance.
// A dead project is nearly filtered out no matter how well it matches.
func lifecycleMultiplier(status model.LifecycleStatus) float64 {
	switch status {
	case model.LifecycleActive:
		return 2.0
	case model.LifecycleMaintained:
		return 1.5
	case model.LifecycleStale:
		return 0.4
	case model.LifecycleAbandoned:
		return 0.1
	case model.LifecycleUnknown:
		return 0.7
	default:
		return 1.0
	}
}

// codeRecencyMultiplier rewards recently-pushed repositories. Code ages more
// gracefully than discussion threads, so the decay is gentler. The old-age
// penalty bands are ordered oldest first.
func codeRecencyMultiplier(ageDays int) float64 {
	switch {
	case ageDays < 3:
		return 3.0
	case ageDays < 7:
		return 2.5
	case ageDays < 14:
		return 2.2
	case ageDays < 30:
		return 2.0
	case ageDays < 60:
		return 1.7
	case ageDays < 90:
		return 1.5
	case ageDays < 180:
		return 1.3
	case ageDays < 365:
		return 1.1
	case ageDays > 1095:
		return 0.1
	case ageDays > 730:
		return 0.3
	default:
		return 1.0
	}
}
