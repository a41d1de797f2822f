package relevance

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/devseek/devseek/internal/intent"
	"github.com/devseek/devseek/internal/model"
)

// Field weights and bonuses for model cards. The pipeline tag is the curated
// signal here and carries the highest field weight; an exact task hit inside
// it is close to a guaranteed answer.
const (
	hubTitleWeight      = 8.0
	hubDescWeight       = 12.0
	hubPipelineWeight   = 20.0
	hubMultiPhraseBonus = 25.0
	hubTaskAlignBonus   = 30.0
	hubHolisticBoost    = 1.8
	hubDownloadLogScale = 1.5
	hubLikeLogScale     = 1.0
	hubDemoBoost        = 1.5
	hubEmptyPenalty     = 0.7
)

var hubDownloadSteps = []boostStep{
	{1000000, 1.6},
	{100000, 1.5},
	{10000, 1.3},
	{1000, 1.2},
}

var hubLikeSteps = []boostStep{
	{500, 1.3},
	{100, 1.2},
}

// ModelHubScorer scores model card records. Model cards expose no usable
// timestamp, so there is no recency step.
type ModelHubScorer struct{}

func (ModelHubScorer) Score(rec model.SourceRecord, sig intent.Signals, _ time.Time) (float64, error) {
	card := rec.Model
	if rec.Source != model.SourceModelHub || card == nil {
		return 0, fmt.Errorf("model hub scorer: record has source %q", rec.Source)
	}

	score := semanticRelevance(card.Title, sig) * hubTitleWeight
	if strings.Contains(strings.ToLower(card.Title), sig.Original) {
		score += wholeQueryBonus
	}

	if card.Description != "" {
		score += semanticRelevance(card.Description, sig) * hubDescWeight
		if topPhraseMatches(strings.ToLower(card.Description), sig.Phrases, phraseMatchWindow) >= multiPhraseThreshold {
			score += hubMultiPhraseBonus
		}
	}

	if card.PipelineTag != "" {
		// Pipeline tags are dash-joined ("text-classification"); match them
		// as words.
		score += semanticRelevance(strings.ReplaceAll(card.PipelineTag, "-", " "), sig) * hubPipelineWeight

		tagLower := strings.ToLower(card.PipelineTag)
		for _, task := range sig.Tasks {
			if strings.Contains(tagLower, task) {
				score += hubTaskAlignBonus
			}
		}
	}

	allContent := strings.ToLower(card.Title + " " + card.Description + " " + card.PipelineTag)
	unique := 0
	if anyContained(allContent, sig.Tasks) {
		unique++
	}
	if anyContained(allContent, sig.Technologies) {
		unique++
	}
	if unique >= 2 {
		score *= hubHolisticBoost
	}

	if card.Downloads > 0 {
		score += math.Log10(float64(card.Downloads)+1) * hubDownloadLogScale
		score *= stepMultiplier(float64(card.Downloads), hubDownloadSteps)
	}

	if card.Likes > 0 {
		score += math.Log10(float64(card.Likes)+1) * hubLikeLogScale
		score *= stepMultiplier(float64(card.Likes), hubLikeSteps)
	}

	if card.HasDemo {
		score *= hubDemoBoost
	}

	if card.Description == "" {
		score *= hubEmptyPenalty
	}

	return score, nil
}
