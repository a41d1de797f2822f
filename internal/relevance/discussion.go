package relevance

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/devseek/devseek/internal/intent"
	"github.com/devseek/devseek/internal/model"
)

// Field weights and bonuses for discussion threads. Comments outweigh the
// post body: replies carry the community's actual answers.
const (
	discTitleWeight      = 8.0
	discBodyWeight       = 10.0
	discCommentsWeight   = 12.0
	discMultiPhraseBonus = 20.0
	discSolutionScore    = 8.0
	discCommentWindow    = 5
	discVoteLogScale     = 1.5
	discCommentLogScale  = 1.0
	discWarningPenalty   = 0.4
	discSentimentBonus   = 10.0
	discEmptyPenalty     = 0.6
)

var discVoteSteps = []boostStep{
	{1000, 1.6},
	{500, 1.5},
	{100, 1.3},
	{50, 1.2},
}

var discCommentSteps = []boostStep{
	{100, 1.3},
	{50, 1.2},
}

// sectionBoosts rewards tech-focused forum sections, matched by containment
// against the section name. The first match wins, so broader names listed
// earlier shadow longer ones ("programming" also catches "learnprogramming").
var sectionBoosts = []struct {
	name string
	mult float64
}{
	{"programming", 1.5}, {"machinelearning", 1.5}, {"deeplearning", 1.5},
	{"learnprogramming", 1.4}, {"artificial", 1.4}, {"python", 1.4},
	{"javascript", 1.4}, {"webdev", 1.4}, {"gamedev", 1.4},
	{"datascience", 1.5}, {"computervision", 1.5}, {"nlp", 1.5},
	{"opensource", 1.4}, {"coding", 1.3}, {"technology", 1.2},
	{"softwaredevelopment", 1.4}, {"rust", 1.4}, {"golang", 1.4},
	{"cpp", 1.4}, {"java", 1.4}, {"typescript", 1.4},
}

// DiscussionScorer scores discussion thread records.
type DiscussionScorer struct{}

func (DiscussionScorer) Score(rec model.SourceRecord, sig intent.Signals, now time.Time) (float64, error) {
	thread := rec.Discussion
	if rec.Source != model.SourceDiscussion || thread == nil {
		return 0, fmt.Errorf("discussion scorer: record has source %q", rec.Source)
	}

	score := semanticRelevance(thread.Title, sig) * discTitleWeight
	if strings.Contains(strings.ToLower(thread.Title), sig.Original) {
		score += wholeQueryBonus
	}

	if thread.Body != "" {
		score += semanticRelevance(thread.Body, sig) * discBodyWeight
		if topPhraseMatches(strings.ToLower(thread.Body), sig.Phrases, phraseMatchWindow) >= multiPhraseThreshold {
			score += discMultiPhraseBonus
		}
	}

	commentsText := ""
	if len(thread.TopComments) > 0 {
		comments := thread.TopComments
		if len(comments) > discCommentWindow {
			comments = comments[:discCommentWindow]
		}
		commentsText = strings.Join(comments, " ")

		score += semanticRelevance(commentsText, sig) * discCommentsWeight

		commentsLower := strings.ToLower(commentsText)
		mentions := countContained(commentsLower, sig.Technologies) + countContained(commentsLower, sig.Tasks)
		score += float64(mentions) * discSolutionScore
	}

	allContent := strings.ToLower(thread.Title + " " + thread.Body + " " + commentsText)
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

	if thread.Votes > 0 {
		score += math.Log10(float64(thread.Votes)+1) * discVoteLogScale
		score *= stepMultiplier(float64(thread.Votes), discVoteSteps)
	}

	if thread.Comments > 0 {
		score += math.Log10(float64(thread.Comments)+1) * discCommentLogScale
		score *= stepMultiplier(float64(thread.Comments), discCommentSteps)
	}

	if !thread.Created.IsZero() {
		ageDays := now.Sub(thread.Created).Hours() / 24
		score *= discussionRecencyMultiplier(ageDays)
	}

	if thread.Warning {
		score *= discWarningPenalty
	}

	sectionLower := strings.ToLower(thread.Section)
	for _, boost := range sectionBoosts {
		if strings.Contains(sectionLower, boost.name) {
			score *= boost.mult
			break
		}
	}

	if thread.Body == "" && len(thread.TopComments) == 0 {
		score *= discEmptyPenalty
	}

	// Flat adjustment, applied after the multipliers so the bonus is exactly
	// ±10 regardless of section or warning state.
	switch thread.Sentiment {
	case model.SentimentPositive:
		score += discSentimentBonus
	case model.SentimentNegative:
		score -= discSentimentBonus
	}

	return score, nil
}

// discussionRecencyMultiplier decays discussion value fast: advice goes
// stale in months, and a thread over three years old is nearly filtered
// out. Ages are fractional days so the under-24h band is reachable. The
// old-age penalty bands are ordered oldest first.
func discussionRecencyMultiplier(ageDays float64) float64 {
	switch {
	case ageDays < 1:
		return 4.0
	case ageDays < 3:
		return 3.5
	case ageDays < 7:
		return 3.0
	case ageDays < 14:
		return 2.5
	case ageDays < 30:
		return 2.2
	case ageDays < 60:
		return 1.9
	case ageDays < 90:
		return 1.7
	case ageDays < 180:
		return 1.4
	case ageDays < 365:
		return 1.2
	case ageDays > 1095:
		return 0.05
	case ageDays > 730:
		return 0.2
	default:
		return 1.0
	}
}
