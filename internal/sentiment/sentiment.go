// Package sentiment flags discussion threads whose comments warn against the
// thing being discussed. Detection is intentionally crude: a fixed list of
// phrases that, in practice, mean "stay away" or "this is good" in forum
// comments. It exists to drive the warning flag on discussion records, not to
// grade prose.
package sentiment

import (
	"regexp"
	"strings"

	"github.com/devseek/devseek/internal/model"
)

// Compiled phrase patterns for sentiment detection.
// Compiled at package init; matched against lowercased text.
var (
	negativePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\bdoesn'?t work\b`),
		regexp.MustCompile(`\bbroken\b`),
		regexp.MustCompile(`\bdeprecated\b`),
		regexp.MustCompile(`\babandoned\b`),
		regexp.MustCompile(`\bdon'?t use\b`),
		regexp.MustCompile(`\bwaste of time\b`),
		regexp.MustCompile(`\bterrible\b`),
		regexp.MustCompile(`\bhorrible\b`),
		regexp.MustCompile(`\bgarbage\b`),
		regexp.MustCompile(`\buseless\b`),
		regexp.MustCompile(`\bscam\b`),
		regexp.MustCompile(`\bbug(?:gy|s)\b`),
		regexp.MustCompile(`\bnot maintained\b`),
		regexp.MustCompile(`\bno longer works\b`),
		regexp.MustCompile(`\bdead project\b`),
	}

	positivePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\bworks great\b`),
		regexp.MustCompile(`\bhighly recommend\b`),
		regexp.MustCompile(`\bamazing\b`),
		regexp.MustCompile(`\bexcellent\b`),
		regexp.MustCompile(`\bperfect\b`),
		regexp.MustCompile(`\bawesome\b`),
		regexp.MustCompile(`\blove (?:it|this)\b`),
		regexp.MustCompile(`\bbest\b`),
		regexp.MustCompile(`\bfantastic\b`),
	}
)

const maxReportedConcerns = 3

// Analyze labels a piece of discussion text. The reason is a human-readable
// summary of the matched negative phrases; it is empty unless the label is
// negative or mixed.
//
// Two or more distinct negative phrases make the text negative. A single
// negative phrase with no positive signal is mixed. Two or more positive
// phrases with at most one negative make it positive. Everything else is
// neutral.
func Analyze(text string) (model.SentimentLabel, string) {
	lower := strings.ToLower(text)

	var negatives []string
	for _, p := range negativePatterns {
		if m := p.FindString(lower); m != "" {
			negatives = append(negatives, m)
		}
	}

	positives := 0
	for _, p := range positivePatterns {
		if p.MatchString(lower) {
			positives++
		}
	}

	switch {
	case len(negatives) >= 2:
		reported := negatives
		if len(reported) > maxReportedConcerns {
			reported = reported[:maxReportedConcerns]
		}
		return model.SentimentNegative, "Community concerns: " + strings.Join(reported, ", ")
	case len(negatives) == 1 && positives == 0:
		return model.SentimentMixed, "Mixed feedback: " + negatives[0]
	case positives >= 2:
		return model.SentimentPositive, ""
	default:
		return model.SentimentNeutral, ""
	}
}

// AnalyzeThread derives the aggregate sentiment for a thread from its comment
// bodies. Comments are joined and analyzed as one text so that concerns
// spread across commenters still accumulate. The warning flag is set when the
// aggregate reads negative or mixed.
func AnalyzeThread(comments []string) (label model.SentimentLabel, warning bool, reason string) {
	label, reason = Analyze(strings.Join(comments, " "))
	warning = label == model.SentimentNegative || label == model.SentimentMixed
	return label, warning, reason
}
