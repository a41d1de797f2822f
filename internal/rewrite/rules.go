package rewrite

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/devseek/devseek/internal/model"
)

var wordPattern = regexp.MustCompile(`\b\w+\b`)

// Languages recognized when shaping the code-host query.
var knownLanguages = map[string]struct{}{
	"python":     {},
	"javascript": {},
	"java":       {},
	"cpp":        {},
	"rust":       {},
	"go":         {},
	"typescript": {},
}

// RuleBased derives queries without a language model: the original query
// plus the current year for freshness, a detected language on the code-host
// side, and opinion keywords on the discussion side.
type RuleBased struct {
	now func() time.Time
}

var _ Rewriter = (*RuleBased)(nil)

// NewRuleBased creates the rule-based rewriter.
func NewRuleBased() *RuleBased {
	return &RuleBased{now: time.Now}
}

func (r *RuleBased) Rewrite(_ context.Context, query string, _ model.IntentCategory) (Queries, error) {
	query = strings.TrimSpace(query)
	year := r.now().Year()

	lang := ""
	for _, word := range wordPattern.FindAllString(strings.ToLower(query), -1) {
		if _, ok := knownLanguages[word]; ok {
			lang = word
			break
		}
	}

	return Queries{
		CodeHost:   strings.TrimSpace(fmt.Sprintf("%s %d %s", query, year, lang)),
		ModelHub:   fmt.Sprintf("%s %d latest", query, year),
		Discussion: fmt.Sprintf("%s %d best recommendation recent", query, year),
		Reasoning:  fmt.Sprintf("Rule-derived queries biased toward %d results", year),
	}, nil
}
