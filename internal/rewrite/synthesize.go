package rewrite

import (
	"context"
	"fmt"
	"strings"

	"github.com/devseek/devseek/internal/model"
)

// Template is the deterministic counting synthesizer used when no LLM is
// configured or the LLM verdict cannot be obtained.
type Template struct{}

var _ Synthesizer = Template{}

func (Template) Synthesize(_ context.Context, _ string,
	repos []*model.CodeRepo, cards []*model.ModelCard, threads []*model.DiscussionThread) (string, error) {

	var parts []string

	if len(repos) > 0 {
		active := 0
		for _, repo := range repos {
			if repo.Lifecycle == model.LifecycleActive {
				active++
			}
		}
		if active > 0 {
			parts = append(parts, fmt.Sprintf("%d actively maintained repositories", active))
		} else {
			parts = append(parts, fmt.Sprintf("%d repositories", len(repos)))
		}
	}

	if len(cards) > 0 {
		parts = append(parts, fmt.Sprintf("%d published models", len(cards)))
	}

	if len(threads) > 0 {
		warned := 0
		for _, thread := range threads {
			if thread.Warning {
				warned++
			}
		}
		if warned > 0 {
			parts = append(parts, fmt.Sprintf("%d community discussions (%d with warnings)", len(threads), warned))
		} else {
			parts = append(parts, fmt.Sprintf("%d community discussions", len(threads)))
		}
	}

	if len(parts) == 0 {
		return "No relevant results found. Try refining your search query with more specific technical terms.", nil
	}
	return "Search complete: found " + strings.Join(parts, ", ") + ". Review the top-ranked results for a starting point.", nil
}
