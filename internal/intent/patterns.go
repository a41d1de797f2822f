package intent

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/devseek/devseek/internal/model"
)

// PatternSet is the versioned rule data driving the classifier. Categories
// are listed in tie-break priority order: when two categories match the same
// number of patterns, the one listed first wins.
type PatternSet struct {
	// Version identifies the rule revision, echoed in reload logs.
	Version string `yaml:"version" json:"version"`

	// Categories holds the per-category pattern lists, highest priority first.
	Categories []CategoryRules `yaml:"categories" json:"categories"`
}

// CategoryRules binds one intent category to its signal patterns.
type CategoryRules struct {
	Category model.IntentCategory `yaml:"category" json:"category"`
	Patterns []string             `yaml:"patterns" json:"patterns"`
}

// DefaultPatternSet returns the built-in rules. Each pattern captures a
// lexical signal for its category; a query's category score is the number of
// distinct patterns that match.
func DefaultPatternSet() PatternSet {
	return PatternSet{
		Version: "1",
		Categories: []CategoryRules{
			{
				Category: model.IntentProjectSearch,
				Patterns: []string{
					`\b(project|repo|repository|code|implementation|example|template|boilerplate)\b`,
					`\b(github|clone|fork|open[- ]source)\b`,
					`\b(does .+ exist|is there a|find .+ project)\b`,
				},
			},
			{
				Category: model.IntentHowTo,
				Patterns: []string{
					`\bhow (to|do|can)\b`,
					`\bwhat is the (best )?(way|method|approach)\b`,
					`\b(guide|tutorial|steps|learn|build|create|make|setup)\b`,
					`\bcan (i|you|we)\b`,
				},
			},
			{
				Category: model.IntentRecommendation,
				Patterns: []string{
					`\b(best|top|recommend|suggestion|should i|which|better|vs)\b`,
					`\b(what .+ use|what .+ choose)\b`,
				},
			},
			{
				Category: model.IntentComparison,
				Patterns: []string{
					`\bvs\.?\b|\bversus\b`,
					`\b(compare|comparison|difference between|which is better)\b`,
				},
			},
			{
				Category: model.IntentTroubleshooting,
				Patterns: []string{
					`\b(error|issue|problem|bug|fix|broken|not working|help|solve)\b`,
					`\b(why .+ not|how to fix|debugging)\b`,
				},
			},
			{
				Category: model.IntentModelSearch,
				Patterns: []string{
					`\b(model|llm|transformer|neural network|ai model|ml model)\b`,
					`\b(gpt|bert|llama|mistral|stable diffusion|clip)\b`,
					`\b(hugging ?face|hf|pretrained)\b`,
				},
			},
		},
	}
}

// LoadPatternSet reads a pattern file in YAML form. The result is parsed but
// not yet compiled; pass it to PatternClassifier.Reload or call Validate.
func LoadPatternSet(path string) (PatternSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PatternSet{}, fmt.Errorf("read pattern file: %w", err)
	}

	var set PatternSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return PatternSet{}, fmt.Errorf("parse pattern file %s: %w", path, err)
	}
	return set, nil
}

// Validate checks that every category is known and every pattern compiles.
func (s PatternSet) Validate() error {
	_, err := s.compile()
	return err
}

// ruleSet is the compiled form used for matching.
type ruleSet struct {
	version string
	rules   []categoryMatcher
}

// categoryMatcher holds one category's compiled patterns.
type categoryMatcher struct {
	category model.IntentCategory
	patterns []*regexp.Regexp
}

// compile validates and compiles the set. Queries are lowercased before
// matching, but patterns are compiled case-insensitive so user-supplied
// rules with uppercase literals still work.
func (s PatternSet) compile() (*ruleSet, error) {
	rs := &ruleSet{version: s.Version, rules: make([]categoryMatcher, 0, len(s.Categories))}

	for _, cr := range s.Categories {
		if !cr.Category.Valid() {
			return nil, fmt.Errorf("unknown intent category %q", cr.Category)
		}
		if cr.Category == model.IntentGeneral {
			return nil, fmt.Errorf("category %q is the fallback and takes no patterns", cr.Category)
		}

		cm := categoryMatcher{category: cr.Category, patterns: make([]*regexp.Regexp, 0, len(cr.Patterns))}
		for _, p := range cr.Patterns {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				return nil, fmt.Errorf("compile pattern %q for %s: %w", p, cr.Category, err)
			}
			cm.patterns = append(cm.patterns, re)
		}
		rs.rules = append(rs.rules, cm)
	}

	return rs, nil
}

// mustCompile compiles a set that is known-good, panicking otherwise.
// Only used for the built-in default set.
func mustCompile(s PatternSet) *ruleSet {
	rs, err := s.compile()
	if err != nil {
		panic(fmt.Sprintf("intent: invalid built-in pattern set: %v", err))
	}
	return rs
}
