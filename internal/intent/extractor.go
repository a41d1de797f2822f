package intent

import (
	"regexp"
	"strings"
)

// Vocabulary lists for signal detection. Detection is substring containment
// against the lowercased query, so short names like "go" also fire inside
// longer tokens ("django"). The lists are checked in order and results keep
// that order.
var (
	knownLanguages = []string{
		"python", "javascript", "typescript", "java", "c++", "cpp",
		"rust", "go", "ruby", "php", "swift", "kotlin",
	}

	knownTechnologies = []string{
		"react", "vue", "angular", "django", "flask", "fastapi",
		"express", "nextjs", "tensorflow", "pytorch", "opencv", "numpy",
	}

	knownTasks = []string{
		"classification", "detection", "generation", "segmentation",
		"translation", "recognition", "prediction", "analysis", "optimization",
	}

	knownActions = []string{
		"build", "create", "make", "implement", "develop", "train",
		"deploy", "optimize", "convert", "transform", "process", "analyze",
	}
)

// yearToken matches bare year tokens like "2024".
var yearToken = regexp.MustCompile(`^\d{4}$`)

// freshnessWords are stripped from the word bag; recency is handled by the
// scorer's decay step, not by literal matching.
var freshnessWords = map[string]struct{}{
	"latest": {},
	"new":    {},
	"recent": {},
}

// Signals is the per-query decomposition shared by every source scorer.
// Extract is pure, so callers ranking many records against one query should
// extract once and reuse the result.
type Signals struct {
	// Original is the lowercased query.
	Original string

	// Phrases holds the sliding-window word groups. For each start index the
	// 3-word phrase precedes the 2-word phrase, so the head of the slice
	// carries the most specific phrasing of the query's opening words.
	Phrases []string

	// Languages, Technologies, Tasks and Actions are the vocabulary terms
	// detected in the query.
	Languages    []string
	Technologies []string
	Tasks        []string
	Actions      []string

	// Words is the word bag with year tokens and freshness adverbs removed.
	Words []string
}

// Extract decomposes a query into matchable signals.
func Extract(query string) Signals {
	lower := strings.ToLower(query)
	words := strings.Fields(lower)

	sig := Signals{Original: lower}

	for i := range words {
		if i+2 < len(words) {
			sig.Phrases = append(sig.Phrases, strings.Join(words[i:i+3], " "))
		}
		if i+1 < len(words) {
			sig.Phrases = append(sig.Phrases, strings.Join(words[i:i+2], " "))
		}
	}

	sig.Languages = detectTerms(lower, knownLanguages)
	sig.Technologies = detectTerms(lower, knownTechnologies)
	sig.Tasks = detectTerms(lower, knownTasks)
	sig.Actions = detectTerms(lower, knownActions)

	for _, w := range words {
		if yearToken.MatchString(w) {
			continue
		}
		if _, skip := freshnessWords[w]; skip {
			continue
		}
		sig.Words = append(sig.Words, w)
	}

	return sig
}

// detectTerms returns the vocabulary terms contained in the text, in
// vocabulary order.
func detectTerms(text string, vocab []string) []string {
	var found []string
	for _, term := range vocab {
		if strings.Contains(text, term) {
			found = append(found, term)
		}
	}
	return found
}
