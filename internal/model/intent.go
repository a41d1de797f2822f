package model

import "math"

// IntentCategory is the coarse classification of what kind of answer the
// user wants. Exactly one category is primary per query.
type IntentCategory string

const (
	// IntentProjectSearch seeks existing repositories or reusable code.
	IntentProjectSearch IntentCategory = "project_search"

	// IntentHowTo seeks instructions, guides, or tutorials.
	IntentHowTo IntentCategory = "how_to"

	// IntentRecommendation seeks opinions on what to use.
	IntentRecommendation IntentCategory = "recommendation"

	// IntentComparison seeks a contrast between named alternatives.
	IntentComparison IntentCategory = "comparison"

	// IntentTroubleshooting seeks a fix for an error or failure.
	IntentTroubleshooting IntentCategory = "troubleshooting"

	// IntentModelSearch seeks published machine-learning models.
	IntentModelSearch IntentCategory = "model_search"

	// IntentGeneral is the fallback when no signal is detected.
	IntentGeneral IntentCategory = "general"
)

// IntentCategories lists every category, in classifier tie-break priority
// order with the general fallback last.
var IntentCategories = []IntentCategory{
	IntentProjectSearch,
	IntentHowTo,
	IntentRecommendation,
	IntentComparison,
	IntentTroubleshooting,
	IntentModelSearch,
	IntentGeneral,
}

// String returns the wire name of the category.
func (c IntentCategory) String() string { return string(c) }

// Valid reports whether c is a known category.
func (c IntentCategory) Valid() bool {
	for _, known := range IntentCategories {
		if c == known {
			return true
		}
	}
	return false
}

// SourceWeights distributes emphasis across the three sources for one
// intent category. Values are in [0,1] and sum to 1.0 for every row of
// the static table (validated at startup and in tests).
type SourceWeights struct {
	// CodeHost is the code-hosting index weight.
	CodeHost float64 `yaml:"code_host" json:"code_host"`

	// ModelHub is the model-hub index weight.
	ModelHub float64 `yaml:"model_hub" json:"model_hub"`

	// Discussion is the discussion-forum index weight.
	Discussion float64 `yaml:"discussion" json:"discussion"`
}

// For returns the weight assigned to the given source.
func (w SourceWeights) For(s Source) float64 {
	switch s {
	case SourceCodeHost:
		return w.CodeHost
	case SourceModelHub:
		return w.ModelHub
	case SourceDiscussion:
		return w.Discussion
	}
	return 0
}

// Sum returns the total of the three weights.
func (w SourceWeights) Sum() float64 {
	return w.CodeHost + w.ModelHub + w.Discussion
}

// weightSumTolerance bounds floating-point drift allowed in a weight row.
const weightSumTolerance = 1e-9

// Normalized reports whether the weights sum to 1.0 within tolerance.
func (w SourceWeights) Normalized() bool {
	return math.Abs(w.Sum()-1.0) <= weightSumTolerance
}

// DefaultSourceWeights returns the general-intent fallback distribution.
func DefaultSourceWeights() SourceWeights {
	return SourceWeights{CodeHost: 0.4, ModelHub: 0.2, Discussion: 0.4}
}
