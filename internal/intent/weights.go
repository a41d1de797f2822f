package intent

import "github.com/devseek/devseek/internal/model"

// WeightsForIntent returns the source priors for a category. The table is
// static: weights are looked up by category, never derived from pattern
// match counts, so tuning one is independent of the other.
func WeightsForIntent(cat model.IntentCategory) model.SourceWeights {
	switch cat {
	case model.IntentProjectSearch:
		return model.SourceWeights{CodeHost: 0.7, ModelHub: 0.1, Discussion: 0.2}
	case model.IntentHowTo:
		return model.SourceWeights{CodeHost: 0.3, ModelHub: 0.1, Discussion: 0.6}
	case model.IntentRecommendation:
		return model.SourceWeights{CodeHost: 0.25, ModelHub: 0.15, Discussion: 0.6}
	case model.IntentComparison:
		return model.SourceWeights{CodeHost: 0.3, ModelHub: 0.2, Discussion: 0.5}
	case model.IntentTroubleshooting:
		return model.SourceWeights{CodeHost: 0.2, ModelHub: 0.1, Discussion: 0.7}
	case model.IntentModelSearch:
		return model.SourceWeights{CodeHost: 0.2, ModelHub: 0.7, Discussion: 0.1}
	default:
		return model.DefaultSourceWeights()
	}
}
