// Package merge folds per-source ranked lists into one globally ranked list.
// Merging is a second, independent scoring pass: where relevance ranking asks
// "how well does this record answer the query", the merge pass asks "how much
// attention does this source deserve" and lets the intent-derived weights
// dominate, adjusted by each record's own quality signals.
package merge

import (
	"math"
	"sort"

	"github.com/devseek/devseek/internal/model"
)

// weightScale converts a source weight into the merge score base, so the
// weight distribution dominates everything layered on top.
const weightScale = 100.0

// Quality adjustments are capped so popularity cannot overturn the weight
// base, only shuffle records within it.
const (
	codeStarDivisor   = 1000.0
	codeStarCap       = 20.0
	hubLikeDivisor    = 100.0
	hubLikeCap        = 15.0
	hubDownloadDiv    = 10000.0
	hubDownloadCap    = 15.0
	discVoteDivisor   = 100.0
	discVoteCap       = 15.0
	discCommentDiv    = 50.0
	discCommentCap    = 10.0
	discWarningPen    = 20.0
	discSentimentBump = 10.0
)

// positionPenalty is subtracted per step of a record's rank within its own
// source, so a source's best record is favored over its tenth-best even
// after weighting.
const positionPenalty = 2.0

// Merge combines three already-ranked lists into one globally ranked list.
// Records are enumerated code host first, then model hub, then discussions,
// each in per-source rank order; the sort is stable, so that enumeration
// order is the deterministic tie-break for records with equal merge scores.
// Merging never fails; empty lists simply contribute nothing. The primary
// intent already shaped the weights and takes no further part in the
// arithmetic.
func Merge(code, hub, discussion []model.ScoredRecord, weights model.SourceWeights, primary model.IntentCategory) []model.RankedResult {
	merged := make([]model.RankedResult, 0, len(code)+len(hub)+len(discussion))
	for _, list := range [][]model.ScoredRecord{code, hub, discussion} {
		for i, sr := range list {
			merged = append(merged, model.RankedResult{
				Record: sr.Record,
				Score:  mergeScore(sr.Record, weights, i),
			})
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})
	for i := range merged {
		merged[i].Rank = i + 1
	}

	return merged
}

// mergeScore computes weight base plus per-variant quality adjustments minus
// the within-source position penalty. idx is the record's zero-based position
// in its own ranked list.
func mergeScore(rec model.SourceRecord, weights model.SourceWeights, idx int) float64 {
	score := weights.For(rec.Source) * weightScale

	switch {
	case rec.Source == model.SourceCodeHost && rec.Code != nil:
		score += math.Min(float64(rec.Code.Stars)/codeStarDivisor, codeStarCap)
		score += lifecycleBoost(rec.Code.Lifecycle)

	case rec.Source == model.SourceModelHub && rec.Model != nil:
		score += math.Min(float64(rec.Model.Likes)/hubLikeDivisor, hubLikeCap)
		score += math.Min(float64(rec.Model.Downloads)/hubDownloadDiv, hubDownloadCap)

	case rec.Source == model.SourceDiscussion && rec.Discussion != nil:
		thread := rec.Discussion
		score += math.Min(float64(thread.Votes)/discVoteDivisor, discVoteCap)
		score += math.Min(float64(thread.Comments)/discCommentDiv, discCommentCap)
		if thread.Warning {
			score -= discWarningPen
		}
		switch thread.Sentiment {
		case model.SentimentPositive:
			score += discSentimentBump
		case model.SentimentNegative:
			score -= discSentimentBump
		}
	}

	return score - float64(idx)*positionPenalty
}

// lifecycleBoost is the flat maintenance-state adjustment used during
// merging. Unlike the relevance pass it is additive, keeping it subordinate
// to the weight base.
func lifecycleBoost(status model.LifecycleStatus) float64 {
	switch status {
	case model.LifecycleActive:
		return 15.0
	case model.LifecycleMaintained:
		return 10.0
	case model.LifecycleStale:
		return -5.0
	case model.LifecycleAbandoned:
		return -15.0
	default:
		return 0
	}
}
