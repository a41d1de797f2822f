// Package model defines the shared data model for the aggregation pipeline:
// the three source record variants, intent categories, source weights, and
// the scored/ranked result types exchanged between pipeline stages.
package model

import "time"

// Source identifies one of the three upstream content providers.
type Source string

const (
	// SourceCodeHost is the code-hosting index (repositories).
	SourceCodeHost Source = "code_host"

	// SourceModelHub is the model-hub index (published models).
	SourceModelHub Source = "model_hub"

	// SourceDiscussion is the discussion-forum index (threads).
	SourceDiscussion Source = "discussion"
)

// Sources lists all sources in merge append order: code host first,
// then model hub, then discussion. Merge tie-breaking depends on it.
var Sources = []Source{SourceCodeHost, SourceModelHub, SourceDiscussion}

// String returns the wire name of the source.
func (s Source) String() string { return string(s) }

// Valid reports whether s is one of the three known sources.
func (s Source) Valid() bool {
	switch s {
	case SourceCodeHost, SourceModelHub, SourceDiscussion:
		return true
	}
	return false
}

// Query length bounds, enforced at the API/CLI boundary rather than by
// the pipeline itself.
const (
	QueryMinLength = 3
	QueryMaxLength = 1000
)

// LifecycleStatus classifies a repository's maintenance state from its
// last-activity age.
type LifecycleStatus string

const (
	LifecycleActive     LifecycleStatus = "active"
	LifecycleMaintained LifecycleStatus = "maintained"
	LifecycleStale      LifecycleStatus = "stale"
	LifecycleAbandoned  LifecycleStatus = "abandoned"
	LifecycleUnknown    LifecycleStatus = "unknown"
)

// Lifecycle age thresholds in days.
const (
	lifecycleActiveDays     = 30
	lifecycleMaintainedDays = 180
	lifecycleStaleDays      = 365
)

// LifecycleFromActivity derives the lifecycle status from the last-activity
// timestamp. A zero timestamp yields LifecycleUnknown.
func LifecycleFromActivity(lastActivity, now time.Time) LifecycleStatus {
	if lastActivity.IsZero() {
		return LifecycleUnknown
	}
	days := now.Sub(lastActivity).Hours() / 24
	switch {
	case days < lifecycleActiveDays:
		return LifecycleActive
	case days < lifecycleMaintainedDays:
		return LifecycleMaintained
	case days < lifecycleStaleDays:
		return LifecycleStale
	default:
		return LifecycleAbandoned
	}
}

// SentimentLabel classifies the overall community sentiment of a
// discussion thread's comments.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentMixed    SentimentLabel = "mixed"
	SentimentNegative SentimentLabel = "negative"
	SentimentNeutral  SentimentLabel = "neutral"
)

// CodeRepo is a code-hosting search result. Immutable once fetched.
type CodeRepo struct {
	// Title is the repository full name (owner/name).
	Title string

	// URL is the canonical repository URL.
	URL string

	// Description is the short repository description (may be empty).
	Description string

	// Stars is the stargazer count.
	Stars int

	// Language is the primary programming language reported upstream.
	Language string

	// LastActivity is the most recent push timestamp (zero if unknown).
	LastActivity time.Time

	// Lifecycle is derived from LastActivity at fetch time.
	Lifecycle LifecycleStatus

	// Topics are curated repository topic tags.
	Topics []string

	// Readme is a readme excerpt (may be empty).
	Readme string
}

// ModelCard is a model-hub search result. Immutable once fetched.
type ModelCard struct {
	// Title is the model identifier (org/model).
	Title string

	// URL is the canonical model page URL.
	URL string

	// Description is the model card summary (may be empty).
	Description string

	// Downloads is the cumulative download count.
	Downloads int

	// Likes is the like count.
	Likes int

	// PipelineTag is the declared task tag (e.g. "text-classification").
	PipelineTag string

	// HasDemo reports whether an interactive demo space exists.
	HasDemo bool
}

// DiscussionThread is a discussion-forum search result. Immutable once
// fetched.
type DiscussionThread struct {
	// Title is the thread title.
	Title string

	// URL is the canonical thread URL.
	URL string

	// Section is the forum section (subreddit) name, without prefix.
	Section string

	// Votes is the net vote score.
	Votes int

	// Comments is the comment count.
	Comments int

	// Created is the thread creation timestamp (zero if unknown).
	Created time.Time

	// Body is the thread body excerpt (may be empty).
	Body string

	// TopComments holds the bodies of the highest-ranked comments.
	TopComments []string

	// Warning is set when comment sentiment analysis detected repeated
	// negative signals about the subject.
	Warning bool

	// Sentiment is the aggregate comment sentiment label.
	Sentiment SentimentLabel
}

// SourceRecord is a tagged union over the three record variants. Exactly
// one of Code, Model, Discussion is non-nil, matching Source. The pipeline
// switches on Source so all three variants are handled exhaustively.
type SourceRecord struct {
	// Source is the variant tag.
	Source Source

	// Code is set when Source == SourceCodeHost.
	Code *CodeRepo

	// Model is set when Source == SourceModelHub.
	Model *ModelCard

	// Discussion is set when Source == SourceDiscussion.
	Discussion *DiscussionThread
}

// CodeRecord wraps a CodeRepo into a tagged SourceRecord.
func CodeRecord(r *CodeRepo) SourceRecord {
	return SourceRecord{Source: SourceCodeHost, Code: r}
}

// ModelRecord wraps a ModelCard into a tagged SourceRecord.
func ModelRecord(m *ModelCard) SourceRecord {
	return SourceRecord{Source: SourceModelHub, Model: m}
}

// DiscussionRecord wraps a DiscussionThread into a tagged SourceRecord.
func DiscussionRecord(d *DiscussionThread) SourceRecord {
	return SourceRecord{Source: SourceDiscussion, Discussion: d}
}

// Title returns the record's display title regardless of variant.
func (r SourceRecord) Title() string {
	switch r.Source {
	case SourceCodeHost:
		if r.Code != nil {
			return r.Code.Title
		}
	case SourceModelHub:
		if r.Model != nil {
			return r.Model.Title
		}
	case SourceDiscussion:
		if r.Discussion != nil {
			return r.Discussion.Title
		}
	}
	return ""
}

// URL returns the record's canonical URL regardless of variant.
func (r SourceRecord) URL() string {
	switch r.Source {
	case SourceCodeHost:
		if r.Code != nil {
			return r.Code.URL
		}
	case SourceModelHub:
		if r.Model != nil {
			return r.Model.URL
		}
	case SourceDiscussion:
		if r.Discussion != nil {
			return r.Discussion.URL
		}
	}
	return ""
}

// Empty reports whether the union carries no payload for its tag.
func (r SourceRecord) Empty() bool {
	switch r.Source {
	case SourceCodeHost:
		return r.Code == nil
	case SourceModelHub:
		return r.Model == nil
	case SourceDiscussion:
		return r.Discussion == nil
	}
	return true
}

// ScoredRecord is a record annotated with its per-source relevance score
// and 1-based rank within its own source list.
type ScoredRecord struct {
	// Record is the underlying source record.
	Record SourceRecord

	// Score is the per-source relevance score (query-dependent).
	Score float64

	// Rank is the 1-based position within the source's ranked list.
	Rank int
}

// RankedResult is one entry of the final merged list. The ordering of the
// merged list is the contract callers depend on.
type RankedResult struct {
	// Record is the underlying source record.
	Record SourceRecord

	// Score is the cross-source merged score.
	Score float64

	// Rank is the 1-based final position (1 = best).
	Rank int
}
