package relevance

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/devseek/devseek/internal/intent"
	"github.com/devseek/devseek/internal/model"
)

// Ranker orders one source's records by descending relevance to a query.
type Ranker struct {
	scorers map[model.Source]Scorer
	logger  *slog.Logger
	now     func() time.Time
}

// RankerOption configures a Ranker.
type RankerOption func(*Ranker)

// WithLogger sets the logger for scoring failures.
func WithLogger(logger *slog.Logger) RankerOption {
	return func(r *Ranker) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock overrides the recency clock.
func WithClock(now func() time.Time) RankerOption {
	return func(r *Ranker) {
		if now != nil {
			r.now = now
		}
	}
}

// WithScorer replaces the scorer for one source.
func WithScorer(source model.Source, scorer Scorer) RankerOption {
	return func(r *Ranker) {
		r.scorers[source] = scorer
	}
}

// NewRanker creates a ranker with the built-in scorer per source.
func NewRanker(opts ...RankerOption) *Ranker {
	r := &Ranker{
		scorers: map[model.Source]Scorer{
			model.SourceCodeHost:   CodeHostScorer{},
			model.SourceModelHub:   ModelHubScorer{},
			model.SourceDiscussion: DiscussionScorer{},
		},
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rank scores every record and returns them sorted by score descending with
// per-source ranks 1..N assigned. The sort is stable: ties keep fetch order,
// which usually reflects the upstream source's own ranking. A record that
// cannot be scored is kept with score zero and logged, never dropped.
// Ranking never fails; empty input returns nil.
func (r *Ranker) Rank(query string, records []model.SourceRecord) []model.ScoredRecord {
	if len(records) == 0 {
		return nil
	}

	sig := intent.Extract(query)
	now := r.now()

	scored := make([]model.ScoredRecord, len(records))
	for i, rec := range records {
		score, err := r.score(rec, sig, now)
		if err != nil {
			r.logger.Warn("score_record_failed",
				slog.String("source", string(rec.Source)),
				slog.String("url", rec.URL()),
				slog.String("error", err.Error()))
			score = 0
		}
		scored[i] = model.ScoredRecord{Record: rec, Score: score}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	for i := range scored {
		scored[i].Rank = i + 1
	}

	return scored
}

func (r *Ranker) score(rec model.SourceRecord, sig intent.Signals, now time.Time) (float64, error) {
	scorer, ok := r.scorers[rec.Source]
	if !ok {
		return 0, fmt.Errorf("no scorer for source %q", rec.Source)
	}
	return scorer.Score(rec, sig, now)
}
