// Package fetch fans one search request out to the three upstream sources
// concurrently. A source that fails is reported as a SourceError alongside
// an empty result list; it never takes the request down.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/devseek/devseek/internal/model"
)

// CodeHostFetcher retrieves repositories from the code-hosting source.
type CodeHostFetcher interface {
	FetchCodeHost(ctx context.Context, query string) ([]*model.CodeRepo, error)
}

// ModelHubFetcher retrieves model cards from the model-hub source.
type ModelHubFetcher interface {
	FetchModelHub(ctx context.Context, query string) ([]*model.ModelCard, error)
}

// DiscussionFetcher retrieves threads from the discussion-forum source.
type DiscussionFetcher interface {
	FetchDiscussions(ctx context.Context, query string) ([]*model.DiscussionThread, error)
}

// ErrNilFetcher is returned when a required fetcher is nil.
var ErrNilFetcher = errors.New("nil fetcher")

// SourceError records one upstream source failing during a fan-out. Message
// is already phrased for end users; Source lets callers aggregate failures
// per upstream without parsing it.
type SourceError struct {
	Source  model.Source
	Message string
}

func (e SourceError) String() string { return e.Message }

// Messages flattens source errors into their user-facing strings.
func Messages(errs []SourceError) []string {
	if len(errs) == 0 {
		return nil
	}
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Message
	}
	return out
}

// Orchestrator runs the three source fetches for a request and waits for all
// of them. Each source receives its own query string; query rewriting happens
// upstream of this package.
type Orchestrator struct {
	code        CodeHostFetcher
	models      ModelHubFetcher
	discussions DiscussionFetcher
	logger      *slog.Logger
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithLogger sets the logger used to report per-source failures.
func WithLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewOrchestrator wires the three source fetchers.
// Returns an error if any fetcher is nil.
func NewOrchestrator(
	code CodeHostFetcher,
	models ModelHubFetcher,
	discussions DiscussionFetcher,
	opts ...OrchestratorOption,
) (*Orchestrator, error) {
	if code == nil {
		return nil, fmt.Errorf("%w: code host fetcher is required", ErrNilFetcher)
	}
	if models == nil {
		return nil, fmt.Errorf("%w: model hub fetcher is required", ErrNilFetcher)
	}
	if discussions == nil {
		return nil, fmt.Errorf("%w: discussion fetcher is required", ErrNilFetcher)
	}
	o := &Orchestrator{
		code:        code,
		models:      models,
		discussions: discussions,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Orchestrate executes the three fetches concurrently and returns whatever
// each source produced. A failing source contributes an empty list and one
// entry in fetchErrs; the other two sources are unaffected. Source failures
// never set err: the only hard failure is the caller's context being
// cancelled before the fetches finish, in which case all results are
// discarded.
func (o *Orchestrator) Orchestrate(ctx context.Context, codeQuery, modelQuery, discussionQuery string) (
	repos []*model.CodeRepo,
	cards []*model.ModelCard,
	threads []*model.DiscussionThread,
	fetchErrs []SourceError,
	err error,
) {
	g, gctx := errgroup.WithContext(ctx)

	var codeErr, modelErr, discussionErr error

	g.Go(func() error {
		var fetchErr error
		repos, fetchErr = o.code.FetchCodeHost(gctx, codeQuery)
		if fetchErr != nil {
			codeErr = fetchErr
			// Don't fail the group - the other sources keep going.
		}
		return nil
	})

	g.Go(func() error {
		var fetchErr error
		cards, fetchErr = o.models.FetchModelHub(gctx, modelQuery)
		if fetchErr != nil {
			modelErr = fetchErr
		}
		return nil
	})

	g.Go(func() error {
		var fetchErr error
		threads, fetchErr = o.discussions.FetchDiscussions(gctx, discussionQuery)
		if fetchErr != nil {
			discussionErr = fetchErr
		}
		return nil
	})

	// Branches never return errors, so Wait only synchronizes.
	if waitErr := g.Wait(); waitErr != nil {
		return nil, nil, nil, nil, waitErr
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, nil, nil, nil, ctxErr
	}

	// Failures are appended in fixed source order so the report is
	// deterministic no matter which fetch finished first.
	if codeErr != nil {
		repos = nil
		fetchErrs = append(fetchErrs, SourceError{
			Source:  model.SourceCodeHost,
			Message: fmt.Sprintf("code host search failed: %v", codeErr),
		})
		o.reportFailure(model.SourceCodeHost, codeErr)
	}
	if modelErr != nil {
		cards = nil
		fetchErrs = append(fetchErrs, SourceError{
			Source:  model.SourceModelHub,
			Message: fmt.Sprintf("model hub search failed: %v", modelErr),
		})
		o.reportFailure(model.SourceModelHub, modelErr)
	}
	if discussionErr != nil {
		threads = nil
		fetchErrs = append(fetchErrs, SourceError{
			Source:  model.SourceDiscussion,
			Message: fmt.Sprintf("discussion search failed: %v", discussionErr),
		})
		o.reportFailure(model.SourceDiscussion, discussionErr)
	}

	return repos, cards, threads, fetchErrs, nil
}

func (o *Orchestrator) reportFailure(source model.Source, err error) {
	o.logger.Warn("source_fetch_failed",
		slog.String("source", string(source)),
		slog.String("error", err.Error()))
}
