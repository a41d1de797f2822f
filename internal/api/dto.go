package api

import (
	"time"

	"github.com/devseek/devseek/internal/engine"
	"github.com/devseek/devseek/internal/fetch"
	"github.com/devseek/devseek/internal/model"
	"github.com/devseek/devseek/internal/rewrite"
)

// SearchRequest is the POST /search body.
type SearchRequest struct {
	Query      string   `json:"query"`
	Sources    []string `json:"sources,omitempty"`
	MaxResults int      `json:"max_results,omitempty"`
	Refresh    bool     `json:"refresh,omitempty"`
}

// RepoResult is one code-hosting repository in a response.
type RepoResult struct {
	Source        string   `json:"source"`
	Title         string   `json:"title"`
	URL           string   `json:"url"`
	Description   string   `json:"description,omitempty"`
	Stars         int      `json:"stars"`
	Language      string   `json:"language,omitempty"`
	LastActivity  string   `json:"last_activity,omitempty"`
	Status        string   `json:"status"`
	CloneCommand  string   `json:"clone_command,omitempty"`
	ReadmePreview string   `json:"readme_preview,omitempty"`
	Topics        []string `json:"topics,omitempty"`
}

// ModelResult is one model-hub entry in a response.
type ModelResult struct {
	Source        string `json:"source"`
	Title         string `json:"title"`
	URL           string `json:"url"`
	Description   string `json:"description,omitempty"`
	Downloads     int    `json:"downloads"`
	Likes         int    `json:"likes"`
	PipelineTag   string `json:"pipeline_tag,omitempty"`
	DemoAvailable bool   `json:"demo_available"`
}

// ThreadResult is one discussion thread in a response.
type ThreadResult struct {
	Source      string   `json:"source"`
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Section     string   `json:"section,omitempty"`
	Votes       int      `json:"votes"`
	Comments    int      `json:"comments"`
	Created     string   `json:"created,omitempty"`
	BodyPreview string   `json:"body_preview,omitempty"`
	TopComments []string `json:"top_comments,omitempty"`
	Sentiment   string   `json:"sentiment,omitempty"`
	HasWarning  bool     `json:"has_warning"`
}

// SearchResult is one entry of the merged ranking. Exactly one of Repo,
// Model, Thread is set, matching Source.
type SearchResult struct {
	Rank   int           `json:"rank"`
	Score  float64       `json:"score"`
	Source string        `json:"source"`
	Repo   *RepoResult   `json:"repo,omitempty"`
	Model  *ModelResult  `json:"model,omitempty"`
	Thread *ThreadResult `json:"thread,omitempty"`
}

// GeneratedQueries echoes the per-source query rewrites applied to the
// request, with the reasoning behind them.
type GeneratedQueries struct {
	CodeHost   string `json:"code_host"`
	ModelHub   string `json:"model_hub"`
	Discussion string `json:"discussion"`
	Reasoning  string `json:"reasoning,omitempty"`
}

// SearchResponse is the GET/POST /search answer.
type SearchResponse struct {
	RequestID  string              `json:"request_id"`
	Query      string              `json:"query"`
	Intent     string              `json:"intent"`
	Weights    model.SourceWeights `json:"weights"`
	Queries    GeneratedQueries    `json:"queries"`
	Results    []SearchResult      `json:"results"`
	Synthesis  string              `json:"synthesis,omitempty"`
	Errors     []string            `json:"errors,omitempty"`
	Cached     bool                `json:"cached"`
	DurationMS int64               `json:"duration_ms"`
	Timestamp  time.Time           `json:"timestamp"`
}

// TrendingResponse is the GET /trending answer.
type TrendingResponse struct {
	RequestID   string         `json:"request_id"`
	Repos       []RepoResult   `json:"repos"`
	Models      []ModelResult  `json:"models"`
	Discussions []ThreadResult `json:"discussions"`
	Synthesis   string         `json:"synthesis,omitempty"`
	Errors      []string       `json:"errors,omitempty"`
	Cached      bool           `json:"cached"`
	DurationMS  int64          `json:"duration_ms"`
	Timestamp   time.Time      `json:"timestamp"`
}

// HealthResponse is the GET /health answer.
type HealthResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func repoResult(r *model.CodeRepo) *RepoResult {
	out := &RepoResult{
		Source:        model.SourceCodeHost.String(),
		Title:         r.Title,
		URL:           r.URL,
		Description:   r.Description,
		Stars:         r.Stars,
		Language:      r.Language,
		Status:        string(r.Lifecycle),
		ReadmePreview: r.Readme,
		Topics:        r.Topics,
	}
	if !r.LastActivity.IsZero() {
		out.LastActivity = r.LastActivity.UTC().Format(time.RFC3339)
	}
	if r.URL != "" {
		out.CloneCommand = "git clone " + r.URL + ".git"
	}
	return out
}

func modelResult(c *model.ModelCard) *ModelResult {
	return &ModelResult{
		Source:        model.SourceModelHub.String(),
		Title:         c.Title,
		URL:           c.URL,
		Description:   c.Description,
		Downloads:     c.Downloads,
		Likes:         c.Likes,
		PipelineTag:   c.PipelineTag,
		DemoAvailable: c.HasDemo,
	}
}

func threadResult(d *model.DiscussionThread) *ThreadResult {
	out := &ThreadResult{
		Source:      model.SourceDiscussion.String(),
		Title:       d.Title,
		URL:         d.URL,
		Section:     d.Section,
		Votes:       d.Votes,
		Comments:    d.Comments,
		BodyPreview: d.Body,
		TopComments: d.TopComments,
		Sentiment:   string(d.Sentiment),
		HasWarning:  d.Warning,
	}
	if !d.Created.IsZero() {
		out.Created = d.Created.UTC().Format(time.RFC3339)
	}
	return out
}

func generatedQueries(q rewrite.Queries) GeneratedQueries {
	return GeneratedQueries{
		CodeHost:   q.CodeHost,
		ModelHub:   q.ModelHub,
		Discussion: q.Discussion,
		Reasoning:  q.Reasoning,
	}
}

// searchResponse flattens an engine response into the wire shape. Result
// slices are always non-nil so clients see [] rather than null.
func searchResponse(resp *engine.Response) *SearchResponse {
	results := make([]SearchResult, 0, len(resp.Results))
	for _, rr := range resp.Results {
		entry := SearchResult{
			Rank:   rr.Rank,
			Score:  rr.Score,
			Source: rr.Record.Source.String(),
		}
		switch {
		case rr.Record.Code != nil:
			entry.Repo = repoResult(rr.Record.Code)
		case rr.Record.Model != nil:
			entry.Model = modelResult(rr.Record.Model)
		case rr.Record.Discussion != nil:
			entry.Thread = threadResult(rr.Record.Discussion)
		}
		results = append(results, entry)
	}
	return &SearchResponse{
		RequestID:  resp.RequestID,
		Query:      resp.Query,
		Intent:     string(resp.Intent),
		Weights:    resp.Weights,
		Queries:    generatedQueries(resp.Queries),
		Results:    results,
		Synthesis:  resp.Synthesis,
		Errors:     fetch.Messages(resp.SourceErrors),
		Cached:     resp.Cached,
		DurationMS: resp.Duration.Milliseconds(),
		Timestamp:  resp.Timestamp,
	}
}

func trendingResponse(resp *engine.TrendingResponse) *TrendingResponse {
	repos := make([]RepoResult, 0, len(resp.Repos))
	for _, r := range resp.Repos {
		repos = append(repos, *repoResult(r))
	}
	cards := make([]ModelResult, 0, len(resp.Cards))
	for _, c := range resp.Cards {
		cards = append(cards, *modelResult(c))
	}
	threads := make([]ThreadResult, 0, len(resp.Threads))
	for _, d := range resp.Threads {
		threads = append(threads, *threadResult(d))
	}
	return &TrendingResponse{
		RequestID:   resp.RequestID,
		Repos:       repos,
		Models:      cards,
		Discussions: threads,
		Synthesis:   resp.Synthesis,
		Errors:      fetch.Messages(resp.SourceErrors),
		Cached:      resp.Cached,
		DurationMS:  resp.Duration.Milliseconds(),
		Timestamp:   resp.Timestamp,
	}
}
