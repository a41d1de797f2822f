package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	dverrors "github.com/devseek/devseek/internal/errors"
	"github.com/devseek/devseek/internal/fetch"
	"github.com/devseek/devseek/internal/model"
	"github.com/devseek/devseek/internal/sentiment"
)

// Reddit JSON endpoint, a var so tests can substitute an httptest server.
// Thread URLs are built from the public host so swapped bases never leak
// into results.
var redditAPIBase = "https://www.reddit.com"

const redditPublicURL = "https://www.reddit.com"

const (
	redditDefaultResults  = 6
	redditBodyLimit       = 500
	redditCommentLimit    = 300
	redditCommentsScanned = 10
	redditTopComments     = 3

	// Subreddits sampled for trending discussions.
	trendingSubreddits = "programming+webdev"

	commentConcurrency = 4
)

// RedditClient searches Reddit threads and enriches hits with top comments
// and their aggregate sentiment. The zero value is usable; exported fields
// override defaults.
type RedditClient struct {
	// Client is the HTTP client for all requests. Defaults to http.DefaultClient.
	Client *http.Client

	// UserAgent overrides the default user agent.
	UserAgent string

	// MaxResults caps the records returned per fetch. Defaults to 6.
	MaxResults int

	// Retry overrides the transient-failure retry policy.
	Retry *dverrors.RetryConfig

	// Breaker, when set, short-circuits fetches while Reddit is down.
	Breaker *dverrors.CircuitBreaker

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

var _ fetch.DiscussionFetcher = (*RedditClient)(nil)

// FetchDiscussions searches threads from the past year by relevance.
func (c *RedditClient) FetchDiscussions(ctx context.Context, query string) ([]*model.DiscussionThread, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(c.limit()))
	params.Set("sort", "relevance")
	params.Set("t", "year")
	return c.fetch(ctx, "/search.json", params)
}

// Trending returns the current hot threads from the sampled subreddits.
func (c *RedditClient) Trending(ctx context.Context) ([]*model.DiscussionThread, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(c.limit()))
	return c.fetch(ctx, "/r/"+trendingSubreddits+"/hot.json", params)
}

func (c *RedditClient) fetch(ctx context.Context, path string, params url.Values) ([]*model.DiscussionThread, error) {
	var threads []*model.DiscussionThread
	var permalinks []string
	err := guarded(ctx, c.Breaker, c.retryConfig(), func() error {
		var searchErr error
		threads, permalinks, searchErr = c.search(ctx, path, params)
		return searchErr
	})
	if err != nil {
		return nil, err
	}
	c.enrichComments(ctx, threads, permalinks)
	return threads, nil
}

// Reddit wraps both posts (t3) and comments (t1) in the same listing
// envelope, with the interesting fields under data.
type redditListing struct {
	Data struct {
		Children []redditChild `json:"children"`
	} `json:"data"`
}

type redditChild struct {
	Kind string     `json:"kind"`
	Data redditItem `json:"data"`
}

type redditItem struct {
	Title       string  `json:"title"`
	Permalink   string  `json:"permalink"`
	Subreddit   string  `json:"subreddit"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
	Selftext    string  `json:"selftext"`
	Body        string  `json:"body"`
}

func (c *RedditClient) search(ctx context.Context, path string, params url.Values) ([]*model.DiscussionThread, []string, error) {
	reqURL := redditAPIBase + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent())

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, nil, dverrors.NetworkError("discussion search request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, classifyStatus("reddit", resp.StatusCode)
	}

	var parsed redditListing
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, nil, dverrors.UpstreamError("parsing reddit response", err)
	}

	threads := make([]*model.DiscussionThread, 0, len(parsed.Data.Children))
	permalinks := make([]string, 0, len(parsed.Data.Children))
	for _, child := range parsed.Data.Children {
		if child.Kind != "t3" {
			continue
		}
		post := child.Data
		if post.Title == "" || post.Permalink == "" {
			continue
		}
		thread := &model.DiscussionThread{
			Title:     post.Title,
			URL:       redditPublicURL + post.Permalink,
			Section:   post.Subreddit,
			Votes:     post.Score,
			Comments:  post.NumComments,
			Body:      truncate(post.Selftext, redditBodyLimit),
			Sentiment: model.SentimentNeutral,
		}
		if post.CreatedUTC > 0 {
			thread.Created = time.Unix(int64(post.CreatedUTC), 0).UTC()
		}
		threads = append(threads, thread)
		permalinks = append(permalinks, post.Permalink)
	}
	return threads, permalinks, nil
}

// enrichComments fills in top comments and sentiment for the fetched
// threads. Enrichment is optional: failures leave a thread neutral.
func (c *RedditClient) enrichComments(ctx context.Context, threads []*model.DiscussionThread, permalinks []string) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(commentConcurrency)

	for i, thread := range threads {
		if thread.Comments == 0 {
			continue
		}
		permalink := permalinks[i]
		g.Go(func() error {
			if err := c.fetchComments(gctx, thread, permalink); err != nil {
				c.logger().Debug("comment_fetch_failed",
					slog.String("thread", thread.Title),
					slog.String("error", err.Error()))
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (c *RedditClient) fetchComments(ctx context.Context, thread *model.DiscussionThread, permalink string) error {
	reqURL := redditAPIBase + strings.TrimSuffix(permalink, "/") + ".json"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent())

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return classifyStatus("reddit comments", resp.StatusCode)
	}

	// The comments endpoint returns a two-element array: the post listing,
	// then the comment listing.
	var listings []redditListing
	if err := json.NewDecoder(resp.Body).Decode(&listings); err != nil {
		return dverrors.UpstreamError("parsing reddit comments", err)
	}
	if len(listings) < 2 {
		return nil
	}

	comments := listings[1].Data.Children
	if len(comments) > redditCommentsScanned {
		comments = comments[:redditCommentsScanned]
	}

	var bodies, top []string
	for _, child := range comments {
		if child.Kind != "t1" {
			continue
		}
		body := child.Data.Body
		if body == "" || body == "[deleted]" || body == "[removed]" {
			continue
		}
		bodies = append(bodies, body)
		if len(top) < redditTopComments && child.Data.Score > 0 {
			top = append(top, truncate(body, redditCommentLimit))
		}
	}
	if len(bodies) == 0 {
		return nil
	}

	label, warning, reason := sentiment.AnalyzeThread(bodies)
	thread.TopComments = top
	thread.Sentiment = label
	thread.Warning = warning
	if warning {
		c.logger().Debug("thread_warning",
			slog.String("thread", thread.Title),
			slog.String("reason", reason))
	}
	return nil
}

func (c *RedditClient) httpClient() *http.Client {
	if c.Client != nil {
		return c.Client
	}
	return http.DefaultClient
}

func (c *RedditClient) userAgent() string {
	if c.UserAgent != "" {
		return c.UserAgent
	}
	return defaultUserAgent
}

func (c *RedditClient) limit() int {
	if c.MaxResults > 0 {
		return c.MaxResults
	}
	return redditDefaultResults
}

func (c *RedditClient) retryConfig() dverrors.RetryConfig {
	if c.Retry != nil {
		return *c.Retry
	}
	return defaultRetry()
}

func (c *RedditClient) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
