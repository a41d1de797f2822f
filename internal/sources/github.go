package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	dverrors "github.com/devseek/devseek/internal/errors"
	"github.com/devseek/devseek/internal/fetch"
	"github.com/devseek/devseek/internal/model"
)

// GitHub endpoints. Declared as vars so tests can substitute an httptest
// server.
var (
	githubAPIBase = "https://api.github.com"
	githubRawBase = "https://raw.githubusercontent.com"
)

const (
	githubDefaultResults = 8
	githubTrendingStars  = 500

	githubDescriptionLimit = 300
	githubTopicsLimit      = 5
	githubReadmeFetchSize  = 1500
	githubReadmeLimit      = 500

	readmeConcurrency = 4
)

// Markdown noise stripped from readme excerpts.
var (
	readmeMarkupPattern = regexp.MustCompile("[#*`\\[\\]]")
	readmeBlankPattern  = regexp.MustCompile(`\n{3,}`)
)

var errReadmeMissing = errors.New("readme not found")

// GitHubClient searches GitHub repositories and enriches hits with readme
// excerpts. The zero value is usable; exported fields override defaults.
type GitHubClient struct {
	// Client is the HTTP client for all requests. Defaults to http.DefaultClient.
	Client *http.Client

	// Token is an optional API token, sent as a bearer credential. Unset
	// means unauthenticated requests with their lower rate limit.
	Token string

	// UserAgent overrides the default user agent.
	UserAgent string

	// MaxResults caps the records returned per fetch. Defaults to 8.
	MaxResults int

	// Retry overrides the transient-failure retry policy.
	Retry *dverrors.RetryConfig

	// Breaker, when set, short-circuits fetches while GitHub is down.
	Breaker *dverrors.CircuitBreaker

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Now is the clock used for lifecycle derivation. Defaults to time.Now.
	Now func() time.Time
}

var _ fetch.CodeHostFetcher = (*GitHubClient)(nil)

// FetchCodeHost searches repositories by relevance.
func (c *GitHubClient) FetchCodeHost(ctx context.Context, query string) ([]*model.CodeRepo, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("per_page", strconv.Itoa(c.limit()))
	return c.fetch(ctx, params)
}

// Trending returns recently pushed repositories above the star floor,
// ordered by stars.
func (c *GitHubClient) Trending(ctx context.Context) ([]*model.CodeRepo, error) {
	params := url.Values{}
	params.Set("q", fmt.Sprintf("stars:>%d pushed:>%d-01-01", githubTrendingStars, c.clock()().Year()))
	params.Set("sort", "stars")
	params.Set("order", "desc")
	params.Set("per_page", strconv.Itoa(c.limit()))
	return c.fetch(ctx, params)
}

func (c *GitHubClient) fetch(ctx context.Context, params url.Values) ([]*model.CodeRepo, error) {
	var repos []*model.CodeRepo
	err := guarded(ctx, c.Breaker, c.retryConfig(), func() error {
		var searchErr error
		repos, searchErr = c.search(ctx, params)
		return searchErr
	})
	if err != nil {
		return nil, err
	}
	c.enrichReadmes(ctx, repos)
	return repos, nil
}

type githubSearchResponse struct {
	Items []githubRepo `json:"items"`
}

type githubRepo struct {
	FullName    string   `json:"full_name"`
	HTMLURL     string   `json:"html_url"`
	Description string   `json:"description"`
	Stars       int      `json:"stargazers_count"`
	Language    string   `json:"language"`
	PushedAt    string   `json:"pushed_at"`
	Topics      []string `json:"topics"`
}

func (c *GitHubClient) search(ctx context.Context, params url.Values) ([]*model.CodeRepo, error) {
	reqURL := githubAPIBase + "/search/repositories?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent())
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, dverrors.NetworkError("github search request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus("github", resp.StatusCode)
	}

	var parsed githubSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, dverrors.UpstreamError("parsing github response", err)
	}

	now := c.clock()()
	repos := make([]*model.CodeRepo, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		repo := &model.CodeRepo{
			Title:       item.FullName,
			URL:         item.HTMLURL,
			Description: truncate(item.Description, githubDescriptionLimit),
			Stars:       item.Stars,
			Language:    item.Language,
			Topics:      item.Topics,
		}
		if len(repo.Topics) > githubTopicsLimit {
			repo.Topics = repo.Topics[:githubTopicsLimit]
		}
		if t, parseErr := time.Parse(time.RFC3339, item.PushedAt); parseErr == nil {
			repo.LastActivity = t
		}
		repo.Lifecycle = model.LifecycleFromActivity(repo.LastActivity, now)
		repos = append(repos, repo)
	}
	return repos, nil
}

// enrichReadmes fills in readme excerpts for the fetched repositories.
// Readmes are optional: failures leave the excerpt empty.
func (c *GitHubClient) enrichReadmes(ctx context.Context, repos []*model.CodeRepo) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(readmeConcurrency)

	for _, repo := range repos {
		owner, name, ok := strings.Cut(repo.Title, "/")
		if !ok || owner == "" || name == "" {
			continue
		}
		g.Go(func() error {
			excerpt, err := c.fetchReadme(gctx, owner, name)
			if err != nil {
				c.logger().Debug("readme_fetch_failed",
					slog.String("repo", repo.Title),
					slog.String("error", err.Error()))
				return nil
			}
			repo.Readme = excerpt
			return nil
		})
	}
	_ = g.Wait()
}

// fetchReadme tries the main branch first, then master.
func (c *GitHubClient) fetchReadme(ctx context.Context, owner, name string) (string, error) {
	raw, err := c.fetchRaw(ctx, fmt.Sprintf("%s/%s/%s/main/README.md", githubRawBase, owner, name))
	if errors.Is(err, errReadmeMissing) {
		raw, err = c.fetchRaw(ctx, fmt.Sprintf("%s/%s/%s/master/README.md", githubRawBase, owner, name))
	}
	if err != nil {
		return "", err
	}
	return cleanReadme(raw), nil
}

func (c *GitHubClient) fetchRaw(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent())

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", errReadmeMissing
	case resp.StatusCode != http.StatusOK:
		return "", classifyStatus("github raw", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// cleanReadme strips markdown markup and collapses blank-line runs, keeping
// a short plain-text excerpt.
func cleanReadme(raw string) string {
	s := readmeMarkupPattern.ReplaceAllString(truncate(raw, githubReadmeFetchSize), "")
	s = readmeBlankPattern.ReplaceAllString(s, "\n\n")
	return truncate(s, githubReadmeLimit)
}

func (c *GitHubClient) httpClient() *http.Client {
	if c.Client != nil {
		return c.Client
	}
	return http.DefaultClient
}

func (c *GitHubClient) userAgent() string {
	if c.UserAgent != "" {
		return c.UserAgent
	}
	return defaultUserAgent
}

func (c *GitHubClient) limit() int {
	if c.MaxResults > 0 {
		return c.MaxResults
	}
	return githubDefaultResults
}

func (c *GitHubClient) retryConfig() dverrors.RetryConfig {
	if c.Retry != nil {
		return *c.Retry
	}
	return defaultRetry()
}

func (c *GitHubClient) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c *GitHubClient) clock() func() time.Time {
	if c.Now != nil {
		return c.Now
	}
	return time.Now
}
