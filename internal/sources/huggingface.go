package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	dverrors "github.com/devseek/devseek/internal/errors"
	"github.com/devseek/devseek/internal/fetch"
	"github.com/devseek/devseek/internal/model"
)

// Hub API endpoint, a var so tests can substitute an httptest server.
// Record URLs are built from the public host so swapped bases never leak
// into results.
var hfAPIBase = "https://huggingface.co"

const hfPublicURL = "https://huggingface.co"

const (
	hfDefaultResults   = 6
	hfDescriptionLimit = 300
)

// HuggingFaceClient searches the Hugging Face model hub. The zero value is
// usable; exported fields override defaults.
type HuggingFaceClient struct {
	// Client is the HTTP client for all requests. Defaults to http.DefaultClient.
	Client *http.Client

	// Token is an optional API token, sent as a bearer credential.
	Token string

	// UserAgent overrides the default user agent.
	UserAgent string

	// MaxResults caps the records returned per fetch. Defaults to 6.
	MaxResults int

	// Retry overrides the transient-failure retry policy.
	Retry *dverrors.RetryConfig

	// Breaker, when set, short-circuits fetches while the hub is down.
	Breaker *dverrors.CircuitBreaker
}

var _ fetch.ModelHubFetcher = (*HuggingFaceClient)(nil)

// FetchModelHub searches models by name and card content.
func (c *HuggingFaceClient) FetchModelHub(ctx context.Context, query string) ([]*model.ModelCard, error) {
	params := url.Values{}
	params.Set("search", query)
	params.Set("limit", strconv.Itoa(c.limit()))
	params.Set("full", "true")
	return c.fetch(ctx, params)
}

// Trending returns the most-downloaded models.
func (c *HuggingFaceClient) Trending(ctx context.Context) ([]*model.ModelCard, error) {
	params := url.Values{}
	params.Set("sort", "downloads")
	params.Set("direction", "-1")
	params.Set("limit", strconv.Itoa(c.limit()))
	params.Set("full", "true")
	return c.fetch(ctx, params)
}

func (c *HuggingFaceClient) fetch(ctx context.Context, params url.Values) ([]*model.ModelCard, error) {
	var cards []*model.ModelCard
	err := guarded(ctx, c.Breaker, c.retryConfig(), func() error {
		var searchErr error
		cards, searchErr = c.search(ctx, params)
		return searchErr
	})
	if err != nil {
		return nil, err
	}
	return cards, nil
}

type hfModel struct {
	ID          string   `json:"id"`
	ModelID     string   `json:"modelId"`
	Downloads   int      `json:"downloads"`
	Likes       int      `json:"likes"`
	PipelineTag string   `json:"pipeline_tag"`
	Tags        []string `json:"tags"`
	Spaces      []string `json:"spaces"`
	CardData    struct {
		Summary string `json:"summary"`
	} `json:"cardData"`
}

// hasDemo reports whether the model has an interactive demo: a linked
// space, or a gradio tag on older cards.
func (m hfModel) hasDemo() bool {
	if len(m.Spaces) > 0 {
		return true
	}
	for _, tag := range m.Tags {
		if tag == "gradio" {
			return true
		}
	}
	return false
}

func (c *HuggingFaceClient) search(ctx context.Context, params url.Values) ([]*model.ModelCard, error) {
	reqURL := hfAPIBase + "/api/models?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent())
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, dverrors.NetworkError("model hub search request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus("huggingface", resp.StatusCode)
	}

	var parsed []hfModel
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, dverrors.UpstreamError("parsing huggingface response", err)
	}

	cards := make([]*model.ModelCard, 0, len(parsed))
	for _, item := range parsed {
		id := item.ID
		if id == "" {
			id = item.ModelID
		}
		if id == "" {
			continue
		}
		cards = append(cards, &model.ModelCard{
			Title:       id,
			URL:         hfPublicURL + "/" + id,
			Description: truncate(item.CardData.Summary, hfDescriptionLimit),
			Downloads:   item.Downloads,
			Likes:       item.Likes,
			PipelineTag: item.PipelineTag,
			HasDemo:     item.hasDemo(),
		})
	}
	return cards, nil
}

func (c *HuggingFaceClient) httpClient() *http.Client {
	if c.Client != nil {
		return c.Client
	}
	return http.DefaultClient
}

func (c *HuggingFaceClient) userAgent() string {
	if c.UserAgent != "" {
		return c.UserAgent
	}
	return defaultUserAgent
}

func (c *HuggingFaceClient) limit() int {
	if c.MaxResults > 0 {
		return c.MaxResults
	}
	return hfDefaultResults
}

func (c *HuggingFaceClient) retryConfig() dverrors.RetryConfig {
	if c.Retry != nil {
		return *c.Retry
	}
	return defaultRetry()
}
