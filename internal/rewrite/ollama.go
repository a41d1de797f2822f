package rewrite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/devseek/devseek/internal/model"
)

// Default Ollama configuration values.
const (
	DefaultOllamaHost     = "http://localhost:11434"
	DefaultOllamaModel    = "llama3.2:1b"
	DefaultOllamaTimeout  = 5 * time.Second
	DefaultSynthesisModel = "llama3.2:3b"
)

const synthesisTopN = 5

// OllamaConfig holds configuration for the local-LLM collaborator.
type OllamaConfig struct {
	// Host is the Ollama API base URL (default: http://localhost:11434).
	Host string

	// Model is the model used for query rewriting.
	Model string

	// SynthesisModel is the model used for result synthesis. Defaults to
	// a slightly larger model than rewriting, which tolerates less quality.
	SynthesisModel string

	// Timeout is the maximum time to wait for one generation.
	Timeout time.Duration
}

// DefaultOllamaConfig returns sensible defaults.
func DefaultOllamaConfig() OllamaConfig {
	return OllamaConfig{
		Host:           DefaultOllamaHost,
		Model:          DefaultOllamaModel,
		SynthesisModel: DefaultSynthesisModel,
		Timeout:        DefaultOllamaTimeout,
	}
}

// Ollama rewrites queries and synthesizes verdicts through a local Ollama
// endpoint.
type Ollama struct {
	client *http.Client
	config OllamaConfig
	now    func() time.Time
}

var (
	_ Rewriter    = (*Ollama)(nil)
	_ Synthesizer = (*Ollama)(nil)
)

// NewOllama creates the LLM collaborator, applying config defaults.
func NewOllama(config OllamaConfig) *Ollama {
	if config.Host == "" {
		config.Host = DefaultOllamaHost
	}
	if config.Model == "" {
		config.Model = DefaultOllamaModel
	}
	if config.SynthesisModel == "" {
		config.SynthesisModel = DefaultSynthesisModel
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultOllamaTimeout
	}
	return &Ollama{
		client: &http.Client{Timeout: config.Timeout},
		config: config,
		now:    time.Now,
	}
}

// generateRequest is the Ollama /api/generate request body.
type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// generateResponse is the Ollama /api/generate response body.
type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func (o *Ollama) generate(ctx context.Context, llmModel, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{Model: llmModel, Prompt: prompt, Stream: false})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := o.config.Host + "/api/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return result.Response, nil
}

// Available checks if Ollama is reachable.
func (o *Ollama) Available(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.config.Host+"/api/tags", nil)
	if err != nil {
		return false
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode == http.StatusOK
}

// intentGuidance steers the rewrite prompt per detected intent.
var intentGuidance = map[model.IntentCategory]string{
	model.IntentProjectSearch:   "Focus on concrete implementations and code examples.",
	model.IntentHowTo:           "Focus on tutorials, guides and worked examples.",
	model.IntentRecommendation:  "Focus on community opinions and comparisons.",
	model.IntentComparison:      "Focus on detailed comparisons and benchmarks.",
	model.IntentTroubleshooting: "Focus on reported fixes and debugging discussions.",
	model.IntentModelSearch:     "Focus on published models and pretrained weights.",
	model.IntentGeneral:         "Balance all sources equally.",
}

// rewritePrompt is the prompt template for per-source query generation.
const rewritePrompt = `You are a search query optimizer. Today is %s.

USER QUERY: %q
DETECTED INTENT: %s
STRATEGY: %s

Generate one search query per source:
1. Code host: exact technical terms, primary libraries or frameworks, programming language. Include "%d" or "latest".
2. Model hub: model types, task names (e.g. "text-generation"), architecture names. Include "%d" or "latest".
3. Discussion forum: recent community discussions, with keywords like "best" or "recommendation". Include "%d" or "recent".

Keep each query under 60 characters. Respond with ONLY this JSON:
{"code_query": "...", "model_query": "...", "discussion_query": "...", "reasoning": "..."}`

// Model replies wrap or decorate the JSON more often than not; fish out the
// first object instead of decoding the whole reply.
var jsonPattern = regexp.MustCompile(`\{[^{}]*\}`)

type rewriteReply struct {
	CodeQuery       string `json:"code_query"`
	ModelQuery      string `json:"model_query"`
	DiscussionQuery string `json:"discussion_query"`
	Reasoning       string `json:"reasoning"`
}

func (o *Ollama) Rewrite(ctx context.Context, query string, category model.IntentCategory) (Queries, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Queries{}, fmt.Errorf("empty query")
	}

	now := o.now()
	guidance := intentGuidance[category]
	if guidance == "" {
		guidance = intentGuidance[model.IntentGeneral]
	}
	prompt := fmt.Sprintf(rewritePrompt,
		now.Format("January 2006"), query, category, guidance,
		now.Year(), now.Year(), now.Year())

	raw, err := o.generate(ctx, o.config.Model, prompt)
	if err != nil {
		return Queries{}, fmt.Errorf("rewrite generation: %w", err)
	}
	return parseRewriteReply(raw, query)
}

// parseRewriteReply extracts the per-source queries from a model reply,
// filling any missing field with the original query.
func parseRewriteReply(raw, original string) (Queries, error) {
	match := jsonPattern.FindString(raw)
	if match == "" {
		return Queries{}, fmt.Errorf("no JSON object in model reply")
	}

	var reply rewriteReply
	if err := json.Unmarshal([]byte(match), &reply); err != nil {
		return Queries{}, fmt.Errorf("parsing model reply: %w", err)
	}

	q := Queries{
		CodeHost:   reply.CodeQuery,
		ModelHub:   reply.ModelQuery,
		Discussion: reply.DiscussionQuery,
		Reasoning:  reply.Reasoning,
	}
	if q.CodeHost == "" {
		q.CodeHost = original
	}
	if q.ModelHub == "" {
		q.ModelHub = original
	}
	if q.Discussion == "" {
		q.Discussion = original
	}
	return q, nil
}

func (o *Ollama) Synthesize(ctx context.Context, query string,
	repos []*model.CodeRepo, cards []*model.ModelCard, threads []*model.DiscussionThread) (string, error) {

	raw, err := o.generate(ctx, o.config.SynthesisModel, buildSynthesisPrompt(query, repos, cards, threads))
	if err != nil {
		return "", fmt.Errorf("synthesis generation: %w", err)
	}
	return strings.TrimSpace(raw), nil
}

func buildSynthesisPrompt(query string,
	repos []*model.CodeRepo, cards []*model.ModelCard, threads []*model.DiscussionThread) string {

	var b strings.Builder
	b.WriteString("You are a technical research advisor helping a developer find existing solutions.\n\n")
	fmt.Fprintf(&b, "USER QUERY: %q\n\n", query)

	b.WriteString("REPOSITORIES FOUND (ranked):\n")
	if len(repos) == 0 {
		b.WriteString("No repositories found.\n")
	}
	for _, repo := range repos[:min(len(repos), synthesisTopN)] {
		fmt.Fprintf(&b, "- %s (%s): %s\n", repo.Title, repo.Lifecycle, orNoDescription(repo.Description))
	}

	b.WriteString("\nMODELS FOUND (ranked):\n")
	if len(cards) == 0 {
		b.WriteString("No models found.\n")
	}
	for _, card := range cards[:min(len(cards), synthesisTopN)] {
		fmt.Fprintf(&b, "- %s: %s\n", card.Title, orNoDescription(card.Description))
	}

	b.WriteString("\nCOMMUNITY DISCUSSIONS (ranked):\n")
	if len(threads) == 0 {
		b.WriteString("No discussions found.\n")
	}
	for _, thread := range threads[:min(len(threads), synthesisTopN)] {
		fmt.Fprintf(&b, "- %s: %s", thread.Section, thread.Title)
		if thread.Warning {
			b.WriteString(" [COMMUNITY WARNING]")
		}
		if len(thread.TopComments) > 0 {
			fmt.Fprintf(&b, " | Top comment: %q", firstRunes(thread.TopComments[0], 100))
		}
		b.WriteString("\n")
	}

	b.WriteString(`
Provide a concise verdict (3-4 sentences max):
1. Is there a strong existing solution to build upon?
2. What is the recommended starting point from the top-ranked results?
3. Any warnings or recent trends from the community?

Be direct and actionable. Start with the bottom line.`)
	return b.String()
}

func orNoDescription(s string) string {
	if s == "" {
		return "No description"
	}
	return s
}

func firstRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
