package rewrite

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devseek/devseek/internal/model"
)

func newTestOllama(t *testing.T, handler http.HandlerFunc) *Ollama {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	o := NewOllama(OllamaConfig{
		Host:           srv.URL,
		Model:          "test-model",
		SynthesisModel: "test-synth",
		Timeout:        time.Second,
	})
	o.now = fixedTime
	return o
}

func writeGenerateResponse(w http.ResponseWriter, response string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(generateResponse{Response: response, Done: true})
}

func TestOllama_Rewrite(t *testing.T) {
	var got generateRequest
	o := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		writeGenerateResponse(w, `Sure thing! {"code_query": "rust http server 2026", "model_query": "code-generation 2026", "discussion_query": "rust web best 2026", "reasoning": "rust ecosystem is mature"}`)
	})

	q, err := o.Rewrite(context.Background(), "rust http server", model.IntentProjectSearch)
	require.NoError(t, err)

	assert.Equal(t, "test-model", got.Model)
	assert.False(t, got.Stream)
	assert.Contains(t, got.Prompt, `"rust http server"`)
	assert.Contains(t, got.Prompt, string(model.IntentProjectSearch))
	assert.Contains(t, got.Prompt, "February 2026")
	assert.Contains(t, got.Prompt, "concrete implementations")

	assert.Equal(t, "rust http server 2026", q.CodeHost)
	assert.Equal(t, "code-generation 2026", q.ModelHub)
	assert.Equal(t, "rust web best 2026", q.Discussion)
	assert.Equal(t, "rust ecosystem is mature", q.Reasoning)
}

func TestOllama_RewriteFillsMissingFields(t *testing.T) {
	o := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		writeGenerateResponse(w, `{"code_query": "chat app golang 2026"}`)
	})

	q, err := o.Rewrite(context.Background(), "chat app", model.IntentGeneral)
	require.NoError(t, err)

	assert.Equal(t, "chat app golang 2026", q.CodeHost)
	assert.Equal(t, "chat app", q.ModelHub)
	assert.Equal(t, "chat app", q.Discussion)
}

func TestOllama_RewriteRejectsEmptyQuery(t *testing.T) {
	o := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for an empty query")
	})

	_, err := o.Rewrite(context.Background(), "   ", model.IntentGeneral)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty query")
}

func TestOllama_RewriteRequiresJSONReply(t *testing.T) {
	o := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		writeGenerateResponse(w, "I cannot help with that request.")
	})

	_, err := o.Rewrite(context.Background(), "chat app", model.IntentGeneral)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no JSON object")
}

func TestOllama_RewriteSurfacesUpstreamStatus(t *testing.T) {
	o := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("model not loaded"))
	})

	_, err := o.Rewrite(context.Background(), "chat app", model.IntentGeneral)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 500")
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestOllama_Available(t *testing.T) {
	t.Run("reachable endpoint", func(t *testing.T) {
		o := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/tags", r.URL.Path)
			w.WriteHeader(http.StatusOK)
		})

		assert.True(t, o.Available(context.Background()))
	})

	t.Run("unreachable endpoint", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		o := NewOllama(OllamaConfig{Host: srv.URL, Timeout: time.Second})
		assert.False(t, o.Available(context.Background()))
	})
}

func TestOllama_Synthesize(t *testing.T) {
	var got generateRequest
	o := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeGenerateResponse(w, "  Use gin. It is actively maintained and widely adopted.\n")
	})

	repos := []*model.CodeRepo{
		{Title: "gin-gonic/gin", Lifecycle: model.LifecycleActive, Description: "HTTP web framework"},
	}
	cards := []*model.ModelCard{
		{Title: "microsoft/phi-2"},
	}
	threads := []*model.DiscussionThread{
		{
			Title:       "Best Go web framework?",
			Section:     "golang",
			Warning:     true,
			TopComments: []string{"works great, highly recommend"},
		},
	}

	verdict, err := o.Synthesize(context.Background(), "go web framework", repos, cards, threads)
	require.NoError(t, err)

	assert.Equal(t, "Use gin. It is actively maintained and widely adopted.", verdict)
	assert.Equal(t, "test-synth", got.Model)
	assert.Contains(t, got.Prompt, `USER QUERY: "go web framework"`)
	assert.Contains(t, got.Prompt, "- gin-gonic/gin (active): HTTP web framework")
	assert.Contains(t, got.Prompt, "- microsoft/phi-2: No description")
	assert.Contains(t, got.Prompt, "- golang: Best Go web framework? [COMMUNITY WARNING]")
	assert.Contains(t, got.Prompt, `Top comment: "works great, highly recommend"`)
}

func TestBuildSynthesisPrompt(t *testing.T) {
	t.Run("limits each source to top five", func(t *testing.T) {
		repos := make([]*model.CodeRepo, 7)
		for i := range repos {
			repos[i] = &model.CodeRepo{
				Title:     "owner/repo-" + string(rune('a'+i)),
				Lifecycle: model.LifecycleUnknown,
			}
		}

		prompt := buildSynthesisPrompt("query", repos, nil, nil)
		assert.Contains(t, prompt, "owner/repo-e")
		assert.NotContains(t, prompt, "owner/repo-f")
		assert.NotContains(t, prompt, "owner/repo-g")
	})

	t.Run("notes empty sources", func(t *testing.T) {
		prompt := buildSynthesisPrompt("query", nil, nil, nil)
		assert.Contains(t, prompt, "No repositories found.")
		assert.Contains(t, prompt, "No models found.")
		assert.Contains(t, prompt, "No discussions found.")
	})

	t.Run("truncates long top comments", func(t *testing.T) {
		threads := []*model.DiscussionThread{
			{Title: "thread", Section: "golang", TopComments: []string{strings.Repeat("a", 150)}},
		}

		prompt := buildSynthesisPrompt("query", nil, nil, threads)
		assert.Contains(t, prompt, `"`+strings.Repeat("a", 100)+`"`)
		assert.NotContains(t, prompt, strings.Repeat("a", 101))
	})
}

func TestNewOllama_AppliesDefaults(t *testing.T) {
	o := NewOllama(OllamaConfig{})

	assert.Equal(t, DefaultOllamaHost, o.config.Host)
	assert.Equal(t, DefaultOllamaModel, o.config.Model)
	assert.Equal(t, DefaultSynthesisModel, o.config.SynthesisModel)
	assert.Equal(t, DefaultOllamaTimeout, o.config.Timeout)
}
