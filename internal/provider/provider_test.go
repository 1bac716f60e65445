package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericksa/clauselens/internal/config"
	"github.com/ericksa/clauselens/internal/retry"
)

// openAICompatible serves /v1/embeddings and /v1/chat/completions the way
// both OpenAI and LM Studio do. Embeddings come back in reverse order to
// check that callers sort by index.
func openAICompatible(t *testing.T, answer string, seen *[]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/embeddings":
			var req struct {
				Input []string `json:"input"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			if seen != nil {
				*seen = append(*seen, req.Input...)
			}
			data := make([]map[string]interface{}, 0, len(req.Input))
			for i := len(req.Input) - 1; i >= 0; i-- {
				data = append(data, map[string]interface{}{
					"object":    "embedding",
					"index":     i,
					"embedding": []float32{float32(i), 1},
				})
			}
			json.NewEncoder(w).Encode(map[string]interface{}{"object": "list", "data": data, "model": "m"})
		case "/v1/chat/completions":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"id":     "chatcmpl-1",
				"object": "chat.completion",
				"choices": []map[string]interface{}{
					{"index": 0, "message": map[string]string{"role": "assistant", "content": answer}, "finish_reason": "stop"},
				},
			})
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestLMStudio_EmbedAndGenerate(t *testing.T) {
	var seen []string
	srv := openAICompatible(t, "forty-two", &seen)
	defer srv.Close()

	p := NewLMStudio(srv.URL+"/", "nomic-embed", "local-model")

	vecs, err := p.Embed(context.Background(), []string{"a", "b", "c"}, ModeDocument)
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0, 1}, {1, 1}, {2, 1}}, vecs)
	assert.Equal(t, []string{"search_document: a", "search_document: b", "search_document: c"}, seen)

	seen = nil
	_, err = p.Embed(context.Background(), []string{"q"}, ModeQuery)
	require.NoError(t, err)
	assert.Equal(t, []string{"search_query: q"}, seen)

	out, err := p.Generate(context.Background(), "what?")
	require.NoError(t, err)
	assert.Equal(t, "forty-two", out)
}

// apiError answers every request with an OpenAI-style error body.
func apiError(status int, message string, hits *atomic.Int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{"message": message, "type": "invalid_request_error"},
		})
	}))
}

func TestLMStudio_HTTPError(t *testing.T) {
	srv := apiError(http.StatusServiceUnavailable, "model not loaded", nil)
	defer srv.Close()

	p := NewLMStudio(srv.URL, "e", "g")
	_, err := p.Generate(context.Background(), "hi")
	require.Error(t, err)

	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "lmstudio", perr.Provider)
	assert.Equal(t, "generate", perr.Op)
	assert.Contains(t, err.Error(), "model not loaded")

	var apiErr *openai.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.HTTPStatusCode)
}

func TestLimited_RejectedRequestsAreNotRetried(t *testing.T) {
	cases := []struct {
		name   string
		status int
		hits   int32
	}{
		{"unauthorized", http.StatusUnauthorized, 1},
		{"unknown model", http.StatusNotFound, 1},
		{"rate limited", http.StatusTooManyRequests, 3},
		{"server error", http.StatusInternalServerError, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var hits atomic.Int32
			srv := apiError(tc.status, "nope", &hits)
			defer srv.Close()

			p := NewLimited(NewLMStudio(srv.URL, "e", "g"), Limits{})
			err := retry.Do(context.Background(), retry.Policy{Retries: 2}, func(ctx context.Context) error {
				_, err := p.Embed(ctx, []string{"a"}, ModeDocument)
				return err
			})
			require.Error(t, err)
			assert.Equal(t, tc.hits, hits.Load())

			var perr *Error
			assert.True(t, errors.As(err, &perr))
		})
	}
}

func TestMarkRejected_PassesThroughOtherErrors(t *testing.T) {
	assert.NoError(t, markRejected(nil))
	plain := errors.New("connection refused")
	assert.Same(t, plain, markRejected(plain))
}

func TestGeminiTaskType(t *testing.T) {
	cases := []struct {
		mode Mode
		want genai.TaskType
	}{
		{ModeQuery, genai.TaskTypeRetrievalQuery},
		{ModeDocument, genai.TaskTypeRetrievalDocument},
		{"", genai.TaskTypeRetrievalDocument},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, geminiTaskType(tc.mode), string(tc.mode))
	}
}

func TestLMStudio_EmptyAnswer(t *testing.T) {
	srv := openAICompatible(t, "", nil)
	defer srv.Close()

	_, err := NewLMStudio(srv.URL, "e", "g").Generate(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrBadResponse)
}

func TestOpenAI_EmbedAndGenerate(t *testing.T) {
	srv := openAICompatible(t, "the answer", nil)
	defer srv.Close()

	p, err := NewOpenAI("sk-test", srv.URL+"/v1", "text-embedding-3-small", "gpt-4o-mini")
	require.NoError(t, err)

	vecs, err := p.Embed(context.Background(), []string{"x", "y"}, ModeQuery)
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0, 1}, {1, 1}}, vecs)

	out, err := p.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "the answer", out)
}

func TestOpenAI_RequiresKey(t *testing.T) {
	_, err := NewOpenAI("", "", "e", "g")
	assert.Error(t, err)
}

type countingProvider struct {
	calls    atomic.Int32
	deadline atomic.Bool
}

func (c *countingProvider) Embed(ctx context.Context, texts []string, mode Mode) ([][]float32, error) {
	c.calls.Add(1)
	_, ok := ctx.Deadline()
	c.deadline.Store(ok)
	return make([][]float32, len(texts)), nil
}

func (c *countingProvider) Generate(ctx context.Context, prompt string) (string, error) {
	c.calls.Add(1)
	return strings.ToUpper(prompt), nil
}

func TestLimited_AppliesTimeoutAndForwards(t *testing.T) {
	next := &countingProvider{}
	p := NewLimited(next, Limits{Timeout: time.Minute})

	_, err := p.Embed(context.Background(), []string{"a"}, ModeDocument)
	require.NoError(t, err)
	assert.True(t, next.deadline.Load())

	out, err := p.Generate(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "HI", out)
	assert.Equal(t, int32(2), next.calls.Load())
}

func TestLimited_WaitHonoursContext(t *testing.T) {
	next := &countingProvider{}
	p := NewLimited(next, Limits{RequestsPerSecond: 0.001, Burst: 1})

	_, err := p.Generate(context.Background(), "first")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = p.Generate(ctx, "second")
	assert.Error(t, err)
	assert.Equal(t, int32(1), next.calls.Load())
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(context.Background(), config.ProviderConfig{Name: "bard"})
	assert.Error(t, err)
}

func TestNew_LMStudioIsLimited(t *testing.T) {
	p, err := New(context.Background(), config.ProviderConfig{
		Name:          "lmstudio",
		Endpoint:      "http://localhost:1234",
		EmbedModel:    "e",
		GenerateModel: "g",
		Timeout:       time.Second,
	})
	require.NoError(t, err)
	_, ok := p.(*Limited)
	assert.True(t, ok)
	assert.NoError(t, Close(p))
}

func TestCheckCount(t *testing.T) {
	err := checkCount("x", [][]float32{{1}}, 2)
	assert.ErrorIs(t, err, ErrBadResponse)
	assert.NoError(t, checkCount("x", [][]float32{{1}}, 1))
}
