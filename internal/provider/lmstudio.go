package provider

import (
	"context"
	"fmt"
	"sort"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// lmStudioKey fills the Authorization header; LM Studio ignores it.
const lmStudioKey = "lm-studio"

// LMStudio calls a local LM Studio server through its OpenAI-compatible
// endpoints. Nomic-style embedding models expect a task prefix, which is
// how the document/query mode is expressed.
type LMStudio struct {
	client        *openai.Client
	embedModel    openai.EmbeddingModel
	generateModel string
}

func NewLMStudio(baseURL, embedModel, generateModel string) *LMStudio {
	cfg := openai.DefaultConfig(lmStudioKey)
	cfg.BaseURL = strings.TrimRight(baseURL, "/") + "/v1"
	return &LMStudio{
		client:        openai.NewClientWithConfig(cfg),
		embedModel:    openai.EmbeddingModel(embedModel),
		generateModel: generateModel,
	}
}

func lmStudioPrefix(mode Mode) string {
	if mode == ModeQuery {
		return "search_query: "
	}
	return "search_document: "
}

func (l *LMStudio) Embed(ctx context.Context, texts []string, mode Mode) ([][]float32, error) {
	input := make([]string, len(texts))
	prefix := lmStudioPrefix(mode)
	for i, t := range texts {
		input[i] = prefix + t
	}

	resp, err := l.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: input,
		Model: l.embedModel,
	})
	if err != nil {
		return nil, &Error{Provider: "lmstudio", Op: "embed", Err: err}
	}

	data := resp.Data
	sort.SliceStable(data, func(i, j int) bool { return data[i].Index < data[j].Index })
	out := make([][]float32, len(data))
	for i, d := range data {
		out[i] = d.Embedding
	}
	if err := checkCount("lmstudio", out, len(texts)); err != nil {
		return nil, err
	}
	return out, nil
}

func (l *LMStudio) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := l.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: l.generateModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", &Error{Provider: "lmstudio", Op: "generate", Err: err}
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &Error{Provider: "lmstudio", Op: "generate", Err: fmt.Errorf("%w: no completion choices returned", ErrBadResponse)}
	}
	return resp.Choices[0].Message.Content, nil
}
