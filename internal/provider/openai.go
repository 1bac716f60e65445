package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAI uses the OpenAI API, or any server speaking it when endpoint is
// set. It has no query/document distinction, so Embed ignores the mode.
type OpenAI struct {
	client        *openai.Client
	embedModel    openai.EmbeddingModel
	generateModel string
}

func NewOpenAI(apiKey, endpoint, embedModel, generateModel string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	cfg := openai.DefaultConfig(apiKey)
	if endpoint != "" {
		cfg.BaseURL = endpoint
	}
	return &OpenAI{
		client:        openai.NewClientWithConfig(cfg),
		embedModel:    openai.EmbeddingModel(embedModel),
		generateModel: generateModel,
	}, nil
}

func (o *OpenAI) Embed(ctx context.Context, texts []string, _ Mode) ([][]float32, error) {
	resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: o.embedModel,
	})
	if err != nil {
		return nil, &Error{Provider: "openai", Op: "embed", Err: err}
	}

	data := resp.Data
	sort.SliceStable(data, func(i, j int) bool { return data[i].Index < data[j].Index })
	out := make([][]float32, len(data))
	for i, d := range data {
		out[i] = d.Embedding
	}
	if err := checkCount("openai", out, len(texts)); err != nil {
		return nil, err
	}
	return out, nil
}

func (o *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.generateModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", &Error{Provider: "openai", Op: "generate", Err: err}
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &Error{Provider: "openai", Op: "generate", Err: fmt.Errorf("%w: no completion choices returned", ErrBadResponse)}
	}
	return resp.Choices[0].Message.Content, nil
}
