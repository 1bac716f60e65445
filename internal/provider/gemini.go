package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// geminiBatchLimit is the most texts BatchEmbedContents accepts at once.
const geminiBatchLimit = 100

// Gemini talks to the Google Generative Language API.
type Gemini struct {
	client        *genai.Client
	embedModel    string
	generateModel string
}

func NewGemini(ctx context.Context, apiKey, embedModel, generateModel string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Gemini{
		client:        client,
		embedModel:    embedModel,
		generateModel: generateModel,
	}, nil
}

func geminiTaskType(mode Mode) genai.TaskType {
	if mode == ModeQuery {
		return genai.TaskTypeRetrievalQuery
	}
	return genai.TaskTypeRetrievalDocument
}

func (g *Gemini) Embed(ctx context.Context, texts []string, mode Mode) ([][]float32, error) {
	// EmbeddingModel carries the task type, so each call gets its own.
	em := g.client.EmbeddingModel(g.embedModel)
	em.TaskType = geminiTaskType(mode)

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += geminiBatchLimit {
		end := min(start+geminiBatchLimit, len(texts))
		batch := em.NewBatch()
		for _, t := range texts[start:end] {
			batch.AddContent(genai.Text(t))
		}
		resp, err := em.BatchEmbedContents(ctx, batch)
		if err != nil {
			return nil, &Error{Provider: "gemini", Op: "embed", Err: err}
		}
		for _, e := range resp.Embeddings {
			if e == nil {
				return nil, &Error{Provider: "gemini", Op: "embed", Err: fmt.Errorf("%w: nil embedding", ErrBadResponse)}
			}
			out = append(out, e.Values)
		}
	}
	if err := checkCount("gemini", out, len(texts)); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	model := g.client.GenerativeModel(g.generateModel)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", &Error{Provider: "gemini", Op: "generate", Err: err}
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		var sb strings.Builder
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
		if sb.Len() > 0 {
			return sb.String(), nil
		}
	}
	return "", &Error{Provider: "gemini", Op: "generate", Err: fmt.Errorf("%w: no text candidates", ErrBadResponse)}
}

func (g *Gemini) Close() error {
	return g.client.Close()
}
