// Package provider abstracts the embedding and text-generation backends.
package provider

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ericksa/clauselens/internal/config"
)

// Mode tells the embedding backend what the text will be used for. Some
// backends produce different vectors for indexed documents and for queries.
type Mode string

const (
	ModeDocument Mode = "document"
	ModeQuery    Mode = "query"
)

// ErrBadResponse is returned when a backend answers without the content
// the caller asked for: no text, or a wrong number of vectors.
var ErrBadResponse = errors.New("bad provider response")

type Embedder interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string, mode Mode) ([][]float32, error)
}

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Provider interface {
	Embedder
	Generator
}

// Error wraps a backend failure with the backend name and operation.
type Error struct {
	Provider string
	Op       string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds the backend named in cfg, wrapped with its rate limit and
// per-call timeout.
func New(ctx context.Context, cfg config.ProviderConfig) (Provider, error) {
	var (
		p   Provider
		err error
	)
	switch cfg.Name {
	case "gemini":
		p, err = NewGemini(ctx, cfg.APIKey, cfg.EmbedModel, cfg.GenerateModel)
	case "openai":
		p, err = NewOpenAI(cfg.APIKey, cfg.Endpoint, cfg.EmbedModel, cfg.GenerateModel)
	case "lmstudio":
		p = NewLMStudio(cfg.Endpoint, cfg.EmbedModel, cfg.GenerateModel)
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Name)
	}
	if err != nil {
		return nil, err
	}
	return NewLimited(p, Limits{
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
		Timeout:           cfg.Timeout,
	}), nil
}

// Close releases backend resources when the provider holds any.
func Close(p Provider) error {
	if c, ok := p.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func checkCount(name string, vectors [][]float32, want int) error {
	if len(vectors) != want {
		return &Error{Provider: name, Op: "embed", Err: fmt.Errorf("%w: got %d vectors for %d texts", ErrBadResponse, len(vectors), want)}
	}
	return nil
}
