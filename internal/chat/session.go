// Package chat answers questions about one document from its most relevant
// clauses.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ericksa/clauselens/internal/provider"
	"github.com/ericksa/clauselens/internal/retry"
	"github.com/ericksa/clauselens/internal/vectorindex"
)

const DefaultTopK = 3

var (
	// ErrNoClauses means the document has nothing to index, so it cannot
	// be chatted with.
	ErrNoClauses     = errors.New("document has no clauses to chat about")
	ErrEmptyQuestion = errors.New("question is empty")
)

type Options struct {
	TopK  int
	Retry retry.Policy
}

// Session holds one document's clauses and their index. It is immutable
// after construction and safe for concurrent use.
type Session struct {
	clauses []string
	index   *vectorindex.Index
	p       provider.Provider
	opts    Options
}

// NewSession embeds every clause in one document-mode call and indexes the
// vectors.
func NewSession(ctx context.Context, clauses []string, p provider.Provider, opts Options) (*Session, error) {
	if len(clauses) == 0 {
		return nil, ErrNoClauses
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}

	var vectors [][]float32
	err := retry.Do(ctx, opts.Retry, func(ctx context.Context) error {
		var err error
		vectors, err = p.Embed(ctx, clauses, provider.ModeDocument)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("embed clauses: %w", err)
	}

	index, err := vectorindex.Build(vectors)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}

	return &Session{
		clauses: append([]string(nil), clauses...),
		index:   index,
		p:       p,
		opts:    opts,
	}, nil
}

func (s *Session) Clauses() []string {
	return append([]string(nil), s.clauses...)
}

// Retrieve returns the clauses nearest to question, closest first.
func (s *Session) Retrieve(ctx context.Context, question string) ([]string, error) {
	var vectors [][]float32
	err := retry.Do(ctx, s.opts.Retry, func(ctx context.Context) error {
		var err error
		vectors, err = s.p.Embed(ctx, []string{question}, provider.ModeQuery)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	hits, err := s.index.Search(vectors[0], s.opts.TopK)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = s.clauses[h.Index]
	}
	return out, nil
}

// Ask answers question using only the retrieved clauses as context.
func (s *Session) Ask(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}

	relevant, err := s.Retrieve(ctx, question)
	if err != nil {
		return "", err
	}

	prompt := BuildPrompt(strings.Join(relevant, "\n"), question)
	var answer string
	err = retry.Do(ctx, s.opts.Retry, func(ctx context.Context) error {
		var err error
		answer, err = s.p.Generate(ctx, prompt)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

func BuildPrompt(context, question string) string {
	return "Using ONLY the context below, answer the user's question.\n\nCONTEXT:\n" + context +
		"\n\nQUESTION: " + question + "\n\nANSWER:"
}
