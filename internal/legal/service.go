// Package legal ties document fetching, clause segmentation, risk analysis
// and document chat together.
package legal

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/ericksa/clauselens/internal/chat"
	"github.com/ericksa/clauselens/internal/provider"
	"github.com/ericksa/clauselens/internal/risk"
	"github.com/ericksa/clauselens/internal/sessions"
)

type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type Extractor interface {
	Extract(data []byte) (string, error)
}

type Segmenter interface {
	Segment(text string) []string
}

// Analysis is the body returned for an analysed document.
type Analysis struct {
	DocumentSummary risk.Report   `json:"document_summary"`
	Clauses         []risk.Result `json:"clause_by_clause_analysis"`
}

// Deps are the collaborators a Service is built from. Analyzer and Chat may
// be the same provider configured with different generation models.
type Deps struct {
	Fetcher   Fetcher
	Extractor Extractor
	Segmenter Segmenter
	Analyzer  provider.Generator
	Chat      provider.Provider
}

type Options struct {
	Batcher         risk.BatcherConfig
	Chat            chat.Options
	SessionCapacity int
}

type Service struct {
	fetcher   Fetcher
	extractor Extractor
	segmenter Segmenter
	batcher   *risk.Batcher
	chat      provider.Provider
	chatOpts  chat.Options
	sessions  *sessions.Cache[*chat.Session]
}

func NewService(deps Deps, opts Options) (*Service, error) {
	cache, err := sessions.New[*chat.Session](opts.SessionCapacity)
	if err != nil {
		return nil, err
	}
	return &Service{
		fetcher:   deps.Fetcher,
		extractor: deps.Extractor,
		segmenter: deps.Segmenter,
		batcher:   risk.NewBatcher(deps.Analyzer, opts.Batcher),
		chat:      deps.Chat,
		chatOpts:  opts.Chat,
		sessions:  cache,
	}, nil
}

// AnalyzeURL fetches the PDF at url and analyses it. Fetch failures are
// returned as *document.FetchError.
func (s *Service) AnalyzeURL(ctx context.Context, url string) (*Analysis, error) {
	data, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return s.AnalyzeDocument(ctx, data)
}

// AnalyzeDocument scores every clause of a PDF. A document without text or
// clauses yields a zero-score report, not an error.
func (s *Service) AnalyzeDocument(ctx context.Context, data []byte) (*Analysis, error) {
	clauses, err := s.clauses(data)
	if err != nil {
		return nil, err
	}
	if clauses == nil {
		return &Analysis{DocumentSummary: risk.Empty(risk.NoTextSummary), Clauses: []risk.Result{}}, nil
	}
	if len(clauses) == 0 {
		return &Analysis{DocumentSummary: risk.Empty(risk.NoClausesFound), Clauses: []risk.Result{}}, nil
	}

	log.Printf("Analyzing %d clauses", len(clauses))
	results, err := s.batcher.Analyze(ctx, clauses)
	if err != nil {
		return nil, err
	}
	return &Analysis{DocumentSummary: risk.Summarize(results), Clauses: results}, nil
}

// Ask answers question about the document at url. The document's chat
// session is built on first use and cached by url.
func (s *Service) Ask(ctx context.Context, url, question string) (string, error) {
	return s.ask(ctx, url, question, func(ctx context.Context) ([]byte, error) {
		return s.fetcher.Fetch(ctx, url)
	})
}

// AskDocument is Ask for a document already in hand, cached under key.
func (s *Service) AskDocument(ctx context.Context, key string, data []byte, question string) (string, error) {
	return s.ask(ctx, key, question, func(context.Context) ([]byte, error) {
		return data, nil
	})
}

func (s *Service) ask(ctx context.Context, key, question string, load func(context.Context) ([]byte, error)) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", chat.ErrEmptyQuestion
	}

	session, err := s.sessions.GetOrCreate(ctx, key, func(ctx context.Context) (*chat.Session, error) {
		log.Printf("Creating chat session for %s", key)
		data, err := load(ctx)
		if err != nil {
			return nil, err
		}
		clauses, err := s.clauses(data)
		if err != nil {
			return nil, err
		}
		if len(clauses) == 0 {
			return nil, chat.ErrNoClauses
		}
		return chat.NewSession(ctx, clauses, s.chat, s.chatOpts)
	})
	if err != nil {
		return "", err
	}
	return session.Ask(ctx, question)
}

// clauses returns nil when the PDF has no text and an empty slice when the
// text has no clauses.
func (s *Service) clauses(data []byte) ([]string, error) {
	text, err := s.extractor.Extract(data)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return s.segmenter.Segment(text), nil
}
