package risk

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ericksa/clauselens/internal/provider"
	"github.com/ericksa/clauselens/internal/retry"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultBatchSize  = 10
	DefaultRetries    = 2
	DefaultRetryDelay = 2 * time.Second
)

const systemPrompt = `You are an expert legal risk analyst. YOUR CLIENT IS THE PERSON SIGNING THE DOCUMENT (e.g., the Lessee or Occupant). Your entire analysis must be from THEIR PERSPECTIVE, identifying risks that could negatively affect them. You will be given a JSON array of legal clauses, each with a unique "id". Your task is to analyze every clause and return a single JSON array as your response. Each object in your returned array must correspond to a clause from the input and contain: 1. "id": The original ID of the clause. 2. "analysis": An object containing your analysis with the following fields: - "risky": A boolean (true/false). - "score": An integer from 0 (no risk) to 100 (critical risk). - "summary": A concise, one-sentence summary of the clause's meaning. - "reason": A concise, one-sentence explanation. - "category": One of [%s]. Process all clauses provided in the input JSON and respond ONLY with the resulting JSON array.`

type clauseInput struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// buildPrompt renders the analysis prompt for one batch.
func buildPrompt(batch []clauseInput) string {
	quoted := make([]string, len(Categories))
	for i, c := range Categories {
		quoted[i] = "'" + string(c) + "'"
	}
	payload, _ := json.MarshalIndent(batch, "", "  ")
	return fmt.Sprintf(systemPrompt, strings.Join(quoted, ", ")) + "\n\nCLAUSES_JSON:\n" + string(payload)
}

type BatcherConfig struct {
	BatchSize  int
	Retries    int
	RetryDelay time.Duration
	// Concurrency above 1 analyses that many batches at once.
	Concurrency int
	// StrictJSON treats an unparseable reply as a failed attempt instead of
	// an empty batch.
	StrictJSON bool
}

// Batcher sends clauses to the model in fixed-size batches.
type Batcher struct {
	gen provider.Generator
	cfg BatcherConfig
}

func NewBatcher(gen provider.Generator, cfg BatcherConfig) *Batcher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Batcher{gen: gen, cfg: cfg}
}

// Analyze scores every clause. Clause ids are their positions in clauses.
// The returned results follow batch order; each result's Clause is the
// input text for the id the model returned.
func (b *Batcher) Analyze(ctx context.Context, clauses []string) ([]Result, error) {
	var batches [][]clauseInput
	for start := 0; start < len(clauses); start += b.cfg.BatchSize {
		end := min(start+b.cfg.BatchSize, len(clauses))
		batch := make([]clauseInput, 0, end-start)
		for i := start; i < end; i++ {
			batch = append(batch, clauseInput{ID: i, Text: clauses[i]})
		}
		batches = append(batches, batch)
	}

	perBatch := make([][]Result, len(batches))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Concurrency)
	for i, batch := range batches {
		g.Go(func() error {
			res, err := b.analyzeBatch(gctx, i, batch)
			if err != nil {
				return err
			}
			perBatch[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := []Result{}
	for _, r := range perBatch {
		results = append(results, r...)
	}
	return results, nil
}

func (b *Batcher) analyzeBatch(ctx context.Context, n int, batch []clauseInput) ([]Result, error) {
	prompt := buildPrompt(batch)
	var items []Item

	err := retry.Do(ctx, retry.Policy{Retries: b.cfg.Retries, Delay: b.cfg.RetryDelay}, func(ctx context.Context) error {
		reply, err := b.gen.Generate(ctx, prompt)
		if err != nil {
			return err
		}
		parsed, err := ParseResponse(reply)
		if err != nil {
			if b.cfg.StrictJSON {
				return err
			}
			log.Printf("batch %d: %v; treating batch as empty", n, err)
			parsed = nil
		}
		items = parsed
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("analyze batch %d: %w", n, err)
	}
	return merge(batch, items), nil
}

// merge attaches clause text to each returned analysis. Ids outside the
// batch and repeated ids are dropped.
func merge(batch []clauseInput, items []Item) []Result {
	byID := make(map[int]string, len(batch))
	for _, c := range batch {
		byID[c.ID] = c.Text
	}
	seen := make(map[int]bool, len(items))
	out := make([]Result, 0, len(items))
	for _, it := range items {
		text, ok := byID[it.ID]
		if !ok || seen[it.ID] {
			continue
		}
		seen[it.ID] = true
		out = append(out, Result{Clause: text, Analysis: it.Analysis})
	}
	return out
}
