// Package providertest has an in-memory provider for tests.
package providertest

import (
	"context"
	"strings"
	"sync"

	"github.com/ericksa/clauselens/internal/provider"
)

type EmbedCall struct {
	Texts []string
	Mode  provider.Mode
}

// Fake records every call. EmbedFunc and GenerateFunc default to
// KeywordEmbedding(nil) and an empty answer.
type Fake struct {
	EmbedFunc    func(ctx context.Context, texts []string, mode provider.Mode) ([][]float32, error)
	GenerateFunc func(ctx context.Context, prompt string) (string, error)

	mu         sync.Mutex
	embedCalls []EmbedCall
	prompts    []string
}

func (f *Fake) Embed(ctx context.Context, texts []string, mode provider.Mode) ([][]float32, error) {
	f.mu.Lock()
	f.embedCalls = append(f.embedCalls, EmbedCall{Texts: append([]string(nil), texts...), Mode: mode})
	f.mu.Unlock()

	if f.EmbedFunc != nil {
		return f.EmbedFunc(ctx, texts, mode)
	}
	return KeywordEmbedding(nil)(ctx, texts, mode)
}

func (f *Fake) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	if f.GenerateFunc != nil {
		return f.GenerateFunc(ctx, prompt)
	}
	return "", nil
}

func (f *Fake) EmbedCalls() []EmbedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]EmbedCall(nil), f.embedCalls...)
}

func (f *Fake) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

// DefaultVocabulary covers the lease examples used across the tests.
var DefaultVocabulary = []string{"terminat", "notice", "liab", "damage", "rent", "deposit", "pet"}

// KeywordEmbedding counts, for each vocabulary stem, how many words of the
// text contain it. Texts about the same terms land close together.
func KeywordEmbedding(vocab []string) func(context.Context, []string, provider.Mode) ([][]float32, error) {
	if vocab == nil {
		vocab = DefaultVocabulary
	}
	return func(_ context.Context, texts []string, _ provider.Mode) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i, t := range texts {
			v := make([]float32, len(vocab))
			for _, w := range strings.Fields(strings.ToLower(t)) {
				for j, stem := range vocab {
					if strings.Contains(w, stem) {
						v[j]++
					}
				}
			}
			out[i] = v
		}
		return out, nil
	}
}
