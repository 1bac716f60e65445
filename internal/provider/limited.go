package provider

import (
	"context"
	"errors"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/ericksa/clauselens/internal/retry"
)

// Limits caps how a Provider is called. A zero RequestsPerSecond disables
// rate limiting; a zero Timeout leaves the caller's deadline alone.
type Limits struct {
	RequestsPerSecond float64
	Burst             int
	Timeout           time.Duration
}

// Limited shares one token bucket across every Embed and Generate call of
// the wrapped provider. Requests the backend rejected with a client error
// come back marked permanent so retry loops stop at once.
type Limited struct {
	next    Provider
	limiter *rate.Limiter
	timeout time.Duration
}

func NewLimited(next Provider, l Limits) *Limited {
	lp := &Limited{next: next, timeout: l.Timeout}
	if l.RequestsPerSecond > 0 {
		burst := l.Burst
		if burst <= 0 {
			burst = 1
		}
		lp.limiter = rate.NewLimiter(rate.Limit(l.RequestsPerSecond), burst)
	}
	return lp
}

func (l *Limited) Embed(ctx context.Context, texts []string, mode Mode) ([][]float32, error) {
	ctx, cancel, err := l.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	vecs, err := l.next.Embed(ctx, texts, mode)
	return vecs, markRejected(err)
}

func (l *Limited) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel, err := l.acquire(ctx)
	if err != nil {
		return "", err
	}
	defer cancel()
	out, err := l.next.Generate(ctx, prompt)
	return out, markRejected(err)
}

func (l *Limited) acquire(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if l.limiter != nil {
		if err := l.limiter.Wait(ctx); err != nil {
			return nil, nil, err
		}
	}
	if l.timeout > 0 {
		ctx, cancel := context.WithTimeout(ctx, l.timeout)
		return ctx, cancel, nil
	}
	return ctx, func() {}, nil
}

// Close closes the wrapped provider.
func (l *Limited) Close() error {
	return Close(l.next)
}

// markRejected wraps 4xx failures other than timeouts and rate limiting in
// retry.Permanent.
func markRejected(err error) error {
	if err == nil {
		return nil
	}
	var (
		code   int
		apiErr *openai.APIError
		reqErr *openai.RequestError
	)
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		code = reqErr.HTTPStatusCode
	}
	if code >= 400 && code < 500 && code != http.StatusRequestTimeout && code != http.StatusTooManyRequests {
		return retry.Permanent(err)
	}
	return err
}
