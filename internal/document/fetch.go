// Package document fetches PDFs from URLs or object storage and extracts
// their text.
package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultTimeout  = 30 * time.Second
	DefaultMaxBytes = 50 << 20
	// ObjectScheme addresses documents held in object storage.
	ObjectScheme = "s3"
)

var (
	// ErrSourceUnavailable matches every fetch failure.
	ErrSourceUnavailable = errors.New("document source unavailable")
	// ErrNotFound matches fetch failures where the document no longer
	// exists upstream.
	ErrNotFound = errors.New("document not found")
	ErrTooLarge = errors.New("document exceeds size limit")
)

// FetchError describes a failed fetch. StatusCode is the upstream HTTP
// status, or zero when none was received.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: upstream status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool {
	switch target {
	case ErrSourceUnavailable:
		return true
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound || e.StatusCode == http.StatusGone ||
			errors.Is(e.Err, ErrNotFound)
	}
	return false
}

// ObjectGetter reads objects out of a bucket. Implementations return an
// error matching ErrNotFound for missing objects.
type ObjectGetter interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
}

type FetcherOptions struct {
	Timeout  time.Duration
	MaxBytes int64
	// Objects serves s3:// URLs. Nil disables them.
	Objects ObjectGetter
	Client  *http.Client
}

type Fetcher struct {
	client   *http.Client
	maxBytes int64
	objects  ObjectGetter
}

func NewFetcher(opts FetcherOptions) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &Fetcher{client: client, maxBytes: opts.MaxBytes, objects: opts.Objects}
}

// Fetch downloads the document at rawURL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return f.fetchHTTP(ctx, rawURL)
	case ObjectScheme:
		return f.fetchObject(ctx, rawURL)
	default:
		return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("unsupported scheme %q", u.Scheme)}
	}
}

func (f *Fetcher) fetchHTTP(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: errors.New(resp.Status)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	if int64(len(data)) > f.maxBytes {
		return nil, &FetchError{URL: rawURL, Err: ErrTooLarge}
	}
	return data, nil
}

func (f *Fetcher) fetchObject(ctx context.Context, rawURL string) ([]byte, error) {
	if f.objects == nil {
		return nil, &FetchError{URL: rawURL, Err: errors.New("object storage is not configured")}
	}
	bucket, key, err := ParseObjectURL(rawURL)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	data, err := f.objects.Get(ctx, bucket, key)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	if int64(len(data)) > f.maxBytes {
		return nil, &FetchError{URL: rawURL, Err: ErrTooLarge}
	}
	return data, nil
}

// ParseObjectURL splits an s3://bucket/key URL.
func ParseObjectURL(raw string) (bucket, key string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", err
	}
	if !strings.EqualFold(u.Scheme, ObjectScheme) {
		return "", "", fmt.Errorf("not an object URL: %s", raw)
	}
	bucket, key = u.Host, strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", errors.New("object URL needs a bucket and key")
	}
	return bucket, key, nil
}
