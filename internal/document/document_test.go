package document

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type objectMap map[string][]byte

func (m objectMap) Get(_ context.Context, bucket, key string) ([]byte, error) {
	data, ok := m[bucket+"/"+key]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", bucket, key, ErrNotFound)
	}
	return data, nil
}

func TestFetch_HTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/lease.pdf":
			w.Write([]byte("%PDF-1.4 body"))
		case "/gone.pdf":
			w.WriteHeader(http.StatusGone)
		case "/missing.pdf":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	f := NewFetcher(FetcherOptions{})

	data, err := f.Fetch(context.Background(), server.URL+"/lease.pdf")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 body", string(data))

	for _, path := range []string{"/gone.pdf", "/missing.pdf"} {
		_, err = f.Fetch(context.Background(), server.URL+path)
		assert.ErrorIs(t, err, ErrSourceUnavailable, path)
		assert.ErrorIs(t, err, ErrNotFound, path)
	}

	_, err = f.Fetch(context.Background(), server.URL+"/broken.pdf")
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	assert.NotErrorIs(t, err, ErrNotFound)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusInternalServerError, fe.StatusCode)
	assert.Contains(t, fe.Error(), "500")
}

func TestFetch_TooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer server.Close()

	f := NewFetcher(FetcherOptions{MaxBytes: 32})
	_, err := f.Fetch(context.Background(), server.URL)
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestFetch_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewFetcher(FetcherOptions{}).Fetch(context.Background(), url+"/lease.pdf")
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestFetch_Objects(t *testing.T) {
	f := NewFetcher(FetcherOptions{Objects: objectMap{"pdfs/pdf-1.pdf": []byte("stored")}})

	data, err := f.Fetch(context.Background(), "s3://pdfs/pdf-1.pdf")
	require.NoError(t, err)
	assert.Equal(t, "stored", string(data))

	_, err = f.Fetch(context.Background(), "s3://pdfs/pdf-2.pdf")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, ErrSourceUnavailable)

	_, err = f.Fetch(context.Background(), "s3://pdfs")
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestFetch_ObjectsDisabled(t *testing.T) {
	_, err := NewFetcher(FetcherOptions{}).Fetch(context.Background(), "s3://pdfs/pdf-1.pdf")
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestParseObjectURL(t *testing.T) {
	bucket, key, err := ParseObjectURL("s3://pdfs/uploads/pdf-1.pdf")
	require.NoError(t, err)
	assert.Equal(t, "pdfs", bucket)
	assert.Equal(t, "uploads/pdf-1.pdf", key)

	for _, raw := range []string{"https://host/a.pdf", "s3://pdfs", "s3:///key.pdf"} {
		_, _, err := ParseObjectURL(raw)
		assert.Error(t, err, raw)
	}
}

func TestFetch_ObjectURLNeedsKey(t *testing.T) {
	f := NewFetcher(FetcherOptions{Objects: objectMap{}})
	_, err := f.Fetch(context.Background(), "s3://pdfs")
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	assert.Contains(t, err.Error(), "bucket and key")
}

func TestFetch_UnsupportedScheme(t *testing.T) {
	_, err := NewFetcher(FetcherOptions{}).Fetch(context.Background(), "ftp://example.com/a.pdf")
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	assert.Contains(t, err.Error(), "unsupported scheme")
}

// testdata/lease.pdf has three pages; the second has no content stream.
func TestExtract_PagesInOrder(t *testing.T) {
	data, err := os.ReadFile("testdata/lease.pdf")
	require.NoError(t, err)

	text, err := PDFExtractor{}.Extract(data)
	require.NoError(t, err)

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	assert.Equal(t, []string{"The tenant pays rent monthly.", "Either party may terminate on notice."}, lines)
	assert.GreaterOrEqual(t, strings.Count(text, "\n"), 2, "one separator per page boundary")
}

func TestExtract_NotAPDF(t *testing.T) {
	_, err := PDFExtractor{}.Extract([]byte("definitely not a pdf"))
	assert.Error(t, err)
}

func TestExtract_Empty(t *testing.T) {
	_, err := PDFExtractor{}.Extract(nil)
	assert.Error(t, err)
}
