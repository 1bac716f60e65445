package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ericksa/clauselens/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Provider: config.ProviderConfig{
			Name:              "lmstudio",
			Endpoint:          "http://127.0.0.1:1234",
			EmbedModel:        "nomic-embed-text",
			GenerateModel:     "qwen",
			Timeout:           time.Second,
			RequestsPerSecond: 5,
			Burst:             5,
		},
		Chat:     config.ChatConfig{TopK: 3},
		Sessions: config.SessionsConfig{Capacity: 4},
		Fetch:    config.FetchConfig{Timeout: time.Second, MaxBytes: 1 << 20},
		Audit:    config.AuditConfig{Enabled: true, Path: filepath.Join(t.TempDir(), "audit.db")},
	}
}

func TestNew_WiresComponents(t *testing.T) {
	a, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Service)
	assert.NotNil(t, a.Auditor)
	assert.Nil(t, a.Store)
	assert.Len(t, a.providers, 2)
}

func TestNew_AuditDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Audit.Enabled = false

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()
	assert.Nil(t, a.Auditor)
}

func TestNew_UnknownProvider(t *testing.T) {
	cfg := testConfig(t)
	cfg.Provider.Name = "mystery"

	_, err := New(context.Background(), cfg)
	assert.ErrorContains(t, err, "unknown provider")
}

func TestNew_SourceUnavailableSurfaces(t *testing.T) {
	a, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Service.AnalyzeURL(context.Background(), "s3://pdfs/pdf-1.pdf")
	assert.ErrorContains(t, err, "object storage is not configured")
}
