package config

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8000"},
		Provider: ProviderConfig{
			Name:              "gemini",
			APIKey:            "secret-key",
			EmbedModel:        "text-embedding-004",
			GenerateModel:     "gemini-1.5-flash",
			AnalyzeModel:      "gemini-2.5-flash",
			Timeout:           time.Minute,
			RequestsPerSecond: 5,
			Burst:             5,
		},
		Analysis:  AnalysisConfig{BatchSize: 10, Retries: 2, RetryDelay: 2 * time.Second, Concurrency: 1},
		Chat:      ChatConfig{TopK: 3},
		Segmenter: SegmenterConfig{HeadingAware: true},
		Sessions:  SessionsConfig{Capacity: 64},
		Fetch:     FetchConfig{Timeout: 30 * time.Second, MaxBytes: 1 << 20},
		Storage: StorageConfig{
			Enabled:   true,
			Endpoint:  "127.0.0.1:9000",
			AccessKey: "minioadmin",
			SecretKey: "minioadmin",
			Bucket:    "pdfs",
		},
		Audit: AuditConfig{Enabled: true, Path: "/tmp/audit.db"},
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CLAUSELENS_PROVIDER_API_KEY", "from-env")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, "gemini", cfg.Provider.Name)
	assert.Equal(t, "from-env", cfg.Provider.APIKey)
	assert.Equal(t, 10, cfg.Analysis.BatchSize)
	assert.Equal(t, 2, cfg.Analysis.Retries)
	assert.Equal(t, 2*time.Second, cfg.Analysis.RetryDelay)
	assert.Equal(t, 3, cfg.Chat.TopK)
	assert.Equal(t, 30*time.Second, cfg.Fetch.Timeout)
	assert.True(t, cfg.Segmenter.HeadingAware)
	require.NoError(t, cfg.Validate())
}

func TestLoad_GoogleAPIKeyFallback(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GOOGLE_API_KEY", "legacy-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "legacy-key", cfg.Provider.APIKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"empty addr", func(c *Config) { c.Server.Addr = "" }, "server address"},
		{"unknown provider", func(c *Config) { c.Provider.Name = "bard" }, "unknown provider"},
		{"missing api key", func(c *Config) { c.Provider.APIKey = "" }, "requires an api key"},
		{"lmstudio without endpoint", func(c *Config) { c.Provider.Name = "lmstudio" }, "requires an endpoint"},
		{"zero batch size", func(c *Config) { c.Analysis.BatchSize = 0 }, "batch_size"},
		{"negative retries", func(c *Config) { c.Analysis.Retries = -1 }, "retries"},
		{"zero top_k", func(c *Config) { c.Chat.TopK = 0 }, "top_k"},
		{"zero capacity", func(c *Config) { c.Sessions.Capacity = 0 }, "capacity"},
		{"bad bucket", func(c *Config) { c.Storage.Bucket = "Bad_Bucket" }, "bucket"},
		{"storage disabled ignores bucket", func(c *Config) {
			c.Storage.Enabled = false
			c.Storage.Bucket = ""
		}, ""},
		{"rate limit without burst", func(c *Config) { c.Provider.Burst = 0 }, "burst"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestForAnalysis(t *testing.T) {
	p := validConfig().Provider
	assert.Equal(t, "gemini-2.5-flash", p.ForAnalysis().GenerateModel)
	assert.Equal(t, "gemini-1.5-flash", p.GenerateModel)

	p.AnalyzeModel = ""
	assert.Equal(t, "gemini-1.5-flash", p.ForAnalysis().GenerateModel)
}

func TestConfigAPI_RedactsSecrets(t *testing.T) {
	api := NewConfigAPI(validConfig())

	req := httptest.NewRequest(http.MethodGet, "/configure", nil)
	w := httptest.NewRecorder()
	api.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "secret-key")
	assert.NotContains(t, w.Body.String(), "minioadmin")

	var got Config
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "***", got.Provider.APIKey)
	assert.Equal(t, "gemini", got.Provider.Name)
}

func TestConfigAPI_Section(t *testing.T) {
	api := NewConfigAPI(validConfig())

	req := httptest.NewRequest(http.MethodGet, "/configure/analysis", nil)
	w := httptest.NewRecorder()
	api.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"batch_size":10`)

	req = httptest.NewRequest(http.MethodGet, "/configure/nope", nil)
	w = httptest.NewRecorder()
	api.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
