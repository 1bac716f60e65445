package config

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the complete clauselens configuration
// The structure matches the config.yaml file and can be overridden by environment variables

type Config struct {
	Server    ServerConfig    `json:"server" mapstructure:"server"`
	Provider  ProviderConfig  `json:"provider" mapstructure:"provider"`
	Analysis  AnalysisConfig  `json:"analysis" mapstructure:"analysis"`
	Chat      ChatConfig      `json:"chat" mapstructure:"chat"`
	Segmenter SegmenterConfig `json:"segmenter" mapstructure:"segmenter"`
	Sessions  SessionsConfig  `json:"sessions" mapstructure:"sessions"`
	Fetch     FetchConfig     `json:"fetch" mapstructure:"fetch"`
	Storage   StorageConfig   `json:"storage" mapstructure:"storage"`
	Audit     AuditConfig     `json:"audit" mapstructure:"audit"`
}

// ServerConfig contains HTTP server configuration

type ServerConfig struct {
	Addr         string        `json:"addr" mapstructure:"addr"`
	ReadTimeout  time.Duration `json:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout" mapstructure:"write_timeout"`
}

// ProviderConfig selects the embedding and generation backend

type ProviderConfig struct {
	Name              string        `json:"name" mapstructure:"name"`
	APIKey            string        `json:"api_key" mapstructure:"api_key"`
	Endpoint          string        `json:"endpoint" mapstructure:"endpoint"`
	EmbedModel        string        `json:"embed_model" mapstructure:"embed_model"`
	GenerateModel     string        `json:"generate_model" mapstructure:"generate_model"`
	AnalyzeModel      string        `json:"analyze_model" mapstructure:"analyze_model"`
	Timeout           time.Duration `json:"timeout" mapstructure:"timeout"`
	RequestsPerSecond float64       `json:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `json:"burst" mapstructure:"burst"`
}

// ForAnalysis returns a copy whose generation model is the one used for
// clause risk analysis.
func (p ProviderConfig) ForAnalysis() ProviderConfig {
	if p.AnalyzeModel != "" {
		p.GenerateModel = p.AnalyzeModel
	}
	return p
}

type AnalysisConfig struct {
	BatchSize   int           `json:"batch_size" mapstructure:"batch_size"`
	Retries     int           `json:"retries" mapstructure:"retries"`
	RetryDelay  time.Duration `json:"retry_delay" mapstructure:"retry_delay"`
	Concurrency int           `json:"concurrency" mapstructure:"concurrency"`
	StrictJSON  bool          `json:"strict_json" mapstructure:"strict_json"`
}

type ChatConfig struct {
	TopK int `json:"top_k" mapstructure:"top_k"`
}

type SegmenterConfig struct {
	HeadingAware bool `json:"heading_aware" mapstructure:"heading_aware"`
}

type SessionsConfig struct {
	Capacity int `json:"capacity" mapstructure:"capacity"`
}

type FetchConfig struct {
	Timeout  time.Duration `json:"timeout" mapstructure:"timeout"`
	MaxBytes int64         `json:"max_bytes" mapstructure:"max_bytes"`
}

// StorageConfig contains the S3-compatible object store used for uploads

type StorageConfig struct {
	Enabled   bool   `json:"enabled" mapstructure:"enabled"`
	Endpoint  string `json:"endpoint" mapstructure:"endpoint"`
	AccessKey string `json:"access_key" mapstructure:"access_key"`
	SecretKey string `json:"secret_key" mapstructure:"secret_key"`
	UseSSL    bool   `json:"use_ssl" mapstructure:"use_ssl"`
	Bucket    string `json:"bucket" mapstructure:"bucket"`
}

type AuditConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" mapstructure:"path"`
}

// Load loads the configuration from file and environment variables
func Load() (*Config, error) {
	// Load .env first (ignore error if not present)
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.clauselens")
	v.SetEnvPrefix("CLAUSELENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found, using defaults")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// The original deployment only knew GOOGLE_API_KEY
	if cfg.Provider.APIKey == "" && cfg.Provider.Name == "gemini" {
		cfg.Provider.APIKey = os.Getenv("GOOGLE_API_KEY")
	}
	if cfg.Provider.APIKey == "" && cfg.Provider.Name == "openai" {
		cfg.Provider.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	cfg.Audit.Path = resolvePath(cfg.Audit.Path)
	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "5m")

	// Provider defaults
	v.SetDefault("provider.name", "gemini")
	v.SetDefault("provider.endpoint", "")
	v.SetDefault("provider.embed_model", "text-embedding-004")
	v.SetDefault("provider.generate_model", "gemini-1.5-flash")
	v.SetDefault("provider.analyze_model", "gemini-2.5-flash")
	v.SetDefault("provider.timeout", "120s")
	v.SetDefault("provider.requests_per_second", 5.0)
	v.SetDefault("provider.burst", 5)

	// Analysis defaults
	v.SetDefault("analysis.batch_size", 10)
	v.SetDefault("analysis.retries", 2)
	v.SetDefault("analysis.retry_delay", "2s")
	v.SetDefault("analysis.concurrency", 1)
	v.SetDefault("analysis.strict_json", false)

	v.SetDefault("chat.top_k", 3)
	v.SetDefault("segmenter.heading_aware", true)
	v.SetDefault("sessions.capacity", 64)

	// Fetch defaults
	v.SetDefault("fetch.timeout", "30s")
	v.SetDefault("fetch.max_bytes", 50<<20)

	// MinIO defaults
	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.endpoint", "127.0.0.1:9000")
	v.SetDefault("storage.access_key", "minioadmin")
	v.SetDefault("storage.secret_key", "minioadmin")
	v.SetDefault("storage.use_ssl", false)
	v.SetDefault("storage.bucket", "pdfs")

	v.SetDefault("audit.enabled", true)
	v.SetDefault("audit.path", "~/.clauselens/audit.db")
}

// resolvePath resolves ~ to home directory and cleans the path
func resolvePath(p string) string {
	if p == "" {
		return p
	}
	if p[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			p = filepath.Join(home, p[1:])
		}
	}
	return filepath.Clean(p)
}
