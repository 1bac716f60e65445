package config

import (
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"
)

var bucketNameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]*[a-z0-9]$`)

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	// Validate server configuration
	if c.Server.Addr == "" {
		return errors.New("server address cannot be empty")
	}

	// Validate address format and port
	if _, err := net.ResolveTCPAddr("tcp", c.Server.Addr); err != nil {
		return fmt.Errorf("invalid server address: %v", err)
	}

	if err := c.Provider.validate(); err != nil {
		return err
	}

	// Validate analysis configuration
	if c.Analysis.BatchSize <= 0 {
		return errors.New("analysis batch_size must be positive")
	}
	if c.Analysis.Retries < 0 {
		return errors.New("analysis retries cannot be negative")
	}
	if c.Analysis.RetryDelay < 0 {
		return errors.New("analysis retry_delay cannot be negative")
	}
	if c.Analysis.Concurrency <= 0 {
		return errors.New("analysis concurrency must be positive")
	}

	if c.Chat.TopK <= 0 {
		return errors.New("chat top_k must be positive")
	}
	if c.Sessions.Capacity <= 0 {
		return errors.New("sessions capacity must be positive")
	}
	if c.Fetch.Timeout <= 0 {
		return errors.New("fetch timeout must be positive")
	}
	if c.Fetch.MaxBytes <= 0 {
		return errors.New("fetch max_bytes must be positive")
	}

	// Validate MinIO configuration
	if c.Storage.Enabled {
		if c.Storage.Endpoint == "" {
			return errors.New("storage endpoint cannot be empty when storage is enabled")
		}
		if c.Storage.AccessKey == "" {
			return errors.New("storage access key cannot be empty when storage is enabled")
		}
		if c.Storage.SecretKey == "" {
			return errors.New("storage secret key cannot be empty when storage is enabled")
		}
		if !isValidBucketName(c.Storage.Bucket) {
			return fmt.Errorf("invalid storage bucket name: %q", c.Storage.Bucket)
		}
	}

	if c.Audit.Enabled && c.Audit.Path == "" {
		return errors.New("audit path cannot be empty when audit is enabled")
	}

	return nil
}

func (p ProviderConfig) validate() error {
	switch p.Name {
	case "gemini", "openai":
		if p.APIKey == "" {
			return fmt.Errorf("provider %s requires an api key", p.Name)
		}
	case "lmstudio":
		if p.Endpoint == "" {
			return errors.New("provider lmstudio requires an endpoint")
		}
	case "":
		return errors.New("provider name cannot be empty")
	default:
		return fmt.Errorf("unknown provider: %s", p.Name)
	}
	if p.EmbedModel == "" {
		return errors.New("provider embed_model cannot be empty")
	}
	if p.GenerateModel == "" {
		return errors.New("provider generate_model cannot be empty")
	}
	if p.Timeout <= 0 {
		return errors.New("provider timeout must be positive")
	}
	if p.RequestsPerSecond < 0 {
		return errors.New("provider requests_per_second cannot be negative")
	}
	if p.RequestsPerSecond > 0 && p.Burst <= 0 {
		return errors.New("provider burst must be positive when rate limiting")
	}
	return nil
}

// isValidBucketName checks if a bucket name is valid according to MinIO/S3 rules
func isValidBucketName(name string) bool {
	if len(name) < 3 || len(name) > 63 {
		return false
	}
	if strings.Contains(name, "..") {
		return false
	}
	return bucketNameRe.MatchString(name)
}
