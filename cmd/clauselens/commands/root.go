// Package commands holds the clauselens CLI.
package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ericksa/clauselens/internal/app"
	"github.com/ericksa/clauselens/internal/audit"
	"github.com/ericksa/clauselens/internal/config"
	"github.com/ericksa/clauselens/internal/legal"
)

var version = "dev"

func SetVersion(v string) { version = v }

type documentService interface {
	AnalyzeURL(ctx context.Context, url string) (*legal.Analysis, error)
	AnalyzeDocument(ctx context.Context, data []byte) (*legal.Analysis, error)
	Ask(ctx context.Context, url, question string) (string, error)
	AskDocument(ctx context.Context, key string, data []byte, question string) (string, error)
}

type environment struct {
	service documentService
	auditor *audit.Auditor
	close   func()
}

// openEnvironment loads configuration and builds the service. Tests
// replace it.
var openEnvironment = func(ctx context.Context) (*environment, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	a, err := app.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &environment{service: a.Service, auditor: a.Auditor, close: a.Close}, nil
}

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clauselens",
		Short: "Risk analysis and Q&A for legal PDFs",
		Long: `clauselens splits a legal PDF into clauses, scores each clause for risk
to the signing party, and answers questions about the document using only
its most relevant clauses.

Configuration is read from ./config.yaml, ~/.clauselens/config.yaml and
CLAUSELENS_* environment variables.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewAnalyzeCmd())
	cmd.AddCommand(NewAskCmd())
	cmd.AddCommand(NewMCPCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	})

	return cmd
}

func Execute() error {
	return NewRootCmd().Execute()
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") ||
		strings.HasPrefix(source, "https://") ||
		strings.HasPrefix(source, "s3://")
}

// readLocal reads a PDF from disk and returns its absolute path as a cache
// key.
func readLocal(path string) ([]byte, string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", path, err)
	}
	return data, abs, nil
}
