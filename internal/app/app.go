// Package app assembles the document service and its backing stores from
// configuration. The gateway and the CLI share it.
package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ericksa/clauselens/internal/audit"
	"github.com/ericksa/clauselens/internal/chat"
	"github.com/ericksa/clauselens/internal/config"
	"github.com/ericksa/clauselens/internal/document"
	"github.com/ericksa/clauselens/internal/legal"
	"github.com/ericksa/clauselens/internal/provider"
	"github.com/ericksa/clauselens/internal/retry"
	"github.com/ericksa/clauselens/internal/risk"
	"github.com/ericksa/clauselens/internal/segmenter"
	"github.com/ericksa/clauselens/internal/storage"
)

const bucketCheckTimeout = 10 * time.Second

type App struct {
	Config  *config.Config
	Service *legal.Service
	// Store is nil when object storage is disabled.
	Store *storage.Store
	// Auditor is nil when auditing is disabled.
	Auditor *audit.Auditor

	providers []provider.Provider
}

// New builds every component named in cfg. Call Close when done.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	analyzer, err := provider.New(ctx, cfg.Provider.ForAnalysis())
	if err != nil {
		return nil, fmt.Errorf("analysis provider: %w", err)
	}
	a.providers = append(a.providers, analyzer)

	chatter, err := provider.New(ctx, cfg.Provider)
	if err != nil {
		return nil, fmt.Errorf("chat provider: %w", err)
	}
	a.providers = append(a.providers, chatter)

	splitter, err := segmenter.NewPunktSplitter()
	if err != nil {
		return nil, err
	}

	fetchOpts := document.FetcherOptions{
		Timeout:  cfg.Fetch.Timeout,
		MaxBytes: cfg.Fetch.MaxBytes,
	}
	if cfg.Storage.Enabled {
		store, err := storage.New(cfg.Storage)
		if err != nil {
			return nil, err
		}
		bctx, cancel := context.WithTimeout(ctx, bucketCheckTimeout)
		if err := store.EnsureBucket(bctx); err != nil {
			log.Printf("Warning: object storage not ready: %v", err)
		}
		cancel()
		a.Store = store
		fetchOpts.Objects = store
	}

	if cfg.Audit.Enabled {
		auditor, err := audit.NewAuditor(cfg.Audit.Path)
		if err != nil {
			return nil, err
		}
		a.Auditor = auditor
	}

	svc, err := legal.NewService(legal.Deps{
		Fetcher:   document.NewFetcher(fetchOpts),
		Extractor: document.PDFExtractor{},
		Segmenter: segmenter.New(splitter, segmenter.Options{HeadingAware: cfg.Segmenter.HeadingAware}),
		Analyzer:  analyzer,
		Chat:      chatter,
	}, legal.Options{
		Batcher: risk.BatcherConfig{
			BatchSize:   cfg.Analysis.BatchSize,
			Retries:     cfg.Analysis.Retries,
			RetryDelay:  cfg.Analysis.RetryDelay,
			Concurrency: cfg.Analysis.Concurrency,
			StrictJSON:  cfg.Analysis.StrictJSON,
		},
		Chat: chat.Options{
			TopK:  cfg.Chat.TopK,
			Retry: retry.Policy{Retries: cfg.Analysis.Retries, Delay: cfg.Analysis.RetryDelay},
		},
		SessionCapacity: cfg.Sessions.Capacity,
	})
	if err != nil {
		return nil, err
	}
	a.Service = svc

	ok = true
	return a, nil
}

func (a *App) Close() {
	for _, p := range a.providers {
		if err := provider.Close(p); err != nil {
			log.Printf("Failed to close provider: %v", err)
		}
	}
	a.Auditor.Close()
}
