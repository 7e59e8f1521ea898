package app

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/Adda-Baaj/onefootball-harvester/internal/config"
	"github.com/Adda-Baaj/onefootball-harvester/internal/crawler"
	"github.com/Adda-Baaj/onefootball-harvester/internal/fetch"
	"github.com/Adda-Baaj/onefootball-harvester/internal/logger"
	"github.com/Adda-Baaj/onefootball-harvester/internal/metrics"
	"github.com/Adda-Baaj/onefootball-harvester/internal/storage"
	"github.com/Adda-Baaj/onefootball-harvester/pkg/httpclient"
)

// newFetcher builds the resilient fetcher from the fetch settings.
func newFetcher(cfg config.FetchConfig, rec *metrics.Recorder, log logger.Logger) *fetch.Fetcher {
	client := httpclient.NewRestyClientWithOptions(httpclient.Options{
		Timeout:        cfg.Timeout,
		ConnectTimeout: cfg.ConnectTimeout,
	})

	var limiter *rate.Limiter
	if cfg.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
	}

	return fetch.New(client, fetch.Options{
		MaxRetries:  cfg.MaxRetries,
		BackoffBase: cfg.BackoffBase,
		MinDelay:    cfg.MinDelay,
		MaxDelay:    cfg.MaxDelay,
		Identities:  fetch.IdentitiesFromUserAgents(cfg.UserAgents),
		Seed:        cfg.Seed,
		Limiter:     limiter,
		Metrics:     rec,
	}, log)
}

// newStore opens the configured storage backend and logs its settings.
func newStore(ctx context.Context, cfg *config.Config, log logger.Logger) (storage.Store, error) {
	store, err := storage.NewStore(ctx, cfg.StorageType, storage.Options{
		BBoltPath:       cfg.BBoltPath,
		ArticleTTL:      cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
		PostgresDSN:     cfg.PostgresDSN,
		PostgresTable:   cfg.PostgresTable,
	})
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"table":                    cfg.PostgresTable,
		"article_ttl_seconds":      int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})
	return store, nil
}

func reconcileOptions(cfg config.DetailConfig, rec *metrics.Recorder) crawler.ReconcileOptions {
	return crawler.ReconcileOptions{
		Concurrency: cfg.Concurrency,
		Policy:      crawler.FailurePolicy(cfg.FailurePolicy),
		Metrics:     rec,
	}
}
