package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Adda-Baaj/onefootball-harvester/internal/config"
	"github.com/Adda-Baaj/onefootball-harvester/internal/crawler"
	"github.com/Adda-Baaj/onefootball-harvester/internal/domain"
	"github.com/Adda-Baaj/onefootball-harvester/internal/logger"
	"github.com/Adda-Baaj/onefootball-harvester/internal/storage"
	"github.com/Adda-Baaj/onefootball-harvester/pkg/dates"
	"github.com/Adda-Baaj/onefootball-harvester/pkg/providers"
)

// Collector runs a single listing through the pipeline and stores what is new.
type Collector struct {
	pipeline *crawler.Pipeline
	site     providers.Site
	store    storage.Store
	log      logger.Logger
}

// NewCollector builds a one-shot collector from cfg. Metrics are not recorded.
func NewCollector(ctx context.Context, cfg *config.Config, log logger.Logger) (*Collector, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)

	store, err := newStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	site := providers.NewOneFootballSite(providers.Provider{
		ID:   providers.ProviderTypeOneFootball,
		Type: providers.ProviderTypeOneFootball,
	}, dates.New(cfg.Detail.Location()))

	return &Collector{
		pipeline: crawler.NewPipeline(newFetcher(cfg.Fetch, nil, log), store, reconcileOptions(cfg.Detail, nil), log),
		site:     site,
		store:    store,
		log:      log,
	}, nil
}

// Collect harvests pageURL and returns the new records in listing order.
// Records are saved before returning; a save failure is returned with the records.
func (c *Collector) Collect(ctx context.Context, pageURL string) ([]domain.NewsRecord, error) {
	if c == nil || c.pipeline == nil {
		return nil, fmt.Errorf("collector is not initialized")
	}

	start := time.Now()
	records, err := c.pipeline.Collect(ctx, c.site, pageURL)
	if err != nil {
		return nil, err
	}
	if len(records) > 0 {
		if err := c.store.SaveRecords(ctx, records); err != nil {
			return records, fmt.Errorf("save records: %w", err)
		}
	}

	c.log.InfoObj("collection completed", "collect_meta", map[string]any{
		"url":          pageURL,
		"new_articles": len(records),
		"elapsed_ms":   time.Since(start).Milliseconds(),
	})
	return records, nil
}

// Close releases the storage backend.
func (c *Collector) Close() error {
	if c == nil || c.store == nil {
		return nil
	}
	return c.store.Close()
}
