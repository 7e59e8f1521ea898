package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adda-Baaj/onefootball-harvester/internal/config"
	"github.com/Adda-Baaj/onefootball-harvester/internal/crawler"
	"github.com/Adda-Baaj/onefootball-harvester/internal/logger"
	"github.com/Adda-Baaj/onefootball-harvester/internal/metrics"
	"github.com/Adda-Baaj/onefootball-harvester/internal/storage"
	"github.com/Adda-Baaj/onefootball-harvester/pkg/dates"
	"github.com/Adda-Baaj/onefootball-harvester/pkg/providers"
	"github.com/Adda-Baaj/onefootball-harvester/pkg/publishers"
)

// Harvester represents the news harvester runtime. It manages the crawl loop,
// coordinating between providers, the crawler service, and publishers. It also
// handles storage initialization and cleanup.
type Harvester struct {
	cfg           *config.Config
	providers     []providers.Provider
	fanout        *publishers.Fanout
	crawlService  *crawler.Service
	crawlInterval time.Duration
	log           logger.Logger
	store         storage.Store
	gatherer      prometheus.Gatherer
}

// NewHarvester builds a harvester runtime from config files.
func NewHarvester(ctx context.Context, cfg *config.Config, log logger.Logger) (*Harvester, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)
	if ctx == nil {
		ctx = context.Background()
	}

	providerReg, err := providers.LoadRegistry(cfg.ProvidersFile)
	if err != nil {
		return nil, fmt.Errorf("load providers registry: %w", err)
	}
	providerList := providerReg.All()
	providerIDs := make([]string, 0, len(providerList))
	for _, p := range providerList {
		providerIDs = append(providerIDs, p.ID)
	}
	log.InfoObj("providers registry loaded", "providers_meta", map[string]any{
		"count": len(providerIDs),
		"ids":   providerIDs,
	})

	fanout, err := buildFanout(ctx, cfg.PublishersFile, log)
	if err != nil {
		return nil, err
	}

	store, err := newStore(ctx, cfg, log)
	if err != nil {
		_ = fanout.Close()
		return nil, err
	}

	reg := prometheus.NewRegistry()
	rec, err := metrics.New(reg)
	if err != nil {
		_ = fanout.Close()
		_ = store.Close()
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	fetcher := newFetcher(cfg.Fetch, rec, log)
	pipeline := crawler.NewPipeline(fetcher, store, reconcileOptions(cfg.Detail, rec), log)
	siteRegistry := providers.DefaultSiteRegistry(dates.New(cfg.Detail.Location()))

	// A fanout without publishers accepts nothing; pass nil so records are still saved.
	var pub crawler.EventPublisher
	if fanout.Size() > 0 {
		pub = fanout
	}
	processor := crawler.NewProviderProcessor(siteRegistry, pipeline, pub, store, log)

	return &Harvester{
		cfg:           cfg,
		providers:     providerList,
		fanout:        fanout,
		crawlService:  crawler.NewService(processor, log),
		crawlInterval: cfg.CrawlInterval,
		log:           log,
		store:         store,
		gatherer:      reg,
	}, nil
}

// buildFanout loads enabled publishers. An empty path means none are configured.
func buildFanout(ctx context.Context, path string, log logger.Logger) (*publishers.Fanout, error) {
	if strings.TrimSpace(path) == "" {
		log.WarnObj("no publishers file configured; records are only stored", "publishers_file", path)
		return publishers.NewFanout(nil), nil
	}

	publisherReg, err := publishers.LoadRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}

	enabledPublishers := publisherReg.Enabled()
	if len(enabledPublishers) == 0 {
		log.WarnObj("all publishers disabled; records are only stored", "publishers_file", path)
	}

	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabledPublishers, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	publisherSummaries := make([]map[string]string, 0, len(enabledPublishers))
	for _, pubCfg := range enabledPublishers {
		publisherSummaries = append(publisherSummaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(publisherSummaries),
		"publishers": publisherSummaries,
	})
	return publishers.NewFanout(pubClients), nil
}

// Run starts the crawl loop until the context is cancelled.
func (h *Harvester) Run(ctx context.Context) error {
	if h == nil || h.crawlService == nil {
		return fmt.Errorf("harvester is not initialized")
	}
	defer h.close()

	if h.cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, h.cfg.MetricsAddr, h.gatherer); err != nil {
				h.log.ErrorObj("metrics server stopped", "error", err.Error())
			}
		}()
	}

	if len(h.providers) == 0 {
		h.log.WarnObj("no providers configured; harvester idle", "providers_file", h.cfg.ProvidersFile)
		<-ctx.Done()
		return ctx.Err()
	}

	h.log.InfoObj("harvester loop starting", "harvester_state", map[string]any{
		"providers_count":  len(h.providers),
		"publishers_count": h.fanout.Size(),
		"crawl_interval":   h.crawlInterval.String(),
		"metrics_addr":     h.cfg.MetricsAddr,
	})

	if err := h.runOnce(ctx); err != nil {
		h.log.ErrorObj("initial crawl failed", "error", err.Error())
	}

	ticker := time.NewTicker(h.crawlInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.InfoObj("harvester loop exiting", "reason", ctx.Err().Error())
			return nil
		case <-ticker.C:
			if err := h.runOnce(ctx); err != nil {
				h.log.ErrorObj("scheduled crawl failed", "error", err.Error())
			}
		}
	}
}

// runOnce performs a single crawl operation across all providers.
func (h *Harvester) runOnce(ctx context.Context) error {
	start := time.Now()
	h.log.InfoObj("crawl started", "crawl_meta", map[string]any{
		"providers_count": len(h.providers),
		"started_at":      start.UTC(),
	})
	if err := h.crawlService.Run(ctx, h.providers); err != nil {
		return err
	}
	h.log.InfoObj("crawl completed", "crawl_meta", map[string]any{
		"providers_count": len(h.providers),
		"elapsed_ms":      time.Since(start).Milliseconds(),
	})
	return nil
}

// close releases publishers and the storage backend, logging any errors encountered.
func (h *Harvester) close() {
	if h == nil {
		return
	}
	var errs []error
	if err := h.fanout.Close(); err != nil {
		errs = append(errs, err)
	}
	if h.store != nil {
		if err := h.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage close: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		h.log.ErrorObj("harvester shutdown incomplete", "error", err.Error())
	}
}
