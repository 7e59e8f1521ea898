package crawler

import (
	"context"
	"errors"
	"fmt"

	"github.com/Adda-Baaj/onefootball-harvester/internal/domain"
	"github.com/Adda-Baaj/onefootball-harvester/internal/logger"
	"github.com/Adda-Baaj/onefootball-harvester/pkg/providers"
	"github.com/Adda-Baaj/onefootball-harvester/pkg/publishers"
)

// ProviderProcessor harvests one provider: collect, publish, then persist.
type ProviderProcessor struct {
	registry  providers.SiteRegistry
	pipeline  *Pipeline
	publisher EventPublisher
	store     RecordStore
	log       logger.Logger
}

// NewProviderProcessor wires a processor. publisher and store may be nil.
func NewProviderProcessor(reg providers.SiteRegistry, pipeline *Pipeline, pub EventPublisher, store RecordStore, log logger.Logger) *ProviderProcessor {
	return &ProviderProcessor{
		registry:  reg,
		pipeline:  pipeline,
		publisher: pub,
		store:     store,
		log:       logger.Ensure(log),
	}
}

// Process collects the new records of cfg, publishes each one and saves those
// that were published. It returns the number of records saved.
func (p *ProviderProcessor) Process(ctx context.Context, cfg providers.Provider) (int, error) {
	site, err := p.registry.SiteFor(cfg)
	if err != nil {
		return 0, fmt.Errorf("resolve site for provider %s: %w", cfg.ID, err)
	}

	records, err := p.pipeline.Collect(ctx, site, cfg.SourceURL)
	if err != nil {
		return 0, fmt.Errorf("collect provider %s: %w", cfg.ID, err)
	}

	publishable, errs := p.publish(ctx, cfg, records)

	if p.store != nil && len(publishable) > 0 {
		if err := p.store.SaveRecords(ctx, publishable); err != nil {
			errs = append(errs, fmt.Errorf("save records for provider %s: %w", cfg.ID, err))
			publishable = nil
		}
	}

	p.log.InfoObj("provider crawl completed", "provider_result", map[string]any{
		"provider_id":    cfg.ID,
		"new_articles":   len(records),
		"saved_articles": len(publishable),
		"errors":         len(errs),
	})
	return len(publishable), errors.Join(errs...)
}

// publish sends every record and returns those accepted by at least one
// publisher, or all of them when no publisher is configured.
func (p *ProviderProcessor) publish(ctx context.Context, cfg providers.Provider, records []domain.NewsRecord) ([]domain.NewsRecord, []error) {
	if p.publisher == nil {
		return records, nil
	}

	var errs []error
	out := make([]domain.NewsRecord, 0, len(records))
	for _, rec := range records {
		n, err := p.publisher.Publish(ctx, publishers.NewEvent(cfg.ID, cfg.Name, rec))
		if err != nil {
			errs = append(errs, fmt.Errorf("publish article %s: %w", rec.ID, err))
			p.log.WarnObj("publish failed", "publish_error", map[string]any{
				"provider_id": cfg.ID,
				"article_id":  rec.ID,
				"error":       err.Error(),
			})
		}
		if n > 0 {
			out = append(out, rec)
		}
	}
	return out, errs
}
