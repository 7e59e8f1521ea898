package crawler

import (
	"context"
	"errors"
	"fmt"

	"github.com/Adda-Baaj/onefootball-harvester/internal/domain"
	"github.com/Adda-Baaj/onefootball-harvester/internal/logger"
	"github.com/Adda-Baaj/onefootball-harvester/pkg/providers"
)

// ErrListingFetch marks a listing page that could not be retrieved.
var ErrListingFetch = errors.New("listing fetch failed")

// Pipeline turns one listing page into the records not yet known to the store.
type Pipeline struct {
	fetcher PageFetcher
	lookup  KnownIDsLookup
	opts    ReconcileOptions
	log     logger.Logger
}

// NewPipeline wires a pipeline around a fetcher and a known-ids lookup.
func NewPipeline(fetcher PageFetcher, lookup KnownIDsLookup, opts ReconcileOptions, log logger.Logger) *Pipeline {
	return &Pipeline{
		fetcher: fetcher,
		lookup:  lookup,
		opts:    opts.withDefaults(),
		log:     logger.Ensure(log),
	}
}

// Collect fetches pageURL, extracts its article links with site and returns
// the new ones enriched with their detail pages, in listing order.
func (p *Pipeline) Collect(ctx context.Context, site providers.Site, pageURL string) ([]domain.NewsRecord, error) {
	if p == nil || p.fetcher == nil {
		return nil, fmt.Errorf("pipeline is not initialized")
	}
	if site == nil {
		return nil, fmt.Errorf("no site given for %s", pageURL)
	}

	res := p.fetcher.Fetch(ctx, pageURL)
	if res.Err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrListingFetch, pageURL, res.Err)
	}

	summaries, err := site.ExtractListing(res.Body)
	if err != nil {
		return nil, fmt.Errorf("extract listing %s: %w", pageURL, err)
	}
	p.opts.Metrics.ListingArticles(site.Source(), len(summaries))

	reconciler := NewReconciler(p.lookup, siteDetails{fetcher: p.fetcher, site: site}, p.opts, p.log)
	records, err := reconciler.Reconcile(ctx, summaries)
	if err != nil {
		return nil, err
	}
	p.opts.Metrics.NewArticles(site.Source(), len(records))

	p.log.InfoObj("listing reconciled", "listing_result", map[string]any{
		"url":          pageURL,
		"source":       site.Source(),
		"listed":       len(summaries),
		"new_articles": len(records),
	})
	return records, nil
}

// siteDetails fetches article pages and reads them with a site's detail extractor.
type siteDetails struct {
	fetcher PageFetcher
	site    providers.Site
}

func (d siteDetails) Detail(ctx context.Context, s domain.ArticleSummary) (domain.ArticleDetail, error) {
	res := d.fetcher.Fetch(ctx, s.Link)
	if res.Err != nil {
		return domain.ArticleDetail{}, fmt.Errorf("fetch article %s: %w", s.ID, res.Err)
	}
	detail, err := d.site.ExtractDetail(res.Body)
	if err != nil {
		return domain.ArticleDetail{}, fmt.Errorf("extract article %s: %w", s.ID, err)
	}
	return detail, nil
}
