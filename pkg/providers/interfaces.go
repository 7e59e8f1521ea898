package providers

import (
	"github.com/Adda-Baaj/onefootball-harvester/internal/domain"
)

// Site knows how to read the listing and article pages of one news site.
// Implementations are pure: they never perform I/O.
type Site interface {
	ID() string
	Source() string
	ExtractListing(page []byte) ([]domain.ArticleSummary, error)
	ExtractDetail(page []byte) (domain.ArticleDetail, error)
}

// SiteRegistry resolves the Site implementation for a given provider config.
type SiteRegistry interface {
	SiteFor(cfg Provider) (Site, error)
}

// SiteBuilder constructs a Site from a provider entry, honoring its config overrides.
type SiteBuilder func(cfg Provider) (Site, error)
