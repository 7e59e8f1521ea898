package providers

import (
	"github.com/Adda-Baaj/onefootball-harvester/internal/domain"
	"github.com/Adda-Baaj/onefootball-harvester/pkg/dates"
)

// OneFootballSite extracts articles from OneFootball listing and article pages.
type OneFootballSite struct {
	id      string
	listing ListingExtractor
	detail  DetailExtractor
}

// NewOneFootballSite builds a site for cfg. Config keys base_url, path_marker
// and source override the OneFootball defaults.
func NewOneFootballSite(cfg Provider, normalizer dates.Normalizer) *OneFootballSite {
	return &OneFootballSite{
		id: cfg.ID,
		listing: ListingExtractor{
			BaseURL:    ConfigString(cfg, ConfigBaseURLKey, DefaultOneFootballBaseURL),
			PathMarker: ConfigString(cfg, ConfigPathMarkerKey, DefaultNewsPathMarker),
			Source:     ConfigString(cfg, ConfigSourceKey, DefaultOneFootballSource),
		},
		detail: DetailExtractor{Dates: normalizer},
	}
}

func (s *OneFootballSite) ID() string     { return s.id }
func (s *OneFootballSite) Source() string { return s.listing.Source }

func (s *OneFootballSite) ExtractListing(page []byte) ([]domain.ArticleSummary, error) {
	return s.listing.Extract(page)
}

func (s *OneFootballSite) ExtractDetail(page []byte) (domain.ArticleDetail, error) {
	return s.detail.Extract(page)
}
