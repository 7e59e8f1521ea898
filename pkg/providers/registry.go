package providers

import (
	"fmt"
	"strings"
	"sync"

	"github.com/Adda-Baaj/onefootball-harvester/pkg/dates"
)

// siteRegistry implements SiteRegistry.
type siteRegistry struct {
	sitesByID      map[string]Site
	buildersByType map[string]SiteBuilder
	mu             sync.RWMutex
}

// NewSiteRegistry builds a registry for fixed site implementations keyed by provider id.
func NewSiteRegistry(sites ...Site) SiteRegistry {
	return NewTypeSiteRegistry(nil, sites...)
}

// NewTypeSiteRegistry builds a registry with type-based builders and provider-specific sites.
func NewTypeSiteRegistry(builders map[string]SiteBuilder, sites ...Site) SiteRegistry {
	reg := &siteRegistry{
		sitesByID:      make(map[string]Site),
		buildersByType: make(map[string]SiteBuilder),
	}

	for _, s := range sites {
		reg.registerIDSite(s)
	}
	for typ, b := range builders {
		reg.registerTypeBuilder(typ, b)
	}

	return reg
}

func (r *siteRegistry) registerIDSite(s Site) {
	if s == nil {
		return
	}
	key := strings.ToLower(strings.TrimSpace(s.ID()))
	if key == "" {
		return
	}

	r.mu.Lock()
	r.sitesByID[key] = s
	r.mu.Unlock()
}

func (r *siteRegistry) registerTypeBuilder(typ string, b SiteBuilder) {
	if b == nil {
		return
	}
	key := strings.ToLower(strings.TrimSpace(typ))
	if key == "" {
		return
	}

	r.mu.Lock()
	r.buildersByType[key] = b
	r.mu.Unlock()
}

// SiteFor selects the site for the given provider based on its id, then its type.
func (r *siteRegistry) SiteFor(cfg Provider) (Site, error) {
	if r == nil {
		return nil, fmt.Errorf("site registry is nil")
	}
	if strings.TrimSpace(cfg.ID) == "" {
		return nil, fmt.Errorf("provider id is empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	idKey := strings.ToLower(strings.TrimSpace(cfg.ID))
	if s, ok := r.sitesByID[idKey]; ok {
		return s, nil
	}

	typeKey := strings.ToLower(strings.TrimSpace(cfg.Type))
	if typeKey != "" {
		if b, ok := r.buildersByType[typeKey]; ok {
			return b(cfg)
		}
	}

	return nil, fmt.Errorf("no site registered for provider %q (type %q)", cfg.ID, cfg.Type)
}

const ProviderTypeOneFootball = "onefootball"

// DefaultSiteRegistry wires up the known site types.
func DefaultSiteRegistry(normalizer dates.Normalizer) SiteRegistry {
	return NewTypeSiteRegistry(map[string]SiteBuilder{
		ProviderTypeOneFootball: func(cfg Provider) (Site, error) {
			return NewOneFootballSite(cfg, normalizer), nil
		},
	})
}
