package publishers

import (
	"context"
	"fmt"
	"strings"
)

// Builder creates a Publisher from a validated config entry.
type Builder func(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error)

// Registry maps a publisher type to its Builder. Keys are lower case.
type Registry map[string]Builder

// DefaultRegistry knows every sink type the harvester ships with.
func DefaultRegistry() Registry {
	return Registry{
		TypeHTTP:      newHTTPPublisher,
		TypeSQS:       newSQSPublisher,
		TypeSNS:       newSNSPublisher,
		TypeGCPPubSub: newGCPPubSubPublisher,
		TypeKafka:     newKafkaPublisher,
	}
}

// Build constructs the publisher for cfg.
func (r Registry) Build(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	typ := strings.ToLower(strings.TrimSpace(cfg.Type))
	if typ == "" {
		return nil, fmt.Errorf("publisher %q has no type configured", cfg.ID)
	}
	build, ok := r[typ]
	if !ok || build == nil {
		return nil, fmt.Errorf("publisher %q: no builder for type %q", cfg.ID, typ)
	}
	pub, err := build(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("build %s publisher %q: %w", typ, cfg.ID, err)
	}
	return pub, nil
}

// BuildAll constructs one publisher per config, in order. On failure the
// publishers already built are closed and none are returned.
func BuildAll(ctx context.Context, reg Registry, cfgs []PublisherConfig, log Logger) ([]Publisher, error) {
	if len(reg) == 0 || len(cfgs) == 0 {
		return nil, nil
	}

	pubs := make([]Publisher, 0, len(cfgs))
	for _, cfg := range cfgs {
		pub, err := reg.Build(ctx, cfg, log)
		if err != nil {
			if cerr := NewFanout(pubs).Close(); cerr != nil {
				ensureLogger(log).WarnObj("closing partially built publishers failed", "publisher_build_cleanup", map[string]any{
					"error": cerr.Error(),
				})
			}
			return nil, err
		}
		pubs = append(pubs, pub)
	}
	return pubs, nil
}
