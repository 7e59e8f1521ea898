package providers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Package providers holds the provider registry (YAML/JSON) and the site
// extractors that turn listing and article pages into domain records.

const defaultRequestDelay = 500 * time.Millisecond

// Provider is one listing page to harvest, typically a team's news page.
type Provider struct {
	ID             string         `json:"id" yaml:"id"`
	Name           string         `json:"name" yaml:"name"`
	Type           string         `json:"type" yaml:"type"`
	SourceURL      string         `json:"source_url" yaml:"source_url"`
	RequestDelayMs int            `json:"request_delay_ms" yaml:"request_delay_ms"`
	Config         map[string]any `json:"config" yaml:"config"`
}

// RequestDelay returns the pause taken after harvesting this provider.
func (p Provider) RequestDelay() time.Duration {
	if p.RequestDelayMs <= 0 {
		return defaultRequestDelay
	}
	return time.Duration(p.RequestDelayMs) * time.Millisecond
}

// Registry is an immutable, ordered set of providers loaded from a file.
type Registry struct {
	providers []Provider
	byID      map[string]int
}

type providersFile struct {
	Providers []Provider `json:"providers" yaml:"providers"`
}

// LoadRegistry reads providers from a .yaml/.yml or .json file. Files with
// another extension are tried as YAML, then JSON.
func LoadRegistry(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("providers file path is empty")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read providers file: %w", err)
	}

	file, err := decodeProviders(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	return NewRegistry(file.Providers)
}

// NewRegistry validates entries and keeps them in declaration order.
func NewRegistry(entries []Provider) (*Registry, error) {
	if len(entries) == 0 {
		return nil, errors.New("providers file contains no providers entries")
	}

	reg := &Registry{
		providers: make([]Provider, 0, len(entries)),
		byID:      make(map[string]int, len(entries)),
	}
	for i, entry := range entries {
		p := normalizeProvider(entry)
		if err := p.validate(); err != nil {
			return nil, fmt.Errorf("provider[%d]: %w", i, err)
		}
		if _, dup := reg.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate provider id %q", p.ID)
		}
		reg.byID[p.ID] = len(reg.providers)
		reg.providers = append(reg.providers, p)
	}
	return reg, nil
}

// All returns a copy of the providers in file order.
func (r *Registry) All() []Provider {
	if r == nil {
		return nil
	}
	out := make([]Provider, len(r.providers))
	copy(out, r.providers)
	return out
}

// ByID looks up a provider by its trimmed id.
func (r *Registry) ByID(id string) (Provider, bool) {
	if r == nil {
		return Provider{}, false
	}
	i, ok := r.byID[strings.TrimSpace(id)]
	if !ok {
		return Provider{}, false
	}
	return r.providers[i], true
}

func decodeProviders(data []byte, ext string) (providersFile, error) {
	var decoders []func([]byte, any) error
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		decoders = append(decoders, yaml.Unmarshal)
	case ".json":
		decoders = append(decoders, json.Unmarshal)
	default:
		decoders = append(decoders, yaml.Unmarshal, json.Unmarshal)
	}

	var lastErr error
	for _, decode := range decoders {
		var file providersFile
		if err := decode(data, &file); err != nil {
			lastErr = err
			continue
		}
		return file, nil
	}
	return providersFile{}, fmt.Errorf("decode providers file: %w", lastErr)
}

func normalizeProvider(p Provider) Provider {
	p.ID = strings.TrimSpace(p.ID)
	p.Name = strings.TrimSpace(p.Name)
	p.Type = strings.ToLower(strings.TrimSpace(p.Type))
	p.SourceURL = strings.TrimSpace(p.SourceURL)
	if p.Type == "" {
		p.Type = ProviderTypeOneFootball
	}
	if p.Name == "" {
		p.Name = p.ID
	}
	if p.Config == nil {
		p.Config = map[string]any{}
	}
	return p
}

func (p Provider) validate() error {
	if p.ID == "" {
		return errors.New("id is required")
	}
	if p.SourceURL == "" {
		return fmt.Errorf("source_url is required for provider %q", p.ID)
	}
	u, err := url.Parse(p.SourceURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("source_url %q for provider %q is not an absolute http(s) URL", p.SourceURL, p.ID)
	}
	if p.RequestDelayMs < 0 {
		return fmt.Errorf("request_delay_ms for provider %q must not be negative", p.ID)
	}
	return nil
}
