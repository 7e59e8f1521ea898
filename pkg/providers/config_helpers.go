package providers

import "strings"

// ConfigString returns the trimmed string value for key from provider.Config or a fallback.
func ConfigString(cfg Provider, key, fallback string) string {
	if cfg.Config != nil {
		if raw, ok := cfg.Config[key]; ok {
			if val, ok := raw.(string); ok {
				if trimmed := strings.TrimSpace(val); trimmed != "" {
					return trimmed
				}
			}
		}
	}
	return fallback
}

const (
	ConfigBaseURLKey    = "base_url"
	ConfigPathMarkerKey = "path_marker"
	ConfigSourceKey     = "source"
)
