// Package storage remembers which articles have already been harvested.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Adda-Baaj/onefootball-harvester/internal/domain"
)

// Store tracks harvested articles by id.
type Store interface {
	// KnownIDs returns the subset of ids already stored.
	KnownIDs(ctx context.Context, ids []string) (map[string]struct{}, error)
	// SaveRecords stores records; ids already present are left untouched.
	SaveRecords(ctx context.Context, records []domain.NewsRecord) error
	Close() error
}

const (
	TypeNone     = "none"
	TypeBBolt    = "bbolt"
	TypePostgres = "postgres"
)

// Options controls backend selection details and retention.
type Options struct {
	BBoltPath       string
	ArticleTTL      time.Duration
	CleanupInterval time.Duration

	PostgresDSN   string
	PostgresTable string
}

const (
	defaultArticleTTL      = 30 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
	defaultPostgresTable   = "noticias_onefootball"
)

// NewStore creates the configured storage backend.
func NewStore(ctx context.Context, typ string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", TypeNone, "disabled":
		return noopStore{}, nil
	case TypeBBolt:
		if strings.TrimSpace(opts.BBoltPath) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		store, err := openBolt(opts.BBoltPath, opts)
		if err != nil {
			return nil, err
		}
		return store, nil
	case TypePostgres:
		if strings.TrimSpace(opts.PostgresDSN) == "" {
			return nil, fmt.Errorf("postgres storage requires a dsn")
		}
		store, err := openPostgres(ctx, opts)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.ArticleTTL <= 0 {
		opts.ArticleTTL = defaultArticleTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	if strings.TrimSpace(opts.PostgresTable) == "" {
		opts.PostgresTable = defaultPostgresTable
	}
	return opts
}

// noopStore knows nothing and keeps nothing, so every article is new.
type noopStore struct{}

func (noopStore) Close() error { return nil }
func (noopStore) KnownIDs(context.Context, []string) (map[string]struct{}, error) {
	return map[string]struct{}{}, nil
}
func (noopStore) SaveRecords(context.Context, []domain.NewsRecord) error { return nil }
