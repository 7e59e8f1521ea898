package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Adda-Baaj/onefootball-harvester/internal/domain"
)

// pgPool is the subset of *pgxpool.Pool the store uses.
type pgPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close()
}

// postgresStore keeps articles in a table shaped like the legacy
// noticias_onefootball table: noticia_id, titulo, link, fonte, texto, data_publicacao.
type postgresStore struct {
	pool  pgPool
	table string
}

func openPostgres(ctx context.Context, opts Options) (*postgresStore, error) {
	pool, err := pgxpool.New(ctx, opts.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	store := newPostgresStore(pool, opts.PostgresTable)
	if err := store.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

func newPostgresStore(pool pgPool, table string) *postgresStore {
	return &postgresStore{pool: pool, table: quoteTable(table)}
}

// quoteTable sanitizes a possibly schema-qualified table name.
func quoteTable(table string) string {
	return pgx.Identifier(strings.Split(strings.TrimSpace(table), ".")).Sanitize()
}

func (p *postgresStore) ensureSchema(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS `+p.table+` (
            noticia_id      TEXT PRIMARY KEY,
            titulo          TEXT NOT NULL,
            link            TEXT NOT NULL,
            fonte           TEXT NOT NULL,
            texto           TEXT NOT NULL DEFAULT '',
            data_publicacao TEXT NOT NULL DEFAULT '',
            criado_em       TIMESTAMPTZ NOT NULL DEFAULT now()
        )`)
	if err != nil {
		return fmt.Errorf("ensure table %s: %w", p.table, err)
	}
	return nil
}

// KnownIDs resolves all ids with one query.
func (p *postgresStore) KnownIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	known := make(map[string]struct{})
	if len(ids) == 0 {
		return known, nil
	}

	rows, err := p.pool.Query(ctx, `SELECT noticia_id FROM `+p.table+` WHERE noticia_id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("query known ids: %w", err)
	}
	found, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan known ids: %w", err)
	}
	for _, id := range found {
		known[id] = struct{}{}
	}
	return known, nil
}

// SaveRecords inserts all records in one statement, ignoring ids already present.
func (p *postgresStore) SaveRecords(ctx context.Context, records []domain.NewsRecord) error {
	if len(records) == 0 {
		return nil
	}

	n := len(records)
	ids, titles, links := make([]string, 0, n), make([]string, 0, n), make([]string, 0, n)
	sources, texts, dates := make([]string, 0, n), make([]string, 0, n), make([]string, 0, n)
	for _, r := range records {
		ids = append(ids, r.ID)
		titles = append(titles, r.Title)
		links = append(links, r.Link)
		sources = append(sources, r.Source)
		texts = append(texts, r.BodyText)
		dates = append(dates, r.PublishedAt)
	}

	_, err := p.pool.Exec(ctx, `
        INSERT INTO `+p.table+` (noticia_id, titulo, link, fonte, texto, data_publicacao)
        SELECT * FROM unnest($1::text[], $2::text[], $3::text[], $4::text[], $5::text[], $6::text[])
        ON CONFLICT (noticia_id) DO NOTHING
    `, ids, titles, links, sources, texts, dates)
	if err != nil {
		return fmt.Errorf("insert records: %w", err)
	}
	return nil
}

func (p *postgresStore) Close() error {
	if p == nil || p.pool == nil {
		return nil
	}
	p.pool.Close()
	return nil
}
