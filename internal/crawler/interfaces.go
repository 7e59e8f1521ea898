package crawler

import (
	"context"

	"github.com/Adda-Baaj/onefootball-harvester/internal/domain"
	"github.com/Adda-Baaj/onefootball-harvester/internal/fetch"
	"github.com/Adda-Baaj/onefootball-harvester/pkg/publishers"
)

// PageFetcher retrieves one page; failures are reported through Result.Err.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) fetch.Result
}

// KnownIDsLookup reports which of ids are already known to the store.
type KnownIDsLookup interface {
	KnownIDs(ctx context.Context, ids []string) (map[string]struct{}, error)
}

// DetailSource fetches and extracts the article page behind a summary.
type DetailSource interface {
	Detail(ctx context.Context, summary domain.ArticleSummary) (domain.ArticleDetail, error)
}

// RecordStore is the persistence side the harvester writes new records to.
type RecordStore interface {
	KnownIDsLookup
	SaveRecords(ctx context.Context, records []domain.NewsRecord) error
}

// EventPublisher publishes new records downstream.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}
