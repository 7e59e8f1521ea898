package crawler

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Adda-Baaj/onefootball-harvester/internal/domain"
	"github.com/Adda-Baaj/onefootball-harvester/internal/logger"
	"github.com/Adda-Baaj/onefootball-harvester/internal/metrics"
)

// FailurePolicy decides what happens to a new article whose detail page failed.
type FailurePolicy string

const (
	// FailurePolicySkip drops the article from the result.
	FailurePolicySkip FailurePolicy = "skip"
	// FailurePolicyPartial keeps the article with empty detail fields.
	FailurePolicyPartial FailurePolicy = "partial"
)

const defaultDetailConcurrency = 4

// ReconcileOptions tunes detail enrichment.
type ReconcileOptions struct {
	Concurrency int
	Policy      FailurePolicy
	Metrics     *metrics.Recorder
}

func (o ReconcileOptions) withDefaults() ReconcileOptions {
	if o.Concurrency <= 0 {
		o.Concurrency = defaultDetailConcurrency
	}
	if o.Policy != FailurePolicyPartial {
		o.Policy = FailurePolicySkip
	}
	return o
}

// Reconciler diffs listing summaries against the store and enriches the new ones.
type Reconciler struct {
	lookup  KnownIDsLookup
	details DetailSource
	opts    ReconcileOptions
	log     logger.Logger
}

// NewReconciler builds a Reconciler. A nil lookup treats every summary as new.
func NewReconciler(lookup KnownIDsLookup, details DetailSource, opts ReconcileOptions, log logger.Logger) *Reconciler {
	return &Reconciler{
		lookup:  lookup,
		details: details,
		opts:    opts.withDefaults(),
		log:     logger.Ensure(log),
	}
}

type itemResult struct {
	record domain.NewsRecord
	err    error
}

// Reconcile returns one record per summary not yet known, in listing order.
// Known ids are resolved with a single lookup call. A failed lookup fails the
// whole call; a failed detail page only affects its own item.
func (r *Reconciler) Reconcile(ctx context.Context, summaries []domain.ArticleSummary) ([]domain.NewsRecord, error) {
	if len(summaries) == 0 {
		return []domain.NewsRecord{}, nil
	}

	fresh, err := r.unknown(ctx, summaries)
	if err != nil {
		return nil, err
	}

	results := make([]itemResult, len(fresh))
	var g errgroup.Group
	g.SetLimit(r.opts.Concurrency)
	for i, s := range fresh {
		g.Go(func() error {
			detail, err := r.details.Detail(ctx, s)
			results[i] = itemResult{record: domain.NewRecord(s, detail), err: err}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.fold(fresh, results), nil
}

func (r *Reconciler) unknown(ctx context.Context, summaries []domain.ArticleSummary) ([]domain.ArticleSummary, error) {
	if r.lookup == nil {
		return summaries, nil
	}
	known, err := r.lookup.KnownIDs(ctx, domain.IDs(summaries))
	if err != nil {
		return nil, fmt.Errorf("lookup known ids: %w", err)
	}

	fresh := make([]domain.ArticleSummary, 0, len(summaries))
	for _, s := range summaries {
		if _, ok := known[s.ID]; ok {
			continue
		}
		fresh = append(fresh, s)
	}
	return fresh, nil
}

func (r *Reconciler) fold(fresh []domain.ArticleSummary, results []itemResult) []domain.NewsRecord {
	out := make([]domain.NewsRecord, 0, len(results))
	for i, res := range results {
		if res.err == nil {
			out = append(out, res.record)
			continue
		}

		s := fresh[i]
		r.opts.Metrics.DetailFailure(s.Source)
		r.log.WarnObj("article detail failed", "detail_error", map[string]any{
			"article_id": s.ID,
			"link":       s.Link,
			"policy":     string(r.opts.Policy),
			"error":      res.err.Error(),
		})
		if r.opts.Policy == FailurePolicyPartial {
			out = append(out, domain.NewRecord(s, domain.ArticleDetail{}))
		}
	}
	return out
}
