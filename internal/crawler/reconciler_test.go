package crawler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Adda-Baaj/onefootball-harvester/internal/domain"
)

type fakeDetails struct {
	fail     map[string]bool
	delay    map[string]time.Duration
	inFlight atomic.Int32
	peak     atomic.Int32
	mu       sync.Mutex
	calls    []string
}

func (f *fakeDetails) Detail(_ context.Context, s domain.ArticleSummary) (domain.ArticleDetail, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, s.ID)
	f.mu.Unlock()

	if d := f.delay[s.ID]; d > 0 {
		time.Sleep(d)
	}
	if f.fail[s.ID] {
		return domain.ArticleDetail{}, errors.New("detail unavailable")
	}
	return domain.ArticleDetail{BodyText: "body " + s.ID, PublishedAt: "2024-05-12T13:00:00Z"}, nil
}

func summaries(ids ...string) []domain.ArticleSummary {
	out := make([]domain.ArticleSummary, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.ArticleSummary{
			Title:  "Title " + id,
			Link:   "https://onefootball.com/noticias/x-" + id,
			Source: "OneFootball",
			ID:     id,
		})
	}
	return out
}

func recordIDs(records []domain.NewsRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func TestReconcileAllKnownReturnsEmpty(t *testing.T) {
	store := &fakeStore{known: map[string]bool{"1": true, "2": true, "3": true}}
	details := &fakeDetails{}

	got, err := NewReconciler(store, details, ReconcileOptions{}, nil).Reconcile(context.Background(), summaries("1", "2", "3"))
	require.NoError(t, err)
	require.Empty(t, got)
	require.Empty(t, details.calls)
	require.Len(t, store.lookups, 1)
}

func TestReconcileNoneKnownPreservesOrder(t *testing.T) {
	store := &fakeStore{}
	details := &fakeDetails{delay: map[string]time.Duration{"1": 30 * time.Millisecond, "2": 10 * time.Millisecond}}

	got, err := NewReconciler(store, details, ReconcileOptions{Concurrency: 3}, nil).Reconcile(context.Background(), summaries("1", "2", "3", "4"))
	require.NoError(t, err)
	require.Equal(t, []string{"1", "2", "3", "4"}, recordIDs(got))
	require.Equal(t, "body 1", got[0].BodyText)
	require.Equal(t, "Title 4", got[3].Title)
	require.Equal(t, [][]string{{"1", "2", "3", "4"}}, store.lookups)
}

func TestReconcileFiltersKnownIDs(t *testing.T) {
	store := &fakeStore{known: map[string]bool{"2": true}}
	details := &fakeDetails{}

	got, err := NewReconciler(store, details, ReconcileOptions{}, nil).Reconcile(context.Background(), summaries("1", "2", "3"))
	require.NoError(t, err)
	require.Equal(t, []string{"1", "3"}, recordIDs(got))
	require.ElementsMatch(t, []string{"1", "3"}, details.calls)
}

func TestReconcileSkipPolicyDropsFailedItems(t *testing.T) {
	details := &fakeDetails{fail: map[string]bool{"2": true}}

	got, err := NewReconciler(&fakeStore{}, details, ReconcileOptions{Policy: FailurePolicySkip}, nil).Reconcile(context.Background(), summaries("1", "2", "3"))
	require.NoError(t, err)
	require.Equal(t, []string{"1", "3"}, recordIDs(got))
}

func TestReconcilePartialPolicyKeepsFailedItemsWithoutDetail(t *testing.T) {
	details := &fakeDetails{fail: map[string]bool{"2": true}}

	got, err := NewReconciler(&fakeStore{}, details, ReconcileOptions{Policy: FailurePolicyPartial}, nil).Reconcile(context.Background(), summaries("1", "2", "3"))
	require.NoError(t, err)
	require.Equal(t, []string{"1", "2", "3"}, recordIDs(got))
	require.Equal(t, domain.ArticleDetail{}, got[1].ArticleDetail)
	require.Equal(t, "Title 2", got[1].Title)
}

func TestReconcileLookupFailureIsReturned(t *testing.T) {
	store := &fakeStore{err: errors.New("db down")}
	details := &fakeDetails{}

	_, err := NewReconciler(store, details, ReconcileOptions{}, nil).Reconcile(context.Background(), summaries("1"))
	require.ErrorContains(t, err, "db down")
	require.Empty(t, details.calls)
}

func TestReconcileEmptyInputSkipsLookup(t *testing.T) {
	store := &fakeStore{}
	got, err := NewReconciler(store, &fakeDetails{}, ReconcileOptions{}, nil).Reconcile(context.Background(), nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
	require.Empty(t, store.lookups)
}

func TestReconcileBoundsConcurrency(t *testing.T) {
	ids := []string{"1", "2", "3", "4", "5", "6", "7", "8"}
	delays := make(map[string]time.Duration, len(ids))
	for _, id := range ids {
		delays[id] = 5 * time.Millisecond
	}
	details := &fakeDetails{delay: delays}

	got, err := NewReconciler(nil, details, ReconcileOptions{Concurrency: 2}, nil).Reconcile(context.Background(), summaries(ids...))
	require.NoError(t, err)
	require.Len(t, got, len(ids))
	require.LessOrEqual(t, details.peak.Load(), int32(2))
}

func TestReconcileCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewReconciler(&fakeStore{}, &fakeDetails{}, ReconcileOptions{}, nil).Reconcile(ctx, summaries("1"))
	require.ErrorIs(t, err, context.Canceled)
}
