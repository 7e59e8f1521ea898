package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "harvester"

// Recorder groups the pipeline counters. A nil *Recorder records nothing.
type Recorder struct {
	fetchAttempts   *prometheus.CounterVec
	listingArticles *prometheus.CounterVec
	newArticles     *prometheus.CounterVec
	detailFailures  *prometheus.CounterVec
}

// New creates the counters and registers them on reg (prometheus.DefaultRegisterer when nil).
func New(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &Recorder{
		fetchAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_attempts_total",
			Help:      "Page fetch attempts partitioned by outcome.",
		}, []string{"outcome"}),
		listingArticles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listing_articles_total",
			Help:      "Unique article summaries extracted from listing pages.",
		}, []string{"source"}),
		newArticles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "new_articles_total",
			Help:      "Articles not yet known to the store and returned to the caller.",
		}, []string{"source"}),
		detailFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detail_failures_total",
			Help:      "Article pages that could not be fetched or parsed.",
		}, []string{"source"}),
	}
	for _, c := range []prometheus.Collector{r.fetchAttempts, r.listingArticles, r.newArticles, r.detailFailures} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Recorder) FetchAttempt(outcome string) {
	if r == nil {
		return
	}
	r.fetchAttempts.WithLabelValues(outcome).Inc()
}

func (r *Recorder) ListingArticles(source string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.listingArticles.WithLabelValues(source).Add(float64(n))
}

func (r *Recorder) NewArticles(source string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.newArticles.WithLabelValues(source).Add(float64(n))
}

func (r *Recorder) DetailFailure(source string) {
	if r == nil {
		return
	}
	r.detailFailures.WithLabelValues(source).Inc()
}

// Serve exposes gatherer on addr under /metrics until ctx is cancelled.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer) error {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
