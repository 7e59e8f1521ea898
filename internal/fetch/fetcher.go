// Package fetch retrieves pages with bounded retries, exponential backoff,
// rotating browser identities and a randomized pre-request delay.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/Adda-Baaj/onefootball-harvester/internal/logger"
	"github.com/Adda-Baaj/onefootball-harvester/internal/metrics"
	"github.com/Adda-Baaj/onefootball-harvester/pkg/httpclient"
)

const (
	maxHTMLBodyBytes = 4 << 20 // 4 MiB

	outcomeSuccess  = "success"
	outcomeRetry    = "retry"
	outcomeFailure  = "failure"
	outcomeCanceled = "canceled"
)

// Options configures a Fetcher. Zero MinDelay/MaxDelay disables the pre-request
// delay; an empty Identities pool uses DefaultIdentities.
type Options struct {
	MaxRetries  int
	BackoffBase time.Duration
	MinDelay    time.Duration
	MaxDelay    time.Duration
	Identities  []Identity
	// Seed fixes the random source for delays and identity choice; 0 seeds from the clock.
	Seed    uint64
	Limiter *rate.Limiter
	Metrics *metrics.Recorder
}

const (
	DefaultMaxRetries  = 3
	DefaultBackoffBase = 500 * time.Millisecond
)

// Result is the outcome of one Fetch call. Err is nil only for a 2xx response.
type Result struct {
	URL        string
	Body       []byte
	StatusCode int
	Attempts   int
	Err        error
}

// OK reports whether the fetch produced a usable body.
func (r Result) OK() bool { return r.Err == nil }

// Fetcher performs resilient GET requests. It is safe for concurrent use.
type Fetcher struct {
	client httpclient.Client
	opts   Options
	log    logger.Logger

	mu  sync.Mutex
	rnd *rand.Rand

	sleep func(ctx context.Context, d time.Duration) error
}

// New builds a Fetcher around client (a resty client when nil).
func New(client httpclient.Client, opts Options, log logger.Logger) *Fetcher {
	if client == nil {
		client = httpclient.NewRestyClient(10 * time.Second)
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.BackoffBase < 0 {
		opts.BackoffBase = 0
	}
	if opts.MaxDelay < opts.MinDelay {
		opts.MaxDelay = opts.MinDelay
	}
	if len(opts.Identities) == 0 {
		opts.Identities = DefaultIdentities()
	}

	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	return &Fetcher{
		client: client,
		opts:   opts,
		log:    logger.Ensure(log),
		rnd:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		sleep:  sleepCtx,
	}
}

// Fetch retrieves url using the configured retry budget and backoff base.
func (f *Fetcher) Fetch(ctx context.Context, url string) Result {
	return f.FetchWith(ctx, url, f.opts.MaxRetries, f.opts.BackoffBase)
}

// FetchWith retrieves url, retrying retryable failures up to maxRetries times
// with a backoff of backoffBase * 2^attempt. It never panics on network faults;
// every failure is reported through Result.Err.
func (f *Fetcher) FetchWith(ctx context.Context, url string, maxRetries int, backoffBase time.Duration) Result {
	if maxRetries < 0 {
		maxRetries = 0
	}
	identity := f.pickIdentity()
	headers := identity.Headers()

	res := Result{URL: url}
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		res.Attempts = attempt + 1

		delay, err := f.beforeRequest(ctx)
		if err != nil {
			f.logAttempt(url, attempt, delay, 0, 0, outcomeCanceled, err)
			f.opts.Metrics.FetchAttempt(outcomeCanceled)
			res.Err = &NetworkError{URL: url, Err: err}
			return res
		}

		start := time.Now()
		body, status, err := f.do(ctx, url, headers)
		elapsed := time.Since(start)
		res.StatusCode = status

		if err == nil {
			f.logAttempt(url, attempt, delay, elapsed, status, outcomeSuccess, nil)
			f.opts.Metrics.FetchAttempt(outcomeSuccess)
			res.Body = body
			res.Err = nil
			return res
		}

		retryable := isRetryable(err)
		if !retryable || attempt == maxRetries || ctx.Err() != nil {
			f.logAttempt(url, attempt, delay, elapsed, status, outcomeFailure, err)
			f.opts.Metrics.FetchAttempt(outcomeFailure)
			if retryable && maxRetries > 0 {
				err = fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, res.Attempts, err)
			}
			res.Err = err
			return res
		}

		f.logAttempt(url, attempt, delay, elapsed, status, outcomeRetry, err)
		f.opts.Metrics.FetchAttempt(outcomeRetry)
		lastErr = err

		if err := f.sleep(ctx, backoff(backoffBase, attempt)); err != nil {
			res.Err = &NetworkError{URL: url, Err: errors.Join(err, lastErr)}
			return res
		}
	}

	// unreachable: the loop always returns on its final attempt
	res.Err = lastErr
	return res
}

// do performs one GET and classifies the outcome.
func (f *Fetcher) do(ctx context.Context, url string, headers map[string]string) ([]byte, int, error) {
	resp, err := f.client.Get(ctx, url, headers)
	if err != nil {
		return nil, 0, &NetworkError{URL: url, Timeout: httpclient.IsTimeout(err), Err: err}
	}

	status := resp.StatusCode()
	body := resp.Body()
	if status < 200 || status > 299 {
		return nil, status, &StatusError{
			URL:        url,
			StatusCode: status,
			Snippet:    responseSnippet(body),
			Retryable:  IsRetryableStatus(status),
		}
	}

	if len(body) > maxHTMLBodyBytes {
		f.log.WarnObj("response body truncated", "fetch_truncated", map[string]any{
			"url":        url,
			"body_bytes": len(body),
			"kept_bytes": maxHTMLBodyBytes,
		})
		body = body[:maxHTMLBodyBytes]
	}
	return body, status, nil
}

// beforeRequest waits on the rate limiter and the randomized delay.
func (f *Fetcher) beforeRequest(ctx context.Context) (time.Duration, error) {
	if f.opts.Limiter != nil {
		if err := f.opts.Limiter.Wait(ctx); err != nil {
			return 0, err
		}
	}
	delay := f.randomDelay()
	if delay <= 0 {
		return 0, ctx.Err()
	}
	return delay, f.sleep(ctx, delay)
}

func (f *Fetcher) randomDelay() time.Duration {
	lo, hi := f.opts.MinDelay, f.opts.MaxDelay
	if hi <= 0 {
		return 0
	}
	if hi == lo {
		return lo
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return lo + time.Duration(f.rnd.Int64N(int64(hi-lo)+1))
}

func (f *Fetcher) pickIdentity() Identity {
	pool := f.opts.Identities
	if len(pool) == 1 {
		return pool[0]
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return pool[f.rnd.IntN(len(pool))]
}

func (f *Fetcher) logAttempt(url string, attempt int, delay, elapsed time.Duration, status int, outcome string, err error) {
	fields := map[string]any{
		"url":        url,
		"attempt":    attempt + 1,
		"delay_ms":   delay.Milliseconds(),
		"elapsed_ms": elapsed.Milliseconds(),
		"status":     status,
		"outcome":    outcome,
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	switch outcome {
	case outcomeSuccess:
		f.log.InfoObj("fetch attempt", "fetch_attempt", fields)
	case outcomeRetry:
		f.log.WarnObj("fetch attempt", "fetch_attempt", fields)
	default:
		f.log.ErrorObj("fetch attempt", "fetch_attempt", fields)
	}
}

func isRetryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Retryable
	}
	var ne *NetworkError
	return errors.As(err, &ne)
}

// backoff returns base * 2^attempt.
func backoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	if attempt > 16 {
		attempt = 16
	}
	return base * time.Duration(1<<attempt)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
