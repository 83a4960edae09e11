// Package fetch implements the multi-source fetcher of spec.md §4.7:
// parallel, sequential, and race strategies over an ordered source list,
// each source subject to its own timeout and bounded retry/backoff.
// Grounded on stored_requests/backends/http_fetcher/fetcher.go's
// context-aware GET (its ctxhttp.Do call is replaced by the current
// stdlib idiom, http.NewRequestWithContext plus client.Do, same call
// shape) and stored_requests/multifetcher.go's multi-source fan-out and
// error accumulation, generalized from "poll every fetcher, merge
// results" to the three distinct first-success strategies spec.md names.
package fetch

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pv-udpv/vast-client/errortypes"
	"github.com/pv-udpv/vast-client/logger"
	"github.com/pv-udpv/vast-client/metrics"
	"github.com/pv-udpv/vast-client/transport"
	"github.com/pv-udpv/vast-client/vastconfig"
)

// Attempt records the outcome of one request against one source, success
// or failure, for inclusion in a Result's error trail.
type Attempt struct {
	Source     string
	Phase      errortypes.Phase
	Err        error
	StatusCode int
}

// Result is the fetcher's return value: spec.md §4.7's
// "raw-xml, source-url, errors" tuple plus elapsed time.
type Result struct {
	Body      []byte
	SourceURL string
	Attempts  []Attempt
	Elapsed   time.Duration
}

// Succeeded reports whether any source produced a usable body.
func (r Result) Succeeded() bool {
	return len(r.Body) > 0 && r.SourceURL != ""
}

// Fetcher executes a vastconfig.FetchStrategy over an ordered source list
// using clients drawn from a shared transport.Pool.
type Fetcher struct {
	pool    *transport.Pool
	log     logger.Logger
	metrics metrics.Collector
}

// NewFetcher returns a Fetcher backed by pool. log and collector default
// to the package-level logger and a no-op metrics collector when nil.
func NewFetcher(pool *transport.Pool, log logger.Logger, collector metrics.Collector) *Fetcher {
	if log == nil {
		log = logger.Default()
	}
	if collector == nil {
		collector = metrics.NewNoop()
	}
	return &Fetcher{pool: pool, log: log, metrics: collector}
}

// Request bundles everything the fetcher needs for one call: the source
// list, strategy, TLS-verify mode, and query params/headers to apply to
// every request.
type Request struct {
	Sources     []string
	Strategy    vastconfig.FetchStrategy
	TLSVerify   vastconfig.TLSVerifyMode
	QueryParams map[string]string
	Headers     map[string]string
}

// Fetch runs req's strategy across req.Sources, honoring req.Strategy's
// overall timeout, and returns the first success (or, if none succeed,
// every accumulated Attempt).
func (f *Fetcher) Fetch(ctx context.Context, req Request) (Result, error) {
	start := time.Now()

	if req.Strategy.OverallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Strategy.OverallTimeout)
		defer cancel()
	}

	client, err := f.pool.Get(req.TLSVerify)
	if err != nil {
		return Result{Elapsed: time.Since(start)}, err
	}

	var result Result
	switch req.Strategy.Mode {
	case vastconfig.ModeSequential:
		result = f.fetchSequential(ctx, client, req)
	case vastconfig.ModeRace:
		result = f.fetchConcurrent(ctx, client, req, true)
	default:
		result = f.fetchConcurrent(ctx, client, req, false)
	}
	result.Elapsed = time.Since(start)

	outcome := "success"
	if !result.Succeeded() {
		outcome = "failure"
	}
	f.metrics.IncrCounter("vast_fetch_total", metrics.Label{Key: "strategy", Value: string(req.Strategy.Mode)}, metrics.Label{Key: "outcome", Value: outcome})
	f.metrics.ObserveHistogram("vast_fetch_duration_seconds", result.Elapsed.Seconds())

	if !result.Succeeded() {
		if ctx.Err() == context.DeadlineExceeded {
			return result, &errortypes.FetchError{Kind: errortypes.KindTimeoutOverall, Message: "overall timeout exceeded", Phase: errortypes.PhaseFetch}
		}
		return result, &errortypes.FetchError{Kind: errortypes.KindTransport, Message: "all sources failed", Phase: errortypes.PhaseFetch}
	}
	return result, nil
}

// fetchSequential tries sources in order, stopping at first success,
// mirroring multifetcher.go's "try each, accumulate errors" loop but
// short-circuiting on success instead of merging every fetcher's result.
func (f *Fetcher) fetchSequential(ctx context.Context, client *http.Client, req Request) Result {
	var attempts []Attempt
	for _, source := range req.Sources {
		body, attempt, ok := f.fetchWithRetry(ctx, client, source, req)
		attempts = append(attempts, attempt...)
		if ok {
			return Result{Body: body, SourceURL: source, Attempts: attempts}
		}
		if ctx.Err() != nil {
			break
		}
	}
	return Result{Attempts: attempts}
}

// fetchConcurrent launches one goroutine per source via errgroup. In both
// parallel and race mode the first success cancels the requests still in
// flight and is returned at once. The modes differ only once ctx itself is
// done: race then stops collecting outcomes at the next failed source,
// while parallel keeps draining the remaining outcomes.
func (f *Fetcher) fetchConcurrent(ctx context.Context, client *http.Client, req Request, race bool) Result {
	type outcome struct {
		source  string
		body    []byte
		attempt []Attempt
	}

	groupCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan outcome, len(req.Sources))
	g, gctx := errgroup.WithContext(groupCtx)

	for _, source := range req.Sources {
		source := source
		g.Go(func() error {
			body, attempts, ok := f.fetchWithRetry(gctx, client, source, req)
			if ok {
				results <- outcome{source: source, body: body, attempt: attempts}
				cancel()
				return nil
			}
			results <- outcome{source: source, attempt: attempts}
			return nil
		})
	}

	go func() {
		g.Wait()
		close(results)
	}()

	var attempts []Attempt
	for out := range results {
		attempts = append(attempts, out.attempt...)
		if len(out.body) > 0 {
			return Result{Body: out.body, SourceURL: out.source, Attempts: attempts}
		}
		if race && ctx.Err() != nil {
			break
		}
	}
	return Result{Attempts: attempts}
}

// fetchWithRetry issues up to strategy.Retries+1 attempts against source,
// backing off by backoff-base*backoff-multiplier^(attempt-1) between
// tries, per spec.md §4.7's per-source semantics.
func (f *Fetcher) fetchWithRetry(ctx context.Context, client *http.Client, source string, req Request) ([]byte, []Attempt, bool) {
	var attempts []Attempt

	for attempt := 0; attempt <= req.Strategy.Retries; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(req.Strategy.BackoffBase, req.Strategy.BackoffMultiplier, attempt)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, attempts, false
			}
		}

		attemptCtx := ctx
		var cancel context.CancelFunc
		if req.Strategy.PerSourceTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, req.Strategy.PerSourceTimeout)
		}

		body, statusCode, err := f.doOne(attemptCtx, client, source, req)
		if cancel != nil {
			cancel()
		}

		if err != nil {
			kind := errortypes.KindTransport
			if attemptCtx.Err() == context.DeadlineExceeded {
				kind = errortypes.KindTimeoutPerSource
			}
			attempts = append(attempts, Attempt{Source: source, Phase: errortypes.PhaseFetch, Err: &errortypes.FetchError{Kind: kind, Message: err.Error(), SourceURL: source, Phase: errortypes.PhaseFetch}, StatusCode: statusCode})
			f.log.Debug("fetch attempt failed", "attempt", attempt+1, "source", source, "err", err)
			continue
		}

		if statusCode == http.StatusNoContent {
			attempts = append(attempts, Attempt{Source: source, Phase: errortypes.PhaseFetch, Err: &errortypes.FetchError{Kind: errortypes.KindNoContent, SourceURL: source, Phase: errortypes.PhaseFetch}, StatusCode: statusCode})
			return nil, attempts, false
		}

		if statusCode < 200 || statusCode >= 300 {
			attempts = append(attempts, Attempt{Source: source, Phase: errortypes.PhaseFetch, Err: &errortypes.FetchError{Kind: errortypes.KindHTTPStatus, SourceURL: source, StatusCode: statusCode, Phase: errortypes.PhaseFetch}, StatusCode: statusCode})
			continue
		}

		if len(body) == 0 {
			// Same disposition as the 204 branch above: an empty body is not
			// retried, whatever the status code that carried it.
			attempts = append(attempts, Attempt{Source: source, Phase: errortypes.PhaseFetch, Err: &errortypes.FetchError{Kind: errortypes.KindNoContent, SourceURL: source, Phase: errortypes.PhaseFetch}, StatusCode: statusCode})
			return nil, attempts, false
		}

		return body, attempts, true
	}

	return nil, attempts, false
}

func (f *Fetcher) doOne(ctx context.Context, client *http.Client, source string, req Request) ([]byte, int, error) {
	target, err := applyParams(source, req.QueryParams)
	if err != nil {
		return nil, 0, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, err
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

func applyParams(source string, params map[string]string) (string, error) {
	if len(params) == 0 {
		return source, nil
	}
	parsed, err := url.Parse(source)
	if err != nil {
		return "", err
	}
	q := parsed.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	parsed.RawQuery = q.Encode()
	return parsed.String(), nil
}

func backoffDelay(base time.Duration, multiplier float64, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	factor := 1.0
	for i := 1; i < attempt; i++ {
		factor *= multiplier
	}
	return time.Duration(float64(base) * factor)
}
