// Package track implements the trackable-event registry and firing logic
// of spec.md §4.9: one Tracker per resolved ad, keyed by event type, each
// entry advancing through a small pending/tracked/failed state machine as
// it fires. Grounded on macros/provider.go for macro-context layering and
// on stored_requests/backends/http_fetcher/fetcher.go's per-request
// retry/backoff shape, reused here for tracking-pixel GETs instead of
// stored-request lookups.
package track

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/pv-udpv/vast-client/errortypes"
	"github.com/pv-udpv/vast-client/logger"
	"github.com/pv-udpv/vast-client/macros"
	"github.com/pv-udpv/vast-client/metrics"
	"github.com/pv-udpv/vast-client/util/timeutil"
	"github.com/pv-udpv/vast-client/vast"
	"github.com/pv-udpv/vast-client/vastconfig"
)

// State is a trackable's position in its pending -> tracked|failed
// state machine. Once tracked it never fires again; a failed trackable is
// fired again by the next Track call for its event type.
type State string

const (
	StatePending State = "pending"
	StateTracked State = "tracked"
	StateFailed  State = "failed"
)

// Trackable is one registered URL for one event type.
type Trackable struct {
	EventType    string
	URL          string
	State        State
	Err          error
	ResponseTime time.Duration
}

func (t *Trackable) tracked() bool { return t.State == StateTracked }

// TrackableResult reports the outcome of firing one Trackable.
type TrackableResult struct {
	URL        string
	StatusCode int
	Err        error
	Duration   time.Duration
}

// Result is a Tracker.Track call's return value: spec.md §4.9's
// "(successful-count, total-count, per-trackable [...])" tuple.
type Result struct {
	EventType       string
	SuccessfulCount int
	TotalCount      int
	PerTrackable    []TrackableResult
}

// Tracker holds one ad's trackable registry, grouped by event type in
// registry (VAST document) order.
type Tracker struct {
	registry map[string][]*Trackable

	client *http.Client
	engine *macros.Engine
	cfg    vastconfig.TrackerConfig
	clock  timeutil.Clock
	log    logger.Logger
	metrics metrics.Collector
}

// eventImpression and eventError are the two event types the parser's
// top-level Impressions/Errors lists map onto; every other key comes
// straight from ParsedAd.TrackingEvents.
const (
	eventImpression = "impression"
	eventError      = "error"
)

// NewTracker builds a Tracker's registry from ad's impression, error, and
// tracking-event URL lists.
func NewTracker(ad *vast.ParsedAd, client *http.Client, engine *macros.Engine, cfg vastconfig.TrackerConfig, clock timeutil.Clock, log logger.Logger, collector metrics.Collector) *Tracker {
	if clock == nil {
		clock = timeutil.NewReal()
	}
	if log == nil {
		log = logger.Default()
	}
	if collector == nil {
		collector = metrics.NewNoop()
	}

	registry := make(map[string][]*Trackable)
	registry[eventImpression] = trackablesFor(eventImpression, ad.Impressions)
	registry[eventError] = trackablesFor(eventError, ad.Errors)
	for eventType, urls := range ad.TrackingEvents {
		registry[eventType] = trackablesFor(eventType, urls)
	}

	return &Tracker{
		registry: registry,
		client:   client,
		engine:   engine,
		cfg:      cfg,
		clock:    clock,
		log:      log,
		metrics:  collector,
	}
}

func trackablesFor(eventType string, urls []string) []*Trackable {
	out := make([]*Trackable, len(urls))
	for i, u := range urls {
		out[i] = &Trackable{EventType: eventType, URL: u, State: StatePending}
	}
	return out
}

// EventTypes returns every event type this Tracker has at least one
// registered trackable for.
func (t *Tracker) EventTypes() []string {
	types := make([]string, 0, len(t.registry))
	for eventType, trackables := range t.registry {
		if len(trackables) > 0 {
			types = append(types, eventType)
		}
	}
	return types
}

// Trackables returns the registered trackables for eventType, in
// registry order. The caller must not mutate the returned slice.
func (t *Tracker) Trackables(eventType string) []*Trackable {
	return t.registry[eventType]
}

// Track fires every trackable registered for eventType, per spec.md
// §4.9's numbered firing algorithm, honoring t.cfg.ParallelFiring.
func (t *Tracker) Track(ctx context.Context, eventType string, macroCtx macros.Context) Result {
	trackables := t.registry[eventType]
	result := Result{EventType: eventType, TotalCount: len(trackables)}
	if len(trackables) == 0 {
		return result
	}

	if t.cfg.ParallelFiring {
		result.PerTrackable = t.fireParallel(ctx, trackables, macroCtx)
	} else {
		result.PerTrackable = t.fireSequential(ctx, trackables, macroCtx)
	}

	for _, r := range result.PerTrackable {
		if r.Err == nil {
			result.SuccessfulCount++
		}
	}

	t.metrics.IncrCounter("vast_track_total", metrics.Label{Key: "event", Value: eventType})
	return result
}

func (t *Tracker) fireSequential(ctx context.Context, trackables []*Trackable, macroCtx macros.Context) []TrackableResult {
	out := make([]TrackableResult, len(trackables))
	for i, trackable := range trackables {
		out[i] = t.fireOne(ctx, trackable, macroCtx)
	}
	return out
}

func (t *Tracker) fireParallel(ctx context.Context, trackables []*Trackable, macroCtx macros.Context) []TrackableResult {
	out := make([]TrackableResult, len(trackables))
	var wg sync.WaitGroup
	for i, trackable := range trackables {
		wg.Add(1)
		go func(i int, trackable *Trackable) {
			defer wg.Done()
			out[i] = t.fireOne(ctx, trackable, macroCtx)
		}(i, trackable)
	}
	wg.Wait()
	return out
}

// fireOne implements spec.md §4.9's per-trackable firing steps 1-6.
func (t *Tracker) fireOne(ctx context.Context, trackable *Trackable, macroCtx macros.Context) TrackableResult {
	if trackable.tracked() {
		return TrackableResult{URL: trackable.URL}
	}

	if trackable.URL == "" {
		trackable.State = StateFailed
		trackable.Err = &errortypes.FetchError{Kind: errortypes.KindEmptyURL, Phase: errortypes.PhaseTrack}
		return TrackableResult{Err: trackable.Err}
	}

	resolved := t.engine.Substitute(trackable.URL, macroCtx)

	var lastResult TrackableResult
	for attempt := 0; attempt <= t.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(t.cfg.RetryDelay, t.cfg.BackoffMultiplier, attempt)
			if err := t.clock.Sleep(ctx, delay); err != nil {
				lastResult = TrackableResult{URL: resolved, Err: err}
				break
			}
		}

		lastResult = t.doOne(ctx, resolved)
		if lastResult.Err == nil {
			break
		}
	}

	if lastResult.Err == nil {
		trackable.State = StateTracked
		trackable.ResponseTime = lastResult.Duration
	} else {
		trackable.State = StateFailed
		trackable.Err = lastResult.Err
	}
	return lastResult
}

func (t *Tracker) doOne(ctx context.Context, resolvedURL string) TrackableResult {
	start := t.clock.Now()

	requestCtx := ctx
	var cancel context.CancelFunc
	if t.cfg.RequestTimeout > 0 {
		requestCtx, cancel = context.WithTimeout(ctx, t.cfg.RequestTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(requestCtx, http.MethodGet, resolvedURL, nil)
	if err != nil {
		return TrackableResult{URL: resolvedURL, Err: err, Duration: t.clock.Now().Sub(start)}
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return TrackableResult{URL: resolvedURL, Err: &errortypes.FetchError{Kind: errortypes.KindTransport, Message: err.Error(), SourceURL: resolvedURL, Phase: errortypes.PhaseTrack}, Duration: t.clock.Now().Sub(start)}
	}
	defer resp.Body.Close()

	duration := t.clock.Now().Sub(start)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return TrackableResult{URL: resolvedURL, StatusCode: resp.StatusCode, Err: &errortypes.FetchError{Kind: errortypes.KindHTTPStatus, SourceURL: resolvedURL, StatusCode: resp.StatusCode, Phase: errortypes.PhaseTrack}, Duration: duration}
	}
	return TrackableResult{URL: resolvedURL, StatusCode: resp.StatusCode, Duration: duration}
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
