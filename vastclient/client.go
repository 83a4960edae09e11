// Package vastclient is the top-level facade spec.md §4.12 describes:
// construct once from a URL, a config, or an HTTP-client-like base, then
// call Request (or RequestWithFallback) as many times as needed. Grounded
// structurally on exchange.Exchange's top-level constructor pattern (a
// handful of named New* entry points composing the same underlying
// collaborators), generalized to this module's three construction paths.
package vastclient

import (
	"context"
	"reflect"

	"github.com/pv-udpv/vast-client/errortypes"
	"github.com/pv-udpv/vast-client/logger"
	"github.com/pv-udpv/vast-client/macros"
	"github.com/pv-udpv/vast-client/metrics"
	"github.com/pv-udpv/vast-client/orchestrator"
	"github.com/pv-udpv/vast-client/playback"
	"github.com/pv-udpv/vast-client/transport"
	"github.com/pv-udpv/vast-client/util/randomutil"
	"github.com/pv-udpv/vast-client/util/timeutil"
	"github.com/pv-udpv/vast-client/vast"
	"github.com/pv-udpv/vast-client/vastconfig"
)

// Client composes a transport Pool, macro Engine, VAST Parser, and
// Orchestrator behind the three construction paths spec.md §4.12 names.
// A Client is safe to call Request/RequestWithFallback on concurrently
// from multiple callers; playback.Engine sessions minted from
// PlaybackEngine are not safe to share across tasks (spec.md §4.12's
// concurrency invariant).
type Client struct {
	cfg    vastconfig.Config
	pool   *transport.Pool
	engine *macros.Engine
	parser *vast.Parser
	orch   *orchestrator.Orchestrator

	ownsPool bool
	log      logger.Logger
	metrics  metrics.Collector
}

// Option customizes a Client at construction time.
type Option func(*Client)

// WithLogger overrides the default logger.
func WithLogger(log logger.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithMetrics overrides the default no-op metrics collector.
func WithMetrics(collector metrics.Collector) Option {
	return func(c *Client) { c.metrics = collector }
}

// WithTransportSettings overrides the transport pool's connection
// settings; ignored when combined with FromHTTPClient, which brings its
// own pool.
func WithTransportSettings(settings transport.Settings) Option {
	return func(c *Client) {
		if c.pool == nil {
			c.pool = transport.NewPool(settings)
		}
	}
}

func newClient(cfg vastconfig.Config, pool *transport.Pool, ownsPool bool, opts []Option) *Client {
	c := &Client{
		cfg:      cfg,
		pool:     pool,
		ownsPool: ownsPool,
		log:      logger.Default(),
		metrics:  metrics.NewNoop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.pool == nil {
		c.pool = transport.NewPool(transport.DefaultSettings())
		c.ownsPool = true
	}
	c.engine = macros.NewEngine(timeutil.NewReal(), randomutil.RandomNumberGenerator{})
	c.parser = vast.NewParser()
	c.orch = orchestrator.New(c.pool, c.parser, c.engine, c.log, c.metrics)
	return c
}

// FromURL builds a minimal Client whose single source is url, with the
// global default Config otherwise (spec.md §4.12's "from a URL string"
// construction path).
func FromURL(url string, opts ...Option) *Client {
	cfg := vastconfig.Defaults()
	cfg.Sources = []string{url}
	return newClient(cfg, nil, true, opts)
}

// FromConfig builds a Client from a fully resolved Config (spec.md
// §4.12's "from a config object" path), typically the output of a
// vastconfig.Resolver merge.
func FromConfig(cfg vastconfig.Config, opts ...Option) *Client {
	return newClient(cfg, nil, true, opts)
}

// FromHTTPClient builds a Client that composes caller-supplied default
// query parameters and headers onto every request (spec.md §4.12's "from
// an HTTP-client-like base" path), reusing pool as the transport pool
// instead of building a new one. The Client does not take ownership of
// pool: Close will not close it.
func FromHTTPClient(pool *transport.Pool, cfg vastconfig.Config, opts ...Option) *Client {
	return newClient(cfg, pool, false, opts)
}

// Result is what Request/RequestWithFallback return: the orchestrator's
// outcome. It does not carry the config the call resolved to.
type Result struct {
	orchestrator.Result
}

// Request resolves cfg.Sources (optionally overridden per-call) through
// one orchestrator pass. overrides, if non-nil, are shallow-merged onto
// the Client's base config: a non-zero/non-nil field in overrides wins.
func (c *Client) Request(ctx context.Context, overrides *vastconfig.Config) (Result, error) {
	cfg := c.cfg
	if overrides != nil {
		cfg = mergeOverride(cfg, *overrides)
	}
	res, err := c.orch.Execute(ctx, cfg)
	c.logOutcome(err)
	return Result{Result: res}, err
}

// RequestWithFallback is Request with primary/fallbacks substituted for
// whatever the Client's base config carries, per spec.md §4.12's
// "request-with-fallback" operation.
func (c *Client) RequestWithFallback(ctx context.Context, primary []string, fallbacks []string) (Result, error) {
	cfg := c.cfg
	cfg.Sources = primary
	cfg.Fallbacks = fallbacks
	res, err := c.orch.Execute(ctx, cfg)
	c.logOutcome(err)
	return Result{Result: res}, err
}

// logOutcome splits a failed Execute's aggregated candidate errors by
// severity (errortypes.FatalOnly/WarningOnly) so a run that failed only on
// expected noise (empty responses, filter rejections) is distinguishable
// in logs from one that hit a real transport or parse failure.
func (c *Client) logOutcome(err error) {
	if err == nil {
		return
	}
	agg, ok := err.(errortypes.AggregateErrors)
	if !ok {
		c.log.Error("vastclient: request failed", "err", err)
		return
	}
	fatal := errortypes.FatalOnly(agg.Errors)
	warning := errortypes.WarningOnly(agg.Errors)
	if len(fatal) == 0 {
		c.log.Warn("vastclient: request failed on warning-severity errors only", "warning_count", len(warning))
		return
	}
	c.log.Error("vastclient: request failed", "fatal_count", len(fatal), "warning_count", len(warning))
}

// Orchestrator exposes the underlying orchestrator.Orchestrator directly
// for advanced callers who need finer control than Request offers.
func (c *Client) Orchestrator() *orchestrator.Orchestrator { return c.orch }

// PlaybackEngine returns a playback.Engine sharing this Client's logger
// and metrics collector, bound to a real wall clock. Sessions minted from
// it are single-owner and must not be shared across tasks.
func (c *Client) PlaybackEngine() *playback.Engine {
	return playback.NewEngine(timeutil.NewReal(), c.log, c.metrics)
}

// VirtualPlaybackEngine is like PlaybackEngine but drives Sessions off a
// Virtual clock at the given speed, for headless/accelerated playback and
// stochastic-interruption testing (spec.md §6's Playback mode
// "headless"/"auto").
func (c *Client) VirtualPlaybackEngine(speed float64) (*playback.Engine, error) {
	v, err := timeutil.NewVirtual(speed)
	if err != nil {
		return nil, err
	}
	return playback.NewEngine(v, c.log, c.metrics), nil
}

// Close releases the transport pool entry this Client created. It is a
// no-op when the Client was built with FromHTTPClient against a
// caller-owned pool.
func (c *Client) Close() error {
	if c.ownsPool {
		c.pool.Close()
	}
	return nil
}

func mergeOverride(base, override vastconfig.Config) vastconfig.Config {
	if len(override.Sources) > 0 {
		base.Sources = override.Sources
	}
	if len(override.Fallbacks) > 0 {
		base.Fallbacks = override.Fallbacks
	}
	if !reflect.DeepEqual(override.Strategy, vastconfig.FetchStrategy{}) {
		base.Strategy = override.Strategy
	}
	if override.QueryParams != nil {
		base.QueryParams = mergeStringMap(base.QueryParams, override.QueryParams)
	}
	if override.Headers != nil {
		base.Headers = mergeStringMap(base.Headers, override.Headers)
	}
	if !reflect.DeepEqual(override.Filter, vastconfig.FilterConfig{}) {
		base.Filter = override.Filter
	}
	if !reflect.DeepEqual(override.TLSVerify, vastconfig.TLSVerifyMode{}) {
		base.TLSVerify = override.TLSVerify
	}
	if !reflect.DeepEqual(override.Tracker, vastconfig.TrackerConfig{}) {
		base.Tracker = override.Tracker
	}
	if override.StaticMacros != nil {
		base.StaticMacros = mergeStringMap(base.StaticMacros, override.StaticMacros)
	}
	if override.Interruptions != nil {
		base.Interruptions = override.Interruptions
	}
	if override.WrapperDepthLimit != 0 {
		base.WrapperDepthLimit = override.WrapperDepthLimit
	}
	// AutoTrack follows the same "non-zero wins" convention as the other
	// scalar fields above: a zero-valued overrides struct (the common case
	// when a caller only wants to override, say, Sources) must not flip an
	// already-enabled AutoTrack back off. As with WrapperDepthLimit, this
	// means overrides cannot force AutoTrack false once the base config has
	// it true; callers needing that should set it on the base Config
	// instead of passing it as a per-call override.
	if override.AutoTrack {
		base.AutoTrack = true
	}
	return base
}

func mergeStringMap(base, override map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}
