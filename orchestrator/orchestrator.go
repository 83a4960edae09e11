// Package orchestrator implements the FETCH -> PARSE -> SELECT -> TRACK
// pipeline of spec.md §4.8: one Execute call walks a primary source group
// and, on failure, a fallback list, chasing wrapper redirects and firing
// the auto-track impression on first full success. Grounded structurally
// on hooks/execution's phased hook/stage execution model ("run a stage,
// collect its outcome, decide whether to continue" shape), generalized
// from an arbitrary hook chain to the four fixed VAST phases.
package orchestrator

import (
	"context"

	"github.com/pv-udpv/vast-client/errortypes"
	"github.com/pv-udpv/vast-client/fetch"
	"github.com/pv-udpv/vast-client/logger"
	"github.com/pv-udpv/vast-client/macros"
	"github.com/pv-udpv/vast-client/metrics"
	"github.com/pv-udpv/vast-client/track"
	"github.com/pv-udpv/vast-client/transport"
	"github.com/pv-udpv/vast-client/util/randomutil"
	"github.com/pv-udpv/vast-client/util/timeutil"
	"github.com/pv-udpv/vast-client/vast"
	"github.com/pv-udpv/vast-client/vastconfig"
)

// PhaseError records one candidate source group's failure at a named
// pipeline phase.
type PhaseError struct {
	Phase  errortypes.Phase
	Source string
	Err    error
}

// Result is Execute's return value: the resolved ad (nil on total
// failure), the source URL it ultimately came from, the accumulated
// per-candidate errors, and the auto-track impression result if one was
// fired.
type Result struct {
	Ad          *vast.ParsedAd
	SourceURL   string
	MediaFiles  []vast.MediaFileRecord
	Errors      []PhaseError
	TrackResult *track.Result
}

// Succeeded reports whether Execute found a usable, filter-accepted ad. A
// partial ad surfaced alongside a wrapper-depth-exceeded error (Ad set,
// WrapperResolutionFailed true) does not count as success.
func (r Result) Succeeded() bool { return r.Ad != nil && !r.Ad.WrapperResolutionFailed }

// Orchestrator composes a Fetcher, Parser, macro Engine, and transport
// Pool into the spec.md §4.8 pipeline. One Orchestrator is safe to Execute
// concurrently from multiple callers: all per-call state lives in Result,
// not in the Orchestrator itself.
type Orchestrator struct {
	fetcher *fetch.Fetcher
	parser  *vast.Parser
	engine  *macros.Engine
	pool    *transport.Pool
	log     logger.Logger
	metrics metrics.Collector
}

// New builds an Orchestrator. parser and engine default to
// vast.NewParser() and a real-clock/random engine when nil.
func New(pool *transport.Pool, parser *vast.Parser, engine *macros.Engine, log logger.Logger, collector metrics.Collector) *Orchestrator {
	if parser == nil {
		parser = vast.NewParser()
	}
	if engine == nil {
		engine = macros.NewEngine(timeutil.NewReal(), randomutil.RandomNumberGenerator{})
	}
	if log == nil {
		log = logger.Default()
	}
	if collector == nil {
		collector = metrics.NewNoop()
	}
	return &Orchestrator{
		fetcher: fetch.NewFetcher(pool, log, collector),
		parser:  parser,
		engine:  engine,
		pool:    pool,
		log:     log,
		metrics: collector,
	}
}

// Execute runs spec.md §4.8's algorithm against cfg: try the primary
// source group, then each fallback entry in turn, chasing wrapper
// redirects up to cfg.WrapperDepthLimit deep and applying cfg.Filter on
// the first fully resolved inline ad. On the first FETCH->PARSE->SELECT
// success, if cfg.AutoTrack the impression event fires exactly once.
func (o *Orchestrator) Execute(ctx context.Context, cfg vastconfig.Config) (Result, error) {
	var allErrors []PhaseError
	var partialAd *vast.ParsedAd
	var partialSourceURL string

	candidates := append([][]string{cfg.Sources}, fallbackGroups(cfg.Fallbacks)...)

	for _, group := range candidates {
		ad, sourceURL, phaseErr := o.resolve(ctx, group, cfg)
		if phaseErr != nil {
			o.logPhaseError(*phaseErr)
			allErrors = append(allErrors, *phaseErr)
			if ad != nil && partialAd == nil {
				partialAd, partialSourceURL = ad, sourceURL
			}
			continue
		}

		mediaFiles, err := cfg.Filter.ToFilter().Apply(ad)
		if err != nil {
			pe := PhaseError{Phase: errortypes.PhaseSelect, Source: sourceURL, Err: err}
			o.logPhaseError(pe)
			allErrors = append(allErrors, pe)
			continue
		}

		result := Result{Ad: ad, SourceURL: sourceURL, MediaFiles: mediaFiles, Errors: allErrors}
		if cfg.AutoTrack {
			result.TrackResult = o.autoTrackImpression(ctx, ad, cfg)
		}
		o.metrics.IncrCounter("vast_orchestrator_total", metrics.Label{Key: "outcome", Value: "success"})
		return result, nil
	}

	o.metrics.IncrCounter("vast_orchestrator_total", metrics.Label{Key: "outcome", Value: "failure"})
	errs := make([]error, len(allErrors))
	for i, pe := range allErrors {
		errs[i] = pe.Err
	}
	// A wrapper-depth-exceeded candidate still surfaces its deepest parse
	// (spec.md §4.5, §7's "Surface; return partial ad" disposition) even
	// though Execute as a whole reports an error.
	return Result{Ad: partialAd, SourceURL: partialSourceURL, Errors: allErrors}, errortypes.NewAggregateErrors("orchestrator: no candidate source resolved", errs)
}

// resolve runs FETCH -> PARSE against one candidate group, chasing
// wrapper redirects until an inline ad or the depth limit is reached,
// then merges every hop's impression/error/tracking URLs onto the
// resolved inline ad, outermost wrapper first, per spec.md §4.5 via
// vast.ParsedAd.MergeWrapper.
func (o *Orchestrator) resolve(ctx context.Context, sources []string, cfg vastconfig.Config) (*vast.ParsedAd, string, *PhaseError) {
	strategy := cfg.Strategy
	var wrappers []*vast.ParsedAd

	for depth := 0; ; depth++ {
		result, err := o.fetcher.Fetch(ctx, fetch.Request{
			Sources:     sources,
			Strategy:    strategy,
			TLSVerify:   cfg.TLSVerify,
			QueryParams: cfg.QueryParams,
			Headers:     cfg.Headers,
		})
		if err != nil {
			return nil, "", &PhaseError{Phase: errortypes.PhaseFetch, Source: sources[0], Err: err}
		}

		ad, err := o.parser.Parse(result.Body)
		if err != nil {
			return nil, "", &PhaseError{Phase: errortypes.PhaseParse, Source: result.SourceURL, Err: err}
		}

		if !ad.IsWrapper() {
			for i := len(wrappers) - 1; i >= 0; i-- {
				ad.MergeWrapper(wrappers[i])
			}
			return ad, result.SourceURL, nil
		}

		if depth >= cfg.WrapperDepthLimit {
			for i := len(wrappers) - 1; i >= 0; i-- {
				ad.MergeWrapper(wrappers[i])
			}
			ad.WrapperResolutionFailed = true
			return ad, result.SourceURL, &PhaseError{
				Phase:  errortypes.PhaseParse,
				Source: result.SourceURL,
				Err:    errortypes.NewFetchError(errortypes.KindWrapperDepthExceeded, "orchestrator: wrapper depth limit exceeded"),
			}
		}

		wrappers = append(wrappers, ad)
		sources = []string{ad.WrapperVASTAdTagURI}
		strategy.Mode = vastconfig.ModeSequential
	}
}

// logPhaseError logs a candidate's phase failure at a level matching its
// error's severity: errortypes.IsWarning kinds (KindNoContent,
// KindFilterRejected, KindCancelled) are expected operational noise one
// fallback candidate produces on its way to a working one, logged at Warn;
// anything else is logged at Error.
func (o *Orchestrator) logPhaseError(pe PhaseError) {
	fields := []any{"phase", pe.Phase, "source", pe.Source, "err", pe.Err, "code", errortypes.ReadCode(pe.Err)}
	if errortypes.IsWarning(pe.Err) {
		o.log.Warn("orchestrator: candidate failed", fields...)
		return
	}
	o.log.Error("orchestrator: candidate failed", fields...)
}

func fallbackGroups(fallbacks []string) [][]string {
	groups := make([][]string, len(fallbacks))
	for i, f := range fallbacks {
		groups[i] = []string{f}
	}
	return groups
}

// autoTrackImpression builds a one-shot Tracker for ad and fires its
// impression event, per spec.md §4.8's "at most one auto-track impression
// per call" invariant.
func (o *Orchestrator) autoTrackImpression(ctx context.Context, ad *vast.ParsedAd, cfg vastconfig.Config) *track.Result {
	client, err := o.pool.Get(cfg.TLSVerify)
	if err != nil {
		o.log.Warn("orchestrator: auto-track client unavailable", "err", err)
		return nil
	}
	tracker := track.NewTracker(ad, client, o.engine, cfg.Tracker, nil, o.log, o.metrics)
	result := tracker.Track(ctx, "impression", macros.Context{Static: staticMacroMap(cfg.StaticMacros)})
	return &result
}

func staticMacroMap(m map[string]string) macros.Map {
	out := make(macros.Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
