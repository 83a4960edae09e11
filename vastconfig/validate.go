package vastconfig

import (
	"fmt"

	"github.com/pv-udpv/vast-client/errortypes"
)

// Validate checks a resolved Config against spec.md §4.11's invariants,
// collecting every violation rather than stopping at the first one, in the
// style of errortypes.AggregateErrors.
func Validate(cfg Config) error {
	var errs []error

	if len(cfg.Sources) == 0 {
		errs = append(errs, fmt.Errorf("sources must be non-empty"))
	}
	if cfg.WrapperDepthLimit < 0 {
		errs = append(errs, fmt.Errorf("wrapper_depth_limit must be >= 0, got %d", cfg.WrapperDepthLimit))
	}
	if cfg.Strategy.PerSourceTimeout <= 0 {
		errs = append(errs, fmt.Errorf("strategy.per_source_timeout must be > 0"))
	}
	if cfg.Strategy.OverallTimeout <= 0 {
		errs = append(errs, fmt.Errorf("strategy.overall_timeout must be > 0"))
	}
	if cfg.Strategy.Retries < 0 {
		errs = append(errs, fmt.Errorf("strategy.retries must be >= 0, got %d", cfg.Strategy.Retries))
	}
	if cfg.Strategy.BackoffMultiplier < 1 {
		errs = append(errs, fmt.Errorf("strategy.backoff_multiplier must be >= 1, got %v", cfg.Strategy.BackoffMultiplier))
	}
	switch cfg.Strategy.Mode {
	case ModeParallel, ModeSequential, ModeRace:
	default:
		errs = append(errs, fmt.Errorf("strategy.mode %q is not one of parallel, sequential, race", cfg.Strategy.Mode))
	}

	if cfg.Tracker.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("tracker.request_timeout must be > 0"))
	}
	if cfg.Tracker.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("tracker.max_retries must be >= 0, got %d", cfg.Tracker.MaxRetries))
	}
	if cfg.Tracker.BackoffMultiplier < 1 {
		errs = append(errs, fmt.Errorf("tracker.backoff_multiplier must be >= 1, got %v", cfg.Tracker.BackoffMultiplier))
	}

	for event, rule := range cfg.Interruptions {
		if rule.Probability < 0 || rule.Probability > 1 {
			errs = append(errs, fmt.Errorf("interruptions[%s].probability must be in [0,1], got %v", event, rule.Probability))
		}
		if rule.JitterMin > rule.JitterMax {
			errs = append(errs, fmt.Errorf("interruptions[%s].jitter_min must be <= jitter_max", event))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	agg := errortypes.NewAggregateErrors("invalid config", errs)
	return &agg
}
