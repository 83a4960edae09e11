package playback

import (
	"context"
	"errors"
	"time"

	"github.com/pv-udpv/vast-client/logger"
	"github.com/pv-udpv/vast-client/metrics"
	"github.com/pv-udpv/vast-client/util/timeutil"
)

// ErrNotPending is returned by Session.Run when called on a session that
// has already started (or finished) playing.
var ErrNotPending = errors.New("playback: Run called on a non-pending session")

// Engine constructs Sessions bound to a shared clock, logger, and metrics
// collector. One Engine can mint many concurrent Sessions; a Session
// itself should not be shared across unrelated playback tasks (SPEC_FULL.md
// §4.12's concurrency invariant).
type Engine struct {
	clock   timeutil.Clock
	log     logger.Logger
	metrics metrics.Collector
}

// NewEngine builds a playback Engine. clock defaults to the real wall
// clock when nil.
func NewEngine(clock timeutil.Clock, log logger.Logger, collector metrics.Collector) *Engine {
	if clock == nil {
		clock = timeutil.NewReal()
	}
	if log == nil {
		log = logger.Default()
	}
	if collector == nil {
		collector = metrics.NewNoop()
	}
	return &Engine{clock: clock, log: log, metrics: collector}
}

// NewSession mints a pending Session for creativeID with the given
// declared duration.
func (e *Engine) NewSession(creativeID string, duration time.Duration, cfg Config) *Session {
	return newSession(e.clock, e.log, e.metrics, creativeID, duration, cfg)
}

// Run drives s's scheduling loop to completion (StateCompleted,
// StateClosed, or StateError), per spec.md §4.10. Run blocks until the
// session reaches a terminal state or ctx is cancelled.
func (s *Session) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StatePending {
		s.mu.Unlock()
		return ErrNotPending
	}
	s.mu.Unlock()

	if s.duration <= 0 {
		return s.enterZeroDurationError(ctx)
	}

	s.enterRunning(ctx)

	if interrupted := s.maybeInterrupt(ctx, eventStart, 0); interrupted {
		return nil
	}

	for {
		if err := s.clock.Sleep(ctx, s.tickInterval); err != nil {
			return err
		}

		s.mu.Lock()
		switch {
		case s.stopRequested:
			s.mu.Unlock()
			s.fireAndClose(ctx)
			return nil
		case s.errorRequested:
			reason := s.errorReason
			s.mu.Unlock()
			s.fireAndError(ctx, eventError, s.CurrentOffset(), reason)
			return nil
		case s.paused && s.state == StatePaused:
			s.mu.Unlock()
			continue
		}
		s.mu.Unlock()

		if s.handlePauseResumeTransition(ctx) {
			continue
		}

		offset := s.advanceOffset()

		done, err := s.fireDueEvents(ctx, offset)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

func (s *Session) enterZeroDurationError(ctx context.Context) error {
	s.setState(StateError)
	s.mu.Lock()
	s.startTime = s.clock.Now()
	s.endTime = s.startTime
	s.interruption = nil
	s.mu.Unlock()
	s.recordEvent(ctx, eventError, 0, map[string]string{"reason": "zero-duration"})
	return nil
}

func (s *Session) enterRunning(ctx context.Context) {
	s.mu.Lock()
	s.state = StateRunning
	s.startTime = s.clock.Now()
	s.mu.Unlock()

	s.recordEvent(ctx, eventImpression, 0, nil)
	s.recordEvent(ctx, eventStart, 0, nil)
	s.recordEvent(ctx, eventCreativeView, 0, nil)
}

// handlePauseResumeTransition fires the pause/resume lifecycle events the
// moment Pause()/Resume() flips the internal flag, and reports whether the
// caller should skip this tick's offset advance (true right after a fresh
// pause).
func (s *Session) handlePauseResumeTransition(ctx context.Context) bool {
	s.mu.Lock()
	switch {
	case s.paused && s.state == StateRunning:
		s.state = StatePaused
		s.pausedAtOffset = s.currentOffset
		offset := s.currentOffset
		s.mu.Unlock()
		s.recordEvent(ctx, eventPause, offset, nil)
		return true
	case !s.paused && s.state == StatePaused:
		s.state = StateRunning
		s.startTime = s.clock.Now().Add(-s.pausedAtOffset)
		offset := s.pausedAtOffset
		s.mu.Unlock()
		s.recordEvent(ctx, eventResume, offset, nil)
		return false
	default:
		s.mu.Unlock()
		return false
	}
}

// advanceOffset recomputes currentOffset from the clock and returns it.
func (s *Session) advanceOffset() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentOffset = s.clock.Now().Sub(s.startTime)
	if s.currentOffset < 0 {
		s.currentOffset = 0
	}
	return s.currentOffset
}

// fireDueEvents fires every quartile/progress/complete event whose
// threshold the new offset has crossed since the last tick, honoring
// per-event idempotence and the stochastic interruption draw. It reports
// done=true once the session has fully completed.
func (s *Session) fireDueEvents(ctx context.Context, offset time.Duration) (done bool, err error) {
	for _, q := range s.quartileThresholds() {
		s.mu.Lock()
		already := s.quartilesReached[q.name]
		due := !already && offset >= q.threshold
		if due {
			s.quartilesReached[q.name] = true
		}
		s.mu.Unlock()

		if !due {
			continue
		}
		if s.maybeInterrupt(ctx, q.name, offset) {
			return true, nil
		}
		s.recordEvent(ctx, q.name, offset, nil)
	}

	for _, p := range s.progressThresholds {
		s.mu.Lock()
		already := s.progressReached[p.name]
		due := !already && offset >= p.threshold
		if due {
			s.progressReached[p.name] = true
		}
		s.mu.Unlock()

		if !due {
			continue
		}
		if s.maybeInterrupt(ctx, p.name, offset) {
			return true, nil
		}
		s.recordEvent(ctx, p.name, offset, nil)
	}

	if offset >= s.duration {
		if s.maybeInterrupt(ctx, eventComplete, s.duration) {
			return true, nil
		}
		s.recordEvent(ctx, eventComplete, s.duration, nil)
		s.mu.Lock()
		s.state = StateCompleted
		s.endTime = s.clock.Now()
		s.currentOffset = s.duration
		s.mu.Unlock()
		return true, nil
	}
	return false, nil
}

func (s *Session) fireAndClose(ctx context.Context) {
	offset := s.CurrentOffset()
	s.recordEvent(ctx, eventClose, offset, nil)
	s.mu.Lock()
	s.state = StateClosed
	s.endTime = s.clock.Now()
	s.mu.Unlock()
}

func (s *Session) fireAndError(ctx context.Context, eventType string, offset time.Duration, reason string) {
	s.recordEvent(ctx, eventType, offset, map[string]string{"reason": reason})
	s.mu.Lock()
	s.state = StateError
	s.endTime = s.clock.Now()
	s.mu.Unlock()
}

// maybeInterrupt consults s.interruptions for eventType, draws against its
// probability when playing on a virtual clock, and if the draw succeeds
// transitions the session to StateError with a jittered offset. Reports
// whether an interruption fired.
func (s *Session) maybeInterrupt(ctx context.Context, eventType string, offset time.Duration) bool {
	if !s.isVirtual {
		return false
	}
	rule, ok := s.interruptions[eventType]
	if !ok || rule.Probability <= 0 {
		return false
	}
	if s.rng.GenerateFloat64() >= rule.Probability {
		return false
	}

	jitter := rule.JitterMin
	if span := rule.JitterMax - rule.JitterMin; span > 0 {
		jitter += time.Duration(s.rng.GenerateFloat64() * float64(span))
	}
	interruptedOffset := offset + jitter
	if interruptedOffset < 0 {
		interruptedOffset = 0
	}

	s.mu.Lock()
	s.state = StateError
	s.currentOffset = interruptedOffset
	s.endTime = s.clock.Now()
	s.interruption = &Interruption{EventType: eventType, Offset: interruptedOffset, Reason: eventType}
	s.mu.Unlock()

	s.recordEvent(ctx, eventError, interruptedOffset, map[string]string{"reason": "interruption", "at_event": eventType})
	s.metrics.IncrCounter("vast_playback_interruption_total", metrics.Label{Key: "event", Value: eventType})
	return true
}
