// Package playback implements the cooperative playback state machine of
// spec.md §4.10: a single-threaded scheduling loop that advances a virtual
// or real-time offset through a creative's duration, firing impression,
// quartile, and lifecycle tracking events as it goes.
//
// Grounded structurally on hooks/execution's "advance, check, react" loop
// shape and on util/timeutil's Clock split between Real and Virtual
// providers; the stochastic interruption draw is grounded on
// util/randomutil's seeded Generator.
package playback

import (
	"context"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pv-udpv/vast-client/logger"
	"github.com/pv-udpv/vast-client/macros"
	"github.com/pv-udpv/vast-client/metrics"
	"github.com/pv-udpv/vast-client/track"
	"github.com/pv-udpv/vast-client/util/randomutil"
	"github.com/pv-udpv/vast-client/util/timeutil"
	"github.com/pv-udpv/vast-client/vastconfig"
)

// State is a playback session's position in spec.md §4.10's state machine.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StatePaused    State = "paused"
	StateCompleted State = "completed"
	StateClosed    State = "closed"
	StateError     State = "error"
)

// Event type names match vast.Parser's lowercased TrackingEvents keys
// (strings.ToLower of the VAST "event" attribute), so firing one of these
// against a Tracker built from a real parsed ad finds its registered
// URLs. "impression" and "error" are not TrackingEvents keys at all — they
// address Tracker's dedicated Impressions/Errors registries instead.
const (
	eventImpression    = "impression"
	eventStart         = "start"
	eventCreativeView  = "creativeview"
	eventFirstQuartile = "firstquartile"
	eventMidpoint      = "midpoint"
	eventThirdQuartile = "thirdquartile"
	eventComplete      = "complete"
	eventPause         = "pause"
	eventResume        = "resume"
	eventClose         = "close"
	eventError         = "error"
)

// EventRecord is one fired (or attempted) playback event, kept in session
// order for the persisted event log.
type EventRecord struct {
	ID        string
	Type      string
	Offset    time.Duration
	Timestamp time.Time
	Metadata  map[string]string
}

// Interruption records a stochastic virtual-time interruption that moved
// the session into StateError, per spec.md §4.10's "Stochastic
// interruption" rule.
type Interruption struct {
	EventType string
	Offset    time.Duration
	Reason    string
}

// Session is one playback of one creative. A Session is not safe for
// concurrent use by multiple goroutines beyond its own Run loop and the
// Pause/Resume/Stop/Error control calls, which are safe to call from a
// different goroutine than the one running Run.
type Session struct {
	mu sync.Mutex

	id           string
	creativeID   string
	duration     time.Duration
	tickInterval time.Duration

	state            State
	currentOffset    time.Duration
	pausedAtOffset   time.Duration
	startTime        time.Time
	endTime          time.Time
	events             []EventRecord
	quartilesReached   map[string]bool
	progressThresholds []progressThreshold
	progressReached    map[string]bool
	interruption       *Interruption
	metadata         map[string]string
	extraFields      map[string]any

	paused         bool
	stopRequested  bool
	errorRequested bool
	errorReason    string

	clock         timeutil.Clock
	isVirtual     bool
	rng           randomutil.Generator
	interruptions map[string]vastconfig.InterruptionRule
	tracker       *track.Tracker
	staticMacros  macros.Map

	log     logger.Logger
	metrics metrics.Collector
}

// Config bundles the per-session construction parameters Engine.NewSession
// needs beyond the creative identity itself.
type Config struct {
	TickInterval  time.Duration
	Tracker       *track.Tracker
	Interruptions map[string]vastconfig.InterruptionRule
	StaticMacros  map[string]string
	Metadata      map[string]string
}

func newSession(clock timeutil.Clock, log logger.Logger, collector metrics.Collector, creativeID string, duration time.Duration, cfg Config) *Session {
	id := uuid.NewString()
	_, isVirtual := clock.(*timeutil.Virtual)

	static := make(macros.Map, len(cfg.StaticMacros))
	for k, v := range cfg.StaticMacros {
		static[k] = v
	}

	tick := cfg.TickInterval
	if tick <= 0 {
		if isVirtual {
			tick = 100 * time.Millisecond
		} else {
			tick = time.Second
		}
	}

	return &Session{
		id:                 id,
		creativeID:         creativeID,
		duration:           duration,
		tickInterval:       tick,
		state:              StatePending,
		quartilesReached:   make(map[string]bool),
		progressThresholds: parseProgressThresholds(cfg.Tracker, duration),
		progressReached:    make(map[string]bool),
		metadata:           cfg.Metadata,
		clock:              clock,
		isVirtual:          isVirtual,
		rng:                randomutil.NewSeeded(int64(fnvSeed(id))),
		interruptions:      cfg.Interruptions,
		tracker:            cfg.Tracker,
		staticMacros:       static,
		log:                log,
		metrics:            collector,
	}
}

// progressThreshold is one "progress-N" tracking key's due offset, resolved
// per SPEC_FULL.md's negative-offset rule (N < 0 fires at duration+N).
type progressThreshold struct {
	name      string
	threshold time.Duration
}

// parseProgressThresholds reads tracker's registered event types for
// "progress-N" keys (track.Tracker.EventTypes, built from
// vast.ParsedAd.TrackingEvents) and resolves each to a due offset, sorted
// ascending so fireDueEvents fires them in a stable order.
func parseProgressThresholds(tracker *track.Tracker, duration time.Duration) []progressThreshold {
	if tracker == nil {
		return nil
	}
	var out []progressThreshold
	for _, eventType := range tracker.EventTypes() {
		n, ok := strings.CutPrefix(eventType, "progress-")
		if !ok {
			continue
		}
		offset, err := strconv.Atoi(n)
		if err != nil {
			continue
		}
		threshold := time.Duration(offset) * time.Second
		if offset < 0 {
			threshold = duration + threshold
		}
		out = append(out, progressThreshold{name: eventType, threshold: threshold})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].threshold < out[j].threshold })
	return out
}

// fnvSeed hashes id into an int64 seed, per SPEC_FULL.md's resolution of
// the deterministic-RNG open question.
func fnvSeed(id string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return h.Sum64()
}

// ID returns the session's generated identifier.
func (s *Session) ID() string { return s.id }

// CreativeID returns the creative this session is playing.
func (s *Session) CreativeID() string { return s.creativeID }

// Duration returns the creative's declared duration.
func (s *Session) Duration() time.Duration { return s.duration }

// State returns the session's current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CurrentOffset returns the session's current playback offset.
func (s *Session) CurrentOffset() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentOffset
}

// Events returns a copy of the session's fired-event log, in firing order.
func (s *Session) Events() []EventRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]EventRecord, len(s.events))
	copy(out, s.events)
	return out
}

// Interruption returns the recorded stochastic interruption, if the
// session transitioned to StateError because of one.
func (s *Session) Interruption() *Interruption {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interruption
}

// Pause requests a transition to StatePaused, honored at the loop's next
// tick. Pause is a no-op unless the session is currently running.
func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning {
		return
	}
	s.paused = true
}

// Resume requests a transition back to StateRunning from StatePaused,
// honored at the loop's next tick.
func (s *Session) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePaused {
		return
	}
	s.paused = false
}

// Stop requests a transition to the terminal StateClosed state, honored at
// the loop's next tick.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopRequested = true
}

// Error requests a transition to the terminal StateError state with the
// given reason, honored at the loop's next tick.
func (s *Session) Error(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errorRequested = true
	s.errorReason = reason
}

func (s *Session) macroContext(offset time.Duration) macros.Context {
	return macros.Context{Static: s.staticMacros, ContentPlayhead: offset}
}

// recordEvent appends an EventRecord and, if a Tracker was supplied, fires
// that event's registered trackables. It takes s.mu itself for the
// bookkeeping, so the caller must not hold it; the network fire happens
// with s.mu released.
func (s *Session) recordEvent(ctx context.Context, eventType string, offset time.Duration, extra map[string]string) {
	record := EventRecord{
		ID:        newEventID(),
		Type:      eventType,
		Offset:    offset,
		Timestamp: s.clock.Now(),
		Metadata:  extra,
	}

	s.mu.Lock()
	s.events = append(s.events, record)
	s.mu.Unlock()

	if s.tracker == nil {
		return
	}
	result := s.tracker.Track(ctx, eventType, s.macroContext(offset))
	s.metrics.IncrCounter("vast_playback_event_total", metrics.Label{Key: "event", Value: eventType})
	if result.TotalCount > 0 && result.SuccessfulCount < result.TotalCount {
		s.log.Warn("playback: trackable firing incomplete", "session", s.id, "event", eventType, "successful", result.SuccessfulCount, "total", result.TotalCount)
	}
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Session) quartileThresholds() []struct {
	name      string
	threshold time.Duration
} {
	return []struct {
		name      string
		threshold time.Duration
	}{
		{eventFirstQuartile, s.duration / 4},
		{eventMidpoint, s.duration / 2},
		{eventThirdQuartile, s.duration * 3 / 4},
	}
}

// QuartilesReached returns the sorted names of quartile events already
// fired, for the persisted-state document.
func (s *Session) QuartilesReached() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.quartilesReached))
	for name, reached := range s.quartilesReached {
		if reached {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func newEventID() string {
	return newULID()
}
