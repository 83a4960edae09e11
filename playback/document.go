package playback

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v2"
)

// document is the wire shape of a persisted Session: spec.md §6's
// "self-describing document with session-id, creative-id, duration,
// state, current-offset, start-time, end-time, events list,
// quartiles-reached, interruption, metadata". Extra carries whatever keys
// a decoded document held that this type doesn't know about, so a
// read-then-write round trip preserves forward-compat fields untouched.
type document struct {
	SessionID        string            `json:"session_id" yaml:"session_id"`
	CreativeID       string            `json:"creative_id" yaml:"creative_id"`
	DurationSeconds  float64           `json:"duration_seconds" yaml:"duration_seconds"`
	State            string            `json:"state" yaml:"state"`
	OffsetSeconds    float64           `json:"current_offset_seconds" yaml:"current_offset_seconds"`
	StartTime        time.Time         `json:"start_time,omitempty" yaml:"start_time,omitempty"`
	EndTime          time.Time         `json:"end_time,omitempty" yaml:"end_time,omitempty"`
	Events           []eventDocument   `json:"events,omitempty" yaml:"events,omitempty"`
	QuartilesReached []string          `json:"quartiles_reached,omitempty" yaml:"quartiles_reached,omitempty"`
	Interruption     *interruptionDoc  `json:"interruption,omitempty" yaml:"interruption,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Extra            map[string]any    `json:"-" yaml:"-"`
}

type eventDocument struct {
	ID            string            `json:"id" yaml:"id"`
	Type          string            `json:"type" yaml:"type"`
	OffsetSeconds float64           `json:"offset_seconds" yaml:"offset_seconds"`
	Timestamp     time.Time         `json:"timestamp" yaml:"timestamp"`
	Metadata      map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

type interruptionDoc struct {
	EventType     string  `json:"event_type" yaml:"event_type"`
	OffsetSeconds float64 `json:"offset_seconds" yaml:"offset_seconds"`
	Reason        string  `json:"reason" yaml:"reason"`
}

const (
	keySessionID   = "session_id"
	keyCreativeID  = "creative_id"
	keyDuration    = "duration_seconds"
	keyState       = "state"
	keyOffset      = "current_offset_seconds"
	keyStartTime   = "start_time"
	keyEndTime     = "end_time"
	keyEvents      = "events"
	keyQuartiles   = "quartiles_reached"
	keyInterrupt   = "interruption"
	keyMetadata    = "metadata"
)

func (s *Session) toDocument() document {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := make([]eventDocument, len(s.events))
	for i, e := range s.events {
		events[i] = eventDocument{
			ID:            e.ID,
			Type:          e.Type,
			OffsetSeconds: e.Offset.Seconds(),
			Timestamp:     e.Timestamp,
			Metadata:      e.Metadata,
		}
	}

	quartiles := make([]string, 0, len(s.quartilesReached))
	for name, reached := range s.quartilesReached {
		if reached {
			quartiles = append(quartiles, name)
		}
	}

	var interruption *interruptionDoc
	if s.interruption != nil {
		interruption = &interruptionDoc{
			EventType:     s.interruption.EventType,
			OffsetSeconds: s.interruption.Offset.Seconds(),
			Reason:        s.interruption.Reason,
		}
	}

	return document{
		SessionID:        s.id,
		CreativeID:       s.creativeID,
		DurationSeconds:  s.duration.Seconds(),
		State:            string(s.state),
		OffsetSeconds:    s.currentOffset.Seconds(),
		StartTime:        s.startTime,
		EndTime:          s.endTime,
		Events:           events,
		QuartilesReached: quartiles,
		Interruption:     interruption,
		Metadata:         s.metadata,
	}
}

// applyDocument overwrites s's persisted fields from d. The tracker,
// clock, rng, and interruption-rule configuration are not part of the
// persisted document and are left untouched; callers that need them after
// a Load should reattach a Tracker explicitly.
func (s *Session) applyDocument(d document) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.id = d.SessionID
	s.creativeID = d.CreativeID
	s.duration = time.Duration(d.DurationSeconds * float64(time.Second))
	s.state = State(d.State)
	s.currentOffset = time.Duration(d.OffsetSeconds * float64(time.Second))
	s.startTime = d.StartTime
	s.endTime = d.EndTime
	s.metadata = d.Metadata

	s.events = make([]EventRecord, len(d.Events))
	for i, e := range d.Events {
		s.events[i] = EventRecord{
			ID:        e.ID,
			Type:      e.Type,
			Offset:    time.Duration(e.OffsetSeconds * float64(time.Second)),
			Timestamp: e.Timestamp,
			Metadata:  e.Metadata,
		}
	}

	s.quartilesReached = make(map[string]bool, len(d.QuartilesReached))
	for _, name := range d.QuartilesReached {
		s.quartilesReached[name] = true
	}

	if d.Interruption != nil {
		s.interruption = &Interruption{
			EventType: d.Interruption.EventType,
			Offset:    time.Duration(d.Interruption.OffsetSeconds * float64(time.Second)),
			Reason:    d.Interruption.Reason,
		}
	} else {
		s.interruption = nil
	}
}

// MarshalJSON serializes s into spec.md §6's persisted document shape,
// merging back in any Extra keys a prior UnmarshalJSON captured so an
// unmodified read-then-write round trip is lossless.
func (s *Session) MarshalJSON() ([]byte, error) {
	doc := s.toDocument()
	merged, err := mergeExtra(doc, s.extra())
	if err != nil {
		return nil, err
	}
	return json.Marshal(merged)
}

// UnmarshalJSON decodes a persisted document into s, capturing any
// unrecognized top-level keys into an internal Extra map so they survive
// an unrelated round trip untouched.
func (s *Session) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("playback: decode session document: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("playback: decode session document: %w", err)
	}

	extra := map[string]any{}
	for _, key := range knownKeys {
		delete(raw, key)
	}
	for key, v := range raw {
		var decoded any
		if err := json.Unmarshal(v, &decoded); err != nil {
			return fmt.Errorf("playback: decode extra field %q: %w", key, err)
		}
		extra[key] = decoded
	}

	s.applyDocument(doc)
	s.setExtra(extra)
	return nil
}

// MarshalYAML is the opt-in YAML counterpart to MarshalJSON, exercising
// gopkg.in/yaml.v2 as the additive persistence codec SPEC_FULL.md names
// alongside the default JSON encoding.
func (s *Session) MarshalYAML() (any, error) {
	doc := s.toDocument()
	return mergeExtra(doc, s.extra())
}

// UnmarshalYAML is the YAML counterpart to UnmarshalJSON.
func (s *Session) UnmarshalYAML(unmarshal func(any) error) error {
	var raw map[string]any
	if err := unmarshal(&raw); err != nil {
		return fmt.Errorf("playback: decode session yaml document: %w", err)
	}

	remarshalled, err := yaml.Marshal(raw)
	if err != nil {
		return err
	}
	var doc document
	if err := yaml.Unmarshal(remarshalled, &doc); err != nil {
		return fmt.Errorf("playback: decode session yaml document: %w", err)
	}

	extra := map[string]any{}
	for _, key := range knownKeys {
		delete(raw, key)
	}
	for key, v := range raw {
		extra[key] = v
	}

	s.applyDocument(doc)
	s.setExtra(extra)
	return nil
}

var knownKeys = []string{
	keySessionID, keyCreativeID, keyDuration, keyState, keyOffset,
	keyStartTime, keyEndTime, keyEvents, keyQuartiles, keyInterrupt, keyMetadata,
}

func (s *Session) extra() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.extraFields
}

func (s *Session) setExtra(extra map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.extraFields = extra
}

// mergeExtra folds doc's known fields and extra's unknown fields into one
// map for serialization, by round-tripping doc through JSON (reused by
// both MarshalJSON and MarshalYAML since yaml.v2's map support is
// friendliest starting from a flat map[string]any).
func mergeExtra(doc document, extra map[string]any) (map[string]any, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	for k, v := range extra {
		out[k] = v
	}
	return out, nil
}
