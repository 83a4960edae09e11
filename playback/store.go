package playback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/pv-udpv/vast-client/track"
	"github.com/pv-udpv/vast-client/util/timeutil"
	"github.com/pv-udpv/vast-client/vastconfig"
)

// ErrNotFound is returned by Store.Load when no session is stored under
// the requested id.
var ErrNotFound = errors.New("playback: session not found")

// Store is the pluggable persistence seam spec.md §1 promises: this module
// provides serialization, the storage medium itself is external.
type Store interface {
	Save(ctx context.Context, s *Session) error
	Load(ctx context.Context, id string) (*Session, error)
}

// MemoryStore is an in-memory Store, the reference implementation used by
// this module's own tests and by callers that don't need durability.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

// Save serializes s to JSON and keeps it keyed by its session ID.
func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("playback: marshal session for save: %w", err)
	}
	m.mu.Lock()
	m.docs[s.ID()] = data
	m.mu.Unlock()
	return nil
}

// Load reconstructs a Session from its persisted JSON document. The
// returned Session has no attached Tracker or live Clock; callers that
// need to resume playback must call Engine.Attach to wire those back in.
func (m *MemoryStore) Load(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	data, ok := m.docs[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	s := &Session{}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("playback: unmarshal session for load: %w", err)
	}
	return s, nil
}

// Attach reattaches the live collaborators (clock, tracker, logger,
// metrics, interruption rules) a Session loaded from a Store needs before
// Run can be called again. It does not reset any already-persisted state.
func (e *Engine) Attach(s *Session, tracker *track.Tracker, interruptions map[string]vastconfig.InterruptionRule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = e.clock
	_, s.isVirtual = e.clock.(*timeutil.Virtual)
	s.log = e.log
	s.metrics = e.metrics
	s.tracker = tracker
	s.interruptions = interruptions
}
