package playback

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ulidMu serializes ulid.Must(ulid.New(...))'s monotonic entropy source,
// since Session.recordEvent can run from Run's loop while another
// goroutine reads Events() concurrently; ulid.DefaultEntropy() is not
// itself safe for concurrent New calls.
var (
	ulidMu      sync.Mutex
	ulidEntropy = ulid.DefaultEntropy()
)

// newULID returns a monotonic, lexically sortable event-log entry ID, per
// spec.md §4.10's event log and SPEC_FULL.md's "§3 Playback session" note.
func newULID() string {
	ulidMu.Lock()
	defer ulidMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulidEntropy).String()
}
