package timeutil

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrZeroSpeed is returned by NewVirtual when speed is zero; a speed of
// zero would mean Sleep never consumes virtual time, which is treated
// as a construction error rather than a silently-degenerate clock.
var ErrZeroSpeed = errors.New("timeutil: virtual clock speed must be positive and finite")

// Virtual is a Clock whose Now() returns an internal counter and whose
// Sleep advances that counter by d/speed instead of actually suspending.
// Tests substitute Virtual for Clock to make playback deterministic.
//
// Grounded on util/timeutil/mock_clock.go's MockClock, generalized with a
// speed multiplier and an explicit Advance/SetTime API per spec.md §4.1.
type Virtual struct {
	mu      sync.RWMutex
	current time.Time
	speed   float64
}

// NewVirtual creates a Virtual clock starting at now, advancing Sleep calls
// by d/speed. speed must be > 0 and finite.
func NewVirtual(speed float64) (*Virtual, error) {
	return NewVirtualAt(time.Now(), speed)
}

// NewVirtualAt is like NewVirtual but pins the starting time.
func NewVirtualAt(start time.Time, speed float64) (*Virtual, error) {
	if !(speed > 0) || isInf(speed) {
		return nil, ErrZeroSpeed
	}
	return &Virtual{current: start, speed: speed}, nil
}

func isInf(f float64) bool {
	return f > maxFiniteSpeed || f < -maxFiniteSpeed
}

const maxFiniteSpeed = 1e18

func (v *Virtual) Now() time.Time {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.current
}

// Sleep advances the internal counter by d/speed. It still honors context
// cancellation (checked up front; a cancelled context advances no time).
func (v *Virtual) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v.Advance(time.Duration(float64(d) / v.speed))
	return nil
}

// Advance increments the counter directly by d (not scaled by speed).
func (v *Virtual) Advance(d time.Duration) {
	v.mu.Lock()
	v.current = v.current.Add(d)
	v.mu.Unlock()
}

// SetTime jumps the internal counter to t.
func (v *Virtual) SetTime(t time.Time) {
	v.mu.Lock()
	v.current = t
	v.mu.Unlock()
}

// Speed returns the configured speed multiplier.
func (v *Virtual) Speed() float64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.speed
}

var _ Clock = &Virtual{}
