// Package randomutil wraps math/rand behind an interface so callers that
// need determinism (the playback engine's stochastic interruption draws)
// can substitute a seeded generator. Grounded on
// util/randomutil/randomutil.go.
package randomutil

import "math/rand"

// Generator is the subset of math/rand.Rand this module needs.
type Generator interface {
	GenerateInt63() int64
	// GenerateFloat64 returns a pseudo-random number in [0.0, 1.0).
	GenerateFloat64() float64
}

// RandomNumberGenerator is the process-wide, non-deterministic Generator.
type RandomNumberGenerator struct{}

func (RandomNumberGenerator) GenerateInt63() int64     { return rand.Int63() }
func (RandomNumberGenerator) GenerateFloat64() float64 { return rand.Float64() }

// Seeded is a Generator with a fixed seed, used to make playback
// interruption draws reproducible from a session id (spec.md §9 Open
// Question 3).
type Seeded struct {
	r *rand.Rand
}

// NewSeeded returns a Generator seeded deterministically from seed.
func NewSeeded(seed int64) *Seeded {
	return &Seeded{r: rand.New(rand.NewSource(seed))}
}

func (s *Seeded) GenerateInt63() int64     { return s.r.Int63() }
func (s *Seeded) GenerateFloat64() float64 { return s.r.Float64() }

var (
	_ Generator = RandomNumberGenerator{}
	_ Generator = &Seeded{}
)
