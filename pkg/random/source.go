// Package random provides the randomness stream consumed by dice and
// probability helpers in node code. A Source is injected into each runner;
// nothing here is process-global.
package random

import (
	"math/rand/v2"
)

// Source is a randomness stream refreshed once per Execute call.
type Source interface {
	// Update advances the stream. Runners call it at the top of Execute and on
	// every timer tick, so the values drawn depend on how long the player took.
	Update()
	// IntN returns a uniform integer in [0, n).
	IntN(n int) int
	// Float64 returns a uniform value in [0, 1).
	Float64() float64
}

// PCG is the default Source, a seeded PCG generator.
type PCG struct {
	rng *rand.Rand
}

// New returns a deterministic source for the given seed.
func New(seed uint64) *PCG {
	return &PCG{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Update discards one value.
func (p *PCG) Update() { p.rng.Uint64() }

// IntN returns a uniform integer in [0, n). n <= 0 yields 0.
func (p *PCG) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	return p.rng.IntN(n)
}

// Float64 returns a uniform value in [0, 1).
func (p *PCG) Float64() float64 { return p.rng.Float64() }

// Fixed replays a fixed sequence of draws. Useful in tests.
type Fixed struct {
	Ints    []int
	Floats  []float64
	Updates int
	i, f    int
}

func (s *Fixed) Update() { s.Updates++ }

// IntN returns the next scripted integer, reduced modulo n.
func (s *Fixed) IntN(n int) int {
	if len(s.Ints) == 0 || n <= 0 {
		return 0
	}
	v := s.Ints[s.i%len(s.Ints)]
	s.i++
	return v % n
}

func (s *Fixed) Float64() float64 {
	if len(s.Floats) == 0 {
		return 0
	}
	v := s.Floats[s.f%len(s.Floats)]
	s.f++
	return v
}
