package rng

import (
	"math/rand/v2"
)

// Stream is the only source of randomness the engine draws from. Its position
// can be captured and restored, so a saved game resumes the same sequence.
type Stream struct {
	src *rand.PCG
	r   *rand.Rand
}

func New(seed uint64) *Stream {
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	return &Stream{src: src, r: rand.New(src)}
}

// Float64 returns a value in [0, 1).
func (s *Stream) Float64() float64 { return s.r.Float64() }

// Uniform returns a value in [lo, hi).
func (s *Stream) Uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*s.r.Float64()
}

// IntN returns a value in [0, n). n must be positive.
func (s *Stream) IntN(n int) int { return s.r.IntN(n) }

func (s *Stream) MarshalBinary() ([]byte, error) { return s.src.MarshalBinary() }

func (s *Stream) UnmarshalBinary(b []byte) error { return s.src.UnmarshalBinary(b) }

func (s *Stream) Clone() *Stream {
	b, _ := s.src.MarshalBinary()
	c := New(0)
	_ = c.src.UnmarshalBinary(b)
	return c
}
