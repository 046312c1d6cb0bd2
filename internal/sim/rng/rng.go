// Package rng provides the deterministic random streams used by layout and
// paint. Every structure instance owns exactly one Stream; draws are consumed
// in a fixed call order so a seed always regenerates the same structure.
package rng

import "voxelstruct.ai/internal/sim/mathx"

// Stream is the draw surface layout and paint code consume.
type Stream interface {
	// Intn returns a value in [0,n). n must be > 0.
	Intn(n int) int
	Bool() bool
	Int63() int64
}

const golden = 0x9e3779b97f4a7c15

// Source is a splitmix64 generator. The zero value is usable (seed 0).
type Source struct {
	state uint64
}

func New(seed uint64) *Source { return &Source{state: seed} }

// ForStructure seeds the layout stream of one structure instance from the
// world seed, the anchor and the family name.
func ForStructure(seed int64, x, y, z int, family string) *Source {
	return New(mathx.HashString(mathx.Hash3(seed, x, y, z), family))
}

// ForChunk seeds the paint stream for one (structure, chunk) pair. Painting a
// chunk twice replays the same draws.
func ForChunk(seed int64, cx, cz int) *Source {
	return New(mathx.Hash2(seed^0x5bd1e995, cx, cz))
}

func (s *Source) Uint64() uint64 {
	s.state += golden
	z := s.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func (s *Source) Int63() int64 { return int64(s.Uint64() >> 1) }

func (s *Source) Bool() bool { return s.Uint64()>>63 == 1 }

// Intn panics when n <= 0, like math/rand.
func (s *Source) Intn(n int) int {
	if n <= 0 {
		panic("rng: invalid argument to Intn")
	}
	un := uint64(n)
	// Rejection keeps the draw unbiased.
	limit := ^uint64(0) - (^uint64(0)%un+1)%un
	for {
		v := s.Uint64()
		if v <= limit {
			return int(v % un)
		}
	}
}

// Script is a Stream whose draws come from a function, for forcing specific
// branches in tests. Out-of-range answers are wrapped into [0,n).
type Script func(n int) int

func (f Script) Intn(n int) int {
	if n <= 0 {
		panic("rng: invalid argument to Intn")
	}
	return mathx.Mod(f(n), n)
}

func (f Script) Bool() bool { return f.Intn(2) == 1 }

func (f Script) Int63() int64 { return int64(f.Intn(1 << 30)) }

// Shuffle permutes n items with Fisher-Yates, drawing from r.
func Shuffle(r Stream, n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		swap(i, j)
	}
}

// Between returns a value in [lo,hi]. It returns lo when hi <= lo.
func Between(r Stream, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.Intn(hi-lo+1)
}
