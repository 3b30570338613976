package dice

import (
	"fmt"
	"math/rand/v2"
)

// Source is the randomness provider for rolls.
type Source interface {
	// IntN returns a value in [0, n). n > 0.
	IntN(n int) int
}

// Rand is a seeded PCG source whose state can be captured in snapshots.
type Rand struct {
	pcg *rand.PCG
	r   *rand.Rand
}

func NewRand(seed uint64) *Rand {
	pcg := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	return &Rand{pcg: pcg, r: rand.New(pcg)}
}

func (r *Rand) IntN(n int) int { return r.r.IntN(n) }

func (r *Rand) MarshalBinary() ([]byte, error) { return r.pcg.MarshalBinary() }

func (r *Rand) UnmarshalBinary(b []byte) error { return r.pcg.UnmarshalBinary(b) }

// Script replays fixed natural die values in order. IntN(n) yields v-1 for the
// next scripted v, so a scripted 6 rolled on a d6 comes out as 6.
// It panics when exhausted or when a value does not fit the die.
type Script struct {
	vals []int
	pos  int
}

func NewScript(naturals ...int) *Script { return &Script{vals: naturals} }

func (s *Script) IntN(n int) int {
	if s.pos >= len(s.vals) {
		panic(fmt.Sprintf("dice: script exhausted after %d values", len(s.vals)))
	}
	v := s.vals[s.pos]
	s.pos++
	if v < 1 || v > n {
		panic(fmt.Sprintf("dice: scripted value %d out of range for IntN(%d)", v, n))
	}
	return v - 1
}

// Push appends more scripted values.
func (s *Script) Push(naturals ...int) { s.vals = append(s.vals, naturals...) }

// Remaining is the number of unused scripted values.
func (s *Script) Remaining() int { return len(s.vals) - s.pos }
