// Package dice implements polyhedral dice, exploding rolls and trait levels.
package dice

import "fmt"

// Die is a polyhedral die identified by its face count.
type Die uint8

const (
	D4  Die = 4
	D6  Die = 6
	D8  Die = 8
	D10 Die = 10
	D12 Die = 12
)

// MaxRoll is the ceiling of an exploding total. Accumulation saturates here.
const MaxRoll = 255

func (d Die) Faces() int { return int(d) }

func (d Die) String() string { return fmt.Sprintf("d%d", int(d)) }

// Roll returns a uniform value in [1, faces].
func (d Die) Roll(src Source) int {
	if d < 2 {
		panic(fmt.Sprintf("dice: invalid die with %d faces", int(d)))
	}
	return src.IntN(int(d)) + 1
}

// RollExplosive rolls d and keeps rerolling while the last result was the
// maximum face, summing every roll. Natural is the first roll.
func (d Die) RollExplosive(src Source) RollResult {
	first := d.Roll(src)
	total := first
	last := first
	for last == int(d) && total < MaxRoll {
		last = d.Roll(src)
		total = satAdd(total, last)
	}
	return RollResult{Natural: first, Total: total}
}

// RollResult is a natural die value plus the total after modifiers.
type RollResult struct {
	Natural int `json:"natural"`
	Total   int `json:"total"`
}

// Successes is the degree of success: max(0, total) / 4.
func (r RollResult) Successes() int {
	if r.Total <= 0 {
		return 0
	}
	return r.Total / 4
}

// Fumble reports a natural 1.
func (r RollResult) Fumble() bool { return r.Natural == 1 }

func (r RollResult) String() string {
	return fmt.Sprintf("%d (natural %d)", r.Total, r.Natural)
}

// Best returns the roll with the higher total, preferring a on ties.
func Best(a, b RollResult) RollResult {
	if b.Total > a.Total {
		return b
	}
	return a
}

// Sum rolls every die and adds the results, exploding each when explode is set.
func Sum(src Source, explode bool, ds ...Die) int {
	total := 0
	for _, d := range ds {
		if explode {
			total = satAdd(total, d.RollExplosive(src).Total)
		} else {
			total = satAdd(total, d.Roll(src))
		}
	}
	return total
}

func satAdd(a, b int) int {
	s := a + b
	if s > MaxRoll {
		return MaxRoll
	}
	return s
}

// ParseDie accepts "d4" through "d12".
func ParseDie(s string) (Die, error) {
	for _, d := range []Die{D4, D6, D8, D10, D12} {
		if s == d.String() || s == fmt.Sprintf("D%d", int(d)) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("dice: unknown die %q", s)
}

func (d Die) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Die) UnmarshalText(b []byte) error {
	v, err := ParseDie(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
