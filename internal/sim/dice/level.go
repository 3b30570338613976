package dice

import (
	"fmt"
	"strings"
)

// Level is an ordered trait rank. Untrained sorts below every die.
type Level uint8

const (
	Untrained Level = iota
	LevelD4
	LevelD6
	LevelD8
	LevelD10
	LevelD12
)

var levelDice = [...]Die{Untrained: D4, LevelD4: D4, LevelD6: D6, LevelD8: D8, LevelD10: D10, LevelD12: D12}

var levelNames = [...]string{Untrained: "none", LevelD4: "d4", LevelD6: "d6", LevelD8: "d8", LevelD10: "d10", LevelD12: "d12"}

func (l Level) valid() bool { return int(l) < len(levelDice) }

// Die is the die rolled for this level. Untrained rolls the smallest die.
func (l Level) Die() Die {
	if !l.valid() {
		return D12
	}
	return levelDice[l]
}

// Modifier is the level's built-in modifier (-2 when untrained).
func (l Level) Modifier() int {
	if l == Untrained {
		return -2
	}
	return 0
}

// StepsAbove is the ordinal distance from other to l (negative when below).
func (l Level) StepsAbove(other Level) int { return int(l) - int(other) }

// Next is the level one step up, capped at d12.
func (l Level) Next() Level {
	if l >= LevelD12 {
		return LevelD12
	}
	return l + 1
}

func (l Level) String() string {
	if !l.valid() {
		return fmt.Sprintf("level(%d)", uint8(l))
	}
	return levelNames[l]
}

// ParseLevel accepts "none", "d4" ... "d12" (case-insensitive).
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "untrained" {
		return Untrained, nil
	}
	for i, n := range levelNames {
		if n == s {
			return Level(i), nil
		}
	}
	return Untrained, fmt.Errorf("dice: unknown level %q", s)
}

func (l Level) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

func (l *Level) UnmarshalText(b []byte) error {
	v, err := ParseLevel(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// Trait is a level plus a flat bonus, e.g. d8+1.
type Trait struct {
	Level Level `json:"level" yaml:"level"`
	Bonus int   `json:"bonus,omitempty" yaml:"bonus,omitempty"`
}

// T is shorthand for a trait without bonus.
func T(l Level) Trait { return Trait{Level: l} }

// Roll makes an exploding trait roll with an extra situational modifier.
func (t Trait) Roll(src Source, mod int) RollResult {
	r := t.Level.Die().RollExplosive(src)
	r.Total += t.Level.Modifier() + t.Bonus + mod
	return r
}

// RollWild rolls the trait and an exploding wild d6 with the same modifiers and
// keeps the better total. The trait roll is returned as well for fumble checks.
func (t Trait) RollWild(src Source, mod int) (best, trait RollResult) {
	trait = t.Roll(src, mod)
	wild := D6.RollExplosive(src)
	wild.Total += t.Level.Modifier() + t.Bonus + mod
	return Best(trait, wild), trait
}

// HalfDie is half the level's die faces, used by derived stats.
func (t Trait) HalfDie() int { return t.Level.Die().Faces() / 2 }

func (t Trait) String() string {
	switch {
	case t.Bonus > 0:
		return fmt.Sprintf("%s+%d", t.Level, t.Bonus)
	case t.Bonus < 0:
		return fmt.Sprintf("%s%d", t.Level, t.Bonus)
	}
	return t.Level.String()
}
