package combat

import "undercroft.game/internal/sim/dice"

type SmashResult uint8

const (
	SmashMiss SmashResult = iota
	SmashPartial
	SmashDestroyed
)

func (s SmashResult) String() string {
	switch s {
	case SmashPartial:
		return "partial"
	case SmashDestroyed:
		return "destroyed"
	}
	return "miss"
}

type SmashOutcome struct {
	Roll   dice.RollResult
	Damage int
	Result SmashResult
}

// Smash rolls the attacker's skill against the fixed smash difficulty and, on
// success, compares damage to the terrain's toughness.
func (r *Resolver) Smash(att Attacker, toughness int) SmashOutcome {
	roll, _ := r.skillRoll(att, att.Weapon.AttackMod)
	out := SmashOutcome{Roll: roll}
	if roll.Total < r.Rules.SmashDifficulty {
		return out
	}
	out.Damage = r.damage(att, true)
	if out.Damage >= toughness {
		out.Result = SmashDestroyed
	} else {
		out.Result = SmashPartial
	}
	return out
}
