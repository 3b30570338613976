package combat

import "undercroft.game/internal/sim/dice"

// Remainder is damage left after toughness and armor reduced by penetration.
func Remainder(damage, toughness, armor, penetration int) int {
	eff := armor - penetration
	if eff < 0 {
		eff = 0
	}
	return damage - (toughness + eff)
}

// WoundCount converts a non-negative remainder into wounds: one per full step
// plus one more when the defender was already shocked. Negative remainders
// never produce wounds.
func WoundCount(remainder, step int, shocked bool) int {
	if remainder < 0 {
		return 0
	}
	n := remainder / step
	if shocked {
		n++
	}
	return n
}

func (r *Resolver) wound(def Defender, loc string, dmg, pen int) Effects {
	rem := Remainder(dmg, def.Toughness, def.Armor[loc], pen)
	if rem < 0 {
		return Effects{}
	}
	eff := Effects{Caused: true, Shock: true}
	for i := WoundCount(rem, r.Rules.WoundStep, def.Shocked); i > 0; i-- {
		eff.Wounds = append(eff.Wounds, loc)
	}
	if len(eff.Wounds) > 0 {
		r.soak(def, &eff)
	}
	return eff
}

// soak lets the defender shrug off wounds with a Vigor roll. Each success
// cancels the oldest pending wound; cancelling all of them clears shock.
func (r *Resolver) soak(def Defender, eff *Effects) {
	var roll dice.RollResult
	if def.Wild {
		roll, _ = def.Vigor.RollWild(r.Src, 0)
	} else {
		roll = def.Vigor.Roll(r.Src, 0)
	}
	eff.Soak = &roll
	n := roll.Successes()
	if n >= len(eff.Wounds) {
		eff.Soaked = len(eff.Wounds)
		eff.Wounds = nil
		eff.Shock = false
		return
	}
	eff.Soaked = n
	eff.Wounds = eff.Wounds[n:]
}
