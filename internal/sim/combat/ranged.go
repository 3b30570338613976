package combat

import "fmt"

// Band classifies a shot by distance against a weapon's range triple.
type Band uint8

const (
	BandMelee Band = iota
	BandClose
	BandMedium
	BandFar
	BandUnreachable
)

var bandNames = [...]string{"melee", "close", "medium", "far", "unreachable"}

func (b Band) String() string {
	if int(b) < len(bandNames) {
		return bandNames[b]
	}
	return fmt.Sprintf("band(%d)", uint8(b))
}

// Classify maps a distance onto a band. Range is [short, medium, long]; a
// zero long range makes everything past melee unreachable.
func Classify(dist int, rng [3]int) Band {
	switch {
	case dist <= 1:
		return BandMelee
	case dist <= rng[0]:
		return BandClose
	case dist <= rng[1]:
		return BandMedium
	case dist <= rng[2]:
		return BandFar
	}
	return BandUnreachable
}

func (r *Resolver) bandPenalty(b Band) int {
	switch b {
	case BandMedium:
		return r.Rules.MediumPenalty
	case BandFar:
		return r.Rules.FarPenalty
	}
	return 0
}

// Ranged resolves a shot or throw. In the melee band the defender's parry is
// the target number, otherwise the fixed ranged target with the band penalty
// applied to the roll. A natural 1 on the skill die is a fumble: the outcome
// is returned without effects and the caller redirects it with Stray.
func (r *Resolver) Ranged(att Attacker, def Defender, band Band) Outcome {
	if band == BandUnreachable {
		panic("combat: ranged attack at unreachable band")
	}
	roll, trait := r.skillRoll(att, att.Weapon.AttackMod-r.bandPenalty(band))
	target := r.Rules.RangedTarget
	if band == BandMelee {
		target = def.Parry
	}
	out := Outcome{Roll: roll, Target: target}
	if trait.Fumble() {
		out.Fumble = true
		return out
	}
	if roll.Total < target {
		return out
	}
	out.Hit = true
	out.Degree = roll.Total - target
	out.Result = r.strike(att, def, out.Degree >= r.Rules.CriticalMargin, true)
	return out
}

// Stray resolves a fumbled attack that struck a bystander. It always lands,
// never crits and its damage dice do not explode.
func (r *Resolver) Stray(att Attacker, def Defender) Outcome {
	return Outcome{Hit: true, Result: r.strike(att, def, false, false)}
}
