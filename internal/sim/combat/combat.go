// Package combat resolves attacks between actors and against terrain.
//
// The resolver is pure with respect to world state: callers describe the two
// sides, the resolver rolls dice and returns an Outcome that the caller
// commits. Every call produces a defined outcome; a miss is an outcome too.
package combat

import (
	"fmt"

	"undercroft.game/internal/sim/catalogs"
	"undercroft.game/internal/sim/dice"
	"undercroft.game/internal/sim/tuning"
)

// Weapon is the attack profile used by the resolver, built from a melee,
// ranged or thrown catalog profile or from an actor's natural weapon.
type Weapon struct {
	Name        string
	Damage      []dice.Die
	Strength    bool
	Penetration int
	AttackMod   int
}

func MeleeWeapon(d catalogs.WeaponDef) Weapon {
	return Weapon{Name: d.Name, Damage: d.Damage, Strength: d.Strength, Penetration: d.Penetration, AttackMod: d.AttackMod}
}

func RangedWeapon(name string, d catalogs.RangedDef) Weapon {
	return Weapon{Name: name, Damage: d.Damage, Strength: d.Strength, Penetration: d.Penetration}
}

type Attacker struct {
	Skill    dice.Trait
	Strength dice.Trait
	Wild     bool
	Weapon   Weapon
}

type Defender struct {
	Parry     int
	Toughness int
	// Armor is the effective armor value per body location.
	Armor   map[string]int
	Shocked bool
	Vigor   dice.Trait
	Wild    bool
}

// Effects are the consequences of a damaging hit on the defender.
//
// When Caused is false the hit bounced off and the defender is unchanged.
// Otherwise Shock is the defender's resulting shock state and Wounds the new
// wounds, in the order they were inflicted.
type Effects struct {
	Caused bool
	Shock  bool
	Wounds []string
	Soak   *dice.RollResult
	Soaked int
}

type Hit struct {
	Location    string
	Damage      int
	Penetration int
	Critical    bool
	Effects     Effects
}

type Outcome struct {
	Roll   dice.RollResult
	Target int
	Hit    bool
	Degree int
	// Fumble is set when a ranged or thrown attack rolled a natural 1. The
	// caller picks a new victim and resolves it with Stray.
	Fumble bool
	Result *Hit
}

func (o Outcome) String() string {
	switch {
	case o.Fumble:
		return fmt.Sprintf("fumble (%s)", o.Roll)
	case !o.Hit:
		return fmt.Sprintf("miss (%s vs %d)", o.Roll, o.Target)
	case o.Result != nil && o.Result.Critical:
		return fmt.Sprintf("critical hit (%s vs %d)", o.Roll, o.Target)
	}
	return fmt.Sprintf("hit (%s vs %d)", o.Roll, o.Target)
}

type Resolver struct {
	Src   dice.Source
	Rules tuning.Combat
}

func New(src dice.Source, rules tuning.Combat) *Resolver {
	return &Resolver{Src: src, Rules: rules}
}

// Parry is 2 plus half the fighting die plus the weapon's parry modifier.
// Untrained fighters get no die contribution.
func Parry(fighting dice.Trait, weaponMod int) int {
	p := 2 + weaponMod
	if fighting.Level != dice.Untrained {
		p += fighting.HalfDie() + fighting.Bonus
	}
	return p
}

// Toughness is 2 plus half the vigor die.
func Toughness(vigor dice.Trait) int {
	return 2 + vigor.HalfDie() + vigor.Bonus
}

// RollLocation picks a body location from the d12 table:
// 1 head, 2-7 torso, 8-9 arms, 10-12 legs.
func RollLocation(src dice.Source) string {
	switch n := dice.D12.Roll(src); {
	case n == 1:
		return catalogs.LocHead
	case n <= 7:
		return catalogs.LocTorso
	case n <= 9:
		return catalogs.LocArms
	default:
		return catalogs.LocLegs
	}
}

func (r *Resolver) skillRoll(att Attacker, mod int) (best, trait dice.RollResult) {
	if att.Wild {
		return att.Skill.RollWild(r.Src, mod)
	}
	tr := att.Skill.Roll(r.Src, mod)
	return tr, tr
}

func (r *Resolver) damage(att Attacker, explode bool) int {
	dmg := dice.Sum(r.Src, explode, att.Weapon.Damage...)
	if att.Weapon.Strength {
		dmg += dice.Sum(r.Src, explode, att.Strength.Level.Die())
	}
	return dmg
}

// strike rolls location and damage for a landed attack and applies wound math.
func (r *Resolver) strike(att Attacker, def Defender, critical, explode bool) *Hit {
	loc := RollLocation(r.Src)
	dmg := r.damage(att, explode)
	if critical {
		dmg += dice.D6.RollExplosive(r.Src).Total
	}
	h := &Hit{Location: loc, Damage: dmg, Penetration: att.Weapon.Penetration, Critical: critical}
	h.Effects = r.wound(def, loc, dmg, att.Weapon.Penetration)
	return h
}
