package combat

// Melee resolves a close-combat attack against the defender's parry.
func (r *Resolver) Melee(att Attacker, def Defender) Outcome {
	roll, _ := r.skillRoll(att, att.Weapon.AttackMod)
	out := Outcome{Roll: roll, Target: def.Parry}
	if roll.Total < def.Parry {
		return out
	}
	out.Hit = true
	out.Degree = roll.Total - def.Parry
	out.Result = r.strike(att, def, out.Degree >= r.Rules.CriticalMargin, true)
	return out
}
