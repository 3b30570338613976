package world

import (
	"undercroft.game/internal/sim/actions"
	"undercroft.game/internal/sim/catalogs"
	"undercroft.game/internal/sim/combat"
	"undercroft.game/internal/sim/grid"
	"undercroft.game/internal/sim/journal"
)

func reachOf(wd catalogs.WeaponDef) int {
	if wd.Reach <= 0 {
		return 1
	}
	return wd.Reach
}

// targetActor returns the actor standing on p other than a.
func (w *World) targetActor(a *Actor, p grid.Point) (*Actor, bool) {
	id, ok := w.occupancy[p]
	if !ok || id == a.ID {
		return nil, false
	}
	return w.byID[id], true
}

func validateMelee(w *World, a *Actor, p actions.Proposal, recheck bool) actions.Possibility {
	if a.Shocked {
		return actions.No("You are too shaken to attack.")
	}
	if _, ok := w.targetActor(a, p.Target); !ok {
		return actions.No("There is nobody there to attack.")
	}
	wd, _ := a.meleeWeapon(w.catalogs)
	if grid.Distance(a.Pos, p.Target) > reachOf(wd) {
		return actions.No("That is out of reach.")
	}
	if !w.clearLine(a.Pos, p.Target) {
		return actions.No("Something is in the way.")
	}
	d := w.tuning.Durations.Attack
	if wd.Ticks > 0 {
		d = wd.Ticks
	}
	return actions.Yes(d)
}

// startAttack warns the player about an incoming attack that takes more than
// one tick.
func startAttack(w *World, a *Actor, act *actions.Action) {
	if act.Duration() <= 1 || a.Player {
		return
	}
	t, ok := w.targetActor(a, act.Proposal().Target)
	if !ok || !t.Player {
		return
	}
	w.observe(journal.Danger, a.Pos, true, "%s turns on you.", capitalize(name(a)))
}

func finishMelee(w *World, a *Actor, act *actions.Action) {
	t, _ := w.targetActor(a, act.Proposal().Target)
	wd, _ := a.meleeWeapon(w.catalogs)
	out := w.resolver.Melee(a.attacker("fighting", combat.MeleeWeapon(wd)), t.defender(w.catalogs))
	w.resolveAttack(a, t, out)
}

func validateSmash(w *World, a *Actor, p actions.Proposal, recheck bool) actions.Possibility {
	if a.Shocked {
		return actions.No("You are too shaken to attack.")
	}
	if p.Target == a.Pos {
		return actions.No("You can't smash the ground you stand on.")
	}
	wd, _ := a.meleeWeapon(w.catalogs)
	if grid.Distance(a.Pos, p.Target) > reachOf(wd) {
		return actions.No("That is out of reach.")
	}
	t := w.terrainAt(p.Target)
	if !t.Smashable() {
		return actions.No("You can't smash the %s.", t.Name)
	}
	return actions.Yes(w.tuning.Durations.Smash)
}

func finishSmash(w *World, a *Actor, act *actions.Action) {
	at := act.Proposal().Target
	t := w.terrainAt(at)
	wd, _ := a.meleeWeapon(w.catalogs)
	out := w.resolver.Smash(a.attacker("fighting", combat.MeleeWeapon(wd)), t.Smash.Toughness)
	switch out.Result {
	case combat.SmashMiss:
		w.observe(journal.Combat, at, a.Player, "%s %s the %s and %s.", capitalize(name(a)), verb(a, "swing at", "swings at"), t.Name, verb(a, "miss", "misses"))
	case combat.SmashPartial:
		w.observe(journal.Combat, at, a.Player, "%s %s the %s. It holds.", capitalize(name(a)), verb(a, "strike", "strikes"), t.Name)
	case combat.SmashDestroyed:
		w.setTerrain(at, t.Smash.Result)
		for _, it := range w.tiles.Unearth(at) {
			w.tiles.AddItem(at, it)
		}
		w.observe(journal.Combat, at, a.Player, "%s %s the %s to pieces.", capitalize(name(a)), verb(a, "smash", "smashes"), t.Name)
	}
}

func validateShoot(w *World, a *Actor, p actions.Proposal, recheck bool) actions.Possibility {
	if a.Shocked {
		return actions.No("You are too shaken to attack.")
	}
	i, d, ok := a.rangedWeapon(w.catalogs)
	if !ok {
		return actions.No("You have nothing to shoot with.")
	}
	if d.Ranged.AmmoType != "" && a.Wielded[i].Loaded < 1 {
		return actions.No("Your %s is not loaded.", d.Name)
	}
	if _, ok := w.targetActor(a, p.Target); !ok {
		return actions.No("There is nobody there to shoot.")
	}
	if d.Ranged.Range[2] <= 0 {
		return actions.No("Your %s can't reach anything.", d.Name)
	}
	if combat.Classify(grid.Distance(a.Pos, p.Target), d.Ranged.Range) == combat.BandUnreachable {
		return actions.No("That is out of range.")
	}
	if !w.clearLine(a.Pos, p.Target) {
		return actions.No("You have no clear shot.")
	}
	dur := w.tuning.Durations.Shoot
	if d.Ranged.Ticks > 0 {
		dur = d.Ranged.Ticks
	}
	return actions.Yes(dur)
}

func finishShoot(w *World, a *Actor, act *actions.Action) {
	at := act.Proposal().Target
	i, d, _ := a.rangedWeapon(w.catalogs)
	if d.Ranged.AmmoType != "" {
		a.Wielded[i].Loaded--
	}
	t, _ := w.targetActor(a, at)
	att := a.attacker("shooting", combat.RangedWeapon(d.Name, *d.Ranged))
	band := combat.Classify(grid.Distance(a.Pos, at), d.Ranged.Range)
	out := w.resolver.Ranged(att, t.defender(w.catalogs), band)
	if out.Fumble {
		w.stray(a, t, att)
		return
	}
	w.resolveAttack(a, t, out)
}

func validateThrow(w *World, a *Actor, p actions.Proposal, recheck bool) actions.Possibility {
	if a.Shocked {
		return actions.No("You are too shaken to attack.")
	}
	if p.Index < 0 || p.Index >= len(a.Inventory) {
		return actions.No("You don't have that.")
	}
	d, _ := w.catalogs.Item(a.Inventory[p.Index].ID)
	if d.Throw == nil {
		return actions.No("The %s is not made for throwing.", d.Name)
	}
	if p.Target == a.Pos {
		return actions.No("You would only hit yourself.")
	}
	// Classify puts adjacent targets in the melee band whatever the range.
	if d.Throw.Range[2] <= 0 {
		return actions.No("You can't throw that far.")
	}
	if combat.Classify(grid.Distance(a.Pos, p.Target), d.Throw.Range) == combat.BandUnreachable {
		return actions.No("You can't throw that far.")
	}
	if !w.clearLine(a.Pos, p.Target) {
		return actions.No("You have no clear throw.")
	}
	dur := w.tuning.Durations.Throw
	if d.Throw.Ticks > 0 {
		dur = d.Throw.Ticks
	}
	return actions.Yes(dur)
}

func finishThrow(w *World, a *Actor, act *actions.Action) {
	p := act.Proposal()
	var it Item
	it, a.Inventory = removeAt(a.Inventory, p.Index)
	d, _ := w.catalogs.Item(it.ID)
	from := a.Pos
	defer func() { w.tiles.AddItem(w.landing(from, p.Target), it) }()

	t, ok := w.targetActor(a, p.Target)
	if !ok {
		w.observe(journal.Info, p.Target, a.Player, "%s %s the %s.", capitalize(name(a)), verb(a, "throw", "throws"), d.Name)
		return
	}
	att := a.attacker("throwing", combat.RangedWeapon(d.Name, *d.Throw))
	band := combat.Classify(grid.Distance(a.Pos, p.Target), d.Throw.Range)
	out := w.resolver.Ranged(att, t.defender(w.catalogs), band)
	if out.Fumble {
		w.stray(a, t, att)
		return
	}
	w.resolveAttack(a, t, out)
}

// landing is where a thrown item comes to rest: the target, or the last
// point along the line that can hold items.
func (w *World) landing(from, to grid.Point) grid.Point {
	line := grid.Line(from, to)
	for i := len(line) - 1; i > 0; i-- {
		if w.tiles.In(line[i]) && w.terrainAt(line[i]).HoldsItems {
			return line[i]
		}
	}
	return from
}

// stray redirects a fumbled shot to a random actor next to the intended
// target. With nobody there it is a plain miss.
func (w *World) stray(a, target *Actor, att combat.Attacker) {
	var victims []*Actor
	for _, p := range target.Pos.Neighbors() {
		if o, ok := w.targetActor(a, p); ok && o != target {
			victims = append(victims, o)
		}
	}
	if len(victims) == 0 {
		w.observe(journal.Combat, target.Pos, a.Player || target.Player, "%s %s wildly and %s %s.", capitalize(name(a)), verb(a, "fumble", "fumbles"), verb(a, "miss", "misses"), name(target))
		return
	}
	v := victims[w.src.IntN(len(victims))]
	out := w.resolver.Stray(att, v.defender(w.catalogs))
	w.observe(journal.Combat, v.Pos, a.Player || v.Player, "%s %s and %s %s instead.", capitalize(name(a)), verb(a, "fumble", "fumbles"), verb(a, "hit", "hits"), name(v))
	w.applyHit(v, out.Result)
}

// resolveAttack logs an outcome against t and commits its effects.
func (w *World) resolveAttack(a, t *Actor, out combat.Outcome) {
	involves := a.Player || t.Player
	if !out.Hit {
		w.observe(journal.Combat, t.Pos, involves, "%s %s %s.", capitalize(name(a)), verb(a, "miss", "misses"), name(t))
		return
	}
	how := verb(a, "hit", "hits")
	if out.Result.Critical {
		how = verb(a, "land a vicious blow on", "lands a vicious blow on")
	}
	w.observe(journal.Combat, t.Pos, involves, "%s %s %s in the %s.", capitalize(name(a)), how, name(t), out.Result.Location)
	w.applyHit(t, out.Result)
}

// applyHit commits a hit's effects on t and kills it past the wound limit.
func (w *World) applyHit(t *Actor, h *combat.Hit) {
	eff := h.Effects
	if !eff.Caused {
		w.observe(journal.Combat, t.Pos, t.Player, "The blow glances off %s.", name(t))
		return
	}
	t.Shocked = eff.Shock
	t.Wounds = append(t.Wounds, eff.Wounds...)
	switch {
	case len(eff.Wounds) > 0:
		w.observe(journal.Danger, t.Pos, t.Player, "%s %s wounded.", capitalize(name(t)), verb(t, "are", "is"))
	case eff.Soaked > 0:
		w.observe(journal.Combat, t.Pos, t.Player, "%s %s off the wound.", capitalize(name(t)), verb(t, "shrug", "shrugs"))
	case eff.Shock:
		w.observe(journal.Combat, t.Pos, t.Player, "%s %s shaken.", capitalize(name(t)), verb(t, "are", "is"))
	}
	if len(t.Wounds) > w.tuning.MaxWounds {
		w.kill(t)
	}
}

// kill removes a from the world and drops everything it carried.
func (w *World) kill(a *Actor) {
	for _, it := range a.carried() {
		w.tiles.AddItem(a.Pos, it)
	}
	if a.Player {
		w.journal.Push(journal.Event{Tick: w.tick, Text: "You die...", Pos: a.Pos, Category: journal.Danger})
		w.gameOver = true
	} else {
		w.observe(journal.Danger, a.Pos, false, "%s dies.", capitalize(name(a)))
	}
	w.remove(a.ID)
}
