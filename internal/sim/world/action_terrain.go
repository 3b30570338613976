package world

import (
	"undercroft.game/internal/sim/actions"
	"undercroft.game/internal/sim/grid"
	"undercroft.game/internal/sim/journal"
)

func validateDig(w *World, a *Actor, p actions.Proposal, recheck bool) actions.Possibility {
	if !grid.Adjacent(a.Pos, p.Target) {
		return actions.No("You can only dig next to you.")
	}
	if !a.hasDigTool(w.catalogs) {
		return actions.No("You need to wield something to dig with.")
	}
	t := w.terrainAt(p.Target)
	if !t.Diggable() {
		return actions.No("You can't dig into the %s.", t.Name)
	}
	if w.occupied(p.Target) {
		return actions.No("Somebody is standing there.")
	}
	if len(w.tiles.Buried(p.Target)) > 0 && len(w.scatterTargets(a, p.Target)) == 0 {
		return actions.No("There is no room to pile the earth.")
	}
	return actions.Yes(w.tuning.Durations.Dig)
}

// scatterTargets are the free tiles around a dig site that unearthed items
// can land on.
func (w *World) scatterTargets(a *Actor, site grid.Point) []grid.Point {
	var out []grid.Point
	for _, p := range site.Neighbors() {
		if p == a.Pos || !w.Passable(p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func startDig(w *World, a *Actor, act *actions.Action) {
	at := act.Proposal().Target
	w.observe(journal.Info, at, a.Player, "%s %s to dig into the %s.", capitalize(name(a)), verb(a, "begin", "begins"), w.terrainAt(at).Name)
}

func finishDig(w *World, a *Actor, act *actions.Action) {
	at := act.Proposal().Target
	t := w.terrainAt(at)
	found := w.tiles.Unearth(at)
	var to grid.Point
	if len(found) > 0 {
		// Validation guarantees at least one target.
		targets := w.scatterTargets(a, at)
		to = targets[w.src.IntN(len(targets))]
	}
	w.setTerrain(at, t.DigResult)
	w.observe(journal.Info, at, a.Player, "%s %s through the %s.", capitalize(name(a)), verb(a, "dig", "digs"), t.Name)
	for _, it := range found {
		w.tiles.AddItem(to, it)
		w.observe(journal.Info, to, a.Player, "A %s tumbles out of the earth.", itemName(w.catalogs, it.ID))
	}
}

func validateOpen(w *World, a *Actor, p actions.Proposal, recheck bool) actions.Possibility {
	if !grid.Adjacent(a.Pos, p.Target) {
		return actions.No("That is too far away.")
	}
	t := w.terrainAt(p.Target)
	if !t.Openable() {
		return actions.No("You can't open the %s.", t.Name)
	}
	return actions.Yes(w.tuning.Durations.Open)
}

func finishOpen(w *World, a *Actor, act *actions.Action) {
	at := act.Proposal().Target
	t := w.terrainAt(at)
	w.setTerrain(at, t.OpenResult)
	w.observe(journal.Info, at, a.Player, "%s %s the %s.", capitalize(name(a)), verb(a, "open", "opens"), t.Name)
}

func validateClose(w *World, a *Actor, p actions.Proposal, recheck bool) actions.Possibility {
	if !grid.Adjacent(a.Pos, p.Target) {
		return actions.No("That is too far away.")
	}
	t := w.terrainAt(p.Target)
	if !t.Closeable() {
		return actions.No("You can't close the %s.", t.Name)
	}
	if w.occupied(p.Target) {
		return actions.No("Somebody is standing in the way.")
	}
	if !w.catalogs.Terrain.Defs[t.CloseResult].HoldsItems && len(w.tiles.Items(p.Target)) > 0 {
		return actions.No("Something is blocking the %s.", t.Name)
	}
	return actions.Yes(w.tuning.Durations.Close)
}

func finishClose(w *World, a *Actor, act *actions.Action) {
	at := act.Proposal().Target
	t := w.terrainAt(at)
	w.setTerrain(at, t.CloseResult)
	w.observe(journal.Info, at, a.Player, "%s %s the %s.", capitalize(name(a)), verb(a, "close", "closes"), t.Name)
}
