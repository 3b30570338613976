package world

import (
	"undercroft.game/internal/sim/actions"
	"undercroft.game/internal/sim/dice"
	"undercroft.game/internal/sim/journal"
)

func validateSkip(w *World, a *Actor, p actions.Proposal, recheck bool) actions.Possibility {
	return actions.Yes(w.tuning.Durations.Skip)
}

// finishSkip gives a shocked actor a Spirit roll to recover.
func finishSkip(w *World, a *Actor, act *actions.Action) {
	if !a.Shocked {
		return
	}
	spirit := a.def.Attributes.Spirit
	var roll dice.RollResult
	if a.def.Wild {
		roll, _ = spirit.RollWild(w.src, 0)
	} else {
		roll = spirit.Roll(w.src, 0)
	}
	if roll.Successes() < 1 {
		return
	}
	a.Shocked = false
	w.observe(journal.Info, a.Pos, a.Player, "%s %s.", capitalize(name(a)), verb(a, "recover your wits", "recovers"))
}

func validateWalk(w *World, a *Actor, p actions.Proposal, recheck bool) actions.Possibility {
	to := a.Pos.Add(p.Dir)
	if !w.tiles.In(to) {
		return actions.No("You can't go that way.")
	}
	t := w.terrainAt(to)
	if !t.Passable {
		return actions.No("The %s blocks your way.", t.Name)
	}
	if id, ok := w.occupancy[to]; ok {
		return actions.No("%s is in the way.", capitalize(name(w.byID[id])))
	}
	cost := t.PassCost
	if p.Dir.Diagonal() {
		cost = scale(cost, w.tuning.DiagonalPermille)
	}
	return actions.Yes(scale(cost, a.def.Speed))
}

func finishWalk(w *World, a *Actor, act *actions.Action) {
	to := a.Pos.Add(act.Proposal().Dir)
	w.moveActor(a, to)
	if len(a.Path) > 0 && a.Path[0] == to {
		a.Path = a.Path[1:]
	}
	if !a.Player {
		return
	}
	switch items := w.tiles.Items(to); len(items) {
	case 0:
	case 1:
		w.tell(a, journal.Info, "You see a %s here.", itemName(w.catalogs, items[0].ID))
	default:
		w.tell(a, journal.Info, "You see %d items here.", len(items))
	}
}
