package ai

import (
	"undercroft.game/internal/sim/actions"
	"undercroft.game/internal/sim/grid"
	"undercroft.game/internal/sim/world"
	"undercroft.game/internal/sim/world/logic/pathfind"
)

// Hunter pursues and attacks the player while it can see it and wanders
// otherwise.
type Hunter struct {
	// MaxNodes bounds A* expansion per plan; zero is unbounded.
	MaxNodes int
	// DetourDepth is the BFS depth of the last-resort sidestep.
	DetourDepth int
}

func NewHunter() Hunter {
	return Hunter{MaxNodes: 2048, DetourDepth: 4}
}

func (h Hunter) Plan(w *world.World, id world.ActorID) (actions.Proposal, bool) {
	self, ok := w.Actor(id)
	if !ok {
		return actions.Proposal{}, false
	}
	if self.Shocked {
		return actions.Skip(), true
	}
	pl, ok := w.Player()
	if !ok || !w.CanSee(id, pl.Pos) {
		if len(self.Path) > 0 {
			w.SetPath(id, nil)
		}
		return Wander{}.Plan(w, id)
	}

	if p, ok := attack(w, id, pl.Pos); ok {
		return p, true
	}

	// Cached route: still ends at the player and nothing stands on it.
	if path := self.Path; len(path) > 0 && path[len(path)-1] == pl.Pos && unblocked(w, path[:len(path)-1]) {
		if p, ok := stepTo(w, id, self.Pos, path[0]); ok {
			return p, true
		}
	}

	route, found := pathfind.Find(self.Pos, pl.Pos, func(p grid.Point) (int, bool) {
		if !w.Passable(p) {
			return 0, false
		}
		return w.PassageCost(p)
	}, w.Tuning().DiagonalPermille, h.MaxNodes)
	if found && len(route.Points) > 0 {
		w.SetPath(id, route.Points)
		if p, ok := stepTo(w, id, self.Pos, route.Points[0]); ok {
			return p, true
		}
	} else {
		w.SetPath(id, nil)
	}

	// No route: head straight for the player, then try to sidestep.
	if d, ok := grid.StepToward(self.Pos, pl.Pos); ok {
		if p := actions.Walk(d); w.Check(id, p).OK {
			return p, true
		}
	}
	if d, ok := pathfind.DetourStep(self.Pos, pl.Pos, h.DetourDepth, w.Passable); ok {
		if p := actions.Walk(d); w.Check(id, p).OK {
			return p, true
		}
	}
	return actions.Skip(), true
}

// attack returns the first attack on target that validates: a shot with a
// wielded ranged weapon, else a melee blow.
func attack(w *world.World, id world.ActorID, target grid.Point) (actions.Proposal, bool) {
	for _, k := range []actions.Kind{actions.KindShoot, actions.KindMelee} {
		if p := actions.At(k, target); w.Check(id, p).OK {
			return p, true
		}
	}
	return actions.Proposal{}, false
}

func unblocked(w *world.World, pts []grid.Point) bool {
	for _, p := range pts {
		if !w.Passable(p) {
			return false
		}
	}
	return true
}
