// Package ai holds the planner strategies that keep non-player actors busy.
// Planners only read the world and return proposals; the scheduler validates
// and installs them.
package ai

import (
	"undercroft.game/internal/sim/actions"
	"undercroft.game/internal/sim/grid"
	"undercroft.game/internal/sim/world"
)

// Strategy names used by the "ai" field of actor templates.
const (
	StrategyIdle   = "idle"
	StrategyWander = "wander"
	StrategyHunter = "hunter"
)

// Planners returns every strategy keyed by template ai name.
func Planners() map[string]world.Planner {
	return map[string]world.Planner{
		StrategyIdle:   Idle{},
		StrategyWander: Wander{},
		StrategyHunter: NewHunter(),
	}
}

// Idle passes one tick at a time.
type Idle struct{}

func (Idle) Plan(w *world.World, id world.ActorID) (actions.Proposal, bool) {
	return actions.Skip(), true
}

// Wander takes a random open step, or stands still for a tick.
type Wander struct{}

func (Wander) Plan(w *world.World, id world.ActorID) (actions.Proposal, bool) {
	var open []actions.Proposal
	for _, d := range grid.Directions {
		p := actions.Walk(d)
		if w.Check(id, p).OK {
			open = append(open, p)
		}
	}
	// One extra slot for resting.
	i := w.Rand().IntN(len(open) + 1)
	if i == len(open) {
		return actions.Skip(), true
	}
	return open[i], true
}

// stepTo proposes a walk onto the adjacent point to.
func stepTo(w *world.World, id world.ActorID, from, to grid.Point) (actions.Proposal, bool) {
	d, ok := grid.DirectionOf(to.Sub(from))
	if !ok {
		return actions.Proposal{}, false
	}
	p := actions.Walk(d)
	if !w.Check(id, p).OK {
		return actions.Proposal{}, false
	}
	return p, true
}
