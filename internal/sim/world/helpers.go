package world

import (
	"fmt"

	"undercroft.game/internal/sim/catalogs"
	"undercroft.game/internal/sim/grid"
	"undercroft.game/internal/sim/journal"
	"undercroft.game/internal/sim/world/logic/fov"
)

func (w *World) terrainAt(p grid.Point) catalogs.TerrainDef {
	return w.catalogs.TerrainByIndex(w.tiles.TerrainAt(p))
}

func (w *World) setTerrain(p grid.Point, id string) {
	idx, ok := w.catalogs.Terrain.Index[id]
	if !ok {
		panic(fmt.Sprintf("world: unknown terrain %s", id))
	}
	before := w.terrainAt(p)
	w.tiles.SetTerrain(p, idx)
	if before.Transparent != w.terrainAt(p).Transparent {
		w.fovDirty = true
	}
}

func (w *World) passable(p grid.Point) bool {
	return w.tiles.In(p) && w.terrainAt(p).Passable
}

func (w *World) occupied(p grid.Point) bool {
	_, ok := w.occupancy[p]
	return ok
}

// PassageCost is the cost of entering p for pathfinding, ignoring actors.
func (w *World) PassageCost(p grid.Point) (int, bool) {
	if !w.passable(p) {
		return 0, false
	}
	return w.terrainAt(p).PassCost, true
}

// Passable reports whether p can be entered right now: walkable terrain and
// no actor on it.
func (w *World) Passable(p grid.Point) bool {
	return w.passable(p) && !w.occupied(p)
}

func (w *World) TerrainID(p grid.Point) string { return w.terrainAt(p).ID }

// Opaque reports whether p blocks line of sight.
func (w *World) Opaque(p grid.Point) bool {
	return !w.tiles.In(p) || w.terrainAt(p).BlocksSight()
}

// clearLine reports whether nothing opaque lies strictly between a and b.
func (w *World) clearLine(a, b grid.Point) bool {
	line := grid.Line(a, b)
	if len(line) <= 2 {
		return true
	}
	for _, p := range line[1 : len(line)-1] {
		if w.Opaque(p) {
			return false
		}
	}
	return true
}

// PlayerFOV returns the player's visible set, recomputing it after movement
// or sightline changes.
func (w *World) PlayerFOV() fov.Set {
	pl := w.player()
	if pl == nil {
		return fov.Set{}
	}
	if w.fovDirty || w.playerFOV == nil {
		w.playerFOV = fov.Compute(pl.Pos, pl.def.SightRadius, w.Opaque)
		w.fovDirty = false
	}
	return w.playerFOV
}

// CanSee reports whether a has line of sight to p within its sight radius.
func (w *World) CanSee(id ActorID, p grid.Point) bool {
	a := w.mustActor(id)
	if grid.Distance(a.Pos, p) > a.def.SightRadius {
		return false
	}
	return w.clearLine(a.Pos, p)
}

// observe logs an event the player can witness: anything at a visible
// position, or anything involving the player.
func (w *World) observe(cat journal.Category, at grid.Point, involvesPlayer bool, format string, args ...any) {
	if !involvesPlayer && !w.PlayerFOV().Has(at) {
		return
	}
	w.journal.Push(journal.Event{Tick: w.tick, Text: fmt.Sprintf(format, args...), Pos: at, Category: cat})
}

// tell logs a message for the player about its own actor.
func (w *World) tell(a *Actor, cat journal.Category, format string, args ...any) {
	if !a.Player {
		return
	}
	w.journal.Push(journal.Event{Tick: w.tick, Text: fmt.Sprintf(format, args...), Pos: a.Pos, Category: cat})
}

// name is how the journal refers to an actor.
func name(a *Actor) string {
	if a.Player {
		return "you"
	}
	return "the " + a.Name
}

// verb picks the second or third person form for a.
func verb(a *Actor, second, third string) string {
	if a.Player {
		return second
	}
	return third
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}

func itemName(cats *catalogs.Catalogs, id string) string {
	if d, ok := cats.Item(id); ok && d.Name != "" {
		return d.Name
	}
	return id
}

func removeAt(items []Item, i int) (Item, []Item) {
	it := items[i]
	return it, append(items[:i:i], items[i+1:]...)
}

// scale applies a permille factor rounding to the nearest tick.
func scale(v, permille int) int {
	return (v*permille + 500) / 1000
}
