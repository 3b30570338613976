package world

import (
	"strings"
	"testing"

	"undercroft.game/internal/sim/catalogs"
	"undercroft.game/internal/sim/grid"
	"undercroft.game/internal/sim/journal"
	"undercroft.game/internal/sim/level"
	"undercroft.game/internal/sim/tuning"
)

func loadCats(t *testing.T) *catalogs.Catalogs {
	t.Helper()
	cats, err := catalogs.Load("../../../configs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	return cats
}

const testLegend = `
legend:
  "#": {terrain: WALL}
  ".": {terrain: FLOOR}
  ",": {terrain: DIRT}
  "+": {terrain: GRAVE}
  "D": {terrain: DOOR_CLOSED}
  "'": {terrain: DOOR_OPEN}
  "x": {terrain: CRATE}
  "@": {terrain: FLOOR, spawn: player}
`

// newTestWorld builds a world from an inline layout using the repo catalogs.
// extra is appended to the level yaml (items, buried, spawns).
func newTestWorld(t *testing.T, tun tuning.Tuning, layout string, extra string) *World {
	t.Helper()
	cats := loadCats(t)
	raw := "name: test\n" + testLegend + "layout: |\n"
	for _, row := range strings.Split(strings.Trim(layout, "\n"), "\n") {
		raw += "  " + row + "\n"
	}
	raw += extra
	lvl, err := level.Parse([]byte(raw), cats)
	if err != nil {
		t.Fatalf("parse level: %v", err)
	}
	w, err := New(Config{RunID: "test", Level: "test", Seed: 42}, cats, tun, lvl)
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	return w
}

func mustSpawn(t *testing.T, w *World, template string, p grid.Point) *Actor {
	t.Helper()
	id, err := w.Spawn(template, p)
	if err != nil {
		t.Fatalf("spawn %s: %v", template, err)
	}
	return w.mustActor(id)
}

// runUntil executes ticks without planning until the tick reaches end.
func runUntil(w *World, end uint64) {
	w.act()
	for w.tick < end {
		w.tick++
		w.act()
	}
}

func hasEvent(events []journal.Event, cat journal.Category, text string) bool {
	for _, e := range events {
		if e.Category == cat && e.Text == text {
			return true
		}
	}
	return false
}
