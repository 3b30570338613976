package level

import (
	"strings"
	"testing"

	"undercroft.game/internal/sim/catalogs"
	"undercroft.game/internal/sim/grid"
)

func loadCats(t *testing.T) *catalogs.Catalogs {
	t.Helper()
	cats, err := catalogs.Load("../../../configs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	return cats
}

func TestLoad_Churchyard(t *testing.T) {
	cats := loadCats(t)
	l, err := Load("../../../configs/levels/churchyard.yaml", cats)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if l.Width != 24 || l.Height != 10 {
		t.Fatalf("size=%dx%d", l.Width, l.Height)
	}
	p, ok := l.PlayerSpawn()
	if !ok || p != grid.P(2, 2) {
		t.Fatalf("player spawn=%v ok=%v", p, ok)
	}
	if got := l.Cell(grid.P(10, 2)); got.Terrain != "GRAVE" || len(got.Buried) != 1 || got.Buried[0] != "GOLD_RING" {
		t.Fatalf("grave cell=%+v", got)
	}
	if got := l.Cell(grid.P(3, 4)); got.Terrain != "CRATE" || len(got.Items) != 1 {
		t.Fatalf("crate cell=%+v", got)
	}
	if got := l.Cell(grid.P(-1, 0)).Terrain; got != catalogs.VoidTerrain {
		t.Fatalf("outside cell terrain=%s", got)
	}
	for i := 1; i < len(l.Spawns); i++ {
		a, b := l.Spawns[i-1].At, l.Spawns[i].At
		if a.Y > b.Y || (a.Y == b.Y && a.X > b.X) {
			t.Fatalf("spawns not in reading order: %v", l.Spawns)
		}
	}
}

func TestParse_Errors(t *testing.T) {
	cats := loadCats(t)
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"unknown glyph", "legend: {\"@\": {terrain: FLOOR, spawn: player}}\nlayout: |\n  @?\n", "not in legend"},
		{"no player", "legend: {\".\": {terrain: FLOOR}}\nlayout: |\n  ..\n", "player spawn"},
		{"spawn on wall", "legend: {\"#\": {terrain: WALL}, \"@\": {terrain: FLOOR, spawn: player}}\nlayout: |\n  @#\nspawns:\n  - {template: rat, at: [1, 0]}\n", "impassable"},
		{"unknown item", "legend: {\"@\": {terrain: FLOOR, spawn: player}}\nlayout: |\n  @\nitems:\n  - {item: NOPE, at: [0, 0]}\n", "unknown item"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.src), cats)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err=%v want substring %q", err, tc.want)
			}
		})
	}
}
