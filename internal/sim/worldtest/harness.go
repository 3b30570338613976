// Package worldtest drives worlds through their exported API only, the way a
// client session or the replay tool would.
package worldtest

import (
	"path/filepath"
	"strings"
	"testing"

	"undercroft.game/internal/persistence/snapshot"
	"undercroft.game/internal/sim/actions"
	"undercroft.game/internal/sim/ai"
	"undercroft.game/internal/sim/catalogs"
	"undercroft.game/internal/sim/journal"
	"undercroft.game/internal/sim/level"
	"undercroft.game/internal/sim/tuning"
	"undercroft.game/internal/sim/world"
)

const configDir = "../../../configs"

// Harness plays the player of one world with AI planners installed. Capped
// inputs are resumed until the player's action completes.
type Harness struct {
	T    *testing.T
	Cats *catalogs.Catalogs
	W    *world.World

	events []journal.Event
}

func loadCats(t *testing.T) *catalogs.Catalogs {
	t.Helper()
	cats, err := catalogs.Load(configDir)
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	return cats
}

// NewHarness builds a world from level yaml source.
func NewHarness(t *testing.T, tun tuning.Tuning, levelYAML string, seed uint64) *Harness {
	t.Helper()
	cats := loadCats(t)
	lvl, err := level.Parse([]byte(levelYAML), cats)
	if err != nil {
		t.Fatalf("parse level: %v", err)
	}
	return newHarness(t, cats, tun, lvl, seed)
}

// NewChurchyard builds a world from the shipped churchyard level.
func NewChurchyard(t *testing.T, tun tuning.Tuning, seed uint64) *Harness {
	t.Helper()
	cats := loadCats(t)
	lvl, err := level.Load(filepath.Join(configDir, "levels", "churchyard.yaml"), cats)
	if err != nil {
		t.Fatalf("load level: %v", err)
	}
	return newHarness(t, cats, tun, lvl, seed)
}

func newHarness(t *testing.T, cats *catalogs.Catalogs, tun tuning.Tuning, lvl *level.Level, seed uint64) *Harness {
	t.Helper()
	w, err := world.New(world.Config{RunID: "test", Level: lvl.Name, Seed: seed}, cats, tun, lvl)
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	w.SetPlanners(ai.Planners())
	return &Harness{T: t, Cats: cats, W: w}
}

// Do plays p to completion and returns the report of the last input.
func (h *Harness) Do(p actions.Proposal) world.Report {
	h.T.Helper()
	rep, err := h.W.Input(p)
	if err != nil {
		h.T.Fatalf("Input(%v): %v", p, err)
	}
	h.events = append(h.events, rep.Events...)
	for rep.Capped {
		if rep, err = h.W.Resume(); err != nil {
			h.T.Fatalf("Resume: %v", err)
		}
		h.events = append(h.events, rep.Events...)
	}
	return rep
}

// Skip passes n player turns, stopping early if the run ends.
func (h *Harness) Skip(n int) {
	h.T.Helper()
	for i := 0; i < n && !h.W.GameOver(); i++ {
		h.Do(actions.Skip())
	}
}

func (h *Harness) Player() world.View {
	h.T.Helper()
	pl, ok := h.W.Player()
	if !ok {
		h.T.Fatalf("no player")
	}
	return pl
}

// Events returns every journal event seen by Do so far.
func (h *Harness) Events() []journal.Event { return h.events }

// HasEvent reports whether an event of category cat contains text
// (case-insensitive).
func (h *Harness) HasEvent(cat journal.Category, text string) bool {
	text = strings.ToLower(text)
	for _, e := range h.events {
		if e.Category == cat && strings.Contains(strings.ToLower(e.Text), text) {
			return true
		}
	}
	return false
}

// Reload writes the world to a snapshot file, reads it back and returns a
// harness around the restored copy.
func (h *Harness) Reload() *Harness {
	h.T.Helper()
	path := filepath.Join(h.T.TempDir(), snapshot.FileName(h.W.Inputs()))
	if err := snapshot.WriteSnapshot(path, h.W.ExportSnapshot()); err != nil {
		h.T.Fatalf("WriteSnapshot: %v", err)
	}
	snap, err := snapshot.ReadSnapshot(path)
	if err != nil {
		h.T.Fatalf("ReadSnapshot: %v", err)
	}
	w, err := world.FromSnapshot(h.Cats, h.W.Tuning(), snap)
	if err != nil {
		h.T.Fatalf("FromSnapshot: %v", err)
	}
	w.SetPlanners(ai.Planners())
	return &Harness{T: h.T, Cats: h.Cats, W: w}
}
