package worldtest

import (
	"testing"

	"undercroft.game/internal/sim/actions"
	"undercroft.game/internal/sim/grid"
	"undercroft.game/internal/sim/tuning"
)

func churchyardScript() []actions.Proposal {
	return []actions.Proposal{
		actions.Walk(grid.East),
		actions.Item(actions.KindPickup, 0),
		actions.Walk(grid.East),
		actions.Walk(grid.SouthEast),
		actions.Skip(),
		actions.Walk(grid.East),
		actions.At(actions.KindOpen, grid.P(7, 2)),
		actions.Walk(grid.West),
		actions.Skip(),
		actions.Walk(grid.South),
		actions.Walk(grid.South),
		actions.Skip(),
	}
}

func TestDeterminism_SameSeedSameRun(t *testing.T) {
	tun := tuning.Defaults()
	tun.MaxTicksPerInput = 50
	h1 := NewChurchyard(t, tun, 42)
	h2 := NewChurchyard(t, tun, 42)
	if h1.W.StateDigest() != h2.W.StateDigest() {
		t.Fatalf("fresh worlds differ")
	}

	for i, p := range churchyardScript() {
		if h1.W.GameOver() || h2.W.GameOver() {
			break
		}
		r1 := h1.Do(p)
		r2 := h2.Do(p)
		if r1.EndTick != r2.EndTick || r1.Digest != r2.Digest {
			t.Fatalf("step %d (%v): tick %d/%d digest %s/%s", i, p, r1.EndTick, r2.EndTick, r1.Digest, r2.Digest)
		}
		if len(r1.Events) != len(r2.Events) {
			t.Fatalf("step %d: %d vs %d events", i, len(r1.Events), len(r2.Events))
		}
	}
	if h1.W.GameOver() != h2.W.GameOver() || h1.W.Inputs() != h2.W.Inputs() {
		t.Fatalf("runs ended differently")
	}
}

func TestDeterminism_ReloadMidRun(t *testing.T) {
	tun := tuning.Defaults()
	h := NewChurchyard(t, tun, 7)
	script := churchyardScript()
	for _, p := range script[:5] {
		h.Do(p)
	}
	if h.W.GameOver() {
		t.Skip("run ended before the reload point")
	}
	restored := h.Reload()
	if restored.W.StateDigest() != h.W.StateDigest() {
		t.Fatalf("reloaded digest differs")
	}
	for i, p := range script[5:] {
		if h.W.GameOver() {
			break
		}
		r1, r2 := h.Do(p), restored.Do(p)
		if r1.Digest != r2.Digest {
			t.Fatalf("step %d after reload: digest %s vs %s", i, r1.Digest, r2.Digest)
		}
	}
}
