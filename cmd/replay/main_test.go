package main

import (
	"path/filepath"
	"strings"
	"testing"

	persistlog "undercroft.game/internal/persistence/log"
	"undercroft.game/internal/persistence/snapshot"
	"undercroft.game/internal/sim/actions"
	"undercroft.game/internal/sim/ai"
	"undercroft.game/internal/sim/catalogs"
	"undercroft.game/internal/sim/grid"
	"undercroft.game/internal/sim/level"
	"undercroft.game/internal/sim/tuning"
	"undercroft.game/internal/sim/world"
)

const configs = "../../configs"

// recordRun plays a short churchyard run with AI on and returns its run dir.
func recordRun(t *testing.T, tun tuning.Tuning) (string, *world.World) {
	t.Helper()
	cats, err := catalogs.Load(configs)
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	lvl, err := level.Load(filepath.Join(configs, "levels", "churchyard.yaml"), cats)
	if err != nil {
		t.Fatalf("load level: %v", err)
	}
	runDir := filepath.Join(t.TempDir(), "runs", "r1")
	if err := snapshot.WriteRunMeta(runDir, snapshot.RunMeta{RunID: "r1", Level: lvl.Name, Seed: 11}); err != nil {
		t.Fatalf("WriteRunMeta: %v", err)
	}
	w, err := world.New(world.Config{RunID: "r1", Level: lvl.Name, Seed: 11}, cats, tun, lvl)
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	w.SetPlanners(ai.Planners())
	inputs := persistlog.NewInputLogger(runDir)
	w.SetInputLogger(inputs)

	moves := []actions.Proposal{
		actions.Walk(grid.East),
		actions.Walk(grid.North),
		actions.Skip(),
		actions.Walk(grid.East),
		actions.Walk(grid.SouthEast),
		actions.Skip(),
		actions.Walk(grid.West),
	}
	for _, p := range moves {
		rep, err := w.Input(p)
		if err != nil {
			break
		}
		for rep.Capped {
			if rep, err = w.Resume(); err != nil {
				t.Fatalf("Resume: %v", err)
			}
		}
		if rep.GameOver {
			break
		}
	}
	if err := inputs.Close(); err != nil {
		t.Fatalf("close input log: %v", err)
	}
	return runDir, w
}

func TestReplay_FromRunStart(t *testing.T) {
	tun := tuning.Defaults()
	tun.MaxTicksPerInput = 40
	runDir, live := recordRun(t, tun)

	cats, _ := catalogs.Load(configs)
	w, err := startWorld(runDir, "", configs, cats, tun)
	if err != nil {
		t.Fatalf("startWorld: %v", err)
	}
	entries, err := persistlog.ReadInputs(runDir, 0)
	if err != nil {
		t.Fatalf("ReadInputs: %v", err)
	}
	checked, err := verify(w, entries, 0)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if uint64(checked) != live.Inputs() || w.StateDigest() != live.StateDigest() {
		t.Fatalf("checked=%d live inputs=%d", checked, live.Inputs())
	}
}

func TestReplay_FromSnapshot(t *testing.T) {
	tun := tuning.Defaults()
	runDir, live := recordRun(t, tun)

	// Rebuild a mid-run snapshot by replaying the first three inputs.
	cats, _ := catalogs.Load(configs)
	w, err := startWorld(runDir, "", configs, cats, tun)
	if err != nil {
		t.Fatalf("startWorld: %v", err)
	}
	entries, err := persistlog.ReadInputs(runDir, 0)
	if err != nil {
		t.Fatalf("ReadInputs: %v", err)
	}
	if _, err := verify(w, entries, 3); err != nil {
		t.Fatalf("verify prefix: %v", err)
	}
	snapPath := filepath.Join(runDir, "snapshots", snapshot.FileName(w.Inputs()))
	if err := snapshot.WriteSnapshot(snapPath, w.ExportSnapshot()); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	w2, err := startWorld(runDir, snapPath, configs, cats, tun)
	if err != nil {
		t.Fatalf("startWorld from snapshot: %v", err)
	}
	rest, err := persistlog.ReadInputs(runDir, w2.Inputs())
	if err != nil {
		t.Fatalf("ReadInputs: %v", err)
	}
	if _, err := verify(w2, rest, 0); err != nil {
		t.Fatalf("verify rest: %v", err)
	}
	if w2.StateDigest() != live.StateDigest() {
		t.Fatalf("final digest differs")
	}
}

func TestVerify_DetectsTampering(t *testing.T) {
	tun := tuning.Defaults()
	runDir, _ := recordRun(t, tun)
	cats, _ := catalogs.Load(configs)

	entries, err := persistlog.ReadInputs(runDir, 0)
	if err != nil || len(entries) < 2 {
		t.Fatalf("ReadInputs: n=%d err=%v", len(entries), err)
	}
	entries[1].Digest = "bogus"
	w, err := startWorld(runDir, "", configs, cats, tun)
	if err != nil {
		t.Fatalf("startWorld: %v", err)
	}
	checked, err := verify(w, entries, 0)
	if err == nil || !strings.Contains(err.Error(), "digest mismatch at input 2") || checked != 1 {
		t.Fatalf("checked=%d err=%v", checked, err)
	}

	w, _ = startWorld(runDir, "", configs, cats, tun)
	if _, err := verify(w, entries[1:], 0); err == nil || !strings.Contains(err.Error(), "input gap") {
		t.Fatalf("gap not detected: %v", err)
	}
}
