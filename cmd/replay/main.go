package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	persistlog "undercroft.game/internal/persistence/log"
	"undercroft.game/internal/persistence/snapshot"
	"undercroft.game/internal/sim/ai"
	"undercroft.game/internal/sim/catalogs"
	"undercroft.game/internal/sim/level"
	"undercroft.game/internal/sim/tuning"
	"undercroft.game/internal/sim/world"
)

func main() {
	var (
		runDir     = flag.String("run", "", "run directory containing run.json, inputs/ and snapshots/")
		snapPath   = flag.String("snapshot", "", "start from this .snap.zst instead of input zero (optional)")
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		toInput    = flag.Uint64("to_input", 0, "stop after this input (inclusive, optional)")
	)
	flag.Parse()

	if *runDir == "" {
		fmt.Fprintln(os.Stderr, "missing -run")
		os.Exit(2)
	}

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load catalogs:", err)
		os.Exit(1)
	}
	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load tuning:", err)
		os.Exit(1)
	}

	w, err := startWorld(*runDir, *snapPath, *configDir, cats, tune)
	if err != nil {
		fmt.Fprintln(os.Stderr, "world:", err)
		os.Exit(1)
	}
	startInput, startTick := w.Inputs(), w.CurrentTick()

	entries, err := persistlog.ReadInputs(*runDir, startInput)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read inputs:", err)
		os.Exit(1)
	}
	checked, err := verify(w, entries, *toInput)
	if err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}
	fmt.Printf("replay ok: checked=%s inputs, ticks %s..%s (from input %d)\n",
		humanize.Comma(int64(checked)), humanize.Comma(int64(startTick)), humanize.Comma(int64(w.CurrentTick())), startInput)
}

// startWorld rebuilds the world at the replay's starting point.
func startWorld(runDir, snapPath, configDir string, cats *catalogs.Catalogs, tune tuning.Tuning) (*world.World, error) {
	var w *world.World
	if snapPath != "" {
		snap, err := snapshot.ReadSnapshot(snapPath)
		if err != nil {
			return nil, fmt.Errorf("read snapshot: %w", err)
		}
		if st, err := os.Stat(snapPath); err == nil {
			fmt.Printf("snapshot v%d run=%s level=%s inputs=%d tick=%d actors=%d size=%s\n",
				snap.Header.Version, snap.Header.RunID, snap.Header.Level, snap.Header.Inputs, snap.Header.Tick,
				len(snap.Actors), humanize.Bytes(uint64(st.Size())))
		}
		w, err = world.FromSnapshot(cats, tune, snap)
		if err != nil {
			return nil, err
		}
	} else {
		meta, err := snapshot.ReadRunMeta(runDir)
		if err != nil {
			return nil, fmt.Errorf("run meta: %w", err)
		}
		lvl, err := level.Load(filepath.Join(configDir, "levels", meta.Level+".yaml"), cats)
		if err != nil {
			return nil, err
		}
		w, err = world.New(world.Config{RunID: meta.RunID, Level: lvl.Name, Seed: meta.Seed}, cats, tune, lvl)
		if err != nil {
			return nil, err
		}
	}
	w.SetPlanners(ai.Planners())
	return w, nil
}

// verify feeds the logged proposals back in order and compares every digest.
func verify(w *world.World, entries []world.InputLogEntry, toInput uint64) (int, error) {
	checked := 0
	for _, e := range entries {
		if toInput != 0 && e.Input > toInput {
			break
		}
		if want := w.Inputs() + 1; e.Input != want {
			return checked, fmt.Errorf("input gap: want=%d got=%d", want, e.Input)
		}
		var (
			rep world.Report
			err error
		)
		if e.Resumed {
			rep, err = w.Resume()
		} else {
			rep, err = w.Input(e.Proposal)
		}
		if err != nil {
			return checked, fmt.Errorf("input %d: %w", e.Input, err)
		}
		if rep.Possibility.OK != e.OK {
			return checked, fmt.Errorf("input %d: accepted=%v, log says %v", e.Input, rep.Possibility.OK, e.OK)
		}
		if rep.EndTick != e.Tick {
			return checked, fmt.Errorf("input %d: tick %d, log says %d", e.Input, rep.EndTick, e.Tick)
		}
		if rep.Digest != e.Digest {
			return checked, fmt.Errorf("digest mismatch at input %d: got=%s want=%s", e.Input, rep.Digest, e.Digest)
		}
		checked++
	}
	return checked, nil
}
