package main

import (
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	persistlog "undercroft.game/internal/persistence/log"
	"undercroft.game/internal/persistence/snapshot"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "rewind":
			rewindCmd(os.Args[2:])
			return
		case "db":
			dbCmd(os.Args[2:])
			return
		case "state":
			stateCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	_ = fs.Parse(args)

	base := filepath.Join(*dataDir, "runs")
	entries, err := os.ReadDir(base)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		runDir := filepath.Join(base, e.Name())
		r := struct {
			RunID    string `json:"run_id"`
			Level    string `json:"level,omitempty"`
			Seed     uint64 `json:"seed,omitempty"`
			Snapshot string `json:"latest_snapshot,omitempty"`
			Archived bool   `json:"archived,omitempty"`
		}{RunID: e.Name()}
		if meta, err := snapshot.ReadRunMeta(runDir); err == nil {
			r.Level, r.Seed = meta.Level, meta.Seed
		}
		if p := snapshot.Latest(runDir); p != "" {
			r.Snapshot = filepath.Base(p)
		}
		if _, err := os.Stat(filepath.Join(runDir, "archive", "meta.json")); err == nil {
			r.Archived = true
		}
		printJSON(r)
	}
}

func rewindCmd(args []string) {
	fs := flag.NewFlagSet("rewind", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	runID := fs.String("run", "", "run id to branch from")
	inputs := fs.Uint64("inputs", 0, "rewind to the latest snapshot at or before this many inputs (0 = latest)")
	newID := fs.String("new_run", "", "id of the branched run (default: new uuid)")
	_ = fs.Parse(args)

	if strings.TrimSpace(*runID) == "" {
		fmt.Fprintln(os.Stderr, "missing -run")
		os.Exit(2)
	}
	id := strings.TrimSpace(*newID)
	if id == "" {
		id = uuid.NewString()
	}
	limit := *inputs
	if limit == 0 {
		limit = math.MaxUint64
	}

	res, err := rewindRun(*dataDir, *runID, id, limit)
	if err != nil {
		fmt.Fprintln(os.Stderr, "rewind:", err)
		os.Exit(1)
	}
	fmt.Printf("rewind ok: from=%s snapshot=%s inputs=%d tick=%d logged=%d new_run=%s\n",
		*runID, filepath.Base(res.From), res.Inputs, res.Tick, res.Logged, id)
}

type rewindResult struct {
	From   string
	Inputs uint64
	Tick   uint64
	Logged int
}

// rewindRun starts run newID from the chosen snapshot of runID. The input
// log up to that snapshot is carried over so the branch still replays from
// input zero.
func rewindRun(dataDir, runID, newID string, inputs uint64) (rewindResult, error) {
	var res rewindResult
	srcDir := filepath.Join(dataDir, "runs", runID)
	dstDir := filepath.Join(dataDir, "runs", newID)
	if _, err := os.Stat(dstDir); err == nil {
		return res, fmt.Errorf("run %s already exists", newID)
	}

	res.From = snapshot.AtOrBefore(srcDir, inputs)
	if res.From == "" {
		return res, errors.New("no snapshot at or before the requested input")
	}
	snap, err := snapshot.ReadSnapshot(res.From)
	if err != nil {
		return res, fmt.Errorf("read snapshot: %w", err)
	}
	res.Inputs, res.Tick = snap.Header.Inputs, snap.Header.Tick

	meta, err := snapshot.ReadRunMeta(srcDir)
	if err != nil {
		meta = snapshot.RunMeta{Level: snap.Header.Level, Seed: snap.Seed}
	}
	meta.RunID = newID
	meta.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	if err := snapshot.WriteRunMeta(dstDir, meta); err != nil {
		return res, err
	}

	snap.Header.RunID = newID
	if err := snapshot.WriteSnapshot(filepath.Join(dstDir, "snapshots", snapshot.FileName(snap.Header.Inputs)), snap); err != nil {
		return res, fmt.Errorf("write snapshot: %w", err)
	}

	entries, err := persistlog.ReadInputs(srcDir, 0)
	if err != nil {
		return res, fmt.Errorf("read inputs: %w", err)
	}
	l := persistlog.NewInputLogger(dstDir)
	for _, e := range entries {
		if e.Input > snap.Header.Inputs {
			break
		}
		if err := l.WriteInput(e); err != nil {
			_ = l.Close()
			return res, fmt.Errorf("write inputs: %w", err)
		}
		res.Logged++
	}
	return res, l.Close()
}
