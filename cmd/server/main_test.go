package main

import (
	"bytes"
	"errors"
	"io"
	"log"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"undercroft.game/internal/persistence/snapshot"
	"undercroft.game/internal/sim/actions"
	"undercroft.game/internal/sim/catalogs"
	"undercroft.game/internal/sim/tuning"
	"undercroft.game/internal/sim/world"
)

type countSink struct{ n int }

func (c *countSink) WriteInput(world.InputLogEntry) error {
	c.n++
	return nil
}

func TestOpenWorld_FreshThenResume(t *testing.T) {
	cats, err := catalogs.Load("../../configs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	cfg := Config{ConfigDir: "../../configs", Level: "churchyard", Seed: 5, LoadLatest: true}
	runDir := filepath.Join(t.TempDir(), "runs", "r1")
	logger := log.New(io.Discard, "", 0)

	w, err := openWorld(cfg, "r1", runDir, cats, tuning.Defaults(), logger)
	if err != nil {
		t.Fatalf("fresh: %v", err)
	}
	meta, err := snapshot.ReadRunMeta(runDir)
	if err != nil || meta.Seed != 5 || meta.Level != "churchyard" {
		t.Fatalf("run meta=%+v err=%v", meta, err)
	}

	a, b := &countSink{}, &countSink{}
	w.SetInputLogger(inputSinks{logger: logger, sinks: []world.InputLogger{a, b}})
	if _, err := w.Input(actions.Skip()); err != nil {
		t.Fatalf("Input: %v", err)
	}
	if a.n != 1 || b.n != 1 {
		t.Fatalf("sinks saw %d/%d entries", a.n, b.n)
	}

	path := filepath.Join(runDir, "snapshots", snapshot.FileName(w.Inputs()))
	if err := snapshot.WriteSnapshot(path, w.ExportSnapshot()); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	w2, err := openWorld(cfg, "r1", runDir, cats, tuning.Defaults(), logger)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if w2.Inputs() != 1 || w2.StateDigest() != w.StateDigest() {
		t.Fatalf("resumed inputs=%d", w2.Inputs())
	}

	if _, err := openWorld(cfg, "other", runDir, cats, tuning.Defaults(), logger); err == nil {
		t.Fatalf("expected run id mismatch")
	}
}

func TestWriteMetrics(t *testing.T) {
	rec := httptest.NewRecorder()
	writeMetrics(rec, "r1", world.Metrics{Tick: 420, Inputs: 7, Attached: true, InputLogFailures: 2}, nil)
	body := rec.Body.String()
	for _, want := range []string{
		`undercroft_tick{run="r1"} 420`,
		`undercroft_inputs_total{run="r1"} 7`,
		`undercroft_input_log_failures_total{run="r1"} 2`,
		`undercroft_session_attached{run="r1"} 1`,
		`undercroft_game_over{run="r1"} 0`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics missing %q:\n%s", want, body)
		}
	}
	if strings.Contains(body, "index_dropped") {
		t.Fatalf("index metric without an index")
	}
}

type failSink struct{}

func (failSink) WriteInput(world.InputLogEntry) error { return errors.New("disk full") }

func TestInputSinks_LogsFailuresAndKeepsWriting(t *testing.T) {
	var buf bytes.Buffer
	ok := &countSink{}
	s := inputSinks{logger: log.New(&buf, "", 0), sinks: []world.InputLogger{failSink{}, ok}}

	err := s.WriteInput(world.InputLogEntry{Input: 3})
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("err=%v", err)
	}
	if ok.n != 1 {
		t.Fatalf("second sink writes=%d", ok.n)
	}
	if got := buf.String(); !strings.Contains(got, "input log: input=3: disk full") {
		t.Fatalf("log=%q", got)
	}
}

func TestIsLoopbackRemote(t *testing.T) {
	cases := map[string]bool{
		"127.0.0.1:5555": true,
		"[::1]:80":       true,
		"10.0.0.2:80":    false,
		"garbage":        false,
	}
	for addr, want := range cases {
		if got := isLoopbackRemote(addr); got != want {
			t.Fatalf("%s: got %v", addr, got)
		}
	}
}
