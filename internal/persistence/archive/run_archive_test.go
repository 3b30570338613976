package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"undercroft.game/internal/persistence/snapshot"
)

func writeDummy(t *testing.T, runDir string) string {
	t.Helper()
	src := filepath.Join(runDir, "snapshots", snapshot.FileName(9))
	if err := os.MkdirAll(filepath.Dir(src), 0o755); err != nil {
		t.Fatalf("mkdir snapshots: %v", err)
	}
	if err := os.WriteFile(src, []byte("dummy"), 0o644); err != nil {
		t.Fatalf("write src: %v", err)
	}
	return src
}

func TestArchiveFinalSnapshot_CopiesFinishedRun(t *testing.T) {
	runDir := filepath.Join(t.TempDir(), "runs", "r1")
	src := writeDummy(t, runDir)

	snap := snapshot.SnapshotV1{
		Header:   snapshot.Header{Version: snapshot.Version, RunID: "r1", Level: "churchyard", Tick: 900, Inputs: 9},
		Seed:     42,
		GameOver: true,
		Actors: []snapshot.ActorV1{
			{ID: 1, Name: "Ada", Player: true},
			{ID: 2, Name: "zombie"},
		},
	}
	for i := 0; i < tailEvents+5; i++ {
		snap.Journal = append(snap.Journal, snapshot.EventV1{Tick: uint64(i), Text: fmt.Sprintf("line %d", i)})
	}

	archivedPath, ok, err := ArchiveFinalSnapshot(runDir, src, snap)
	if err != nil || !ok {
		t.Fatalf("archive: ok=%v err=%v", ok, err)
	}
	got, err := os.ReadFile(archivedPath)
	if err != nil || string(got) != "dummy" {
		t.Fatalf("archived content=%q err=%v", got, err)
	}

	b, err := os.ReadFile(filepath.Join(filepath.Dir(archivedPath), "meta.json"))
	if err != nil {
		t.Fatalf("read meta.json: %v", err)
	}
	var meta RunArchiveMeta
	if err := json.Unmarshal(b, &meta); err != nil {
		t.Fatalf("decode meta: %v", err)
	}
	if meta.Player != "Ada" || meta.EndTick != 900 || meta.Snapshot != snapshot.FileName(9) {
		t.Fatalf("meta=%+v", meta)
	}
	if len(meta.Tail) != tailEvents || meta.Tail[len(meta.Tail)-1].Text != fmt.Sprintf("line %d", tailEvents+4) {
		t.Fatalf("tail len=%d", len(meta.Tail))
	}
}

func TestArchiveFinalSnapshot_IgnoresLiveRun(t *testing.T) {
	runDir := t.TempDir()
	src := writeDummy(t, runDir)
	_, ok, err := ArchiveFinalSnapshot(runDir, src, snapshot.SnapshotV1{})
	if err != nil || ok {
		t.Fatalf("live run archived: ok=%v err=%v", ok, err)
	}
	if _, err := os.Stat(filepath.Join(runDir, "archive")); !os.IsNotExist(err) {
		t.Fatalf("archive dir created for live run")
	}
}
