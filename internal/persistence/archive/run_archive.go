package archive

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"

	"undercroft.game/internal/persistence/snapshot"
)

// tailEvents is how much of the journal goes into meta.json.
const tailEvents = 20

type RunArchiveMeta struct {
	RunID     string             `json:"run_id"`
	Level     string             `json:"level"`
	EndTick   uint64             `json:"end_tick"`
	Inputs    uint64             `json:"inputs"`
	Seed      uint64             `json:"seed"`
	Snapshot  string             `json:"snapshot"`
	CreatedAt string             `json:"created_at"`
	Player    string             `json:"player,omitempty"`
	Tail      []snapshot.EventV1 `json:"tail,omitempty"`
}

// ArchiveFinalSnapshot copies the snapshot of a finished run into
// runDir/archive/ next to a meta.json with the last journal lines. Snapshots
// of runs still in progress are ignored.
func ArchiveFinalSnapshot(runDir, snapshotPath string, snap snapshot.SnapshotV1) (archivedPath string, archived bool, err error) {
	if !snap.GameOver {
		return "", false, nil
	}
	archiveDir := filepath.Join(runDir, "archive")
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return "", false, err
	}

	dst := filepath.Join(archiveDir, filepath.Base(snapshotPath))
	if err := copyFile(snapshotPath, dst); err != nil {
		return "", false, err
	}

	meta := RunArchiveMeta{
		RunID:     snap.Header.RunID,
		Level:     snap.Header.Level,
		EndTick:   snap.Header.Tick,
		Inputs:    snap.Header.Inputs,
		Seed:      snap.Seed,
		Snapshot:  filepath.Base(dst),
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	for _, a := range snap.Actors {
		if a.Player {
			meta.Player = a.Name
		}
	}
	tail := snap.Journal
	if len(tail) > tailEvents {
		tail = tail[len(tail)-tailEvents:]
	}
	meta.Tail = tail
	if b, err := json.MarshalIndent(meta, "", "  "); err == nil {
		_ = os.WriteFile(filepath.Join(archiveDir, "meta.json"), b, 0o644)
	}

	return dst, true, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
