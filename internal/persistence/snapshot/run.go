package snapshot

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// RunMeta is written once when a run starts fresh. With it, a run can be
// replayed from input zero without a snapshot.
type RunMeta struct {
	RunID     string `json:"run_id"`
	Level     string `json:"level"`
	LevelPath string `json:"level_path"`
	Seed      uint64 `json:"seed"`
	CreatedAt string `json:"created_at"`
}

const runMetaFile = "run.json"

func WriteRunMeta(runDir string, m RunMeta) error {
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(runDir, runMetaFile), b, 0o644)
}

func ReadRunMeta(runDir string) (RunMeta, error) {
	var m RunMeta
	b, err := os.ReadFile(filepath.Join(runDir, runMetaFile))
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("%s: %w", runMetaFile, err)
	}
	return m, nil
}

// Latest returns the snapshot under runDir/snapshots taken after the most
// inputs, or "" if there is none.
func Latest(runDir string) string { return AtOrBefore(runDir, math.MaxUint64) }

// AtOrBefore returns the latest snapshot taken after at most inputs inputs.
func AtOrBefore(runDir string, inputs uint64) string {
	dir := filepath.Join(runDir, "snapshots")
	ents, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var best string
	var bestInputs uint64
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".snap.zst") {
			continue
		}
		n, err := strconv.ParseUint(strings.TrimSuffix(name, ".snap.zst"), 10, 64)
		if err != nil || n > inputs {
			continue
		}
		if best == "" || n > bestInputs {
			bestInputs = n
			best = filepath.Join(dir, name)
		}
	}
	return best
}
