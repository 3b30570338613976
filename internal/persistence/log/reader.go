package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/klauspost/compress/zstd"

	"undercroft.game/internal/sim/world"
)

// ReadJSONL decodes every line of the prefix-*.jsonl.zst files under dir in
// file name order and hands each raw line to fn.
func ReadJSONL(dir, prefix string, fn func(line []byte) error) error {
	files, err := filepath.Glob(filepath.Join(dir, prefix+"-*.jsonl.zst"))
	if err != nil {
		return err
	}
	sort.Strings(files)
	for _, path := range files {
		if err := readFile(path, fn); err != nil {
			return fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
	}
	return nil
}

func readFile(path string, fn func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for sc.Scan() {
		if len(sc.Bytes()) == 0 {
			continue
		}
		if err := fn(sc.Bytes()); err != nil {
			return err
		}
	}
	return sc.Err()
}

// ReadInputs returns the input log of a run directory ordered by input
// number, starting after the given input.
func ReadInputs(runDir string, after uint64) ([]world.InputLogEntry, error) {
	var out []world.InputLogEntry
	err := ReadJSONL(filepath.Join(runDir, "inputs"), "inputs", func(line []byte) error {
		var e world.InputLogEntry
		if err := json.Unmarshal(line, &e); err != nil {
			return err
		}
		if e.Input > after {
			out = append(out, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Input < out[j].Input })
	return out, nil
}
