package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

const Version = 1

type Header struct {
	Version int    `json:"version"`
	RunID   string `json:"run_id"`
	Level   string `json:"level"`
	Tick    uint64 `json:"tick"`
	Inputs  uint64 `json:"inputs"`
}

// SnapshotV1 is the full simulation state at an input boundary. Together with
// the input log it allows deterministic replay.
type SnapshotV1 struct {
	Header Header `json:"header"`

	Seed uint64 `json:"seed"`
	RNG  []byte `json:"rng"`

	// Catalog digests the snapshot was taken against.
	PaletteDigest   string `json:"palette_digest"`
	ItemsDigest     string `json:"items_digest"`
	TemplatesDigest string `json:"templates_digest"`

	Width  int `json:"width"`
	Height int `json:"height"`

	Chunks []ChunkV1 `json:"chunks"`
	Floor  []StackV1 `json:"floor,omitempty"`
	Buried []StackV1 `json:"buried,omitempty"`
	// Actors in registry insertion order.
	Actors []ActorV1 `json:"actors"`

	Journal     []EventV1 `json:"journal,omitempty"`
	JournalRead int       `json:"journal_read"`
	GameOver    bool      `json:"game_over,omitempty"`
}

type ChunkV1 struct {
	CX      int      `json:"cx"`
	CY      int      `json:"cy"`
	Terrain []uint16 `json:"terrain"`
}

type ItemV1 struct {
	ID     string `json:"id"`
	Loaded int    `json:"loaded,omitempty"`
}

type StackV1 struct {
	Pos   [2]int   `json:"pos"`
	Items []ItemV1 `json:"items"`
}

type TraitV1 struct {
	Level uint8 `json:"level"`
	Bonus int   `json:"bonus,omitempty"`
}

type ActorV1 struct {
	ID       uint32 `json:"id"`
	Template string `json:"template"`
	Name     string `json:"name"`
	Player   bool   `json:"player,omitempty"`
	Pos      [2]int `json:"pos"`

	Skills  map[string]TraitV1 `json:"skills,omitempty"`
	Wounds  []string           `json:"wounds,omitempty"`
	Shocked bool               `json:"shocked,omitempty"`

	Inventory []ItemV1 `json:"inventory,omitempty"`
	Wielded   []ItemV1 `json:"wielded,omitempty"`
	Worn      []ItemV1 `json:"worn,omitempty"`

	Path    [][2]int   `json:"path,omitempty"`
	Pending *PendingV1 `json:"pending,omitempty"`
}

type PendingV1 struct {
	Kind     string `json:"kind"`
	Dir      uint8  `json:"dir,omitempty"`
	Target   [2]int `json:"target,omitempty"`
	Index    int    `json:"index,omitempty"`
	Duration int    `json:"duration"`
	Created  uint64 `json:"created"`
	Started  bool   `json:"started,omitempty"`
}

type EventV1 struct {
	Tick     uint64 `json:"tick"`
	Text     string `json:"text"`
	Pos      [2]int `json:"pos"`
	Category string `json:"category"`
}

// FileName is the canonical file name for a snapshot taken after n inputs.
func FileName(inputs uint64) string {
	return fmt.Sprintf("%08d.snap.zst", inputs)
}

func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

// ReadHeader decodes only the JSON header line.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()

	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("decode header: %w", err)
	}
	return h, nil
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// The gob body repeats the header.
	_, _ = br.ReadBytes('\n')

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	if snap.Header.Version != Version {
		return snap, fmt.Errorf("snapshot version %d, want %d", snap.Header.Version, Version)
	}
	return snap, nil
}
