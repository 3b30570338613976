package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sort"

	"undercroft.game/internal/sim/grid"
)

type hashWriter interface {
	Write(p []byte) (n int, err error)
}

func digestWriteU64(h hashWriter, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteI64(h hashWriter, tmp *[8]byte, v int64) {
	digestWriteU64(h, tmp, uint64(v))
}

func digestWriteString(h hashWriter, tmp *[8]byte, s string) {
	digestWriteU64(h, tmp, uint64(len(s)))
	h.Write([]byte(s))
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// StateDigest hashes everything that influences future simulation: tick,
// random state, terrain, items and actors with their pending actions. The
// journal and planner-independent caches are left out.
func (w *World) StateDigest() string {
	h := sha256.New()
	var tmp [8]byte

	digestWriteU64(h, &tmp, w.tick)
	digestWriteU64(h, &tmp, w.cfg.Seed)
	if rs, err := w.rng.MarshalBinary(); err == nil {
		h.Write(rs)
	}
	h.Write([]byte{boolByte(w.gameOver)})

	w.digestTiles(h, &tmp)
	w.digestActors(h, &tmp)
	return hex.EncodeToString(h.Sum(nil))
}

func (w *World) digestTiles(h hashWriter, tmp *[8]byte) {
	for _, k := range w.tiles.LoadedChunkKeys() {
		digestWriteI64(h, tmp, int64(k.CX))
		digestWriteI64(h, tmp, int64(k.CY))
		d := w.tiles.chunks[k].Digest()
		h.Write(d[:])
	}
	for _, stacks := range []map[grid.Point][]Item{w.tiles.floor, w.tiles.buried} {
		pts := sortedPoints(stacks)
		digestWriteU64(h, tmp, uint64(len(pts)))
		for _, p := range pts {
			digestWriteI64(h, tmp, int64(p.X))
			digestWriteI64(h, tmp, int64(p.Y))
			digestItems(h, tmp, stacks[p])
		}
	}
}

func digestItems(h hashWriter, tmp *[8]byte, items []Item) {
	digestWriteU64(h, tmp, uint64(len(items)))
	for _, it := range items {
		digestWriteString(h, tmp, it.ID)
		digestWriteI64(h, tmp, int64(it.Loaded))
	}
}

// digestActors walks the registry in insertion order, which is part of the
// state: it decides execution order.
func (w *World) digestActors(h hashWriter, tmp *[8]byte) {
	digestWriteU64(h, tmp, uint64(len(w.actors)))
	for _, a := range w.actors {
		digestWriteU64(h, tmp, uint64(a.ID))
		digestWriteString(h, tmp, a.Template)
		digestWriteI64(h, tmp, int64(a.Pos.X))
		digestWriteI64(h, tmp, int64(a.Pos.Y))
		h.Write([]byte{boolByte(a.Player), boolByte(a.Shocked)})

		skills := make([]string, 0, len(a.Skills))
		for k := range a.Skills {
			skills = append(skills, k)
		}
		sort.Strings(skills)
		for _, k := range skills {
			digestWriteString(h, tmp, k)
			digestWriteU64(h, tmp, uint64(a.Skills[k].Level))
			digestWriteI64(h, tmp, int64(a.Skills[k].Bonus))
		}

		digestWriteU64(h, tmp, uint64(len(a.Wounds)))
		for _, loc := range a.Wounds {
			digestWriteString(h, tmp, loc)
		}
		digestItems(h, tmp, a.Inventory)
		digestItems(h, tmp, a.Wielded)
		digestItems(h, tmp, a.Worn)

		digestWriteU64(h, tmp, uint64(len(a.Path)))
		for _, p := range a.Path {
			digestWriteI64(h, tmp, int64(p.X))
			digestWriteI64(h, tmp, int64(p.Y))
		}

		if a.pending == nil {
			h.Write([]byte{0})
			continue
		}
		act := a.pending.action
		p := act.Proposal()
		h.Write([]byte{1, boolByte(a.pending.started), byte(p.Dir)})
		digestWriteString(h, tmp, string(p.Kind))
		digestWriteI64(h, tmp, int64(p.Target.X))
		digestWriteI64(h, tmp, int64(p.Target.Y))
		digestWriteI64(h, tmp, int64(p.Index))
		digestWriteU64(h, tmp, uint64(act.Duration()))
		digestWriteU64(h, tmp, act.Created())
	}
}
