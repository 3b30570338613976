package world

import (
	"sort"

	"undercroft.game/internal/persistence/snapshot"
	"undercroft.game/internal/sim/grid"
)

// ExportSnapshot captures the full world state. Actors keep registry order.
func (w *World) ExportSnapshot() snapshot.SnapshotV1 {
	rs, err := w.rng.MarshalBinary()
	if err != nil {
		panic("world: marshal rng: " + err.Error())
	}
	s := snapshot.SnapshotV1{
		Header: snapshot.Header{
			Version: snapshot.Version,
			RunID:   w.cfg.RunID,
			Level:   w.cfg.Level,
			Tick:    w.tick,
			Inputs:  w.inputs,
		},
		Seed:            w.cfg.Seed,
		RNG:             rs,
		PaletteDigest:   w.catalogs.Terrain.PaletteDigest,
		ItemsDigest:     w.catalogs.Items.DefsDigest,
		TemplatesDigest: w.catalogs.Templates.DefsDigest,
		JournalRead:     w.journal.Offset(),
		GameOver:        w.gameOver,
	}
	s.Width, s.Height = w.tiles.Size()

	for _, k := range w.tiles.LoadedChunkKeys() {
		ch := w.tiles.chunks[k]
		s.Chunks = append(s.Chunks, snapshot.ChunkV1{CX: k.CX, CY: k.CY, Terrain: append([]uint16(nil), ch.Terrain...)})
	}
	s.Floor = exportStacks(w.tiles.floor)
	s.Buried = exportStacks(w.tiles.buried)

	for _, a := range w.actors {
		s.Actors = append(s.Actors, exportActor(a))
	}
	for _, e := range w.journal.Since(0) {
		s.Journal = append(s.Journal, snapshot.EventV1{Tick: e.Tick, Text: e.Text, Pos: e.Pos.ToArray(), Category: string(e.Category)})
	}
	return s
}

func exportStacks(m map[grid.Point][]Item) []snapshot.StackV1 {
	var out []snapshot.StackV1
	for _, p := range sortedPoints(m) {
		out = append(out, snapshot.StackV1{Pos: p.ToArray(), Items: exportItems(m[p])})
	}
	return out
}

func exportItems(items []Item) []snapshot.ItemV1 {
	if len(items) == 0 {
		return nil
	}
	out := make([]snapshot.ItemV1, 0, len(items))
	for _, it := range items {
		out = append(out, snapshot.ItemV1{ID: it.ID, Loaded: it.Loaded})
	}
	return out
}

func exportActor(a *Actor) snapshot.ActorV1 {
	av := snapshot.ActorV1{
		ID:        uint32(a.ID),
		Template:  a.Template,
		Name:      a.Name,
		Player:    a.Player,
		Pos:       a.Pos.ToArray(),
		Wounds:    append([]string(nil), a.Wounds...),
		Shocked:   a.Shocked,
		Inventory: exportItems(a.Inventory),
		Wielded:   exportItems(a.Wielded),
		Worn:      exportItems(a.Worn),
	}
	if len(a.Skills) > 0 {
		keys := make([]string, 0, len(a.Skills))
		for k := range a.Skills {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		av.Skills = make(map[string]snapshot.TraitV1, len(keys))
		for _, k := range keys {
			t := a.Skills[k]
			av.Skills[k] = snapshot.TraitV1{Level: uint8(t.Level), Bonus: t.Bonus}
		}
	}
	for _, p := range a.Path {
		av.Path = append(av.Path, p.ToArray())
	}
	if a.pending != nil {
		act := a.pending.action
		p := act.Proposal()
		av.Pending = &snapshot.PendingV1{
			Kind:     string(p.Kind),
			Dir:      uint8(p.Dir),
			Target:   p.Target.ToArray(),
			Index:    p.Index,
			Duration: act.Duration(),
			Created:  act.Created(),
			Started:  a.pending.started,
		}
	}
	return av
}
