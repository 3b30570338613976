package world

import (
	"fmt"

	"undercroft.game/internal/persistence/snapshot"
	"undercroft.game/internal/sim/actions"
	"undercroft.game/internal/sim/catalogs"
	"undercroft.game/internal/sim/dice"
	"undercroft.game/internal/sim/grid"
	"undercroft.game/internal/sim/journal"
	"undercroft.game/internal/sim/tuning"
)

// FromSnapshot rebuilds a world. The catalogs must be the ones the snapshot
// was taken with.
func FromSnapshot(cats *catalogs.Catalogs, tun tuning.Tuning, s snapshot.SnapshotV1) (*World, error) {
	if s.Header.Version != snapshot.Version {
		return nil, fmt.Errorf("snapshot: unsupported version %d", s.Header.Version)
	}
	if s.PaletteDigest != cats.Terrain.PaletteDigest {
		return nil, fmt.Errorf("snapshot: terrain palette mismatch")
	}
	if s.ItemsDigest != cats.Items.DefsDigest || s.TemplatesDigest != cats.Templates.DefsDigest {
		return nil, fmt.Errorf("snapshot: catalog digest mismatch")
	}
	if err := tun.Validate(); err != nil {
		return nil, fmt.Errorf("tuning: %w", err)
	}

	w := newEmpty(Config{RunID: s.Header.RunID, Level: s.Header.Level, Seed: s.Seed}, cats, tun)
	if err := w.rng.UnmarshalBinary(s.RNG); err != nil {
		return nil, fmt.Errorf("snapshot: rng: %w", err)
	}
	w.tick = s.Header.Tick
	w.inputs = s.Header.Inputs
	w.gameOver = s.GameOver

	w.tiles.bounds(s.Width, s.Height)
	for _, c := range s.Chunks {
		if len(c.Terrain) != chunkSize*chunkSize {
			return nil, fmt.Errorf("snapshot: chunk %d,%d has %d tiles", c.CX, c.CY, len(c.Terrain))
		}
		for _, t := range c.Terrain {
			if int(t) >= len(cats.Terrain.Palette) {
				return nil, fmt.Errorf("snapshot: chunk %d,%d: terrain index %d out of palette", c.CX, c.CY, t)
			}
		}
		w.tiles.chunks[ChunkKey{CX: c.CX, CY: c.CY}] = &Chunk{CX: c.CX, CY: c.CY, Terrain: append([]uint16(nil), c.Terrain...), dirty: true}
	}
	for _, st := range s.Floor {
		w.tiles.floor[grid.FromArray(st.Pos)] = importItems(st.Items)
	}
	for _, st := range s.Buried {
		w.tiles.buried[grid.FromArray(st.Pos)] = importItems(st.Items)
	}

	for _, av := range s.Actors {
		a, err := importActor(cats, av)
		if err != nil {
			return nil, err
		}
		w.attachActor(a)
	}

	events := make([]journal.Event, 0, len(s.Journal))
	for _, e := range s.Journal {
		events = append(events, journal.Event{Tick: e.Tick, Text: e.Text, Pos: grid.FromArray(e.Pos), Category: journal.Category(e.Category)})
	}
	w.journal.Restore(events, s.JournalRead)
	return w, nil
}

func importItems(in []snapshot.ItemV1) []Item {
	if len(in) == 0 {
		return nil
	}
	out := make([]Item, 0, len(in))
	for _, it := range in {
		out = append(out, Item{ID: it.ID, Loaded: it.Loaded})
	}
	return out
}

func importActor(cats *catalogs.Catalogs, av snapshot.ActorV1) (*Actor, error) {
	def, ok := cats.Template(av.Template)
	if !ok {
		return nil, fmt.Errorf("snapshot: actor %d: unknown template %s", av.ID, av.Template)
	}
	a := &Actor{
		ID:        ActorID(av.ID),
		Template:  av.Template,
		Name:      av.Name,
		Player:    av.Player,
		Pos:       grid.FromArray(av.Pos),
		Skills:    map[string]dice.Trait{},
		Wounds:    append([]string(nil), av.Wounds...),
		Shocked:   av.Shocked,
		Inventory: importItems(av.Inventory),
		Wielded:   importItems(av.Wielded),
		Worn:      importItems(av.Worn),
		def:       def,
	}
	for k, t := range av.Skills {
		a.Skills[k] = dice.Trait{Level: dice.Level(t.Level), Bonus: t.Bonus}
	}
	for _, p := range av.Path {
		a.Path = append(a.Path, grid.FromArray(p))
	}
	if pv := av.Pending; pv != nil {
		p := actions.Proposal{
			Kind:   actions.Kind(pv.Kind),
			Dir:    grid.Direction(pv.Dir),
			Target: grid.FromArray(pv.Target),
			Index:  pv.Index,
		}
		act, err := actions.FromRecord(actions.Record{Owner: a.ID, Proposal: p, Duration: pv.Duration, Created: pv.Created})
		if err != nil {
			return nil, fmt.Errorf("snapshot: actor %d pending: %w", av.ID, err)
		}
		a.pending = &pending{action: act, started: pv.Started}
	}
	return a, nil
}
