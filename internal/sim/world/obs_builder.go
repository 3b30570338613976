package world

import (
	"fmt"
	"sort"

	"undercroft.game/internal/protocol"
	"undercroft.game/internal/sim/actions"
	"undercroft.game/internal/sim/grid"
	"undercroft.game/internal/sim/journal"
)

// proposalFromAct converts a wire ACT into a proposal, requiring exactly the
// parameters its kind uses.
func proposalFromAct(act protocol.ActMsg) (actions.Proposal, error) {
	p := actions.Proposal{Kind: actions.Kind(act.Kind)}
	if !p.Kind.Valid() {
		return p, fmt.Errorf("unknown action kind %q", act.Kind)
	}
	param := p.Kind.Param()
	if param == actions.ParamDir {
		d, err := grid.ParseDirection(act.Dir)
		if err != nil {
			return p, err
		}
		p.Dir = d
	}
	if param == actions.ParamTarget || param == actions.ParamIndexTarget {
		if act.Target == nil {
			return p, fmt.Errorf("%s needs a target", p.Kind)
		}
		p.Target = grid.FromArray(*act.Target)
	}
	if param == actions.ParamIndex || param == actions.ParamIndexTarget {
		if act.Index == nil {
			return p, fmt.Errorf("%s needs an index", p.Kind)
		}
		p.Index = *act.Index
	}
	return p, p.Check()
}

func (w *World) buildWelcome(sessionID string) protocol.WelcomeMsg {
	width, height := w.tiles.Size()
	return protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sessionID,
		RunID:           w.cfg.RunID,
		Level:           protocol.LevelParams{Name: w.cfg.Level, Width: width, Height: height},
		Tick:            w.tick,
		Catalogs: protocol.CatalogDigests{
			TerrainPalette: protocol.DigestRef{Digest: w.catalogs.Terrain.PaletteDigest, Count: len(w.catalogs.Terrain.Palette)},
			ItemsDigest:    w.catalogs.Items.DefsDigest,
			TemplateDigest: w.catalogs.Templates.DefsDigest,
		},
	}
}

// buildObs describes the player's field of view and drains the journal's
// unread entries.
func (w *World) buildObs() protocol.ObsMsg {
	obs := protocol.ObsMsg{
		Type:            protocol.TypeObs,
		ProtocolVersion: protocol.Version,
		Tick:            w.tick,
		GameOver:        w.gameOver,
		Tiles:           []protocol.TileObs{},
		Actors:          []protocol.ActorObs{},
		Events:          []protocol.Event{},
	}
	for _, e := range w.journal.NewEvents() {
		obs.Events = append(obs.Events, eventObs(e))
	}

	pl := w.player()
	if pl == nil {
		return obs
	}
	obs.Self = protocol.SelfObs{
		ID:        uint32(pl.ID),
		Pos:       pl.Pos.ToArray(),
		Wounds:    len(pl.Wounds),
		Shocked:   pl.Shocked,
		Inventory: itemIDs(pl.Inventory),
		Wielded:   itemIDs(pl.Wielded),
		Worn:      itemIDs(pl.Worn),
	}
	if act := pl.Pending(); act != nil {
		obs.Self.Busy = string(act.Kind())
	}

	visible := w.PlayerFOV()
	pts := make([]grid.Point, 0, len(visible))
	for p := range visible {
		pts = append(pts, p)
	}
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].Y != pts[j].Y {
			return pts[i].Y < pts[j].Y
		}
		return pts[i].X < pts[j].X
	})
	for _, p := range pts {
		if !w.tiles.In(p) {
			continue
		}
		obs.Tiles = append(obs.Tiles, protocol.TileObs{Pos: p.ToArray(), Terrain: w.tiles.TerrainAt(p), Items: itemIDs(w.tiles.Items(p))})
	}
	for _, v := range w.Actors() {
		if v.Player || !visible.Has(v.Pos) {
			continue
		}
		obs.Actors = append(obs.Actors, protocol.ActorObs{
			ID:       uint32(v.ID),
			Template: v.Template,
			Name:     v.Name,
			Pos:      v.Pos.ToArray(),
			Wounds:   v.Wounds,
			Shocked:  v.Shocked,
		})
	}
	return obs
}

func eventObs(e journal.Event) protocol.Event {
	return protocol.Event{Tick: e.Tick, Text: e.Text, Pos: e.Pos.ToArray(), Category: string(e.Category)}
}

func itemIDs(items []Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}
