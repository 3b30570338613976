package indexdb

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"undercroft.game/internal/persistence/snapshot"
	"undercroft.game/internal/sim/actions"
	"undercroft.game/internal/sim/catalogs"
	"undercroft.game/internal/sim/grid"
	"undercroft.game/internal/sim/journal"
	"undercroft.game/internal/sim/tuning"
	"undercroft.game/internal/sim/world"
)

func openDB(t *testing.T, path string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSQLiteIndex_WriteInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	_ = idx.WriteInput(world.InputLogEntry{
		Input:    1,
		Proposal: actions.Walk(grid.East),
		OK:       true,
		Tick:     100,
		Digest:   "d1",
	})
	_ = idx.WriteInput(world.InputLogEntry{
		Input:    2,
		Proposal: actions.At(actions.KindMelee, grid.P(3, 1)),
		OK:       true,
		Tick:     220,
		Digest:   "d2",
		Events: []journal.Event{
			{Tick: 200, Text: "You hit the zombie.", Pos: grid.P(3, 1), Category: journal.Combat},
			{Tick: 220, Text: "The zombie is destroyed.", Pos: grid.P(3, 1), Category: journal.Combat},
		},
	})
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := idx.WriteInput(world.InputLogEntry{Input: 3}); err != nil {
		t.Fatalf("write after close: %v", err)
	}

	db := openDB(t, path)
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM inputs`).Scan(&n); err != nil || n != 2 {
		t.Fatalf("inputs count=%d err=%v", n, err)
	}
	var (
		kind   string
		ok     bool
		digest string
		prop   string
	)
	row := db.QueryRow(`SELECT kind,ok,digest,proposal_json FROM inputs WHERE input=2`)
	if err := row.Scan(&kind, &ok, &digest, &prop); err != nil {
		t.Fatalf("scan input: %v", err)
	}
	if kind != "MELEE" || !ok || digest != "d2" || prop == "" {
		t.Fatalf("input 2: kind=%q ok=%v digest=%q json=%q", kind, ok, digest, prop)
	}

	rows, err := db.Query(`SELECT seq,tick,text,x,y FROM events WHERE input=2 AND category='combat' ORDER BY seq`)
	if err != nil {
		t.Fatalf("query events: %v", err)
	}
	defer rows.Close()
	var ticks []int64
	for rows.Next() {
		var (
			seq  int
			tick int64
			text string
			x, y int
		)
		if err := rows.Scan(&seq, &tick, &text, &x, &y); err != nil {
			t.Fatalf("scan event: %v", err)
		}
		if seq != len(ticks) || x != 3 || y != 1 {
			t.Fatalf("event seq=%d pos=%d,%d", seq, x, y)
		}
		ticks = append(ticks, tick)
	}
	if len(ticks) != 2 || ticks[0] != 200 || ticks[1] != 220 {
		t.Fatalf("event ticks=%v", ticks)
	}
}

func TestSQLiteIndex_RecordSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	snap := snapshot.SnapshotV1{
		Header: snapshot.Header{Version: snapshot.Version, RunID: "r1", Level: "churchyard", Tick: 4200, Inputs: 50},
		Actors: make([]snapshot.ActorV1, 3),
		Floor:  make([]snapshot.StackV1, 2),
	}
	idx.RecordSnapshot("/runs/r1/snapshots/00000050.snap.zst", snap)
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db := openDB(t, path)
	var (
		tick   int64
		p      string
		level  string
		actors int
		floor  int
		buried int
	)
	row := db.QueryRow(`SELECT tick,path,level,actors,floor_stacks,buried_stacks FROM snapshots WHERE inputs=50`)
	if err := row.Scan(&tick, &p, &level, &actors, &floor, &buried); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if tick != 4200 || p != "/runs/r1/snapshots/00000050.snap.zst" || level != "churchyard" || actors != 3 || floor != 2 || buried != 0 {
		t.Fatalf("row mismatch: tick=%d path=%q level=%q actors=%d floor=%d buried=%d", tick, p, level, actors, floor, buried)
	}
}

func TestSQLiteIndex_UpsertCatalogs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer idx.Close()

	cats, err := catalogs.Load("../../../configs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	if err := idx.UpsertCatalogs("../../../configs", cats, tuning.Defaults()); err != nil {
		t.Fatalf("UpsertCatalogs: %v", err)
	}
	// Twice is fine.
	if err := idx.UpsertCatalogs("../../../configs", cats, tuning.Defaults()); err != nil {
		t.Fatalf("UpsertCatalogs again: %v", err)
	}

	var digest string
	if err := idx.db.QueryRow(`SELECT digest FROM catalogs WHERE name='items_defs'`).Scan(&digest); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if digest != cats.Items.DefsDigest {
		t.Fatalf("items digest=%q want %q", digest, cats.Items.DefsDigest)
	}
	var n int
	if err := idx.db.QueryRow(`SELECT COUNT(*) FROM catalogs`).Scan(&n); err != nil || n != 5 {
		t.Fatalf("catalog rows=%d err=%v", n, err)
	}
}
