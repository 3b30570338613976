package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"undercroft.game/internal/persistence/snapshot"
	"undercroft.game/internal/sim/catalogs"
	"undercroft.game/internal/sim/tuning"
	"undercroft.game/internal/sim/world"
)

// SQLiteIndex is a queryable read model of a run: inputs, journal events and
// snapshots. Writes are queued and batched by one goroutine; the JSONL input
// log and snapshot files stay the source of truth.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed  atomic.Bool
	dropped atomic.Uint64
}

type reqKind int

const (
	reqInput reqKind = iota + 1
	reqSnapshot
)

type req struct {
	kind reqKind

	input    world.InputLogEntry
	snapshot snapshotRow
}

type snapshotRow struct {
	Inputs  uint64
	Tick    uint64
	Path    string
	RunID   string
	Level   string
	Actors  int
	Floor   int
	Buried  int
	Journal int
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 16384),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS inputs (
			input INTEGER PRIMARY KEY,
			tick INTEGER NOT NULL,
			kind TEXT NOT NULL,
			ok INTEGER NOT NULL,
			digest TEXT NOT NULL,
			proposal_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_inputs_tick ON inputs(tick);`,
		`CREATE TABLE IF NOT EXISTS events (
			input INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			tick INTEGER NOT NULL,
			category TEXT NOT NULL,
			text TEXT NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			PRIMARY KEY (input, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_category_tick ON events(category, tick);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			inputs INTEGER PRIMARY KEY,
			tick INTEGER NOT NULL,
			path TEXT NOT NULL,
			run_id TEXT NOT NULL,
			level TEXT NOT NULL,
			actors INTEGER NOT NULL,
			floor_stacks INTEGER NOT NULL,
			buried_stacks INTEGER NOT NULL,
			journal INTEGER NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// Dropped reports how many writes were discarded because the queue was full.
func (s *SQLiteIndex) Dropped() uint64 { return s.dropped.Load() }

func (s *SQLiteIndex) enqueue(r req) {
	select {
	case s.ch <- r:
	default:
		s.dropped.Add(1)
	}
}

// WriteInput indexes one input log entry and its events. It never blocks the
// simulation: entries are dropped if the writer falls behind.
func (s *SQLiteIndex) WriteInput(entry world.InputLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	s.enqueue(req{kind: reqInput, input: entry})
	return nil
}

func (s *SQLiteIndex) RecordSnapshot(path string, snap snapshot.SnapshotV1) {
	if s == nil || s.closed.Load() {
		return
	}
	s.enqueue(req{kind: reqSnapshot, snapshot: snapshotRow{
		Inputs:  snap.Header.Inputs,
		Tick:    snap.Header.Tick,
		Path:    path,
		RunID:   snap.Header.RunID,
		Level:   snap.Header.Level,
		Actors:  len(snap.Actors),
		Floor:   len(snap.Floor),
		Buried:  len(snap.Buried),
		Journal: len(snap.Journal),
	}})
}

// UpsertCatalogs stores the raw catalog files and the applied tuning along
// with their digests.
func (s *SQLiteIndex) UpsertCatalogs(configDir string, cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	add := func(name, file, digest string) {
		if configDir == "" {
			return
		}
		b, err := os.ReadFile(filepath.Join(configDir, file))
		if err != nil {
			return
		}
		rows = append(rows, kv{name: name, digest: digest, json: b})
	}
	add("terrain_defs", "terrain.json", cats.Terrain.DefsDigest)
	add("items_defs", "items.json", cats.Items.DefsDigest)
	add("templates_defs", "templates.json", cats.Templates.DefsDigest)
	if b, _ := json.Marshal(cats.Terrain.Palette); len(b) > 0 {
		rows = append(rows, kv{name: "terrain_palette", digest: cats.Terrain.PaletteDigest, json: b})
	}
	{
		b, _ := json.Marshal(tune)
		sum := sha256.Sum256(b)
		rows = append(rows, kv{name: "tuning", digest: hex.EncodeToString(sum[:]), json: b})
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if r.digest == "" || len(r.json) == 0 {
			continue
		}
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertInput, _ := s.db.Prepare(`INSERT OR REPLACE INTO inputs(input,tick,kind,ok,digest,proposal_json) VALUES(?,?,?,?,?,?)`)
	insertEvent, _ := s.db.Prepare(`INSERT OR REPLACE INTO events(input,seq,tick,category,text,x,y) VALUES(?,?,?,?,?,?,?)`)
	insertSnapshot, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshots(inputs,tick,path,run_id,level,actors,floor_stacks,buried_stacks,journal) VALUES(?,?,?,?,?,?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertInput, insertEvent, insertSnapshot} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 500
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqInput:
			in := r.input
			if insertInput == nil {
				break
			}
			b, _ := json.Marshal(in.Proposal)
			if _, err := tx.Stmt(insertInput).Exec(
				int64(in.Input),
				int64(in.Tick),
				string(in.Proposal.Kind),
				in.OK,
				in.Digest,
				string(b),
			); err != nil {
				rollback()
				continue
			}
			opCount++
			for i, ev := range in.Events {
				if insertEvent == nil {
					break
				}
				if _, err := tx.Stmt(insertEvent).Exec(
					int64(in.Input),
					i,
					int64(ev.Tick),
					string(ev.Category),
					ev.Text,
					ev.Pos.X,
					ev.Pos.Y,
				); err != nil {
					rollback()
					break
				}
				opCount++
			}

		case reqSnapshot:
			sn := r.snapshot
			if insertSnapshot == nil {
				break
			}
			if _, err := tx.Stmt(insertSnapshot).Exec(
				int64(sn.Inputs),
				int64(sn.Tick),
				sn.Path,
				sn.RunID,
				sn.Level,
				sn.Actors,
				sn.Floor,
				sn.Buried,
				sn.Journal,
			); err != nil {
				rollback()
				continue
			}
			opCount++
		}
		if tx != nil && (opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait) {
			commit()
		}
	}

	commit()
}
