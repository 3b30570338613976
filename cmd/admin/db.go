package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	runID := fs.String("run", "", "run id (required unless -db)")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	since := fs.Uint64("since_input", 0, "only rows after this input (inputs, events)")
	limit := fs.Int("limit", 20, "result limit")
	category := fs.String("category", "", "category filter (events)")
	_ = fs.Parse(args)

	q := "snapshots"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}
	if *limit <= 0 {
		*limit = 20
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		if strings.TrimSpace(*runID) == "" {
			fmt.Fprintln(os.Stderr, "missing -run or -db")
			os.Exit(2)
		}
		path = filepath.Join(*dataDir, "runs", *runID, "index", "run.sqlite")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	var rows []any
	switch q {
	case "snapshots":
		rows, err = querySnapshots(db, *limit)
	case "inputs":
		rows, err = queryInputs(db, *since, *limit)
	case "events":
		rows, err = queryEvents(db, *since, strings.TrimSpace(*category), *limit)
	case "catalogs":
		rows, err = queryCatalogs(db)
	default:
		fmt.Fprintln(os.Stderr, "unknown query:", q)
		fmt.Fprintln(os.Stderr, "usage: admin db [-data ./data] [-run RUN|-db PATH] snapshots|inputs|events|catalogs")
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	for _, r := range rows {
		printJSON(r)
	}
}

type snapshotRow struct {
	Inputs       uint64 `json:"inputs"`
	Tick         uint64 `json:"tick"`
	Path         string `json:"path"`
	Actors       int    `json:"actors"`
	FloorStacks  int    `json:"floor_stacks"`
	BuriedStacks int    `json:"buried_stacks"`
	Journal      int    `json:"journal"`
}

func querySnapshots(db *sql.DB, limit int) ([]any, error) {
	rows, err := db.Query(`SELECT inputs,tick,path,actors,floor_stacks,buried_stacks,journal FROM snapshots ORDER BY inputs DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []any
	for rows.Next() {
		var r snapshotRow
		if err := rows.Scan(&r.Inputs, &r.Tick, &r.Path, &r.Actors, &r.FloorStacks, &r.BuriedStacks, &r.Journal); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type inputRow struct {
	Input    uint64          `json:"input"`
	Tick     uint64          `json:"tick"`
	Kind     string          `json:"kind"`
	OK       bool            `json:"ok"`
	Digest   string          `json:"digest"`
	Proposal json.RawMessage `json:"proposal"`
}

func queryInputs(db *sql.DB, since uint64, limit int) ([]any, error) {
	rows, err := db.Query(`SELECT input,tick,kind,ok,digest,proposal_json FROM inputs WHERE input>? ORDER BY input LIMIT ?`, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []any
	for rows.Next() {
		var r inputRow
		var ok int
		var prop string
		if err := rows.Scan(&r.Input, &r.Tick, &r.Kind, &ok, &r.Digest, &prop); err != nil {
			return nil, err
		}
		r.OK = ok != 0
		r.Proposal = json.RawMessage(prop)
		out = append(out, r)
	}
	return out, rows.Err()
}

type eventRow struct {
	Input    uint64 `json:"input"`
	Tick     uint64 `json:"tick"`
	Category string `json:"category"`
	Text     string `json:"text"`
	Pos      [2]int `json:"pos"`
}

func queryEvents(db *sql.DB, since uint64, category string, limit int) ([]any, error) {
	q := `SELECT input,tick,category,text,x,y FROM events WHERE input>? ORDER BY input,seq LIMIT ?`
	args := []any{since, limit}
	if category != "" {
		q = `SELECT input,tick,category,text,x,y FROM events WHERE input>? AND category=? ORDER BY input,seq LIMIT ?`
		args = []any{since, category, limit}
	}
	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []any
	for rows.Next() {
		var r eventRow
		if err := rows.Scan(&r.Input, &r.Tick, &r.Category, &r.Text, &r.Pos[0], &r.Pos[1]); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type catalogRow struct {
	Name      string `json:"name"`
	Digest    string `json:"digest"`
	UpdatedAt string `json:"updated_at"`
}

func queryCatalogs(db *sql.DB) ([]any, error) {
	rows, err := db.Query(`SELECT name,digest,updated_at FROM catalogs ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []any
	for rows.Next() {
		var r catalogRow
		if err := rows.Scan(&r.Name, &r.Digest, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
