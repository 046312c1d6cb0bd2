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
	worldID := fs.String("world", "", "world id (required unless -db)")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	limit := fs.Int("limit", 20, "result limit")
	family := fs.String("family", "", "family filter (structures)")
	id := fs.String("id", "", "structure id (structure, audits)")
	cx := fs.Int("cx", 0, "chunk x (chunk)")
	cz := fs.Int("cz", 0, "chunk z (chunk)")
	_ = fs.Parse(args)

	q := "structures"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}
	if *limit <= 0 {
		*limit = 20
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		if strings.TrimSpace(*worldID) == "" {
			fmt.Fprintln(os.Stderr, "missing -world or -db")
			os.Exit(2)
		}
		path = filepath.Join(*dataDir, "worlds", *worldID, "index", "structures.sqlite")
	}
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	switch q {
	case "structures":
		query := `SELECT raw_json FROM structures ORDER BY built_at DESC LIMIT ?`
		qargs := []any{*limit}
		if f := strings.ToLower(strings.TrimSpace(*family)); f != "" {
			query = `SELECT raw_json FROM structures WHERE family=? ORDER BY built_at DESC LIMIT ?`
			qargs = []any{f, *limit}
		}
		printRawRows(db, query, qargs...)

	case "structure":
		if *id == "" {
			fmt.Fprintln(os.Stderr, "missing -id")
			os.Exit(2)
		}
		printRawRows(db, `SELECT raw_json FROM structures WHERE id=?`, *id)

	case "chunk":
		printRawRows(db, `SELECT s.raw_json FROM structure_chunks c JOIN structures s ON s.id=c.structure_id WHERE c.cx=? AND c.cz=? ORDER BY s.id`, *cx, *cz)

	case "families":
		rows, err := db.Query(`SELECT family, COUNT(*), COALESCE(SUM(pieces),0) FROM structures GROUP BY family ORDER BY family`)
		if err != nil {
			fatal("query", err)
		}
		defer rows.Close()
		for rows.Next() {
			var r struct {
				Family     string `json:"family"`
				Structures int    `json:"structures"`
				Pieces     int    `json:"pieces"`
			}
			if err := rows.Scan(&r.Family, &r.Structures, &r.Pieces); err != nil {
				fatal("scan", err)
			}
			printJSON(r)
		}
		if err := rows.Err(); err != nil {
			fatal("rows", err)
		}

	case "snapshots":
		rows, err := db.Query(`SELECT path,world_id,seed,structures,pieces,recorded_at FROM snapshots ORDER BY recorded_at DESC LIMIT ?`, *limit)
		if err != nil {
			fatal("query", err)
		}
		defer rows.Close()
		for rows.Next() {
			var r struct {
				Path       string `json:"path"`
				WorldID    string `json:"world_id"`
				Seed       int64  `json:"seed"`
				Structures int    `json:"structures"`
				Pieces     int    `json:"pieces"`
				RecordedAt string `json:"recorded_at"`
			}
			if err := rows.Scan(&r.Path, &r.WorldID, &r.Seed, &r.Structures, &r.Pieces, &r.RecordedAt); err != nil {
				fatal("scan", err)
			}
			printJSON(r)
		}
		if err := rows.Err(); err != nil {
			fatal("rows", err)
		}

	case "audits":
		query := `SELECT seq,structure_id,action,family,detail,at FROM audits ORDER BY seq DESC LIMIT ?`
		qargs := []any{*limit}
		if *id != "" {
			query = `SELECT seq,structure_id,action,family,detail,at FROM audits WHERE structure_id=? ORDER BY seq DESC LIMIT ?`
			qargs = []any{*id, *limit}
		}
		rows, err := db.Query(query, qargs...)
		if err != nil {
			fatal("query", err)
		}
		defer rows.Close()
		for rows.Next() {
			var r struct {
				Seq         int64  `json:"seq"`
				StructureID string `json:"structure_id"`
				Action      string `json:"action"`
				Family      string `json:"family"`
				Detail      string `json:"detail"`
				At          string `json:"at"`
			}
			if err := rows.Scan(&r.Seq, &r.StructureID, &r.Action, &r.Family, &r.Detail, &r.At); err != nil {
				fatal("scan", err)
			}
			printJSON(r)
		}
		if err := rows.Err(); err != nil {
			fatal("rows", err)
		}

	case "configs":
		rows, err := db.Query(`SELECT name,digest,json,updated_at FROM configs ORDER BY name`)
		if err != nil {
			fatal("query", err)
		}
		defer rows.Close()
		for rows.Next() {
			var r struct {
				Name      string          `json:"name"`
				Digest    string          `json:"digest"`
				JSON      json.RawMessage `json:"json"`
				UpdatedAt string          `json:"updated_at"`
			}
			var raw string
			if err := rows.Scan(&r.Name, &r.Digest, &raw, &r.UpdatedAt); err != nil {
				fatal("scan", err)
			}
			r.JSON = json.RawMessage(raw)
			printJSON(r)
		}
		if err := rows.Err(); err != nil {
			fatal("rows", err)
		}

	default:
		fmt.Fprintln(os.Stderr, "unknown query:", q)
		fmt.Fprintln(os.Stderr, "usage: admin db [-data ./data] [-world WORLD|-db PATH] structures|structure|chunk|families|snapshots|audits|configs")
		os.Exit(2)
	}
}

// printRawRows prints the stored JSON column of each row as one line.
func printRawRows(db *sql.DB, query string, args ...any) {
	rows, err := db.Query(query, args...)
	if err != nil {
		fatal("query", err)
	}
	defer rows.Close()
	n := 0
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			fatal("scan", err)
		}
		fmt.Println(raw)
		n++
	}
	if err := rows.Err(); err != nil {
		fatal("rows", err)
	}
	if n == 0 {
		fmt.Fprintln(os.Stderr, "no rows")
	}
}

func fatal(what string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", what, err)
	os.Exit(1)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
