package main

import (
	"database/sql"
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
	dbPath := fs.String("db", "", "sqlite db path (optional; defaults to <data>/index.sqlite)")
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
		path = filepath.Join(*dataDir, "index.sqlite")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := runQuery(db, q, *limit, *category, printJSON); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type snapshotRow struct {
	SavedAt           string `json:"saved_at"`
	Path              string `json:"path"`
	SaveVersion       int    `json:"save_version"`
	CatalogDigest     string `json:"catalog_digest"`
	EraID             string `json:"era_id"`
	Buildings         int    `json:"buildings"`
	CompletedProjects int    `json:"completed_projects"`
}

type advanceRow struct {
	Seq            int64   `json:"seq"`
	AsOf           string  `json:"as_of"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	Offline        bool    `json:"offline"`
	NewEntries     int     `json:"new_entries"`
	Efficiency     float64 `json:"efficiency"`
	RaidChance     float64 `json:"raid_chance"`
}

type eventRow struct {
	ID       string `json:"id"`
	TS       string `json:"ts"`
	Category string `json:"category"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	Severity int    `json:"severity"`
}

func runQuery(db *sql.DB, q string, limit int, category string, emit func(any)) error {
	switch q {
	case "snapshots":
		rows, err := db.Query(`SELECT saved_at,path,save_version,catalog_digest,era_id,buildings,completed_projects FROM snapshots ORDER BY saved_at DESC LIMIT ?`, limit)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var r snapshotRow
			if err := rows.Scan(&r.SavedAt, &r.Path, &r.SaveVersion, &r.CatalogDigest, &r.EraID, &r.Buildings, &r.CompletedProjects); err != nil {
				return fmt.Errorf("scan: %w", err)
			}
			emit(r)
		}
		return rows.Err()

	case "advances":
		rows, err := db.Query(`SELECT seq,as_of,elapsed_seconds,offline,new_entries,efficiency,raid_chance FROM advances ORDER BY seq DESC LIMIT ?`, limit)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var r advanceRow
			var offline int
			if err := rows.Scan(&r.Seq, &r.AsOf, &r.ElapsedSeconds, &offline, &r.NewEntries, &r.Efficiency, &r.RaidChance); err != nil {
				return fmt.Errorf("scan: %w", err)
			}
			r.Offline = offline != 0
			emit(r)
		}
		return rows.Err()

	case "events":
		query := `SELECT id,ts,category,title,message,severity FROM events`
		qargs := []any{}
		if category != "" {
			query += ` WHERE category=?`
			qargs = append(qargs, category)
		}
		query += ` ORDER BY ts DESC LIMIT ?`
		qargs = append(qargs, limit)
		rows, err := db.Query(query, qargs...)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var r eventRow
			if err := rows.Scan(&r.ID, &r.TS, &r.Category, &r.Title, &r.Message, &r.Severity); err != nil {
				return fmt.Errorf("scan: %w", err)
			}
			emit(r)
		}
		return rows.Err()
	}
	return fmt.Errorf("unknown query %q (snapshots, advances, events)", q)
}
