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

	"clay.game/internal/persistence/snapshot"
	"clay.game/internal/sim/catalogs"
	"clay.game/internal/sim/engine"
	"clay.game/internal/sim/state"
	"clay.game/internal/sim/tuning"
)

// SQLiteIndex is a queryable secondary copy of what the engine reports. The
// JSONL logs remain the source of truth; writes are dropped when the writer
// goroutine falls behind.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type reqKind int

const (
	reqAdvance reqKind = iota + 1
	reqEntry
	reqSnapshot
)

type req struct {
	kind reqKind

	advance  advanceRow
	entry    state.EventLogEntry
	snapshot snapshotRow
}

type advanceRow struct {
	AsOf       string
	Elapsed    float64
	Offline    bool
	NewEntries int
	Efficiency float64
	RaidChance float64
	Raw        string
}

type snapshotRow struct {
	SavedAt       string
	Path          string
	SaveVersion   int
	CatalogDigest string
	EraID         string
	Buildings     int
	Completed     int
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
		ch: make(chan req, 65536),
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
		`CREATE TABLE IF NOT EXISTS advances (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			as_of TEXT NOT NULL,
			elapsed_seconds REAL NOT NULL,
			offline INTEGER NOT NULL,
			new_entries INTEGER NOT NULL,
			efficiency REAL NOT NULL,
			raid_chance REAL NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_advances_as_of ON advances(as_of);`,
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			ts TEXT NOT NULL,
			category TEXT NOT NULL,
			title TEXT NOT NULL,
			message TEXT NOT NULL,
			severity INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_category_ts ON events(category, ts);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			saved_at TEXT PRIMARY KEY,
			path TEXT NOT NULL,
			save_version INTEGER NOT NULL,
			catalog_digest TEXT NOT NULL,
			era_id TEXT NOT NULL,
			buildings INTEGER NOT NULL,
			completed_projects INTEGER NOT NULL
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

func (s *SQLiteIndex) enqueue(r req) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- r:
	default:
		// Drop if the indexer falls behind.
	}
}

// OnAdvance indexes the advance and the log entries it appended.
func (s *SQLiteIndex) OnAdvance(r engine.AdvanceReport) {
	raw, _ := json.Marshal(r.Derived)
	s.enqueue(req{kind: reqAdvance, advance: advanceRow{
		AsOf:       r.AsOf.UTC().Format(time.RFC3339Nano),
		Elapsed:    r.ElapsedSeconds,
		Offline:    r.Offline,
		NewEntries: len(r.NewEntries),
		Efficiency: r.Derived.Efficiency,
		RaidChance: r.Derived.Risk.RaidChancePerHour,
		Raw:        string(raw),
	}})
	for _, e := range r.NewEntries {
		s.enqueue(req{kind: reqEntry, entry: e})
	}
}

// OnNotification is a no-op; notifications are transient.
func (s *SQLiteIndex) OnNotification(engine.Notification) {}

func (s *SQLiteIndex) RecordSnapshot(path string, h snapshot.Header, st *state.GameState) {
	s.enqueue(req{kind: reqSnapshot, snapshot: snapshotRow{
		SavedAt:       h.SavedAt.UTC().Format(time.RFC3339Nano),
		Path:          path,
		SaveVersion:   h.SaveVersion,
		CatalogDigest: h.CatalogDigest,
		EraID:         st.EraID,
		Buildings:     len(st.Buildings),
		Completed:     len(st.CompletedProjectIDs),
	}})
}

// UpsertCatalog stores the content pack and the applied tuning so indexed
// rows can be tied back to the rules that produced them.
func (s *SQLiteIndex) UpsertCatalog(cat *catalogs.Catalog, tune tuning.Tuning) error {
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
	if b, err := json.Marshal(cat.Pack); err == nil {
		rows = append(rows, kv{name: "content", digest: cat.Digest, json: b})
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
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertAdvance, _ := s.db.Prepare(`INSERT INTO advances(as_of,elapsed_seconds,offline,new_entries,efficiency,raid_chance,raw_json) VALUES(?,?,?,?,?,?,?)`)
	insertEvent, _ := s.db.Prepare(`INSERT OR REPLACE INTO events(id,ts,category,title,message,severity) VALUES(?,?,?,?,?,?)`)
	insertSnapshot, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshots(saved_at,path,save_version,catalog_digest,era_id,buildings,completed_projects) VALUES(?,?,?,?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertAdvance, insertEvent, insertSnapshot} {
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
	exec := func(stmt *sql.Stmt, args ...any) {
		if stmt == nil {
			return
		}
		if _, err := tx.Stmt(stmt).Exec(args...); err != nil {
			rollback()
			return
		}
		opCount++
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqAdvance:
			a := r.advance
			exec(insertAdvance, a.AsOf, a.Elapsed, boolInt(a.Offline), a.NewEntries, a.Efficiency, a.RaidChance, a.Raw)
		case reqEntry:
			e := r.entry
			exec(insertEvent, e.ID, e.Timestamp.UTC().Format(time.RFC3339Nano), e.Category, e.Title, e.Message, e.Severity)
		case reqSnapshot:
			sn := r.snapshot
			exec(insertSnapshot, sn.SavedAt, sn.Path, sn.SaveVersion, sn.CatalogDigest, sn.EraID, sn.Buildings, sn.Completed)
		}
		if tx != nil && (opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait) {
			commit()
		}
	}

	commit()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
