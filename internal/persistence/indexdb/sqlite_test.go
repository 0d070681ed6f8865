package indexdb

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"clay.game/internal/persistence/snapshot"
	"clay.game/internal/sim/catalogs"
	"clay.game/internal/sim/engine"
	"clay.game/internal/sim/state"
	"clay.game/internal/sim/tuning"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func openTemp(t *testing.T) (*SQLiteIndex, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.db")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	return idx, path
}

func reopen(t *testing.T, path string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSQLiteIndex_AdvancesAndEvents(t *testing.T) {
	idx, path := openTemp(t)
	var _ engine.Observer = idx

	idx.OnAdvance(engine.AdvanceReport{
		ElapsedSeconds: 3600,
		AsOf:           t0,
		Offline:        true,
		NewEntries: []state.EventLogEntry{
			{ID: "e1", Timestamp: t0, Category: "raid", Title: "Raid", Message: "Raiders struck.", Severity: 1},
			{ID: "e2", Timestamp: t0, Category: "project", Title: "Project Complete", Severity: 1},
		},
		Derived: engine.Derived{Efficiency: 0.75},
	})
	idx.OnNotification(engine.Notification{ID: "n1", Message: "ignored"})
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db := reopen(t, path)
	var (
		elapsed    float64
		offline    int
		entries    int
		efficiency float64
	)
	if err := db.QueryRow(`SELECT elapsed_seconds,offline,new_entries,efficiency FROM advances`).Scan(&elapsed, &offline, &entries, &efficiency); err != nil {
		t.Fatalf("Scan advance: %v", err)
	}
	if elapsed != 3600 || offline != 1 || entries != 2 || efficiency != 0.75 {
		t.Fatalf("advance row mismatch: %v %v %v %v", elapsed, offline, entries, efficiency)
	}
	var raids int
	if err := db.QueryRow(`SELECT COUNT(*) FROM events WHERE category='raid'`).Scan(&raids); err != nil {
		t.Fatalf("Scan events: %v", err)
	}
	if raids != 1 {
		t.Fatalf("raid rows: %d", raids)
	}
}

func TestSQLiteIndex_RecordSnapshotAndCatalog(t *testing.T) {
	idx, path := openTemp(t)
	cat, err := catalogs.New(catalogs.Pack{
		Resources: []catalogs.ResourceDef{{ID: "food", Name: "Food"}},
		Eras:      []catalogs.EraDef{{ID: "stone", Name: "Stone"}},
	})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if err := idx.UpsertCatalog(cat, tuning.Defaults()); err != nil {
		t.Fatalf("UpsertCatalog: %v", err)
	}
	st := &state.GameState{EraID: "bronze", CompletedProjectIDs: []string{"fire", "wheel"}, Buildings: []state.BuildingInstance{{ID: "b1"}}}
	idx.RecordSnapshot("/data/save.zst", snapshot.Header{SavedAt: t0, SaveVersion: 7, CatalogDigest: cat.Digest}, st)
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	idx.RecordSnapshot("/ignored", snapshot.Header{}, st)

	db := reopen(t, path)
	var (
		era       string
		buildings int
		completed int
		digest    string
	)
	if err := db.QueryRow(`SELECT era_id,buildings,completed_projects,catalog_digest FROM snapshots`).Scan(&era, &buildings, &completed, &digest); err != nil {
		t.Fatalf("Scan snapshot: %v", err)
	}
	if era != "bronze" || buildings != 1 || completed != 2 || digest != cat.Digest {
		t.Fatalf("snapshot row mismatch: %s %d %d %s", era, buildings, completed, digest)
	}
	var stored string
	if err := db.QueryRow(`SELECT digest FROM catalogs WHERE name='content'`).Scan(&stored); err != nil {
		t.Fatalf("Scan catalog: %v", err)
	}
	if stored != cat.Digest {
		t.Fatalf("catalog digest: %s", stored)
	}
}
