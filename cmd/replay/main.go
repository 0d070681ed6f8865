package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	persistlog "clay.game/internal/persistence/log"
	"clay.game/internal/persistence/snapshot"
	"clay.game/internal/sim/catalogs"
	"clay.game/internal/sim/engine"
	"clay.game/internal/sim/state"
)

// replay loads a save and re-runs the advances logged after it, checking that
// the engine reproduces the logged rates, raid chance and efficiency. Player
// actions are not logged, so a mismatch right after one is expected.
func main() {
	var (
		savePath    = flag.String("save", "./data/save.zst", "path to save.zst")
		dataDir     = flag.String("data", "", "data dir containing advances/ (optional; default: only print the save)")
		contentPath = flag.String("content", "./configs/content.json", "content pack path")
		limit       = flag.Int("limit", 0, "stop after this many advances (0 = all)")
	)
	flag.Parse()

	saved, err := snapshot.Open(*savePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read save:", err)
		os.Exit(1)
	}
	st := saved.State
	fmt.Printf("save v%d format=%d era=%s saved=%s last_tick=%s buildings=%d projects=%d dispatches=%d events=%d content=%s\n",
		saved.Header.SaveVersion, saved.Header.Version, st.EraID, saved.Header.SavedAt.Format(time.RFC3339),
		st.LastTickAt.Format(time.RFC3339), len(st.Buildings), len(st.ActiveProjects), len(st.Dispatches),
		len(st.Events), saved.Header.CatalogDigest)

	if *dataDir == "" {
		return
	}

	cat, err := catalogs.LoadFile(*contentPath, "")
	if err != nil {
		fmt.Fprintln(os.Stderr, "load content:", err)
		os.Exit(1)
	}
	if cat.Digest != saved.Header.CatalogDigest {
		fmt.Fprintf(os.Stderr, "warning: save content %s != %s\n", saved.Header.CatalogDigest, cat.Digest)
	}

	recs, err := persistlog.ReadAdvances(*dataDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read advances:", err)
		os.Exit(1)
	}

	start := st.LastTickAt
	e := engine.New(cat, engine.Config{State: st, RNG: saved.RNG, Clock: engine.NewFakeClock(start)})

	checked, err := replay(e, recs, *limit)
	if err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}
	fmt.Printf("replay ok: checked=%d advances (from %s)\n", checked, start.Format(time.RFC3339))
}

func replay(e *engine.Engine, recs []persistlog.AdvanceRecord, limit int) (int, error) {
	start := e.State().LastTickAt
	checked := 0
	for _, rec := range recs {
		if !rec.AsOf.After(start) {
			continue
		}
		if limit > 0 && checked >= limit {
			break
		}
		e.Advance(rec.ElapsedSeconds, rec.AsOf, rec.Offline)
		d := e.Derived()
		if err := compare(rec, d); err != nil {
			return checked, fmt.Errorf("advance at %s: %w", rec.AsOf.Format(time.RFC3339), err)
		}
		checked++
	}
	return checked, nil
}

const epsilon = 1e-6

func compare(rec persistlog.AdvanceRecord, d engine.Derived) error {
	if !near(rec.RaidChance, d.Risk.RaidChancePerHour) {
		return fmt.Errorf("raid chance mismatch: got=%.6f want=%.6f", d.Risk.RaidChancePerHour, rec.RaidChance)
	}
	if !near(rec.Efficiency, d.Efficiency) {
		return fmt.Errorf("efficiency mismatch: got=%.6f want=%.6f", d.Efficiency, rec.Efficiency)
	}
	for _, id := range unionKeys(rec.RatesPerHour, d.RatesPerHour) {
		if !near(rec.RatesPerHour.Get(id), d.RatesPerHour.Get(id)) {
			return fmt.Errorf("%s rate mismatch: got=%.6f want=%.6f", id, d.RatesPerHour.Get(id), rec.RatesPerHour.Get(id))
		}
	}
	return nil
}

func near(a, b float64) bool { return math.Abs(a-b) <= epsilon }

func unionKeys(a, b state.Amounts) []string {
	m := state.Amounts{}
	for k := range a {
		m[k] = 0
	}
	for k := range b {
		m[k] = 0
	}
	return m.Keys()
}
