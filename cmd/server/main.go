package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"clay.game/internal/persistence/indexdb"
	persistlog "clay.game/internal/persistence/log"
	"clay.game/internal/persistence/snapshot"
	"clay.game/internal/sim/catalogs"
	"clay.game/internal/sim/driver"
	"clay.game/internal/sim/engine"
	"clay.game/internal/sim/state"
	"clay.game/internal/sim/tuning"
	"clay.game/internal/transport/observer"
)

func main() {
	var (
		addr        = flag.String("addr", ":8080", "http listen address")
		contentPath = flag.String("content", "./configs/content.json", "content pack path")
		schemaPath  = flag.String("schema", "./schemas/content.schema.json", "content schema path (empty to skip schema validation)")
		tuningPath  = flag.String("tuning", "./configs/tuning.yaml", "tuning path (empty for defaults)")
		dataDir     = flag.String("data", "./data", "runtime data directory")
		seed        = flag.Uint64("seed", 1337, "rng seed (used only when starting a fresh game)")
		useIndex    = flag.Bool("index", true, "maintain the sqlite read-model index")
		logDir      = flag.String("log_dir", "", "advance/event log directory (default: <data>/logs)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cat, err := catalogs.LoadFile(*contentPath, *schemaPath)
	if err != nil {
		logger.Fatalf("load content: %v", err)
	}
	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		logger.Fatalf("load tuning: %v", err)
	}
	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		logger.Fatalf("data dir: %v", err)
	}

	store := snapshot.NewStore(*dataDir, tune.BackupCount, cat.Digest)
	saved, err := store.Load()
	if err != nil {
		logger.Fatalf("load save: %v", err)
	}

	cfg := engine.Config{Seed: *seed, Tuning: tune}
	if saved != nil {
		if !store.DigestMatches(saved.Header) {
			logger.Printf("save was written against content %s, running %s; migrating", saved.Header.CatalogDigest, cat.Digest)
		}
		cfg.State = saved.State
		cfg.RNG = saved.RNG
		logger.Printf("resumed save v%d written at %s", saved.Header.SaveVersion, saved.Header.SavedAt.Format(time.RFC3339))
	} else {
		logger.Printf("no save found in %s; starting fresh with seed %d", *dataDir, *seed)
	}
	eng := engine.New(cat, cfg)

	ld := *logDir
	if ld == "" {
		ld = filepath.Join(*dataDir, "logs")
	}
	rec := persistlog.NewRecorder(ld)
	rec.OnError = func(err error) { logger.Printf("log write: %v", err) }
	defer rec.Close()
	eng.Subscribe(rec)

	hub := observer.NewHub()
	eng.Subscribe(hub)

	var idx *indexdb.SQLiteIndex
	if *useIndex {
		idx, err = indexdb.OpenSQLite(filepath.Join(*dataDir, "index.sqlite"))
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer idx.Close()
		if err := idx.UpsertCatalog(cat, tune); err != nil {
			logger.Printf("index: upsert catalog: %v", err)
		}
		eng.Subscribe(idx)
	}

	d := driver.New(driver.Config{
		Engine: eng,
		Tuning: tune,
		Saver:  store,
		Logger: log.New(os.Stdout, "[driver] ", log.LstdFlags|log.Lmicroseconds),
		OnSaved: func(h snapshot.Header, st *state.GameState) {
			if idx != nil {
				idx.RecordSnapshot(store.Path(), h, st)
			}
		},
	})

	ctx, cancel := signalContext()
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- d.Run(ctx) }()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", metricsHandler(d))
	observer.NewServer(d, hub, log.New(os.Stdout, "[observer] ", log.LstdFlags|log.Lmicroseconds)).Routes(mux)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s (content %s)", *addr, cat.Digest)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Printf("ListenAndServe: %v", err)
		cancel()
	}

	// Run performs the final save before returning.
	if err := <-runErr; err != nil && !errors.Is(err, context.Canceled) {
		logger.Printf("driver stopped: %v", err)
	}
}

func metricsHandler(d *driver.Driver) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		var (
			st      *state.GameState
			derived engine.Derived
			cat     *catalogs.Catalog
		)
		err := d.Do(r.Context(), func(e *engine.Engine) {
			st, _ = e.Snapshot()
			derived = e.Derived()
			cat = e.Catalog()
		})
		if err != nil {
			http.Error(rw, err.Error(), http.StatusServiceUnavailable)
			return
		}

		// Minimal Prometheus exposition format.
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		fmt.Fprintf(rw, "# HELP clay_resource_amount Current stock per resource.\n")
		fmt.Fprintf(rw, "# TYPE clay_resource_amount gauge\n")
		for _, res := range cat.Resources() {
			fmt.Fprintf(rw, "clay_resource_amount{resource=%q} %.3f\n", res.ID, st.Resources[res.ID].Amount)
		}
		fmt.Fprintf(rw, "# HELP clay_resource_rate_per_hour Net production per hour.\n")
		fmt.Fprintf(rw, "# TYPE clay_resource_rate_per_hour gauge\n")
		for _, res := range cat.Resources() {
			fmt.Fprintf(rw, "clay_resource_rate_per_hour{resource=%q} %.3f\n", res.ID, derived.RatesPerHour[res.ID])
		}

		fmt.Fprintf(rw, "# HELP clay_crew Crew counts.\n")
		fmt.Fprintf(rw, "# TYPE clay_crew gauge\n")
		fmt.Fprintf(rw, "clay_crew{state=%q} %d\n", "active", derived.ActiveCrew)
		fmt.Fprintf(rw, "clay_crew{state=%q} %d\n", "available", derived.AvailableCrew)

		fmt.Fprintf(rw, "# HELP clay_active_projects Projects in progress.\n")
		fmt.Fprintf(rw, "# TYPE clay_active_projects gauge\n")
		fmt.Fprintf(rw, "clay_active_projects %d\n", len(st.ActiveProjects))

		fmt.Fprintf(rw, "# HELP clay_raid_chance_per_hour Current raid chance per hour.\n")
		fmt.Fprintf(rw, "# TYPE clay_raid_chance_per_hour gauge\n")
		fmt.Fprintf(rw, "clay_raid_chance_per_hour %.6f\n", derived.Risk.RaidChancePerHour)

		fmt.Fprintf(rw, "# HELP clay_efficiency Average building efficiency (0..1).\n")
		fmt.Fprintf(rw, "# TYPE clay_efficiency gauge\n")
		fmt.Fprintf(rw, "clay_efficiency %.6f\n", derived.Efficiency)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
