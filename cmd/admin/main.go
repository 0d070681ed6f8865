package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"clay.game/internal/persistence/snapshot"
	"clay.game/internal/sim/tuning"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "restore":
			restoreCmd(os.Args[2:])
			return
		case "db":
			dbCmd(os.Args[2:])
			return
		case "state":
			stateCmd(os.Args[2:])
			return
		case "save":
			saveCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

// openStore mirrors the server's store layout. Only the backup count matters
// here; the catalog digest is not checked.
func openStore(dataDir, tuningPath string) *snapshot.Store {
	tune, err := tuning.Load(tuningPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load tuning:", err)
		os.Exit(1)
	}
	return snapshot.NewStore(dataDir, tune.BackupCount, "")
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	tuningPath := fs.String("tuning", "./configs/tuning.yaml", "tuning path")
	_ = fs.Parse(args)

	store := openStore(*dataDir, *tuningPath)
	paths := append([]string{store.Path()}, store.Backups()...)
	for _, p := range paths {
		h, err := snapshot.ReadHeader(p)
		if err != nil {
			fmt.Printf("%s\terror: %v\n", filepath.Base(p), err)
			continue
		}
		fmt.Printf("%s\tsaved=%s\tsave_version=%d\tcontent=%s\n", filepath.Base(p), h.SavedAt.Format(time.RFC3339), h.SaveVersion, h.CatalogDigest)
	}
}

func restoreCmd(args []string) {
	fs := flag.NewFlagSet("restore", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	tuningPath := fs.String("tuning", "./configs/tuning.yaml", "tuning path")
	n := fs.Int("backup", 1, "backup number to restore (1 is the newest)")
	_ = fs.Parse(args)

	store := openStore(*dataDir, *tuningPath)
	if err := store.Restore(*n); err != nil {
		fmt.Fprintln(os.Stderr, "restore:", err)
		os.Exit(1)
	}
	fmt.Printf("restored backup %d to %s (stop the server first; it overwrites the save on exit)\n", *n, store.Path())
}

func saveCmd(args []string) {
	fs := flag.NewFlagSet("save", flag.ExitOnError)
	path := fs.String("path", "./data/save.zst", "save path")
	_ = fs.Parse(args)

	saved, err := snapshot.Open(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	printJSON(struct {
		Header snapshot.Header `json:"header"`
		State  any             `json:"state"`
	}{saved.Header, saved.State})
}

func printJSON(v any) {
	b, _ := json.Marshal(v)
	fmt.Println(string(b))
}
