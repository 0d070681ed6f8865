package log

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"

	"clay.game/internal/sim/engine"
	"clay.game/internal/sim/state"
)

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("zstd: %v", err)
	}
	defer dec.Close()
	var out []map[string]any
	sc := bufio.NewScanner(dec)
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("line: %v", err)
		}
		out = append(out, m)
	}
	return out
}

func TestJSONLZstdWriter_RotatesHourly(t *testing.T) {
	dir := t.TempDir()
	w := NewJSONLZstdWriter(dir, "x")
	now := time.Date(2025, 3, 1, 12, 59, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	if err := w.Write(map[string]int{"n": 1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if err := w.Write(map[string]int{"n": 2}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	first := readLines(t, filepath.Join(dir, "x-2025-03-01-12.jsonl.zst"))
	second := readLines(t, filepath.Join(dir, "x-2025-03-01-13.jsonl.zst"))
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("lines: %d / %d", len(first), len(second))
	}
	if second[0]["n"].(float64) != 2 {
		t.Fatalf("second file: %v", second[0])
	}
}

func TestRecorder_WritesAdvancesAndEntries(t *testing.T) {
	dir := t.TempDir()
	rec := NewRecorder(dir)
	fixed := func() time.Time { return time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC) }
	rec.Advances.w.now = fixed
	rec.Events.w.now = fixed
	var errs []error
	rec.OnError = func(err error) { errs = append(errs, err) }

	var _ engine.Observer = rec
	rec.OnAdvance(engine.AdvanceReport{
		ElapsedSeconds: 60,
		AsOf:           fixed(),
		NewEntries: []state.EventLogEntry{
			{ID: "a", Title: "Raid", Category: "raid"},
			{ID: "b", Title: "Project Complete", Category: "project"},
		},
		Derived: engine.Derived{Efficiency: 0.9, RatesPerHour: state.Amounts{"food": 12}},
	})
	rec.OnNotification(engine.Notification{ID: "n1", Message: "Hello", Style: engine.StyleInfo})
	if err := rec.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if len(errs) != 0 {
		t.Fatalf("errors: %v", errs)
	}

	adv := readLines(t, filepath.Join(dir, "advances", "advances-2025-03-01-08.jsonl.zst"))
	if len(adv) != 1 || adv[0]["new_entries"].(float64) != 2 || adv[0]["efficiency"].(float64) != 0.9 {
		t.Fatalf("advance lines: %v", adv)
	}
	ev := readLines(t, filepath.Join(dir, "events", "events-2025-03-01-08.jsonl.zst"))
	if len(ev) != 3 {
		t.Fatalf("event lines: %v", ev)
	}
	if ev[0]["kind"] != "entry" || ev[2]["kind"] != "notification" {
		t.Fatalf("kinds: %v", ev)
	}
}
