package log

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"clay.game/internal/sim/engine"
	"clay.game/internal/sim/state"
)

func TestReadAdvances_AcrossHours(t *testing.T) {
	dir := t.TempDir()
	l := NewAdvanceLogger(dir)
	now := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	l.w.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		err := l.WriteAdvance(engine.AdvanceReport{
			ElapsedSeconds: float64(i + 1),
			AsOf:           now,
			Derived:        engine.Derived{RatesPerHour: state.Amounts{"food": float64(i)}},
		})
		if err != nil {
			t.Fatalf("write: %v", err)
		}
		now = now.Add(45 * time.Minute)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	// Unrelated files are ignored.
	if err := os.WriteFile(filepath.Join(dir, "advances", "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	recs, err := ReadAdvances(dir)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("records: %d", len(recs))
	}
	for i, r := range recs {
		if r.ElapsedSeconds != float64(i+1) || r.RatesPerHour.Get("food") != float64(i) {
			t.Fatalf("record %d: %+v", i, r)
		}
	}
}

func TestReadAdvances_MissingDir(t *testing.T) {
	if _, err := ReadAdvances(t.TempDir()); err == nil {
		t.Fatalf("expected error for missing advances dir")
	}
}
