package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"clay.game/internal/sim/engine"
	"clay.game/internal/sim/state"
)

type JSONLZstdWriter struct {
	baseDir string
	prefix  string
	now     func() time.Time

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewJSONLZstdWriter(baseDir, prefix string) *JSONLZstdWriter {
	return &JSONLZstdWriter{
		baseDir: baseDir,
		prefix:  prefix,
		now:     time.Now,
	}
}

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *JSONLZstdWriter) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	hour := w.now().UTC().Format("2006-01-02-15")
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *JSONLZstdWriter) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	dir := filepath.Dir(w.pathForHour(hour))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.pathForHour(hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 128*1024)
	w.curHour = hour
	return nil
}

func (w *JSONLZstdWriter) closeLocked() error {
	var err1 error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err1 = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	w.curHour = ""
	return err1
}

func (w *JSONLZstdWriter) pathForHour(hour string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour))
}

// AdvanceRecord is one line of the advance log.
type AdvanceRecord struct {
	AsOf           time.Time     `json:"as_of"`
	ElapsedSeconds float64       `json:"elapsed_seconds"`
	Offline        bool          `json:"offline"`
	NewEntries     int           `json:"new_entries"`
	RatesPerHour   state.Amounts `json:"rates_per_hour"`
	RaidChance     float64       `json:"raid_chance"`
	Efficiency     float64       `json:"efficiency"`
}

// AdvanceLogger writes one JSONL entry per advance (compressed).
type AdvanceLogger struct{ w *JSONLZstdWriter }

func NewAdvanceLogger(dataDir string) *AdvanceLogger {
	return &AdvanceLogger{w: NewJSONLZstdWriter(filepath.Join(dataDir, "advances"), "advances")}
}

func (l *AdvanceLogger) WriteAdvance(r engine.AdvanceReport) error {
	return l.w.Write(AdvanceRecord{
		AsOf:           r.AsOf,
		ElapsedSeconds: r.ElapsedSeconds,
		Offline:        r.Offline,
		NewEntries:     len(r.NewEntries),
		RatesPerHour:   r.Derived.RatesPerHour,
		RaidChance:     r.Derived.Risk.RaidChancePerHour,
		Efficiency:     r.Derived.Efficiency,
	})
}
func (l *AdvanceLogger) Close() error { return l.w.Close() }

// EventLogger writes event log entries and notifications (compressed).
type EventLogger struct{ w *JSONLZstdWriter }

func NewEventLogger(dataDir string) *EventLogger {
	return &EventLogger{w: NewJSONLZstdWriter(filepath.Join(dataDir, "events"), "events")}
}

type eventLine struct {
	Kind         string               `json:"kind"`
	Entry        *state.EventLogEntry `json:"entry,omitempty"`
	Notification *engine.Notification `json:"notification,omitempty"`
}

func (l *EventLogger) WriteEntry(e state.EventLogEntry) error {
	return l.w.Write(eventLine{Kind: "entry", Entry: &e})
}

func (l *EventLogger) WriteNotification(n engine.Notification) error {
	return l.w.Write(eventLine{Kind: "notification", Notification: &n})
}
func (l *EventLogger) Close() error { return l.w.Close() }

// Recorder is an engine.Observer that persists everything the engine reports.
// Write failures go to OnError; the engine never sees them.
type Recorder struct {
	Advances *AdvanceLogger
	Events   *EventLogger
	OnError  func(error)
}

func NewRecorder(dataDir string) *Recorder {
	return &Recorder{Advances: NewAdvanceLogger(dataDir), Events: NewEventLogger(dataDir)}
}

func (r *Recorder) OnNotification(n engine.Notification) {
	r.report(r.Events.WriteNotification(n))
}

func (r *Recorder) OnAdvance(rep engine.AdvanceReport) {
	r.report(r.Advances.WriteAdvance(rep))
	for _, e := range rep.NewEntries {
		r.report(r.Events.WriteEntry(e))
	}
}

func (r *Recorder) report(err error) {
	if err != nil && r.OnError != nil {
		r.OnError(err)
	}
}

func (r *Recorder) Close() error {
	err1 := r.Advances.Close()
	if err := r.Events.Close(); err != nil {
		return err
	}
	return err1
}
